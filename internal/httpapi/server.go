// Package httpapi is the transport surface: the REST analyze endpoints,
// the live websocket feed and the operator console.
package httpapi

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/antoniostano/jaal/internal/config"
	"github.com/antoniostano/jaal/internal/engine"
	"github.com/antoniostano/jaal/internal/observability"
	"github.com/antoniostano/jaal/internal/report"
	"github.com/antoniostano/jaal/internal/session"
)

type Server struct {
	cfg      config.Config
	engine   *engine.Engine
	reports  report.Archive
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
	static   http.Handler
}

func New(cfg config.Config, eng *engine.Engine, reports report.Archive, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:     cfg,
		engine:  eng,
		reports: reports,
		metrics: metrics,
		static:  newStaticHandler(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only allow browser websocket connections from the same
				// origin unless explicitly opened up; other sites must not
				// drive the console feed.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusTemporaryRedirect)
	})
	r.Get("/ui", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusTemporaryRedirect)
	})
	r.Handle("/ui/*", http.StripPrefix("/ui/", s.static))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})
	r.Get("/v1/perf/latency", s.handlePerfLatency)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAPIKey)
		r.Post("/v1/analyze", s.handleAnalyze)
		r.Get("/v1/sessions/{id}", s.handleGetSession)
		r.Post("/v1/sessions/{id}/finalize", s.handleFinalizeSession)
		r.Get("/v1/reports", s.handleListReports)
		r.Get("/v1/reports/{id}", s.handleGetReport)
	})
	r.Get("/v1/sessions/ws", s.handleSessionWS)

	return r
}

// requireAPIKey checks the x-api-key header against the configured key.
// An empty configured key disables the check.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIKey != "" && r.Header.Get("x-api-key") != s.cfg.APIKey {
			respondError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid api key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

// analyzeRequest is the inbound wire format of POST /v1/analyze. History is
// optional and only consulted for sessions this process has not seen.
type analyzeRequest struct {
	SessionID string           `json:"sessionId"`
	Message   analyzeMessage   `json:"message"`
	History   []analyzeMessage `json:"conversationHistory,omitempty"`
	Metadata  analyzeMetadata  `json:"metadata,omitempty"`
}

type analyzeMessage struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

type analyzeMetadata struct {
	Channel  string `json:"channel,omitempty"`
	Language string `json:"language,omitempty"`
	Locale   string `json:"locale,omitempty"`
}

type analyzeResponse struct {
	Status string `json:"status"`
	Reply  string `json:"reply"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		if errors.Is(err, errEmptyBody) {
			respondError(w, http.StatusBadRequest, "invalid_request", "request body is required")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "sessionId is required")
		return
	}
	if strings.TrimSpace(req.Message.Text) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "message.text is required")
		return
	}
	if req.Message.Timestamp.IsZero() {
		req.Message.Timestamp = time.Now().UTC()
	}

	history := make([]engine.TurnInput, 0, len(req.History))
	for _, h := range req.History {
		history = append(history, engine.TurnInput{
			Sender:    h.Sender,
			Text:      h.Text,
			Timestamp: h.Timestamp,
		})
	}

	out, err := s.engine.AnalyzeTurn(r.Context(), req.SessionID, engine.TurnInput{
		Sender:    req.Message.Sender,
		Text:      req.Message.Text,
		Timestamp: req.Message.Timestamp,
	}, history, engine.Metadata{
		Channel:  req.Metadata.Channel,
		Language: req.Metadata.Language,
		Locale:   req.Metadata.Locale,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "analyze_failed", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, analyzeResponse{Status: "success", Reply: out.Reply})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if strings.TrimSpace(id) == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}
	snap, err := s.engine.Snapshot(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			respondError(w, http.StatusNotFound, "session_not_found", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "session_load_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleFinalizeSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if strings.TrimSpace(id) == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}
	rep, err := s.engine.FinalizeSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			respondError(w, http.StatusNotFound, "session_not_found", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "finalize_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		respondJSON(w, http.StatusOK, []report.FinalReport{})
		return
	}
	reps, err := s.reports.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "report_list_failed", err.Error())
		return
	}
	if reps == nil {
		reps = []report.FinalReport{}
	}
	respondJSON(w, http.StatusOK, reps)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.reports == nil {
		respondError(w, http.StatusNotFound, "report_not_found", "report archive disabled")
		return
	}
	rep, err := s.reports.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, report.ErrReportNotFound) {
			respondError(w, http.StatusNotFound, "report_not_found", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "report_load_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, rep)
}
