// Package engine is the conversation intelligence pipeline: for each
// inbound scammer message it extracts entities, classifies the scam type,
// folds both into the session, picks a persona and strategy move, and
// renders the honeypot's reply. Finalization assembles the intelligence
// report from a session snapshot.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/antoniostano/jaal/internal/callback"
	"github.com/antoniostano/jaal/internal/classify"
	"github.com/antoniostano/jaal/internal/engage"
	"github.com/antoniostano/jaal/internal/extract"
	"github.com/antoniostano/jaal/internal/intelwire"
	"github.com/antoniostano/jaal/internal/observability"
	"github.com/antoniostano/jaal/internal/policy"
	"github.com/antoniostano/jaal/internal/report"
	"github.com/antoniostano/jaal/internal/session"
)

// TurnInput is one inbound message as the transport layer hands it over.
type TurnInput struct {
	Sender    string
	Text      string
	Timestamp time.Time
}

// Metadata describes the channel context of the current message.
type Metadata struct {
	Channel  string
	Language string
	Locale   string
}

// Analysis is the outcome of one pipeline run.
type Analysis struct {
	SessionID      string
	TurnID         string
	Reply          string
	Persona        engage.Persona
	Move           engage.Move
	Classification classify.Result
	NewEntities    []extract.Entity
}

// Engine wires the pipeline stages together. All per-session state lives in
// the session manager; the engine itself is safe for concurrent use.
type Engine struct {
	sessions   *session.Manager
	classifier *classify.Classifier
	generator  *engage.Generator
	reports    report.Archive
	notifier   *callback.Notifier
	wire       intelwire.Publisher
	metrics    *observability.Metrics
	logger     *slog.Logger
}

func New(
	sessions *session.Manager,
	classifier *classify.Classifier,
	generator *engage.Generator,
	reports report.Archive,
	notifier *callback.Notifier,
	wire intelwire.Publisher,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *Engine {
	if wire == nil {
		wire = intelwire.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		sessions:   sessions,
		classifier: classifier,
		generator:  generator,
		reports:    reports,
		notifier:   notifier,
		wire:       wire,
		metrics:    metrics,
		logger:     logger,
	}
}

// AnalyzeTurn runs the full pipeline for one inbound message. History, when
// supplied for a session the engine has not seen, is replayed through
// extraction and classification first (stateless clients resend it), so a
// conversation resumed on a fresh process keeps its accumulated intel.
func (e *Engine) AnalyzeTurn(ctx context.Context, sessionID string, turn TurnInput, history []TurnInput, meta Metadata) (Analysis, error) {
	started := time.Now()
	var out Analysis
	out.SessionID = sessionID

	err := e.sessions.Mutate(ctx, sessionID, func(s *session.Session) error {
		if len(s.Turns) == 0 && len(history) > 0 {
			e.replayHistory(s, history, meta)
		}

		// Stage 1: append the scammer turn.
		s.Append(session.Turn{
			Role:      session.RoleScammer,
			Text:      turn.Text,
			Timestamp: turn.Timestamp,
			Channel:   meta.Channel,
			Language:  meta.Language,
			Locale:    meta.Locale,
		}, e.logger)
		turnIndex := len(s.Turns) - 1

		// Stage 2: extract and merge entities.
		stage := time.Now()
		found := extract.Extract(turn.Text)
		for i := range found {
			found[i].TurnIndex = turnIndex
		}
		added := s.Merge(found)
		e.observeStage("extract", stage)

		for _, ent := range added {
			e.wire.EntityFound(sessionID, ent)
			if e.metrics != nil {
				e.metrics.EntitiesExtracted.WithLabelValues(string(ent.Category)).Inc()
			}
			if extract.HighRisk(ent.Category) {
				s.Record(session.EventRedFlag, redFlagLabel(ent.Category))
			}
			if ent.Category == extract.CategoryLink {
				s.Record(session.EventRedFlag, "Suspicious Link")
			}
		}
		if engage.IsUrgent(turn.Text) {
			s.Record(session.EventRedFlag, "Urgency")
		}
		if strings.Contains(strings.ToLower(turn.Text), "otp") {
			s.Record(session.EventRedFlag, "OTP Request")
		}

		// Stage 3: classify over the new turn plus accumulated signals.
		stage = time.Now()
		wasDetected := s.Classification.Detected
		result := e.classifier.Observe(&s.ClassifierState, turn.Text, s.CategorySet())
		s.Classification = result
		e.observeStage("classify", stage)

		if result.Detected && !wasDetected {
			s.Record(session.EventRedFlag, "Scam Pattern")
			e.wire.ScamDetected(sessionID, string(result.Type), result.Confidence)
			if e.metrics != nil {
				e.metrics.ScamDetections.WithLabelValues(string(result.Type)).Inc()
			}
			e.logger.Info("scam detected",
				"session_id", sessionID,
				"scam_type", result.Type,
				"confidence", result.Confidence)
		}

		// Stage 4: persona, strategy move, reply.
		stage = time.Now()
		e.assignPersona(s, result, turn.Text, meta)

		move := engage.NextMove(s.Engage, len(s.Turns), turn.Text)
		reply := e.generator.Reply(&s.Engage, move, engage.Context{
			Language: s.Engage.Language,
			Ask:      engage.NextAsk(s.CategorySet()),
			Entity:   lastEntityValue(added),
		})
		if move.Eliciting() {
			s.Record(session.EventElicitationAttempt, "")
		}
		if session.IsQuestion(reply) {
			s.Record(session.EventQuestionAsked, "")
		}
		e.observeStage("engage", stage)

		replyTurn := s.Append(session.Turn{
			Role:      session.RoleHoneypot,
			Text:      reply,
			Timestamp: time.Now().UTC(),
		}, e.logger)

		out.TurnID = replyTurn.ID
		out.Reply = reply
		out.Persona = s.Engage.Persona
		out.Move = move
		out.Classification = result
		out.NewEntities = added

		e.maybeScheduleCallback(s)
		return nil
	})
	if err != nil {
		return Analysis{}, fmt.Errorf("analyze turn: %w", err)
	}

	if e.metrics != nil {
		e.metrics.TurnsProcessed.Inc()
		e.metrics.ActiveSessions.Set(float64(e.sessions.ActiveCount()))
		if out.Persona != "" {
			e.metrics.Replies.WithLabelValues(string(out.Persona), string(out.Move)).Inc()
		}
		e.metrics.ObservePipeline(time.Since(started))
	}
	return out, nil
}

// replayHistory runs prior turns through extraction and classification
// without generating replies, rebuilding the cumulative state.
func (e *Engine) replayHistory(s *session.Session, history []TurnInput, meta Metadata) {
	for _, h := range history {
		role := session.RoleScammer
		if h.Sender != string(session.RoleScammer) && h.Sender != "" {
			role = session.RoleHoneypot
		}
		s.Append(session.Turn{
			Role:      role,
			Text:      h.Text,
			Timestamp: h.Timestamp,
			Channel:   meta.Channel,
		}, e.logger)
		if role != session.RoleScammer {
			continue
		}
		turnIndex := len(s.Turns) - 1
		found := extract.Extract(h.Text)
		for i := range found {
			found[i].TurnIndex = turnIndex
		}
		s.Merge(found)
		s.Classification = e.classifier.Observe(&s.ClassifierState, h.Text, s.CategorySet())
	}
}

// assignPersona commits to a persona once classification clears the
// minimal-confidence bar and keeps it sticky; only a category change while
// the session is confidently detected re-routes the persona.
func (e *Engine) assignPersona(s *session.Session, result classify.Result, turnText string, meta Metadata) {
	params := e.classifier.Params()

	if s.Engage.Language == "" {
		lang := "english"
		if meta.Language == "hinglish" || policy.IsHinglish(turnText) {
			lang = "hinglish"
		}
		s.Engage.Language = lang
	} else if s.Engage.Language == "english" && policy.IsHinglish(turnText) {
		s.Engage.Language = "hinglish"
	}

	if result.Type == classify.TypeUnclassified {
		return
	}
	if s.Engage.Persona == "" {
		if result.Confidence >= params.PersonaThreshold {
			s.Engage.Persona = engage.PersonaFor(result.Type)
			e.logger.Info("persona assigned",
				"session_id", s.ID,
				"persona", s.Engage.Persona,
				"scam_type", result.Type)
		}
		return
	}
	if result.Detected {
		if p := engage.PersonaFor(result.Type); p != s.Engage.Persona {
			e.logger.Info("persona re-routed on category change",
				"session_id", s.ID,
				"from", s.Engage.Persona,
				"to", p,
				"scam_type", result.Type)
			s.Engage.Persona = p
		}
	}
}

// maybeScheduleCallback fires the final-result callback in the background
// once the session is confirmed and has either enough exchange or critical
// intel, at most once per session.
func (e *Engine) maybeScheduleCallback(s *session.Session) {
	if e.notifier == nil || s.CallbackSent || !s.Classification.Detected {
		return
	}
	critical := s.HasCategory(extract.CategoryBankAccount) ||
		s.HasCategory(extract.CategoryUPI) ||
		s.HasCategory(extract.CategoryLink)
	if len(s.Turns) < 4 && !critical {
		return
	}
	s.CallbackSent = true

	rep := report.Assemble(s.Clone(), e.classifier.Params().DetectionThreshold)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := e.notifier.Deliver(ctx, rep); err != nil {
			e.logger.Error("auto callback failed", "session_id", rep.SessionID, "error", err)
		}
	}()
}

// FinalizeSession assembles the report from a read-only snapshot. The
// session stays open; finalize may be called mid-conversation. The report
// is archived and announced on the intel wire.
func (e *Engine) FinalizeSession(ctx context.Context, sessionID string) (report.FinalReport, error) {
	snap, err := e.sessions.Snapshot(ctx, sessionID)
	if err != nil {
		return report.FinalReport{}, err
	}

	rep := report.Assemble(snap, e.classifier.Params().DetectionThreshold)
	if e.reports != nil {
		if err := e.reports.Save(ctx, rep); err != nil {
			e.logger.Error("archive report", "session_id", sessionID, "error", err)
		}
	}
	e.wire.ReportFinalized(rep)

	// Explicit finalize always re-delivers the callback, independent of the
	// one-shot automatic send.
	if e.notifier != nil {
		go func() {
			dctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := e.notifier.Deliver(dctx, rep); err != nil {
				e.logger.Error("finalize callback failed", "session_id", rep.SessionID, "error", err)
			}
		}()
	}
	return rep, nil
}

// Snapshot exposes a read-only session view to the transport layer.
func (e *Engine) Snapshot(ctx context.Context, sessionID string) (*session.Session, error) {
	return e.sessions.Snapshot(ctx, sessionID)
}

func (e *Engine) observeStage(stage string, since time.Time) {
	if e.metrics != nil {
		e.metrics.ObserveStage(stage, time.Since(since))
	}
}

func lastEntityValue(ents []extract.Entity) string {
	if len(ents) == 0 {
		return ""
	}
	return ents[len(ents)-1].Value
}

func redFlagLabel(c extract.Category) string {
	switch c {
	case extract.CategoryBankAccount:
		return "Bank Account Disclosed"
	case extract.CategoryCreditCard:
		return "Credit Card Disclosed"
	case extract.CategoryBitcoin:
		return "Bitcoin Address Disclosed"
	default:
		return string(c)
	}
}
