package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/antoniostano/jaal/internal/engine"
	"github.com/antoniostano/jaal/internal/protocol"
)

// handleSessionWS runs the live message feed: the operator console pushes
// scammer_message frames and receives the honeypot reply plus one
// intel_event per newly extracted entity. All writes go through a single
// writer goroutine.
func (s *Server) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	outbound := make(chan any, 256)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-outbound:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					cancel()
					return
				}
				if t, ok := protocol.TypeOf(msg); ok && s.metrics != nil {
					s.metrics.WSMessages.WithLabelValues("outbound", string(t)).Inc()
				}
			}
		}
	}()

	send := func(msg any) {
		select {
		case outbound <- msg:
		default:
			// Single-threaded writes; drop when the outbound queue is
			// saturated rather than block the read loop.
		}
	}

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			send(protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				Code:      "invalid_client_message",
				Retryable: false,
				Detail:    err.Error(),
			})
			continue
		}

		msg, ok := parsed.(protocol.ScammerMessage)
		if !ok {
			continue
		}
		if s.metrics != nil {
			s.metrics.WSMessages.WithLabelValues("inbound", string(protocol.TypeScammerMessage)).Inc()
		}

		ts := time.Now().UTC()
		if msg.TSMs > 0 {
			ts = time.UnixMilli(msg.TSMs).UTC()
		}
		out, err := s.engine.AnalyzeTurn(ctx, msg.SessionID, engine.TurnInput{
			Sender:    "scammer",
			Text:      msg.Text,
			Timestamp: ts,
		}, nil, engine.Metadata{
			Channel:  msg.Channel,
			Language: msg.Language,
		})
		if err != nil {
			send(protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				SessionID: msg.SessionID,
				Code:      "analyze_failed",
				Retryable: true,
				Detail:    err.Error(),
			})
			continue
		}

		for _, ent := range out.NewEntities {
			send(protocol.IntelEvent{
				Type:      protocol.TypeIntelEvent,
				SessionID: msg.SessionID,
				Category:  string(ent.Category),
				Value:     ent.Value,
				TurnIndex: ent.TurnIndex,
			})
		}
		send(protocol.HoneypotReply{
			Type:       protocol.TypeHoneypotReply,
			SessionID:  msg.SessionID,
			TurnID:     out.TurnID,
			Reply:      out.Reply,
			Persona:    string(out.Persona),
			Move:       string(out.Move),
			ScamType:   string(out.Classification.Type),
			Confidence: out.Classification.Confidence,
		})
	}

	cancel()
	close(outbound)
	<-writerDone
}
