// Package intelwire publishes intelligence events to NATS for downstream
// consumers. Deployments without a NATS URL get the no-op publisher.
package intelwire

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/antoniostano/jaal/internal/extract"
	"github.com/antoniostano/jaal/internal/report"
)

// NATS subjects for the three event kinds.
const (
	SubjectEntity = "jaal.intel.entity"
	SubjectScam   = "jaal.intel.scam"
	SubjectReport = "jaal.intel.report"
)

// EntityEvent announces one newly extracted entity.
type EntityEvent struct {
	SessionID string `json:"session_id"`
	Category  string `json:"category"`
	Value     string `json:"value"`
	TurnIndex int    `json:"turn_index"`
}

// ScamEvent announces a session crossing the detection threshold.
type ScamEvent struct {
	SessionID  string  `json:"session_id"`
	ScamType   string  `json:"scam_type"`
	Confidence float64 `json:"confidence"`
}

// Publisher is the outbound event contract the engine holds.
type Publisher interface {
	EntityFound(sessionID string, ent extract.Entity)
	ScamDetected(sessionID, scamType string, confidence float64)
	ReportFinalized(rep report.FinalReport)
	Close()
}

// NopPublisher drops everything.
type NopPublisher struct{}

func (NopPublisher) EntityFound(string, extract.Entity)   {}
func (NopPublisher) ScamDetected(string, string, float64) {}
func (NopPublisher) ReportFinalized(report.FinalReport)   {}
func (NopPublisher) Close()                               {}

// NATSPublisher emits events over a NATS connection. Publishing is
// best-effort; a broker outage must never fail a conversation turn.
type NATSPublisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewNATSPublisher(url, token string, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSPublisher{conn: nc, logger: logger}, nil
}

func (p *NATSPublisher) EntityFound(sessionID string, ent extract.Entity) {
	p.publish(SubjectEntity, EntityEvent{
		SessionID: sessionID,
		Category:  string(ent.Category),
		Value:     ent.Value,
		TurnIndex: ent.TurnIndex,
	})
}

func (p *NATSPublisher) ScamDetected(sessionID, scamType string, confidence float64) {
	p.publish(SubjectScam, ScamEvent{
		SessionID:  sessionID,
		ScamType:   scamType,
		Confidence: confidence,
	})
}

func (p *NATSPublisher) ReportFinalized(rep report.FinalReport) {
	p.publish(SubjectReport, rep)
}

func (p *NATSPublisher) publish(subject string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		p.logger.Error("marshal intel event", "subject", subject, "error", err)
		return
	}
	if err := p.conn.Publish(subject, payload); err != nil {
		p.logger.Warn("publish intel event", "subject", subject, "error", err)
	}
}

func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("nats drain", "error", err)
	}
}

var _ Publisher = (*NATSPublisher)(nil)
var _ Publisher = NopPublisher{}
