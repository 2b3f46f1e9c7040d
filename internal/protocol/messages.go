// Package protocol defines the typed JSON envelopes on the live session
// websocket feed.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeScammerMessage MessageType = "scammer_message"
	TypeHoneypotReply  MessageType = "honeypot_reply"
	TypeIntelEvent     MessageType = "intel_event"
	TypeErrorEvent     MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// ScammerMessage is the inbound frame: one message from the scam sender,
// relayed by the operator console or an upstream channel bridge.
type ScammerMessage struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Text      string      `json:"text"`
	TSMs      int64       `json:"ts_ms,omitempty"`
	Language  string      `json:"language,omitempty"`
	Channel   string      `json:"channel,omitempty"`
}

// HoneypotReply carries the generated reply plus the classification the
// turn produced.
type HoneypotReply struct {
	Type       MessageType `json:"type"`
	SessionID  string      `json:"session_id"`
	TurnID     string      `json:"turn_id"`
	Reply      string      `json:"reply"`
	Persona    string      `json:"persona,omitempty"`
	Move       string      `json:"move,omitempty"`
	ScamType   string      `json:"scam_type,omitempty"`
	Confidence float64     `json:"confidence"`
}

// IntelEvent announces one newly extracted entity on the feed.
type IntelEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Category  string      `json:"category"`
	Value     string      `json:"value"`
	TurnIndex int         `json:"turn_index"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}

// ParseClientMessage decodes and validates one inbound frame.
func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeScammerMessage:
		var msg ScammerMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" || msg.Text == "" {
			return nil, errors.New("invalid scammer_message")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}

// TypeOf returns the message type of a known outbound or inbound frame.
func TypeOf(v any) (MessageType, bool) {
	switch m := v.(type) {
	case ScammerMessage:
		return m.Type, true
	case HoneypotReply:
		return m.Type, true
	case IntelEvent:
		return m.Type, true
	case ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
