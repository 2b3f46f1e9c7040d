package session

import (
	"context"
	"time"

	"github.com/antoniostano/jaal/internal/classify"
	"github.com/antoniostano/jaal/internal/engage"
	"github.com/antoniostano/jaal/internal/extract"
)

// Role identifies who sent a turn.
type Role string

const (
	RoleScammer  Role = "scammer"
	RoleHoneypot Role = "honeypot"
)

// Turn is one exchanged message. Immutable once appended to a session.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Channel   string    `json:"channel,omitempty"`
	Language  string    `json:"language,omitempty"`
	Locale    string    `json:"locale,omitempty"`
}

// MetricEvent is a counted engagement event.
type MetricEvent string

const (
	EventQuestionAsked      MetricEvent = "question_asked"
	EventRedFlag            MetricEvent = "red_flag"
	EventElicitationAttempt MetricEvent = "elicitation_attempt"
)

// Metrics are the per-session engagement counters.
type Metrics struct {
	QuestionsAsked      int      `json:"questions_asked"`
	RedFlags            int      `json:"red_flags"`
	ElicitationAttempts int      `json:"elicitation_attempts"`
	RedFlagLabels       []string `json:"red_flag_labels,omitempty"`
}

// Session is the full mutable state of one conversation. All fields are
// exported so the key-value stores can round-trip it as JSON.
type Session struct {
	ID string `json:"id"`

	Turns []Turn `json:"turns"`

	// Entities holds per-category extracted values in first-seen order;
	// EntityKeys is the dedup set over Entity.Key().
	Entities   map[extract.Category][]extract.Entity `json:"entities,omitempty"`
	EntityKeys map[string]bool                       `json:"entity_keys,omitempty"`

	Classification  classify.Result `json:"classification"`
	ClassifierState classify.State  `json:"classifier_state"`

	Engage engage.State `json:"engage"`

	Metrics Metrics `json:"metrics"`

	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`

	// Anomalies counts accepted-but-flagged irregularities, currently
	// out-of-order turn timestamps.
	Anomalies int `json:"anomalies,omitempty"`

	// CallbackSent is set once the final-result callback has been
	// delivered automatically for this session.
	CallbackSent bool `json:"callback_sent,omitempty"`
}

// Clone returns a deep copy safe to hand outside the manager's locks.
func (s *Session) Clone() *Session {
	c := *s
	c.Turns = append([]Turn(nil), s.Turns...)
	if s.Entities != nil {
		c.Entities = make(map[extract.Category][]extract.Entity, len(s.Entities))
		for cat, list := range s.Entities {
			c.Entities[cat] = append([]extract.Entity(nil), list...)
		}
	}
	if s.EntityKeys != nil {
		c.EntityKeys = make(map[string]bool, len(s.EntityKeys))
		for k, v := range s.EntityKeys {
			c.EntityKeys[k] = v
		}
	}
	c.ClassifierState = s.ClassifierState.Clone()
	c.Engage = s.Engage.Clone()
	c.Metrics.RedFlagLabels = append([]string(nil), s.Metrics.RedFlagLabels...)
	return &c
}

// HasCategory reports whether at least one entity of the category has been
// extracted in this session.
func (s *Session) HasCategory(c extract.Category) bool {
	return len(s.Entities[c]) > 0
}

// CategorySet returns the set of categories extracted so far, the shape the
// classifier's affinity scoring wants.
func (s *Session) CategorySet() map[extract.Category]bool {
	set := make(map[extract.Category]bool, len(s.Entities))
	for cat, list := range s.Entities {
		if len(list) > 0 {
			set[cat] = true
		}
	}
	return set
}

// Store is the narrow key-value persistence contract the manager consumes.
// Implementations live in internal/store.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}
