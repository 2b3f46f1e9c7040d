// Package session owns the per-conversation state and the arena of locks
// that serializes mutations on each conversation independently.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/antoniostano/jaal/internal/classify"
	"github.com/antoniostano/jaal/internal/extract"
)

var ErrNotFound = errors.New("session not found")

// entry pairs one session with its mutation lock. Operations on distinct
// sessions proceed concurrently; operations on one session serialize.
// evicted marks an entry the janitor removed from the arena; a goroutine
// that fetched it before removal must discard it and look up again, or two
// entries for the same id could be mutated concurrently. All three fields
// are guarded by mu.
type entry struct {
	mu      sync.Mutex
	s       *Session
	evicted bool
}

// Manager is the arena of live sessions backed by a key-value store. Every
// mutation happens under the session's own lock and is written through to
// the store before the lock is released.
type Manager struct {
	mu     sync.Mutex
	arena  map[string]*entry
	store  Store
	logger *slog.Logger

	idleTimeout time.Duration
}

func NewManager(store Store, idleTimeout time.Duration, logger *slog.Logger) *Manager {
	if idleTimeout <= 0 {
		idleTimeout = 30 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		arena:       make(map[string]*entry),
		store:       store,
		logger:      logger,
		idleTimeout: idleTimeout,
	}
}

// entryFor returns the arena entry for id, rehydrating from the store on a
// miss and creating a fresh session when the store has nothing either.
func (m *Manager) entryFor(ctx context.Context, id string, create bool) (*entry, error) {
	var e *entry
	for {
		m.mu.Lock()
		var ok bool
		e, ok = m.arena[id]
		if !ok {
			e = &entry{}
			m.arena[id] = e
		}
		m.mu.Unlock()

		e.mu.Lock()
		if !e.evicted {
			break
		}
		// The janitor dropped this entry between the arena lookup and the
		// lock acquisition. Retry against the arena for a live one.
		e.mu.Unlock()
	}
	if e.s == nil {
		stored, err := m.store.Get(ctx, id)
		switch {
		case err == nil:
			e.s = stored
		case errors.Is(err, ErrNotFound):
			if !create {
				e.mu.Unlock()
				return nil, ErrNotFound
			}
			now := time.Now().UTC()
			e.s = &Session{
				ID:             id,
				Entities:       make(map[extract.Category][]extract.Entity),
				EntityKeys:     make(map[string]bool),
				Classification: classify.Result{Type: classify.TypeUnclassified},
				CreatedAt:      now,
				LastActivityAt: now,
			}
		default:
			e.mu.Unlock()
			return nil, fmt.Errorf("load session %s: %w", id, err)
		}
	}
	return e, nil
}

// Mutate runs fn on the session under its lock, creating the session if it
// does not exist yet, and writes the result through to the store. This is
// the primitive every mutating operation is built on; the engine uses it
// directly to keep one inbound message's whole update atomic per session.
func (m *Manager) Mutate(ctx context.Context, id string, fn func(*Session) error) error {
	e, err := m.entryFor(ctx, id, true)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()

	if err := fn(e.s); err != nil {
		return err
	}
	if err := m.store.Put(ctx, e.s); err != nil {
		return fmt.Errorf("persist session %s: %w", id, err)
	}
	return nil
}

// GetOrCreate returns a snapshot of the session, creating it when absent.
func (m *Manager) GetOrCreate(ctx context.Context, id string) (*Session, error) {
	e, err := m.entryFor(ctx, id, true)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()
	if err := m.store.Put(ctx, e.s); err != nil {
		return nil, fmt.Errorf("persist session %s: %w", id, err)
	}
	return e.s.Clone(), nil
}

// AppendTurn appends one turn. Out-of-order timestamps are accepted but
// recorded as anomalies; a conversation must never fail on clock skew.
func (m *Manager) AppendTurn(ctx context.Context, id string, turn Turn) error {
	return m.Mutate(ctx, id, func(s *Session) error {
		s.Append(turn, m.logger)
		return nil
	})
}

// Append adds one turn to the session, filling in a turn id and timestamp
// when missing, and returns the stored turn. Callers must hold the
// session's mutation lock (the manager's Mutate does).
func (s *Session) Append(turn Turn, logger *slog.Logger) Turn {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}
	if turn.Timestamp.Before(s.LastActivityAt) {
		s.Anomalies++
		if logger != nil {
			logger.Warn("out-of-order turn timestamp",
				"session_id", s.ID,
				"turn_ts", turn.Timestamp,
				"last_activity", s.LastActivityAt)
		}
	} else {
		s.LastActivityAt = turn.Timestamp
	}
	s.Turns = append(s.Turns, turn)
	return turn
}

// MergeEntities unions newly extracted entities into the session. The merge
// is idempotent; re-submitting a known value is a no-op. Returns the
// entities that were actually new, in input order.
func (m *Manager) MergeEntities(ctx context.Context, id string, found []extract.Entity) ([]extract.Entity, error) {
	var added []extract.Entity
	err := m.Mutate(ctx, id, func(s *Session) error {
		added = s.Merge(found)
		return nil
	})
	return added, err
}

// Merge unions found entities into the session's cumulative sets and
// returns the genuinely new ones.
func (s *Session) Merge(found []extract.Entity) []extract.Entity {
	if s.Entities == nil {
		s.Entities = make(map[extract.Category][]extract.Entity)
	}
	if s.EntityKeys == nil {
		s.EntityKeys = make(map[string]bool)
	}
	var added []extract.Entity
	for _, ent := range found {
		key := ent.Key()
		if s.EntityKeys[key] {
			continue
		}
		s.EntityKeys[key] = true
		s.Entities[ent.Category] = append(s.Entities[ent.Category], ent)
		added = append(added, ent)
	}
	return added
}

// UpdateClassification records the latest classification result.
func (m *Manager) UpdateClassification(ctx context.Context, id string, result classify.Result) error {
	return m.Mutate(ctx, id, func(s *Session) error {
		s.Classification = result
		return nil
	})
}

// RecordMetric counts one engagement event. Red flags are labeled and each
// label only counts once per session.
func (m *Manager) RecordMetric(ctx context.Context, id string, event MetricEvent, label string) error {
	return m.Mutate(ctx, id, func(s *Session) error {
		s.Record(event, label)
		return nil
	})
}

// Record counts one engagement event on the session.
func (s *Session) Record(event MetricEvent, label string) {
	switch event {
	case EventQuestionAsked:
		s.Metrics.QuestionsAsked++
	case EventElicitationAttempt:
		s.Metrics.ElicitationAttempts++
	case EventRedFlag:
		for _, seen := range s.Metrics.RedFlagLabels {
			if seen == label {
				return
			}
		}
		s.Metrics.RedFlags++
		if label != "" {
			s.Metrics.RedFlagLabels = append(s.Metrics.RedFlagLabels, label)
		}
	}
}

// Snapshot returns a deep clone of the session, or ErrNotFound.
func (m *Manager) Snapshot(ctx context.Context, id string) (*Session, error) {
	e, err := m.entryFor(ctx, id, false)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()
	return e.s.Clone(), nil
}

// Delete removes the session from the arena and the store.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	e, ok := m.arena[id]
	m.mu.Unlock()
	if ok {
		e.mu.Lock()
		e.evicted = true
		m.mu.Lock()
		if m.arena[id] == e {
			delete(m.arena, id)
		}
		m.mu.Unlock()
		e.mu.Unlock()
	}
	return m.store.Delete(ctx, id)
}

// ActiveCount reports how many sessions are currently resident in the
// arena.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.arena)
}

// StartJanitor evicts idle sessions from the arena on a timer. Eviction
// only drops the in-process copy; state stays in the store and rehydrates
// on the next touch.
func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.evictIdle()
			}
		}
	}()
}

func (m *Manager) evictIdle() {
	now := time.Now().UTC()

	m.mu.Lock()
	candidates := make(map[string]*entry, len(m.arena))
	for id, e := range m.arena {
		candidates[id] = e
	}
	m.mu.Unlock()

	for id, e := range candidates {
		// Skip entries someone is mutating right now; next tick gets them.
		// The session fields may only be read under e.mu, so the idle check
		// happens after the lock is held.
		if !e.mu.TryLock() {
			continue
		}
		if e.s == nil || now.Sub(e.s.LastActivityAt) < m.idleTimeout {
			e.mu.Unlock()
			continue
		}
		e.evicted = true
		m.mu.Lock()
		if m.arena[id] == e {
			delete(m.arena, id)
		}
		m.mu.Unlock()
		e.mu.Unlock()
		m.logger.Debug("evicted idle session", "session_id", id)
	}
}

// IsQuestion reports whether a rendered reply is interrogative, the trigger
// for the question_asked metric.
func IsQuestion(reply string) bool {
	return strings.Contains(reply, "?")
}
