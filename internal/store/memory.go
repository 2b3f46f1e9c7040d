// Package store provides the key-value session store implementations behind
// the session.Store contract: in-memory for local use, Redis for shared
// state with TTL, Postgres for durable state.
package store

import (
	"context"
	"sync"

	"github.com/antoniostano/jaal/internal/session"
)

// MemoryStore is the default in-process store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*session.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]*session.Session)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.data[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return sess.Clone(), nil
}

func (s *MemoryStore) Put(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sess.ID] = sess.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
