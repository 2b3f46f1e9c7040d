package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/antoniostano/jaal/internal/session"
)

// Store is the session.Store contract plus lifecycle.
type Store interface {
	session.Store
	Close() error
}

// New picks a backend from the URL scheme: redis:// or rediss:// for Redis,
// postgres:// or postgresql:// for Postgres, memory:// (or empty) for
// in-memory.
func New(ctx context.Context, url string, ttl time.Duration) (Store, error) {
	url = strings.TrimSpace(url)
	switch {
	case url == "", url == "memory://":
		return NewMemoryStore(), nil
	case strings.HasPrefix(url, "redis://"), strings.HasPrefix(url, "rediss://"):
		return NewRedisStore(ctx, url, ttl)
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return NewPostgresStore(ctx, url)
	default:
		return nil, fmt.Errorf("unsupported session store url %q", url)
	}
}
