package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrReportNotFound = errors.New("report not found")

// Archive stores finalized reports so they stay listable after the session
// itself is evicted. Saving the same session again overwrites its report.
type Archive interface {
	Save(ctx context.Context, rep FinalReport) error
	Get(ctx context.Context, sessionID string) (FinalReport, error)
	List(ctx context.Context) ([]FinalReport, error)
	Close() error
}

// NewArchive returns a Postgres archive when a database URL is configured,
// otherwise an in-memory one.
func NewArchive(ctx context.Context, databaseURL string) (Archive, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewMemoryArchive(), nil
	}
	return NewPostgresArchive(ctx, databaseURL)
}

// MemoryArchive is the in-process archive used by default.
type MemoryArchive struct {
	mu      sync.RWMutex
	reports map[string]FinalReport
}

func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{reports: make(map[string]FinalReport)}
}

func (a *MemoryArchive) Save(_ context.Context, rep FinalReport) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reports[rep.SessionID] = rep
	return nil
}

func (a *MemoryArchive) Get(_ context.Context, sessionID string) (FinalReport, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	rep, ok := a.reports[sessionID]
	if !ok {
		return FinalReport{}, ErrReportNotFound
	}
	return rep, nil
}

func (a *MemoryArchive) List(_ context.Context) ([]FinalReport, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]FinalReport, 0, len(a.reports))
	for _, rep := range a.reports {
		out = append(out, rep)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].GeneratedAt.After(out[j].GeneratedAt)
	})
	return out, nil
}

func (a *MemoryArchive) Close() error { return nil }

// PostgresArchive persists reports as JSONB rows.
type PostgresArchive struct {
	pool *pgxpool.Pool
}

func NewPostgresArchive(ctx context.Context, databaseURL string) (*PostgresArchive, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	stmt := `CREATE TABLE IF NOT EXISTS jaal_reports (
		session_id TEXT PRIMARY KEY,
		data JSONB NOT NULL,
		generated_at TIMESTAMPTZ NOT NULL
	);`
	if _, err := pool.Exec(ctx, stmt); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init report schema: %w", err)
	}
	return &PostgresArchive{pool: pool}, nil
}

func (a *PostgresArchive) Save(ctx context.Context, rep FinalReport) error {
	raw, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encode report %s: %w", rep.SessionID, err)
	}
	_, err = a.pool.Exec(ctx,
		`INSERT INTO jaal_reports (session_id, data, generated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (session_id) DO UPDATE SET data = EXCLUDED.data, generated_at = EXCLUDED.generated_at`,
		rep.SessionID, raw, rep.GeneratedAt)
	if err != nil {
		return fmt.Errorf("upsert report: %w", err)
	}
	return nil
}

func (a *PostgresArchive) Get(ctx context.Context, sessionID string) (FinalReport, error) {
	var raw []byte
	err := a.pool.QueryRow(ctx,
		`SELECT data FROM jaal_reports WHERE session_id=$1`, sessionID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return FinalReport{}, ErrReportNotFound
	}
	if err != nil {
		return FinalReport{}, fmt.Errorf("query report: %w", err)
	}
	var rep FinalReport
	if err := json.Unmarshal(raw, &rep); err != nil {
		return FinalReport{}, fmt.Errorf("decode report %s: %w", sessionID, err)
	}
	return rep, nil
}

func (a *PostgresArchive) List(ctx context.Context) ([]FinalReport, error) {
	rows, err := a.pool.Query(ctx,
		`SELECT data FROM jaal_reports ORDER BY generated_at DESC LIMIT 200`)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var out []FinalReport
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		var rep FinalReport
		if err := json.Unmarshal(raw, &rep); err != nil {
			return nil, fmt.Errorf("decode report row: %w", err)
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report rows: %w", err)
	}
	return out, nil
}

func (a *PostgresArchive) Close() error {
	a.pool.Close()
	return nil
}

var _ Archive = (*MemoryArchive)(nil)
var _ Archive = (*PostgresArchive)(nil)
