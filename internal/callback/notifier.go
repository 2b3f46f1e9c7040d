// Package callback delivers finalized reports to the configured external
// endpoint, retrying transient failures with capped backoff.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/antoniostano/jaal/internal/reliability"
	"github.com/antoniostano/jaal/internal/report"
)

// Notifier posts FinalReport JSON to a callback URL. A nil Notifier is a
// no-op, which is how deployments without a callback run.
type Notifier struct {
	url         string
	apiKey      string
	client      *http.Client
	logger      *slog.Logger
	maxAttempts int
	baseBackoff time.Duration
	capBackoff  time.Duration

	// OnOutcome, when set, observes each delivery as "ok" or "failed".
	OnOutcome func(outcome string)
}

func NewNotifier(url, apiKey string, logger *slog.Logger) *Notifier {
	if strings.TrimSpace(url) == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		url:         strings.TrimSpace(url),
		apiKey:      apiKey,
		client:      &http.Client{Timeout: 10 * time.Second},
		logger:      logger,
		maxAttempts: 4,
		baseBackoff: 500 * time.Millisecond,
		capBackoff:  8 * time.Second,
	}
}

// Deliver posts the report, retrying on retryable statuses and transport
// errors. Client errors (4xx other than 429) fail immediately.
func (n *Notifier) Deliver(ctx context.Context, rep report.FinalReport) error {
	if n == nil {
		return nil
	}

	payload, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encode callback payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < n.maxAttempts; attempt++ {
		if attempt > 0 {
			wait := reliability.ExponentialBackoff(attempt-1, n.baseBackoff, n.capBackoff)
			select {
			case <-ctx.Done():
				n.outcome("failed")
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		retryable, err := n.post(ctx, payload)
		if err == nil {
			n.logger.Info("callback delivered",
				"session_id", rep.SessionID, "attempt", attempt+1)
			n.outcome("ok")
			return nil
		}
		lastErr = err
		if !retryable {
			break
		}
		n.logger.Warn("callback attempt failed",
			"session_id", rep.SessionID, "attempt", attempt+1, "error", err)
	}

	n.logger.Error("callback delivery failed",
		"session_id", rep.SessionID, "error", lastErr)
	n.outcome("failed")
	return fmt.Errorf("deliver callback for %s: %w", rep.SessionID, lastErr)
}

func (n *Notifier) post(ctx context.Context, payload []byte) (retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.apiKey != "" {
		req.Header.Set("x-api-key", n.apiKey)
	}

	res, err := n.client.Do(req)
	if err != nil {
		return true, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return false, nil
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
	err = fmt.Errorf("callback status %d: %s", res.StatusCode, string(body))
	return reliability.IsRetryableHTTPStatus(res.StatusCode), err
}

func (n *Notifier) outcome(result string) {
	if n.OnOutcome != nil {
		n.OnOutcome(result)
	}
}
