package translate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"bankreviews/internal/logger"
)

type HTTPOptions struct {
	Timeout      time.Duration
	RateLimitRPS int
	MaxAttempts  int
}

// StatusError is returned for a non-2xx answer that was not retried, or
// that was still failing after the last attempt.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s status=%d body=%s", e.Provider, e.Code, e.Body)
}

type transport struct {
	provider    string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	backoffBase time.Duration
}

func newTransport(provider string, opts HTTPOptions) *transport {
	rps := opts.RateLimitRPS
	if rps <= 0 {
		rps = 1
	}
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &transport{
		provider:    provider,
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		maxAttempts: attempts,
		backoffBase: 250 * time.Millisecond,
	}
}

// do sends the request built by newReq, retrying transport errors and
// retryable statuses. newReq is called once per attempt so bodies are fresh.
func (t *transport) do(ctx context.Context, newReq func(context.Context) (*http.Request, error)) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= t.maxAttempts; attempt++ {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := newReq(ctx)
		if err != nil {
			return nil, err
		}

		resp, err := t.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if err := t.wait(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			if err := t.wait(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			statusErr := &StatusError{Provider: t.provider, Code: resp.StatusCode, Body: truncate(string(body), 200)}
			if isRetryableStatus(resp.StatusCode) && attempt < t.maxAttempts {
				lastErr = statusErr
				if err := t.wait(ctx, attempt); err != nil {
					return nil, err
				}
				continue
			}
			return nil, statusErr
		}
		return body, nil
	}

	if lastErr == nil {
		lastErr = errors.New(t.provider + " request failed")
	}
	return nil, lastErr
}

// wait sleeps before the next attempt; nothing to wait for after the last.
func (t *transport) wait(ctx context.Context, attempt int) error {
	if attempt >= t.maxAttempts {
		return nil
	}
	jitter := time.Duration(rand.Int63n(int64(t.backoffBase)/2 + 1))
	backoff := t.backoffBase*time.Duration(1<<(attempt-1)) + jitter
	logger.Debugf("%s attempt %d/%d failed, retrying in %s", t.provider, attempt, t.maxAttempts, backoff)
	timer := time.NewTimer(backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
