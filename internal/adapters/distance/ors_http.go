package distance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultORSAttempts   = 4
	defaultORSBackoff    = 200 * time.Millisecond
	maxORSErrorBodyBytes = 2048
)

// orsStatusError is a non-2xx reply from OpenRouteService.
type orsStatusError struct {
	Status     int
	Message    string
	RetryAfter time.Duration
}

func (e *orsStatusError) Error() string {
	return fmt.Sprintf("ors replied %d: %s", e.Status, e.Message)
}

func (e *orsStatusError) transient() bool {
	return e.Status == http.StatusTooManyRequests ||
		(e.Status >= 500 && e.Status != http.StatusNotImplemented)
}

// retryPolicy bounds how often and how patiently a matrix call is repeated.
type retryPolicy struct {
	attempts int
	backoff  time.Duration
}

func newRetryPolicy(attempts int, backoff time.Duration) retryPolicy {
	if attempts < 1 {
		attempts = defaultORSAttempts
	}
	if backoff <= 0 {
		backoff = defaultORSBackoff
	}
	return retryPolicy{attempts: attempts, backoff: backoff}
}

// wait is the pause before retry number attempt (1-based). A Retry-After
// from a throttled reply wins when it asks for longer than the backoff.
func (p retryPolicy) wait(attempt int, err error) time.Duration {
	d := p.backoff << (attempt - 1)
	var se *orsStatusError
	if errors.As(err, &se) && se.RetryAfter > d {
		return se.RetryAfter
	}
	return d
}

func retryable(err error) bool {
	var se *orsStatusError
	if errors.As(err, &se) {
		return se.transient()
	}
	var ne net.Error
	return errors.As(err, &ne)
}

// parseRetryAfter reads delta-seconds or an HTTP date; anything else is zero.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

// postJSON sends payload to endpoint once and turns error statuses into
// *orsStatusError.
func (o *ORSDistanceProvider) postJSON(ctx context.Context, endpoint string, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build ors request: %w", err)
	}
	req.Header.Set("Authorization", o.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 400 {
		return resp, nil
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxORSErrorBodyBytes))
	return nil, &orsStatusError{
		Status:     resp.StatusCode,
		Message:    strings.TrimSpace(string(body)),
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
	}
}

// postWithRetry repeats postJSON on throttling, server and network errors.
// pair names the terminals involved and is only used for logging.
func (o *ORSDistanceProvider) postWithRetry(ctx context.Context, endpoint, pair string, payload []byte) (*http.Response, error) {
	var err error
	for attempt := 1; ; attempt++ {
		var resp *http.Response
		resp, err = o.postJSON(ctx, endpoint, payload)
		if err == nil {
			return resp, nil
		}
		if !retryable(err) || attempt >= o.retry.attempts || ctx.Err() != nil {
			return nil, err
		}

		wait := o.retry.wait(attempt, err)
		o.log.Warn("ors request retry",
			zap.String("pair", pair),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}
