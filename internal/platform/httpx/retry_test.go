package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

type statusErr struct{ code int }

func (e statusErr) Error() string       { return fmt.Sprintf("http %d", e.code) }
func (e statusErr) HTTPStatusCode() int { return e.code }

func fastPolicy(retries int) Policy {
	return Policy{
		MaxRetries:      retries,
		AttemptTimeout:  time.Second,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
	}
}

func TestDoRetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastPolicy(3), nil, "test", func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", statusErr{code: http.StatusServiceUnavailable}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got != "ok" || calls != 3 {
		t.Fatalf("want ok after 3 calls, got=%q calls=%d", got, calls)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(3), nil, "test", func(ctx context.Context) (int, error) {
		calls++
		return 0, statusErr{code: http.StatusBadRequest}
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	var se statusErr
	if !errors.As(err, &se) || se.code != http.StatusBadRequest {
		t.Fatalf("want original status error, got=%v", err)
	}
	if calls != 1 {
		t.Fatalf("non-retryable error should not retry: calls=%d", calls)
	}
}

func TestDoHonorsMaxRetries(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(1), nil, "test", func(ctx context.Context) (int, error) {
		calls++
		return 0, statusErr{code: http.StatusTooManyRequests}
	})
	if err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if calls != 2 {
		t.Fatalf("want 2 attempts, got=%d", calls)
	}
}

func TestIsRetryableError(t *testing.T) {
	if IsRetryableError(context.Canceled) {
		t.Fatalf("canceled must not retry")
	}
	if !IsRetryableError(fmt.Errorf("wrap: %w", context.DeadlineExceeded)) {
		t.Fatalf("deadline should retry")
	}
	if IsRetryableError(errors.New("decode failed")) {
		t.Fatalf("plain errors should not retry")
	}
}

func TestParseRetryAfter(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "30")
	if got := ParseRetryAfter(h, 10*time.Second); got != 10*time.Second {
		t.Fatalf("clamp: got=%s", got)
	}
	h.Set("Retry-After", "Wed, 21 Oct 2015 07:28:00 GMT")
	if got := ParseRetryAfter(h, 0); got != 0 {
		t.Fatalf("http-date ignored: got=%s", got)
	}
}
