package httpx

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/yungbote/postforge-backend/internal/platform/envutil"
	"github.com/yungbote/postforge-backend/internal/platform/logger"
)

// Policy bounds a single logical external call: how long each attempt may take
// and how many times a transient failure is retried.
type Policy struct {
	MaxRetries      int
	AttemptTimeout  time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:      2,
		AttemptTimeout:  60 * time.Second,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// PolicyFromEnv reads EXTERNAL_CALL_TIMEOUT and EXTERNAL_CALL_MAX_RETRIES.
func PolicyFromEnv() Policy {
	p := DefaultPolicy()
	p.AttemptTimeout = envutil.Duration("EXTERNAL_CALL_TIMEOUT", p.AttemptTimeout)
	p.MaxRetries = envutil.Int("EXTERNAL_CALL_MAX_RETRIES", p.MaxRetries)
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	return p
}

// StatusError is implemented by client errors that carry an HTTP status.
type StatusError interface {
	HTTPStatusCode() int
}

// RetryAfterError is implemented by errors that carry a server retry hint.
type RetryAfterError interface {
	RetryAfterHint() time.Duration
}

func IsRetryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se StatusError
	if errors.As(err, &se) && se.HTTPStatusCode() != 0 {
		return IsRetryableStatus(se.HTTPStatusCode())
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") || strings.Contains(msg, "connection refused")
}

// ParseRetryAfter reads a Retry-After header in seconds (HTTP-date form is ignored).
func ParseRetryAfter(h http.Header, max time.Duration) time.Duration {
	if h == nil {
		return 0
	}
	raw := strings.TrimSpace(h.Get("Retry-After"))
	if raw == "" {
		return 0
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		return 0
	}
	d := time.Duration(secs) * time.Second
	if max > 0 && d > max {
		d = max
	}
	return d
}

// Do runs op under p, retrying transient failures with exponential backoff.
// Each attempt gets its own deadline derived from ctx.
func Do[T any](ctx context.Context, p Policy, log *logger.Logger, label string, op func(ctx context.Context) (T, error)) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	exp := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		exp.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		exp.MaxInterval = p.MaxInterval
	}
	b := &hintedBackOff{inner: exp}

	attempt := 0
	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(p.MaxRetries + 1)),
	}
	if log != nil {
		opts = append(opts, backoff.WithNotify(func(err error, wait time.Duration) {
			log.Warn("external call retrying",
				"call", label,
				"attempt", attempt,
				"max_retries", p.MaxRetries,
				"sleep", wait.String(),
				"error", err.Error(),
			)
		}))
	}

	return backoff.Retry(ctx, func() (T, error) {
		attempt++
		actx, cancel := attemptContext(ctx, p.AttemptTimeout)
		defer cancel()

		out, err := op(actx)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil || !IsRetryableError(err) {
			return out, backoff.Permanent(err)
		}
		var ra RetryAfterError
		if errors.As(err, &ra) {
			b.hint = ra.RetryAfterHint()
		}
		return out, err
	}, opts...)
}

// hintedBackOff waits at least as long as the last server Retry-After hint.
type hintedBackOff struct {
	inner *backoff.ExponentialBackOff
	hint  time.Duration
}

func (h *hintedBackOff) NextBackOff() time.Duration {
	next := h.inner.NextBackOff()
	if h.hint > next {
		next = h.hint
	}
	h.hint = 0
	return next
}

func (h *hintedBackOff) Reset() {
	h.inner.Reset()
	h.hint = 0
}

func attemptContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
