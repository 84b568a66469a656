package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	types "github.com/yungbote/postforge-backend/internal/domain/content"
	"github.com/yungbote/postforge-backend/internal/platform/apierr"
	"github.com/yungbote/postforge-backend/internal/platform/llm"
	"github.com/yungbote/postforge-backend/internal/platform/logger"
)

// contractState is one step of a structured generation:
// requested -> parsed | invalid -> retried -> parsed | invalid -> fallback.
type contractState string

const (
	stateRequested contractState = "requested"
	stateParsed    contractState = "parsed"
	stateInvalid   contractState = "invalid"
	stateRetried   contractState = "retried"
	stateFallback  contractState = "fallback"
)

// contractCall describes a generation whose output must satisfy a JSON shape.
// Parse must reject anything that violates the contract. FromText converts
// free text into a value and must always succeed (raw may be empty when the
// fallback call itself failed).
type contractCall[T any] struct {
	Label    string
	Primary  llm.Request
	Retry    llm.Request
	Fallback llm.Request
	Parse    func(raw string) (T, error)
	FromText func(raw string) T
}

type contractResult[T any] struct {
	Value T
	// Gen is one of types.GenParsed, GenRetried, GenFallback.
	Gen   string
	Trail []contractState
}

// runContract never returns an error: every path resolves to a value.
func runContract[T any](ctx context.Context, log *logger.Logger, gen llm.Generator, c contractCall[T]) contractResult[T] {
	res := contractResult[T]{Trail: []contractState{stateRequested}}

	attempt := func(req llm.Request) (T, error) {
		var zero T
		raw, err := gen.Generate(ctx, req)
		if err != nil {
			return zero, err
		}
		return c.Parse(raw)
	}

	v, err := attempt(c.Primary)
	if err == nil {
		res.Value, res.Gen = v, types.GenParsed
		res.Trail = append(res.Trail, stateParsed)
		return res
	}
	res.Trail = append(res.Trail, stateInvalid)
	log.Warn(c.Label+": output rejected; retrying", "error", err, "malformed", isMalformed(err))

	res.Trail = append(res.Trail, stateRetried)
	v, err = attempt(c.Retry)
	if err == nil {
		res.Value, res.Gen = v, types.GenRetried
		res.Trail = append(res.Trail, stateParsed)
		return res
	}
	res.Trail = append(res.Trail, stateInvalid)
	log.Warn(c.Label+": retry rejected; falling back to free text", "error", err, "malformed", isMalformed(err))

	raw, err := gen.Generate(ctx, c.Fallback)
	if err != nil {
		log.Warn(c.Label+": free-text fallback failed", "error", err)
		raw = ""
	}
	res.Value, res.Gen = c.FromText(raw), types.GenFallback
	res.Trail = append(res.Trail, stateFallback)
	return res
}

// malformed wraps a parse failure so callers can tell it from transport errors.
func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apierr.ErrMalformedOutput, fmt.Sprintf(format, args...))
}

func isMalformed(err error) bool {
	return errors.Is(err, apierr.ErrMalformedOutput)
}

// normalizeChoice maps a model-provided label onto the allowed set, matching
// case-insensitively and ignoring separators. It returns "" when nothing fits.
func normalizeChoice(v string, allowed []string) string {
	key := choiceKey(v)
	if key == "" {
		return ""
	}
	for _, a := range allowed {
		if choiceKey(a) == key {
			return a
		}
	}
	for _, a := range allowed {
		ak := choiceKey(a)
		if strings.Contains(key, ak) || strings.Contains(ak, key) {
			return a
		}
	}
	return ""
}

func choiceKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
