package gemini

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"google.golang.org/genai"

	"github.com/yungbote/postforge-backend/internal/platform/apierr"
	"github.com/yungbote/postforge-backend/internal/platform/httpx"
	"github.com/yungbote/postforge-backend/internal/platform/logger"
)

func TestNewClientMissingKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	_, err := NewClient(context.Background(), logger.Nop())
	if !errors.Is(err, apierr.ErrConfiguration) {
		t.Fatalf("want ErrConfiguration, got=%v", err)
	}
}

func TestClassifyExposesStatus(t *testing.T) {
	err := classify(genai.APIError{Code: http.StatusTooManyRequests, Message: "quota"})
	if !httpx.IsRetryableError(err) {
		t.Fatalf("429 from SDK should be retryable: %v", err)
	}
	err = classify(genai.APIError{Code: http.StatusBadRequest, Message: "bad"})
	if httpx.IsRetryableError(err) {
		t.Fatalf("400 from SDK should not be retryable")
	}
}

func TestNormalizeTaskType(t *testing.T) {
	if got := normalizeTaskType("retrieval_query"); got != "RETRIEVAL_QUERY" {
		t.Fatalf("got=%s", got)
	}
	if got := normalizeTaskType("nonsense"); got != "SEMANTIC_SIMILARITY" {
		t.Fatalf("got=%s", got)
	}
}
