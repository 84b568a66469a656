package app

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/postforge-backend/internal/data/repos/testutil"
	"github.com/yungbote/postforge-backend/internal/platform/apierr"
	"github.com/yungbote/postforge-backend/internal/platform/llm"
	"github.com/yungbote/postforge-backend/internal/platform/logger"
	"github.com/yungbote/postforge-backend/internal/realtime/bus"
)

type stubLLM struct{ name string }

func (stubLLM) Generate(context.Context, llm.Request) (string, error) { return "", nil }

func (stubLLM) Embed(context.Context, []string) ([][]float32, error) { return nil, nil }

func stubClientCtors(t *testing.T) {
	t.Helper()
	origOpenAI, origGemini, origRedis := newOpenAIClient, newGeminiClient, newRedisBus
	t.Cleanup(func() {
		newOpenAIClient, newGeminiClient, newRedisBus = origOpenAI, origGemini, origRedis
	})
	newOpenAIClient = func(*logger.Logger) (llm.Client, error) { return stubLLM{name: "openai"}, nil }
	newGeminiClient = func(context.Context, *logger.Logger) (llm.Client, error) { return stubLLM{name: "gemini"}, nil }
	newRedisBus = func(context.Context, *logger.Logger) (bus.Bus, error) {
		return nil, errors.New("redis ping: connection refused")
	}
}

func TestWireClientsSelectsProvider(t *testing.T) {
	stubClientCtors(t)
	log := testutil.Logger(t)

	for _, p := range []LLMProvider{LLMProviderOpenAI, LLMProviderGemini} {
		c, err := wireClients(context.Background(), log, Config{LLMProvider: p})
		if err != nil {
			t.Fatalf("%s: %v", p, err)
		}
		if got := c.LLM.(stubLLM).name; got != string(p) {
			t.Fatalf("provider %s wired %s", p, got)
		}
		if c.Bus == nil {
			t.Fatalf("%s: bus should default to noop", p)
		}
	}
}

func TestWireClientsErrors(t *testing.T) {
	stubClientCtors(t)
	log := testutil.Logger(t)

	_, err := wireClients(context.Background(), log, Config{LLMProvider: "mistral"})
	if !errors.Is(err, apierr.ErrConfiguration) {
		t.Fatalf("unknown provider: want ErrConfiguration, got %v", err)
	}

	_, err = wireClients(context.Background(), log, Config{LLMProvider: LLMProviderOpenAI, RedisAddr: "redis:6379"})
	if err == nil {
		t.Fatalf("redis failure should abort wiring")
	}
}
