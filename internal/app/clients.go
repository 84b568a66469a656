package app

import (
	"context"
	"fmt"

	"github.com/yungbote/postforge-backend/internal/platform/apierr"
	"github.com/yungbote/postforge-backend/internal/platform/gemini"
	"github.com/yungbote/postforge-backend/internal/platform/llm"
	"github.com/yungbote/postforge-backend/internal/platform/logger"
	"github.com/yungbote/postforge-backend/internal/platform/openai"
	"github.com/yungbote/postforge-backend/internal/realtime/bus"
)

var (
	newOpenAIClient = openai.NewClient
	newGeminiClient = gemini.NewClient
	newRedisBus     = bus.NewRedisBus
)

type Clients struct {
	LLM llm.Client
	Bus bus.Bus
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	var (
		client llm.Client
		err    error
	)
	switch cfg.LLMProvider {
	case LLMProviderOpenAI:
		client, err = newOpenAIClient(log)
	case LLMProviderGemini:
		client, err = newGeminiClient(ctx, log)
	default:
		err = fmt.Errorf("unsupported LLM_PROVIDER %q: %w", cfg.LLMProvider, apierr.ErrConfiguration)
	}
	if err != nil {
		return Clients{}, fmt.Errorf("init llm client: %w", err)
	}

	// Redis
	b := bus.NewNoopBus()
	if cfg.RedisAddr != "" {
		rb, err := newRedisBus(ctx, log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis bus: %w", err)
		}
		b = rb
	}

	return Clients{LLM: client, Bus: b}, nil
}

func (c Clients) Close() {
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
}
