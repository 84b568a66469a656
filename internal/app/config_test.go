package app

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "LLM_PROVIDER", "VECTOR_PROVIDER", "REDIS_ADDR", "OTEL_SERVICE_NAME"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig(nil)
	if cfg.Port != "8080" || cfg.LLMProvider != LLMProviderOpenAI || cfg.VectorProvider != VectorProviderPostgres {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ServiceName != "postforge" || cfg.RedisAddr != "" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("VECTOR_PROVIDER", " QDRANT ")
	t.Setenv("REDIS_ADDR", "redis:6379")
	cfg := LoadConfig(nil)
	if cfg.Port != "9090" || cfg.LLMProvider != LLMProviderGemini || cfg.VectorProvider != VectorProviderQdrant {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Fatalf("redis addr: %q", cfg.RedisAddr)
	}
}
