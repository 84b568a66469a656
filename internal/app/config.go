package app

import (
	"strings"

	"github.com/yungbote/postforge-backend/internal/platform/envutil"
	"github.com/yungbote/postforge-backend/internal/platform/logger"
)

type LLMProvider string

const (
	LLMProviderOpenAI LLMProvider = "openai"
	LLMProviderGemini LLMProvider = "gemini"
)

type Config struct {
	Port           string
	LogMode        string
	ServiceName    string
	Environment    string
	Version        string
	LLMProvider    LLMProvider
	VectorProvider VectorProvider
	RedisAddr      string
	CORSOrigins    string
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:           envutil.String("PORT", "8080"),
		LogMode:        envutil.String("LOG_MODE", "development"),
		ServiceName:    envutil.String("OTEL_SERVICE_NAME", "postforge"),
		Environment:    envutil.String("APP_ENV", "local"),
		Version:        envutil.String("APP_VERSION", "dev"),
		LLMProvider:    LLMProvider(strings.ToLower(envutil.String("LLM_PROVIDER", string(LLMProviderOpenAI)))),
		VectorProvider: VectorProvider(strings.ToLower(envutil.String("VECTOR_PROVIDER", string(VectorProviderPostgres)))),
		RedisAddr:      envutil.String("REDIS_ADDR", ""),
		CORSOrigins:    envutil.String("CORS_ALLOW_ORIGINS", ""),
	}
	if log != nil {
		log.Info("Config loaded",
			"port", cfg.Port,
			"llm_provider", cfg.LLMProvider,
			"vector_provider", cfg.VectorProvider,
			"redis_enabled", cfg.RedisAddr != "",
		)
	}
	return cfg
}
