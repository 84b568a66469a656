package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	neturl "net/url"
	"strings"
	"time"

	repos "github.com/yungbote/postforge-backend/internal/data/repos/content"
	"github.com/yungbote/postforge-backend/internal/modules/content"
	"github.com/yungbote/postforge-backend/internal/platform/envutil"
	"github.com/yungbote/postforge-backend/internal/platform/logger"
	"github.com/yungbote/postforge-backend/internal/platform/pinecone"
	"github.com/yungbote/postforge-backend/internal/platform/qdrant"
)

var (
	newPineconeClient      = pinecone.New
	newPineconeVectorStore = pinecone.NewVectorStore
	newQdrantVectorStore   = qdrant.NewVectorStore
)

type VectorProvider string

const (
	VectorProviderPostgres VectorProvider = "postgres"
	VectorProviderQdrant   VectorProvider = "qdrant"
	VectorProviderPinecone VectorProvider = "pinecone"
)

type VectorProviderBootstrapErrorCode string

const (
	VectorProviderBootstrapErrorInvalidProvider     VectorProviderBootstrapErrorCode = "invalid_provider"
	VectorProviderBootstrapErrorMissingQdrantURL    VectorProviderBootstrapErrorCode = "missing_qdrant_url"
	VectorProviderBootstrapErrorInvalidQdrantURL    VectorProviderBootstrapErrorCode = "invalid_qdrant_url"
	VectorProviderBootstrapErrorMissingQdrantColl   VectorProviderBootstrapErrorCode = "missing_qdrant_collection"
	VectorProviderBootstrapErrorInvalidQdrantVector VectorProviderBootstrapErrorCode = "invalid_qdrant_vector_dim"
	VectorProviderBootstrapErrorQdrantConfigFailed  VectorProviderBootstrapErrorCode = "qdrant_config_failed"
	VectorProviderBootstrapErrorMissingPineconeKey  VectorProviderBootstrapErrorCode = "missing_pinecone_api_key"
	VectorProviderBootstrapErrorConnectFailed       VectorProviderBootstrapErrorCode = "connect_failed"
	VectorProviderBootstrapErrorProviderInitFailed  VectorProviderBootstrapErrorCode = "provider_init_failed"
)

type VectorProviderBootstrapError struct {
	Code     VectorProviderBootstrapErrorCode
	Provider string
	Cause    error
}

func (e *VectorProviderBootstrapError) Error() string {
	if e == nil {
		return "vector provider bootstrap failed"
	}
	return fmt.Sprintf("vector provider bootstrap failed (code=%s provider=%q): %v", e.Code, e.Provider, e.Cause)
}

func (e *VectorProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveSectionIndex picks where section similarity search runs. The
// postgres provider scans the owner's stored embeddings in process.
func resolveSectionIndex(ctx context.Context, log *logger.Logger, cfg Config, sections repos.SectionRepo) (content.SectionIndex, error) {
	provider := strings.TrimSpace(strings.ToLower(string(cfg.VectorProvider)))
	log.Info("Selecting vector store provider", "provider", provider)

	switch VectorProvider(provider) {
	case VectorProviderPostgres, "":
		return content.NewRepoSectionIndex(sections), nil

	case VectorProviderQdrant:
		qcfg, err := qdrant.ResolveConfigFromEnv()
		if err != nil {
			return nil, bootstrapFailed(log, provider, err)
		}
		vs, err := newQdrantVectorStore(ctx, log, qcfg)
		if err != nil {
			return nil, bootstrapFailed(log, provider, err)
		}
		return content.NewVectorSectionIndex(log, vs, sections), nil

	case VectorProviderPinecone:
		apiKey := envutil.String("PINECONE_API_KEY", "")
		if apiKey == "" {
			err := &VectorProviderBootstrapError{
				Code:     VectorProviderBootstrapErrorMissingPineconeKey,
				Provider: provider,
				Cause:    errors.New("PINECONE_API_KEY not set"),
			}
			log.Error("Vector store provider bootstrap failed", "provider", provider, "error_code", err.Code)
			return nil, err
		}
		pc, err := newPineconeClient(log, pinecone.Config{
			APIKey:     apiKey,
			APIVersion: envutil.String("PINECONE_API_VERSION", ""),
			BaseURL:    envutil.String("PINECONE_BASE_URL", ""),
			Timeout:    envutil.Duration("PINECONE_TIMEOUT_SECONDS", 30*time.Second),
		})
		if err != nil {
			return nil, bootstrapFailed(log, provider, err)
		}
		vs, err := newPineconeVectorStore(log, pc)
		if err != nil {
			return nil, bootstrapFailed(log, provider, err)
		}
		return content.NewVectorSectionIndex(log, vs, sections), nil

	default:
		err := &VectorProviderBootstrapError{
			Code:     VectorProviderBootstrapErrorInvalidProvider,
			Provider: provider,
			Cause:    fmt.Errorf("unsupported vector provider %q", provider),
		}
		log.Error("Vector store provider selection failed", "provider", provider, "error_code", err.Code, "error", err)
		return nil, err
	}
}

func bootstrapFailed(log *logger.Logger, provider string, err error) error {
	classified := classifyVectorProviderBootstrapError(provider, err)
	log.Error("Vector store provider bootstrap failed",
		"provider", provider,
		"error_code", vectorProviderBootstrapErrorCode(classified),
		"error", classified,
	)
	return classified
}

func classifyVectorProviderBootstrapError(provider string, err error) error {
	wrap := func(code VectorProviderBootstrapErrorCode) error {
		return &VectorProviderBootstrapError{Code: code, Provider: provider, Cause: err}
	}

	var urlErr *neturl.Error
	if errors.As(err, &urlErr) {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}
	errLower := strings.ToLower(err.Error())
	if strings.Contains(errLower, "ready check failed") || strings.Contains(errLower, "connection refused") {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}

	var cfgErr *qdrant.ConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case qdrant.ConfigErrorMissingURL:
			return wrap(VectorProviderBootstrapErrorMissingQdrantURL)
		case qdrant.ConfigErrorInvalidURL:
			return wrap(VectorProviderBootstrapErrorInvalidQdrantURL)
		case qdrant.ConfigErrorMissingCollection:
			return wrap(VectorProviderBootstrapErrorMissingQdrantColl)
		case qdrant.ConfigErrorInvalidVectorDim:
			return wrap(VectorProviderBootstrapErrorInvalidQdrantVector)
		default:
			return wrap(VectorProviderBootstrapErrorQdrantConfigFailed)
		}
	}
	return wrap(VectorProviderBootstrapErrorProviderInitFailed)
}

func vectorProviderBootstrapErrorCode(err error) VectorProviderBootstrapErrorCode {
	var bootstrapErr *VectorProviderBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return VectorProviderBootstrapErrorConnectFailed
}
