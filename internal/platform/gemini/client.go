package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/yungbote/postforge-backend/internal/platform/apierr"
	"github.com/yungbote/postforge-backend/internal/platform/envutil"
	"github.com/yungbote/postforge-backend/internal/platform/httpx"
	"github.com/yungbote/postforge-backend/internal/platform/llm"
	"github.com/yungbote/postforge-backend/internal/platform/logger"
)

type client struct {
	log        *logger.Logger
	genai      *genai.Client
	model      string
	embedModel string
	taskType   string
	policy     httpx.Policy
}

// NewClient builds a Gemini-backed llm.Client from GEMINI_* env vars.
func NewClient(ctx context.Context, log *logger.Logger) (llm.Client, error) {
	if log == nil {
		return nil, fmt.Errorf("gemini: logger required")
	}
	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: missing GEMINI_API_KEY: %w", apierr.ErrConfiguration)
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w: %w", apierr.ErrConfiguration, err)
	}
	c := &client{
		log:        log.With("client", "GeminiClient"),
		genai:      gc,
		model:      envutil.String("GEMINI_MODEL", "gemini-2.5-flash"),
		embedModel: envutil.String("GEMINI_EMBED_MODEL", "gemini-embedding-001"),
		taskType:   normalizeTaskType(os.Getenv("GEMINI_EMBED_TASK_TYPE")),
		policy:     httpx.PolicyFromEnv(),
	}
	c.log.Info("Gemini client ready", "model", c.model, "embed_model", c.embedModel)
	return c, nil
}

func normalizeTaskType(raw string) string {
	switch v := strings.ToUpper(strings.TrimSpace(raw)); v {
	case "RETRIEVAL_DOCUMENT", "RETRIEVAL_QUERY", "CLUSTERING", "CLASSIFICATION", "SEMANTIC_SIMILARITY":
		return v
	default:
		return "SEMANTIC_SIMILARITY"
	}
}

// statusError lets httpx classify SDK API errors by HTTP status.
type statusError struct {
	code int
	err  error
}

func (e *statusError) Error() string       { return e.err.Error() }
func (e *statusError) Unwrap() error       { return e.err }
func (e *statusError) HTTPStatusCode() int { return e.code }

func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		return &statusError{code: apiErr.Code, err: err}
	}
	return err
}

func (c *client) Generate(ctx context.Context, req llm.Request) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if s := strings.TrimSpace(req.System); s != "" {
		cfg.SystemInstruction = genai.NewContentFromText(s, genai.RoleUser)
	}
	if req.Temperature != nil {
		t := float32(*req.Temperature)
		cfg.Temperature = &t
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	text, err := httpx.Do(ctx, c.policy, c.log, "gemini generate", func(actx context.Context) (string, error) {
		resp, err := c.genai.Models.GenerateContent(actx, c.model, genai.Text(req.User), cfg)
		if err != nil {
			return "", classify(err)
		}
		return resp.Text(), nil
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w: %w", apierr.ErrUpstream, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini generate: empty response: %w", apierr.ErrMalformedOutput)
	}
	return text, nil
}

func (c *client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}
	contents := make([]*genai.Content, len(inputs))
	for i, text := range inputs {
		if strings.TrimSpace(text) == "" {
			text = " "
		}
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	vecs, err := httpx.Do(ctx, c.policy, c.log, "gemini embed", func(actx context.Context) ([][]float32, error) {
		result, err := c.genai.Models.EmbedContent(actx, c.embedModel, contents, &genai.EmbedContentConfig{
			TaskType: c.taskType,
		})
		if err != nil {
			return nil, classify(err)
		}
		out := make([][]float32, 0, len(result.Embeddings))
		for _, emb := range result.Embeddings {
			if emb == nil {
				out = append(out, nil)
				continue
			}
			out = append(out, emb.Values)
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w: %w", apierr.ErrUpstream, err)
	}
	if len(vecs) != len(inputs) {
		return nil, fmt.Errorf("gemini embed: requested=%d returned=%d: %w", len(inputs), len(vecs), apierr.ErrUpstream)
	}
	for i := range vecs {
		if len(vecs[i]) == 0 {
			return nil, fmt.Errorf("gemini embed: empty vector at %d: %w", i, apierr.ErrUpstream)
		}
	}
	return vecs, nil
}
