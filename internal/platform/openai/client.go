package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/postforge-backend/internal/platform/apierr"
	"github.com/yungbote/postforge-backend/internal/platform/envutil"
	"github.com/yungbote/postforge-backend/internal/platform/httpx"
	"github.com/yungbote/postforge-backend/internal/platform/llm"
	"github.com/yungbote/postforge-backend/internal/platform/logger"
)

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	embedModel string
	httpClient *http.Client
	policy     httpx.Policy

	// Models that rejected temperature are remembered and sent without it.
	noTempMu   sync.RWMutex
	noTempSeen map[string]time.Time
	noTempTTL  time.Duration
}

// NewClient builds an OpenAI client from OPENAI_* env vars.
// A missing OPENAI_API_KEY is a configuration error, never a silent no-op.
func NewClient(log *logger.Logger) (llm.Client, error) {
	if log == nil {
		return nil, fmt.Errorf("openai: logger required")
	}
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("openai: missing OPENAI_API_KEY: %w", apierr.ErrConfiguration)
	}

	policy := httpx.PolicyFromEnv()
	policy.MaxRetries = envutil.Int("OPENAI_MAX_RETRIES", policy.MaxRetries)

	c := &client{
		log:        log.With("client", "OpenAIClient"),
		baseURL:    strings.TrimRight(envutil.String("OPENAI_BASE_URL", "https://api.openai.com"), "/"),
		apiKey:     apiKey,
		model:      envutil.String("OPENAI_MODEL", "gpt-4.1-mini"),
		embedModel: envutil.String("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
		httpClient: &http.Client{Timeout: envutil.Duration("OPENAI_TIMEOUT_SECONDS", 90*time.Second)},
		policy:     policy,
		noTempSeen: map[string]time.Time{},
		noTempTTL:  envutil.Duration("OPENAI_NO_TEMPERATURE_TTL_SECONDS", 6*time.Hour),
	}
	c.log.Info("OpenAI client ready", "model", c.model, "embed_model", c.embedModel, "max_retries", policy.MaxRetries)
	return c, nil
}

type openAIHTTPError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *openAIHTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (e *openAIHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (e *openAIHTTPError) RetryAfterHint() time.Duration {
	if e == nil {
		return 0
	}
	return e.RetryAfter
}

func isUnsupportedTemperatureParam(err error) bool {
	var httpErr *openAIHTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadRequest {
		return false
	}
	msg := strings.ToLower(httpErr.Body)
	if !strings.Contains(msg, "temperature") {
		return false
	}
	for _, frag := range []string{"unsupported parameter", "unknown parameter", "not supported", "does not support", "only the default", "unsupported_value"} {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}

func (c *client) modelIsNoTemp(model string) bool {
	key := strings.ToLower(strings.TrimSpace(model))
	c.noTempMu.RLock()
	seen, ok := c.noTempSeen[key]
	c.noTempMu.RUnlock()
	return ok && time.Since(seen) < c.noTempTTL
}

func (c *client) noteNoTempModel(model string) {
	key := strings.ToLower(strings.TrimSpace(model))
	c.noTempMu.Lock()
	c.noTempSeen[key] = time.Now()
	c.noTempMu.Unlock()
	c.log.Warn("model rejected temperature; omitting it for subsequent calls", "model", model)
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) ([]byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return raw, &openAIHTTPError{
			StatusCode: resp.StatusCode,
			Body:       string(raw),
			RetryAfter: httpx.ParseRetryAfter(resp.Header, 10*time.Second),
		}
	}
	return raw, nil
}

// do runs one logical call under the retry policy and decodes into out.
// Exhausted or non-retryable transport failures are reported as ErrUpstream.
func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	raw, err := httpx.Do(ctx, c.policy, c.log, "openai "+path, func(actx context.Context) ([]byte, error) {
		return c.doOnce(actx, method, path, body)
	})
	if err != nil {
		return fmt.Errorf("openai %s: %w: %w", path, apierr.ErrUpstream, err)
	}
	if out == nil {
		return nil
	}
	if uErr := json.Unmarshal(raw, out); uErr != nil {
		return fmt.Errorf("openai decode error: %w: %w", apierr.ErrUpstream, uErr)
	}
	return nil
}

// -------------------- Embeddings --------------------

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

func (c *client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}
	clean := make([]string, len(inputs))
	for i := range inputs {
		s := strings.TrimSpace(inputs[i])
		if s == "" {
			s = " "
		}
		clean[i] = s
	}

	var resp embeddingsResponse
	if err := c.do(ctx, http.MethodPost, "/v1/embeddings", embeddingsRequest{Model: c.embedModel, Input: clean}, &resp); err != nil {
		return nil, err
	}

	out := make([][]float32, len(clean))
	for pos, d := range resp.Data {
		idx := d.Index
		if idx < 0 || idx >= len(out) || out[idx] != nil {
			// Some compatible servers omit index; fall back to response order.
			idx = pos
		}
		if idx >= len(out) {
			continue
		}
		vec := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float32(f)
		}
		out[idx] = vec
	}
	for i := range out {
		if len(out[i]) == 0 {
			return nil, fmt.Errorf("openai embeddings missing index %d: requested=%d returned=%d model=%s: %w",
				i, len(clean), len(resp.Data), c.embedModel, apierr.ErrUpstream)
		}
	}
	return out, nil
}

// -------------------- Responses API --------------------

type responsesInput struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model string           `json:"model"`
	Input []responsesInput `json:"input"`
	Text  *struct {
		Format map[string]any `json:"format,omitempty"`
	} `json:"text,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
}

func extractOutputText(resp responsesResponse) string {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type == "message" && item.Role == "assistant" {
			for _, c := range item.Content {
				if c.Type == "output_text" && c.Text != "" {
					out.WriteString(c.Text)
				}
			}
		}
	}
	return out.String()
}

func (c *client) Generate(ctx context.Context, in llm.Request) (string, error) {
	req := responsesRequest{
		Model: c.model,
		Input: []responsesInput{
			{Role: "system", Content: in.System},
			{Role: "user", Content: in.User},
		},
	}
	if in.JSON {
		req.Text = &struct {
			Format map[string]any `json:"format,omitempty"`
		}{Format: map[string]any{"type": "json_object"}}
	}
	if in.Temperature != nil && !c.modelIsNoTemp(req.Model) {
		req.Temperature = in.Temperature
	}

	var resp responsesResponse
	err := c.do(ctx, http.MethodPost, "/v1/responses", &req, &resp)
	if err != nil && req.Temperature != nil && isUnsupportedTemperatureParam(err) {
		c.noteNoTempModel(req.Model)
		req.Temperature = nil
		err = c.do(ctx, http.MethodPost, "/v1/responses", &req, &resp)
	}
	if err != nil {
		return "", err
	}
	if resp.Refusal != "" {
		return "", fmt.Errorf("openai model refused: %s: %w", resp.Refusal, apierr.ErrMalformedOutput)
	}
	text := extractOutputText(resp)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("openai: no output_text found in response: %w", apierr.ErrMalformedOutput)
	}
	return text, nil
}
