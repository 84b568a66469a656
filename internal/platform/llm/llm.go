package llm

import "context"

// Request is one generative call. System and User are sent as separate turns.
type Request struct {
	System      string
	User        string
	Temperature *float64
	// JSON asks the provider for a single JSON object response.
	JSON bool
}

// Generator produces free text (or JSON text) for a prompt pair.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Embedder maps texts to fixed-dimension vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// Client is what providers (openai, gemini) implement.
type Client interface {
	Generator
	Embedder
}

func Temperature(v float64) *float64 { return &v }
