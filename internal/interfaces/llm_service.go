package interfaces

import "context"

// LLMService is the narrow surface the pipeline depends on. The backing
// implementation is a local Ollama instance; callers never see transport
// details.
type LLMService interface {
	// Generate returns the raw completion text for the prompt.
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)
	// GenerateJSON prompts for a JSON object and unmarshals it into out.
	// A JSON object embedded in surrounding prose is extracted.
	GenerateJSON(ctx context.Context, prompt string, temperature float64, out any) error
	// Healthy reports whether the backend is reachable.
	Healthy(ctx context.Context) bool
	// Model returns the model tag in use.
	Model() string
}
