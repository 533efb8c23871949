package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/common"
)

// OllamaService talks to a local Ollama instance. It implements
// interfaces.LLMService; the pipeline never sees transport details.
type OllamaService struct {
	host   string
	model  string
	client *http.Client
	logger arbor.ILogger
}

// NewOllamaService creates the client. When cfg.Ollama.Model is empty the
// model is auto-selected at startup via SelectModel.
func NewOllamaService(cfg *common.Config, logger arbor.ILogger) *OllamaService {
	return &OllamaService{
		host:  strings.TrimRight(cfg.Ollama.Host, "/"),
		model: cfg.Ollama.Model,
		client: &http.Client{
			Timeout: time.Duration(cfg.Ollama.TimeoutSeconds) * time.Second,
		},
		logger: logger,
	}
}

// Model returns the model tag in use.
func (s *OllamaService) Model() string {
	return s.model
}

// SetModel overrides the model tag (used by auto-selection).
func (s *OllamaService) SetModel(model string) {
	s.model = model
}

// Healthy reports whether the backend answers /api/tags.
func (s *OllamaService) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.host+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate returns the raw completion for the prompt. One automatic retry is
// made after a timeout once the backend reports healthy again, matching the
// restart-recovery behaviour of the local runner.
func (s *OllamaService) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	text, err := s.generateOnce(ctx, prompt, temperature)
	if err == nil {
		return text, nil
	}

	s.logger.Warn().Err(err).Str("model", s.model).Msg("Generation failed, probing backend for retry")
	if !s.Healthy(ctx) {
		return "", err
	}
	return s.generateOnce(ctx, prompt, temperature)
}

func (s *OllamaService) generateOnce(ctx context.Context, prompt string, temperature float64) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  s.model,
		Prompt: prompt,
		Stream: false,
		Options: map[string]any{
			"temperature": temperature,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama generate failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ollama generate returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode generate response: %w", err)
	}
	return out.Response, nil
}

// GenerateJSON prompts for a JSON object and unmarshals it into out. Models
// often wrap the object in prose or code fences; the first balanced object
// found in the response is used.
func (s *OllamaService) GenerateJSON(ctx context.Context, prompt string, temperature float64, out any) error {
	text, err := s.Generate(ctx, prompt, temperature)
	if err != nil {
		return err
	}

	raw, err := ExtractJSONObject(text)
	if err != nil {
		return fmt.Errorf("model returned no JSON object: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("failed to parse model JSON: %w", err)
	}
	return nil
}

// ExtractJSONObject returns the substring from the first '{' to its matching
// closing brace, honouring strings and escapes.
func ExtractJSONObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", fmt.Errorf("no opening brace in %d bytes of output", len(text))
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object in model output")
}
