package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/interfaces"
	"github.com/ternarybob/solicita/internal/models"
	"github.com/ternarybob/solicita/internal/services/llm"
)

const coverLetterMaxWords = 300

// GenerateCoverLetter produces a short formal Spanish cover letter for the
// posting. Generation failures fall back to a fixed, grammatically safe
// template rather than erroring; a missing letter never blocks an
// application.
func GenerateCoverLetter(ctx context.Context, llmService interfaces.LLMService, logger arbor.ILogger, posting *models.Posting, cv *models.CVDocument) string {
	company := posting.Company
	if company == "" {
		company = "la empresa"
	}
	title := posting.Title

	cvJSON, _ := json.Marshal(cv)
	var out struct {
		CoverLetter string `json:"cover_letter"`
	}
	prompt := llm.CoverLetterPrompt(string(cvJSON), title, company, posting.Description)
	if err := llmService.GenerateJSON(ctx, prompt, 0.4, &out); err != nil {
		logger.Error().Err(err).Str("company", company).Msg("Cover letter generation failed, using fallback")
		return fallbackLetter(cv.Name, company, title)
	}

	letter := strings.TrimSpace(out.CoverLetter)
	if letter == "" {
		logger.Warn().Str("company", company).Msg("Empty cover letter response, using fallback")
		return fallbackLetter(cv.Name, company, title)
	}

	letter = enforceWordLimit(letter, coverLetterMaxWords)
	logger.Info().
		Str("company", company).
		Int("words", len(strings.Fields(letter))).
		Msg("Cover letter generated")
	return letter
}

// enforceWordLimit trims to max words, cutting at the last sentence boundary
// inside the limit.
func enforceWordLimit(text string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}
	truncated := strings.Join(words[:maxWords], " ")
	last := -1
	for _, punct := range []string{".", "!", "?"} {
		if i := strings.LastIndex(truncated, punct); i > last {
			last = i
		}
	}
	if last > 0 {
		return strings.TrimSpace(truncated[:last+1])
	}
	return strings.TrimSpace(truncated)
}

func fallbackLetter(name, company, title string) string {
	if name == "" {
		name = "El/La candidato/a"
	}
	return fmt.Sprintf(`Estimado/a equipo de %s,

Me dirijo a ustedes para expresar mi interés en el puesto de %s en %s. Con mi experiencia y habilidades, creo que puedo contribuir positivamente a su equipo.

Adjunto mi currículum para su consideración y quedo a su disposición para ampliar cualquier información que necesiten.

Atentamente,
%s`, company, title, company, name)
}
