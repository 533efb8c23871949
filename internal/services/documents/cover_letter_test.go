package documents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/solicita/internal/common"
	"github.com/ternarybob/solicita/internal/models"
)

func testPosting() *models.Posting {
	return &models.Posting{
		Title:       "Desarrollador Fullstack",
		Company:     "Acme",
		Description: spanishJobDescription,
	}
}

func TestGenerateCoverLetterUsesModelOutput(t *testing.T) {
	llm := &fakeLLM{responses: map[string]string{
		"carta de presentación": `{"cover_letter": "Estimado equipo de Acme, me interesa el puesto."}`,
	}}

	letter := GenerateCoverLetter(context.Background(), llm, common.GetLogger(), testPosting(), spanishCV())

	assert.Equal(t, "Estimado equipo de Acme, me interesa el puesto.", letter)
}

func TestGenerateCoverLetterFallsBackOnError(t *testing.T) {
	llm := &fakeLLM{err: errors.New("model unreachable")}

	letter := GenerateCoverLetter(context.Background(), llm, common.GetLogger(), testPosting(), spanishCV())

	assert.Contains(t, letter, "Estimado/a equipo de Acme")
	assert.Contains(t, letter, "Desarrollador Fullstack")
	assert.Contains(t, letter, "Ana García")
}

func TestEnforceWordLimitCutsAtSentenceBoundary(t *testing.T) {
	text := "Primera frase corta. " + strings.Repeat("palabra ", 400) + "final."

	trimmed := enforceWordLimit(text, 10)

	assert.Equal(t, "Primera frase corta.", trimmed)
	assert.LessOrEqual(t, len(strings.Fields(trimmed)), 10)
}

func TestEnforceWordLimitNoBoundary(t *testing.T) {
	text := strings.Repeat("palabra ", 50)

	trimmed := enforceWordLimit(text, 10)

	assert.Len(t, strings.Fields(trimmed), 10)
}
