package documents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/interfaces"
	"github.com/ternarybob/solicita/internal/models"
	"github.com/ternarybob/solicita/internal/services/llm"
)

// Sub-score weights: ATS compatibility and relevance carry the rubric,
// language polish is a smaller factor.
const (
	weightATS       = 0.40
	weightRelevance = 0.40
	weightLanguage  = 0.20
)

// QualityResult is the scored rubric plus the pass verdict against the
// configured minimum.
type QualityResult struct {
	Rubric  models.Rubric
	Overall float64
	Passed  bool
}

// ScoreCV asks the model for the three rubric sub-scores and computes the
// weighted overall. An unreachable model yields a zero rubric below any
// sensible threshold rather than an error; quality is advisory, not a gate.
func ScoreCV(ctx context.Context, llmService interfaces.LLMService, logger arbor.ILogger, adapted *models.CVDocument, jobDescription string, minimum float64) QualityResult {
	adaptedJSON, _ := json.Marshal(adapted)

	var raw struct {
		ATS       float64 `json:"ats"`
		Relevance float64 `json:"relevance"`
		Language  float64 `json:"language"`
		Comments  string  `json:"comments"`
	}
	prompt := llm.QualityScorePrompt(string(adaptedJSON), jobDescription)
	if err := llmService.GenerateJSON(ctx, prompt, 0.1, &raw); err != nil {
		logger.Error().Err(err).Msg("Quality scoring failed, recording zero rubric")
		return QualityResult{
			Rubric: models.Rubric{Comments: "quality check failed: " + truncateNote(err.Error(), 200)},
		}
	}

	rubric := models.Rubric{
		ATS:       clampScore(raw.ATS),
		Relevance: clampScore(raw.Relevance),
		Language:  clampScore(raw.Language),
		Comments:  truncateNote(raw.Comments, 500),
	}
	overall := rubric.ATS*weightATS + rubric.Relevance*weightRelevance + rubric.Language*weightLanguage

	result := QualityResult{
		Rubric:  rubric,
		Overall: overall,
		Passed:  overall >= minimum,
	}
	logger.Info().
		Str("overall", formatScore(overall)).
		Str("ats", formatScore(rubric.ATS)).
		Str("relevance", formatScore(rubric.Relevance)).
		Str("language", formatScore(rubric.Language)).
		Msg("CV quality scored")
	if !result.Passed {
		logger.Warn().
			Str("overall", formatScore(overall)).
			Str("minimum", formatScore(minimum)).
			Msg("CV quality below threshold")
	}
	return result
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 10 {
		return 10
	}
	return s
}

func formatScore(s float64) string {
	return fmt.Sprintf("%.2f", s)
}

func truncateNote(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
