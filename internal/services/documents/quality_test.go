package documents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/solicita/internal/common"
)

func TestScoreCVWeightedAverage(t *testing.T) {
	llm := &fakeLLM{responses: map[string]string{
		"Evalúa este CV": `{"ats": 8, "relevance": 9, "language": 7, "comments": "sólido"}`,
	}}

	result := ScoreCV(context.Background(), llm, common.GetLogger(), spanishCV(), spanishJobDescription, 7.0)

	assert.InDelta(t, 8.2, result.Overall, 0.001)
	assert.True(t, result.Passed)
	assert.Equal(t, "sólido", result.Rubric.Comments)
}

func TestScoreCVClampsOutOfRangeScores(t *testing.T) {
	llm := &fakeLLM{responses: map[string]string{
		"Evalúa este CV": `{"ats": 15, "relevance": -3, "language": 5}`,
	}}

	result := ScoreCV(context.Background(), llm, common.GetLogger(), spanishCV(), spanishJobDescription, 7.0)

	assert.Equal(t, 10.0, result.Rubric.ATS)
	assert.Equal(t, 0.0, result.Rubric.Relevance)
	assert.InDelta(t, 5.0, result.Rubric.Language, 0.001)
	assert.False(t, result.Passed)
}

func TestScoreCVFailureYieldsZeroRubric(t *testing.T) {
	llm := &fakeLLM{err: errors.New("model unreachable")}

	result := ScoreCV(context.Background(), llm, common.GetLogger(), spanishCV(), spanishJobDescription, 7.0)

	assert.Equal(t, 0.0, result.Overall)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Rubric.Comments, "quality check failed")
}
