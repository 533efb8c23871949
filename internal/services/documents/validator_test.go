package documents

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/solicita/internal/common"
	"github.com/ternarybob/solicita/internal/models"
)

// fakeLLM answers GenerateJSON with a scripted response chosen by prompt
// substring. Unmatched prompts return the fallback error.
type fakeLLM struct {
	responses map[string]string
	err       error
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	return "", errors.New("not scripted")
}

func (f *fakeLLM) GenerateJSON(ctx context.Context, prompt string, temperature float64, out any) error {
	for key, resp := range f.responses {
		if strings.Contains(prompt, key) {
			return json.Unmarshal([]byte(resp), out)
		}
	}
	if f.err != nil {
		return f.err
	}
	return errors.New("no scripted response for prompt")
}

func (f *fakeLLM) Healthy(ctx context.Context) bool { return true }
func (f *fakeLLM) Model() string                    { return "fake" }

// cleanLLM reports no fabrication for any check.
func cleanLLM() *fakeLLM {
	return &fakeLLM{responses: map[string]string{
		"Compara estos dos CV": `{"has_fabrication": false, "fabricated_skills": []}`,
	}}
}

func spanishCV() *models.CVDocument {
	return &models.CVDocument{
		Name:  "Ana García",
		Email: "ana@example.com",
		Phone: "+34 600 000 000",
		Summary: "Desarrolladora de software con cinco años de experiencia construyendo " +
			"aplicaciones web para el sector minorista en España.",
		Experience: []models.ExperienceEntry{
			{
				Title:     "Desarrolladora Fullstack",
				Company:   "Flowence",
				StartDate: "2021",
				EndDate:   "2024",
				Bullets: []string{
					"Desarrollé paneles de control utilizados por cuarenta clientes del sector minorista",
					"Mantuve la infraestructura de despliegue y las integraciones de pago",
				},
			},
		},
		Skills: []string{"React", "Node.js", "PostgreSQL"},
	}
}

func newTestValidator(llm *fakeLLM) *Validator {
	return NewValidator(llm, common.GetLogger())
}

const spanishJobDescription = "Buscamos una persona desarrolladora fullstack para unirse a nuestro " +
	"equipo de producto en Madrid. Trabajarás con React y Node.js construyendo " +
	"funcionalidades para miles de usuarios en toda España."

func TestValidatePassesOnIdenticalDocuments(t *testing.T) {
	v := newTestValidator(cleanLLM())
	original := spanishCV()

	result := v.Validate(context.Background(), original, original.Clone(), spanishJobDescription)

	assert.True(t, result.Passed)
	assert.Empty(t, result.Errors)
}

func TestValidateRejectsPIIChanges(t *testing.T) {
	v := newTestValidator(cleanLLM())
	original := spanishCV()

	adapted := original.Clone()
	adapted.Email = "otra@example.com"
	result := v.Validate(context.Background(), original, adapted, spanishJobDescription)
	assert.False(t, result.Passed)
	assert.Contains(t, strings.Join(result.Errors, " "), "PII mismatch")

	adapted = original.Clone()
	adapted.Phone = ""
	result = v.Validate(context.Background(), original, adapted, spanishJobDescription)
	assert.False(t, result.Passed)
	assert.Contains(t, strings.Join(result.Errors, " "), "PII removed")
}

func TestValidateRejectsRemovedCompany(t *testing.T) {
	v := newTestValidator(cleanLLM())
	original := spanishCV()

	adapted := original.Clone()
	adapted.Experience[0].Company = "OtraEmpresa"
	result := v.Validate(context.Background(), original, adapted, spanishJobDescription)

	assert.False(t, result.Passed)
	assert.Contains(t, strings.Join(result.Errors, " "), "companies removed")
}

func TestValidateRejectsFabricatedEntries(t *testing.T) {
	v := newTestValidator(cleanLLM())
	original := spanishCV()

	adapted := original.Clone()
	adapted.Experience = append(adapted.Experience, models.ExperienceEntry{
		Title: "CTO", Company: "Inventada SL", StartDate: "2019", EndDate: "2020",
	})
	result := v.Validate(context.Background(), original, adapted, spanishJobDescription)

	assert.False(t, result.Passed)
	assert.Contains(t, strings.Join(result.Errors, " "), "possible fabricated roles")
}

func TestValidateRejectsDateDrift(t *testing.T) {
	v := newTestValidator(cleanLLM())
	original := spanishCV()

	// One year of drift is tolerated.
	adapted := original.Clone()
	adapted.Experience[0].StartDate = "2020"
	result := v.Validate(context.Background(), original, adapted, spanishJobDescription)
	assert.True(t, result.Passed)

	// Three years is not.
	adapted = original.Clone()
	adapted.Experience[0].StartDate = "2018"
	result = v.Validate(context.Background(), original, adapted, spanishJobDescription)
	assert.False(t, result.Passed)
	assert.Contains(t, strings.Join(result.Errors, " "), "date drift")
}

func TestValidateFabricationVerdictIsHardStop(t *testing.T) {
	llm := &fakeLLM{responses: map[string]string{
		"Compara estos dos CV": `{"has_fabrication": true, "fabricated_skills": ["Kubernetes"]}`,
	}}
	v := newTestValidator(llm)
	original := spanishCV()

	result := v.Validate(context.Background(), original, original.Clone(), spanishJobDescription)

	assert.False(t, result.Passed)
	assert.Contains(t, strings.Join(result.Errors, " "), "Kubernetes")
}

func TestValidateFabricationCheckFailureOnlyWarns(t *testing.T) {
	v := newTestValidator(&fakeLLM{err: errors.New("model unreachable")})
	original := spanishCV()

	result := v.Validate(context.Background(), original, original.Clone(), spanishJobDescription)

	assert.True(t, result.Passed, "an unavailable fabrication check must not block the pipeline")
	assert.NotEmpty(t, result.Warnings)
}

func TestValidateFlagsLanguageMismatch(t *testing.T) {
	v := newTestValidator(cleanLLM())
	original := spanishCV()

	englishDescription := "We are looking for a senior fullstack developer to join our product " +
		"team. You will build features with React and Node.js for thousands of " +
		"users across Europe and own the delivery end to end."
	result := v.Validate(context.Background(), original, original.Clone(), englishDescription)

	combined := strings.Join(append(result.Errors, result.Warnings...), " ")
	assert.Contains(t, combined, "language mismatch")
}
