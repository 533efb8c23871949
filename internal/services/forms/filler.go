package forms

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/interfaces"
	"github.com/ternarybob/solicita/internal/models"
)

// fieldPatterns maps label and name fragments to semantic keys. Order
// matters: the first matching fragment wins on partial matches.
var fieldPatterns = []struct {
	pattern string
	key     string
}{
	{"nombre", "name"},
	{"name", "name"},
	{"apellido", "name"},
	{"apellidos", "name"},
	{"full name", "name"},
	{"nombre completo", "name"},
	{"nombre y apellidos", "name"},
	{"email", "email"},
	{"correo", "email"},
	{"correo electrónico", "email"},
	{"e-mail", "email"},
	{"mail", "email"},
	{"telefono", "phone"},
	{"teléfono", "phone"},
	{"phone", "phone"},
	{"móvil", "phone"},
	{"movil", "phone"},
	{"mobile", "phone"},
	{"celular", "phone"},
	{"tel", "phone"},
	{"carta", "cover_letter"},
	{"carta de presentación", "cover_letter"},
	{"motivacion", "cover_letter"},
	{"motivación", "cover_letter"},
	{"presentacion", "cover_letter"},
	{"presentación", "cover_letter"},
	{"cover letter", "cover_letter"},
	{"cover_letter", "cover_letter"},
	{"por qué", "cover_letter"},
	{"why", "cover_letter"},
	{"cv", "cv_file"},
	{"curriculum", "cv_file"},
	{"currículum", "cv_file"},
	{"resume", "cv_file"},
	{"adjuntar cv", "cv_file"},
	{"upload cv", "cv_file"},
	{"upload resume", "cv_file"},
	{"linkedin", "linkedin"},
	{"linkedin url", "linkedin"},
	{"perfil linkedin", "linkedin"},
	{"github", "github"},
	{"github url", "github"},
	{"perfil github", "github"},
	{"ubicacion", "location"},
	{"ubicación", "location"},
	{"ciudad", "location"},
	{"city", "location"},
	{"location", "location"},
	{"lugar de residencia", "location"},
	{"salario", "salary_expectation"},
	{"salario esperado", "salary_expectation"},
	{"pretensión salarial", "salary_expectation"},
	{"salary", "salary_expectation"},
	{"salary expectation", "salary_expectation"},
	{"disponibilidad", "availability"},
	{"disponibilidad para incorporación", "availability"},
	{"availability", "availability"},
	{"start date", "availability"},
	{"fecha de incorporación", "availability"},
}

// Answers for fields the CV cannot provide.
var defaultValues = map[string]string{
	"salary_expectation": "según convenio",
	"availability":       "inmediata",
}

// affirmative values accepted for radio and checkbox fields.
var affirmative = map[string]bool{
	"true": true, "yes": true, "sí": true, "si": true, "1": true,
}

// Filler fills detected form fields with paced, human-like input.
type Filler struct {
	logger arbor.ILogger
	rng    *rand.Rand
	sleep  func(time.Duration)
}

// NewFiller creates a form filler.
func NewFiller(logger arbor.ILogger) *Filler {
	return &Filler{
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:  time.Sleep,
	}
}

// FillForm fills every visible field it can resolve a value for and returns
// the selector to value map of what was actually written.
func (f *Filler) FillForm(
	ctx context.Context,
	page interfaces.Page,
	fields []models.FormField,
	cv *models.CVDocument,
	coverLetter string,
	cvPDFPath string,
) (map[string]string, error) {
	filled := make(map[string]string)

	for _, field := range fields {
		if err := ctx.Err(); err != nil {
			return filled, err
		}
		if !field.Visible {
			f.logger.Debug().Str("ref", field.Ref).Msg("Skipping hidden field")
			continue
		}

		key := resolveSemanticKey(field)
		value := resolveValue(key, cv, coverLetter, cvPDFPath)
		if value == "" {
			f.logger.Debug().
				Str("label", field.Label).
				Str("semantic_key", key).
				Msg("No value for field")
			continue
		}

		written, err := f.fillField(ctx, page, field, value)
		if err != nil {
			f.logger.Warn().Err(err).
				Str("label", field.Label).
				Str("ref", field.Ref).
				Msg("Field fill failed")
		} else if written != "" {
			filled[field.Ref] = written
			f.logger.Info().
				Str("label", field.Label).
				Str("type", string(field.Type)).
				Str("semantic", key).
				Msg("Field filled")
		}

		f.sleep(f.uniform(300*time.Millisecond, 1500*time.Millisecond))
	}

	f.logger.Info().
		Int("filled_count", len(filled)).
		Int("total_fields", len(fields)).
		Msg("Form fill complete")
	return filled, nil
}

// resolveSemanticKey maps a field to a semantic key: exact label match
// first, then fragment match against label and name, then type fallback.
func resolveSemanticKey(field models.FormField) string {
	label := strings.TrimSpace(strings.ToLower(field.Label))
	name := strings.TrimSpace(strings.ToLower(field.Name))

	for _, p := range fieldPatterns {
		if label == p.pattern {
			return p.key
		}
	}
	for _, p := range fieldPatterns {
		if strings.Contains(label, p.pattern) || strings.Contains(name, p.pattern) {
			return p.key
		}
	}

	switch field.Type {
	case models.FieldEmail:
		return "email"
	case models.FieldTel:
		return "phone"
	case models.FieldFile:
		return "cv_file"
	}
	if label != "" {
		return label
	}
	if name != "" {
		return name
	}
	return "unknown"
}

func resolveValue(key string, cv *models.CVDocument, coverLetter, cvPDFPath string) string {
	switch key {
	case "name":
		return cv.Name
	case "email":
		return cv.Email
	case "phone":
		return cv.Phone
	case "location":
		return cv.Location
	case "linkedin":
		return cv.LinkedIn
	case "github":
		return cv.GitHub
	case "cover_letter":
		if coverLetter != "" {
			return coverLetter
		}
		return cv.Summary
	case "cv_file":
		return cvPDFPath
	}
	return defaultValues[key]
}

// fillField writes one field and returns the value that was written, empty
// when the field was skipped.
func (f *Filler) fillField(ctx context.Context, page interfaces.Page, field models.FormField, value string) (string, error) {
	ref := field.Ref

	switch field.Type {
	case models.FieldFile:
		if _, err := os.Stat(value); err != nil {
			f.logger.Warn().Str("path", value).Msg("CV file missing, skipping upload")
			return "", nil
		}
		if err := page.SetInputFiles(ctx, ref, value); err != nil {
			return "", err
		}
		return value, nil

	case models.FieldText, models.FieldEmail, models.FieldTel, models.FieldNumber:
		if err := page.Click(ctx, ref); err != nil {
			return "", err
		}
		f.sleep(f.uniform(50*time.Millisecond, 150*time.Millisecond))
		if err := page.Fill(ctx, ref, ""); err != nil {
			return "", err
		}
		// Sensitive and long values are typed keystroke by keystroke.
		important := field.Type == models.FieldEmail || field.Type == models.FieldTel || len(value) > 30
		if important {
			if err := page.Type(ctx, ref, value, f.keyDelay(40, 100)); err != nil {
				return "", err
			}
		} else if err := page.Fill(ctx, ref, value); err != nil {
			return "", err
		}
		f.sleep(f.uniform(100*time.Millisecond, 300*time.Millisecond))
		return value, nil

	case models.FieldTextarea:
		if err := page.Click(ctx, ref); err != nil {
			return "", err
		}
		f.sleep(f.uniform(100*time.Millisecond, 200*time.Millisecond))
		if err := page.Fill(ctx, ref, ""); err != nil {
			return "", err
		}
		if err := page.Type(ctx, ref, value, f.keyDelay(20, 60)); err != nil {
			return "", err
		}
		f.sleep(f.uniform(200*time.Millisecond, 500*time.Millisecond))
		return value, nil

	case models.FieldSelect:
		matched := matchOption(field.Options, value)
		if matched == "" {
			return "", nil
		}
		if err := page.Click(ctx, ref); err != nil {
			return "", err
		}
		f.sleep(f.uniform(200*time.Millisecond, 500*time.Millisecond))
		if err := page.SelectOption(ctx, ref, matched); err != nil {
			return "", err
		}
		f.sleep(f.uniform(100*time.Millisecond, 300*time.Millisecond))
		return matched, nil

	case models.FieldRadio:
		if !affirmative[strings.ToLower(value)] {
			return "", nil
		}
		f.sleep(f.uniform(200*time.Millisecond, 400*time.Millisecond))
		if err := page.Click(ctx, ref); err != nil {
			return "", err
		}
		f.sleep(f.uniform(100*time.Millisecond, 200*time.Millisecond))
		return "true", nil

	case models.FieldCheckbox:
		want := affirmative[strings.ToLower(value)] || strings.EqualFold(value, "on")
		current, err := page.IsChecked(ctx, ref)
		if err != nil {
			return "", err
		}
		if current != want {
			f.sleep(f.uniform(200*time.Millisecond, 400*time.Millisecond))
			if err := page.Click(ctx, ref); err != nil {
				return "", err
			}
			f.sleep(f.uniform(100*time.Millisecond, 200*time.Millisecond))
		}
		return fmt.Sprintf("%t", want), nil

	case models.FieldDate:
		if err := page.Fill(ctx, ref, value); err != nil {
			return "", err
		}
		return value, nil

	case models.FieldRange:
		script := fmt.Sprintf(`(() => {
			const el = document.querySelector(%s);
			if (!el) return false;
			el.value = %s;
			el.dispatchEvent(new Event('input', { bubbles: true }));
			el.dispatchEvent(new Event('change', { bubbles: true }));
			return true;
		})()`, jsString(ref), jsString(value))
		if err := page.Evaluate(ctx, script, nil); err != nil {
			return "", err
		}
		return value, nil
	}

	return "", nil
}

// matchOption finds the option for value: exact case-insensitive match
// first, then substring.
func matchOption(options []string, value string) string {
	want := strings.ToLower(value)
	for _, opt := range options {
		if strings.ToLower(opt) == want {
			return opt
		}
	}
	for _, opt := range options {
		lower := strings.ToLower(opt)
		if strings.Contains(lower, want) || strings.Contains(want, lower) {
			return opt
		}
	}
	return ""
}

func (f *Filler) uniform(min, max time.Duration) time.Duration {
	return min + time.Duration(f.rng.Int63n(int64(max-min)))
}

func (f *Filler) keyDelay(minMs, maxMs int) time.Duration {
	return time.Duration(minMs+f.rng.Intn(maxMs-minMs+1)) * time.Millisecond
}
