package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/interfaces"
	"github.com/ternarybob/solicita/internal/models"
	"github.com/ternarybob/solicita/internal/services/llm"
)

// ValidationResult separates hard stops from soft issues. Any error blocks
// the pipeline; warnings are logged and the pipeline continues.
type ValidationResult struct {
	Passed   bool
	Errors   []string
	Warnings []string
}

// Validator checks an adapted CV against its canonical source before the
// document is allowed anywhere near a submission.
type Validator struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

// NewValidator creates a validator.
func NewValidator(llmService interfaces.LLMService, logger arbor.ILogger) *Validator {
	return &Validator{llm: llmService, logger: logger}
}

// Validate runs the four checks: PII integrity, experience integrity,
// fabrication detection and language consistency.
func (v *Validator) Validate(ctx context.Context, original, adapted *models.CVDocument, jobDescription string) ValidationResult {
	var result ValidationResult

	v.checkPIIIntegrity(original, adapted, &result)
	v.checkExperienceIntegrity(original, adapted, &result)
	v.checkFabrication(ctx, original, adapted, &result)
	v.checkLanguageConsistency(adapted, jobDescription, &result)

	result.Passed = len(result.Errors) == 0
	v.logger.Info().
		Str("passed", strconv.FormatBool(result.Passed)).
		Int("errors", len(result.Errors)).
		Int("warnings", len(result.Warnings)).
		Msg("CV validation finished")
	return result
}

// checkPIIIntegrity requires name, email and phone to survive adaptation
// byte-for-byte.
func (v *Validator) checkPIIIntegrity(original, adapted *models.CVDocument, result *ValidationResult) {
	fields := []struct {
		name     string
		orig, ad string
	}{
		{"name", original.Name, adapted.Name},
		{"email", original.Email, adapted.Email},
		{"phone", original.Phone, adapted.Phone},
	}
	for _, f := range fields {
		orig := strings.TrimSpace(f.orig)
		ad := strings.TrimSpace(f.ad)
		switch {
		case orig != "" && ad != "" && orig != ad:
			result.Errors = append(result.Errors,
				fmt.Sprintf("PII mismatch: field %q changed from %q to %q", f.name, orig, ad))
		case orig != "" && ad == "":
			result.Errors = append(result.Errors,
				fmt.Sprintf("PII removed: field %q missing in adapted CV", f.name))
		}
	}
}

// checkExperienceIntegrity requires every original company to survive, no new
// experience entries, and role years within one year of the original.
func (v *Validator) checkExperienceIntegrity(original, adapted *models.CVDocument, result *ValidationResult) {
	origCompanies := make(map[string]models.ExperienceEntry, len(original.Experience))
	for _, e := range original.Experience {
		if e.Company != "" {
			origCompanies[normalizeCompany(e.Company)] = e
		}
	}
	adaptedCompanies := make(map[string]bool, len(adapted.Experience))
	for _, e := range adapted.Experience {
		if e.Company != "" {
			adaptedCompanies[normalizeCompany(e.Company)] = true
		}
	}

	var removed []string
	for key := range origCompanies {
		if !adaptedCompanies[key] {
			removed = append(removed, key)
		}
	}
	if len(removed) > 0 {
		result.Errors = append(result.Errors,
			fmt.Sprintf("experience integrity: companies removed from adapted CV: %s", strings.Join(removed, ", ")))
	}

	if len(adapted.Experience) > len(original.Experience) {
		result.Errors = append(result.Errors,
			fmt.Sprintf("experience integrity: adapted CV has %d entries but original has %d, possible fabricated roles",
				len(adapted.Experience), len(original.Experience)))
	}

	for _, adaptedEntry := range adapted.Experience {
		origEntry, ok := origCompanies[normalizeCompany(adaptedEntry.Company)]
		if !ok {
			continue
		}
		origYears := extractYears(origEntry)
		adaptedYears := extractYears(adaptedEntry)
		if len(origYears) == 0 || len(adaptedYears) == 0 {
			continue
		}
		if abs(minInt(origYears)-minInt(adaptedYears)) > 1 || abs(maxInt(origYears)-maxInt(adaptedYears)) > 1 {
			result.Errors = append(result.Errors,
				fmt.Sprintf("date drift at %q: original years %v vs adapted years %v",
					adaptedEntry.Company, origYears, adaptedYears))
		}
	}
}

// checkFabrication asks the model to diff both documents for invented
// content. A positive finding is a hard stop; a check failure only warns so a
// flaky model cannot block the whole pipeline.
func (v *Validator) checkFabrication(ctx context.Context, original, adapted *models.CVDocument, result *ValidationResult) {
	origJSON, _ := json.Marshal(original)
	adaptedJSON, _ := json.Marshal(adapted)

	var verdict struct {
		HasFabrication   bool     `json:"has_fabrication"`
		FabricatedSkills []string `json:"fabricated_skills"`
	}
	prompt := llm.FabricationCheckPrompt(string(origJSON), string(adaptedJSON))
	if err := v.llm.GenerateJSON(ctx, prompt, 0.1, &verdict); err != nil {
		v.logger.Warn().Err(err).Msg("Fabrication check failed, continuing without it")
		result.Warnings = append(result.Warnings, "fabrication check unavailable: "+err.Error())
		return
	}

	if verdict.HasFabrication {
		if len(verdict.FabricatedSkills) > 0 {
			result.Errors = append(result.Errors,
				"fabrication detected: adapted CV contains items not in original: "+strings.Join(verdict.FabricatedSkills, ", "))
		} else {
			result.Errors = append(result.Errors,
				"fabrication detected: model flagged invented content without listing specifics")
		}
	}
}

// checkLanguageConsistency compares the detected language of the adapted CV
// against the posting. Mismatch is a hard stop only when both detections are
// high confidence.
func (v *Validator) checkLanguageConsistency(adapted *models.CVDocument, jobDescription string, result *ValidationResult) {
	adaptedText := cvToText(adapted)
	if len(adaptedText) < 50 {
		return
	}

	cvInfo := whatlanggo.Detect(adaptedText)
	cvLang := cvInfo.Lang.Iso6391()

	if len(jobDescription) >= 50 {
		jdInfo := whatlanggo.Detect(jobDescription)
		jdLang := jdInfo.Lang.Iso6391()
		if cvLang != jdLang {
			msg := fmt.Sprintf("language mismatch: adapted CV is %q (confidence=%.2f) but posting is %q (confidence=%.2f)",
				cvLang, cvInfo.Confidence, jdLang, jdInfo.Confidence)
			if cvInfo.Confidence > 0.9 && jdInfo.Confidence > 0.9 {
				result.Errors = append(result.Errors, msg)
			} else {
				result.Warnings = append(result.Warnings, msg)
			}
		}
	}

	// Spanish-market CVs default to Spanish or a co-official language.
	switch cvLang {
	case "es", "ca", "gl", "eu":
	default:
		if cvInfo.Confidence > 0.9 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("adapted CV appears to be %q (confidence=%.2f), Spanish is expected", cvLang, cvInfo.Confidence))
		}
	}
}

var nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}]`)

func normalizeCompany(name string) string {
	return nonWordRe.ReplaceAllString(strings.ToLower(name), "")
}

var yearRe = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)

func extractYears(entry models.ExperienceEntry) []int {
	text := entry.StartDate + " " + entry.EndDate
	var years []int
	for _, m := range yearRe.FindAllStringSubmatch(text, -1) {
		if y, err := strconv.Atoi(m[1]); err == nil {
			years = append(years, y)
		}
	}
	return years
}

// cvToText flattens the document into one block for language detection.
func cvToText(cv *models.CVDocument) string {
	var parts []string
	add := func(s string) {
		if s != "" {
			parts = append(parts, s)
		}
	}
	add(cv.Name)
	add(cv.Summary)
	for _, exp := range cv.Experience {
		add(exp.Title)
		add(exp.Company)
		parts = append(parts, exp.Bullets...)
	}
	for _, edu := range cv.Education {
		add(edu.Degree)
		add(edu.Institution)
	}
	if len(cv.Skills) > 0 {
		add(strings.Join(cv.Skills, ", "))
	}
	add(cv.SkillsSectionText)
	return strings.Join(parts, "\n")
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func minInt(ns []int) int {
	m := ns[0]
	for _, n := range ns[1:] {
		if n < m {
			m = n
		}
	}
	return m
}

func maxInt(ns []int) int {
	m := ns[0]
	for _, n := range ns[1:] {
		if n > m {
			m = n
		}
	}
	return m
}
