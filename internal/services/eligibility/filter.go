package eligibility

import (
	"fmt"
	"regexp"
	"strings"
)

// The filter encodes the legal bar for a work-permit transition: indefinite
// contract, full-time hours, and salary at or above the statutory minimum.
// Rules run in order; the first disqualification wins.

// Salary thresholds derived from the SMI (14 pays: annual = monthly x 14).
const (
	MinimumMonthlySalary = 1134.00
	MinimumAnnualSalary  = 15876.00
)

// Hours strictly below this are treated as part-time.
const fullTimeHours = 35

// temporalKeywords disqualify on any substring hit. Substring matching is
// intentionally conservative: "temporalmente" still triggers.
var temporalKeywords = []string{
	"temporal",
	"por obra",
	"obra y servicio",
	"eventual",
	"interinidad",
	"interino",
	"interina",
	"sustitución",
	"sustitucion",
	"fijo discontinuo",
	"fijo-discontinuo",
	"fixed-term",
	"fixed term",
	"temporary contract",
	"contrato de duración determinada",
}

var partTimeKeywords = []string{
	"media jornada",
	"medio jornada",
	"tiempo parcial",
	"part time",
	"part-time",
	"jornada parcial",
	"jornada reducida",
}

// contractCodeExpansion maps short contract codes some boards emit.
var contractCodeExpansion = map[string]string{
	"td": "temporal",
	"ti": "indefinido",
	"fp": "formación profesional",
	"p":  "practicas",
}

var hoursPattern = regexp.MustCompile(`\b(\d{1,2})\s*h(?:oras)?\b(?:\s*(?:/\s*semana\b|semanales\b|/\s*week\b))?`)

// Input is the posting material the filter inspects.
type Input struct {
	Title        string
	Description  string
	ContractType string
	SalaryRaw    string
}

// Result carries the verdict and, when ineligible, the reason.
type Result struct {
	Eligible bool
	Reason   string
}

// Check applies the disqualification rules in order. It is pure and
// deterministic: equal inputs always yield equal results.
func Check(in Input) Result {
	haystack := strings.ToLower(in.Title + " " + expandContractCode(in.ContractType) + " " + in.Description)

	for _, kw := range temporalKeywords {
		if strings.Contains(haystack, kw) {
			return Result{Reason: fmt.Sprintf("temporal contract: %q", kw)}
		}
	}

	for _, kw := range partTimeKeywords {
		if strings.Contains(haystack, kw) {
			return Result{Reason: fmt.Sprintf("part-time keyword: %q", kw)}
		}
	}

	for _, m := range hoursPattern.FindAllStringSubmatch(haystack, -1) {
		var hours int
		fmt.Sscanf(m[1], "%d", &hours)
		if hours > 0 && hours < fullTimeHours {
			return Result{Reason: fmt.Sprintf("part-time hours: %dh", hours)}
		}
	}

	salaryText := in.SalaryRaw
	if strings.TrimSpace(salaryText) == "" {
		salaryText = in.Description
	}
	candidates := ParseSalaries(salaryText)
	if len(candidates) > 0 {
		anyPass := false
		best := candidates[0]
		for _, c := range candidates {
			if c.Passes() {
				anyPass = true
				break
			}
			if c.Amount > best.Amount {
				best = c
			}
		}
		if !anyPass {
			return Result{Reason: fmt.Sprintf("salary too low for canje: %.2f %s (minimum %.2f)",
				best.Amount, best.Period, best.threshold())}
		}
	}

	return Result{Eligible: true}
}

func expandContractCode(contractType string) string {
	code := strings.ToLower(strings.TrimSpace(contractType))
	if expanded, ok := contractCodeExpansion[code]; ok {
		return expanded
	}
	return contractType
}
