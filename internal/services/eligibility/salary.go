package eligibility

import (
	"regexp"
	"strconv"
	"strings"
)

// SalaryPeriod is the pay period a parsed amount refers to.
type SalaryPeriod string

const (
	PeriodMonthly SalaryPeriod = "monthly"
	PeriodAnnual  SalaryPeriod = "annual"
)

// SalaryCandidate is one parsed salary occurrence.
type SalaryCandidate struct {
	Amount float64
	Period SalaryPeriod
}

func (c SalaryCandidate) threshold() float64 {
	if c.Period == PeriodAnnual {
		return MinimumAnnualSalary
	}
	return MinimumMonthlySalary
}

// Passes reports whether the candidate meets its period's minimum.
func (c SalaryCandidate) Passes() bool {
	return c.Amount >= c.threshold()
}

// Sanity clamps; out-of-range candidates are discarded as misparses.
const (
	monthlyFloor = 300
	monthlyCeil  = 30000
	annualFloor  = 5000
	annualCeil   = 500000
)

// Amounts above this with only a currency marker are inferred annual.
const annualInferenceCutoff = 2000

// salaryPattern matches `A` or `A-B` optionally followed by a euro indicator
// and a period keyword. Number grammar covers plain integers, European
// thousands-dots and decimal commas.
var salaryPattern = regexp.MustCompile(`(?i)(\d{1,3}(?:\.\d{3})+(?:,\d+)?|\d+(?:[.,]\d+)?)` +
	`(?:\s*[-–]\s*(\d{1,3}(?:\.\d{3})+(?:,\d+)?|\d+(?:[.,]\d+)?))?` +
	`\s*(€|euros?\b|eur\b)?` +
	`\s*(?:/|al\s+|por\s+)?\s*(mes\b|meses\b|month\b|año\b|ano\b|anual(?:es)?\b|year\b|annual\b)?`)

var currencyWindowPattern = regexp.MustCompile(`(?i)€|eur`)

// ParseSalaries extracts every salary candidate from free text. A match with
// neither a currency marker inside a ±5 character window nor an explicit
// period keyword is discarded so unrelated integers never become candidates.
func ParseSalaries(text string) []SalaryCandidate {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var out []SalaryCandidate
	for _, idx := range salaryPattern.FindAllStringSubmatchIndex(text, -1) {
		group := func(i int) string {
			if idx[2*i] < 0 {
				return ""
			}
			return text[idx[2*i]:idx[2*i+1]]
		}

		first := group(1)
		second := group(2)
		currency := group(3)
		periodWord := group(4)

		hasCurrency := currency != "" || currencyNearby(text, idx[0], idx[1])
		if !hasCurrency && periodWord == "" {
			continue
		}

		amount, ok := parseAmount(first)
		if !ok {
			continue
		}
		if second != "" {
			if upper, ok := parseAmount(second); ok && upper > amount {
				amount = upper
			}
		}

		var period SalaryPeriod
		switch {
		case periodWord != "":
			period = classifyPeriod(periodWord)
		case amount > annualInferenceCutoff:
			period = PeriodAnnual
		default:
			period = PeriodMonthly
		}

		if period == PeriodMonthly && (amount <= monthlyFloor || amount >= monthlyCeil) {
			continue
		}
		if period == PeriodAnnual && (amount <= annualFloor || amount >= annualCeil) {
			continue
		}

		out = append(out, SalaryCandidate{Amount: amount, Period: period})
	}
	return out
}

func currencyNearby(text string, start, end int) bool {
	lo := start - 5
	if lo < 0 {
		lo = 0
	}
	hi := end + 5
	if hi > len(text) {
		hi = len(text)
	}
	return currencyWindowPattern.MatchString(text[lo:hi])
}

func classifyPeriod(word string) SalaryPeriod {
	switch strings.ToLower(strings.TrimSpace(word)) {
	case "año", "ano", "anual", "anuales", "year", "annual":
		return PeriodAnnual
	default:
		return PeriodMonthly
	}
}

// parseAmount handles four conventions: plain integer, European thousands-dot
// (1.200 → 1200), European decimal-comma (1200,50 → 1200.5) and mixed forms.
// A lone comma is decimal per Spanish convention: 1,200 → 1.2.
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")

	var normalised string
	switch {
	case hasDot && hasComma:
		if strings.LastIndex(s, ".") < strings.LastIndex(s, ",") {
			// 1.200,50 — dots are thousands, comma is decimal
			normalised = strings.ReplaceAll(s, ".", "")
			normalised = strings.ReplaceAll(normalised, ",", ".")
		} else {
			// 1,200.50 — US form
			normalised = strings.ReplaceAll(s, ",", "")
		}
	case hasDot:
		// Dots followed by exactly three digits are thousands separators.
		parts := strings.Split(s, ".")
		thousands := len(parts) > 1
		for _, p := range parts[1:] {
			if len(p) != 3 {
				thousands = false
				break
			}
		}
		if thousands {
			normalised = strings.ReplaceAll(s, ".", "")
		} else {
			normalised = s
		}
	case hasComma:
		normalised = strings.ReplaceAll(s, ",", ".")
	default:
		normalised = s
	}

	v, err := strconv.ParseFloat(normalised, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
