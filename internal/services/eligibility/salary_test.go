package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmountConventions(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1200", 1200},
		{"1.200", 1200},
		{"35.000", 35000},
		{"1200,50", 1200.5},
		{"1.200,50", 1200.5},
		{"1,200.50", 1200.5},
		{"1,200", 1.2}, // lone comma is decimal, Spanish convention
		{"1200.5", 1200.5},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseAmount(tt.in)
			require.True(t, ok)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestParseSalaries(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []SalaryCandidate
	}{
		{
			name: "monthly with currency and period",
			text: "Salario 1.500€/mes",
			want: []SalaryCandidate{{Amount: 1500, Period: PeriodMonthly}},
		},
		{
			name: "annual with period word",
			text: "35.000 euros anuales",
			want: []SalaryCandidate{{Amount: 35000, Period: PeriodAnnual}},
		},
		{
			name: "currency only above cutoff infers annual",
			text: "hasta 28.000€",
			want: []SalaryCandidate{{Amount: 28000, Period: PeriodAnnual}},
		},
		{
			name: "currency only below cutoff infers monthly",
			text: "1.400 €",
			want: []SalaryCandidate{{Amount: 1400, Period: PeriodMonthly}},
		},
		{
			name: "bare number without currency or period is discarded",
			text: "equipo de 12 personas con 1500 clientes",
			want: nil,
		},
		{
			name: "range keeps the upper bound",
			text: "entre 18.000-22.000€/año",
			want: []SalaryCandidate{{Amount: 22000, Period: PeriodAnnual}},
		},
		{
			name: "monthly clamp discards tiny misparse",
			text: "1,200€/mes",
			want: nil,
		},
		{
			name: "annual clamp discards absurd value",
			text: "600.000€/año",
			want: nil,
		},
		{
			name: "period keyword without currency still counts",
			text: "1200 al mes",
			want: []SalaryCandidate{{Amount: 1200, Period: PeriodMonthly}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSalaries(tt.text)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCandidatePasses(t *testing.T) {
	assert.True(t, SalaryCandidate{Amount: 1134, Period: PeriodMonthly}.Passes())
	assert.False(t, SalaryCandidate{Amount: 1133.99, Period: PeriodMonthly}.Passes())
	assert.True(t, SalaryCandidate{Amount: 15876, Period: PeriodAnnual}.Passes())
	assert.False(t, SalaryCandidate{Amount: 15875, Period: PeriodAnnual}.Passes())
}
