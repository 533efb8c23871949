package models

import "time"

// CompanyBlocklistEntry bars a company from receiving applications.
// Company matching is case-insensitive; names are stored lowercased.
type CompanyBlocklistEntry struct {
	Company   string    `json:"company" badgerhold:"key"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CompanyApplicationRule caps applications per company inside a rolling
// window. The implicit default when no rule exists is (2, 14).
type CompanyApplicationRule struct {
	Company      string `json:"company" badgerhold:"key"`
	MaxPerPeriod int    `json:"max_per_period"`
	PeriodDays   int    `json:"period_days"`
}

// Default per-company rate-limit rule values.
const (
	DefaultMaxPerPeriod = 2
	DefaultPeriodDays   = 14
)
