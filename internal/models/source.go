package models

import "time"

// AdapterKind selects which generic adapter consumes a catalogue entry.
type AdapterKind string

const (
	AdapterGreenhouse AdapterKind = "greenhouse"
	AdapterLever      AdapterKind = "lever"
	AdapterCareerPage AdapterKind = "career_page"
)

// SourceCatalogueEntry describes one company career source consumed by the
// generic adapters. Unique on (Company, URL).
type SourceCatalogueEntry struct {
	ID          string         `json:"id" badgerhold:"key"`
	Company     string         `json:"company" badgerholdIndex:"Company"`
	URL         string         `json:"url"`
	AdapterKind AdapterKind    `json:"adapter_kind"`
	Selector    string         `json:"selector,omitempty"`
	ExtraConfig map[string]any `json:"extra_config,omitempty"`
	Enabled     bool           `json:"enabled"`
	Profile     string         `json:"profile,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
