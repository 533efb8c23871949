package models

import (
	"encoding/json"
	"time"
)

// PostingStatus is the lifecycle status of a scraped posting.
type PostingStatus string

const (
	PostingStatusScraped   PostingStatus = "scraped"
	PostingStatusQualified PostingStatus = "qualified"
	PostingStatusSkipped   PostingStatus = "skipped"
	PostingStatusExpired   PostingStatus = "expired"
)

// SkipReasonKey is the reserved raw-payload key that carries the
// eligibility skip reason for postings marked skipped.
const SkipReasonKey = "_skip_reason"

// Posting is a single external job listing. Identity is (SourceID, ExternalID):
// ExternalID is the source's own ID, or a deterministic hash when the source
// has none.
type Posting struct {
	ID           string        `json:"id" badgerhold:"key"`
	SourceID     string        `json:"source_id" badgerholdIndex:"SourceID"`
	ExternalID   string        `json:"external_id"`
	URL          string        `json:"url"`
	Title        string        `json:"title"`
	Company      string        `json:"company"`
	Location     string        `json:"location"`
	Description  string        `json:"description"`
	SalaryRaw    string        `json:"salary_raw,omitempty"`
	ContractType string        `json:"contract_type,omitempty"`
	Status       PostingStatus `json:"status" badgerholdIndex:"Status"`
	Profile      string        `json:"profile,omitempty"`
	RawData      RawPayload    `json:"raw_data,omitempty"`
	PostedAt     time.Time     `json:"posted_at,omitempty"`
	ScrapedAt    time.Time     `json:"scraped_at"`
}

// RawPayload is the opaque source-specific blob attached to a posting.
// It is either structured (a JSON object) or opaque bytes; persisted as JSON
// either way.
type RawPayload struct {
	Structured map[string]any `json:"structured,omitempty"`
	Opaque     []byte         `json:"opaque,omitempty"`
}

// NewStructuredPayload wraps a map as a structured raw payload.
func NewStructuredPayload(m map[string]any) RawPayload {
	return RawPayload{Structured: m}
}

// Set stores a key in the structured payload, initialising it if needed.
func (p *RawPayload) Set(key string, value any) {
	if p.Structured == nil {
		p.Structured = make(map[string]any)
	}
	p.Structured[key] = value
}

// Get returns a key from the structured payload.
func (p *RawPayload) Get(key string) (any, bool) {
	if p.Structured == nil {
		return nil, false
	}
	v, ok := p.Structured[key]
	return v, ok
}

// MarshalJSON keeps opaque payloads readable as base64 while structured
// payloads serialize as plain objects.
func (p RawPayload) MarshalJSON() ([]byte, error) {
	if p.Structured != nil {
		return json.Marshal(p.Structured)
	}
	type alias struct {
		Opaque []byte `json:"opaque,omitempty"`
	}
	return json.Marshal(alias{Opaque: p.Opaque})
}

// UnmarshalJSON accepts either a plain object or the opaque wrapper.
func (p *RawPayload) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if _, ok := m["opaque"]; ok && len(m) == 1 {
		type alias struct {
			Opaque []byte `json:"opaque,omitempty"`
		}
		var a alias
		if err := json.Unmarshal(data, &a); err == nil {
			p.Opaque = a.Opaque
			return nil
		}
	}
	p.Structured = m
	return nil
}
