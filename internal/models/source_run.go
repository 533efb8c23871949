package models

import "time"

// SourceRunStatus is the outcome of one ingestion attempt.
type SourceRunStatus string

const (
	RunStatusRunning   SourceRunStatus = "running"
	RunStatusCompleted SourceRunStatus = "completed"
	RunStatusFailed    SourceRunStatus = "failed"
	RunStatusDisabled  SourceRunStatus = "disabled"
)

// SourceRun records one per-source ingestion attempt.
//
// ConsecutiveZeroRuns resets to 0 on any completed run with JobsFound > 0 or
// on any non-completed status; it increments only on completed runs with
// JobsFound = 0.
type SourceRun struct {
	ID                  string          `json:"id" badgerhold:"key"`
	SourceID            string          `json:"source_id" badgerholdIndex:"SourceID"`
	Status              SourceRunStatus `json:"status"`
	StartedAt           time.Time       `json:"started_at"`
	FinishedAt          *time.Time      `json:"finished_at,omitempty"`
	JobsFound           int             `json:"jobs_found"`
	JobsNew             int             `json:"jobs_new"`
	Checkpoint          []byte          `json:"checkpoint,omitempty"`
	StructureHash       string          `json:"structure_hash,omitempty"`
	ConsecutiveZeroRuns int             `json:"consecutive_zero_runs"`
	ErrorMessage        string          `json:"error_message,omitempty"`
}

// RunStats is the public result of one scraper run.
type RunStats struct {
	Site      string          `json:"site"`
	JobsFound int             `json:"jobs_found"`
	JobsNew   int             `json:"jobs_new"`
	Status    SourceRunStatus `json:"status"`
}
