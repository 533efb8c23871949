package models

import "time"

// Actor tags recorded on audit events.
const (
	ActorSystem          string = "system"
	ActorScraper         string = "scraper"
	ActorCVAdapter       string = "cv_adapter"
	ActorHuman           string = "human"
	ActorSubmitAuthorized string = "human_loop.submit_authorized"
)

// ApplicationEvent is an immutable audit record of one status change.
// OldStatus is empty for the initial creation event. Rows are append-only.
type ApplicationEvent struct {
	ID            string            `json:"id" badgerhold:"key"`
	ApplicationID string            `json:"application_id" badgerholdIndex:"ApplicationID"`
	OldStatus     ApplicationStatus `json:"old_status,omitempty"`
	NewStatus     ApplicationStatus `json:"new_status"`
	TriggeredBy   string            `json:"triggered_by"`
	Note          string            `json:"note,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}
