package interfaces

import "time"

// EventType identifies an event bus topic.
type EventType string

// Bus topics. The persisted application_events rows are the audit log; these
// topics are best-effort in-process fan-out only.
const (
	EventCVGenerationStarted  EventType = "cv_generation_started"
	EventCVGenerationComplete EventType = "cv_generation_complete"
	EventCVGenerationError    EventType = "cv_generation_error"
	EventApplicationAuthorized EventType = "application_authorized"
	EventApplicationRejected   EventType = "application_rejected"
	EventApplicationSubmitted  EventType = "application_submitted"
	EventScraperFinished       EventType = "scraper_finished"
	EventScraperError          EventType = "scraper_error"
	EventReviewReady           EventType = "review_ready"
	EventReviewExpiring        EventType = "review_expiring"
	EventModelPullProgress     EventType = "model_pull_progress"
	EventModelPullComplete     EventType = "model_pull_complete"
)

// Event is one bus message.
type Event struct {
	Type      EventType      `json:"type"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// EventService is the process-local best-effort pub/sub bus. Publish never
// blocks: a subscriber whose buffer is full is dropped and unsubscribed.
type EventService interface {
	// Subscribe registers a subscriber for the given topics (all topics when
	// empty) and returns its id and receive channel. The channel is closed
	// on Unsubscribe and on slow-client quarantine.
	Subscribe(buffer int, types ...EventType) (id string, ch <-chan Event)
	Unsubscribe(id string)
	// Publish delivers asynchronously and never blocks the caller.
	Publish(event Event)
	// PublishSync delivers inline to all current subscribers; used in tests.
	PublishSync(event Event)
}
