package interfaces

import (
	"context"

	"github.com/ternarybob/solicita/internal/models"
)

// SourceAdapter is one source-specific extractor. Adapters rate-limit their
// own HTTP; the runtime supplies delay and checkpoint helpers through
// ScrapeSession.
type SourceAdapter interface {
	// Site returns the source tag, e.g. "greenhouse" or "indeed_es".
	Site() string
	// Scrape yields raw postings for this run.
	Scrape(ctx context.Context, session ScrapeSession) ([]*models.Posting, error)
}

// ScrapeSession is the runtime surface handed to a running adapter.
type ScrapeSession interface {
	// Delay sleeps a uniform random interval from the per-site rate table.
	Delay(ctx context.Context) error
	// Checkpoint returns the latest saved checkpoint blob, nil when none.
	Checkpoint() []byte
	// SaveCheckpoint stores an opaque blob; only the latest is retained.
	SaveCheckpoint(blob []byte)
	// ReportStructure feeds a representative fragment of the current
	// ingestion into the structural drift hash.
	ReportStructure(fragment string)
}

// ScraperService runs source ingestions.
type ScraperService interface {
	RunSource(ctx context.Context, site string) (*models.RunStats, error)
	Sites() []string
}

// LifecycleService is the single gate for application status changes.
type LifecycleService interface {
	CreateApplication(ctx context.Context, posting *models.Posting, profile string) (*models.Application, error)
	// Transition moves the application to newStatus, applies updates to the
	// loaded record, and appends the audit event atomically.
	Transition(ctx context.Context, applicationID string, newStatus models.ApplicationStatus, actor, note string, updates func(*models.Application)) (*models.Application, error)
	CheckBlocklist(ctx context.Context, company string) error
	CheckCompanyRateLimit(ctx context.Context, company string) error
}

// DocumentService drives the CV adaptation pipeline for one application.
type DocumentService interface {
	GenerateCV(ctx context.Context, applicationID string) error
}

// HumanLoopService manages the bounded review window and authorized submits.
type HumanLoopService interface {
	// BeginReview snapshots the form and parks the application in
	// pending_human_review with warning and expiry timers armed.
	BeginReview(ctx context.Context, applicationID string, page Page) error
	// Authorize validates the review window, marks the application
	// cv_approved with the authorization flags, and schedules the submit task.
	Authorize(ctx context.Context, applicationID string) error
	// Reject withdraws the application from review.
	Reject(ctx context.Context, applicationID string, reason string) error
}
