package interfaces

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/solicita/internal/models"
)

// PostingStorage persists scraped postings.
type PostingStorage interface {
	// Upsert inserts the posting if (SourceID, ExternalID) is unseen and
	// returns true; an existing row wins and false is returned. When the
	// existing row's eligibility classification differs, only the skip
	// reason inside the raw payload (and the skipped status) is updated.
	Upsert(ctx context.Context, posting *models.Posting) (isNew bool, err error)
	GetByID(ctx context.Context, id string) (*models.Posting, error)
	GetBySourceExternalID(ctx context.Context, sourceID, externalID string) (*models.Posting, error)
	List(ctx context.Context, status models.PostingStatus, limit, offset int) ([]*models.Posting, error)
	CountBySource(ctx context.Context, sourceID string) (int, error)
	UpdateStatus(ctx context.Context, id string, status models.PostingStatus) error
	// DeleteOlderThan removes postings scraped before the cutoff that are
	// not referenced by any application. Returns the number deleted.
	DeleteOlderThan(ctx context.Context, cutoff time.Time, referenced map[string]bool) (int, error)
}

// ApplicationStorage persists applications and their audit events.
type ApplicationStorage interface {
	Create(ctx context.Context, app *models.Application, event *models.ApplicationEvent) error
	GetByID(ctx context.Context, id string) (*models.Application, error)
	List(ctx context.Context, status models.ApplicationStatus, limit, offset int) ([]*models.Application, error)
	ListByCompanySince(ctx context.Context, company string, since time.Time) ([]*models.Application, error)
	// Transition atomically writes the application (status + field updates +
	// UpdatedAt) and appends the audit event in one transaction.
	Transition(ctx context.Context, app *models.Application, event *models.ApplicationEvent) error
	ListEvents(ctx context.Context, applicationID string) ([]*models.ApplicationEvent, error)
	// ReferencedPostingIDs returns the set of posting IDs any application references.
	ReferencedPostingIDs(ctx context.Context) (map[string]bool, error)
	DeleteTerminalOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// SourceRunStorage persists per-source ingestion attempts.
type SourceRunStorage interface {
	Save(ctx context.Context, run *models.SourceRun) error
	GetLatest(ctx context.Context, sourceID string) (*models.SourceRun, error)
	// LatestCheckpoint returns the checkpoint blob of the most recent
	// completed run for the source, or nil when none exists.
	LatestCheckpoint(ctx context.Context, sourceID string) ([]byte, error)
	List(ctx context.Context, sourceID string, limit int) ([]*models.SourceRun, error)
}

// PolicyStorage persists blocklist entries and per-company rate-limit rules.
type PolicyStorage interface {
	AddBlocklist(ctx context.Context, entry *models.CompanyBlocklistEntry) error
	RemoveBlocklist(ctx context.Context, company string) error
	IsBlocklisted(ctx context.Context, company string) (bool, error)
	ListBlocklist(ctx context.Context) ([]*models.CompanyBlocklistEntry, error)
	SetRule(ctx context.Context, rule *models.CompanyApplicationRule) error
	// GetRule returns the rule for the company, or the (2, 14) default.
	GetRule(ctx context.Context, company string) (*models.CompanyApplicationRule, error)
}

// CatalogueStorage persists the source catalogue consumed by generic adapters.
type CatalogueStorage interface {
	Save(ctx context.Context, entry *models.SourceCatalogueEntry) error
	ListEnabled(ctx context.Context, kind models.AdapterKind) ([]*models.SourceCatalogueEntry, error)
	List(ctx context.Context) ([]*models.SourceCatalogueEntry, error)
	Delete(ctx context.Context, id string) error
}

// SettingsStorage is the string KV settings table, last-writer-wins.
type SettingsStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string]string, error)
}

// StorageManager aggregates all typed storages over one database.
type StorageManager interface {
	Postings() PostingStorage
	Applications() ApplicationStorage
	SourceRuns() SourceRunStorage
	Policies() PolicyStorage
	Catalogue() CatalogueStorage
	Settings() SettingsStorage
	// DB exposes the underlying badger database for backup streaming.
	DB() *badger.DB
	Close() error
}
