package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/interfaces"
	"github.com/ternarybob/solicita/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ApplicationStorage persists applications and their append-only audit events.
type ApplicationStorage struct {
	db     *DB
	logger arbor.ILogger
}

// NewApplicationStorage creates an application storage instance.
func NewApplicationStorage(db *DB, logger arbor.ILogger) *ApplicationStorage {
	return &ApplicationStorage{db: db, logger: logger}
}

// Create inserts the application and its initial event in one transaction.
func (s *ApplicationStorage) Create(ctx context.Context, app *models.Application, event *models.ApplicationEvent) error {
	store := s.db.Store()
	err := store.Badger().Update(func(tx *badgerdb.Txn) error {
		if err := store.TxInsert(tx, app.ID, app); err != nil {
			return err
		}
		return store.TxInsert(tx, event.ID, event)
	})
	if err != nil {
		return fmt.Errorf("failed to create application %s: %w", app.ID, err)
	}
	return nil
}

// GetByID returns an application by primary key.
func (s *ApplicationStorage) GetByID(ctx context.Context, id string) (*models.Application, error) {
	var app models.Application
	err := s.db.Store().Get(id, &app)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application %s: %w", id, err)
	}
	return &app, nil
}

// List returns applications newest-first, optionally filtered by status.
func (s *ApplicationStorage) List(ctx context.Context, status models.ApplicationStatus, limit, offset int) ([]*models.Application, error) {
	var apps []*models.Application
	query := &badgerhold.Query{}
	if status != "" {
		query = badgerhold.Where("Status").Eq(status).Index("Status")
	}
	query = query.SortBy("CreatedAt").Reverse().Skip(offset).Limit(limit)
	if err := s.db.Store().Find(&apps, query); err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

// ListByCompanySince returns applications for the company (case-insensitive)
// created at or after since.
func (s *ApplicationStorage) ListByCompanySince(ctx context.Context, company string, since time.Time) ([]*models.Application, error) {
	target := strings.ToLower(strings.TrimSpace(company))
	var apps []*models.Application
	err := s.db.Store().Find(&apps, badgerhold.Where("Company").MatchFunc(func(ra *badgerhold.RecordAccess) (bool, error) {
		app, ok := ra.Record().(*models.Application)
		if !ok {
			return false, nil
		}
		return strings.ToLower(strings.TrimSpace(app.Company)) == target && !app.CreatedAt.Before(since), nil
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to list applications for %s: %w", company, err)
	}
	return apps, nil
}

// Transition writes the updated application and appends the audit event in
// one transaction. The two writes succeeding together is the state-machine
// gate invariant; callers validate legality before calling.
func (s *ApplicationStorage) Transition(ctx context.Context, app *models.Application, event *models.ApplicationEvent) error {
	store := s.db.Store()
	err := store.Badger().Update(func(tx *badgerdb.Txn) error {
		if err := store.TxUpdate(tx, app.ID, app); err != nil {
			return err
		}
		return store.TxInsert(tx, event.ID, event)
	})
	if err != nil {
		return fmt.Errorf("failed to transition application %s: %w", app.ID, err)
	}
	return nil
}

// ListEvents returns the audit trail for an application, oldest first.
func (s *ApplicationStorage) ListEvents(ctx context.Context, applicationID string) ([]*models.ApplicationEvent, error) {
	var events []*models.ApplicationEvent
	err := s.db.Store().Find(&events,
		badgerhold.Where("ApplicationID").Eq(applicationID).Index("ApplicationID").SortBy("CreatedAt"))
	if err != nil {
		return nil, fmt.Errorf("failed to list events for %s: %w", applicationID, err)
	}
	return events, nil
}

// ReferencedPostingIDs returns the set of posting IDs referenced by any
// application. Used by the retention sweep.
func (s *ApplicationStorage) ReferencedPostingIDs(ctx context.Context) (map[string]bool, error) {
	var apps []*models.Application
	if err := s.db.Store().Find(&apps, &badgerhold.Query{}); err != nil {
		return nil, fmt.Errorf("failed to scan applications: %w", err)
	}
	refs := make(map[string]bool, len(apps))
	for _, app := range apps {
		refs[app.PostingID] = true
	}
	return refs, nil
}

// DeleteTerminalOlderThan removes terminal applications updated before the
// cutoff, cascading their events. Returns the number of applications deleted.
func (s *ApplicationStorage) DeleteTerminalOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	var apps []*models.Application
	if err := s.db.Store().Find(&apps, badgerhold.Where("UpdatedAt").Lt(cutoff)); err != nil {
		return 0, fmt.Errorf("failed to find stale applications: %w", err)
	}
	deleted := 0
	for _, app := range apps {
		if !app.Status.IsTerminal() {
			continue
		}
		if err := s.db.Store().Delete(app.ID, &models.Application{}); err != nil {
			s.logger.Warn().Err(err).Str("application_id", app.ID).Msg("Failed to delete stale application")
			continue
		}
		if err := s.db.Store().DeleteMatching(&models.ApplicationEvent{},
			badgerhold.Where("ApplicationID").Eq(app.ID)); err != nil {
			s.logger.Warn().Err(err).Str("application_id", app.ID).Msg("Failed to cascade event deletion")
		}
		deleted++
	}
	return deleted, nil
}
