package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// CatalogueStorage persists the source catalogue consumed by the generic
// adapters. Entries are unique on (Company, URL).
type CatalogueStorage struct {
	db     *DB
	logger arbor.ILogger
}

// NewCatalogueStorage creates a catalogue storage instance.
func NewCatalogueStorage(db *DB, logger arbor.ILogger) *CatalogueStorage {
	return &CatalogueStorage{db: db, logger: logger}
}

// Save upserts an entry, reusing the ID of any existing (Company, URL) row.
func (s *CatalogueStorage) Save(ctx context.Context, entry *models.SourceCatalogueEntry) error {
	var existing models.SourceCatalogueEntry
	err := s.db.Store().FindOne(&existing,
		badgerhold.Where("Company").Eq(entry.Company).And("URL").Eq(entry.URL))
	switch {
	case err == nil:
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
	case errors.Is(err, badgerhold.ErrNotFound):
		if entry.ID == "" {
			entry.ID = "src_" + uuid.New().String()
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now().UTC()
		}
	default:
		return fmt.Errorf("failed to look up catalogue entry: %w", err)
	}
	if err := s.db.Store().Upsert(entry.ID, entry); err != nil {
		return fmt.Errorf("failed to save catalogue entry %s: %w", entry.ID, err)
	}
	return nil
}

// ListEnabled returns enabled entries for one adapter kind.
func (s *CatalogueStorage) ListEnabled(ctx context.Context, kind models.AdapterKind) ([]*models.SourceCatalogueEntry, error) {
	var entries []*models.SourceCatalogueEntry
	err := s.db.Store().Find(&entries,
		badgerhold.Where("AdapterKind").Eq(kind).And("Enabled").Eq(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list catalogue entries for %s: %w", kind, err)
	}
	return entries, nil
}

// List returns all catalogue entries.
func (s *CatalogueStorage) List(ctx context.Context) ([]*models.SourceCatalogueEntry, error) {
	var entries []*models.SourceCatalogueEntry
	if err := s.db.Store().Find(&entries, &badgerhold.Query{}); err != nil {
		return nil, fmt.Errorf("failed to list catalogue: %w", err)
	}
	return entries, nil
}

// Delete removes an entry by ID.
func (s *CatalogueStorage) Delete(ctx context.Context, id string) error {
	err := s.db.Store().Delete(id, &models.SourceCatalogueEntry{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to delete catalogue entry %s: %w", id, err)
	}
	return nil
}
