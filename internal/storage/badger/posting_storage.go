package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/interfaces"
	"github.com/ternarybob/solicita/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// PostingStorage persists postings with insert-or-ignore dedup on
// (SourceID, ExternalID).
type PostingStorage struct {
	db     *DB
	logger arbor.ILogger
}

// NewPostingStorage creates a posting storage instance.
func NewPostingStorage(db *DB, logger arbor.ILogger) *PostingStorage {
	return &PostingStorage{db: db, logger: logger}
}

// Upsert inserts a new posting, or leaves an existing row untouched except
// for the eligibility flip-down path: an incoming skipped classification
// updates the stored skip reason and flips status to skipped. A stored
// skipped row is never flipped back automatically.
func (s *PostingStorage) Upsert(ctx context.Context, posting *models.Posting) (bool, error) {
	store := s.db.Store()
	isNew := false

	err := store.Badger().Update(func(tx *badgerdb.Txn) error {
		var existing models.Posting
		err := store.TxFindOne(tx, &existing,
			badgerhold.Where("SourceID").Eq(posting.SourceID).And("ExternalID").Eq(posting.ExternalID))
		if errors.Is(err, badgerhold.ErrNotFound) {
			isNew = true
			return store.TxInsert(tx, posting.ID, posting)
		}
		if err != nil {
			return err
		}

		if posting.Status == models.PostingStatusSkipped && existing.Status != models.PostingStatusSkipped {
			reason, _ := posting.RawData.Get(models.SkipReasonKey)
			existing.RawData.Set(models.SkipReasonKey, reason)
			existing.Status = models.PostingStatusSkipped
			return store.TxUpdate(tx, existing.ID, &existing)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to upsert posting %s/%s: %w", posting.SourceID, posting.ExternalID, err)
	}
	return isNew, nil
}

// GetByID returns a posting by primary key.
func (s *PostingStorage) GetByID(ctx context.Context, id string) (*models.Posting, error) {
	var posting models.Posting
	err := s.db.Store().Get(id, &posting)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get posting %s: %w", id, err)
	}
	return &posting, nil
}

// GetBySourceExternalID returns a posting by its natural identity.
func (s *PostingStorage) GetBySourceExternalID(ctx context.Context, sourceID, externalID string) (*models.Posting, error) {
	var posting models.Posting
	err := s.db.Store().FindOne(&posting,
		badgerhold.Where("SourceID").Eq(sourceID).And("ExternalID").Eq(externalID))
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find posting %s/%s: %w", sourceID, externalID, err)
	}
	return &posting, nil
}

// List returns postings newest-first, optionally filtered by status.
func (s *PostingStorage) List(ctx context.Context, status models.PostingStatus, limit, offset int) ([]*models.Posting, error) {
	var postings []*models.Posting
	query := &badgerhold.Query{}
	if status != "" {
		query = badgerhold.Where("Status").Eq(status).Index("Status")
	}
	query = query.SortBy("ScrapedAt").Reverse().Skip(offset).Limit(limit)
	if err := s.db.Store().Find(&postings, query); err != nil {
		return nil, fmt.Errorf("failed to list postings: %w", err)
	}
	return postings, nil
}

// CountBySource counts stored postings for one source.
func (s *PostingStorage) CountBySource(ctx context.Context, sourceID string) (int, error) {
	count, err := s.db.Store().Count(&models.Posting{}, badgerhold.Where("SourceID").Eq(sourceID))
	if err != nil {
		return 0, fmt.Errorf("failed to count postings for %s: %w", sourceID, err)
	}
	return int(count), nil
}

// UpdateStatus sets the lifecycle status of one posting.
func (s *PostingStorage) UpdateStatus(ctx context.Context, id string, status models.PostingStatus) error {
	posting, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	posting.Status = status
	if err := s.db.Store().Update(id, posting); err != nil {
		return fmt.Errorf("failed to update posting %s status: %w", id, err)
	}
	return nil
}

// DeleteOlderThan removes postings scraped before cutoff that no application
// references. Returns the number deleted.
func (s *PostingStorage) DeleteOlderThan(ctx context.Context, cutoff time.Time, referenced map[string]bool) (int, error) {
	var stale []*models.Posting
	if err := s.db.Store().Find(&stale, badgerhold.Where("ScrapedAt").Lt(cutoff)); err != nil {
		return 0, fmt.Errorf("failed to find stale postings: %w", err)
	}
	deleted := 0
	for _, p := range stale {
		if referenced[p.ID] {
			continue
		}
		if err := s.db.Store().Delete(p.ID, &models.Posting{}); err != nil {
			s.logger.Warn().Err(err).Str("posting_id", p.ID).Msg("Failed to delete stale posting")
			continue
		}
		deleted++
	}
	return deleted, nil
}
