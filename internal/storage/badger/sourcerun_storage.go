package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/interfaces"
	"github.com/ternarybob/solicita/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// SourceRunStorage persists per-source ingestion attempts.
type SourceRunStorage struct {
	db     *DB
	logger arbor.ILogger
}

// NewSourceRunStorage creates a source-run storage instance.
func NewSourceRunStorage(db *DB, logger arbor.ILogger) *SourceRunStorage {
	return &SourceRunStorage{db: db, logger: logger}
}

// Save upserts a run record by ID.
func (s *SourceRunStorage) Save(ctx context.Context, run *models.SourceRun) error {
	if err := s.db.Store().Upsert(run.ID, run); err != nil {
		return fmt.Errorf("failed to save source run %s: %w", run.ID, err)
	}
	return nil
}

// GetLatest returns the most recently started run for a source.
func (s *SourceRunStorage) GetLatest(ctx context.Context, sourceID string) (*models.SourceRun, error) {
	var runs []*models.SourceRun
	err := s.db.Store().Find(&runs,
		badgerhold.Where("SourceID").Eq(sourceID).Index("SourceID").SortBy("StartedAt").Reverse().Limit(1))
	if err != nil {
		return nil, fmt.Errorf("failed to load latest run for %s: %w", sourceID, err)
	}
	if len(runs) == 0 {
		return nil, interfaces.ErrNotFound
	}
	return runs[0], nil
}

// LatestCheckpoint returns the checkpoint blob of the newest completed run
// with a checkpoint, or nil when none exists.
func (s *SourceRunStorage) LatestCheckpoint(ctx context.Context, sourceID string) ([]byte, error) {
	var runs []*models.SourceRun
	err := s.db.Store().Find(&runs,
		badgerhold.Where("SourceID").Eq(sourceID).Index("SourceID").
			And("Status").Eq(models.RunStatusCompleted).
			SortBy("StartedAt").Reverse())
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load checkpoint for %s: %w", sourceID, err)
	}
	for _, run := range runs {
		if len(run.Checkpoint) > 0 {
			return run.Checkpoint, nil
		}
	}
	return nil, nil
}

// List returns up to limit runs for a source, newest first.
func (s *SourceRunStorage) List(ctx context.Context, sourceID string, limit int) ([]*models.SourceRun, error) {
	var runs []*models.SourceRun
	err := s.db.Store().Find(&runs,
		badgerhold.Where("SourceID").Eq(sourceID).Index("SourceID").SortBy("StartedAt").Reverse().Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list runs for %s: %w", sourceID, err)
	}
	return runs, nil
}
