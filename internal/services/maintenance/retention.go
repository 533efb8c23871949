package maintenance

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/common"
	"github.com/ternarybob/solicita/internal/interfaces"
)

// RetentionService is the periodic data sweep: stale unreferenced postings,
// terminal applications past their window, and aged log files.
type RetentionService struct {
	cfg     *common.Config
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

// NewRetentionService creates the sweep job.
func NewRetentionService(cfg *common.Config, storage interfaces.StorageManager, logger arbor.ILogger) *RetentionService {
	return &RetentionService{cfg: cfg, storage: storage, logger: logger}
}

// Run performs one sweep. Postings referenced by any application are never
// removed regardless of age.
func (s *RetentionService) Run(ctx context.Context) error {
	now := time.Now().UTC()

	referenced, err := s.storage.Applications().ReferencedPostingIDs(ctx)
	if err != nil {
		return err
	}

	postingsCutoff := now.AddDate(0, 0, -s.cfg.Retention.JobsDays)
	deletedPostings, err := s.storage.Postings().DeleteOlderThan(ctx, postingsCutoff, referenced)
	if err != nil {
		return err
	}

	appsCutoff := now.AddDate(0, 0, -s.cfg.Retention.ApplicationsDays)
	deletedApps, err := s.storage.Applications().DeleteTerminalOlderThan(ctx, appsCutoff)
	if err != nil {
		return err
	}

	deletedLogs := s.sweepLogs(now.AddDate(0, 0, -s.cfg.Retention.LogsDays))

	s.logger.Info().
		Int("postings_deleted", deletedPostings).
		Int("applications_deleted", deletedApps).
		Int("log_files_deleted", deletedLogs).
		Msg("Retention sweep complete")
	return nil
}

// sweepLogs removes log files last modified before the cutoff.
func (s *RetentionService) sweepLogs(cutoff time.Time) int {
	entries, err := os.ReadDir(s.cfg.LogsDir())
	if err != nil {
		return 0
	}

	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(s.cfg.LogsDir(), entry.Name())
		if err := os.Remove(path); err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove old log file")
			continue
		}
		deleted++
	}
	return deleted
}
