package maintenance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/common"
	"github.com/ternarybob/solicita/internal/interfaces"
)

const (
	backupPrefix = "jobs-"
	backupSuffix = ".db"
)

// BackupService streams nightly full backups of the database and keeps a
// rolling window of them.
type BackupService struct {
	cfg     *common.Config
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

// NewBackupService creates the backup job.
func NewBackupService(cfg *common.Config, storage interfaces.StorageManager, logger arbor.ILogger) *BackupService {
	return &BackupService{cfg: cfg, storage: storage, logger: logger}
}

// Run writes today's backup file and prunes old ones. Re-running on the same
// day overwrites the day's file.
func (s *BackupService) Run(ctx context.Context) error {
	if err := os.MkdirAll(s.cfg.BackupsDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create backups dir: %w", err)
	}

	name := backupPrefix + time.Now().UTC().Format("2006-01-02") + backupSuffix
	path := filepath.Join(s.cfg.BackupsDir(), name)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create backup file %s: %w", path, err)
	}
	since, err := s.storage.DB().Backup(file, 0)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("backup to %s failed: %w", path, err)
	}

	info, _ := os.Stat(path)
	var size int64
	if info != nil {
		size = info.Size()
	}
	s.logger.Info().
		Str("path", path).
		Int64("size_bytes", size).
		Int64("version", int64(since)).
		Msg("Database backup written")

	return s.prune()
}

// prune keeps the newest BackupsRollingDays backup files. Date-stamped names
// sort chronologically, so a descending name sort is a descending age sort.
func (s *BackupService) prune() error {
	entries, err := os.ReadDir(s.cfg.BackupsDir())
	if err != nil {
		return fmt.Errorf("failed to list backups dir: %w", err)
	}

	var backups []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, backupPrefix) && strings.HasSuffix(name, backupSuffix) {
			backups = append(backups, name)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(backups)))

	keep := s.cfg.Retention.BackupsRollingDays
	for i := keep; i < len(backups); i++ {
		path := filepath.Join(s.cfg.BackupsDir(), backups[i])
		if err := os.Remove(path); err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove old backup")
			continue
		}
		s.logger.Info().Str("path", path).Msg("Old backup removed")
	}
	return nil
}
