package maintenance

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/solicita/internal/common"
	"github.com/ternarybob/solicita/internal/interfaces"
	"github.com/ternarybob/solicita/internal/models"
	badgerstore "github.com/ternarybob/solicita/internal/storage/badger"
)

func newTestEnv(t *testing.T) (*common.Config, interfaces.StorageManager) {
	t.Helper()
	cfg := common.DefaultConfig()
	cfg.Storage.DataDir = t.TempDir()
	require.NoError(t, cfg.EnsureDirectories())

	mgr, err := badgerstore.NewManager(common.GetLogger(), badgerstore.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })
	return cfg, mgr
}

func seedPosting(t *testing.T, mgr interfaces.StorageManager, scrapedAt time.Time) *models.Posting {
	t.Helper()
	posting := &models.Posting{
		ID:         common.NewPostingID(),
		SourceID:   "greenhouse",
		ExternalID: common.NewEventID(),
		Title:      "Backend Developer",
		Company:    "Acme",
		Status:     models.PostingStatusScraped,
		ScrapedAt:  scrapedAt,
	}
	_, err := mgr.Postings().Upsert(context.Background(), posting)
	require.NoError(t, err)
	return posting
}

func seedApplication(t *testing.T, mgr interfaces.StorageManager, postingID string, status models.ApplicationStatus, updatedAt time.Time) *models.Application {
	t.Helper()
	app := &models.Application{
		ID:        common.NewApplicationID(),
		PostingID: postingID,
		Status:    status,
		Profile:   "fullstack_dev",
		Company:   "Acme",
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
	}
	event := &models.ApplicationEvent{
		ID:            common.NewEventID(),
		ApplicationID: app.ID,
		NewStatus:     status,
		TriggeredBy:   models.ActorSystem,
		CreatedAt:     updatedAt,
	}
	require.NoError(t, mgr.Applications().Create(context.Background(), app, event))
	return app
}

func TestBackupWritesDatedFile(t *testing.T) {
	cfg, mgr := newTestEnv(t)
	seedPosting(t, mgr, time.Now().UTC())

	svc := NewBackupService(cfg, mgr, common.GetLogger())
	require.NoError(t, svc.Run(context.Background()))

	name := "jobs-" + time.Now().UTC().Format("2006-01-02") + ".db"
	info, err := os.Stat(filepath.Join(cfg.BackupsDir(), name))
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestBackupPrunesBeyondRollingWindow(t *testing.T) {
	cfg, mgr := newTestEnv(t)
	cfg.Retention.BackupsRollingDays = 2
	seedPosting(t, mgr, time.Now().UTC())

	stale := []string{"jobs-2024-01-01.db", "jobs-2024-01-02.db", "jobs-2024-01-03.db"}
	for _, name := range stale {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.BackupsDir(), name), []byte("old"), 0o644))
	}
	// Unrelated files are left alone.
	require.NoError(t, os.WriteFile(filepath.Join(cfg.BackupsDir(), "notes.txt"), []byte("keep"), 0o644))

	svc := NewBackupService(cfg, mgr, common.GetLogger())
	require.NoError(t, svc.Run(context.Background()))

	entries, err := os.ReadDir(cfg.BackupsDir())
	require.NoError(t, err)

	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	today := "jobs-" + time.Now().UTC().Format("2006-01-02") + ".db"
	assert.Contains(t, names, today)
	assert.Contains(t, names, "jobs-2024-01-03.db")
	assert.Contains(t, names, "notes.txt")
	assert.NotContains(t, names, "jobs-2024-01-01.db")
	assert.NotContains(t, names, "jobs-2024-01-02.db")
}

func TestRetentionSweepsStaleData(t *testing.T) {
	cfg, mgr := newTestEnv(t)
	ctx := context.Background()
	old := time.Now().UTC().AddDate(0, 0, -400)

	// Stale and unreferenced: swept.
	stalePosting := seedPosting(t, mgr, old)
	// Stale but referenced by an application: kept.
	referencedPosting := seedPosting(t, mgr, old)
	seedApplication(t, mgr, referencedPosting.ID, models.StatusApplied, time.Now().UTC())
	// Fresh: kept.
	freshPosting := seedPosting(t, mgr, time.Now().UTC())

	// Terminal and past the window: swept with its events.
	staleApp := seedApplication(t, mgr, referencedPosting.ID, models.StatusWithdrawn, old)

	svc := NewRetentionService(cfg, mgr, common.GetLogger())
	require.NoError(t, svc.Run(ctx))

	_, err := mgr.Postings().GetByID(ctx, stalePosting.ID)
	assert.Error(t, err)
	_, err = mgr.Postings().GetByID(ctx, referencedPosting.ID)
	assert.NoError(t, err)
	_, err = mgr.Postings().GetByID(ctx, freshPosting.ID)
	assert.NoError(t, err)

	_, err = mgr.Applications().GetByID(ctx, staleApp.ID)
	assert.Error(t, err)
	events, err := mgr.Applications().ListEvents(ctx, staleApp.ID)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRetentionKeepsNonTerminalApplications(t *testing.T) {
	cfg, mgr := newTestEnv(t)
	ctx := context.Background()
	old := time.Now().UTC().AddDate(0, 0, -400)

	posting := seedPosting(t, mgr, time.Now().UTC())
	app := seedApplication(t, mgr, posting.ID, models.StatusPendingHumanReview, old)

	svc := NewRetentionService(cfg, mgr, common.GetLogger())
	require.NoError(t, svc.Run(ctx))

	stored, err := mgr.Applications().GetByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingHumanReview, stored.Status)
}

func TestRetentionSweepsOldLogs(t *testing.T) {
	cfg, mgr := newTestEnv(t)

	oldLog := filepath.Join(cfg.LogsDir(), "solicita-2024-01-01.log")
	require.NoError(t, os.WriteFile(oldLog, []byte("old"), 0o644))
	past := time.Now().UTC().AddDate(0, 0, -60)
	require.NoError(t, os.Chtimes(oldLog, past, past))

	freshLog := filepath.Join(cfg.LogsDir(), "solicita-today.log")
	require.NoError(t, os.WriteFile(freshLog, []byte("fresh"), 0o644))

	svc := NewRetentionService(cfg, mgr, common.GetLogger())
	require.NoError(t, svc.Run(context.Background()))

	_, err := os.Stat(oldLog)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(freshLog)
	assert.NoError(t, err)
}
