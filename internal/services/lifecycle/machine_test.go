package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/solicita/internal/common"
	"github.com/ternarybob/solicita/internal/interfaces"
	"github.com/ternarybob/solicita/internal/models"
	"github.com/ternarybob/solicita/internal/services/events"
	badgerstore "github.com/ternarybob/solicita/internal/storage/badger"
)

func newTestService(t *testing.T) (*Service, interfaces.StorageManager) {
	t.Helper()
	logger := common.GetLogger()
	mgr, err := badgerstore.NewManager(logger, badgerstore.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })
	return NewService(mgr, events.NewService(logger), logger), mgr
}

func seedPosting(t *testing.T, mgr interfaces.StorageManager, company string) *models.Posting {
	t.Helper()
	posting := &models.Posting{
		ID:         common.NewPostingID(),
		SourceID:   "greenhouse",
		ExternalID: common.NewEventID(),
		Title:      "Backend Developer",
		Company:    company,
		Status:     models.PostingStatusScraped,
		ScrapedAt:  time.Now().UTC(),
	}
	_, err := mgr.Postings().Upsert(context.Background(), posting)
	require.NoError(t, err)
	return posting
}

func TestCreateApplicationWritesInitialEvent(t *testing.T) {
	svc, mgr := newTestService(t)
	ctx := context.Background()

	posting := seedPosting(t, mgr, "Acme")
	app, err := svc.CreateApplication(ctx, posting, "frontend")
	require.NoError(t, err)
	assert.Equal(t, models.StatusQualified, app.Status)

	eventsList, err := mgr.Applications().ListEvents(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, eventsList, 1)
	assert.Equal(t, models.StatusQualified, eventsList[0].NewStatus)
	assert.Empty(t, eventsList[0].OldStatus)

	stored, err := mgr.Postings().GetByID(ctx, posting.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostingStatusQualified, stored.Status)
}

func TestTransitionLegality(t *testing.T) {
	svc, mgr := newTestService(t)
	ctx := context.Background()

	app, err := svc.CreateApplication(ctx, seedPosting(t, mgr, "Acme"), "frontend")
	require.NoError(t, err)

	// Legal forward step.
	app, err = svc.Transition(ctx, app.ID, models.StatusCVGenerating, models.ActorSystem, "", nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCVGenerating, app.Status)

	// Illegal jump refuses and appends no event.
	_, err = svc.Transition(ctx, app.ID, models.StatusApplied, models.ActorSystem, "", nil)
	assert.ErrorIs(t, err, interfaces.ErrIllegalTransition)

	eventsList, err := mgr.Applications().ListEvents(ctx, app.ID)
	require.NoError(t, err)
	assert.Len(t, eventsList, 2)
}

func TestEveryTransitionHasExactlyOneEvent(t *testing.T) {
	svc, mgr := newTestService(t)
	ctx := context.Background()

	app, err := svc.CreateApplication(ctx, seedPosting(t, mgr, "Acme"), "frontend")
	require.NoError(t, err)

	steps := []models.ApplicationStatus{
		models.StatusCVGenerating,
		models.StatusCVReady,
		models.StatusCVApproved,
		models.StatusApplicationStarted,
		models.StatusFormFilled,
		models.StatusPendingHumanReview,
	}
	for _, next := range steps {
		app, err = svc.Transition(ctx, app.ID, next, models.ActorSystem, "", nil)
		require.NoError(t, err)
	}

	eventsList, err := mgr.Applications().ListEvents(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, eventsList, len(steps)+1)
	for i, next := range steps {
		evt := eventsList[i+1]
		assert.Equal(t, next, evt.NewStatus)
		assert.Equal(t, eventsList[i].NewStatus, evt.OldStatus)
		assert.False(t, evt.CreatedAt.After(app.UpdatedAt))
	}
}

func TestTerminalStatesRefuseFurtherTransitions(t *testing.T) {
	svc, mgr := newTestService(t)
	ctx := context.Background()

	app, err := svc.CreateApplication(ctx, seedPosting(t, mgr, "Acme"), "frontend")
	require.NoError(t, err)

	_, err = svc.Transition(ctx, app.ID, models.StatusWithdrawn, models.ActorHuman, "not interested", nil)
	require.NoError(t, err)

	_, err = svc.Transition(ctx, app.ID, models.StatusCVGenerating, models.ActorSystem, "", nil)
	assert.ErrorIs(t, err, interfaces.ErrIllegalTransition)
}

func TestBlocklistRejectsCreation(t *testing.T) {
	svc, mgr := newTestService(t)
	ctx := context.Background()

	require.NoError(t, mgr.Policies().AddBlocklist(ctx, &models.CompanyBlocklistEntry{
		Company: "Evil Corp",
		Reason:  "never replies",
	}))

	_, err := svc.CreateApplication(ctx, seedPosting(t, mgr, "EVIL corp"), "frontend")
	assert.ErrorIs(t, err, interfaces.ErrBlocklisted)
}

func TestCompanyRateLimitWindow(t *testing.T) {
	svc, mgr := newTestService(t)
	ctx := context.Background()

	// Default rule is (2, 14): two applications pass, the third is rejected.
	_, err := svc.CreateApplication(ctx, seedPosting(t, mgr, "Acme"), "frontend")
	require.NoError(t, err)
	_, err = svc.CreateApplication(ctx, seedPosting(t, mgr, "acme"), "frontend")
	require.NoError(t, err)
	_, err = svc.CreateApplication(ctx, seedPosting(t, mgr, "ACME"), "frontend")
	assert.ErrorIs(t, err, interfaces.ErrRateLimited)
}

func TestCompanyRateLimitExcludesTerminalRejections(t *testing.T) {
	svc, mgr := newTestService(t)
	ctx := context.Background()

	app, err := svc.CreateApplication(ctx, seedPosting(t, mgr, "Acme"), "frontend")
	require.NoError(t, err)
	_, err = svc.Transition(ctx, app.ID, models.StatusRejected, models.ActorHuman, "", nil)
	require.NoError(t, err)

	_, err = svc.CreateApplication(ctx, seedPosting(t, mgr, "Acme"), "frontend")
	require.NoError(t, err)
	_, err = svc.CreateApplication(ctx, seedPosting(t, mgr, "Acme"), "frontend")
	require.NoError(t, err)
}
