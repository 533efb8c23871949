package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/solicita/internal/common"
	"github.com/ternarybob/solicita/internal/interfaces"
	"github.com/ternarybob/solicita/internal/models"
	"github.com/ternarybob/solicita/internal/services/humanloop"
	badgerstore "github.com/ternarybob/solicita/internal/storage/badger"
)

type fakeHumanLoop struct {
	authorizeErr error
	rejectErr    error
	authorized   []string
	rejected     []string
}

func (f *fakeHumanLoop) BeginReview(ctx context.Context, applicationID string, page interfaces.Page) error {
	return nil
}

func (f *fakeHumanLoop) Authorize(ctx context.Context, applicationID string) error {
	if f.authorizeErr != nil {
		return f.authorizeErr
	}
	f.authorized = append(f.authorized, applicationID)
	return nil
}

func (f *fakeHumanLoop) Reject(ctx context.Context, applicationID string, reason string) error {
	if f.rejectErr != nil {
		return f.rejectErr
	}
	f.rejected = append(f.rejected, applicationID)
	return nil
}

func newTestStorage(t *testing.T) interfaces.StorageManager {
	t.Helper()
	mgr, err := badgerstore.NewManager(common.GetLogger(), badgerstore.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

func seedPosting(t *testing.T, mgr interfaces.StorageManager) *models.Posting {
	t.Helper()
	posting := &models.Posting{
		ID:         common.NewPostingID(),
		SourceID:   "greenhouse",
		ExternalID: common.NewEventID(),
		Title:      "Backend Developer",
		Company:    "Acme",
		URL:        "https://boards.greenhouse.io/acme/jobs/1",
		Status:     models.PostingStatusScraped,
		ScrapedAt:  time.Now().UTC(),
	}
	_, err := mgr.Postings().Upsert(context.Background(), posting)
	require.NoError(t, err)
	return posting
}

func seedApplication(t *testing.T, mgr interfaces.StorageManager, postingID string, status models.ApplicationStatus) *models.Application {
	t.Helper()
	now := time.Now().UTC()
	app := &models.Application{
		ID:        common.NewApplicationID(),
		PostingID: postingID,
		Status:    status,
		Profile:   "fullstack_dev",
		Company:   "Acme",
		CreatedAt: now,
		UpdatedAt: now,
	}
	event := &models.ApplicationEvent{
		ID:            common.NewEventID(),
		ApplicationID: app.ID,
		NewStatus:     status,
		TriggeredBy:   models.ActorSystem,
		CreatedAt:     now,
	}
	require.NoError(t, mgr.Applications().Create(context.Background(), app, event))
	return app
}

func markSetupComplete(t *testing.T, mgr interfaces.StorageManager) {
	t.Helper()
	require.NoError(t, mgr.Settings().Set(context.Background(), SettingSetupComplete, "true"))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestListPostings(t *testing.T) {
	mgr := newTestStorage(t)
	seedPosting(t, mgr)
	seedPosting(t, mgr)
	h := NewPostingHandler(mgr, common.GetLogger())

	rec := httptest.NewRecorder()
	h.ListHandler(rec, httptest.NewRequest(http.MethodGet, "/api/postings", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(2), body["count"])
}

func TestListPostingsFiltersByStatus(t *testing.T) {
	mgr := newTestStorage(t)
	posting := seedPosting(t, mgr)
	require.NoError(t, mgr.Postings().UpdateStatus(context.Background(), posting.ID, models.PostingStatusSkipped))
	seedPosting(t, mgr)
	h := NewPostingHandler(mgr, common.GetLogger())

	rec := httptest.NewRecorder()
	h.ListHandler(rec, httptest.NewRequest(http.MethodGet, "/api/postings?status=skipped", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decodeBody(t, rec)["count"])
}

func TestGetPostingNotFound(t *testing.T) {
	mgr := newTestStorage(t)
	h := NewPostingHandler(mgr, common.GetLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/postings/missing", nil)
	h.GetHandler(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetApplicationWithEvents(t *testing.T) {
	mgr := newTestStorage(t)
	posting := seedPosting(t, mgr)
	app := seedApplication(t, mgr, posting.ID, models.StatusQualified)
	h := NewApplicationHandler(mgr, nil, nil, &fakeHumanLoop{}, common.GetLogger())

	rec := httptest.NewRecorder()
	h.GetHandler(rec, httptest.NewRequest(http.MethodGet, "/api/applications/"+app.ID, nil), app.ID)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	events, ok := body["events"].([]any)
	require.True(t, ok)
	assert.Len(t, events, 1)
}

func TestAuthorizeRequiresSetup(t *testing.T) {
	mgr := newTestStorage(t)
	hl := &fakeHumanLoop{}
	h := NewApplicationHandler(mgr, nil, nil, hl, common.GetLogger())

	rec := httptest.NewRecorder()
	h.AuthorizeHandler(rec, httptest.NewRequest(http.MethodPost, "/api/applications/app_1/authorize", nil), "app_1")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, hl.authorized)
}

func TestAuthorizeStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not pending review", fmt.Errorf("wrapped: %w", humanloop.ErrNotPendingReview), http.StatusConflict},
		{"window expired", humanloop.ErrReviewExpired, http.StatusGone},
		{"success", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr := newTestStorage(t)
			markSetupComplete(t, mgr)
			hl := &fakeHumanLoop{authorizeErr: tt.err}
			h := NewApplicationHandler(mgr, nil, nil, hl, common.GetLogger())

			rec := httptest.NewRecorder()
			h.AuthorizeHandler(rec, httptest.NewRequest(http.MethodPost, "/api/applications/app_1/authorize", nil), "app_1")

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRejectPassesReason(t *testing.T) {
	mgr := newTestStorage(t)
	hl := &fakeHumanLoop{}
	h := NewApplicationHandler(mgr, nil, nil, hl, common.GetLogger())

	body := strings.NewReader(`{"reason": "wrong stack"}`)
	rec := httptest.NewRecorder()
	h.RejectHandler(rec, httptest.NewRequest(http.MethodPost, "/api/applications/app_1/reject", body), "app_1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"app_1"}, hl.rejected)
}

func TestSettingsRoundTrip(t *testing.T) {
	mgr := newTestStorage(t)
	h := NewSettingsHandler(mgr.Settings(), common.GetLogger())

	put := httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(`{"cv_source_fullstack_dev": "src_1"}`))
	rec := httptest.NewRecorder()
	h.SettingsHandler(rec, put)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.SettingsHandler(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "src_1", decodeBody(t, rec)["cv_source_fullstack_dev"])
}

func TestSettingsRejectsEmptyBody(t *testing.T) {
	mgr := newTestStorage(t)
	h := NewSettingsHandler(mgr.Settings(), common.GetLogger())

	rec := httptest.NewRecorder()
	h.SettingsHandler(rec, httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetupFlow(t *testing.T) {
	mgr := newTestStorage(t)
	h := NewSetupHandler(mgr.Settings(), common.GetLogger())

	rec := httptest.NewRecorder()
	h.StatusHandler(rec, httptest.NewRequest(http.MethodGet, "/api/setup/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["setup_complete"])

	rec = httptest.NewRecorder()
	h.CompleteHandler(rec, httptest.NewRequest(http.MethodPost, "/api/setup/complete", strings.NewReader(`{"tos_accepted": false}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.CompleteHandler(rec, httptest.NewRequest(http.MethodPost, "/api/setup/complete", strings.NewReader(`{"tos_accepted": true}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.StatusHandler(rec, httptest.NewRequest(http.MethodGet, "/api/setup/status", nil))
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["setup_complete"])
	assert.NotEmpty(t, body["tos_accepted_at"])
}

func TestGetListParams(t *testing.T) {
	limit, offset := GetListParams(httptest.NewRequest(http.MethodGet, "/api/postings?limit=25&offset=50", nil))
	assert.Equal(t, 25, limit)
	assert.Equal(t, 50, offset)

	limit, offset = GetListParams(httptest.NewRequest(http.MethodGet, "/api/postings?limit=9999&offset=-1", nil))
	assert.Equal(t, 50, limit)
	assert.Equal(t, 0, offset)
}
