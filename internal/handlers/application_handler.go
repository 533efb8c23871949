package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/common"
	"github.com/ternarybob/solicita/internal/interfaces"
	"github.com/ternarybob/solicita/internal/models"
	"github.com/ternarybob/solicita/internal/services/humanloop"
)

// ApplicationHandler serves application state and the review decisions.
// Authorize is the only path that leads to a real submission, so it is
// gated behind the first-run setup flag.
type ApplicationHandler struct {
	storage   interfaces.StorageManager
	lifecycle interfaces.LifecycleService
	documents interfaces.DocumentService
	humanLoop interfaces.HumanLoopService
	logger    arbor.ILogger
}

// NewApplicationHandler creates an application handler.
func NewApplicationHandler(storage interfaces.StorageManager, lifecycle interfaces.LifecycleService, documents interfaces.DocumentService, humanLoop interfaces.HumanLoopService, logger arbor.ILogger) *ApplicationHandler {
	return &ApplicationHandler{storage: storage, lifecycle: lifecycle, documents: documents, humanLoop: humanLoop, logger: logger}
}

// CreateHandler handles POST /api/applications, creating an application for
// a stored posting after the policy checks.
func (h *ApplicationHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PostingID string `json:"posting_id"`
		Profile   string `json:"profile"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PostingID == "" || req.Profile == "" {
		WriteError(w, http.StatusBadRequest, "posting_id and profile are required")
		return
	}

	posting, err := h.storage.Postings().GetByID(r.Context(), req.PostingID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Posting not found")
		return
	}

	app, err := h.lifecycle.CreateApplication(r.Context(), posting, req.Profile)
	if err != nil {
		switch {
		case errors.Is(err, interfaces.ErrBlocklisted):
			WriteError(w, http.StatusConflict, "Company is blocklisted")
		case errors.Is(err, interfaces.ErrRateLimited):
			WriteError(w, http.StatusConflict, "Company application rate limit reached")
		default:
			h.logger.Error().Err(err).Str("posting_id", req.PostingID).Msg("Failed to create application")
			WriteError(w, http.StatusInternalServerError, "Failed to create application")
		}
		return
	}

	WriteJSON(w, http.StatusCreated, app)
}

// GenerateCVHandler handles POST /api/applications/{id}/generate-cv, kicking
// off the adaptation pipeline in the background. Progress is reported on the
// event stream.
func (h *ApplicationHandler) GenerateCVHandler(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if _, err := h.storage.Applications().GetByID(r.Context(), id); err != nil {
		WriteError(w, http.StatusNotFound, "Application not found")
		return
	}

	common.SafeGo(h.logger, "generate_cv", func() {
		if err := h.documents.GenerateCV(context.Background(), id); err != nil {
			h.logger.Error().Err(err).Str("application_id", id).Msg("CV generation failed")
		}
	})

	WriteStarted(w, "CV generation started")
}

// ListHandler handles GET /api/applications?status=&limit=&offset=
func (h *ApplicationHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit, offset := GetListParams(r)
	status := models.ApplicationStatus(r.URL.Query().Get("status"))

	apps, err := h.storage.Applications().List(r.Context(), status, limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list applications")
		WriteError(w, http.StatusInternalServerError, "Failed to list applications")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"applications": apps,
		"count":        len(apps),
		"limit":        limit,
		"offset":       offset,
	})
}

// GetHandler handles GET /api/applications/{id}, returning the application
// with its full audit trail.
func (h *ApplicationHandler) GetHandler(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	app, err := h.storage.Applications().GetByID(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Application not found")
		return
	}
	events, err := h.storage.Applications().ListEvents(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Str("application_id", id).Msg("Failed to load application events")
		WriteError(w, http.StatusInternalServerError, "Failed to load application events")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"application": app,
		"events":      events,
	})
}

// AuthorizeHandler handles POST /api/applications/{id}/authorize
func (h *ApplicationHandler) AuthorizeHandler(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if !SetupComplete(r.Context(), h.storage.Settings()) {
		WriteError(w, http.StatusForbidden, "Setup is not complete; finish first-run setup before authorizing submissions")
		return
	}

	if err := h.humanLoop.Authorize(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, humanloop.ErrNotPendingReview):
			WriteError(w, http.StatusConflict, "Application is not pending human review")
		case errors.Is(err, humanloop.ErrReviewExpired):
			WriteError(w, http.StatusGone, "Review window has expired")
		default:
			h.logger.Error().Err(err).Str("application_id", id).Msg("Authorization failed")
			WriteError(w, http.StatusInternalServerError, "Authorization failed")
		}
		return
	}

	h.logger.Info().Str("application_id", id).Msg("Application authorized for submission")
	WriteStarted(w, "Submission scheduled")
}

// RejectHandler handles POST /api/applications/{id}/reject
func (h *ApplicationHandler) RejectHandler(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		// A missing body rejects with no reason recorded.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	req.Reason = strings.TrimSpace(req.Reason)

	if err := h.humanLoop.Reject(r.Context(), id, req.Reason); err != nil {
		if errors.Is(err, humanloop.ErrNotPendingReview) {
			WriteError(w, http.StatusConflict, "Application is not pending human review")
			return
		}
		h.logger.Error().Err(err).Str("application_id", id).Msg("Rejection failed")
		WriteError(w, http.StatusInternalServerError, "Rejection failed")
		return
	}

	h.logger.Info().Str("application_id", id).Str("reason", req.Reason).Msg("Application rejected")
	WriteSuccess(w, "Application withdrawn")
}
