package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/interfaces"
	"github.com/ternarybob/solicita/internal/models"
)

// PostingHandler serves the scraped posting projections.
type PostingHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

// NewPostingHandler creates a posting handler.
func NewPostingHandler(storage interfaces.StorageManager, logger arbor.ILogger) *PostingHandler {
	return &PostingHandler{storage: storage, logger: logger}
}

// ListHandler handles GET /api/postings?status=&limit=&offset=
func (h *PostingHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit, offset := GetListParams(r)
	status := models.PostingStatus(r.URL.Query().Get("status"))

	postings, err := h.storage.Postings().List(r.Context(), status, limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list postings")
		WriteError(w, http.StatusInternalServerError, "Failed to list postings")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"postings": postings,
		"count":    len(postings),
		"limit":    limit,
		"offset":   offset,
	})
}

// GetHandler handles GET /api/postings/{id}
func (h *PostingHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/postings/")
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, http.StatusBadRequest, "Invalid posting ID")
		return
	}

	posting, err := h.storage.Postings().GetByID(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Posting not found")
		return
	}

	WriteJSON(w, http.StatusOK, posting)
}
