package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/common"
)

// SystemHandler serves version, health and the API 404.
type SystemHandler struct {
	logger arbor.ILogger
}

// NewSystemHandler creates a system handler.
func NewSystemHandler(logger arbor.ILogger) *SystemHandler {
	return &SystemHandler{logger: logger}
}

// VersionHandler handles GET /api/version
func (h *SystemHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetFullVersion(),
	})
}

// HealthHandler handles GET /api/health
func (h *SystemHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NotFoundHandler catches unmatched /api/ routes.
func (h *SystemHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, "Not found")
}
