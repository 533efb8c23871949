package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/interfaces"
)

// Settings keys for the first-run gate. Mutating endpoints refuse to act
// until setup is complete and the terms have an acceptance timestamp.
const (
	SettingSetupComplete = "setup_complete"
	SettingTOSAcceptedAt = "tos_accepted_at"
)

// SetupComplete reports whether the first-run flow has been finished.
// A missing key reads as incomplete.
func SetupComplete(ctx context.Context, settings interfaces.SettingsStorage) bool {
	value, err := settings.Get(ctx, SettingSetupComplete)
	if err != nil {
		return false
	}
	return value == "true"
}

// SetupHandler serves the first-run status and completion endpoints.
type SetupHandler struct {
	settings interfaces.SettingsStorage
	logger   arbor.ILogger
}

// NewSetupHandler creates a setup handler.
func NewSetupHandler(settings interfaces.SettingsStorage, logger arbor.ILogger) *SetupHandler {
	return &SetupHandler{settings: settings, logger: logger}
}

// StatusHandler handles GET /api/setup/status
func (h *SetupHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	acceptedAt, _ := h.settings.Get(r.Context(), SettingTOSAcceptedAt)
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"setup_complete":  SetupComplete(r.Context(), h.settings),
		"tos_accepted_at": acceptedAt,
	})
}

// CompleteHandler handles POST /api/setup/complete
func (h *SetupHandler) CompleteHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		TOSAccepted bool `json:"tos_accepted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.TOSAccepted {
		WriteError(w, http.StatusBadRequest, "Terms of service must be accepted to complete setup")
		return
	}

	acceptedAt := time.Now().UTC().Format(time.RFC3339)
	if err := h.settings.Set(r.Context(), SettingTOSAcceptedAt, acceptedAt); err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to save setup state")
		return
	}
	if err := h.settings.Set(r.Context(), SettingSetupComplete, "true"); err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to save setup state")
		return
	}

	h.logger.Info().Str("tos_accepted_at", acceptedAt).Msg("First-run setup completed")
	WriteSuccess(w, "Setup complete")
}
