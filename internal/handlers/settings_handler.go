package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/interfaces"
)

// SettingsHandler serves the KV settings table.
type SettingsHandler struct {
	settings interfaces.SettingsStorage
	logger   arbor.ILogger
}

// NewSettingsHandler creates a settings handler.
func NewSettingsHandler(settings interfaces.SettingsStorage, logger arbor.ILogger) *SettingsHandler {
	return &SettingsHandler{settings: settings, logger: logger}
}

// SettingsHandler handles GET and PUT on /api/settings. PUT takes a flat
// string map and writes each key, last-writer-wins.
func (h *SettingsHandler) SettingsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		values, err := h.settings.List(r.Context())
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to list settings")
			WriteError(w, http.StatusInternalServerError, "Failed to list settings")
			return
		}
		WriteJSON(w, http.StatusOK, values)

	case http.MethodPut:
		var values map[string]string
		if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if len(values) == 0 {
			WriteError(w, http.StatusBadRequest, "No settings provided")
			return
		}
		for key, value := range values {
			if key == "" {
				WriteError(w, http.StatusBadRequest, "Empty setting key")
				return
			}
			if err := h.settings.Set(r.Context(), key, value); err != nil {
				h.logger.Error().Err(err).Str("key", key).Msg("Failed to save setting")
				WriteError(w, http.StatusInternalServerError, "Failed to save settings")
				return
			}
		}
		h.logger.Info().Int("count", len(values)).Msg("Settings updated")
		WriteSuccess(w, "Settings saved")

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
