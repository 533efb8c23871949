package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/interfaces"
	"github.com/ternarybob/solicita/internal/services/scheduler"
)

// CookieChecker reports per-site session cookie freshness.
type CookieChecker interface {
	Sites() []string
	CookiesFresh(ctx context.Context, site string) (bool, error)
}

// ScraperHandler triggers scraper jobs and reports their status. Triggering
// is gated behind first-run setup the same way authorization is.
type ScraperHandler struct {
	scheduler *scheduler.Service
	cookies   CookieChecker
	settings  interfaces.SettingsStorage
	logger    arbor.ILogger
}

// NewScraperHandler creates a scraper handler.
func NewScraperHandler(sched *scheduler.Service, cookies CookieChecker, settings interfaces.SettingsStorage, logger arbor.ILogger) *ScraperHandler {
	return &ScraperHandler{scheduler: sched, cookies: cookies, settings: settings, logger: logger}
}

// TriggerHandler handles POST /api/scraper/trigger/{site}
func (h *ScraperHandler) TriggerHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if !SetupComplete(r.Context(), h.settings) {
		WriteError(w, http.StatusForbidden, "Setup is not complete; finish first-run setup before triggering scrapers")
		return
	}

	site := strings.TrimPrefix(r.URL.Path, "/api/scraper/trigger/")
	if site == "" || strings.Contains(site, "/") {
		WriteError(w, http.StatusBadRequest, "Invalid site")
		return
	}

	if err := h.scheduler.TriggerJob("scraper_" + site); err != nil {
		WriteError(w, http.StatusConflict, err.Error())
		return
	}

	h.logger.Info().Str("site", site).Msg("Scraper run triggered")
	WriteStarted(w, "Scraper run started for "+site)
}

// StatusHandler handles GET /api/scraper/status, returning every scraper job
// with its schedule state plus the per-site cookie freshness.
func (h *ScraperHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	var jobs []*scheduler.JobStatus
	for _, status := range h.scheduler.GetAllJobStatuses() {
		if strings.HasPrefix(status.Name, "scraper_") {
			jobs = append(jobs, status)
		}
	}

	cookies := make(map[string]bool)
	for _, site := range h.cookies.Sites() {
		fresh, err := h.cookies.CookiesFresh(r.Context(), site)
		if err != nil {
			h.logger.Warn().Err(err).Str("site", site).Msg("Failed to check cookie freshness")
			continue
		}
		cookies[site] = fresh
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":    jobs,
		"cookies": cookies,
	})
}
