package server

import (
	"net/http"
	"strings"

	"github.com/ternarybob/solicita/internal/handlers"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket event stream
	mux.HandleFunc("/ws", s.app.EventsHandler.HandleWebSocket)

	// API routes - Postings
	mux.HandleFunc("/api/postings", s.app.PostingHandler.ListHandler) // GET (list)
	mux.HandleFunc("/api/postings/", s.app.PostingHandler.GetHandler) // GET /{id}

	// API routes - Applications
	mux.HandleFunc("/api/applications", s.handleApplicationsRoot) // GET (list), POST (create)
	mux.HandleFunc("/api/applications/", s.handleApplicationRoutes)

	// API routes - Scraper
	mux.HandleFunc("/api/scraper/trigger/", s.app.ScraperHandler.TriggerHandler) // POST /{site}
	mux.HandleFunc("/api/scraper/status", s.app.ScraperHandler.StatusHandler)    // GET

	// API routes - Settings and first-run setup
	mux.HandleFunc("/api/settings", s.app.SettingsHandler.SettingsHandler) // GET, PUT
	mux.HandleFunc("/api/setup/status", s.app.SetupHandler.StatusHandler)
	mux.HandleFunc("/api/setup/complete", s.app.SetupHandler.CompleteHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.SystemHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.SystemHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.SystemHandler.NotFoundHandler)

	return mux
}

// handleApplicationsRoot dispatches the collection endpoint by method.
func (s *Server) handleApplicationsRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.app.ApplicationHandler.ListHandler(w, r)
	case http.MethodPost:
		s.app.ApplicationHandler.CreateHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleApplicationRoutes routes /api/applications/{id} and its subpaths.
func (s *Server) handleApplicationRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/applications/")
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		s.app.ApplicationHandler.GetHandler(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "authorize":
		s.app.ApplicationHandler.AuthorizeHandler(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "reject":
		s.app.ApplicationHandler.RejectHandler(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "generate-cv":
		s.app.ApplicationHandler.GenerateCVHandler(w, r, parts[0])
	default:
		handlers.WriteError(w, http.StatusNotFound, "Not found")
	}
}
