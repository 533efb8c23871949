package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/solicita/internal/httpclient"
	"github.com/ternarybob/solicita/internal/interfaces"
	"github.com/ternarybob/solicita/internal/models"
)

// spainKeywords accept a location as Spain-based or remote-friendly.
var spainKeywords = []string{
	"spain", "españa", "madrid", "barcelona", "remote", "remoto",
	"híbrido", "hibrido", "valencia", "sevilla", "bilbao", "zaragoza",
}

// greenhouseDefaultBoards maps built-in board slugs to their default CV
// profile. Catalogue entries extend or override this set.
var greenhouseDefaultBoards = map[string]string{
	"cabify":       "fullstack_dev",
	"glovo":        "fullstack_dev",
	"wallapop":     "fullstack_dev",
	"travelperk":   "frontend_dev",
	"typeform":     "frontend_dev",
	"factorial":    "fullstack_dev",
	"paack":        "fullstack_dev",
	"jobandtalent": "fullstack_dev",
	"letgo":        "fullstack_dev",
	"habitissimo":  "fullstack_dev",
}

var greenhouseCompanyNames = map[string]string{
	"cabify":       "Cabify",
	"glovo":        "Glovo",
	"wallapop":     "Wallapop",
	"travelperk":   "TravelPerk",
	"typeform":     "Typeform",
	"factorial":    "Factorial",
	"paack":        "Paack",
	"jobandtalent": "Job&Talent",
	"letgo":        "Letgo",
	"habitissimo":  "Habitissimo",
}

// GreenhouseAdapter reads the public boards-api JSON of Greenhouse tenants.
// No browser needed.
type GreenhouseAdapter struct {
	runtime *Runtime
	client  *http.Client
}

// NewGreenhouseAdapter creates the adapter.
func NewGreenhouseAdapter(runtime *Runtime) *GreenhouseAdapter {
	return &GreenhouseAdapter{
		runtime: runtime,
		client:  httpclient.New(30 * time.Second),
	}
}

func (a *GreenhouseAdapter) Site() string { return "greenhouse" }

type greenhouseJobsResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

type greenhouseJob struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	AbsoluteURL string `json:"absolute_url"`
	Content     string `json:"content"`
	UpdatedAt   string `json:"updated_at"`
	Location    struct {
		Name string `json:"name"`
	} `json:"location"`
}

// Scrape walks every board slug, filters for Spain-or-remote locations and
// normalises the listings.
func (a *GreenhouseAdapter) Scrape(ctx context.Context, session interfaces.ScrapeSession) ([]*models.Posting, error) {
	boards := make(map[string]string, len(greenhouseDefaultBoards))
	for slug, profile := range greenhouseDefaultBoards {
		boards[slug] = profile
	}
	entries, err := a.runtime.storage.Catalogue().ListEnabled(ctx, models.AdapterGreenhouse)
	if err != nil {
		a.runtime.logger.Warn().Err(err).Msg("Failed to load greenhouse catalogue entries")
	}
	for _, entry := range entries {
		slug := catalogueSlug(entry, "")
		boards[slug] = entry.Profile
	}

	var postings []*models.Posting
	seen := make(map[string]bool)
	for slug, profile := range boards {
		url := fmt.Sprintf("https://boards-api.greenhouse.io/v1/boards/%s/jobs?content=true", slug)

		var resp greenhouseJobsResponse
		err := httpclient.GetJSON(ctx, a.client, url, &resp)
		if errors.Is(err, httpclient.ErrNotFound) {
			// Missing tenant is an empty result, not a failure.
			a.runtime.logger.Debug().Str("slug", slug).Msg("Greenhouse board not found")
			continue
		}
		if err != nil {
			a.runtime.logger.Warn().Err(err).Str("slug", slug).Msg("Greenhouse fetch failed")
			continue
		}

		session.ReportStructure(fmt.Sprintf("board:%s jobs:%d", slug, len(resp.Jobs)))

		for _, job := range resp.Jobs {
			if !isSpainOrRemote(job.Location.Name) {
				continue
			}
			externalID := fmt.Sprintf("%s_%d", slug, job.ID)
			if seen[externalID] {
				continue
			}
			seen[externalID] = true

			location := job.Location.Name
			if location == "" {
				location = "España"
			}
			jobURL := job.AbsoluteURL
			if jobURL == "" {
				jobURL = fmt.Sprintf("https://boards.greenhouse.io/%s/jobs/%d", slug, job.ID)
			}

			postings = append(postings, &models.Posting{
				SourceID:    a.Site(),
				ExternalID:  externalID,
				URL:         jobURL,
				Title:       job.Title,
				Company:     boardCompanyName(slug),
				Location:    location,
				Description: job.Content,
				Profile:     refineProfile(job.Title, profile),
				RawData: models.NewStructuredPayload(map[string]any{
					"board":      slug,
					"gh_id":      job.ID,
					"updated_at": job.UpdatedAt,
				}),
			})
		}

		if err := session.Delay(ctx); err != nil {
			return postings, err
		}
	}
	return postings, nil
}

func isSpainOrRemote(location string) bool {
	loc := strings.ToLower(location)
	if loc == "" {
		return true
	}
	for _, kw := range spainKeywords {
		if strings.Contains(loc, kw) {
			return true
		}
	}
	return false
}

func boardCompanyName(slug string) string {
	if name, ok := greenhouseCompanyNames[slug]; ok {
		return name
	}
	return capitalize(slug)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// refineProfile sharpens the catalogue default using the posting title.
func refineProfile(title, fallback string) string {
	t := strings.ToLower(title)
	for _, kw := range []string{"frontend", "front-end", "react", "vue", "angular", "css", "ui engineer"} {
		if strings.Contains(t, kw) {
			return "frontend_dev"
		}
	}
	for _, kw := range []string{"fullstack", "full stack", "full-stack", "backend", "software engineer", "developer", "python", "java", "node"} {
		if strings.Contains(t, kw) {
			return "fullstack_dev"
		}
	}
	return fallback
}

// catalogueSlug derives the tenant slug for an entry: explicit extra_config
// slug, else the company name lowercased with spaces replaced by sep.
func catalogueSlug(entry *models.SourceCatalogueEntry, sep string) string {
	if entry.ExtraConfig != nil {
		if slug, ok := entry.ExtraConfig["slug"].(string); ok && slug != "" {
			return slug
		}
	}
	return strings.ReplaceAll(strings.ToLower(entry.Company), " ", sep)
}
