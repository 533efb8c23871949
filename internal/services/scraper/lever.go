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

// leverDefaultTenants maps built-in Lever tenants to their default profile.
var leverDefaultTenants = map[string]string{
	"cabify":          "fullstack_dev",
	"schibsted-spain": "fullstack_dev",
	"idealista":       "fullstack_dev",
	"flywire":         "fullstack_dev",
	"privalia":        "fullstack_dev",
	"ulabox":          "fullstack_dev",
	"bcneng":          "fullstack_dev",
	"fever":           "fullstack_dev",
	"adevinta":        "fullstack_dev",
	"lastminute-com":  "fullstack_dev",
}

// Lever locations also accept fully distributed tags.
var leverExtraKeywords = []string{"anywhere", "worldwide"}

// LeverAdapter reads the public postings JSON of Lever tenants.
type LeverAdapter struct {
	runtime *Runtime
	client  *http.Client
}

// NewLeverAdapter creates the adapter.
func NewLeverAdapter(runtime *Runtime) *LeverAdapter {
	return &LeverAdapter{
		runtime: runtime,
		client:  httpclient.New(30 * time.Second),
	}
}

func (a *LeverAdapter) Site() string { return "lever" }

type leverPosting struct {
	ID               string `json:"id"`
	Text             string `json:"text"`
	HostedURL        string `json:"hostedUrl"`
	ApplyURL         string `json:"applyUrl"`
	DescriptionPlain string `json:"descriptionPlain"`
	WorkplaceType    string `json:"workplaceType"`
	Categories       struct {
		Location string `json:"location"`
		Team     string `json:"team"`
	} `json:"categories"`
}

// Scrape walks every tenant and normalises Spain-or-remote postings.
func (a *LeverAdapter) Scrape(ctx context.Context, session interfaces.ScrapeSession) ([]*models.Posting, error) {
	tenants := make(map[string]string, len(leverDefaultTenants))
	for slug, profile := range leverDefaultTenants {
		tenants[slug] = profile
	}
	entries, err := a.runtime.storage.Catalogue().ListEnabled(ctx, models.AdapterLever)
	if err != nil {
		a.runtime.logger.Warn().Err(err).Msg("Failed to load lever catalogue entries")
	}
	for _, entry := range entries {
		tenants[catalogueSlug(entry, "-")] = entry.Profile
	}

	var postings []*models.Posting
	seen := make(map[string]bool)
	for tenant, profile := range tenants {
		url := fmt.Sprintf("https://api.lever.co/v0/postings/%s?mode=json", tenant)

		var jobs []leverPosting
		err := httpclient.GetJSON(ctx, a.client, url, &jobs)
		if errors.Is(err, httpclient.ErrNotFound) {
			a.runtime.logger.Debug().Str("tenant", tenant).Msg("Lever tenant not found")
			continue
		}
		if err != nil {
			a.runtime.logger.Warn().Err(err).Str("tenant", tenant).Msg("Lever fetch failed")
			continue
		}

		session.ReportStructure(fmt.Sprintf("tenant:%s postings:%d", tenant, len(jobs)))

		for _, job := range jobs {
			if job.ID == "" {
				continue
			}
			location := job.Categories.Location
			if location != "" && !leverLocationAccepted(location) {
				continue
			}
			externalID := fmt.Sprintf("%s_%s", tenant, job.ID)
			if seen[externalID] {
				continue
			}
			seen[externalID] = true

			jobURL := job.HostedURL
			if jobURL == "" {
				jobURL = job.ApplyURL
			}
			if jobURL == "" {
				jobURL = fmt.Sprintf("https://jobs.lever.co/%s/%s", tenant, job.ID)
			}
			if location == "" {
				location = "España"
			}

			postings = append(postings, &models.Posting{
				SourceID:     a.Site(),
				ExternalID:   externalID,
				URL:          jobURL,
				Title:        job.Text,
				Company:      capitalize(strings.ReplaceAll(tenant, "-", " ")),
				Location:     location,
				Description:  job.DescriptionPlain,
				ContractType: job.WorkplaceType,
				Profile:      refineProfile(job.Text, profile),
				RawData: models.NewStructuredPayload(map[string]any{
					"tenant":   tenant,
					"lever_id": job.ID,
					"team":     job.Categories.Team,
				}),
			})
		}

		if err := session.Delay(ctx); err != nil {
			return postings, err
		}
	}
	return postings, nil
}

func leverLocationAccepted(location string) bool {
	if isSpainOrRemote(location) {
		return true
	}
	loc := strings.ToLower(location)
	for _, kw := range leverExtraKeywords {
		if strings.Contains(loc, kw) {
			return true
		}
	}
	return false
}
