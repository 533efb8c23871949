package scraper

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/common"
	"github.com/ternarybob/solicita/internal/interfaces"
	"github.com/ternarybob/solicita/internal/models"
	"github.com/ternarybob/solicita/internal/services/eligibility"
)

// AdapterConstructor builds one source adapter against the runtime.
// Adapters are compile-time additions; there is no dynamic registry.
type AdapterConstructor func(*Runtime) interfaces.SourceAdapter

// Runtime owns the per-source run lifecycle: consecutive-zero short-circuit,
// checkpoints, structural drift, eligibility classification and dedup upsert.
type Runtime struct {
	cfg      *common.Config
	storage  interfaces.StorageManager
	bus      interfaces.EventService
	limiter  *RateLimiter
	pages    interfaces.PagePool
	logger   arbor.ILogger
	adapters map[string]interfaces.SourceAdapter
	mdConv   *htmltomarkdown.Converter
}

// NewRuntime wires the runtime and instantiates the adapter table.
func NewRuntime(cfg *common.Config, storage interfaces.StorageManager, bus interfaces.EventService, pages interfaces.PagePool, logger arbor.ILogger, constructors map[string]AdapterConstructor) *Runtime {
	r := &Runtime{
		cfg:      cfg,
		storage:  storage,
		bus:      bus,
		limiter:  NewRateLimiter(cfg.Scraper.DefaultDelayMin, cfg.Scraper.DefaultDelayMax),
		pages:    pages,
		logger:   logger,
		adapters: make(map[string]interfaces.SourceAdapter, len(constructors)),
		mdConv:   htmltomarkdown.NewConverter("", true, nil),
	}
	for site, build := range constructors {
		r.adapters[site] = build(r)
	}
	return r
}

// DefaultConstructors is the built-in adapter table.
func DefaultConstructors() map[string]AdapterConstructor {
	return map[string]AdapterConstructor{
		"greenhouse":  func(r *Runtime) interfaces.SourceAdapter { return NewGreenhouseAdapter(r) },
		"lever":       func(r *Runtime) interfaces.SourceAdapter { return NewLeverAdapter(r) },
		"career_page": func(r *Runtime) interfaces.SourceAdapter { return NewCareerPageAdapter(r) },
	}
}

// Sites returns the registered source tags, sorted.
func (r *Runtime) Sites() []string {
	sites := make([]string, 0, len(r.adapters))
	for site := range r.adapters {
		sites = append(sites, site)
	}
	sort.Strings(sites)
	return sites
}

// RunSource executes one ingestion run for the site.
func (r *Runtime) RunSource(ctx context.Context, site string) (*models.RunStats, error) {
	adapter, ok := r.adapters[site]
	if !ok {
		return nil, fmt.Errorf("unknown source %q", site)
	}

	latest, err := r.storage.SourceRuns().GetLatest(ctx, site)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	// Short-circuit without invoking the adapter or creating a run.
	if latest != nil && latest.ConsecutiveZeroRuns >= r.cfg.Scraper.ConsecutiveZeroDisable {
		r.logger.Warn().
			Str("site", site).
			Int("consecutive_zero_runs", latest.ConsecutiveZeroRuns).
			Msg("Source disabled after consecutive empty runs")
		return &models.RunStats{Site: site, Status: models.RunStatusDisabled}, nil
	}

	run := &models.SourceRun{
		ID:        common.NewRunID(),
		SourceID:  site,
		Status:    models.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := r.storage.SourceRuns().Save(ctx, run); err != nil {
		return nil, err
	}

	log := r.logger.WithCorrelationId(run.ID)
	log.Info().Str("site", site).Msg("Scraper run started")

	checkpoint, err := r.storage.SourceRuns().LatestCheckpoint(ctx, site)
	if err != nil {
		log.Warn().Err(err).Str("site", site).Msg("Failed to load checkpoint, starting cold")
	}
	sess := &session{runtime: r, site: site, checkpoint: checkpoint}

	postings, scrapeErr := adapter.Scrape(ctx, sess)
	now := time.Now().UTC()
	run.FinishedAt = &now
	run.Checkpoint = sess.saved

	if scrapeErr != nil {
		run.Status = models.RunStatusFailed
		run.ErrorMessage = scrapeErr.Error()
		run.ConsecutiveZeroRuns = 0
		if err := r.storage.SourceRuns().Save(ctx, run); err != nil {
			log.Warn().Err(err).Msg("Failed to finalize failed run")
		}
		log.Error().Err(scrapeErr).Str("site", site).Msg("Scraper run failed")
		r.bus.Publish(interfaces.Event{
			Type:    interfaces.EventScraperError,
			Payload: map[string]any{"site": site, "error": scrapeErr.Error()},
		})
		return &models.RunStats{Site: site, Status: models.RunStatusFailed}, scrapeErr
	}

	jobsNew := 0
	for _, posting := range postings {
		r.prepare(posting, site)
		verdict := eligibility.Check(eligibility.Input{
			Title:        posting.Title,
			Description:  posting.Description,
			ContractType: posting.ContractType,
			SalaryRaw:    posting.SalaryRaw,
		})
		if !verdict.Eligible {
			posting.Status = models.PostingStatusSkipped
			posting.RawData.Set(models.SkipReasonKey, verdict.Reason)
		}

		isNew, err := r.storage.Postings().Upsert(ctx, posting)
		if err != nil {
			log.Warn().Err(err).Str("external_id", posting.ExternalID).Msg("Failed to upsert posting")
			continue
		}
		// jobs_new counts newly inserted eligible postings only.
		if isNew && verdict.Eligible {
			jobsNew++
		}
	}

	run.Status = models.RunStatusCompleted
	run.JobsFound = len(postings)
	run.JobsNew = jobsNew
	run.StructureHash = sess.structureHash()
	run.ConsecutiveZeroRuns = nextZeroCounter(latest, run.JobsFound)

	if latest != nil && run.StructureHash != "" {
		if ratio := DriftRatio(latest.StructureHash, run.StructureHash); ratio > DriftWarnThreshold {
			log.Warn().
				Str("site", site).
				Str("ratio", fmt.Sprintf("%.2f", ratio)).
				Msg("Structural drift detected, selectors may be stale")
		}
	}

	if err := r.storage.SourceRuns().Save(ctx, run); err != nil {
		return nil, err
	}

	stats := &models.RunStats{
		Site:      site,
		JobsFound: run.JobsFound,
		JobsNew:   run.JobsNew,
		Status:    models.RunStatusCompleted,
	}
	log.Info().
		Str("site", site).
		Int("jobs_found", stats.JobsFound).
		Int("jobs_new", stats.JobsNew).
		Msg("Scraper run completed")
	r.bus.Publish(interfaces.Event{
		Type:    interfaces.EventScraperFinished,
		Payload: map[string]any{"site": site, "jobs_found": stats.JobsFound, "jobs_new": stats.JobsNew},
	})
	return stats, nil
}

// prepare fills posting defaults and normalises HTML descriptions to
// markdown before storage.
func (r *Runtime) prepare(posting *models.Posting, site string) {
	if posting.SourceID == "" {
		posting.SourceID = site
	}
	if posting.ID == "" {
		posting.ID = common.NewPostingID()
	}
	if posting.ExternalID == "" {
		posting.ExternalID = common.MakeExternalID(site, posting.Title, posting.Company,
			posting.Location, posting.PostedAt.Format("2006-01-02"))
	}
	if posting.Status == "" {
		posting.Status = models.PostingStatusScraped
	}
	if posting.ScrapedAt.IsZero() {
		posting.ScrapedAt = time.Now().UTC()
	}
	if looksLikeHTML(posting.Description) {
		if markdown, err := r.mdConv.ConvertString(posting.Description); err == nil {
			posting.Description = markdown
		}
	}
}

func looksLikeHTML(s string) bool {
	return strings.Contains(s, "</") || strings.Contains(s, "/>") ||
		strings.Contains(strings.ToLower(s), "<p>") || strings.Contains(strings.ToLower(s), "<br")
}

// nextZeroCounter applies the consecutive-zero invariant: increment only on a
// completed run with zero findings, reset otherwise.
func nextZeroCounter(previous *models.SourceRun, jobsFound int) int {
	if jobsFound > 0 {
		return 0
	}
	if previous == nil {
		return 1
	}
	return previous.ConsecutiveZeroRuns + 1
}

// CookiesFresh reports whether the stored cookie timestamp for the site is
// inside its TTL window. Sites without a TTL entry are always fresh.
func (r *Runtime) CookiesFresh(ctx context.Context, site string) (bool, error) {
	maxAge, tracked := CookieMaxAge(site)
	if !tracked {
		return true, nil
	}
	raw, err := r.storage.Settings().Get(ctx, "cookies_saved_at."+site)
	if errors.Is(err, interfaces.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	savedAt, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return false, nil
	}
	return time.Since(savedAt) <= maxAge, nil
}

// TouchCookies records that the site's browser cookies were refreshed now.
func (r *Runtime) TouchCookies(ctx context.Context, site string) error {
	return r.storage.Settings().Set(ctx, "cookies_saved_at."+site, time.Now().UTC().Format(time.RFC3339))
}
