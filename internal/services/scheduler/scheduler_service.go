package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/common"
)

// scraperIntervals holds the per-source scrape cadence in hours. High-churn
// boards run often, slow corporate pages run a few times a day.
var scraperIntervals = map[string]int{
	"indeed_es":   4,
	"infojobs":    4,
	"lidl_es":     6,
	"jobtoday":    3,
	"mercadona":   8,
	"amazon_es":   12,
	"manfred":     6,
	"tecnoempleo": 6,
	"greenhouse":  8,
	"lever":       8,
	"teamtailor":  8,
	"personio":    8,
	"workday":     8,
	"career_page": 12,
}

const defaultScrapeIntervalHours = 8

// JobHandler is the work a scheduled job performs.
type JobHandler func(ctx context.Context) error

// JobStatus is the externally visible state of a registered job.
type JobStatus struct {
	Name        string     `json:"name"`
	Schedule    string     `json:"schedule"`
	Description string     `json:"description"`
	Enabled     bool       `json:"enabled"`
	IsRunning   bool       `json:"is_running"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	NextRun     *time.Time `json:"next_run,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

type jobEntry struct {
	name        string
	schedule    string
	description string
	handler     JobHandler
	enabled     bool
	cronID      cron.EntryID
	lastRun     *time.Time
	isRunning   bool
	lastError   string
}

// Service drives periodic work: per-source scrapes, the nightly database
// backup and the retention sweep. Each job runs at most once concurrently;
// a tick that lands while the previous run is still going is skipped.
type Service struct {
	cron    *cron.Cron
	cfg     *common.Config
	logger  arbor.ILogger
	mu      sync.RWMutex
	jobs    map[string]*jobEntry
	started bool
}

// NewService creates a scheduler with second-level precision disabled; the
// standard five-field cron plus @every descriptors cover every job here.
func NewService(cfg *common.Config, logger arbor.ILogger) *Service {
	return &Service{
		cron:   cron.New(),
		cfg:    cfg,
		logger: logger,
		jobs:   make(map[string]*jobEntry),
	}
}

// RegisterJob adds a job under the given cron schedule. Registering before
// Start is allowed; the entry is armed when the scheduler starts.
func (s *Service) RegisterJob(name, schedule, description string, handler JobHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	entry := &jobEntry{
		name:        name,
		schedule:    schedule,
		description: description,
		handler:     handler,
		enabled:     true,
	}

	id, err := s.cron.AddFunc(schedule, func() { s.executeJob(name) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", schedule, name, err)
	}
	entry.cronID = id
	s.jobs[name] = entry

	s.logger.Info().
		Str("job", name).
		Str("schedule", schedule).
		Msg("Registered scheduled job")
	return nil
}

// RegisterScraperJobs registers one job per source site at its cadence.
func (s *Service) RegisterScraperJobs(sites []string, run func(ctx context.Context, site string) error) error {
	for _, site := range sites {
		site := site
		hours, ok := scraperIntervals[site]
		if !ok {
			hours = defaultScrapeIntervalHours
		}
		schedule := fmt.Sprintf("@every %dh", hours)
		description := fmt.Sprintf("Scrape %s for new postings", site)
		err := s.RegisterJob("scraper_"+site, schedule, description, func(ctx context.Context) error {
			return run(ctx, site)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// executeJob runs a job once, skipping the tick if the previous execution is
// still in flight.
func (s *Service) executeJob(name string) {
	s.mu.Lock()
	entry, exists := s.jobs[name]
	if !exists || !entry.enabled {
		s.mu.Unlock()
		return
	}
	if entry.isRunning {
		s.mu.Unlock()
		s.logger.Warn().Str("job", name).Msg("Skipping tick, previous run still in progress")
		return
	}
	entry.isRunning = true
	handler := entry.handler
	s.mu.Unlock()

	started := time.Now().UTC()
	s.logger.Info().Str("job", name).Msg("Job started")

	var runErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				runErr = fmt.Errorf("job panicked: %v", r)
			}
		}()
		runErr = handler(context.Background())
	}()

	s.mu.Lock()
	entry.isRunning = false
	entry.lastRun = &started
	if runErr != nil {
		entry.lastError = runErr.Error()
	} else {
		entry.lastError = ""
	}
	s.mu.Unlock()

	if runErr != nil {
		s.logger.Error().Err(runErr).
			Str("job", name).
			Str("duration", time.Since(started).String()).
			Msg("Job failed")
		return
	}
	s.logger.Info().
		Str("job", name).
		Str("duration", time.Since(started).String()).
		Msg("Job completed")
}

// TriggerJob runs a job immediately in the background, outside its schedule.
func (s *Service) TriggerJob(name string) error {
	s.mu.RLock()
	entry, exists := s.jobs[name]
	if !exists {
		s.mu.RUnlock()
		return fmt.Errorf("job %s not found", name)
	}
	if entry.isRunning {
		s.mu.RUnlock()
		return fmt.Errorf("job %s is already running", name)
	}
	s.mu.RUnlock()

	go s.executeJob(name)
	return nil
}

// EnableJob re-arms a disabled job on its original schedule.
func (s *Service) EnableJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.jobs[name]
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}
	if entry.enabled {
		return nil
	}
	id, err := s.cron.AddFunc(entry.schedule, func() { s.executeJob(name) })
	if err != nil {
		return fmt.Errorf("failed to re-arm job %s: %w", name, err)
	}
	entry.cronID = id
	entry.enabled = true
	s.logger.Info().Str("job", name).Msg("Job enabled")
	return nil
}

// DisableJob removes the job from the cron schedule. A run already in
// progress finishes normally.
func (s *Service) DisableJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.jobs[name]
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}
	if !entry.enabled {
		return nil
	}
	s.cron.Remove(entry.cronID)
	entry.enabled = false
	s.logger.Info().Str("job", name).Msg("Job disabled")
	return nil
}

// GetJobStatus returns the state of one job.
func (s *Service) GetJobStatus(name string) (*JobStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.jobs[name]
	if !exists {
		return nil, fmt.Errorf("job %s not found", name)
	}
	return s.statusLocked(entry), nil
}

// GetAllJobStatuses returns every job sorted by name.
func (s *Service) GetAllJobStatuses() []*JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make([]*JobStatus, 0, len(s.jobs))
	for _, entry := range s.jobs {
		statuses = append(statuses, s.statusLocked(entry))
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}

func (s *Service) statusLocked(entry *jobEntry) *JobStatus {
	status := &JobStatus{
		Name:        entry.name,
		Schedule:    entry.schedule,
		Description: entry.description,
		Enabled:     entry.enabled,
		IsRunning:   entry.isRunning,
		LastRun:     entry.lastRun,
		LastError:   entry.lastError,
	}
	if entry.enabled {
		for _, ce := range s.cron.Entries() {
			if ce.ID == entry.cronID {
				next := ce.Next
				status.NextRun = &next
				break
			}
		}
	}
	return status
}

// Start begins dispatching scheduled jobs.
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.cron.Start()
	s.started = true
	s.logger.Info().Int("jobs", len(s.jobs)).Msg("Scheduler started")
}

// Stop halts the schedule and waits for in-flight jobs to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Scheduler stopped")
}
