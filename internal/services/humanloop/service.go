package humanloop

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/common"
	"github.com/ternarybob/solicita/internal/interfaces"
	"github.com/ternarybob/solicita/internal/models"
	"github.com/ternarybob/solicita/internal/services/forms"
	"github.com/ternarybob/solicita/internal/services/workers"
)

const actorHumanLoop = "human_loop"

var (
	// ErrNotPendingReview is returned when an authorization or rejection
	// targets an application outside the review state.
	ErrNotPendingReview = errors.New("application is not pending human review")
	// ErrReviewExpired is returned when the authorization window has elapsed.
	ErrReviewExpired = errors.New("review window expired")
)

// reviewTimers holds the armed warning and expiry timers for one review.
type reviewTimers struct {
	warn   *time.Timer
	expire *time.Timer
}

// Service runs the bounded human review window: it parks filled forms in
// pending_human_review, warns before the window closes, and performs the
// authorized submission through a fresh browser tab.
type Service struct {
	cfg       *common.Config
	storage   interfaces.StorageManager
	lifecycle interfaces.LifecycleService
	pool      interfaces.PagePool
	tasks     *workers.Pool
	bus       interfaces.EventService
	logger    arbor.ILogger

	warnAfter   time.Duration
	expireAfter time.Duration

	mu     sync.Mutex
	timers map[string]*reviewTimers
}

// NewService creates the human loop controller.
func NewService(
	cfg *common.Config,
	storage interfaces.StorageManager,
	lifecycle interfaces.LifecycleService,
	pool interfaces.PagePool,
	tasks *workers.Pool,
	bus interfaces.EventService,
	logger arbor.ILogger,
) *Service {
	return &Service{
		cfg:         cfg,
		storage:     storage,
		lifecycle:   lifecycle,
		pool:        pool,
		tasks:       tasks,
		bus:         bus,
		logger:      logger,
		warnAfter:   time.Duration(cfg.Review.WarnMinutes) * time.Minute,
		expireAfter: time.Duration(cfg.Review.TimeoutMinutes) * time.Minute,
		timers:      make(map[string]*reviewTimers),
	}
}

// BeginReview snapshots the filled form, screenshots it, parks the
// application in pending_human_review and arms the warning and expiry timers.
func (s *Service) BeginReview(ctx context.Context, applicationID string, page interfaces.Page) error {
	log := s.logger.WithCorrelationId(applicationID)

	dir := s.cfg.ApplicationDir(applicationID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create application dir: %w", err)
	}

	screenshotPath := filepath.Join(dir, "form.png")
	if err := page.Screenshot(ctx, screenshotPath, true); err != nil {
		log.Warn().Err(err).Msg("Form screenshot failed")
		screenshotPath = ""
	}

	snapshot, err := forms.TakeSnapshot(ctx, page)
	if err != nil {
		return fmt.Errorf("failed to snapshot form: %w", err)
	}
	log.Info().
		Int("field_count", len(snapshot.Fields)).
		Str("form_url", snapshot.URL).
		Msg("Form state serialized")

	app, err := s.lifecycle.Transition(ctx, applicationID, models.StatusPendingHumanReview,
		actorHumanLoop, fmt.Sprintf("Form ready for review at %s", snapshot.URL),
		func(a *models.Application) {
			a.FormSnapshot = snapshot
			a.FormScreenshot = screenshotPath
		})
	if err != nil {
		return err
	}

	s.armTimers(applicationID)

	title := ""
	if posting, err := s.storage.Postings().GetByID(ctx, app.PostingID); err == nil {
		title = posting.Title
	}
	s.bus.Publish(interfaces.Event{
		Type: interfaces.EventReviewReady,
		Payload: map[string]any{
			"application_id":  applicationID,
			"company":         app.Company,
			"title":           title,
			"form_url":        snapshot.URL,
			"screenshot_path": screenshotPath,
			"expires_at":      time.Now().UTC().Add(s.expireAfter).Format(time.RFC3339),
		},
		Timestamp: time.Now().UTC(),
	})

	log.Info().Str("company", app.Company).Msg("Application parked for human review")
	return nil
}

// Authorize validates the review window and hands the submission to a
// background task. The status stays cv_approved until the submit resolves.
func (s *Service) Authorize(ctx context.Context, applicationID string) error {
	app, err := s.storage.Applications().GetByID(ctx, applicationID)
	if err != nil {
		return err
	}
	if app.Status != models.StatusPendingHumanReview {
		return fmt.Errorf("%w: application %s is %s", ErrNotPendingReview, applicationID, app.Status)
	}
	if time.Now().UTC().After(app.UpdatedAt.Add(s.expireAfter)) {
		return fmt.Errorf("%w: application %s entered review at %s",
			ErrReviewExpired, applicationID, app.UpdatedAt.Format(time.RFC3339))
	}

	s.cancelTimers(applicationID)

	now := time.Now().UTC()
	if _, err := s.lifecycle.Transition(ctx, applicationID, models.StatusCVApproved,
		models.ActorHuman, "authorized for submission",
		func(a *models.Application) {
			a.AuthorizedByHuman = true
			a.AuthorizedAt = &now
		}); err != nil {
		return err
	}

	s.bus.Publish(interfaces.Event{
		Type:      interfaces.EventApplicationAuthorized,
		Payload:   map[string]any{"application_id": applicationID},
		Timestamp: now,
	})

	if err := s.tasks.Submit(func(taskCtx context.Context) error {
		return s.submitAuthorized(taskCtx, applicationID)
	}); err != nil {
		return fmt.Errorf("failed to schedule submit task: %w", err)
	}

	s.logger.WithCorrelationId(applicationID).Info().Msg("Submission authorized and scheduled")
	return nil
}

// Reject withdraws the application from review.
func (s *Service) Reject(ctx context.Context, applicationID string, reason string) error {
	app, err := s.storage.Applications().GetByID(ctx, applicationID)
	if err != nil {
		return err
	}
	if app.Status != models.StatusPendingHumanReview {
		return fmt.Errorf("%w: application %s is %s", ErrNotPendingReview, applicationID, app.Status)
	}

	s.cancelTimers(applicationID)

	if _, err := s.lifecycle.Transition(ctx, applicationID, models.StatusWithdrawn,
		models.ActorHuman, reason, nil); err != nil {
		return err
	}

	s.bus.Publish(interfaces.Event{
		Type: interfaces.EventApplicationRejected,
		Payload: map[string]any{
			"application_id": applicationID,
			"reason":         reason,
		},
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// Shutdown stops all armed review timers.
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, timers := range s.timers {
		timers.warn.Stop()
		timers.expire.Stop()
		delete(s.timers, id)
	}
}

// submitAuthorized replays the serialized form in a fresh tab, clicks submit
// and classifies the outcome. Runs on the task pool.
func (s *Service) submitAuthorized(ctx context.Context, applicationID string) error {
	log := s.logger.WithCorrelationId(applicationID)

	app, err := s.storage.Applications().GetByID(ctx, applicationID)
	if err != nil {
		return err
	}
	if app.FormSnapshot == nil || app.FormSnapshot.URL == "" {
		return fmt.Errorf("application %s has no form snapshot to replay", applicationID)
	}

	page, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire browser page: %w", err)
	}
	defer s.pool.Release(page)

	log.Info().Str("url", app.FormSnapshot.URL).Msg("Navigating to saved form")
	if err := page.Goto(ctx, app.FormSnapshot.URL, 30*time.Second); err != nil {
		return fmt.Errorf("failed to open form at %s: %w", app.FormSnapshot.URL, err)
	}

	filledCount, err := forms.Replay(ctx, page, app.FormSnapshot, s.logger)
	if err != nil {
		return err
	}
	log.Info().Int("filled_count", filledCount).Msg("Form refilled from snapshot")

	if mismatches := forms.VerifyFields(ctx, page, app.FormSnapshot); len(mismatches) > 0 {
		for _, m := range mismatches {
			log.Warn().
				Str("ref", m.Ref).
				Str("expected", m.Expected).
				Str("actual", m.Actual).
				Msg("Field differs from reviewed snapshot")
		}
	}

	if err := forms.ClickSubmit(ctx, page, s.logger); err != nil {
		log.Error().Err(err).Msg("No submit button found")
		return err
	}

	confirmTimeout := time.Duration(s.cfg.Review.SubmitConfirmTimeoutSeconds) * time.Second
	result, screenshotPath := forms.DetectConfirmation(ctx, page, s.cfg.ApplicationDir(applicationID), confirmTimeout, s.logger)

	newStatus := models.StatusSubmittedAmbiguous
	if result.Confirmed {
		newStatus = models.StatusApplied
	}
	note := fmt.Sprintf("Signal: %s. Authorized by human at %s",
		result.Signal, time.Now().UTC().Format(time.RFC3339))
	if _, err := s.lifecycle.Transition(ctx, applicationID, newStatus,
		models.ActorSubmitAuthorized, note,
		func(a *models.Application) {
			a.ConfirmScreenshot = screenshotPath
			a.ConfirmSignal = result.Signal
		}); err != nil {
		return err
	}

	s.bus.Publish(interfaces.Event{
		Type: interfaces.EventApplicationSubmitted,
		Payload: map[string]any{
			"application_id": applicationID,
			"status":         string(newStatus),
			"signal":         result.Signal,
			"confirmed":      result.Confirmed,
		},
		Timestamp: time.Now().UTC(),
	})

	log.Info().
		Str("status", string(newStatus)).
		Str("signal", result.Signal).
		Msg("Authorized submission finished")
	return nil
}

// armTimers starts the warning and expiry timers, replacing any armed pair.
func (s *Service) armTimers(applicationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.timers[applicationID]; ok {
		existing.warn.Stop()
		existing.expire.Stop()
	}

	remaining := s.expireAfter - s.warnAfter
	warn := time.AfterFunc(s.warnAfter, func() {
		s.logger.WithCorrelationId(applicationID).Info().
			Dur("remaining", remaining).
			Msg("Review window expiring soon")
		s.bus.Publish(interfaces.Event{
			Type: interfaces.EventReviewExpiring,
			Payload: map[string]any{
				"application_id":    applicationID,
				"minutes_remaining": int(remaining.Minutes()),
			},
			Timestamp: time.Now().UTC(),
		})
	})
	expire := time.AfterFunc(s.expireAfter, func() {
		// Status stays pending_human_review, the operator decides what
		// happens next. Authorize will refuse once the window has passed.
		s.logger.WithCorrelationId(applicationID).Warn().
			Dur("window", s.expireAfter).
			Msg("Review window expired without authorization")
		s.mu.Lock()
		delete(s.timers, applicationID)
		s.mu.Unlock()
	})
	s.timers[applicationID] = &reviewTimers{warn: warn, expire: expire}
}

// cancelTimers stops the timers for an application, if armed.
func (s *Service) cancelTimers(applicationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timers, ok := s.timers[applicationID]; ok {
		timers.warn.Stop()
		timers.expire.Stop()
		delete(s.timers, applicationID)
	}
}
