package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/common"
	"github.com/ternarybob/solicita/internal/interfaces"
	"github.com/ternarybob/solicita/internal/models"
)

// Service is the single gate for application status changes. Every change
// writes the status, the extra field updates and the audit event in one
// storage transaction; an event without the field change, or the reverse,
// is a bug.
type Service struct {
	storage interfaces.StorageManager
	bus     interfaces.EventService
	logger  arbor.ILogger
}

// NewService creates the lifecycle gate.
func NewService(storage interfaces.StorageManager, bus interfaces.EventService, logger arbor.ILogger) *Service {
	return &Service{storage: storage, bus: bus, logger: logger}
}

// CreateApplication creates an application for a posting after the policy
// checks pass, recording the initial qualified event and flipping the
// posting to qualified.
func (s *Service) CreateApplication(ctx context.Context, posting *models.Posting, profile string) (*models.Application, error) {
	if err := s.CheckBlocklist(ctx, posting.Company); err != nil {
		return nil, err
	}
	if err := s.CheckCompanyRateLimit(ctx, posting.Company); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	app := &models.Application{
		ID:        common.NewApplicationID(),
		PostingID: posting.ID,
		Status:    models.StatusQualified,
		Profile:   profile,
		Company:   posting.Company,
		CreatedAt: now,
		UpdatedAt: now,
	}
	event := &models.ApplicationEvent{
		ID:            common.NewEventID(),
		ApplicationID: app.ID,
		NewStatus:     models.StatusQualified,
		TriggeredBy:   models.ActorSystem,
		Note:          fmt.Sprintf("created for posting %s", posting.ID),
		CreatedAt:     now,
	}

	if err := s.storage.Applications().Create(ctx, app, event); err != nil {
		return nil, err
	}
	if err := s.storage.Postings().UpdateStatus(ctx, posting.ID, models.PostingStatusQualified); err != nil {
		s.logger.Warn().Err(err).Str("posting_id", posting.ID).Msg("Failed to mark posting qualified")
	}

	s.logger.Info().
		Str("application_id", app.ID).
		Str("company", app.Company).
		Str("profile", profile).
		Msg("Application created")
	return app, nil
}

// Transition moves the application to newStatus. The updates callback mutates
// the loaded record before the atomic write; status and UpdatedAt are managed
// here and must not be touched by the callback.
func (s *Service) Transition(ctx context.Context, applicationID string, newStatus models.ApplicationStatus, actor, note string, updates func(*models.Application)) (*models.Application, error) {
	app, err := s.storage.Applications().GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	oldStatus := app.Status
	if !models.CanTransition(oldStatus, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s (application %s)",
			interfaces.ErrIllegalTransition, oldStatus, newStatus, applicationID)
	}

	if updates != nil {
		updates(app)
	}
	now := time.Now().UTC()
	app.Status = newStatus
	app.UpdatedAt = now

	event := &models.ApplicationEvent{
		ID:            common.NewEventID(),
		ApplicationID: app.ID,
		OldStatus:     oldStatus,
		NewStatus:     newStatus,
		TriggeredBy:   actor,
		Note:          note,
		CreatedAt:     now,
	}

	if err := s.storage.Applications().Transition(ctx, app, event); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("application_id", app.ID).
		Str("from", string(oldStatus)).
		Str("to", string(newStatus)).
		Str("actor", actor).
		Msg("Application transitioned")
	return app, nil
}

// CheckBlocklist rejects companies on the blocklist (case-insensitive).
func (s *Service) CheckBlocklist(ctx context.Context, company string) error {
	blocked, err := s.storage.Policies().IsBlocklisted(ctx, company)
	if err != nil {
		return err
	}
	if blocked {
		return fmt.Errorf("%w: %s", interfaces.ErrBlocklisted, strings.ToLower(company))
	}
	return nil
}

// CheckCompanyRateLimit rejects creation when the number of applications for
// the company inside the rolling window, excluding rejected/withdrawn/expired,
// has reached the rule's cap.
func (s *Service) CheckCompanyRateLimit(ctx context.Context, company string) error {
	rule, err := s.storage.Policies().GetRule(ctx, company)
	if err != nil {
		return err
	}

	since := time.Now().UTC().AddDate(0, 0, -rule.PeriodDays)
	apps, err := s.storage.Applications().ListByCompanySince(ctx, company, since)
	if err != nil {
		return err
	}

	count := 0
	for _, app := range apps {
		switch app.Status {
		case models.StatusRejected, models.StatusWithdrawn, models.StatusExpired:
		default:
			count++
		}
	}
	if count >= rule.MaxPerPeriod {
		return fmt.Errorf("%w: %d applications to %s in the last %d days (max %d)",
			interfaces.ErrRateLimited, count, strings.ToLower(company), rule.PeriodDays, rule.MaxPerPeriod)
	}
	return nil
}
