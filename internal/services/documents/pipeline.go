package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/common"
	"github.com/ternarybob/solicita/internal/interfaces"
	"github.com/ternarybob/solicita/internal/models"
	"github.com/ternarybob/solicita/internal/services/llm"
)

// CVRenderer renders an adapted CV document to a PDF on disk.
type CVRenderer interface {
	RenderCV(doc *models.CVDocument, outPath string) error
}

// MasterCVSource supplies the canonical CV parsed from the master PDF.
type MasterCVSource interface {
	CanonicalCV(ctx context.Context) (*models.CVDocument, error)
}

// Service drives the CV adaptation pipeline: structural reframe, model
// rewrite, validation gate, summary, quality score, cover letter and PDF.
type Service struct {
	cfg       *common.Config
	storage   interfaces.StorageManager
	lifecycle interfaces.LifecycleService
	llm       interfaces.LLMService
	validator *Validator
	renderer  CVRenderer
	master    MasterCVSource
	bus       interfaces.EventService
	logger    arbor.ILogger
}

// NewService wires the pipeline.
func NewService(cfg *common.Config, storage interfaces.StorageManager, lifecycle interfaces.LifecycleService, llmService interfaces.LLMService, renderer CVRenderer, master MasterCVSource, bus interfaces.EventService, logger arbor.ILogger) *Service {
	return &Service{
		cfg:       cfg,
		storage:   storage,
		lifecycle: lifecycle,
		llm:       llmService,
		validator: NewValidator(llmService, logger),
		renderer:  renderer,
		master:    master,
		bus:       bus,
		logger:    logger,
	}
}

// GenerateCV runs the full adaptation pipeline for one application. A
// validation failure is recorded as cv_failed_validation and is not an error;
// errors are reserved for infrastructure faults.
func (s *Service) GenerateCV(ctx context.Context, applicationID string) error {
	app, err := s.storage.Applications().GetByID(ctx, applicationID)
	if err != nil {
		return fmt.Errorf("failed to load application %s: %w", applicationID, err)
	}
	canonical := app.CVCanonical
	if canonical == nil {
		if s.master == nil {
			return fmt.Errorf("application %s has no canonical CV", applicationID)
		}
		if canonical, err = s.master.CanonicalCV(ctx); err != nil {
			return fmt.Errorf("failed to load canonical CV: %w", err)
		}
	}
	posting, err := s.storage.Postings().GetByID(ctx, app.PostingID)
	if err != nil {
		return fmt.Errorf("failed to load posting %s: %w", app.PostingID, err)
	}

	log := s.logger.WithCorrelationId(applicationID)

	if app, err = s.lifecycle.Transition(ctx, applicationID, models.StatusCVGenerating,
		models.ActorCVAdapter, "", func(a *models.Application) {
			a.CVCanonical = canonical
		}); err != nil {
		return err
	}
	s.bus.Publish(interfaces.Event{
		Type:    interfaces.EventCVGenerationStarted,
		Payload: map[string]any{"application_id": applicationID},
	})

	// Rule-based reframe, then the model rewrite. The rewrite is best-effort:
	// a model failure leaves the structurally transformed content in place.
	adapted := StructuralTransform(canonical, app.Profile)
	log.Info().Str("profile", app.Profile).Msg("Structural transform done")

	s.rewriteExperience(ctx, log, adapted, posting)

	validation := s.validator.Validate(ctx, canonical, adapted, posting.Description)
	if !validation.Passed {
		note := strings.Join(validation.Errors, "; ")
		log.Error().Str("errors", note).Msg("CV validation failed")
		if _, err := s.lifecycle.Transition(ctx, applicationID, models.StatusCVFailedValidation,
			models.ActorCVAdapter, note, nil); err != nil {
			return err
		}
		s.bus.Publish(interfaces.Event{
			Type:    interfaces.EventCVGenerationError,
			Payload: map[string]any{"application_id": applicationID, "errors": validation.Errors},
		})
		return nil
	}
	for _, warning := range validation.Warnings {
		log.Warn().Str("warning", warning).Msg("CV validation warning")
	}

	s.generateSummary(ctx, log, adapted, posting)

	quality := ScoreCV(ctx, s.llm, log, adapted, posting.Description, s.cfg.AI.QualityScoreMinimum)
	coverLetter := GenerateCoverLetter(ctx, s.llm, log, posting, adapted)

	pdfPath, err := s.renderPDF(applicationID, adapted)
	if err != nil {
		return err
	}

	rubric := quality.Rubric
	if _, err := s.lifecycle.Transition(ctx, applicationID, models.StatusCVReady,
		models.ActorCVAdapter, "", func(a *models.Application) {
			a.CVAdapted = adapted
			a.CVPDFPath = pdfPath
			a.CoverLetter = coverLetter
			a.QualityScore = quality.Overall
			a.QualityNotes = &rubric
		}); err != nil {
		return err
	}

	log.Info().
		Str("quality_score", formatScore(quality.Overall)).
		Str("pdf_path", pdfPath).
		Msg("CV adaptation complete")
	s.bus.Publish(interfaces.Event{
		Type: interfaces.EventCVGenerationComplete,
		Payload: map[string]any{
			"application_id": applicationID,
			"quality_score":  quality.Overall,
			"pdf_path":       pdfPath,
		},
	})
	return nil
}

// rewriteExperience asks the model to tailor the experience section. Failure
// is non-fatal.
func (s *Service) rewriteExperience(ctx context.Context, log arbor.ILogger, adapted *models.CVDocument, posting *models.Posting) {
	cvJSON, _ := json.Marshal(adapted)
	var out struct {
		Experience        []models.ExperienceEntry `json:"experience"`
		SkillsSectionText string                   `json:"skills_section_text"`
	}
	prompt := llm.RewriteExperiencePrompt(string(cvJSON), posting.Title, posting.Company, posting.Description)
	if err := s.llm.GenerateJSON(ctx, prompt, s.cfg.AI.CVRewriteTemperature, &out); err != nil {
		log.Warn().Err(err).Msg("Experience rewrite failed, keeping structural content")
		return
	}
	if len(out.Experience) > 0 {
		adapted.Experience = out.Experience
		log.Info().Int("entries", len(out.Experience)).Msg("Experience rewritten")
	}
	if out.SkillsSectionText != "" {
		adapted.SkillsSectionText = out.SkillsSectionText
	}
}

// generateSummary asks for a tailored professional summary. Failure keeps the
// existing summary.
func (s *Service) generateSummary(ctx context.Context, log arbor.ILogger, adapted *models.CVDocument, posting *models.Posting) {
	cvJSON, _ := json.Marshal(adapted)
	var out struct {
		Summary string `json:"summary"`
	}
	prompt := llm.SummaryPrompt(string(cvJSON), posting.Title, posting.Company)
	if err := s.llm.GenerateJSON(ctx, prompt, s.cfg.AI.CVSummaryTemperature, &out); err != nil {
		log.Warn().Err(err).Msg("Summary generation failed, keeping existing summary")
		return
	}
	if out.Summary != "" {
		adapted.Summary = out.Summary
	} else {
		log.Warn().Msg("Empty summary response")
	}
}

func (s *Service) renderPDF(applicationID string, adapted *models.CVDocument) (string, error) {
	dir := s.cfg.ApplicationDir(applicationID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create application directory: %w", err)
	}
	pdfPath := filepath.Join(dir, "cv.pdf")
	if err := s.renderer.RenderCV(adapted, pdfPath); err != nil {
		return "", fmt.Errorf("failed to render CV PDF: %w", err)
	}
	return pdfPath, nil
}
