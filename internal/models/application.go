package models

import "time"

// ApplicationStatus is the lifecycle status of an application.
type ApplicationStatus string

const (
	StatusScraped            ApplicationStatus = "scraped"
	StatusQualified          ApplicationStatus = "qualified"
	StatusCVGenerating       ApplicationStatus = "cv_generating"
	StatusCVReady            ApplicationStatus = "cv_ready"
	StatusCVFailedValidation ApplicationStatus = "cv_failed_validation"
	StatusCVApproved         ApplicationStatus = "cv_approved"
	StatusApplicationStarted ApplicationStatus = "application_started"
	StatusFormFilled         ApplicationStatus = "form_filled"
	StatusPendingHumanReview ApplicationStatus = "pending_human_review"
	StatusSubmittedAmbiguous ApplicationStatus = "submitted_ambiguous"
	StatusApplied            ApplicationStatus = "applied"
	StatusAcknowledged       ApplicationStatus = "acknowledged"
	StatusInterviewScheduled ApplicationStatus = "interview_scheduled"
	StatusInterviewed        ApplicationStatus = "interviewed"
	StatusOffered            ApplicationStatus = "offered"
	StatusRejected           ApplicationStatus = "rejected"
	StatusWithdrawn          ApplicationStatus = "withdrawn"
	StatusExpired            ApplicationStatus = "expired"
)

// terminalStatuses never transition further.
var terminalStatuses = map[ApplicationStatus]bool{
	StatusCVFailedValidation: true,
	StatusOffered:            true,
	StatusRejected:           true,
	StatusWithdrawn:          true,
	StatusExpired:            true,
}

// IsTerminal reports whether s admits no further transitions.
func (s ApplicationStatus) IsTerminal() bool {
	return terminalStatuses[s]
}

// forwardTransitions is the legal forward edge set. rejected/withdrawn/expired
// are additionally reachable from any non-terminal status.
var forwardTransitions = map[ApplicationStatus][]ApplicationStatus{
	StatusScraped:            {StatusQualified},
	StatusQualified:          {StatusCVGenerating},
	StatusCVGenerating:       {StatusCVReady, StatusCVFailedValidation},
	StatusCVReady:            {StatusCVApproved},
	StatusCVApproved:         {StatusApplicationStarted, StatusApplied, StatusSubmittedAmbiguous},
	StatusApplicationStarted: {StatusFormFilled},
	StatusFormFilled:         {StatusPendingHumanReview},
	StatusPendingHumanReview: {StatusCVApproved, StatusSubmittedAmbiguous, StatusApplied},
	StatusApplied:            {StatusAcknowledged},
	StatusSubmittedAmbiguous: {StatusAcknowledged},
	StatusAcknowledged:       {StatusInterviewScheduled},
	StatusInterviewScheduled: {StatusInterviewed},
	StatusInterviewed:        {StatusOffered, StatusRejected},
}

// CanTransition reports whether from → to is a legal status change.
func CanTransition(from, to ApplicationStatus) bool {
	if from.IsTerminal() {
		return false
	}
	switch to {
	case StatusRejected, StatusWithdrawn, StatusExpired:
		return true
	}
	for _, next := range forwardTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Application is one attempt to apply to one posting.
type Application struct {
	ID        string            `json:"id" badgerhold:"key"`
	PostingID string            `json:"posting_id" badgerholdIndex:"PostingID"`
	Status    ApplicationStatus `json:"status" badgerholdIndex:"Status"`
	Profile   string            `json:"profile"`
	Company   string            `json:"company" badgerholdIndex:"Company"`

	CVCanonical  *CVDocument `json:"cv_canonical,omitempty"`
	CVAdapted    *CVDocument `json:"cv_adapted,omitempty"`
	CVPDFPath    string      `json:"cv_pdf_path,omitempty"`
	CoverLetter  string      `json:"cover_letter,omitempty"`
	QualityScore float64     `json:"quality_score,omitempty"`
	QualityNotes *Rubric     `json:"quality_notes,omitempty"`

	FormSnapshot     *FormSnapshot `json:"form_snapshot,omitempty"`
	FormScreenshot   string        `json:"form_screenshot,omitempty"`
	ConfirmScreenshot string       `json:"confirm_screenshot,omitempty"`
	ConfirmSignal    string        `json:"confirm_signal,omitempty"`

	AuthorizedByHuman bool       `json:"authorized_by_human"`
	AuthorizedAt      *time.Time `json:"authorized_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Rubric holds the per-dimension quality sub-scores.
type Rubric struct {
	ATS       float64 `json:"ats"`
	Relevance float64 `json:"relevance"`
	Language  float64 `json:"language"`
	Comments  string  `json:"comments,omitempty"`
}
