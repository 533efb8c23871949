package interfaces

import "errors"

// Sentinel errors shared across services and storage.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrIllegalTransition is returned by the state-machine gate when the
	// requested status change is not in the legal transition table. Callers
	// must treat this as a programmer error, never swallow it.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrBlocklisted is returned when application creation targets a
	// blocklisted company.
	ErrBlocklisted = errors.New("company is blocklisted")

	// ErrRateLimited is returned when the per-company application cap for
	// the rolling window has been reached.
	ErrRateLimited = errors.New("company application rate limit reached")

	// ErrReviewExpired is returned when authorization arrives after the
	// review window has closed.
	ErrReviewExpired = errors.New("review window expired")

	// ErrSetupIncomplete is returned by operations gated on first-run setup.
	ErrSetupIncomplete = errors.New("setup not complete")
)
