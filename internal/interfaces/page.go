package interfaces

import (
	"context"
	"time"
)

// Page is the opaque browser capability the form protocol operates against.
// The core never depends on a specific engine; tests substitute a simulated
// page that records operations.
type Page interface {
	Goto(ctx context.Context, url string, timeout time.Duration) error
	URL(ctx context.Context) (string, error)
	Screenshot(ctx context.Context, path string, fullPage bool) error
	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	// Type fills the field one keystroke at a time with the given per-key delay.
	Type(ctx context.Context, selector, value string, delay time.Duration) error
	SelectOption(ctx context.Context, selector, value string) error
	SetInputFiles(ctx context.Context, selector, path string) error
	IsChecked(ctx context.Context, selector string) (bool, error)
	// Evaluate runs the script in page context and unmarshals its JSON
	// result into out (out may be nil to discard).
	Evaluate(ctx context.Context, script string, out any) error
	// QuerySelector reports whether the selector matches a current element.
	QuerySelector(ctx context.Context, selector string) (bool, error)
	// Text returns the visible body text of the page.
	Text(ctx context.Context) (string, error)
	Close() error
}

// PagePool hands out pages backed by a shared browser instance.
type PagePool interface {
	Acquire(ctx context.Context) (Page, error)
	Release(page Page)
	Shutdown()
}
