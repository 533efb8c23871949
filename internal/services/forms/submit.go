package forms

import (
	"context"
	"errors"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/interfaces"
)

// ErrSubmitButtonNotFound is returned when no submit control can be located.
var ErrSubmitButtonNotFound = errors.New("submit_button_not_found")

// Attribute-based submit selectors, tried before text matching.
var submitSelectors = []string{
	"button[type='submit']",
	"input[type='submit']",
	"[data-testid='submit']",
	"[data-testid='apply']",
	".submit-btn",
	".apply-btn",
	"#submit",
	"#apply",
}

// findSubmitByTextScript scans clickable elements for submission verbs and
// returns a selector for the first visible match, or an empty string.
const findSubmitByTextScript = `(() => {
	const verbs = ['enviar', 'aplicar', 'solicitar', 'inscribirme', 'submit', 'apply'];

	function getSelector(el) {
		if (el.id) return '#' + CSS.escape(el.id);
		const tag = el.tagName.toLowerCase();
		const siblings = Array.from(el.parentElement
			? el.parentElement.querySelectorAll(tag)
			: document.querySelectorAll(tag));
		const idx = siblings.indexOf(el);
		return idx >= 0 ? tag + ':nth-of-type(' + (idx + 1) + ')' : tag;
	}

	function isVisible(el) {
		const style = window.getComputedStyle(el);
		if (style.display === 'none' || style.visibility === 'hidden') return false;
		const rect = el.getBoundingClientRect();
		return rect.width > 0 && rect.height > 0;
	}

	const candidates = document.querySelectorAll('button, input[type="button"], a[role="button"]');
	for (const el of candidates) {
		if (!isVisible(el)) continue;
		const text = (el.textContent || el.value || '').trim().toLowerCase();
		if (!text) continue;
		if (verbs.some(v => text.includes(v))) return getSelector(el);
	}
	return '';
})()`

// ClickSubmit locates and clicks the form's submit control: attribute
// selectors first, then visible buttons carrying a submission verb.
func ClickSubmit(ctx context.Context, page interfaces.Page, logger arbor.ILogger) error {
	for _, selector := range submitSelectors {
		found, err := page.QuerySelector(ctx, selector)
		if err != nil || !found {
			continue
		}
		if err := page.Click(ctx, selector); err != nil {
			logger.Warn().Err(err).Str("selector", selector).Msg("Submit click failed")
			continue
		}
		logger.Info().Str("selector", selector).Msg("Submit button clicked")
		return nil
	}

	var selector string
	if err := page.Evaluate(ctx, findSubmitByTextScript, &selector); err == nil && selector != "" {
		if err := page.Click(ctx, selector); err == nil {
			logger.Info().Str("selector", selector).Msg("Submit button clicked")
			return nil
		}
	}

	return ErrSubmitButtonNotFound
}
