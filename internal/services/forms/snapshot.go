package forms

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/interfaces"
	"github.com/ternarybob/solicita/internal/models"
)

// serializeFieldsScript reads every field's current value keyed by a stable
// selector. File inputs report the source path recorded at fill time since
// the DOM cannot expose it.
const serializeFieldsScript = `(() => {
	const result = {};

	function getSelector(el) {
		if (el.id) return '#' + CSS.escape(el.id);
		const tag = el.tagName.toLowerCase();
		if (el.name) {
			const matches = document.querySelectorAll(tag + '[name="' + el.name + '"]');
			if (matches.length === 1) return tag + '[name="' + CSS.escape(el.name) + '"]';
			const idx = Array.from(matches).indexOf(el);
			return tag + '[name="' + CSS.escape(el.name) + '"]:nth-of-type(' + (idx + 1) + ')';
		}
		const siblings = Array.from(el.parentElement
			? el.parentElement.querySelectorAll(tag)
			: document.querySelectorAll(tag));
		const idx = siblings.indexOf(el);
		return idx >= 0 ? tag + ':nth-of-type(' + (idx + 1) + ')' : tag;
	}

	document.querySelectorAll('input, textarea, select').forEach(el => {
		const type = (el.type || '').toLowerCase();
		if (type === 'hidden' || type === 'submit' || type === 'button' || type === 'image') return;
		const ref = getSelector(el);
		if (!ref) return;

		if (type === 'checkbox' || type === 'radio') {
			result[ref] = String(el.checked);
		} else if (type === 'file') {
			result[ref] = el.getAttribute('data-filled-path') || '';
		} else {
			result[ref] = el.value || '';
		}
	});

	return result;
})()`

// FieldMismatch records one divergence between the snapshot and the live form.
type FieldMismatch struct {
	Ref      string `json:"ref"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// TakeSnapshot serializes the current form state for later replay.
func TakeSnapshot(ctx context.Context, page interfaces.Page) (*models.FormSnapshot, error) {
	url, err := page.URL(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read page URL: %w", err)
	}
	fields := make(map[string]string)
	if err := page.Evaluate(ctx, serializeFieldsScript, &fields); err != nil {
		return nil, fmt.Errorf("failed to serialize form fields: %w", err)
	}
	return &models.FormSnapshot{URL: url, Fields: fields}, nil
}

// Replay re-fills the form from the snapshot without human pacing and
// returns the number of fields written.
func Replay(ctx context.Context, page interfaces.Page, snapshot *models.FormSnapshot, logger arbor.ILogger) (int, error) {
	filled := 0
	for _, ref := range sortedRefs(snapshot.Fields) {
		value := snapshot.Fields[ref]
		if ref == "" || value == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return filled, err
		}

		tag, fieldType, err := elementKind(ctx, page, ref)
		if err != nil || tag == "" {
			continue
		}

		switch {
		case tag == "select":
			if err := page.SelectOption(ctx, ref, value); err == nil {
				filled++
			}
		case fieldType == "file":
			if _, err := os.Stat(value); err == nil {
				if err := page.SetInputFiles(ctx, ref, value); err == nil {
					filled++
				}
			}
		case fieldType == "checkbox" || fieldType == "radio":
			want := value == "true"
			current, err := page.IsChecked(ctx, ref)
			if err != nil {
				continue
			}
			if current != want {
				if err := page.Click(ctx, ref); err != nil {
					continue
				}
			}
			filled++
		default:
			if err := page.Fill(ctx, ref, value); err == nil {
				filled++
			}
		}
	}
	logger.Info().Int("filled_count", filled).Msg("Form replayed from snapshot")
	return filled, nil
}

// VerifyFields compares the live form against the snapshot and returns the
// mismatched fields.
func VerifyFields(ctx context.Context, page interfaces.Page, snapshot *models.FormSnapshot) []FieldMismatch {
	var mismatches []FieldMismatch
	for _, ref := range sortedRefs(snapshot.Fields) {
		expected := snapshot.Fields[ref]
		if ref == "" {
			continue
		}
		script := fmt.Sprintf(`(() => {
			const el = document.querySelector(%s);
			return el ? String(el.value) : null;
		})()`, jsString(ref))
		var actual *string
		if err := page.Evaluate(ctx, script, &actual); err != nil || actual == nil {
			continue
		}
		if strings.TrimSpace(*actual) != strings.TrimSpace(expected) {
			mismatches = append(mismatches, FieldMismatch{
				Ref:      ref,
				Expected: truncateValue(expected),
				Actual:   truncateValue(*actual),
			})
		}
	}
	return mismatches
}

// elementKind resolves the tag and input type behind a selector.
func elementKind(ctx context.Context, page interfaces.Page, ref string) (string, string, error) {
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return { tag: '', type: '' };
		return { tag: el.tagName.toLowerCase(), type: (el.type || 'text').toLowerCase() };
	})()`, jsString(ref))
	var kind struct {
		Tag  string `json:"tag"`
		Type string `json:"type"`
	}
	if err := page.Evaluate(ctx, script, &kind); err != nil {
		return "", "", err
	}
	return kind.Tag, kind.Type, nil
}

func sortedRefs(fields map[string]string) []string {
	refs := make([]string, 0, len(fields))
	for ref := range fields {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

func truncateValue(s string) string {
	if len(s) > 50 {
		return s[:50]
	}
	return s
}
