package forms

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/interfaces"
	"github.com/ternarybob/solicita/internal/models"
)

// detectFieldsScript enumerates every interactive field on the page. Labels
// are resolved through a fixed ladder (aria attributes, label elements,
// placeholder, preceding text, name) and each field gets a stable CSS
// selector for later fills.
const detectFieldsScript = `(() => {
	const fields = [];
	const seen = new Set();

	function getLabel(el) {
		const ariaLabel = el.getAttribute('aria-label');
		if (ariaLabel && ariaLabel.trim()) return ariaLabel.trim();

		const labelledById = el.getAttribute('aria-labelledby');
		if (labelledById) {
			const labelEl = document.getElementById(labelledById);
			if (labelEl) return labelEl.textContent.trim();
		}

		const id = el.id;
		if (id) {
			const labelEl = document.querySelector('label[for="' + id + '"]');
			if (labelEl) return labelEl.textContent.trim();
		}

		const parentLabel = el.closest('label');
		if (parentLabel) {
			const text = parentLabel.textContent.replace(el.value || '', '').trim();
			if (text) return text;
		}

		const placeholder = el.getAttribute('placeholder');
		if (placeholder && placeholder.trim()) return placeholder.trim();

		let prev = el.previousElementSibling;
		for (let i = 0; i < 3 && prev; i++) {
			const text = prev.textContent.trim();
			if (text && text.length < 80) return text;
			prev = prev.previousElementSibling;
		}

		return el.name || el.id || '';
	}

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

	function isVisible(el) {
		const style = window.getComputedStyle(el);
		if (style.display === 'none' || style.visibility === 'hidden') return false;
		if (parseFloat(style.opacity) === 0) return false;
		const rect = el.getBoundingClientRect();
		return rect.width > 0 && rect.height > 0;
	}

	document.querySelectorAll('input').forEach(el => {
		const type = (el.type || 'text').toLowerCase();
		if (type === 'hidden' || type === 'submit' || type === 'button' ||
			type === 'image' || type === 'password') return;
		const ref = getSelector(el);
		if (seen.has(ref)) return;
		seen.add(ref);

		fields.push({
			tag: 'input',
			type: type === 'email' ? 'email'
				: type === 'tel' ? 'tel'
				: type === 'number' ? 'number'
				: type === 'date' || type === 'month' || type === 'week' ||
				  type === 'time' || type === 'datetime-local' ? 'date'
				: type === 'range' ? 'range'
				: type === 'file' ? 'file'
				: type === 'radio' ? 'radio'
				: type === 'checkbox' ? 'checkbox'
				: 'text',
			name: el.name || el.id || '',
			label: getLabel(el),
			required: el.required || el.getAttribute('aria-required') === 'true',
			options: [],
			ref: ref,
			visible: isVisible(el),
			value: el.value || '',
		});
	});

	document.querySelectorAll('textarea').forEach(el => {
		const ref = getSelector(el);
		if (seen.has(ref)) return;
		seen.add(ref);
		fields.push({
			tag: 'textarea',
			type: 'textarea',
			name: el.name || el.id || '',
			label: getLabel(el),
			required: el.required || el.getAttribute('aria-required') === 'true',
			options: [],
			ref: ref,
			visible: isVisible(el),
			value: el.value || '',
		});
	});

	document.querySelectorAll('select').forEach(el => {
		const ref = getSelector(el);
		if (seen.has(ref)) return;
		seen.add(ref);
		const options = Array.from(el.options)
			.filter(opt => opt.value !== '')
			.map(opt => opt.text.trim() || opt.value);
		fields.push({
			tag: 'select',
			type: 'select',
			name: el.name || el.id || '',
			label: getLabel(el),
			required: el.required || el.getAttribute('aria-required') === 'true',
			options: options,
			ref: ref,
			visible: isVisible(el),
			value: el.value || '',
		});
	});

	return fields;
})()`

// DetectFields enumerates and classifies the interactive fields on the
// current page.
func DetectFields(ctx context.Context, page interfaces.Page, logger arbor.ILogger) ([]models.FormField, error) {
	var fields []models.FormField
	if err := page.Evaluate(ctx, detectFieldsScript, &fields); err != nil {
		return nil, fmt.Errorf("field detection failed: %w", err)
	}
	logger.Info().Int("field_count", len(fields)).Msg("Form fields detected")
	return fields, nil
}
