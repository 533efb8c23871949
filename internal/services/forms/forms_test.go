package forms

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"
)

// evalRule resolves a script to a canned result by substring match. Rules
// are checked in order, first match wins.
type evalRule struct {
	fragment string
	result   any
}

// fakePage is a scripted in-memory page. Mutating methods record what was
// done; tests may change url, text and formCount mid-run to simulate the
// page reacting to a submit.
type fakePage struct {
	mu sync.Mutex

	url       string
	text      string
	formCount int
	checked   map[string]bool
	selectors map[string]bool
	evalRules []evalRule

	clicks      []string
	fills       map[string][]string
	typed       map[string]string
	selected    map[string]string
	files       map[string]string
	screenshots []string
}

func newFakePage() *fakePage {
	return &fakePage{
		url:       "https://careers.example.com/apply",
		checked:   make(map[string]bool),
		selectors: make(map[string]bool),
		fills:     make(map[string][]string),
		typed:     make(map[string]string),
		selected:  make(map[string]string),
		files:     make(map[string]string),
	}
}

func (p *fakePage) setURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
}

func (p *fakePage) setText(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.text = text
}

func (p *fakePage) setFormCount(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.formCount = n
}

func (p *fakePage) Goto(ctx context.Context, url string, timeout time.Duration) error {
	p.setURL(url)
	return nil
}

func (p *fakePage) URL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func (p *fakePage) Screenshot(ctx context.Context, path string, fullPage bool) error {
	p.mu.Lock()
	p.screenshots = append(p.screenshots, path)
	p.mu.Unlock()
	return os.WriteFile(path, []byte("png"), 0o644)
}

func (p *fakePage) Fill(ctx context.Context, selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fills[selector] = append(p.fills[selector], value)
	return nil
}

func (p *fakePage) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clicks = append(p.clicks, selector)
	if _, ok := p.checked[selector]; ok {
		p.checked[selector] = !p.checked[selector]
	}
	return nil
}

func (p *fakePage) Type(ctx context.Context, selector, value string, delay time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.typed[selector] = value
	return nil
}

func (p *fakePage) SelectOption(ctx context.Context, selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selected[selector] = value
	return nil
}

func (p *fakePage) SetInputFiles(ctx context.Context, selector, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files[selector] = path
	return nil
}

func (p *fakePage) IsChecked(ctx context.Context, selector string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.checked[selector], nil
}

func (p *fakePage) Evaluate(ctx context.Context, script string, out any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if strings.Contains(script, "querySelectorAll('form')") {
		return assign(p.formCount, out)
	}
	for _, rule := range p.evalRules {
		if strings.Contains(script, rule.fragment) {
			return assign(rule.result, out)
		}
	}
	return nil
}

func (p *fakePage) QuerySelector(ctx context.Context, selector string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selectors[selector], nil
}

func (p *fakePage) Text(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.text, nil
}

func (p *fakePage) Close() error { return nil }

func assign(value, out any) error {
	if out == nil {
		return nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
