package forms

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/common"
	"github.com/ternarybob/solicita/internal/interfaces"
)

const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Pool hands out browser tabs backed by a single headless Chrome instance
// with a persistent profile, so session cookies survive across runs.
type Pool struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	logger      arbor.ILogger
}

// NewPool starts the browser allocator. Tabs are created lazily on Acquire.
func NewPool(cfg *common.Config, logger arbor.ILogger) *Pool {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserDataDir(cfg.BrowserProfilesDir()),
		chromedp.UserAgent(browserUserAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &Pool{allocCtx: allocCtx, allocCancel: allocCancel, logger: logger}
}

// Acquire opens a new tab.
func (p *Pool) Acquire(ctx context.Context) (interfaces.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tabCtx, tabCancel := chromedp.NewContext(p.allocCtx)
	// Force browser startup now so Acquire fails fast when Chrome is missing.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to start browser tab: %w", err)
	}
	p.logger.Debug().Msg("Browser tab acquired")
	return &page{ctx: tabCtx, cancel: tabCancel}, nil
}

// Release closes the tab.
func (p *Pool) Release(pg interfaces.Page) {
	if pg != nil {
		_ = pg.Close()
	}
}

// Shutdown tears down the browser instance.
func (p *Pool) Shutdown() {
	p.allocCancel()
	p.logger.Debug().Msg("Browser pool shut down")
}

// page adapts a chromedp tab context to the Page interface.
type page struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func (p *page) Goto(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	navCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	return chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (p *page) URL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var url string
	if err := chromedp.Run(p.ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

func (p *page) Screenshot(ctx context.Context, path string, fullPage bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf []byte
	var action chromedp.Action
	if fullPage {
		action = chromedp.FullScreenshot(&buf, 90)
	} else {
		action = chromedp.CaptureScreenshot(&buf)
	}
	if err := chromedp.Run(p.ctx, action); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

func (p *page) Fill(ctx context.Context, selector, value string) error {
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		el.value = %s;
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
		return true;
	})()`, jsString(selector), jsString(value))
	var ok bool
	if err := p.Evaluate(ctx, script, &ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no element matches %s", selector)
	}
	return nil
}

func (p *page) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(p.ctx, chromedp.Click(selector, chromedp.ByQuery))
}

func (p *page) Type(ctx context.Context, selector, value string, delay time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := chromedp.Run(p.ctx, chromedp.Focus(selector, chromedp.ByQuery)); err != nil {
		return err
	}
	for _, r := range value {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := chromedp.Run(p.ctx, chromedp.SendKeys(selector, string(r), chromedp.ByQuery)); err != nil {
			return err
		}
		time.Sleep(delay)
	}
	return nil
}

func (p *page) SelectOption(ctx context.Context, selector, value string) error {
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el || el.tagName.toLowerCase() !== 'select') return false;
		const want = %s;
		for (const opt of el.options) {
			if (opt.value === want || opt.text.trim() === want) {
				el.value = opt.value;
				el.dispatchEvent(new Event('input', { bubbles: true }));
				el.dispatchEvent(new Event('change', { bubbles: true }));
				return true;
			}
		}
		return false;
	})()`, jsString(selector), jsString(value))
	var ok bool
	if err := p.Evaluate(ctx, script, &ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no option %q in %s", value, selector)
	}
	return nil
}

func (p *page) SetInputFiles(ctx context.Context, selector, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := chromedp.Run(p.ctx, chromedp.SetUploadFiles(selector, []string{path}, chromedp.ByQuery)); err != nil {
		return err
	}
	// The DOM cannot reflect file paths, so record the source for snapshots.
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (el) el.setAttribute('data-filled-path', %s);
		return true;
	})()`, jsString(selector), jsString(path))
	return p.Evaluate(ctx, script, nil)
}

func (p *page) IsChecked(ctx context.Context, selector string) (bool, error) {
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		return !!(el && el.checked);
	})()`, jsString(selector))
	var checked bool
	if err := p.Evaluate(ctx, script, &checked); err != nil {
		return false, err
	}
	return checked, nil
}

func (p *page) Evaluate(ctx context.Context, script string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if out == nil {
		var discard json.RawMessage
		out = &discard
	}
	return chromedp.Run(p.ctx, chromedp.Evaluate(script, out))
}

func (p *page) QuerySelector(ctx context.Context, selector string) (bool, error) {
	script := fmt.Sprintf(`document.querySelector(%s) !== null`, jsString(selector))
	var found bool
	if err := p.Evaluate(ctx, script, &found); err != nil {
		return false, err
	}
	return found, nil
}

func (p *page) Text(ctx context.Context) (string, error) {
	var text string
	if err := p.Evaluate(ctx, `document.body ? document.body.innerText : ''`, &text); err != nil {
		return "", err
	}
	return text, nil
}

func (p *page) Close() error {
	p.cancel()
	return nil
}

// jsString renders s as a JS string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
