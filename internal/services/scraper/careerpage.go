package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/solicita/internal/common"
	"github.com/ternarybob/solicita/internal/interfaces"
	"github.com/ternarybob/solicita/internal/models"
)

// fallbackSelectors are tried in order when a catalogue entry configures no
// CSS selector.
var fallbackSelectors = []string{
	"[class*='job']",
	"[class*='position']",
	"[class*='vacancy']",
	"[class*='opening']",
	"[class*='career']",
	"[class*='role']",
	"article",
	"li[class]",
}

// CareerPageAdapter scrapes arbitrary company career pages through a real
// browser page (many are JS-rendered), then extracts listings with CSS
// selectors from the catalogue.
type CareerPageAdapter struct {
	runtime *Runtime
}

// NewCareerPageAdapter creates the adapter.
func NewCareerPageAdapter(runtime *Runtime) *CareerPageAdapter {
	return &CareerPageAdapter{runtime: runtime}
}

func (a *CareerPageAdapter) Site() string { return "career_page" }

// Scrape walks the enabled career_page catalogue entries.
func (a *CareerPageAdapter) Scrape(ctx context.Context, session interfaces.ScrapeSession) ([]*models.Posting, error) {
	entries, err := a.runtime.storage.Catalogue().ListEnabled(ctx, models.AdapterCareerPage)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		a.runtime.logger.Info().Msg("No career pages configured")
		return nil, nil
	}
	if a.runtime.pages == nil {
		return nil, fmt.Errorf("career_page adapter requires a browser pool")
	}

	var postings []*models.Posting
	for _, entry := range entries {
		jobs, err := a.scrapeEntry(ctx, session, entry)
		if err != nil {
			a.runtime.logger.Warn().Err(err).
				Str("company", entry.Company).
				Str("url", entry.URL).
				Msg("Career page scrape failed")
			continue
		}
		postings = append(postings, jobs...)

		if err := session.Delay(ctx); err != nil {
			return postings, err
		}
	}
	return postings, nil
}

func (a *CareerPageAdapter) scrapeEntry(ctx context.Context, session interfaces.ScrapeSession, entry *models.SourceCatalogueEntry) ([]*models.Posting, error) {
	page, err := a.runtime.pages.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer a.runtime.pages.Release(page)

	if err := page.Goto(ctx, entry.URL, 45*time.Second); err != nil {
		return nil, fmt.Errorf("navigation failed: %w", err)
	}
	// Trigger lazy loading before reading the DOM.
	_ = page.Evaluate(ctx, "window.scrollTo(0, document.body.scrollHeight)", nil)
	time.Sleep(time.Second)
	_ = page.Evaluate(ctx, "window.scrollTo(0, 0)", nil)

	var html string
	if err := page.Evaluate(ctx, "document.documentElement.outerHTML", &html); err != nil {
		return nil, fmt.Errorf("failed to read page HTML: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}

	selection := a.findListings(doc, entry.Selector)
	if selection == nil || selection.Length() == 0 {
		a.runtime.logger.Warn().
			Str("company", entry.Company).
			Str("url", entry.URL).
			Msg("No job elements found on career page")
		return nil, nil
	}

	session.ReportStructure(outline(selection))

	var postings []*models.Posting
	selection.Each(func(i int, el *goquery.Selection) {
		title := listingTitle(el)
		if title == "" || len(title) > 200 {
			return
		}
		link := resolveLink(entry.URL, el)
		postings = append(postings, &models.Posting{
			SourceID:   a.Site(),
			ExternalID: common.MakeExternalID(a.Site(), title, entry.Company, entry.URL, ""),
			URL:        link,
			Title:      title,
			Company:    entry.Company,
			Location:   "España",
			Description: strings.TrimSpace(el.Text()),
			Profile:    entry.Profile,
			RawData: models.NewStructuredPayload(map[string]any{
				"source_url": entry.URL,
				"selector":   entry.Selector,
			}),
		})
	})
	return postings, nil
}

// findListings returns the first selector that yields elements: the
// configured one, then the fallback ladder.
func (a *CareerPageAdapter) findListings(doc *goquery.Document, configured string) *goquery.Selection {
	if configured != "" {
		if sel := doc.Find(configured); sel.Length() > 0 {
			return sel
		}
	}
	for _, selector := range fallbackSelectors {
		if sel := doc.Find(selector); sel.Length() >= 2 {
			return sel
		}
	}
	return nil
}

// listingTitle prefers heading or anchor text over the raw element text.
func listingTitle(el *goquery.Selection) string {
	for _, inner := range []string{"h1", "h2", "h3", "h4", "a"} {
		if text := strings.TrimSpace(el.Find(inner).First().Text()); text != "" {
			return collapseSpaces(text)
		}
	}
	return collapseSpaces(strings.TrimSpace(el.Text()))
}

func resolveLink(baseURL string, el *goquery.Selection) string {
	href, ok := el.Find("a").First().Attr("href")
	if !ok {
		if h, selfOK := el.Attr("href"); selfOK {
			href = h
		}
	}
	if href == "" {
		return baseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return baseURL
	}
	return base.ResolveReference(ref).String()
}

// outline canonicalises the matched elements into a tag/class skeleton for
// the drift hash; text content deliberately excluded so only layout changes
// move the hash.
func outline(sel *goquery.Selection) string {
	var b strings.Builder
	sel.Each(func(i int, el *goquery.Selection) {
		tag := goquery.NodeName(el)
		class, _ := el.Attr("class")
		fmt.Fprintf(&b, "%s.%s;", tag, class)
	})
	return b.String()
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
