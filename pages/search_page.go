package pages

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/samber/lo"
)

const (
	selectorSearchBox     = "textarea[name='q'], input[name='q']"
	selectorConsentButton = "button:has-text('Acepto'), button:has-text('Accept all'), button:has-text('I agree')"
	selectorSearchResults = "h3, .LC20lb, .yuRUbf a h3, .tF2Cxc h3, div[data-ved] h3"
	selectorResultStats   = "#result-stats, .LHJvCe, #search"

	consentTimeout    = 5 * time.Second
	resultsTimeout    = 10 * time.Second
	statsTimeout      = 5 * time.Second
	typingPause       = 500 * time.Millisecond
	checkedResultsMax = 5
)

// resultIndicators mark a search results page.
var resultIndicators = []string{"#search", "#res", ".g", ".tF2Cxc", "#result-stats"}

// SearchPage is the page object of a web search engine home and results page.
type SearchPage struct {
	page    playwright.Page
	opts    PageOptions
	box     playwright.Locator
	results playwright.Locator
	stats   playwright.Locator
}

func NewSearchPage(page playwright.Page, opts PageOptions) *SearchPage {
	return &SearchPage{
		page:    page,
		opts:    opts,
		box:     page.Locator(selectorSearchBox),
		results: page.Locator(selectorSearchResults),
		stats:   page.Locator(selectorResultStats),
	}
}

// Navigate opens rawURL and accepts a cookie consent dialog if one shows up.
func (p *SearchPage) Navigate(rawURL string) error {
	if _, err := p.page.Goto(rawURL); err != nil {
		return fmt.Errorf("navigating to %s: %w", rawURL, err)
	}

	consent := p.page.Locator(selectorConsentButton)
	if err := waitFor(consent, selectorConsentButton, playwright.WaitForSelectorStateVisible, consentTimeout); err != nil {
		p.opts.logger().Debug("No consent dialog", slog.String("url", rawURL))
		return nil
	}
	if err := consent.First().Click(); err != nil {
		return fmt.Errorf("accepting consent dialog: %w", err)
	}
	return nil
}

func (p *SearchPage) SearchBoxVisible() (bool, error) {
	return p.box.First().IsVisible()
}

// Search types term into the search box and submits it with Enter.
func (p *SearchPage) Search(term string) error {
	if err := waitFor(p.box, selectorSearchBox, playwright.WaitForSelectorStateVisible, p.opts.timeout()); err != nil {
		return err
	}
	box := p.box.First()
	if err := box.Fill(term); err != nil {
		return fmt.Errorf("filling search box: %w", err)
	}
	settle(p.page, typingPause)
	if err := box.Press("Enter"); err != nil {
		return fmt.Errorf("submitting search: %w", err)
	}
	if err := p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateDomcontentloaded,
	}); err != nil {
		return fmt.Errorf("waiting for results: %w", err)
	}

	p.opts.logger().Info("Searched", slog.String("term", term))
	return nil
}

// HasResults reports whether the current page is a results page, judged by its URL or by
// the presence of result containers.
func (p *SearchPage) HasResults() (bool, error) {
	if err := p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateDomcontentloaded,
	}); err != nil {
		return false, fmt.Errorf("waiting for results: %w", err)
	}
	settle(p.page, p.opts.SettleDelay)

	pageURL := p.page.URL()
	if strings.Contains(pageURL, "google.com/search") || strings.Contains(pageURL, "search?q=") {
		return true, nil
	}

	for _, selector := range resultIndicators {
		n, err := p.page.Locator(selector).Count()
		if err != nil {
			p.opts.logger().Debug("Counting result indicator failed", slog.String("selector", selector), slog.Any("error", err))
			continue
		}
		if n > 0 {
			return true, nil
		}
	}
	return false, nil
}

// ResultsContain reports whether one of the first result titles or the page text contains
// text, ignoring case. Results that do not show up in time count as not containing it.
func (p *SearchPage) ResultsContain(text string) (bool, error) {
	if err := waitFor(p.results, selectorSearchResults, playwright.WaitForSelectorStateVisible, resultsTimeout); err != nil {
		var notFound *ElementNotFoundError
		if errors.As(err, &notFound) && notFound.IsTimeout() {
			return false, nil
		}
		return false, err
	}

	all, err := p.results.All()
	if err != nil {
		return false, fmt.Errorf("listing results: %w", err)
	}
	for _, result := range lo.Subset(all, 0, checkedResultsMax) {
		title, err := result.TextContent()
		if err != nil {
			continue
		}
		if containsFold(title, text) {
			return true, nil
		}
	}

	content, err := p.page.Content()
	if err != nil {
		return false, fmt.Errorf("reading page content: %w", err)
	}
	return containsFold(PageText(content), text), nil
}

func (p *SearchPage) ResultCount() (int, error) {
	return p.results.Count()
}

// ResultStats returns the result statistics line, or "" when the page has none.
func (p *SearchPage) ResultStats() string {
	if err := waitFor(p.stats, selectorResultStats, playwright.WaitForSelectorStateAttached, statsTimeout); err != nil {
		return ""
	}
	text, err := p.stats.First().TextContent()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
