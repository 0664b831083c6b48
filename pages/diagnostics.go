package pages

import (
	"github.com/playwright-community/playwright-go"
)

// Diagnostics describes the state of a page at the moment a scenario failed.
type Diagnostics struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	Screenshot string `json:"screenshot,omitempty"`
	Err        error  `json:"-"`
}

// CaptureDiagnostics reads URL and title of page and writes a full page screenshot to
// screenshotPath. Failures are reported in Err; the fields that could be read are kept.
func CaptureDiagnostics(page playwright.Page, screenshotPath string) Diagnostics {
	d := Diagnostics{URL: page.URL()}

	title, err := page.Title()
	if err != nil {
		d.Err = err
		return d
	}
	d.Title = title

	if screenshotPath == "" {
		return d
	}
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(screenshotPath),
		FullPage: playwright.Bool(true),
	}); err != nil {
		d.Err = err
		return d
	}
	d.Screenshot = screenshotPath
	return d
}
