// Package pages holds the page objects of the fogón app and the search flow.
//
// Page objects expose what a user does on a screen (start a session, load a song, read
// what is playing) and hide the selectors. State that the UI only shows in unstructured
// form is recovered by resolvers that try an ordered list of strategies; the first
// strategy that finds something wins.
package pages

import (
	"github.com/playwright-community/playwright-go"
)

// Document is the read-only view of a page that resolvers work on.
// Attribute and Text read the first element matching the selector.
type Document interface {
	URL() string
	Count(selector string) (int, error)
	Attribute(selector, name string) (string, error)
	Text(selector string) (string, error)
	Content() (string, error)
}

// NewPageDocument returns a Document backed by a live Playwright page.
func NewPageDocument(page playwright.Page) Document {
	return &pageDocument{page: page}
}

type pageDocument struct {
	page playwright.Page
}

func (d *pageDocument) URL() string {
	return d.page.URL()
}

func (d *pageDocument) Count(selector string) (int, error) {
	return d.page.Locator(selector).Count()
}

func (d *pageDocument) Attribute(selector, name string) (string, error) {
	return d.page.Locator(selector).First().GetAttribute(name)
}

func (d *pageDocument) Text(selector string) (string, error) {
	return d.page.Locator(selector).First().TextContent()
}

func (d *pageDocument) Content() (string, error) {
	return d.page.Content()
}
