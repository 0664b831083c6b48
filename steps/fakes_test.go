package steps

import (
	"os"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// fakeApp is the shared state of all fake pages: which elements exist and what the pages
// contain. Every selector not listed counts as absent.
type fakeApp struct {
	mu      sync.Mutex
	content string
	title   string
}

// locator is embedded under another name; a field named Locator would hide the Locator method.
type locator = playwright.Locator

type fakeLocator struct {
	locator
}

func (l *fakeLocator) Count() (int, error) {
	return 0, nil
}

func (l *fakeLocator) First() playwright.Locator {
	return l
}

type fakePage struct {
	playwright.Page
	app *fakeApp

	mu     sync.Mutex
	url    string
	visits []string
}

func (p *fakePage) Locator(string, ...playwright.PageLocatorOptions) playwright.Locator {
	return &fakeLocator{}
}

func (p *fakePage) Goto(url string, _ ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
	p.visits = append(p.visits, url)
	return nil, nil
}

func (p *fakePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *fakePage) Visits() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.visits...)
}

func (p *fakePage) WaitForTimeout(float64) {}

func (p *fakePage) Content() (string, error) {
	p.app.mu.Lock()
	defer p.app.mu.Unlock()
	return p.app.content, nil
}

func (p *fakePage) Title() (string, error) {
	p.app.mu.Lock()
	defer p.app.mu.Unlock()
	return p.app.title, nil
}

func (p *fakePage) Screenshot(options ...playwright.PageScreenshotOptions) ([]byte, error) {
	data := []byte("png")
	if len(options) > 0 && options[0].Path != nil {
		if err := os.WriteFile(*options[0].Path, data, 0o644); err != nil {
			return nil, err
		}
	}
	return data, nil
}

type fakeContext struct {
	playwright.BrowserContext
	page *fakePage

	mu     sync.Mutex
	closed bool
}

func (c *fakeContext) NewPage() (playwright.Page, error) {
	return c.page, nil
}

func (c *fakeContext) Close(...playwright.BrowserContextCloseOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeContext) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type fakeFactory struct {
	app *fakeApp

	mu       sync.Mutex
	contexts []*fakeContext
}

func newFakeFactory(content string) *fakeFactory {
	return &fakeFactory{app: &fakeApp{content: content, title: "Fogón"}}
}

func (f *fakeFactory) NewContext() (playwright.BrowserContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &fakeContext{page: &fakePage{app: f.app}}
	f.contexts = append(f.contexts, c)
	return c, nil
}

func (f *fakeFactory) Contexts() []*fakeContext {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeContext(nil), f.contexts...)
}
