package pages

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PageOptions configures the page objects.
type PageOptions struct {
	// Timeout bounds waits for single elements.
	Timeout time.Duration
	// SettleDelay is waited after actions that make the app re-render.
	SettleDelay time.Duration
	Logger      *slog.Logger
}

func (o PageOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o PageOptions) timeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return 30 * time.Second
}

// Selectors of the fogón app. Controls are found by label first, then by id or class.
const (
	selectorStartButton  = "button:has-text('Iniciar Fogón'), #iniciar-fogon, .iniciar-fogon"
	selectorCreateButton = "button:has-text('Crear Fogón'), #crear-fogon, .crear-fogon"
	selectorJoinButton   = "button:has-text('Unirse a Fogón'), #unirse-fogon, .unirse-fogon"
	selectorSessionInput = "input[placeholder*='ID del fogón'], input#fogon-id, .fogon-id-input"
	selectorSongInput    = "input[placeholder*='canción'], #cancion-input, .cancion-input"
	selectorLoadButton   = "button:has-text('Cargar Canción'), #cargar-cancion, .cargar-cancion"
	selectorAnyTextInput = "input[type='text'], input:not([type])"
	selectorPlayButton   = "button:has-text('Ir a tocar'), button:has-text('Tocar'), #tocar, .tocar"
)

// FogonPage is the page object of the fogón app.
type FogonPage struct {
	page       playwright.Page
	doc        Document
	opts       PageOptions
	sessionIDs SessionIDResolver
	nowPlaying NowPlayingResolver
}

// NewFogonPage wraps page. The page is not navigated.
func NewFogonPage(page playwright.Page, opts PageOptions) *FogonPage {
	sessionIDs := DefaultSessionIDResolver()
	sessionIDs.Logger = opts.Logger
	nowPlaying := DefaultNowPlayingResolver()
	nowPlaying.Logger = opts.Logger

	return &FogonPage{
		page:       page,
		doc:        NewPageDocument(page),
		opts:       opts,
		sessionIDs: sessionIDs,
		nowPlaying: nowPlaying,
	}
}

// Navigate opens rawURL and waits until the DOM is loaded.
func (p *FogonPage) Navigate(rawURL string) error {
	if _, err := p.page.Goto(rawURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return fmt.Errorf("navigating to %s: %w", rawURL, err)
	}
	p.opts.logger().Debug("Navigated", slog.String("url", rawURL))
	return nil
}

// StartSession starts a new fogón and returns its id. The start control is optional: when
// neither "Iniciar Fogón" nor "Crear Fogón" is on the page the id is resolved from the
// current page as is.
func (p *FogonPage) StartSession() (SessionID, error) {
	clicked, err := p.clickFirstPresent(selectorStartButton, selectorCreateButton)
	if err != nil {
		return SessionID{}, fmt.Errorf("starting session: %w", err)
	}
	if clicked {
		p.settle()
	}

	id := p.sessionIDs.Resolve(p.doc)
	p.opts.logger().Info("Session started", slog.String("sessionId", id.Value), slog.String("source", string(id.Source)))
	return id, nil
}

// SessionID resolves the id of the fogón shown on the current page.
func (p *FogonPage) SessionID() SessionID {
	return p.sessionIDs.Resolve(p.doc)
}

// LoadSong enters title into the song input and submits it with the load button, or with
// Enter when there is none. Without a song input the first plain text input is used.
// A page without any text input is left untouched.
func (p *FogonPage) LoadSong(title string) error {
	input := p.page.Locator(selectorSongInput)
	n, err := input.Count()
	if err != nil {
		return fmt.Errorf("loading song %q: %w", title, err)
	}

	if n > 0 {
		if err := input.First().Fill(title); err != nil {
			return fmt.Errorf("filling song input: %w", err)
		}
		clicked, err := p.clickFirstPresent(selectorLoadButton)
		if err != nil {
			return fmt.Errorf("loading song %q: %w", title, err)
		}
		if !clicked {
			if err := input.First().Press("Enter"); err != nil {
				return fmt.Errorf("submitting song input: %w", err)
			}
		}
	} else {
		fallback := p.page.Locator(selectorAnyTextInput).First()
		n, err := fallback.Count()
		if err != nil {
			return fmt.Errorf("loading song %q: %w", title, err)
		}
		if n == 0 {
			p.opts.logger().Warn("No song input on page", slog.String("title", title), slog.String("url", p.page.URL()))
			return nil
		}
		if err := fallback.Fill(title); err != nil {
			return fmt.Errorf("filling text input: %w", err)
		}
		if err := fallback.Press("Enter"); err != nil {
			return fmt.Errorf("submitting text input: %w", err)
		}
	}
	p.settle()

	p.opts.logger().Info("Song loaded", slog.String("title", title))
	return nil
}

// JoinSession joins the fogón with id. The id input is filled when present. Without a join
// button the current URL is reloaded with the id as "fogon" query parameter.
func (p *FogonPage) JoinSession(id string) error {
	input := p.page.Locator(selectorSessionInput)
	inputs, err := input.Count()
	if err != nil {
		return fmt.Errorf("joining session %s: %w", id, err)
	}
	if inputs > 0 {
		if err := input.First().Fill(id); err != nil {
			return fmt.Errorf("filling session id: %w", err)
		}
	}

	clicked, err := p.clickFirstPresent(selectorJoinButton)
	if err != nil {
		return fmt.Errorf("joining session %s: %w", id, err)
	}
	if !clicked {
		target, err := withQuery(p.page.URL(), "fogon", id)
		if err != nil {
			return fmt.Errorf("joining session %s: %w", id, err)
		}
		p.opts.logger().Debug("No join control, joining by URL", slog.String("url", target))
		if err := p.Navigate(target); err != nil {
			return err
		}
	}
	p.settle()

	p.opts.logger().Info("Session joined", slog.String("sessionId", id))
	return nil
}

// GoPlay clicks the play control if present. It reports whether a control was clicked.
func (p *FogonPage) GoPlay() (bool, error) {
	clicked, err := p.clickFirstPresent(selectorPlayButton)
	if err != nil {
		return false, fmt.Errorf("going to play: %w", err)
	}
	if clicked {
		p.settle()
	}
	return clicked, nil
}

// NowPlaying returns the song currently playing, or NotPlaying.
func (p *FogonPage) NowPlaying() string {
	return p.nowPlaying.Resolve(p.doc)
}

// clickFirstPresent clicks the first element of the first selector that matches anything.
func (p *FogonPage) clickFirstPresent(selectors ...string) (bool, error) {
	for _, selector := range selectors {
		locator := p.page.Locator(selector)
		n, err := locator.Count()
		if err != nil {
			return false, err
		}
		if n == 0 {
			continue
		}
		if err := locator.First().Click(); err != nil {
			return false, fmt.Errorf("clicking %s: %w", selector, err)
		}
		return true, nil
	}
	return false, nil
}

func (p *FogonPage) settle() {
	settle(p.page, p.opts.SettleDelay)
}

func settle(page playwright.Page, delay time.Duration) {
	if delay > 0 {
		page.WaitForTimeout(float64(delay.Milliseconds()))
	}
}

// withQuery returns rawURL with key set to value, replacing an existing value.
func withQuery(rawURL, key, value string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing url %q: %w", rawURL, err)
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
