package pages

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/gofrs/uuid"
)

// Probe looks up one candidate value. ok is false when the candidate is absent.
type Probe func() (value string, ok bool)

// FirstPresent runs the probes in order and returns the value of the first present one.
// Later probes are not run.
func FirstPresent(probes ...Probe) (string, bool) {
	for _, probe := range probes {
		if value, ok := probe(); ok {
			return value, true
		}
	}
	return "", false
}

// IDSource tells where a SessionID came from.
type IDSource string

const (
	IDFromURL     IDSource = "url"
	IDFromElement IDSource = "element"
	// IDSynthetic ids are made up locally and are unknown to the server.
	IDSynthetic IDSource = "synthetic"
)

// SessionID identifies a joinable fogón.
type SessionID struct {
	Value  string
	Source IDSource
}

// Synthetic reports whether the id was made up locally. A second actor cannot join it.
func (id SessionID) Synthetic() bool {
	return id.Source == IDSynthetic
}

func (id SessionID) String() string {
	return id.Value
}

// SessionIDResolver recovers the id of the current fogón from the page.
//
// Order: URL patterns (first capturing group of the first matching pattern), then the
// first present element of Selectors (each attribute of Attributes, then its trimmed
// text; first non-blank wins), then Synthesize.
type SessionIDResolver struct {
	URLPatterns []*regexp.Regexp
	Selectors   []string
	Attributes  []string
	Synthesize  func() string
	Logger      *slog.Logger
}

// DefaultSessionIDResolver returns the resolver for the fogón app markup.
func DefaultSessionIDResolver() SessionIDResolver {
	return SessionIDResolver{
		URLPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)fogon[/=](\w+)`),
			regexp.MustCompile(`(?i)id[/=](\w+)`),
			regexp.MustCompile(`(?i)session[/=](\w+)`),
		},
		Selectors: []string{
			"#fogon-id",
			".fogon-id",
			"[data-fogon-id]",
			".session-id",
			"#session-id",
			"[data-session-id]",
		},
		Attributes: []string{"data-fogon-id", "data-session-id"},
		Synthesize: SyntheticSessionID,
	}
}

// SyntheticSessionID returns a new local id. Every call returns a different value.
func SyntheticSessionID() string {
	return "test-fogon-" + uuid.Must(uuid.NewV7()).String()
}

// Resolve never fails; the last strategy always produces an id.
func (r SessionIDResolver) Resolve(doc Document) SessionID {
	strategies := []struct {
		source IDSource
		probe  Probe
	}{
		{IDFromURL, func() (string, bool) { return r.fromURL(doc.URL()) }},
		{IDFromElement, func() (string, bool) { return r.fromElements(doc) }},
	}
	for _, s := range strategies {
		if value, ok := s.probe(); ok {
			return SessionID{Value: value, Source: s.source}
		}
	}

	synthesize := r.Synthesize
	if synthesize == nil {
		synthesize = SyntheticSessionID
	}
	id := SessionID{Value: synthesize(), Source: IDSynthetic}
	r.logger().Debug("No session id on page, using synthetic id", slog.String("id", id.Value), slog.String("url", doc.URL()))
	return id
}

func (r SessionIDResolver) fromURL(pageURL string) (string, bool) {
	for _, pattern := range r.URLPatterns {
		if m := pattern.FindStringSubmatch(pageURL); len(m) > 1 && m[1] != "" {
			return m[1], true
		}
	}
	return "", false
}

func (r SessionIDResolver) fromElements(doc Document) (string, bool) {
	for _, selector := range r.Selectors {
		if !present(doc, selector, r.logger()) {
			continue
		}

		probes := make([]Probe, 0, len(r.Attributes)+1)
		for _, attr := range r.Attributes {
			probes = append(probes, nonBlank(func() (string, error) { return doc.Attribute(selector, attr) }, selector, r.logger()))
		}
		probes = append(probes, nonBlank(func() (string, error) { return doc.Text(selector) }, selector, r.logger()))

		if value, ok := FirstPresent(probes...); ok {
			return value, true
		}
	}
	return "", false
}

func (r SessionIDResolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// NotPlaying is returned by NowPlayingResolver when nothing identifies the current song.
const NotPlaying = "No se encontró canción en reproducción"

// NowPlayingResolver reads the song that is currently playing.
//
// Order: the trimmed text of DisplaySelector if non-blank, then the first of
// HeadingSelectors whose text contains Sentinel (case-insensitive), then PagePhrase if the
// page text contains it, then NotFound. Songs whose titles do not contain the sentinel are
// only found through the dedicated display.
type NowPlayingResolver struct {
	DisplaySelector  string
	HeadingSelectors []string
	Sentinel         string
	PagePhrase       string
	NotFound         string
	Logger           *slog.Logger
}

// DefaultNowPlayingResolver returns the resolver for the fogón app markup.
func DefaultNowPlayingResolver() NowPlayingResolver {
	return NowPlayingResolver{
		DisplaySelector: "#cancion-actual, .cancion-actual, .current-song",
		HeadingSelectors: []string{
			"h1", "h2", "h3",
			".title", ".song-title",
			".now-playing", ".current-track",
			"[data-song]",
		},
		Sentinel:   "nonino",
		PagePhrase: "adios nonino",
		NotFound:   NotPlaying,
	}
}

// Resolve never fails; NotFound is returned when every strategy comes up empty.
func (r NowPlayingResolver) Resolve(doc Document) string {
	value, ok := FirstPresent(
		func() (string, bool) { return r.fromDisplay(doc) },
		func() (string, bool) { return r.fromHeadings(doc) },
		func() (string, bool) { return r.fromPageText(doc) },
	)
	if !ok {
		return r.NotFound
	}
	return value
}

func (r NowPlayingResolver) fromDisplay(doc Document) (string, bool) {
	if r.DisplaySelector == "" || !present(doc, r.DisplaySelector, r.logger()) {
		return "", false
	}
	return nonBlank(func() (string, error) { return doc.Text(r.DisplaySelector) }, r.DisplaySelector, r.logger())()
}

func (r NowPlayingResolver) fromHeadings(doc Document) (string, bool) {
	sentinel := strings.ToLower(r.Sentinel)
	for _, selector := range r.HeadingSelectors {
		if !present(doc, selector, r.logger()) {
			continue
		}
		text, ok := nonBlank(func() (string, error) { return doc.Text(selector) }, selector, r.logger())()
		if ok && strings.Contains(strings.ToLower(text), sentinel) {
			return text, true
		}
	}
	return "", false
}

func (r NowPlayingResolver) fromPageText(doc Document) (string, bool) {
	if r.PagePhrase == "" {
		return "", false
	}
	content, err := doc.Content()
	if err != nil {
		r.logger().Debug("Reading page content failed", slog.Any("error", err))
		return "", false
	}
	if strings.Contains(strings.ToLower(PageText(content)), strings.ToLower(r.PagePhrase)) {
		return r.PagePhrase, true
	}
	return "", false
}

func (r NowPlayingResolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// present reports whether selector matches at least one element. Errors count as absent
// and are logged.
func present(doc Document, selector string, logger *slog.Logger) bool {
	n, err := doc.Count(selector)
	if err != nil {
		logger.Debug("Counting elements failed", slog.String("selector", selector), slog.Any("error", err))
		return false
	}
	return n > 0
}

// nonBlank turns a read into a Probe that is present when the trimmed value is non-empty.
func nonBlank(read func() (string, error), selector string, logger *slog.Logger) Probe {
	return func() (string, bool) {
		value, err := read()
		if err != nil {
			logger.Debug("Reading element failed", slog.String("selector", selector), slog.Any("error", err))
			return "", false
		}
		value = strings.TrimSpace(value)
		return value, value != ""
	}
}
