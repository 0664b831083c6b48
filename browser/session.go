// Package browser owns the single browser process of a test run.
package browser

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/fogonqa/config"
)

// DefaultUserAgent is sent by every context; some sites serve reduced markup to headless agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// chromiumArgs are passed to Chromium only; other engines reject unknown flags.
var chromiumArgs = []string{
	"--no-sandbox",
	"--disable-blink-features=AutomationControlled",
	"--disable-dev-shm-usage",
}

// ErrSessionStopped is returned when a stopped session is asked for a new context.
var ErrSessionStopped = errors.New("browser session stopped")

// LaunchError reports that the Playwright driver or the browser engine could not start.
type LaunchError struct {
	Engine config.Engine
	Err    error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launching %s: %v", e.Engine, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

type options struct {
	logger    *slog.Logger
	userAgent string
}

func newOptions(opts ...Option) options {
	o := options{
		logger:    slog.Default(),
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures Start.
type Option func(*options)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithUserAgent overrides DefaultUserAgent. An empty value keeps the engine's own agent.
func WithUserAgent(userAgent string) Option {
	return func(o *options) {
		o.userAgent = userAgent
	}
}

// Session holds the Playwright driver and one launched browser.
// It is shared read-only by all scenarios; only Stop closes it.
type Session struct {
	settings  config.RunSettings
	engine    config.Engine
	userAgent string
	logger    *slog.Logger

	pw      *playwright.Playwright
	browser playwright.Browser

	mu      sync.Mutex
	stopped bool
}

// Start runs the Playwright driver and launches the configured engine.
// Unknown engine names fall back to Chromium.
func Start(settings config.RunSettings, opts ...Option) (*Session, error) {
	o := newOptions(opts...)

	engine, known := config.ParseEngine(string(settings.Engine))
	if !known {
		o.logger.Warn("Unknown browser engine, using default", slog.String("configured", string(settings.Engine)), slog.String("engine", string(engine)))
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, &LaunchError{Engine: engine, Err: fmt.Errorf("starting playwright driver: %w", err)}
	}

	browser, err := browserType(pw, engine).Launch(launchOptions(settings, engine))
	if err != nil {
		if stopErr := pw.Stop(); stopErr != nil {
			o.logger.Warn("Stopping playwright driver after failed launch", slog.Any("error", stopErr))
		}
		return nil, &LaunchError{Engine: engine, Err: err}
	}

	o.logger.Info("Browser launched",
		slog.String("engine", string(engine)),
		slog.Bool("headless", settings.Headless),
		slog.String("version", browser.Version()),
	)

	return &Session{
		settings:  settings,
		engine:    engine,
		userAgent: o.userAgent,
		logger:    o.logger,
		pw:        pw,
		browser:   browser,
	}, nil
}

// Engine returns the engine that was actually launched.
func (s *Session) Engine() config.Engine {
	return s.engine
}

// NewContext creates an isolated browser context (own cookies and storage) with the
// configured viewport and default timeout.
func (s *Session) NewContext() (playwright.BrowserContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.browser == nil {
		return nil, ErrSessionStopped
	}

	ctx, err := s.browser.NewContext(contextOptions(s.settings, s.userAgent))
	if err != nil {
		return nil, fmt.Errorf("creating browser context: %w", err)
	}
	ctx.SetDefaultTimeout(s.settings.TimeoutMillis())
	ctx.SetDefaultNavigationTimeout(s.settings.TimeoutMillis())
	return ctx, nil
}

// Stop closes the browser and the driver. Calling it again is a no-op.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true

	var errs []error
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing browser: %w", err))
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stopping playwright driver: %w", err))
		}
	}
	if s.logger != nil {
		s.logger.Info("Browser stopped", slog.String("engine", string(s.engine)))
	}
	return errors.Join(errs...)
}

// Install downloads the Playwright driver and the given engines.
func Install(engines ...config.Engine) error {
	browsers := make([]string, 0, len(engines))
	for _, e := range engines {
		engine, _ := config.ParseEngine(string(e))
		browsers = append(browsers, string(engine))
	}
	if len(browsers) == 0 {
		browsers = append(browsers, string(config.EngineChromium))
	}
	if err := playwright.Install(&playwright.RunOptions{Browsers: browsers}); err != nil {
		return fmt.Errorf("installing playwright: %w", err)
	}
	return nil
}

func browserType(pw *playwright.Playwright, engine config.Engine) playwright.BrowserType {
	switch engine {
	case config.EngineFirefox:
		return pw.Firefox
	case config.EngineWebKit:
		return pw.WebKit
	default:
		return pw.Chromium
	}
}

func launchOptions(settings config.RunSettings, engine config.Engine) playwright.BrowserTypeLaunchOptions {
	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(settings.Headless),
	}
	if settings.SlowMo > 0 {
		opts.SlowMo = playwright.Float(float64(settings.SlowMo.Milliseconds()))
	}
	if engine == config.EngineChromium {
		opts.Args = append([]string(nil), chromiumArgs...)
	}
	return opts
}

func contextOptions(settings config.RunSettings, userAgent string) playwright.BrowserNewContextOptions {
	opts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  settings.ViewportWidth,
			Height: settings.ViewportHeight,
		},
	}
	if userAgent != "" {
		opts.UserAgent = playwright.String(userAgent)
	}
	return opts
}
