package fogonqa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/cucumber/godog"
	slogmulti "github.com/samber/slog-multi"

	"github.com/networkteam/fogonqa/browser"
	"github.com/networkteam/fogonqa/capture"
	"github.com/networkteam/fogonqa/config"
	"github.com/networkteam/fogonqa/docstore"
	"github.com/networkteam/fogonqa/httpcheck"
	"github.com/networkteam/fogonqa/steps"
)

type Instance struct {
	options Options
	logger  *slog.Logger

	session *browser.Session
	store   docstore.Store
	http    *httpcheck.Client
}

type Options struct {
	// Settings are the loaded run settings.
	Settings config.RunSettings

	// NoBrowser skips launching the browser. Browser steps fail, API and database steps run.
	// Default: false
	NoBrowser bool
	// BrowserOptions are passed to browser.Start.
	// Default: nil
	BrowserOptions []browser.Option

	// Logger is the console logger. Scenario records are additionally captured per scenario.
	// Default: slog.Default()
	Logger *slog.Logger

	// RecorderOptions size the per scenario capture buffers.
	// Default: nil, will use capture.DefaultRecorderOptions()
	RecorderOptions *capture.RecorderOptions
	// ReportWriter receives the capture report of every failed scenario.
	// Default: nil, reports are only written to the diagnostics directory
	ReportWriter io.Writer
	// ReportColor highlights report bodies for terminals.
	// Default: false
	ReportColor bool
}

// New creates an instance for settings with default options.
func New(settings config.RunSettings) *Instance {
	return NewWithOptions(Options{Settings: settings})
}

// NewWithOptions creates an instance with the specified options.
// Nothing is started until Start is called.
func NewWithOptions(options Options) *Instance {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Instance{
		options: options,
		logger:  logger,
	}
}

// Start prepares the run wide dependencies: the HTTP client, the document store and the
// browser. A store that cannot be connected only logs a warning; database steps are
// skipped then. A browser that cannot be launched is an error.
func (i *Instance) Start(ctx context.Context) error {
	settings := i.options.Settings

	i.logger.InfoContext(ctx, "Starting test suite",
		slog.String("profile", settings.Profile),
		slog.String("environment", settings.Environment),
		slog.String("baseUrl", settings.BaseURL),
		slog.String("database", docstore.Redact(settings.DatabaseURI)),
	)

	client, err := httpcheck.NewClient(settings.BaseURL,
		httpcheck.WithTimeout(settings.Timeout),
		httpcheck.WithTransport(capture.Transport(nil)),
		httpcheck.WithLogger(slog.New(i.CollectSlogLogs(capture.SlogHandlerOptions{}))),
	)
	if err != nil {
		return fmt.Errorf("creating HTTP client: %w", err)
	}
	i.http = client

	if settings.DatabaseURI != "" {
		store, err := docstore.Open(ctx, settings.DatabaseURI)
		if err != nil {
			i.logger.WarnContext(ctx, "Could not connect to document store, database steps will be skipped",
				slog.String("database", docstore.Redact(settings.DatabaseURI)),
				slog.Any("error", err),
			)
		} else {
			i.store = docstore.Observe(store, collectStoreOp)
		}
	}

	if !i.options.NoBrowser {
		opts := append([]browser.Option{browser.WithLogger(i.logger)}, i.options.BrowserOptions...)
		session, err := browser.Start(settings, opts...)
		if err != nil {
			return err
		}
		i.session = session
		// Unknown engine names were replaced by the default on launch.
		i.options.Settings.Engine = session.Engine()
	}
	return nil
}

// CollectSlogLogs returns a slog.Handler that writes to the console logger and collects
// records logged with a scenario context into that scenario's capture.
func (i *Instance) CollectSlogLogs(options capture.SlogHandlerOptions) slog.Handler {
	return slogmulti.Fanout(i.logger.Handler(), capture.NewSlogHandler(options))
}

// InitializeTestSuite logs the start and end of the suite.
func (i *Instance) InitializeTestSuite(sc *godog.TestSuiteContext) {
	sc.BeforeSuite(func() {
		i.logger.Info("Test suite started", slog.String("baseUrl", i.options.Settings.BaseURL))
	})
	sc.AfterSuite(func() {
		i.logger.Info("Test suite completed")
	})
}

// InitializeScenario binds the steps for one scenario.
func (i *Instance) InitializeScenario(sc *godog.ScenarioContext) {
	steps.InitializeScenario(sc, i.stepOptions())
}

func (i *Instance) stepOptions() steps.Options {
	opts := steps.Options{
		Settings:        i.options.Settings,
		HTTP:            i.http,
		Store:           i.store,
		Logger:          i.logger,
		RecorderOptions: i.options.RecorderOptions,
		ReportWriter:    i.options.ReportWriter,
		ReportColor:     i.options.ReportColor,
	}
	if i.session != nil {
		opts.Contexts = i.session
	}
	return opts
}

// Close stops the browser and closes the document store.
func (i *Instance) Close(ctx context.Context) error {
	var errs []error
	if i.store != nil {
		if err := i.store.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("closing document store: %w", err))
		}
	}
	if i.session != nil {
		if err := i.session.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stopping browser: %w", err))
		}
	}
	return errors.Join(errs...)
}

// collectStoreOp records a store operation into the capture of the calling scenario.
func collectStoreOp(ctx context.Context, op docstore.Operation) {
	rec, ok := capture.FromContext(ctx)
	if !ok {
		return
	}
	rec.CollectStoreOp(capture.StoreOp{
		Name:       op.Name,
		Collection: op.Collection,
		Filter:     op.Filter,
		Set:        op.Set,
		Affected:   op.Affected,
		Timestamp:  op.Timestamp,
		Duration:   op.Duration,
		Error:      op.Error,
	})
}
