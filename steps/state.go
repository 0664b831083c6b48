// Package steps binds the step vocabulary of the feature files to page objects, the HTTP
// client and the document store.
//
// Every scenario gets a fresh state created by InitializeScenario. Steps only orchestrate:
// they resolve actors, call one page object or helper operation, keep the result in the
// scenario and compare it in Then steps. They never query the DOM themselves.
package steps

import (
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/cucumber/godog"

	"github.com/networkteam/fogonqa/actors"
	"github.com/networkteam/fogonqa/capture"
	"github.com/networkteam/fogonqa/config"
	"github.com/networkteam/fogonqa/docstore"
	"github.com/networkteam/fogonqa/httpcheck"
	"github.com/networkteam/fogonqa/pages"
)

// Options are the run wide dependencies shared by all scenarios.
type Options struct {
	Settings config.RunSettings
	// Contexts creates browser contexts for actors.
	// Default: nil, browser steps fail with ErrBrowserDisabled
	Contexts actors.ContextFactory
	HTTP     *httpcheck.Client
	// Store is nil when no document store could be connected; database steps are skipped then.
	Store  docstore.Store
	Logger *slog.Logger

	// RecorderOptions size the per scenario capture buffers.
	// Default: capture.DefaultRecorderOptions()
	RecorderOptions *capture.RecorderOptions
	// ReportWriter receives the capture report of failed scenarios in addition to the
	// diagnostics directory.
	// Default: nil
	ReportWriter io.Writer
	ReportColor  bool
}

// Registrar is the part of godog.ScenarioContext used to bind steps and hooks.
type Registrar interface {
	Step(expr, stepFunc interface{})
	Before(h godog.BeforeScenarioHook)
	After(h godog.AfterScenarioHook)
}

// InitializeScenario creates the state of one scenario and registers all steps and hooks.
func InitializeScenario(sc *godog.ScenarioContext, opts Options) {
	s := newScenario(opts)
	s.register(sc)
	sc.StepContext().Before(s.beforeStep)
}

// scenario is the state of a single scenario. It is never shared between scenarios.
type scenario struct {
	opts Options

	name     string
	recorder *capture.Recorder
	logger   *slog.Logger
	actors   *actors.Registry

	mu   sync.Mutex
	step string

	// Fogón
	sessions   map[string]pages.SessionID
	nowPlaying string
	songs      []pages.Song

	// Search
	searchTerm string

	// API
	headers     http.Header
	requestBody []byte
	response    *httpcheck.Response
	appRunning  bool

	// Database
	collection    string
	document      docstore.Document
	queryResult   []docstore.Document
	insertResult  *docstore.InsertResult
	updateResult  *docstore.UpdateResult
	deleteResult  *docstore.DeleteResult
	documentCount *int64

	// lastErr is the last HTTP or store failure of a When step
	lastErr error
}

func newScenario(opts Options) *scenario {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &scenario{
		opts:     opts,
		logger:   opts.Logger,
		sessions: make(map[string]pages.SessionID),
		headers:  make(http.Header),
	}
}

func (s *scenario) register(r Registrar) {
	r.Before(s.before)
	r.After(s.after)

	s.registerFogonSteps(r)
	s.registerSearchSteps(r)
	s.registerAPISteps(r)
	s.registerDatabaseSteps(r)
}

func (s *scenario) currentStep() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// stepLogger returns the scenario logger with the running step attached.
func (s *scenario) stepLogger() *slog.Logger {
	if step := s.currentStep(); step != "" {
		return s.logger.With(slog.String("step", step))
	}
	return s.logger
}

func (s *scenario) pageOptions(logger *slog.Logger) pages.PageOptions {
	return pages.PageOptions{
		Timeout:     s.opts.Settings.Timeout,
		SettleDelay: s.opts.Settings.SettleDelay,
		Logger:      logger,
	}
}

func (s *scenario) actor(name string) (*actors.Actor, error) {
	if s.actors == nil {
		return nil, ErrBrowserDisabled
	}
	return s.actors.Resolve(name)
}
