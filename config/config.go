// Package config loads the run settings shared by every part of the suite.
//
// Settings are layered: built-in defaults, then profile defaults, then an optional
// YAML or JSON file, then environment variables. The result is a plain value;
// consumers get a copy and never change it after Load.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Engine names a Playwright browser engine.
type Engine string

const (
	EngineChromium Engine = "chromium"
	EngineFirefox  Engine = "firefox"
	EngineWebKit   Engine = "webkit"
)

// ParseEngine maps a configured engine name to an Engine.
// Unknown names return EngineChromium and false.
func ParseEngine(name string) (Engine, bool) {
	switch Engine(strings.ToLower(strings.TrimSpace(name))) {
	case EngineChromium:
		return EngineChromium, true
	case EngineFirefox:
		return EngineFirefox, true
	case EngineWebKit:
		return EngineWebKit, true
	}
	return EngineChromium, false
}

const (
	// ProfileFogon targets a locally running fogón app.
	ProfileFogon = "fogon"
	// ProfileSearch targets a public search engine.
	ProfileSearch = "search"

	// DefaultConfigName is the file name (without extension) searched for in the search paths.
	DefaultConfigName = "fogonqa"
)

// RunSettings holds everything a test run needs to know about its environment.
type RunSettings struct {
	Profile     string
	Environment string

	SearchTerm string
	BaseURL    string
	// Timeout bounds every wait on the page.
	Timeout  time.Duration
	Headless bool
	// Engine is the configured engine name; unknown names are resolved when the browser starts.
	Engine         Engine
	SlowMo         time.Duration
	ViewportWidth  int
	ViewportHeight int
	// SettleDelay is how long page objects wait after an action that changes app state.
	SettleDelay time.Duration

	DatabaseURI    string
	DiagnosticsDir string
	LogLevel       string
}

// TimeoutMillis returns Timeout in the float milliseconds Playwright expects.
func (s RunSettings) TimeoutMillis() float64 {
	return float64(s.Timeout.Milliseconds())
}

// LoadOptions controls where Load looks for settings.
type LoadOptions struct {
	// ConfigFile is an explicit file path. A missing or unreadable file is a SetupError.
	ConfigFile string
	// SearchPaths are searched for DefaultConfigName when ConfigFile is empty.
	// Default: the working directory.
	SearchPaths []string
	// Profile selects the profile defaults. Default: FOGONQA_PROFILE or ProfileFogon.
	Profile string
}

type fileConfig struct {
	Environment string `mapstructure:"environment"`
	Test        struct {
		SearchTerm string `mapstructure:"search_term"`
		BaseURL    string `mapstructure:"base_url"`
		TimeoutMs  int    `mapstructure:"timeout_ms"`
		Headless   bool   `mapstructure:"headless"`
		SettleMs   int    `mapstructure:"settle_ms"`
	} `mapstructure:"test"`
	Browser struct {
		Engine         string `mapstructure:"engine"`
		SlowMoMs       int    `mapstructure:"slow_mo_ms"`
		ViewportWidth  int    `mapstructure:"viewport_width"`
		ViewportHeight int    `mapstructure:"viewport_height"`
	} `mapstructure:"browser"`
	Database struct {
		URI string `mapstructure:"uri"`
	} `mapstructure:"database"`
	Diagnostics struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"diagnostics"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// Load reads the run settings.
func Load(opts LoadOptions) (RunSettings, error) {
	v := viper.New()

	_ = v.BindEnv("profile", "FOGONQA_PROFILE")
	profile := opts.Profile
	if profile == "" {
		profile = v.GetString("profile")
	}
	if profile == "" {
		profile = ProfileFogon
	}
	if err := SetDefaults(v, profile); err != nil {
		return RunSettings{}, err
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		searchPaths := opts.SearchPaths
		if len(searchPaths) == 0 {
			searchPaths = []string{"."}
		}
		for _, p := range searchPaths {
			v.AddConfigPath(p)
		}
	}

	v.SetEnvPrefix("FOGONQA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return RunSettings{}, &SetupError{Source: configSource(v, opts), Err: err}
		}
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return RunSettings{}, &SetupError{Source: configSource(v, opts), Err: fmt.Errorf("unmarshaling config: %w", err)}
	}

	settings := RunSettings{
		Profile:        profile,
		Environment:    fc.Environment,
		SearchTerm:     fc.Test.SearchTerm,
		BaseURL:        strings.TrimSpace(fc.Test.BaseURL),
		Timeout:        time.Duration(fc.Test.TimeoutMs) * time.Millisecond,
		Headless:       fc.Test.Headless,
		Engine:         Engine(strings.ToLower(strings.TrimSpace(fc.Browser.Engine))),
		SlowMo:         time.Duration(fc.Browser.SlowMoMs) * time.Millisecond,
		ViewportWidth:  fc.Browser.ViewportWidth,
		ViewportHeight: fc.Browser.ViewportHeight,
		SettleDelay:    time.Duration(fc.Test.SettleMs) * time.Millisecond,
		DatabaseURI:    fc.Database.URI,
		DiagnosticsDir: fc.Diagnostics.Dir,
		LogLevel:       fc.Log.Level,
	}

	// HEADED=1 is the switch used by local runs to watch the browser.
	if v.IsSet("headed") && v.GetBool("headed") {
		settings.Headless = false
	}

	if err := settings.Validate(); err != nil {
		return RunSettings{}, &SetupError{Source: configSource(v, opts), Err: err}
	}
	return settings, nil
}

// Validate checks the settings for values no run can work with.
func (s RunSettings) Validate() error {
	if s.BaseURL == "" {
		return errors.New("test.base_url is required")
	}
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return fmt.Errorf("test.base_url: %w", err)
	}
	if !u.IsAbs() {
		return fmt.Errorf("test.base_url must be absolute, got %q", s.BaseURL)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("test.timeout_ms must be positive, got %s", s.Timeout)
	}
	if s.ViewportWidth <= 0 || s.ViewportHeight <= 0 {
		return fmt.Errorf("browser viewport must be positive, got %dx%d", s.ViewportWidth, s.ViewportHeight)
	}
	if s.SlowMo < 0 || s.SettleDelay < 0 {
		return errors.New("browser.slow_mo_ms and test.settle_ms must not be negative")
	}
	return nil
}

// bindEnv binds the short variable names used by CI jobs and local runs.
// FOGONQA_<SECTION>_<KEY> works for every key through AutomaticEnv.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("test.base_url", "FOGONQA_TEST_BASE_URL", "BASE_URL")
	_ = v.BindEnv("test.search_term", "FOGONQA_TEST_SEARCH_TERM", "SEARCH_TERM")
	_ = v.BindEnv("test.timeout_ms", "FOGONQA_TEST_TIMEOUT_MS", "TEST_TIMEOUT")
	_ = v.BindEnv("test.headless", "FOGONQA_TEST_HEADLESS", "HEADLESS")
	_ = v.BindEnv("browser.engine", "FOGONQA_BROWSER_ENGINE", "BROWSER")
	_ = v.BindEnv("browser.slow_mo_ms", "FOGONQA_BROWSER_SLOW_MO_MS", "SLOW_MO")
	_ = v.BindEnv("database.uri", "FOGONQA_DATABASE_URI", "MONGODB_URI")
	_ = v.BindEnv("environment", "FOGONQA_ENVIRONMENT", "NODE_ENV")
	_ = v.BindEnv("headed", "HEADED")
}

func configSource(v *viper.Viper, opts LoadOptions) string {
	if used := v.ConfigFileUsed(); used != "" {
		return used
	}
	if opts.ConfigFile != "" {
		return opts.ConfigFile
	}
	return "defaults"
}
