package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Defaults shared by all profiles.
const (
	DefaultSearchTerm     = "Playwright testing"
	DefaultTimeoutMs      = 30000
	DefaultSettleMs       = 1000
	DefaultViewportWidth  = 1920
	DefaultViewportHeight = 1080
	DefaultDiagnosticsDir = "diagnostics"

	// DefaultDatabaseURI is a private in-memory SQLite store, so database steps run without a server.
	DefaultDatabaseURI = "sqlite://file::memory:?cache=shared"
)

// profileBaseURLs holds the base URL each profile starts from.
var profileBaseURLs = map[string]string{
	ProfileFogon:  "http://localhost:3000",
	ProfileSearch: "https://www.google.com",
}

// SetDefaults registers the defaults of the given profile on v.
func SetDefaults(v *viper.Viper, profile string) error {
	baseURL, ok := profileBaseURLs[profile]
	if !ok {
		return &SetupError{Source: "profile", Err: fmt.Errorf("unknown profile %q", profile)}
	}

	v.SetDefault("environment", "development")

	// -- Test --
	v.SetDefault("test.search_term", DefaultSearchTerm)
	v.SetDefault("test.base_url", baseURL)
	v.SetDefault("test.timeout_ms", DefaultTimeoutMs)
	v.SetDefault("test.headless", true)
	v.SetDefault("test.settle_ms", DefaultSettleMs)

	// -- Browser --
	v.SetDefault("browser.engine", string(EngineChromium))
	v.SetDefault("browser.slow_mo_ms", 0)
	v.SetDefault("browser.viewport_width", DefaultViewportWidth)
	v.SetDefault("browser.viewport_height", DefaultViewportHeight)

	// -- Database --
	v.SetDefault("database.uri", DefaultDatabaseURI)

	// -- Diagnostics --
	v.SetDefault("diagnostics.dir", DefaultDiagnosticsDir)

	// -- Log --
	v.SetDefault("log.level", "info")

	return nil
}
