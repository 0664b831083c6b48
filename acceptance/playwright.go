//go:build acceptance
// +build acceptance

package acceptance

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/fogonqa/browser"
	"github.com/networkteam/fogonqa/config"
)

// UserAgent is sent by every page of the acceptance tests.
const UserAgent = "fogonqa-acceptance"

// PlaywrightFixture wraps a browser session launched with test settings.
type PlaywrightFixture struct {
	Settings config.RunSettings
	Session  *browser.Session
}

// Settings returns run settings for baseURL with short timeouts and a settle delay that
// gives the app time to redirect.
// Set HEADLESS=false to watch the browser while debugging.
func Settings(t *testing.T, baseURL string) config.RunSettings {
	t.Helper()

	dir := t.TempDir()
	return config.RunSettings{
		Profile:        config.ProfileFogon,
		BaseURL:        baseURL,
		Timeout:        5 * time.Second,
		Headless:       os.Getenv("HEADLESS") != "false",
		Engine:         config.EngineChromium,
		ViewportWidth:  1280,
		ViewportHeight: 720,
		SettleDelay:    500 * time.Millisecond,
		DatabaseURI:    "sqlite://" + filepath.Join(dir, "fogon.db"),
		DiagnosticsDir: filepath.Join(dir, "diagnostics"),
	}
}

// NewPlaywrightFixture launches Chromium for baseURL. It is stopped with the test.
func NewPlaywrightFixture(t *testing.T, baseURL string) *PlaywrightFixture {
	t.Helper()

	settings := Settings(t, baseURL)
	session, err := browser.Start(settings, browser.WithUserAgent(UserAgent))
	require.NoError(t, err, "failed to launch browser")
	t.Cleanup(func() { _ = session.Stop() })
	settings.Engine = session.Engine()

	return &PlaywrightFixture{Settings: settings, Session: session}
}

// NewPage opens a page in a new isolated context. The context is closed with the test.
func (pf *PlaywrightFixture) NewPage(t *testing.T) playwright.Page {
	t.Helper()

	ctx, err := pf.Session.NewContext()
	require.NoError(t, err, "failed to create browser context")
	t.Cleanup(func() { _ = ctx.Close() })

	page, err := ctx.NewPage()
	require.NoError(t, err, "failed to open page")
	return page
}
