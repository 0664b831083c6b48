//go:build acceptance
// +build acceptance

package acceptance

import (
	"testing"

	"github.com/networkteam/fogonqa/pages"
)

// TestFixtures bundles all commonly needed test fixtures.
type TestFixtures struct {
	App *FogonApp
	PW  *PlaywrightFixture
}

// WithTestFixtures starts the app and a browser, registers their cleanup and calls fn.
func WithTestFixtures(t *testing.T, fn func(t *testing.T, f *TestFixtures)) {
	t.Helper()

	app := NewFogonApp(t)
	pw := NewPlaywrightFixture(t, app.URL)

	fn(t, &TestFixtures{App: app, PW: pw})
}

// FogonPage opens the app in a new context and returns its page object and the song
// table of the same page, the way an actor holds them.
func (f *TestFixtures) FogonPage(t *testing.T) (*pages.FogonPage, *pages.SongTable) {
	t.Helper()

	page := f.PW.NewPage(t)
	fogon := pages.NewFogonPage(page, f.pageOptions())
	if err := fogon.Navigate(f.App.URL); err != nil {
		t.Fatalf("opening the app: %v", err)
	}
	return fogon, pages.NewSongTable(page, f.pageOptions())
}

func (f *TestFixtures) pageOptions() pages.PageOptions {
	return pages.PageOptions{
		Timeout:     f.PW.Settings.Timeout,
		SettleDelay: f.PW.Settings.SettleDelay,
	}
}
