package browser

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/fogonqa/config"
)

func testSettings() config.RunSettings {
	return config.RunSettings{
		BaseURL:        "http://localhost:3000",
		Timeout:        5 * time.Second,
		Headless:       true,
		Engine:         config.EngineChromium,
		ViewportWidth:  1280,
		ViewportHeight: 720,
	}
}

func TestLaunchOptions(t *testing.T) {
	settings := testSettings()
	settings.SlowMo = 250 * time.Millisecond

	chromium := launchOptions(settings, config.EngineChromium)
	require.NotNil(t, chromium.Headless)
	assert.True(t, *chromium.Headless)
	require.NotNil(t, chromium.SlowMo)
	assert.Equal(t, float64(250), *chromium.SlowMo)
	assert.Contains(t, chromium.Args, "--no-sandbox")

	firefox := launchOptions(settings, config.EngineFirefox)
	assert.Empty(t, firefox.Args, "chromium flags must not reach other engines")

	settings.SlowMo = 0
	assert.Nil(t, launchOptions(settings, config.EngineWebKit).SlowMo)
}

func TestContextOptions(t *testing.T) {
	opts := contextOptions(testSettings(), DefaultUserAgent)

	require.NotNil(t, opts.Viewport)
	assert.Equal(t, 1280, opts.Viewport.Width)
	assert.Equal(t, 720, opts.Viewport.Height)
	require.NotNil(t, opts.UserAgent)
	assert.Equal(t, DefaultUserAgent, *opts.UserAgent)

	assert.Nil(t, contextOptions(testSettings(), "").UserAgent)
}

func TestOptions_UserAgent(t *testing.T) {
	assert.Equal(t, DefaultUserAgent, newOptions().userAgent)
	assert.Equal(t, "fogonqa", newOptions(WithUserAgent("fogonqa")).userAgent)

	o := newOptions(WithUserAgent(""))
	assert.Empty(t, o.userAgent)
	assert.Nil(t, contextOptions(testSettings(), o.userAgent).UserAgent, "the engine keeps its own agent")
}

func TestSession_StopIsIdempotent(t *testing.T) {
	s := &Session{
		settings: testSettings(),
		engine:   config.EngineChromium,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())

	_, err := s.NewContext()
	assert.ErrorIs(t, err, ErrSessionStopped)
	assert.Equal(t, config.EngineChromium, s.Engine())
}

func TestLaunchError(t *testing.T) {
	cause := errors.New("executable doesn't exist")
	err := error(&LaunchError{Engine: config.EngineWebKit, Err: cause})

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "launching webkit: executable doesn't exist", err.Error())

	var launchErr *LaunchError
	require.True(t, errors.As(err, &launchErr))
	assert.Equal(t, config.EngineWebKit, launchErr.Engine)
}
