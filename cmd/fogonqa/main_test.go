package main

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestVersionCmd(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "fogonqa version dev\n", stdout)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    slog.Level
		wantErr bool
	}{
		{name: "", want: slog.LevelInfo},
		{name: "debug", want: slog.LevelDebug},
		{name: "WARN", want: slog.LevelWarn},
		{name: "error", want: slog.LevelError},
		{name: "loud", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLevel(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

const healthFeature = `Feature: Health

  Scenario: The app answers
    Given the application is running
    When I send a GET request to "/"
    Then the response status code should be 200
    And the response should contain "fogón"
`

func writeRunFixture(t *testing.T, baseURL string) (configFile, featureDir string) {
	t.Helper()
	for _, name := range []string{"FOGONQA_PROFILE", "BASE_URL", "MONGODB_URI", "FOGONQA_TEST_BASE_URL", "FOGONQA_DATABASE_URI", "FOGONQA_LOG_LEVEL"} {
		t.Setenv(name, "")
	}

	dir := t.TempDir()
	featureDir = filepath.Join(dir, "features")
	require.NoError(t, os.MkdirAll(featureDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(featureDir, "health.feature"), []byte(healthFeature), 0o644))

	configFile = filepath.Join(dir, "fogonqa.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(`
test:
  base_url: `+baseURL+`
  timeout_ms: 5000
database:
  uri: sqlite://`+filepath.Join(dir, "fogon.db")+`
diagnostics:
  dir: `+filepath.Join(dir, "diagnostics")+`
log:
  level: warn
`), 0o644))
	return configFile, featureDir
}

func TestRunCmd_NoBrowser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("fogón"))
	}))
	t.Cleanup(server.Close)
	configFile, featureDir := writeRunFixture(t, server.URL)

	stdout, _, err := execute(t, "run", "--config", configFile, "--no-browser", "--format", "progress", featureDir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 scenarios (1 passed)")
}

func TestRunCmd_FailingScenarioExitStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)
	configFile, featureDir := writeRunFixture(t, server.URL)

	_, stderr, err := execute(t, "run", "--config", configFile, "--no-browser", "--format", "progress", featureDir)

	var exit *exitError
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 1, exit.code)
	assert.Contains(t, stderr, "Scenario: The app answers", "the capture report goes to stderr")
}

func TestRunCmd_SetupError(t *testing.T) {
	_, _, err := execute(t, "run", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "--no-browser")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup error")
}

func TestInstallCmd_UnknownEngine(t *testing.T) {
	_, _, err := execute(t, "install", "netscape")
	assert.EqualError(t, err, `unknown engine "netscape"`)
}
