package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/networkteam/fogonqa/config"
)

// Version is set at build time:
// go build -ldflags "-X main.Version=1.2.0" ./cmd/fogonqa
var Version = "dev"

type rootFlags struct {
	configFile string
	profile    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "fogonqa",
		Short:         "Acceptance tests for the fogón app",
		Long:          "fogonqa runs Gherkin feature files against the fogón app with real browsers, one isolated browser context per actor.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")

	cmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file (default is ./fogonqa.yaml if present)")
	cmd.PersistentFlags().StringVarP(&flags.profile, "profile", "p", "", "settings profile: fogon or search (default $FOGONQA_PROFILE or fogon)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn or error (default from config)")

	cmd.AddCommand(
		newRunCmd(flags),
		newInstallCmd(flags),
		newVersionCmd(),
	)
	return cmd
}

func (f *rootFlags) loadSettings() (config.RunSettings, error) {
	return config.Load(config.LoadOptions{
		ConfigFile: f.configFile,
		Profile:    f.profile,
	})
}

// newLogger returns a text logger on w. The flag wins over the configured level.
func (f *rootFlags) newLogger(w io.Writer, settings config.RunSettings) (*slog.Logger, error) {
	name := f.logLevel
	if name == "" {
		name = settings.LogLevel
	}
	level, err := parseLevel(name)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

func parseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(name) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fogonqa version %s\n", Version)
		},
	}
}
