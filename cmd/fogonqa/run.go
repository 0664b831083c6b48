package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/networkteam/fogonqa"
)

func newRunCmd(flags *rootFlags) *cobra.Command {
	var (
		format    string
		tags      string
		noBrowser bool
		strict    bool
	)

	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Run feature files",
		Long:  "Run the scenarios of the given feature files or directories (default ./features).",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := flags.loadSettings()
			if err != nil {
				return err
			}
			logger, err := flags.newLogger(cmd.ErrOrStderr(), settings)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			instance := fogonqa.NewWithOptions(fogonqa.Options{
				Settings:     settings,
				NoBrowser:    noBrowser,
				Logger:       logger,
				ReportWriter: cmd.ErrOrStderr(),
				ReportColor:  isTerminal(cmd.ErrOrStderr()),
			})
			if err := instance.Start(ctx); err != nil {
				if closeErr := instance.Close(ctx); closeErr != nil {
					logger.Warn("Cleaning up after failed start", slog.Any("error", closeErr))
				}
				return err
			}
			defer func() {
				if err := instance.Close(ctx); err != nil {
					logger.Warn("Closing suite", slog.Any("error", err))
				}
			}()

			status := instance.Run(ctx, fogonqa.RunOptions{
				Paths:    args,
				Format:   format,
				Tags:     tags,
				Strict:   strict,
				Output:   cmd.OutOrStdout(),
				NoColors: !isTerminal(cmd.OutOrStdout()),
			})
			if status != fogonqa.StatusPassed {
				return &exitError{code: status}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "pretty", "formatter: pretty, progress, cucumber, junit or events")
	cmd.Flags().StringVarP(&tags, "tags", "t", "", `tag expression, e.g. "@fogon && ~@wip"`)
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "do not launch a browser; only API and database steps can run")
	cmd.Flags().BoolVar(&strict, "strict", true, "fail on pending or undefined steps")
	return cmd
}
