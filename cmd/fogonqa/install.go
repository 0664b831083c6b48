package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/networkteam/fogonqa/browser"
	"github.com/networkteam/fogonqa/config"
)

func newInstallCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "install [engines...]",
		Short: "Install the Playwright driver and browsers",
		Long:  "Install the Playwright driver and the given engines (chromium, firefox, webkit). Without arguments the configured engine is installed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var engines []config.Engine
			for _, name := range args {
				engine, ok := config.ParseEngine(name)
				if !ok {
					return fmt.Errorf("unknown engine %q", name)
				}
				engines = append(engines, engine)
			}
			if len(engines) == 0 {
				settings, err := flags.loadSettings()
				if err != nil {
					return err
				}
				engine, _ := config.ParseEngine(string(settings.Engine))
				engines = append(engines, engine)
			}

			if err := browser.Install(engines...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Installed %v\n", engines)
			return nil
		},
	}
}
