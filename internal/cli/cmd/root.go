// Package cmd provides the Cobra CLI for the winui demo binary.
package cmd

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mmngadi/go-winui3/internal/config"
	"github.com/mmngadi/go-winui3/internal/logging"
)

var (
	cfgManager *config.Manager

	rootCmd = &cobra.Command{
		Use:   "winui-demo",
		Short: "Exercise the winui lifecycle core against the headless backend",
		Long: `winui-demo drives the cross-thread GUI lifecycle core end to end:
bootstrap with version fallback, window creation with retry, event polling,
and ordered shutdown. It runs on the in-memory headless backend, so it works
on any platform and doubles as a smoke test for the library.

Configuration comes from an optional winui.toml plus WINUI_* environment
variables (WINUI_LOG_LEVEL, WINUI_DISABLE_SYMBOLS,
WINUI_ENABLE_BOOTSTRAP_SHUTDOWN, WINUI_SKIP_UNINIT).`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch cmd.Name() {
			case "help", "completion":
				return nil
			}
			var err error
			cfgManager, err = config.NewManager()
			if err != nil {
				return err
			}
			if err := cfgManager.Load(); err != nil {
				return err
			}
			// Edits to winui.toml take effect without a restart: the log
			// level tracks the file for as long as the command runs.
			zerolog.SetGlobalLevel(logging.ParseLevel(cfgManager.Get().Logging.Level))
			cfgManager.OnConfigChange(func(c *config.Config) {
				zerolog.SetGlobalLevel(logging.ParseLevel(c.Logging.Level))
			})
			return cfgManager.Watch()
		},
	}
)

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}
