package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmngadi/go-winui3/internal/logging"
	"github.com/mmngadi/go-winui3/pkg/winui"
	"github.com/mmngadi/go-winui3/pkg/winui/backend"
	"github.com/mmngadi/go-winui3/pkg/winui/headless"
)

var probeMaxMinor int

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Report which runtime version candidate bootstrap settles on",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := cfgManager.Get()
		log := logging.NewFromSettings(cfg.Logging.Level, cfg.Logging.Format)

		factory := headless.NewFactory(headless.Options{
			Accept: func(v backend.Version) bool { return v.Minor <= probeMaxMinor },
		})
		ui, err := winui.New(winui.Options{
			Factory: factory,
			Logger:  &log,
			Config:  cfg,
		})
		if err != nil {
			return err
		}
		defer ui.Shutdown()

		r := ui.Init()
		code, msg := ui.LastResult()
		fmt.Fprintf(cmd.OutOrStdout(), "candidates: %v\n", backend.BootstrapOrder)
		fmt.Fprintf(cmd.OutOrStdout(), "result:     %s\n", r)
		if r.Succeeded() {
			fmt.Fprintf(cmd.OutOrStdout(), "version:    %s\n", ui.RuntimeVersion())
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "detail:     %s (%s)\n", msg, code)
		}
		return nil
	},
}

func init() {
	probeCmd.Flags().IntVar(&probeMaxMinor, "max-minor", 8, "highest 1.x runtime minor the fake host accepts")
	rootCmd.AddCommand(probeCmd)
}
