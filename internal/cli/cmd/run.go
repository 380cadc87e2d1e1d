package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmngadi/go-winui3/internal/logging"
	"github.com/mmngadi/go-winui3/pkg/winui"
	"github.com/mmngadi/go-winui3/pkg/winui/headless"
)

var (
	runDuration time.Duration
	runFPS      int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a demo window through a full lifecycle",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := cfgManager.Get()
		base := logging.NewFromSettings(cfg.Logging.Level, cfg.Logging.Format)
		ctx := logging.WithComponent(logging.WithContext(cmd.Context(), base), "demo")
		log := logging.FromContext(ctx)

		ui, err := winui.New(winui.Options{
			Factory: headless.NewFactory(headless.Options{}),
			Logger:  log,
			Config:  cfg,
		})
		if err != nil {
			return err
		}
		defer ui.Shutdown()

		if r := ui.Init(); !r.Succeeded() {
			_, msg := ui.LastResult()
			return fmt.Errorf("init failed: %s: %s", r, msg)
		}

		// Window-scoped logger: every message below carries the window id.
		wlog := logging.FromContext(logging.WithWindowID(ctx, "main"))

		w := winui.NewWindow(ui, cfg.Window.Title, cfg.Window.Width, cfg.Window.Height)
		var frames int
		w.OnStart = func(ctx *winui.WindowContext) {
			wlog.Info().Msg("window started")
			ctx.Set("started_at", time.Now())
		}
		w.OnUpdate = func(ctx *winui.WindowContext, _ *winui.InputState) {
			frames++
			started := winui.MustCtx[time.Time](ctx, "started_at")
			if time.Since(started) >= runDuration {
				ui.BeginShutdownAsync()
			}
		}
		w.OnDestroy = func(*winui.WindowContext) {
			wlog.Info().Int("frames", frames).Msg("window destroyed")
		}

		if r := w.Run(runFPS); !r.Succeeded() {
			_, msg := ui.LastResult()
			return fmt.Errorf("run failed: %s: %s", r, msg)
		}
		if r := ui.Shutdown(); !r.Succeeded() {
			return fmt.Errorf("shutdown failed: %s", r)
		}
		log.Info().Int64("dropped_events", ui.DroppedEvents()).Msg("lifecycle complete")
		return nil
	},
}

func init() {
	runCmd.Flags().DurationVar(&runDuration, "duration", 2*time.Second, "how long to keep the window alive")
	runCmd.Flags().IntVar(&runFPS, "fps", 60, "update loop rate")
	rootCmd.AddCommand(runCmd)
}
