package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/slatebar/internal/bar"
	"github.com/jmylchreest/slatebar/internal/busctl"
	"github.com/jmylchreest/slatebar/internal/config"
	"github.com/jmylchreest/slatebar/internal/model"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the status line (default)",
	Long: `Run the status line on stdout and read click events from stdin,
speaking the i3bar JSON protocol. This is what the bar host invokes:

  bar {
      status_command slatebar
  }`,
	RunE: runBar,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runBar(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting slatebar", "version", version)

	b := bar.New(cfg, os.Stdout, os.Stdin, logger)

	// Control surface is best effort: a second instance runs without one.
	srv := busctl.NewServer(b.Status, logger)
	if err := srv.Start(); err != nil {
		logger.Warn("control surface unavailable", "error", err)
	} else {
		defer srv.Stop()
		b.SetRenderHandler(func(model.Status) { srv.EmitStateChanged() })
	}

	// Config edits reload the bar in place; an invalid edit logs and keeps
	// the running config inside the watcher.
	watcher, err := config.NewWatcher(globalOpts.configPath, logger)
	if err != nil {
		logger.Warn("config watching unavailable", "error", err)
	} else {
		watcher.SetReloadHandler(func(next *config.Config) {
			b.Reload(ctx, next)
		})
		if err := watcher.Start(); err != nil {
			logger.Warn("config watching unavailable", "error", err)
		} else {
			defer watcher.Stop()
		}
	}

	if err := b.Run(ctx); err != nil {
		return fmt.Errorf("bar exited: %w", err)
	}
	logger.Info("slatebar stopped")
	return nil
}
