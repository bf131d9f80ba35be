package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/loglens/loglens/internal/api"
	"github.com/loglens/loglens/internal/constants"
	"github.com/loglens/loglens/internal/session"
	"github.com/loglens/loglens/internal/tui"
)

// Tail flags
var (
	clearFirst bool
	apiEnabled bool
)

// tailCmd streams logcat into the interactive viewer
var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Stream logcat into the interactive viewer",
	RunE:  runTail,
}

func addTailFlags(flags *pflag.FlagSet) {
	flags.BoolVar(&clearFirst, "clear", false, "Clear the device-side log buffer before streaming")
	flags.BoolVar(&apiEnabled, "api", false, "Serve the read-only HTTP API while streaming")
}

func init() {
	addTailFlags(tailCmd.Flags())
}

func runTail(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logger.Sync()

	mgr := newManager(cfg, logger)

	store, err := newPresetStore(cfg)
	if err != nil {
		return err
	}

	if clearFirst {
		ctx, cancel := context.WithTimeout(cmd.Context(), constants.ExecTimeout)
		err := mgr.ClearBuffer(ctx)
		cancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: clearing device buffer: %v\n", err)
		}
	}

	sink := tui.NewSink()
	controller := session.New(mgr, store, sink, session.Options{
		MaxLines: cfg.MaxLines,
		Logger:   logger,
	})
	defer controller.Close()

	if err := controller.Start(cfg.Device); err != nil {
		return fmt.Errorf("starting stream: %w", err)
	}
	defer controller.Stop()

	if cfg.Package != "" {
		controller.SetPackageScope(cfg.Package)
	}

	if apiEnabled || cfg.API.Enabled {
		server := api.NewServer(api.ServerConfig{
			Host: cfg.API.Host,
			Port: cfg.API.Port,
		}, api.NewHandlers(controller, mgr, logger))
		if err := server.Start(); err != nil {
			return fmt.Errorf("starting api server: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				logger.Warn("api shutdown", zap.Error(err))
			}
		}()
	}

	return tui.Run(controller, sink, cfg.MaxLines)
}
