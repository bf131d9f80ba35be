package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loglens/loglens/internal/constants"
)

// clearCmd clears the device-side logcat buffer
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the device-side logcat buffer",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		mgr := newManager(cfg, logger)

		ctx, cancel := context.WithTimeout(cmd.Context(), constants.ExecTimeout)
		defer cancel()
		if err := mgr.ClearBuffer(ctx); err != nil {
			return fmt.Errorf("clearing device buffer: %w", err)
		}

		fmt.Println("Device log buffer cleared.")
		return nil
	},
}
