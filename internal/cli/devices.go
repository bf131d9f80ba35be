package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/loglens/loglens/internal/constants"
)

// devicesCmd lists the devices adb can see
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List connected devices",
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
		devices, err := mgr.ListDevices(ctx)
		if err != nil {
			return fmt.Errorf("listing devices: %w", err)
		}

		if len(devices) == 0 {
			fmt.Println("No devices found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SERIAL\tSTATUS\tMODEL")
		fmt.Fprintln(w, "------\t------\t-----")
		for _, d := range devices {
			name := d.Name
			if name == "" {
				name = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, d.Status, name)
		}
		return w.Flush()
	},
}
