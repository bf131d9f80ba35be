// Package cli wires the loglens commands together.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loglens/loglens/internal/constants"
)

// Version is set during build
var Version = "dev"

// Global flags
var (
	configPath  string
	adbPath     string
	deviceID    string
	packageName string
	maxLines    int
	verbose     bool
)

// rootCmd represents the base command. Running it without a subcommand
// opens the log view, same as `loglens tail`.
var rootCmd = &cobra.Command{
	Use:   "loglens",
	Short: "An interactive Android logcat viewer",
	Long: `loglens streams adb logcat into an interactive terminal viewer.
It supports:
  - Live filtering by level, tag, pid, text and regex
  - Package scope: follow an app across restarts by tracking its pids
  - Automatic stream relaunch when a device reconnects
  - Saved filter presets
  - Copy and export of the visible lines`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTail,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("loglens version %s\n", Version)
	},
}

func init() {
	// Persistent flags available to all subcommands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", constants.DefaultConfigFile, "Config file")
	rootCmd.PersistentFlags().StringVar(&adbPath, "adb", "", "Path to the adb executable")
	rootCmd.PersistentFlags().StringVarP(&deviceID, "device", "s", "", "Device serial to attach to")
	rootCmd.PersistentFlags().StringVarP(&packageName, "package", "p", "", "Package name to scope the view to")
	rootCmd.PersistentFlags().IntVar(&maxLines, "max-lines", 0, "Maximum buffered log lines")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose diagnostic logging")

	// Set version template
	rootCmd.SetVersionTemplate("loglens version {{.Version}}\n")

	// The root command doubles as tail, so it carries tail's flags too
	addTailFlags(rootCmd.Flags())

	// Add subcommands
	rootCmd.AddCommand(tailCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(versionCmd)
}
