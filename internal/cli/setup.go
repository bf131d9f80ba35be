package cli

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/loglens/loglens/internal/adb"
	"github.com/loglens/loglens/internal/config"
	"github.com/loglens/loglens/internal/logging"
	"github.com/loglens/loglens/internal/preset"
)

// loadConfig reads the config file and applies flag overrides on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}

	if adbPath != "" {
		cfg.AdbPath = adbPath
	}
	if cmd.Flags().Changed("device") || cmd.Root().PersistentFlags().Changed("device") {
		cfg.Device = deviceID
	}
	if cmd.Flags().Changed("package") || cmd.Root().PersistentFlags().Changed("package") {
		cfg.Package = packageName
	}
	if maxLines > 0 {
		cfg.MaxLines = maxLines
	}

	// The env file is applied to our own environment so the adb
	// subprocess inherits it (ANDROID_SERIAL, ADB_SERVER_SOCKET, ...).
	if cfg.EnvFile != "" {
		if err := godotenv.Load(cfg.EnvFile); err != nil {
			return nil, fmt.Errorf("loading env file %s: %w", cfg.EnvFile, err)
		}
	}

	return cfg, nil
}

// newLogger opens the diagnostic log file from the config. The TUI owns the
// terminal, so diagnostics never go to stdout.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.LogFile, verbose)
}

// newManager builds the adb process manager for the configured device.
func newManager(cfg *config.Config, logger *zap.Logger) *adb.Manager {
	mgr := adb.NewManager(cfg.AdbPath, adb.NewExecRunner(), logger)
	if cfg.Device != "" {
		mgr.SetDevice(cfg.Device)
	}
	return mgr
}

// newPresetStore resolves the preset file location, preferring the config
// override over the per-user default.
func newPresetStore(cfg *config.Config) (*preset.Store, error) {
	path := cfg.PresetFile
	if path == "" {
		var err error
		path, err = preset.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolving preset path: %w", err)
		}
	}
	return preset.NewStore(path), nil
}
