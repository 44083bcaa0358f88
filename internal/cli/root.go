// Package cli implements the captcha command line: serving challenges,
// playing them interactively, and inspecting the stat file.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thruflo/captcha/internal/config"
	"github.com/thruflo/captcha/internal/logging"
)

// Version is set at build time via ldflags.
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "captcha",
	Short: "Human-verification challenges over a raw TCP socket",
	Long: `Captcha serves arithmetic and even/odd challenges to one TCP client at a
time and keeps pass/fail statistics in a stat file that survives restarts.
Failed attempts are appended to an event log.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("captcha version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigFileName, "path to the YAML config file (optional)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the config file and applies fn, which copies any flags
// the user set over the file values, before validating the result.
func loadConfig(fn func(*config.Config)) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if fn != nil {
		fn(cfg)
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	logging.SetLevel(level)

	return cfg, nil
}
