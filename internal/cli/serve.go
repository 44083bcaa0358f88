package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/thruflo/captcha/internal/config"
	"github.com/thruflo/captcha/internal/logging"
	"github.com/thruflo/captcha/internal/server"
)

var (
	serveAddress    string
	servePort       int
	serveStatFile   string
	serveLogFile    string
	serveLogLevel   string
	serveBlockAfter int
	serveBlockTime  time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the captcha server",
	Long: `Bind the listening socket, load the stat file and serve clients one at a
time until a client sends SERVER_SHUTDOWN or the process is interrupted.

A corrupted stat file is fatal: the server refuses to start rather than
continue with unknown counters. Flags override values from the config file.

Example:
  captcha serve
  captcha serve --address 0.0.0.0 --port 7070
  captcha serve --stat-file /var/lib/captcha/stat --log-file /var/log/captcha.log
  captcha serve --block-after 5 --block-time 10m`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddress, "address", "a", config.DefaultAddress, "IP address to bind")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", config.DefaultPort, "TCP port to bind")
	serveCmd.Flags().StringVar(&serveStatFile, "stat-file", config.DefaultStatFile, "stat file path")
	serveCmd.Flags().StringVar(&serveLogFile, "log-file", config.DefaultLogFile, "failure event log path")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", config.DefaultLogLevel, "operator log level (debug, info, warn, error)")
	serveCmd.Flags().IntVar(&serveBlockAfter, "block-after", 0, "refuse a host after this many consecutive failures (0 disables)")
	serveCmd.Flags().DurationVar(&serveBlockTime, "block-time", config.DefaultBlockTime, "how long a failing host is refused")

	rootCmd.AddCommand(serveCmd)
}

// applyServeFlags copies explicitly set flags over file values.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("address") {
		cfg.Server.Address = serveAddress
	}
	if flags.Changed("port") {
		cfg.Server.Port = servePort
	}
	if flags.Changed("stat-file") {
		cfg.Stats.StatFile = serveStatFile
	}
	if flags.Changed("log-file") {
		cfg.Stats.LogFile = serveLogFile
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = serveLogLevel
	}
	if flags.Changed("block-after") {
		cfg.RateLimit.BlockAfter = serveBlockAfter
	}
	if flags.Changed("block-time") {
		cfg.RateLimit.BlockTime = serveBlockTime
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(func(c *config.Config) { applyServeFlags(cmd, c) })
	if err != nil {
		return err
	}

	srv, err := server.NewServerFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving captchas on %s\n", srv.ListenAddr())
	fmt.Fprintf(cmd.OutOrStdout(), "  Stat file: %s\n", cfg.Stats.StatFile)
	fmt.Fprintf(cmd.OutOrStdout(), "  Log file:  %s\n", cfg.Stats.LogFile)

	err = srv.Run(ctx)
	if errors.Is(err, server.ErrAcceptFailed) {
		// Accept failures end service without failing the process.
		logging.Error("server stopped accepting connections", "error", err)
		return nil
	}
	if err != nil {
		return err
	}

	counts := srv.Stats().Counts()
	fmt.Fprintf(cmd.OutOrStdout(), "Server stopped. Success: %d, Failed: %d\n", counts.Success, counts.Failed)
	return nil
}
