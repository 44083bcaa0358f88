package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thruflo/captcha/internal/config"
	"github.com/thruflo/captcha/internal/stats"
)

var (
	statsStatFile string
	statsReset    bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print or reset the persisted statistics",
	Long: `Read the stat file the server writes and print it in the same form the
STATS command returns. With --reset both counters are set to zero,
even when the stat file is corrupted and the server refuses to start.

Do not reset the stat file while a server is running against it; the
server rewrites the file from its in-memory counters after every attempt.

Example:
  captcha stats
  captcha stats --stat-file /var/lib/captcha/stat
  captcha stats --reset`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsStatFile, "stat-file", config.DefaultStatFile, "stat file path")
	statsCmd.Flags().BoolVar(&statsReset, "reset", false, "reset both counters to zero")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(func(c *config.Config) {
		if cmd.Flags().Changed("stat-file") {
			c.Stats.StatFile = statsStatFile
		}
	})
	if err != nil {
		return err
	}

	if statsReset {
		// The file is not read, so a corrupted stat file can be reset too.
		store := stats.NewStore(cfg.Stats.StatFile)
		if err := store.Reset(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reset %s\n", store.Path())
		fmt.Fprint(cmd.OutOrStdout(), store.Report())
		return nil
	}

	store, err := stats.Load(cfg.Stats.StatFile)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), store.Report())
	return nil
}
