package nutrilog

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dbPath     string
	configPath string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:          "nutrilog",
	Short:        "nutrilog tracks meals and nutrition by day and week",
	Long:         "nutrilog is a local-first meal log with daily and weekly nutrition summaries, a history chart, goal evaluation, and an HTTP API.",
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database (overrides db.path)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional .env file loaded before the environment")
}
