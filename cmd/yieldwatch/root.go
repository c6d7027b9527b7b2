package main

import (
	"github.com/spf13/cobra"

	"yieldwatch/internal/config"
	"yieldwatch/pkg/logging"
)

// Version is set at build time.
var Version = "dev"

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "yieldwatch",
	Short: "Yield and points metrics collection jobs",
	Long: `Yieldwatch runs independent data-collection jobs that pull yield and
points metrics from external services and publish them to a spreadsheet
row keyed by date, plus a daily chat digest.

Configuration comes from the environment: SHEET_ID, SHEETS_TOKEN,
PROXY_HTTP, TELEGRAM_KEY, CHAT_ID, WALLET_ADDRESS, REDIS_URL, LOG_LEVEL
and BROWSER.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		logging.Setup(logging.Config{Level: cfg.LogLevel})
	}

	rootCmd.AddCommand(capsCmd)
	rootCmd.AddCommand(strataCmd)
	rootCmd.AddCommand(neutrlCmd)
	rootCmd.AddCommand(jupiterCmd)
	rootCmd.AddCommand(apyReportCmd)
}
