package main

import (
	"signal_chart/internal/config"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "signal-chart",
	Short: "Serve a segmented pie chart of signal counts",
	Long: `signal-chart keeps a start/end date-range selection, fetches aggregated
green/yellow/red/black signal counts for an entity over that range and turns
them into cumulative fills of a four-segment pie chart.

Without a subcommand it runs the HTTP/WebSocket server (same as "serve").`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yml)")
	rootCmd.PersistentFlags().String("port", "", "listen port (default 8080)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("db", "", "fetch log database path (default is in-memory)")
}

// loadConfig loads the configuration with flags of cmd applied on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(cfgFile, cmd.Flags())
}
