package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	configPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "concierge",
		Short: "Wellmeet restaurant concierge",
		Long: `Wellmeet concierge: restaurant recommendations and reservations.

  concierge bot     Run the Telegram bot
  concierge chat    Talk to the recommendation dialog in the terminal
  concierge serve   Serve the upstream HTTP API from the local database`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "configs/config.yaml"
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfig, "Path to config file")

	rootCmd.AddCommand(botCmd(), chatCmd(), serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}
