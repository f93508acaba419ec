// Command trackerctl inspects and edits onboarding trackers through the record
// API, using the same section editor the dashboard pages use.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"driverdesk/internal/platform/config"
	"driverdesk/internal/platform/logger"
	"driverdesk/internal/tracker/client"
	"driverdesk/pkg/platform/circuit"
)

// Global flags
var (
	apiURL     string
	adminID    string
	jsonOutput bool
)

var (
	log       *slog.Logger
	recordAPI *client.Client
)

var rootCmd = &cobra.Command{
	Use:   "trackerctl",
	Short: "Inspect and edit driver onboarding trackers",
	Long: `trackerctl talks to the driverdesk record API.

Examples:
  trackerctl show 6f1c...                         # Step position, gates and notices
  trackerctl edit 6f1c... licenses --set class=A  # Stage and commit one section
  trackerctl move 6f1c... 0b9e... --confirm       # Move a tracker to another company`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		log = logger.NewWithWriter(os.Stderr, os.Getenv("LOG_LEVEL"))
		cfg := config.ClientFromEnv()
		if apiURL != "" {
			cfg.BaseURL = apiURL
		}
		recordAPI = client.New(cfg,
			client.WithAdminID(adminID),
			client.WithLogger(log),
			client.WithBreaker(circuit.New("record-api")),
		)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "Record API base URL (default $RECORD_API_URL)")
	rootCmd.PersistentFlags().StringVar(&adminID, "admin", os.Getenv("DRIVERDESK_ADMIN"), "Administrator ID sent as X-Admin-ID")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(moveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		stop()
		os.Exit(1)
	}
}
