package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ivesdebruycker/maxcube/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "maxcube",
	Short: "Control an eQ-3 MAX! Cube heating hub",
	Long: `maxcube talks to an eQ-3 MAX! Cube over its local TCP interface.

It discovers cubes on the LAN, reads the room and device inventory,
watches live thermostat status, sets target temperatures and weekly
schedules, and can run as a long-lived MQTT bridge or HTTP/WebSocket
status server.

Without a subcommand it launches the interactive monitor dashboard.`,
	Version: version.Version,
	RunE:    runMonitor,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("maxcube %s (commit: %s)\n", version.Version, version.Commit)
	},
}
