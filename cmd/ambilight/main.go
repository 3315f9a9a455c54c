// Ambilight is a command line client for ambilight-server.
//
// It finds servers on the local network, claims the strip for a device id,
// and sends pixels. Running without a command opens the interactive console.
//
// Usage:
//
//	ambilight [command] [flags]
//
// See 'ambilight --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oxabz/my-ambilight/internal/logging"
	"github.com/oxabz/my-ambilight/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ambilight",
	Short: "Ambilight LED client",
	Long: `A client for ambilight LED servers.

Discovers servers with a broadcast hello or mDNS, claims the strip for a
device id, and sends pixel data.

If no command is specified, the interactive console launches.`,
	Version:      version.String(),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.InitializeFromEnv()
	},
	RunE: runConsole,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ambilight %s\n", version.Full())
	},
}
