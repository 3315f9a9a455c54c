// Ambilight-server drives a WS2812 LED strip from pixel data received over UDP.
//
// Clients find the server with a broadcast Hello (or over mDNS), claim the
// strip with SetActive, then stream SendPixels or SetPixel datagrams. The
// strip is refreshed from the pixel buffer at a fixed interval through an SPI
// port, or not at all when no port is configured.
//
// Usage:
//
//	ambilight-server serve [flags]
//
// See 'ambilight-server --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oxabz/my-ambilight/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ambilight-server",
	Short: "UDP LED strip server",
	Long: `A UDP server that drives a WS2812 LED strip for ambient lighting.

The server answers discovery hellos, lets one client device at a time write
pixels, and refreshes the strip from its pixel buffer at a fixed interval.

Use the separate 'ambilight' utility to discover and drive a server.`,
	Version:      version.String(),
	SilenceUsage: true,
}

var configPath string

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: user config dir)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ambilight-server %s\n", version.Full())
	},
}
