package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oxabz/my-ambilight/internal/client"
	"github.com/oxabz/my-ambilight/internal/console"
	"github.com/oxabz/my-ambilight/internal/discovery"
	"github.com/oxabz/my-ambilight/internal/protocol"
)

// Connection flags
var (
	serverAddr string
	serverPort int
	deviceID   int
)

// Command flags
var (
	useMDNS       bool
	scanTimeout   time.Duration
	fillCount     int
	sweepDuration time.Duration
	sweepCount    int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", "", "Server host:port (skips discovery)")
	rootCmd.PersistentFlags().IntVar(&serverPort, "port", protocol.DefaultPort, "Server UDP port used for discovery")
	rootCmd.PersistentFlags().IntVar(&deviceID, "device", -1, "Device id to write as (0-63)")

	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(activateCmd)
	rootCmd.AddCommand(pixelCmd)
	rootCmd.AddCommand(fillCmd)
	rootCmd.AddCommand(rainbowCmd)
	rootCmd.AddCommand(consoleCmd)
}

// connect opens a client and, for commands that write, makes sure a server
// is known and a device is selected.
func connect(ctx context.Context, needServer bool) (*client.Client, error) {
	c, err := client.New(ctx, client.Config{
		Server: serverAddr,
		Port:   serverPort,
	})
	if err != nil {
		return nil, err
	}

	if deviceID > protocol.MaxDevice {
		_ = c.Close()
		return nil, fmt.Errorf("invalid device %d: expected 0-%d", deviceID, protocol.MaxDevice)
	}
	if deviceID >= 0 {
		if err := c.UseDevice(uint8(deviceID)); err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	if needServer && c.Server() == nil {
		addr, err := c.Discover(ctx)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("no server given and discovery failed: %w", err)
		}
		fmt.Printf("Using server at %s\n", addr)
	}
	return c, nil
}

func parseByte(name, s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: expected 0-255", name, s)
	}
	return uint8(v), nil
}

func parseColor(args []string) (r, g, b uint8, err error) {
	if r, err = parseByte("red", args[0]); err != nil {
		return
	}
	if g, err = parseByte("green", args[1]); err != nil {
		return
	}
	b, err = parseByte("blue", args[2])
	return
}

// discoverCmd finds servers on the network
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find servers on the local network",
	Long: `Find ambilight servers with a broadcast hello, or with mDNS when
--mdns is given. mDNS also reports each server's id and strip length.`,
	Example: `  # Broadcast a hello on the default port
  ambilight discover

  # Browse mDNS for 5 seconds
  ambilight discover --mdns --timeout 5s`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().BoolVar(&useMDNS, "mdns", false, "Browse mDNS instead of broadcasting a hello")
	discoverCmd.Flags().DurationVar(&scanTimeout, "timeout", discovery.DefaultScanTimeout, "mDNS browse timeout")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if useMDNS {
		fmt.Printf("Browsing mDNS for %s (timeout: %s)...\n\n", discovery.ServiceType, scanTimeout)
		servers, err := discovery.Scan(ctx, scanTimeout)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		if len(servers) == 0 {
			fmt.Println("No servers found.")
			return nil
		}
		fmt.Printf("Found %d server(s):\n\n", len(servers))
		for i, s := range servers {
			fmt.Printf("%d. %s\n", i+1, s.Instance)
			fmt.Printf("   Address: %s\n", s.Addr())
			if s.ID != "" {
				fmt.Printf("   ID:      %s\n", s.ID)
			}
			if s.LEDCount > 0 {
				fmt.Printf("   LEDs:    %d\n", s.LEDCount)
			}
			if v := s.GetMetadata(discovery.TxtVersion); v != "" {
				fmt.Printf("   Version: %s\n", v)
			}
			fmt.Println()
		}
		return nil
	}

	c, err := connect(ctx, false)
	if err != nil {
		return err
	}
	defer c.Close()

	fmt.Printf("Sending hello on port %d...\n\n", serverPort)
	addrs, err := c.DiscoverAll(ctx)
	if errors.Is(err, client.ErrNoServer) {
		fmt.Println("No servers found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure ambilight-server is running on this network")
		fmt.Println("  - Check that UDP port", serverPort, "is not blocked by a firewall")
		fmt.Println("  - Try 'ambilight discover --mdns'")
		return nil
	}
	if err != nil {
		return err
	}
	for _, addr := range addrs {
		fmt.Printf("Found server at %s\n", addr)
	}
	return nil
}

// activateCmd claims the strip
var activateCmd = &cobra.Command{
	Use:   "activate [device]",
	Short: "Make a device the strip's writer",
	Long: `Send SetActive for a device id. Without an argument the --device flag
is used, or a random id is picked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			id, err := strconv.Atoi(args[0])
			if err != nil || id < 0 || id > protocol.MaxDevice {
				return fmt.Errorf("invalid device %q: expected 0-%d", args[0], protocol.MaxDevice)
			}
			deviceID = id
		}

		c, err := connect(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer c.Close()

		if _, ok := c.Device(); ok {
			if err := c.SetActive(); err != nil {
				return err
			}
		} else if _, err := c.ActivateRandom(); err != nil {
			return err
		}

		d, _ := c.Device()
		fmt.Printf("Sent set active to device %d\n", d)
		return nil
	},
}

// pixelCmd sets a single LED
var pixelCmd = &cobra.Command{
	Use:   "pixel <index> <r> <g> <b>",
	Short: "Set one LED",
	Example: `  # Make LED 5 red as device 7
  ambilight pixel 5 255 0 0 --device 7`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseByte("pixel", args[0])
		if err != nil {
			return err
		}
		r, g, b, err := parseColor(args[1:])
		if err != nil {
			return err
		}

		c, err := connect(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer c.Close()

		return c.SetPixel(index, r, g, b)
	},
}

// fillCmd sets the whole strip to one color
var fillCmd = &cobra.Command{
	Use:   "fill <r> <g> <b>",
	Short: "Set the first LEDs to one color",
	Long: `Send a full frame with the first --count LEDs set to a color and the
rest off.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, g, b, err := parseColor(args)
		if err != nil {
			return err
		}

		c, err := connect(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer c.Close()

		return c.Fill(fillCount, r, g, b)
	},
}

func init() {
	fillCmd.Flags().IntVar(&fillCount, "count", protocol.MaxLEDCount, "Number of LEDs to light")
}

// rainbowCmd runs the gaussian color sweep
var rainbowCmd = &cobra.Command{
	Use:   "rainbow",
	Short: "Sweep the strip through red, green and blue",
	Long: `Stream frames that fade red, then green, then blue, for the given
duration. Ctrl+C stops the sweep.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c, err := connect(ctx, true)
		if err != nil {
			return err
		}
		defer c.Close()

		fmt.Printf("Sweeping %d LEDs for %s...\n", sweepCount, sweepDuration)
		err = c.GaussianSweep(ctx, sweepDuration, sweepCount, client.DefaultFrameInterval, nil)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rainbowCmd.Flags().DurationVar(&sweepDuration, "duration", client.DefaultSweepDuration, "Sweep duration")
	rainbowCmd.Flags().IntVar(&sweepCount, "count", client.DefaultSweepLEDs, "Number of LEDs to light")
}

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Open the interactive console",
	RunE:  runConsole,
}

func runConsole(cmd *cobra.Command, args []string) error {
	c, err := connect(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer c.Close()

	return console.Run(c, console.Options{
		SweepLEDs: client.DefaultSweepLEDs,
	})
}
