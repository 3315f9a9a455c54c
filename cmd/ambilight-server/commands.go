package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/physic"

	"github.com/oxabz/my-ambilight/internal/config"
	"github.com/oxabz/my-ambilight/internal/leds"
	"github.com/oxabz/my-ambilight/internal/server"
	"github.com/oxabz/my-ambilight/internal/version"
)

// Serve command flags
var (
	host      string
	port      int
	ledCount  int
	interval  time.Duration
	spiPort   string
	spiFreqHz int64
	mdns      bool
	monitor   string
	logLevel  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the LED server",
	Long: `Start the UDP LED server.

Settings come from the config file, and any flag given on the command line
overrides the file. Without --spi the server runs without hardware, which is
useful for testing clients and the monitor.`,
	Example: `  # Run with the config file defaults
  ambilight-server serve

  # Drive 120 LEDs from the first SPI port, refreshed every 20ms
  ambilight-server serve --spi "" --leds 120 --interval 20ms

  # Drive a specific port with debug logging and the HTTP monitor
  ambilight-server serve --spi /dev/spidev0.0 --log-level debug --monitor :8080`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&host, "host", "", "Address to bind (empty = all interfaces)")
	f.IntVar(&port, "port", 0, "UDP port")
	f.IntVar(&ledCount, "leds", 0, "Number of LEDs on the strip (1-256)")
	f.DurationVar(&interval, "interval", 0, "Strip refresh interval")
	f.StringVar(&spiPort, "spi", "", "SPI port driving the strip (empty string = first port)")
	f.Int64Var(&spiFreqHz, "spi-freq", 0, "SPI clock in Hz")
	f.BoolVar(&mdns, "mdns", true, "Advertise the server over mDNS")
	f.StringVar(&monitor, "monitor", "", "HTTP monitor listen address (e.g. :8080)")
	f.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// applyFlags overlays flags set on the command line onto cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("host") {
		cfg.Server.Host = host
	}
	if f.Changed("port") {
		cfg.Server.Port = port
	}
	if f.Changed("leds") {
		cfg.Strip.LEDCount = ledCount
	}
	if f.Changed("interval") {
		cfg.Strip.TransmitInterval = interval
	}
	if f.Changed("spi") {
		cfg.Strip.SPIPort = spiPort
		if spiPort == "" {
			// An explicit empty value selects the first port found.
			cfg.Strip.SPIPort = firstSPIPort
		}
	}
	if f.Changed("spi-freq") {
		cfg.Strip.SPIFrequencyHz = spiFreqHz
	}
	if f.Changed("mdns") {
		cfg.Server.MDNS = mdns
	}
	if f.Changed("monitor") {
		cfg.Monitor.Listen = monitor
	}
	if f.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
}

// firstSPIPort is the config value asking for whichever SPI port the host
// registers first.
const firstSPIPort = "auto"

func openTransmitter(cfg *config.Config) (leds.Transmitter, error) {
	if cfg.Strip.SPIPort == "" {
		return nil, nil
	}
	name := cfg.Strip.SPIPort
	if name == firstSPIPort {
		name = ""
	}
	tx, err := leds.OpenSPI(name, physic.Frequency(cfg.Strip.SPIFrequencyHz)*physic.Hertz)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	tx, err := openTransmitter(cfg)
	if err != nil {
		return err
	}

	srv, err := server.New(&server.Config{
		Host:          cfg.Server.Host,
		Port:          cfg.Server.Port,
		Broadcast:     cfg.Server.Broadcast,
		LogLevel:      cfg.LogLevel,
		LEDCount:      cfg.Strip.LEDCount,
		Interval:      cfg.Strip.TransmitInterval,
		Timing:        cfg.Strip.Timing,
		Transmitter:   tx,
		MDNS:          cfg.Server.MDNS,
		Name:          cfg.Server.Name,
		Version:       version.String(),
		MonitorListen: cfg.Monitor.Listen,
	})
	if err != nil {
		if tx != nil {
			_ = tx.Close()
		}
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(context.Background())
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the server config file",
}

var configForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			p, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			path = p
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
		}
		if err := config.Default().Save(path); err != nil {
			return err
		}
		fmt.Printf("Wrote default config to %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
