package config

import (
	"fmt"
	"net"
	"time"

	"github.com/oxabz/my-ambilight/internal/leds"
	"github.com/oxabz/my-ambilight/internal/logging"
	"github.com/oxabz/my-ambilight/internal/protocol"
)

// CurrentVersion is the config file format version.
const CurrentVersion = 1

// Config is the server configuration file.
type Config struct {
	Version  int           `yaml:"version"`
	LogLevel string        `yaml:"log_level"`
	Server   ServerConfig  `yaml:"server"`
	Strip    StripConfig   `yaml:"strip"`
	Monitor  MonitorConfig `yaml:"monitor"`
}

// ServerConfig configures the UDP listener.
type ServerConfig struct {
	Host      string `yaml:"host"`      // Address to bind, empty for all interfaces
	Port      int    `yaml:"port"`      // UDP port
	Broadcast bool   `yaml:"broadcast"` // Set SO_BROADCAST so broadcast hellos arrive
	MDNS      bool   `yaml:"mdns"`      // Advertise _ambilight._udp
	Name      string `yaml:"name"`      // mDNS instance name
}

// StripConfig configures the LED strip and its transmitter.
type StripConfig struct {
	LEDCount         int           `yaml:"led_count"`
	TransmitInterval time.Duration `yaml:"transmit_interval"`
	SPIPort          string        `yaml:"spi_port"` // Empty runs without hardware, "auto" opens the first port
	SPIFrequencyHz   int64         `yaml:"spi_frequency_hz"`
	Timing           leds.Timing   `yaml:"timing"`
}

// MonitorConfig configures the HTTP monitor.
type MonitorConfig struct {
	Listen string `yaml:"listen"` // Empty disables the monitor
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Version:  CurrentVersion,
		LogLevel: "info",
		Server: ServerConfig{
			Port:      protocol.DefaultPort,
			Broadcast: true,
			MDNS:      true,
			Name:      "ambilight",
		},
		Strip: StripConfig{
			LEDCount:         protocol.MaxLEDCount,
			TransmitInterval: leds.DefaultInterval,
			SPIFrequencyHz:   6_400_000,
			Timing:           leds.WS2812Timing,
		},
	}
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("unsupported config version: %d (expected %d)", c.Version, CurrentVersion)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Server.Host != "" && net.ParseIP(c.Server.Host) == nil {
		return fmt.Errorf("invalid server host %q: not an IP address", c.Server.Host)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.MDNS && c.Server.Name == "" {
		return fmt.Errorf("mdns enabled but server name is empty")
	}
	if c.Strip.LEDCount < 1 || c.Strip.LEDCount > protocol.MaxLEDCount {
		return fmt.Errorf("invalid led_count: %d (allowed 1-%d)", c.Strip.LEDCount, protocol.MaxLEDCount)
	}
	if c.Strip.TransmitInterval <= 0 {
		return fmt.Errorf("transmit_interval must be positive, got %v", c.Strip.TransmitInterval)
	}
	if c.Strip.SPIFrequencyHz <= 0 {
		return fmt.Errorf("spi_frequency_hz must be positive, got %d", c.Strip.SPIFrequencyHz)
	}
	if err := c.Strip.Timing.Validate(); err != nil {
		return fmt.Errorf("invalid strip timing: %w", err)
	}
	return nil
}

// ListenAddr returns the UDP address the server binds.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Server.Host, fmt.Sprint(c.Server.Port))
}
