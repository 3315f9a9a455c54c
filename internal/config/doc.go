// Package config loads and saves the ambilight server configuration.
//
// The configuration is a YAML file. Durations are written the way
// time.ParseDuration reads them ("1s", "350ns"):
//
//	version: 1
//	log_level: info
//	server:
//	    port: 52772
//	    broadcast: true
//	    mdns: true
//	    name: ambilight
//	strip:
//	    led_count: 256
//	    transmit_interval: 1s
//	    spi_port: SPI0.0
//	    spi_frequency_hz: 6400000
//	    timing:
//	        t0h: 350ns
//	        t0l: 800ns
//	        t1h: 700ns
//	        t1l: 600ns
//	        reset: 1ms
//	monitor:
//	    listen: 127.0.0.1:8080
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/my-ambilight/config.yaml or $HOME/.config/my-ambilight/config.yaml
//   - macOS: $HOME/.config/my-ambilight/config.yaml
//   - Windows: %LOCALAPPDATA%\my-ambilight\config.yaml
//
// A missing file is not an error: Load returns Default().
package config
