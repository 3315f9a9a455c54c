package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Server represents an ambilight server found on the network
type Server struct {
	// Instance is the mDNS instance name (e.g., "living-room")
	Instance string

	// Hostname is the mDNS hostname (e.g., "raspberrypi.local.")
	Hostname string

	// IP is the server address, IPv4 when available
	IP string

	// Port is the UDP port the server listens on
	Port int

	// ID is the server's instance id, stable for one process lifetime
	ID string

	// LEDCount is the strip length the server drives (0 if not advertised)
	LEDCount int

	// Metadata contains the raw mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the server was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the server
func (s *Server) String() string {
	if s.Instance == "" {
		return fmt.Sprintf("Ambilight server at %s", s.Addr())
	}
	return fmt.Sprintf("Ambilight server %q at %s", s.Instance, s.Addr())
}

// Addr returns the UDP address to send messages to
func (s *Server) Addr() string {
	return net.JoinHostPort(s.IP, strconv.Itoa(s.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (s *Server) GetMetadata(key string) string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata[key]
}
