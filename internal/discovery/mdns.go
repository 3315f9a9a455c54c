package discovery

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/oxabz/my-ambilight/internal/logging"
	"github.com/oxabz/my-ambilight/internal/protocol"
	"go.uber.org/zap"
)

const (
	// ServiceType is the mDNS service type ambilight servers advertise
	ServiceType = "_ambilight._udp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for server discovery
	DefaultScanTimeout = 3 * time.Second
)

// TXT record keys
const (
	TxtID       = "id"
	TxtLEDCount = "leds"
	TxtVersion  = "version"
)

// Advertisement is a running mDNS registration.
type Advertisement struct {
	server *zeroconf.Server
	once   sync.Once
}

// AdvertiseConfig describes the service to register.
type AdvertiseConfig struct {
	Instance string
	Port     int
	ID       string
	LEDCount int
	Version  string
}

// TXT returns the TXT records for the advertisement
func (c AdvertiseConfig) TXT() []string {
	txt := []string{TxtID + "=" + c.ID, TxtLEDCount + "=" + strconv.Itoa(c.LEDCount)}
	if c.Version != "" {
		txt = append(txt, TxtVersion+"="+c.Version)
	}
	return txt
}

// Advertise registers the server on every multicast-capable interface.
// Call Shutdown to withdraw it.
func Advertise(cfg AdvertiseConfig) (*Advertisement, error) {
	server, err := zeroconf.Register(cfg.Instance, ServiceType, ServiceDomain, cfg.Port, cfg.TXT(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	logging.Info("Advertising over mDNS",
		zap.String("instance", cfg.Instance),
		zap.String("service", ServiceType),
		zap.Int("port", cfg.Port),
	)
	return &Advertisement{server: server}, nil
}

// Shutdown withdraws the advertisement. Safe to call more than once.
func (a *Advertisement) Shutdown() {
	if a == nil {
		return
	}
	a.once.Do(a.server.Shutdown)
}

// Scanner handles mDNS server discovery
type Scanner struct {
	// Timeout is the maximum time to wait for server discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan discovers all ambilight servers on the local network. It returns
// when the timeout expires or ctx is cancelled.
func (s *Scanner) Scan(ctx context.Context) ([]*Server, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	done := make(chan struct{})
	servers := make([]*Server, 0)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		defer close(done)
		seen := make(map[string]bool)
		for entry := range entries {
			server := s.parseServiceEntry(entry)
			if server == nil || seen[server.Addr()] {
				continue
			}
			seen[server.Addr()] = true
			servers = append(servers, server)
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	// The resolver closes entries once it sees the cancellation.
	select {
	case <-done:
	case <-time.After(time.Second):
	}

	return servers, nil
}

// First returns the first server that answers.
func (s *Scanner) First(ctx context.Context) (*Server, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Server, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			if server := s.parseServiceEntry(entry); server != nil {
				select {
				case found <- server:
				default:
				}
				cancel()
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case server := <-found:
		return server, nil
	case <-ctx.Done():
		select {
		case server := <-found:
			return server, nil
		default:
		}
		return nil, fmt.Errorf("no %s service found within %v", ServiceType, s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Server
// Returns nil if the entry has no usable address
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Server {
	if entry == nil {
		return nil
	}

	// Prefer IPv4
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}

	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = protocol.DefaultPort
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	ledCount, _ := strconv.Atoi(metadata[TxtLEDCount])

	return &Server{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		ID:           metadata[TxtID],
		LEDCount:     ledCount,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// Scan is a convenience function to scan for servers with a custom timeout
func Scan(ctx context.Context, timeout time.Duration) ([]*Server, error) {
	scanner := NewScanner()
	if timeout > 0 {
		scanner.Timeout = timeout
	}
	return scanner.Scan(ctx)
}

