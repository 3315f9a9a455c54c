package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/oxabz/my-ambilight/internal/arbiter"
	"github.com/oxabz/my-ambilight/internal/discovery"
	"github.com/oxabz/my-ambilight/internal/leds"
	"github.com/oxabz/my-ambilight/internal/logging"
	"github.com/oxabz/my-ambilight/internal/metrics"
	"github.com/oxabz/my-ambilight/internal/monitor"
	"github.com/oxabz/my-ambilight/internal/protocol"
	"github.com/oxabz/my-ambilight/internal/udpsock"
	"go.uber.org/zap"
)

// Config holds the server configuration
type Config struct {
	Host      string
	Port      int
	Broadcast bool // Set SO_BROADCAST on the listening socket
	LogLevel  string

	LEDCount    int
	Interval    time.Duration
	Timing      leds.Timing
	Transmitter leds.Transmitter // nil runs without hardware

	MDNS    bool   // Advertise over mDNS
	Name    string // mDNS instance name
	Version string // Advertised in TXT records

	MonitorListen string // Empty disables the HTTP monitor
}

// Server is the ambilight UDP server. It owns the pixel buffer, the device
// arbiter and the transmit loop.
type Server struct {
	config     *Config
	id         uuid.UUID
	buffer     *leds.Buffer
	arbiter    *arbiter.Arbiter
	metrics    *metrics.Metrics
	dispatcher *Dispatcher
	loop       *leds.Loop
	tx         leds.Transmitter
	monitor    *monitor.Monitor

	conn   net.PacketConn
	advert *discovery.Advertisement

	wg           sync.WaitGroup
	mu           sync.Mutex
	cancel       context.CancelFunc
	shutdownOnce sync.Once
}

// New creates a new Server instance
func New(config *Config) (*Server, error) {
	if err := logging.Initialize(config.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	buffer, err := leds.NewBuffer(config.LEDCount)
	if err != nil {
		return nil, fmt.Errorf("failed to create pixel buffer: %w", err)
	}

	tx := config.Transmitter
	if tx == nil {
		logging.Warn("No transmitter configured, frames will not reach a strip")
		tx = leds.NopTransmitter{}
	}

	loop, err := leds.NewLoop(buffer, tx, config.Timing, config.Interval)
	if err != nil {
		return nil, fmt.Errorf("failed to create transmit loop: %w", err)
	}

	s := &Server{
		config:  config,
		id:      uuid.New(),
		buffer:  buffer,
		arbiter: arbiter.New(),
		metrics: metrics.New(metrics.Config{}),
		loop:    loop,
		tx:      tx,
	}
	s.dispatcher = NewDispatcher(s.buffer, s.arbiter, s.metrics)
	loop.AddObserver(s.metrics)

	if config.MonitorListen != "" {
		s.monitor = monitor.New(monitor.Config{
			Listen:  config.MonitorListen,
			ID:      s.id.String(),
			Buffer:  s.buffer,
			Arbiter: s.arbiter,
			Metrics: s.metrics,
		})
		loop.AddObserver(s.monitor)
	}

	return s, nil
}

// ID returns the server instance id advertised over mDNS.
func (s *Server) ID() uuid.UUID { return s.id }

// Buffer returns the pixel buffer.
func (s *Server) Buffer() *leds.Buffer { return s.buffer }

// Arbiter returns the active device register.
func (s *Server) Arbiter() *arbiter.Arbiter { return s.arbiter }

// LocalAddr returns the bound UDP address, or nil before Listen.
func (s *Server) LocalAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Listen binds the UDP socket. Serve calls it if needed.
func (s *Server) Listen(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	conn, err := udpsock.Listen(ctx, addr, udpsock.Options{
		ReuseAddr: true,
		Broadcast: s.config.Broadcast,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	logging.Info("Server listening for datagrams",
		zap.String("addr", conn.LocalAddr().String()),
		zap.Bool("broadcast", s.config.Broadcast),
	)
	return nil
}

// Start runs the server until ctx is cancelled or SIGINT/SIGTERM arrives.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info("Starting ambilight server",
		zap.String("id", s.id.String()),
		zap.Int("leds", s.config.LEDCount),
		zap.Int("port", s.config.Port),
		zap.String("log_level", s.config.LogLevel),
	)

	return s.Serve(ctx)
}

// Serve runs the receive and transmit loops until ctx is done, then shuts
// down. It returns early with an error if the socket fails to bind or the
// monitor cannot listen.
func (s *Server) Serve(ctx context.Context) error {
	if s.LocalAddr() == nil {
		if err := s.Listen(ctx); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	if s.monitor != nil {
		if err := s.monitor.Start(); err != nil {
			_ = s.Shutdown(context.Background())
			return err
		}
	}

	if s.config.MDNS {
		s.advertise()
	}

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		_ = s.loop.Run(ctx)
	}()
	go func() {
		defer s.wg.Done()
		s.receive()
	}()

	<-ctx.Done()
	logging.Info("Shutdown requested, stopping server...")
	return s.Shutdown(context.Background())
}

func (s *Server) advertise() {
	port := s.config.Port
	if udp, ok := s.LocalAddr().(*net.UDPAddr); ok {
		port = udp.Port
	}
	advert, err := discovery.Advertise(discovery.AdvertiseConfig{
		Instance: s.config.Name,
		Port:     port,
		ID:       s.id.String(),
		LEDCount: s.config.LEDCount,
		Version:  s.config.Version,
	})
	if err != nil {
		// Broadcast discovery still works without mDNS.
		logging.Warn("mDNS advertisement failed", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.advert = advert
	s.mu.Unlock()
}

// receive reads datagrams until the socket is closed. Malformed datagrams
// are logged and skipped.
func (s *Server) receive() {
	// One byte over the maximum so oversize datagrams are seen as such.
	buf := make([]byte, protocol.MaxMessageLength+1)
	for {
		n, addr, err := s.conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logging.Error("Failed to read datagram", zap.Error(err))
			continue
		}
		s.handleDatagram(addr, buf[:n])
	}
}

func (s *Server) handleDatagram(addr net.Addr, data []byte) {
	remoteAddr := addr.String()

	reply, err := s.dispatcher.Handle(remoteAddr, data)
	if err != nil {
		logging.Warn("Dropped malformed datagram",
			zap.String("remote_addr", remoteAddr),
			zap.Int("length", len(data)),
			zap.Error(err),
		)
		return
	}
	if reply == nil {
		return
	}

	logging.LogDatagram(remoteAddr, "sent", reply)
	if _, err := s.conn.WriteTo(reply, addr); err != nil {
		logging.Warn("Failed to send reply",
			zap.String("remote_addr", remoteAddr),
			zap.Error(err),
		)
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.shutdown(ctx)
	})
	return err
}

func (s *Server) shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	s.mu.Lock()
	cancel, conn, advert := s.cancel, s.conn, s.advert
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	advert.Shutdown()

	if conn != nil {
		if err := conn.Close(); err != nil {
			logging.Error("Error closing socket", zap.Error(err))
		}
	}

	if s.monitor != nil {
		if err := s.monitor.Shutdown(ctx); err != nil {
			logging.Error("Error stopping monitor", zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("Server stopped")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	case <-time.After(10 * time.Second):
		logging.Warn("Shutdown timeout after 10 seconds, forcing close")
	}

	var err error
	if cerr := s.tx.Close(); cerr != nil {
		err = fmt.Errorf("failed to close transmitter: %w", cerr)
	}

	logging.Sync()

	return err
}
