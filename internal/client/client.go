// Package client sends ambilight protocol messages to a server over UDP.
package client

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/oxabz/my-ambilight/internal/logging"
	"github.com/oxabz/my-ambilight/internal/protocol"
	"github.com/oxabz/my-ambilight/internal/udpsock"
	"go.uber.org/zap"
)

// DefaultReadTimeout bounds each wait for a Hello reply.
const DefaultReadTimeout = 100 * time.Millisecond

// DefaultDiscoverTimeout bounds a whole discovery round.
const DefaultDiscoverTimeout = time.Second

var (
	// ErrNoServer is returned when no server answered, or a message is sent
	// before a server is known.
	ErrNoServer = errors.New("no ambilight server found")

	// ErrNoDevice is returned when a device-scoped message is sent before a
	// device id was chosen.
	ErrNoDevice = errors.New("no device selected")
)

// Config holds the client configuration
type Config struct {
	// Server is "host:port" of a known server. Empty means discover by
	// broadcast.
	Server string

	// Port is the server port used for broadcast discovery.
	Port int

	// BroadcastAddr overrides the discovery target. Default: 255.255.255.255:Port.
	BroadcastAddr string

	// ReadTimeout bounds each wait for a Hello reply.
	ReadTimeout time.Duration

	// DiscoverTimeout bounds a whole discovery round.
	DiscoverTimeout time.Duration
}

// Client talks to one server on behalf of one device.
type Client struct {
	config Config
	conn   net.PacketConn

	mu        sync.Mutex
	server    net.Addr
	device    protocol.Device
	hasDevice bool
}

// New opens an ephemeral UDP socket with broadcast enabled.
func New(ctx context.Context, config Config) (*Client, error) {
	if config.Port == 0 {
		config.Port = protocol.DefaultPort
	}
	if config.BroadcastAddr == "" {
		config.BroadcastAddr = net.JoinHostPort("255.255.255.255", strconv.Itoa(config.Port))
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = DefaultReadTimeout
	}
	if config.DiscoverTimeout <= 0 {
		config.DiscoverTimeout = DefaultDiscoverTimeout
	}

	conn, err := udpsock.Listen(ctx, ":0", udpsock.Options{Broadcast: true})
	if err != nil {
		return nil, err
	}

	c := &Client{config: config, conn: conn}

	if config.Server != "" {
		addr, err := net.ResolveUDPAddr("udp", config.Server)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("invalid server address %q: %w", config.Server, err)
		}
		c.server = addr
	}

	return c, nil
}

// Close releases the socket.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Server returns the server messages are sent to, or nil before discovery.
func (c *Client) Server() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.server
}

// UseServer sets the server address directly.
func (c *Client) UseServer(addr net.Addr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.server = addr
}

// Device returns the selected device id.
func (c *Client) Device() (protocol.Device, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.device, c.hasDevice
}

// UseDevice selects the device id subsequent messages speak for.
func (c *Client) UseDevice(id uint8) error {
	d, err := protocol.NewDevice(id)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.device, c.hasDevice = d, true
	c.mu.Unlock()
	return nil
}

// Discover broadcasts a Hello and adopts the first server that answers.
// A configured server is probed directly instead.
func (c *Client) Discover(ctx context.Context) (net.Addr, error) {
	servers, err := c.probe(ctx, true)
	if err != nil {
		return nil, err
	}
	c.UseServer(servers[0])
	return servers[0], nil
}

// DiscoverAll broadcasts a Hello and collects every server that answers
// within the discovery timeout.
func (c *Client) DiscoverAll(ctx context.Context) ([]net.Addr, error) {
	return c.probe(ctx, false)
}

func (c *Client) probe(ctx context.Context, first bool) ([]net.Addr, error) {
	target := c.Server()
	if target == nil {
		addr, err := net.ResolveUDPAddr("udp", c.config.BroadcastAddr)
		if err != nil {
			return nil, fmt.Errorf("invalid broadcast address %q: %w", c.config.BroadcastAddr, err)
		}
		target = addr
	}

	if err := c.sendTo(protocol.Hello{}, target); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(c.config.DiscoverTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	var servers []net.Addr
	seen := make(map[string]bool)
	buf := make([]byte, protocol.MaxMessageLength)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		n, addr, err := c.conn.ReadFrom(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return nil, fmt.Errorf("failed to read hello reply: %w", err)
		}

		logging.LogDatagram(addr.String(), "received", buf[:n])
		msg, err := protocol.DecodeServerMessage(buf[:n])
		if err != nil {
			logging.Debug("Ignoring non-server datagram",
				zap.String("remote_addr", addr.String()),
				zap.Error(err),
			)
			continue
		}
		if _, ok := msg.(protocol.ServerHello); !ok || seen[addr.String()] {
			continue
		}
		seen[addr.String()] = true
		servers = append(servers, addr)
		logging.Info("Found server", zap.String("addr", addr.String()))
		if first {
			break
		}
	}
	_ = c.conn.SetReadDeadline(time.Time{})

	if len(servers) == 0 {
		return nil, ErrNoServer
	}
	return servers, nil
}

// SetActive claims the strip for the selected device.
func (c *Client) SetActive() error {
	d, err := c.requireDevice()
	if err != nil {
		return err
	}
	return c.send(protocol.SetActive{Device: d})
}

// ActivateRandom picks a random device id, selects it and claims the strip.
func (c *Client) ActivateRandom() (protocol.Device, error) {
	id := uint8(rand.IntN(protocol.MaxDevice + 1))
	if err := c.UseDevice(id); err != nil {
		return 0, err
	}
	return protocol.Device(id), c.SetActive()
}

// SetPixel patches one LED.
func (c *Client) SetPixel(index, r, g, b uint8) error {
	d, err := c.requireDevice()
	if err != nil {
		return err
	}
	return c.send(protocol.SetPixel{Device: d, Index: index, R: r, G: g, B: b})
}

// SendPixels replaces the whole frame. LEDs beyond len(pixels)/3 turn off.
func (c *Client) SendPixels(pixels []byte) error {
	d, err := c.requireDevice()
	if err != nil {
		return err
	}
	m, err := protocol.NewSendPixels(uint8(d), pixels)
	if err != nil {
		return err
	}
	return c.send(m)
}

// Fill lights the first count LEDs with one color and turns the rest off.
func (c *Client) Fill(count int, r, g, b uint8) error {
	return c.SendPixels(Solid(count, r, g, b))
}

func (c *Client) requireDevice() (protocol.Device, error) {
	d, ok := c.Device()
	if !ok {
		return 0, ErrNoDevice
	}
	return d, nil
}

func (c *Client) send(m protocol.ClientMessage) error {
	server := c.Server()
	if server == nil {
		return ErrNoServer
	}
	return c.sendTo(m, server)
}

func (c *Client) sendTo(m protocol.ClientMessage, addr net.Addr) error {
	data, err := protocol.EncodeClientMessage(m)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", m, err)
	}
	logging.LogDatagram(addr.String(), "sent", data)
	if _, err := c.conn.WriteTo(data, addr); err != nil {
		return fmt.Errorf("failed to send %s to %s: %w", m.Instruction(), addr, err)
	}
	return nil
}
