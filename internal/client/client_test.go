package client

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/oxabz/my-ambilight/internal/protocol"
)

// fakeServer answers Hello and records every decoded client message.
type fakeServer struct {
	conn     net.PacketConn
	messages chan protocol.ClientMessage
	// preamble is sent before each hello reply
	preamble []byte
	silent   bool
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	f := &fakeServer{conn: conn, messages: make(chan protocol.ClientMessage, 64)}
	t.Cleanup(func() { conn.Close() })
	return f
}

func (f *fakeServer) serve() {
	buf := make([]byte, protocol.MaxMessageLength+1)
	for {
		n, addr, err := f.conn.ReadFrom(buf)
		if err != nil {
			return
		}
		msg, err := protocol.DecodeClientMessage(buf[:n])
		if err != nil {
			continue
		}
		f.messages <- msg
		if _, ok := msg.(protocol.Hello); ok && !f.silent {
			if f.preamble != nil {
				f.conn.WriteTo(f.preamble, addr)
			}
			f.conn.WriteTo(protocol.HelloReply(), addr)
		}
	}
}

func (f *fakeServer) next(t *testing.T) protocol.ClientMessage {
	t.Helper()
	select {
	case m := <-f.messages:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a client message")
		return nil
	}
}

func newTestClient(t *testing.T, f *fakeServer) *Client {
	t.Helper()
	c, err := New(context.Background(), Config{
		BroadcastAddr:   f.conn.LocalAddr().String(),
		ReadTimeout:     20 * time.Millisecond,
		DiscoverTimeout: 300 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClient_Discover(t *testing.T) {
	f := newFakeServer(t)
	go f.serve()
	c := newTestClient(t, f)

	addr, err := c.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if addr.String() != f.conn.LocalAddr().String() {
		t.Errorf("Discover() = %v, want %v", addr, f.conn.LocalAddr())
	}
	if c.Server().String() != addr.String() {
		t.Errorf("Server() = %v, want %v", c.Server(), addr)
	}
	if _, ok := f.next(t).(protocol.Hello); !ok {
		t.Error("first message should be Hello")
	}
}

func TestClient_DiscoverIgnoresNonServerDatagrams(t *testing.T) {
	f := newFakeServer(t)
	f.preamble = []byte{protocol.ClientFlag, 0xC0}
	go f.serve()
	c := newTestClient(t, f)

	if _, err := c.Discover(context.Background()); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
}

func TestClient_DiscoverAll(t *testing.T) {
	f := newFakeServer(t)
	go f.serve()
	c := newTestClient(t, f)

	servers, err := c.DiscoverAll(context.Background())
	if err != nil {
		t.Fatalf("DiscoverAll() error = %v", err)
	}
	if len(servers) != 1 {
		t.Errorf("DiscoverAll() found %d servers, want 1", len(servers))
	}
	if c.Server() != nil {
		t.Error("DiscoverAll() should not pick a server")
	}
}

func TestClient_DiscoverNoServer(t *testing.T) {
	f := newFakeServer(t)
	f.silent = true
	go f.serve()
	c := newTestClient(t, f)

	start := time.Now()
	_, err := c.Discover(context.Background())
	if !errors.Is(err, ErrNoServer) {
		t.Errorf("Discover() error = %v, want ErrNoServer", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("Discover() ignored its timeout")
	}
}

func TestClient_DiscoverCancelled(t *testing.T) {
	f := newFakeServer(t)
	f.silent = true
	go f.serve()
	c := newTestClient(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Discover(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Discover() error = %v, want context.Canceled", err)
	}
}

func TestClient_Preconditions(t *testing.T) {
	f := newFakeServer(t)
	c := newTestClient(t, f)

	if err := c.SetPixel(0, 1, 2, 3); !errors.Is(err, ErrNoDevice) {
		t.Errorf("SetPixel() without device error = %v, want ErrNoDevice", err)
	}
	if err := c.UseDevice(5); err != nil {
		t.Fatal(err)
	}
	if err := c.SetActive(); !errors.Is(err, ErrNoServer) {
		t.Errorf("SetActive() without server error = %v, want ErrNoServer", err)
	}
	if err := c.UseDevice(64); !errors.Is(err, protocol.ErrInvalidDevice) {
		t.Errorf("UseDevice(64) error = %v, want ErrInvalidDevice", err)
	}
	if d, _ := c.Device(); d != 5 {
		t.Errorf("Device() = %v after rejected UseDevice, want 5", d)
	}
}

func TestClient_Messages(t *testing.T) {
	f := newFakeServer(t)
	go f.serve()

	c, err := New(context.Background(), Config{Server: f.conn.LocalAddr().String()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()
	if err := c.UseDevice(12); err != nil {
		t.Fatal(err)
	}

	if err := c.SetActive(); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}
	if m, ok := f.next(t).(protocol.SetActive); !ok || m.Device != 12 {
		t.Errorf("got %v, want SetActive{12}", m)
	}

	if err := c.SetPixel(5, 10, 20, 30); err != nil {
		t.Fatalf("SetPixel() error = %v", err)
	}
	want := protocol.SetPixel{Device: 12, Index: 5, R: 10, G: 20, B: 30}
	if m := f.next(t); m != want {
		t.Errorf("got %v, want %v", m, want)
	}

	if err := c.Fill(2, 1, 2, 3); err != nil {
		t.Fatalf("Fill() error = %v", err)
	}
	m, ok := f.next(t).(protocol.SendPixels)
	if !ok {
		t.Fatal("Fill() did not send SendPixels")
	}
	if m.Device != 12 || m.LitCount() != 2 {
		t.Errorf("got %v, want device 12 with 2 LEDs lit", m)
	}
	if m.Pixels[3] != 1 || m.Pixels[5] != 3 || m.Pixels[6] != 0 {
		t.Errorf("pixels = %v", m.Pixels[:9])
	}
}

func TestClient_ActivateRandom(t *testing.T) {
	f := newFakeServer(t)
	go f.serve()

	c, err := New(context.Background(), Config{Server: f.conn.LocalAddr().String()})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	d, err := c.ActivateRandom()
	if err != nil {
		t.Fatalf("ActivateRandom() error = %v", err)
	}
	if !d.Valid() {
		t.Errorf("ActivateRandom() = %v, out of range", d)
	}
	if got, _ := c.Device(); got != d {
		t.Errorf("Device() = %v, want %v", got, d)
	}
	if m, ok := f.next(t).(protocol.SetActive); !ok || m.Device != d {
		t.Errorf("got %v, want SetActive{%d}", m, d)
	}
}

func TestNew_InvalidServer(t *testing.T) {
	if _, err := New(context.Background(), Config{Server: "no-port"}); err == nil {
		t.Error("New() with an address lacking a port should fail")
	}
}
