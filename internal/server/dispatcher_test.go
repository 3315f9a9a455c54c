package server

import (
	"bytes"
	"errors"
	"testing"

	"github.com/oxabz/my-ambilight/internal/arbiter"
	"github.com/oxabz/my-ambilight/internal/leds"
	"github.com/oxabz/my-ambilight/internal/metrics"
	"github.com/oxabz/my-ambilight/internal/protocol"
	"github.com/prometheus/client_golang/prometheus"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *leds.Buffer, *arbiter.Arbiter) {
	t.Helper()
	buffer, err := leds.NewBuffer(protocol.MaxLEDCount)
	if err != nil {
		t.Fatal(err)
	}
	arb := arbiter.New()
	m := metrics.New(metrics.Config{Registry: prometheus.NewRegistry()})
	return NewDispatcher(buffer, arb, m), buffer, arb
}

func encode(t *testing.T, m protocol.ClientMessage) []byte {
	t.Helper()
	data, err := m.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary(%v) error = %v", m, err)
	}
	return data
}

func sendPixels(t *testing.T, device uint8, pixels []byte) []byte {
	t.Helper()
	m, err := protocol.NewSendPixels(device, pixels)
	if err != nil {
		t.Fatal(err)
	}
	return encode(t, m)
}

func activate(t *testing.T, d *Dispatcher, device uint8) {
	t.Helper()
	m, err := protocol.NewSetActive(device)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Handle("test", encode(t, m)); err != nil {
		t.Fatalf("SetActive(%d) error = %v", device, err)
	}
}

func TestDispatcher_HelloReply(t *testing.T) {
	d, buffer, _ := newTestDispatcher(t)
	before := buffer.Snapshot()

	reply, err := d.Handle("test", encode(t, protocol.Hello{}))
	if err != nil {
		t.Fatalf("Handle(Hello) error = %v", err)
	}
	if !bytes.Equal(reply, []byte{protocol.ServerFlag, 0b1100_0000}) {
		t.Errorf("reply = % x, want e6 c0", reply)
	}
	if !bytes.Equal(before, buffer.Snapshot()) {
		t.Error("Hello modified the buffer")
	}
}

func TestDispatcher_NoWritesBeforeActivation(t *testing.T) {
	d, buffer, _ := newTestDispatcher(t)
	before := buffer.Snapshot()

	for _, id := range []uint8{0, 1, 63} {
		if _, err := d.Handle("test", sendPixels(t, id, []byte{1, 2, 3})); err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
	}
	if !bytes.Equal(before, buffer.Snapshot()) {
		t.Error("writes were applied before any SetActive")
	}
}

func TestDispatcher_ActiveDeviceGatesSendPixels(t *testing.T) {
	d, buffer, arb := newTestDispatcher(t)
	activate(t, d, 9)

	if active, ok := arb.Active(); !ok || active != 9 {
		t.Fatalf("Active() = (%v, %v), want (9, true)", active, ok)
	}

	// d+1 is ignored
	before := buffer.Snapshot()
	if _, err := d.Handle("test", sendPixels(t, 10, []byte{1, 2, 3})); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, buffer.Snapshot()) {
		t.Error("write from device 10 was applied while 9 is active")
	}

	// d itself mutates
	if _, err := d.Handle("test", sendPixels(t, 9, []byte{1, 2, 3})); err != nil {
		t.Fatal(err)
	}
	if r, g, b, _ := buffer.Pixel(0); r != 1 || g != 2 || b != 3 {
		t.Errorf("Pixel(0) = (%d, %d, %d), want (1, 2, 3)", r, g, b)
	}
}

func TestDispatcher_LastActivationWins(t *testing.T) {
	d, buffer, _ := newTestDispatcher(t)
	activate(t, d, 1)
	activate(t, d, 2)

	d.Handle("test", sendPixels(t, 1, []byte{5, 5, 5}))
	if r, _, _, _ := buffer.Pixel(0); r == 5 {
		t.Error("device 1 wrote after device 2 took over")
	}

	d.Handle("test", sendPixels(t, 2, []byte{6, 6, 6}))
	if r, _, _, _ := buffer.Pixel(0); r != 6 {
		t.Errorf("device 2 write not applied: r = %d", r)
	}
}

func TestDispatcher_ShortSendPixelsZeroFills(t *testing.T) {
	d, buffer, _ := newTestDispatcher(t)
	activate(t, d, 0)

	// Only 2 LEDs worth of payload on the wire.
	data := []byte{protocol.ClientFlag, byte(protocol.InstructionSendPixels), 1, 2, 3, 4, 5, 6}
	if _, err := d.Handle("test", data); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	snap := buffer.Snapshot()
	if !bytes.Equal(snap[:6], []byte{1, 2, 3, 4, 5, 6}) {
		t.Errorf("first two LEDs = %v", snap[:6])
	}
	for i := 6; i < len(snap); i++ {
		if snap[i] != 0 {
			t.Fatalf("byte %d = %d, want 0 (LED %d onward turned off)", i, snap[i], i/3)
		}
	}
}

func TestDispatcher_SetPixelTouchesOnlyOneLED(t *testing.T) {
	d, buffer, _ := newTestDispatcher(t)
	activate(t, d, 7)
	before := buffer.Snapshot()

	m, _ := protocol.NewSetPixel(7, 5, 10, 20, 30)
	if _, err := d.Handle("test", encode(t, m)); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	after := buffer.Snapshot()
	for i := range after {
		if i/3 == 5 {
			continue
		}
		if after[i] != before[i] {
			t.Fatalf("byte %d changed", i)
		}
	}
	if !bytes.Equal(after[15:18], []byte{10, 20, 30}) {
		t.Errorf("LED 5 = %v, want [10 20 30]", after[15:18])
	}
}

func TestDispatcher_SetPixelFromInactiveDevice(t *testing.T) {
	d, buffer, _ := newTestDispatcher(t)
	activate(t, d, 7)
	before := buffer.Snapshot()

	m, _ := protocol.NewSetPixel(8, 5, 10, 20, 30)
	d.Handle("test", encode(t, m))

	if !bytes.Equal(before, buffer.Snapshot()) {
		t.Error("SetPixel from inactive device was applied")
	}
}

func TestDispatcher_SetPixelPastShortStrip(t *testing.T) {
	buffer, _ := leds.NewBuffer(4)
	arb := arbiter.New()
	d := NewDispatcher(buffer, arb, nil)
	arb.Activate(protocol.MustDevice(0))
	before := buffer.Snapshot()

	m, _ := protocol.NewSetPixel(0, 200, 1, 1, 1)
	if _, err := d.Handle("test", encode(t, m)); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if !bytes.Equal(before, buffer.Snapshot()) {
		t.Error("out of range SetPixel modified the buffer")
	}
}

func TestDispatcher_MalformedLeavesStateUntouched(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty", []byte{}, protocol.ErrInvalidMessageLength},
		{"single byte", []byte{protocol.ClientFlag}, protocol.ErrInvalidMessageLength},
		{"oversize", make([]byte, protocol.MaxMessageLength+1), protocol.ErrInvalidMessageLength},
		{"server flag", []byte{protocol.ServerFlag, 0x00, 1, 2, 3}, protocol.ErrInvalidFlag},
		{"garbage flag", []byte{0x00, 0x40}, protocol.ErrInvalidFlag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, buffer, arb := newTestDispatcher(t)
			activate(t, d, 0)
			before := buffer.Snapshot()

			reply, err := d.Handle("test", tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Handle() error = %v, want %v", err, tt.wantErr)
			}
			if reply != nil {
				t.Errorf("reply = % x, want nil", reply)
			}
			if !bytes.Equal(before, buffer.Snapshot()) {
				t.Error("malformed datagram modified the buffer")
			}
			if active, _ := arb.Active(); active != 0 {
				t.Errorf("active device changed to %v", active)
			}
		})
	}
}

func TestDecodeReason(t *testing.T) {
	_, lenErr := protocol.DecodeClientMessage(nil)
	_, flagErr := protocol.DecodeClientMessage([]byte{0, 0})

	tests := []struct {
		err  error
		want string
	}{
		{lenErr, "invalid_length"},
		{flagErr, "invalid_flag"},
		{errors.New("boom"), "other"},
	}
	for _, tt := range tests {
		if got := decodeReason(tt.err); got != tt.want {
			t.Errorf("decodeReason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
