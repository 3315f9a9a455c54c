package server

import (
	"errors"

	"github.com/oxabz/my-ambilight/internal/arbiter"
	"github.com/oxabz/my-ambilight/internal/leds"
	"github.com/oxabz/my-ambilight/internal/logging"
	"github.com/oxabz/my-ambilight/internal/metrics"
	"github.com/oxabz/my-ambilight/internal/protocol"
	"go.uber.org/zap"
)

// Dispatcher applies decoded client messages to the strip state.
type Dispatcher struct {
	buffer  *leds.Buffer
	arbiter *arbiter.Arbiter
	metrics *metrics.Metrics
}

// NewDispatcher creates a dispatcher. m may be nil.
func NewDispatcher(buffer *leds.Buffer, arb *arbiter.Arbiter, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{buffer: buffer, arbiter: arb, metrics: m}
}

// Handle decodes one datagram and applies it. It returns the bytes to send
// back to the sender, or nil when there is nothing to reply.
//
// A decode error leaves all state untouched. Pixel writes from a device other
// than the active one are dropped silently.
func (d *Dispatcher) Handle(remoteAddr string, data []byte) ([]byte, error) {
	logging.LogDatagram(remoteAddr, "received", data)

	msg, err := protocol.DecodeClientMessage(data)
	if err != nil {
		d.metrics.DecodeFailed(decodeReason(err))
		return nil, err
	}
	d.metrics.DatagramDecoded(msg.Instruction().String())

	switch m := msg.(type) {
	case protocol.Hello:
		logging.Debug("Hello received", zap.String("remote_addr", remoteAddr))
		return protocol.HelloReply(), nil

	case protocol.SetActive:
		d.arbiter.Activate(m.Device)
		d.metrics.SetActiveDevice(int(m.Device))
		logging.Info("Active device changed",
			zap.String("remote_addr", remoteAddr),
			zap.Uint8("device", uint8(m.Device)),
		)

	case protocol.SendPixels:
		if !d.admit(remoteAddr, m) {
			return nil, nil
		}
		d.buffer.Replace(m.Pixels[:])

	case protocol.SetPixel:
		if !d.admit(remoteAddr, m) {
			return nil, nil
		}
		if !d.buffer.SetPixel(int(m.Index), m.R, m.G, m.B) {
			logging.Debug("SetPixel past end of strip",
				zap.Uint8("index", m.Index),
				zap.Int("led_count", d.buffer.Count()),
			)
		}
	}
	return nil, nil
}

func (d *Dispatcher) admit(remoteAddr string, m protocol.DeviceMessage) bool {
	if d.arbiter.Admit(m.DeviceID()) {
		return true
	}
	d.metrics.WriteDropped(m.Instruction().String())
	logging.Debug("Write from inactive device dropped",
		zap.String("remote_addr", remoteAddr),
		zap.Stringer("message", m),
	)
	return false
}

// decodeReason maps a decode error to a metrics label.
func decodeReason(err error) string {
	switch {
	case errors.Is(err, protocol.ErrInvalidMessageLength):
		return "invalid_length"
	case errors.Is(err, protocol.ErrInvalidFlag):
		return "invalid_flag"
	default:
		return "other"
	}
}
