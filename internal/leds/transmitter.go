package leds

import (
	"context"
	"time"

	"github.com/oxabz/my-ambilight/internal/logging"
	"go.uber.org/zap"
)

// Transmitter pushes a pulse train to the strip. Transmit blocks until the
// hardware has finished sending.
type Transmitter interface {
	Transmit(ctx context.Context, frame *Frame) error
	Close() error
}

// NopTransmitter stands in for hardware when no output port is configured.
// It logs each frame at debug level and returns immediately.
type NopTransmitter struct{}

// Transmit implements Transmitter
func (NopTransmitter) Transmit(ctx context.Context, frame *Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logging.Debug("Dry-run frame",
		zap.Int("pulse_pairs", frame.Len()),
		zap.Duration("wire_time", frame.Duration()),
	)
	return nil
}

// Close implements Transmitter
func (NopTransmitter) Close() error { return nil }

// Observer is notified after every transmit cycle with the snapshot that was
// sent. err is the transmitter's error, if any.
type Observer interface {
	FrameTransmitted(snapshot []byte, frame *Frame, took time.Duration, err error)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(snapshot []byte, frame *Frame, took time.Duration, err error)

// FrameTransmitted implements Observer
func (f ObserverFunc) FrameTransmitted(snapshot []byte, frame *Frame, took time.Duration, err error) {
	f(snapshot, frame, took, err)
}
