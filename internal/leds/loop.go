package leds

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oxabz/my-ambilight/internal/logging"
	"go.uber.org/zap"
)

// DefaultInterval is the pause between two transmissions.
const DefaultInterval = 1 * time.Second

// Loop periodically pushes the buffer to the strip: snapshot, encode,
// transmit, sleep. Writes landing between two snapshots are coalesced; only
// the state at snapshot time is ever sent.
type Loop struct {
	buffer   *Buffer
	tx       Transmitter
	timing   Timing
	interval time.Duration

	mu        sync.Mutex
	observers []Observer
}

// NewLoop creates a transmit loop. A zero interval uses DefaultInterval.
func NewLoop(buffer *Buffer, tx Transmitter, timing Timing, interval time.Duration) (*Loop, error) {
	if err := timing.Validate(); err != nil {
		return nil, fmt.Errorf("invalid timing: %w", err)
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Loop{
		buffer:   buffer,
		tx:       tx,
		timing:   timing,
		interval: interval,
	}, nil
}

// AddObserver registers o to be told about every cycle.
func (l *Loop) AddObserver(o Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, o)
}

// Interval returns the pause between transmissions.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Cycle runs one snapshot-encode-transmit step. The buffer lock is released
// before the transmitter is called.
func (l *Loop) Cycle(ctx context.Context) error {
	snapshot := l.buffer.Snapshot()
	frame := l.timing.Encode(snapshot)

	start := time.Now()
	err := l.tx.Transmit(ctx, frame)
	took := time.Since(start)

	l.mu.Lock()
	observers := l.observers
	l.mu.Unlock()
	for _, o := range observers {
		o.FrameTransmitted(snapshot, frame, took, err)
	}
	return err
}

// Run transmits until ctx is cancelled. Transmit failures are logged and the
// loop carries on with the next cycle.
func (l *Loop) Run(ctx context.Context) error {
	logging.Info("Transmit loop started",
		zap.Int("leds", l.buffer.Count()),
		zap.Duration("interval", l.interval),
		zap.String("timing", l.timing.String()),
	)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info("Transmit loop stopped")
			return nil
		case <-timer.C:
		}

		if err := l.Cycle(ctx); err != nil && ctx.Err() == nil {
			logging.Error("Failed to transmit frame", zap.Error(err))
		}
		timer.Reset(l.interval)
	}
}
