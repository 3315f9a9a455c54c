package client

import (
	"context"
	"math"
	"time"

	"github.com/oxabz/my-ambilight/internal/protocol"
)

// Sweep defaults
const (
	DefaultSweepDuration = 15 * time.Second
	DefaultSweepLEDs     = 64
	DefaultFrameInterval = 16 * time.Millisecond
)

// Solid returns a pixel payload with the first count LEDs set to one color.
// count is clamped to protocol.MaxLEDCount.
func Solid(count int, r, g, b uint8) []byte {
	count = min(max(count, 0), protocol.MaxLEDCount)
	pixels := make([]byte, count*3)
	for i := 0; i < count; i++ {
		pixels[i*3] = r
		pixels[i*3+1] = g
		pixels[i*3+2] = b
	}
	return pixels
}

// Gaussian is an unnormalised bell curve centred on mu.
func Gaussian(x, mu float64) float64 {
	return math.Exp(-(x - mu) * (x - mu))
}

// SweepColor returns the color at elapsed time t of a 15 second sweep: red
// peaks at 2.5s, green at 7.5s and blue at 12.5s.
func SweepColor(t time.Duration) (r, g, b uint8) {
	s := t.Seconds()
	return uint8(Gaussian(s, 2.5) * 255), uint8(Gaussian(s, 7.5) * 255), uint8(Gaussian(s, 12.5) * 255)
}

// GaussianSweep streams SweepColor to the first count LEDs every interval
// until duration has elapsed or ctx is cancelled. onFrame, if not nil, is
// called after each frame is sent.
func (c *Client) GaussianSweep(ctx context.Context, duration time.Duration, count int, interval time.Duration, onFrame func(elapsed time.Duration)) error {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	for {
		elapsed := time.Since(start)
		if elapsed >= duration {
			return nil
		}
		r, g, b := SweepColor(elapsed)
		if err := c.Fill(count, r, g, b); err != nil {
			return err
		}
		if onFrame != nil {
			onFrame(elapsed)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
