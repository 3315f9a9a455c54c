package leds

import (
	"fmt"
	"math"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Timing is a one-wire LED timing table. A 0 bit is a short high followed by
// a long low, a 1 bit is a long high followed by a short low, and a frame is
// preceded by an idle-low reset gap.
type Timing struct {
	T0H   time.Duration `yaml:"t0h"`
	T0L   time.Duration `yaml:"t0l"`
	T1H   time.Duration `yaml:"t1h"`
	T1L   time.Duration `yaml:"t1l"`
	Reset time.Duration `yaml:"reset"`
}

// WS2812Timing is the table the strip firmware was tuned with.
var WS2812Timing = Timing{
	T0H:   350 * time.Nanosecond,
	T0L:   800 * time.Nanosecond,
	T1H:   700 * time.Nanosecond,
	T1L:   600 * time.Nanosecond,
	Reset: 1 * time.Millisecond,
}

// Validate checks that every duration is positive and the two bit shapes can
// be told apart.
func (t Timing) Validate() error {
	if t.T0H <= 0 || t.T0L <= 0 || t.T1H <= 0 || t.T1L <= 0 {
		return fmt.Errorf("timing durations must be positive: %s", t)
	}
	if t.Reset < 0 {
		return fmt.Errorf("reset gap must not be negative: %v", t.Reset)
	}
	if t.T1H <= t.T0H {
		return fmt.Errorf("t1h (%v) must be longer than t0h (%v)", t.T1H, t.T0H)
	}
	return nil
}

func (t Timing) String() string {
	return fmt.Sprintf("Timing{0=%v/%v, 1=%v/%v, reset=%v}", t.T0H, t.T0L, t.T1H, t.T1L, t.Reset)
}

// PulsePair is one encoded bit: a high pulse followed by a low pulse.
type PulsePair struct {
	High time.Duration
	Low  time.Duration
}

// Zero returns the pulse pair for a 0 bit.
func (t Timing) Zero() PulsePair { return PulsePair{High: t.T0H, Low: t.T0L} }

// One returns the pulse pair for a 1 bit.
func (t Timing) One() PulsePair { return PulsePair{High: t.T1H, Low: t.T1L} }

// Frame is the pulse train for one transmission. It only lives for one
// transmit cycle.
type Frame struct {
	Reset time.Duration
	Pairs []PulsePair
}

// Encode renders pixels into a pulse train, 8 pairs per byte.
//
// Bits are visited least significant first, unlike the MSB-first order in
// most one-wire datasheets. Deployed strips depend on this order.
func (t Timing) Encode(pixels []byte) *Frame {
	zero, one := t.Zero(), t.One()
	frame := &Frame{
		Reset: t.Reset,
		Pairs: make([]PulsePair, len(pixels)*8),
	}
	for i, b := range pixels {
		for bit := 0; bit < 8; bit++ {
			pair := zero
			if b&(1<<bit) != 0 {
				pair = one
			}
			frame.Pairs[i*8+bit] = pair
		}
	}
	return frame
}

// Decode inverts Encode: a pair whose high pulse is at least as long as t.T1H
// reads as 1.
func (t Timing) Decode(frame *Frame) []byte {
	out := make([]byte, len(frame.Pairs)/8)
	for i, pair := range frame.Pairs {
		if pair.High >= t.T1H {
			out[i/8] |= 1 << (i % 8)
		}
	}
	return out
}

// Len returns the number of pulse pairs.
func (f *Frame) Len() int {
	return len(f.Pairs)
}

// Duration returns the wall time the frame occupies on the wire, reset gap
// included.
func (f *Frame) Duration() time.Duration {
	total := f.Reset
	for _, p := range f.Pairs {
		total += p.High + p.Low
	}
	return total
}

// TickPair is a PulsePair counted in periods of a clock.
type TickPair struct {
	High int
	Low  int
}

// Ticks quantises the frame to a clock running at freq, the way a pulse
// peripheral is programmed. It returns the reset gap and the pairs in clock
// periods.
func (f *Frame) Ticks(freq physic.Frequency) (reset int, pairs []TickPair) {
	pairs = make([]TickPair, len(f.Pairs))
	for i, p := range f.Pairs {
		pairs[i] = TickPair{High: Ticks(p.High, freq), Low: Ticks(p.Low, freq)}
	}
	return Ticks(f.Reset, freq), pairs
}

// Ticks converts a duration to periods of a counter clock, rounding half up.
// Non-zero durations always get at least one tick.
func Ticks(d time.Duration, freq physic.Frequency) int {
	if d <= 0 || freq <= 0 {
		return 0
	}
	// physic.Frequency is in µHz, time.Duration in ns.
	ticks := int(math.Floor(float64(d)*float64(freq)/1e15 + 0.5))
	if ticks < 1 {
		ticks = 1
	}
	return ticks
}
