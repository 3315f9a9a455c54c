package leds

import (
	"fmt"
	"sync"

	"github.com/oxabz/my-ambilight/internal/protocol"
)

// DefaultLevel is the value every channel starts at: a freshly booted strip
// is lit white.
const DefaultLevel = 0xFF

// Buffer is the frame store for the strip: R, G, B bytes per LED in strip
// order. It is created once and never resized. All access goes through a
// single mutex held only long enough to copy bytes in or out.
type Buffer struct {
	mu     sync.Mutex
	pixels []byte
}

// NewBuffer creates a buffer for count LEDs, lit white.
// count must be between 1 and protocol.MaxLEDCount.
func NewBuffer(count int) (*Buffer, error) {
	if count < 1 || count > protocol.MaxLEDCount {
		return nil, fmt.Errorf("invalid LED count: %d (allowed 1-%d)", count, protocol.MaxLEDCount)
	}
	pixels := make([]byte, count*3)
	for i := range pixels {
		pixels[i] = DefaultLevel
	}
	return &Buffer{pixels: pixels}, nil
}

// Count returns the number of LEDs the buffer holds.
func (b *Buffer) Count() int {
	return len(b.pixels) / 3
}

// Replace overwrites the whole frame. Bytes beyond len(pixels) are zeroed,
// and bytes beyond the buffer's capacity are ignored.
func (b *Buffer) Replace(pixels []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := copy(b.pixels, pixels)
	clear(b.pixels[n:])
}

// SetPixel patches one LED. It returns false if index is past the end of the
// strip.
func (b *Buffer) SetPixel(index int, r, g, bl uint8) bool {
	if index < 0 || index >= b.Count() {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	off := index * 3
	b.pixels[off] = r
	b.pixels[off+1] = g
	b.pixels[off+2] = bl
	return true
}

// Pixel returns the color of one LED.
func (b *Buffer) Pixel(index int) (r, g, bl uint8, ok bool) {
	if index < 0 || index >= b.Count() {
		return 0, 0, 0, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	off := index * 3
	return b.pixels[off], b.pixels[off+1], b.pixels[off+2], true
}

// Snapshot returns a copy of the current frame.
func (b *Buffer) Snapshot() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]byte, len(b.pixels))
	copy(out, b.pixels)
	return out
}
