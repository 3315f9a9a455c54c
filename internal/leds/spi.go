package leds

import (
	"context"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// DefaultSPIFrequency gives 156.25ns per SPI bit, enough to separate the
// WS2812 pulse widths.
const DefaultSPIFrequency = 6400 * physic.KiloHertz

// SPITransmitter drives the strip's data line from the MOSI pin of an SPI
// port. Each pulse is stretched to a run of identical SPI bits, so the clock
// must be fast enough to resolve the shortest pulse.
//
// The whole frame goes out in a single transfer; on Linux the spidev bufsiz
// module parameter must be at least FrameBytes.
type SPITransmitter struct {
	mu   sync.Mutex
	port spi.PortCloser
	conn spi.Conn
	freq physic.Frequency
}

// OpenSPI initialises the host drivers and opens an SPI port. An empty name
// opens the first port found.
func OpenSPI(name string, freq physic.Frequency) (*SPITransmitter, error) {
	if freq <= 0 {
		freq = DefaultSPIFrequency
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize host drivers: %w", err)
	}
	port, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %q: %w", name, err)
	}
	s, err := newSPITransmitter(port, freq)
	if err != nil {
		return nil, fmt.Errorf("failed to configure SPI port %q: %w", name, err)
	}
	return s, nil
}

// newSPITransmitter connects an opened port. The port is closed on failure.
func newSPITransmitter(port spi.PortCloser, freq physic.Frequency) (*SPITransmitter, error) {
	conn, err := port.Connect(freq, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	return &SPITransmitter{port: port, conn: conn, freq: freq}, nil
}

// Frequency returns the SPI clock the port was configured with.
func (s *SPITransmitter) Frequency() physic.Frequency {
	return s.freq
}

// Transmit implements Transmitter
func (s *SPITransmitter) Transmit(ctx context.Context, frame *Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bits := SPIBits(frame, s.freq)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("SPI port closed")
	}
	if err := s.conn.Tx(bits, nil); err != nil {
		return fmt.Errorf("spi write: %w", err)
	}
	return nil
}

// Close implements Transmitter
func (s *SPITransmitter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	s.conn = nil
	return err
}

// SPIBits renders a frame as an SPI bit stream clocked at freq: the reset gap
// as zeros, then for each pair a run of ones for the high pulse and a run of
// zeros for the low pulse. Bits are packed most significant first, which is
// the order SPI shifts them out.
func SPIBits(frame *Frame, freq physic.Frequency) []byte {
	reset, pairs := frame.Ticks(freq)
	w := bitWriter{buf: make([]byte, 0, transferBytes(reset, pairs))}
	w.write(false, reset)
	for _, p := range pairs {
		w.write(true, p.High)
		w.write(false, p.Low)
	}
	return w.bytes()
}

// FrameBytes returns the size of the SPI transfer SPIBits produces.
func FrameBytes(frame *Frame, freq physic.Frequency) int {
	return transferBytes(frame.Ticks(freq))
}

func transferBytes(reset int, pairs []TickPair) int {
	n := reset
	for _, p := range pairs {
		n += p.High + p.Low
	}
	return (n + 7) / 8
}

type bitWriter struct {
	buf  []byte
	cur  byte
	used int
}

func (w *bitWriter) write(high bool, n int) {
	for ; n > 0; n-- {
		w.cur <<= 1
		if high {
			w.cur |= 1
		}
		w.used++
		if w.used == 8 {
			w.buf = append(w.buf, w.cur)
			w.cur, w.used = 0, 0
		}
	}
}

// bytes flushes a partial byte, padding the line low.
func (w *bitWriter) bytes() []byte {
	if w.used > 0 {
		w.buf = append(w.buf, w.cur<<(8-w.used))
		w.cur, w.used = 0, 0
	}
	return w.buf
}
