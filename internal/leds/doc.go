// Package leds owns the strip: the pixel buffer, the one-wire signal encoder,
// and the loop that pushes frames to the hardware.
//
// # Data Flow
//
//	UDP receive loop ──Replace/SetPixel──▶ Buffer ◀──Snapshot── Loop
//	                                                           │
//	                                            Timing.Encode  ▼
//	                                                         Frame
//	                                                           │
//	                                                 Transmitter.Transmit
//
// The buffer is the only state shared between the receive loop and the
// transmit loop. Its lock covers copies only; hardware transfers happen on a
// private snapshot.
//
// # Signal Encoding
//
// Each byte becomes eight pulse pairs, least significant bit first:
//
//	bit 0:  ▔▔▔▁▁▁▁▁▁▁   T0H high, T0L low
//	bit 1:  ▔▔▔▔▔▔▁▁▁▁   T1H high, T1L low
//
// The frame is preceded by an idle-low reset gap. A frame always holds
// Count()*24 pairs, whatever is physically wired downstream.
//
// # Transmitters
//
//   - SPITransmitter: bit-bangs the pulse train through an SPI MOSI pin using
//     periph.io. Each pulse becomes a run of SPI bits at the port clock.
//   - NopTransmitter: dry run, logs frames at debug level.
package leds
