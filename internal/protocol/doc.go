// Package protocol implements the ambilight UDP wire protocol.
//
// Clients use it to discover a server, claim write access to the strip for a
// device id, and push pixel data. Every message is a single datagram.
//
// # Message Format
//
//	[0]     role flag       ClientFlag (0x6b) or ServerFlag (0xe6)
//	[1]     7:6 instruction 11=Hello 01=SetActive 00=SendPixels 10=SetPixel
//	        5:0 device id   0-63, zero for Hello
//	[2..]   payload         instruction specific
//
// Payloads:
//   - Hello: none
//   - SetActive: none
//   - SendPixels: R, G, B triplets in LED order, up to MaxLEDCount LEDs
//   - SetPixel: index, r, g, b
//
// Encoders always produce MaxMessageLength bytes with the unused tail zeroed.
// Decoders accept any length between HeaderLength and MaxMessageLength.
//
// # Frame Semantics
//
// SendPixels is a total update: a short payload is zero-filled, so LEDs the
// sender did not mention are switched off. SetPixel patches one LED only.
//
// # Usage Example
//
//	msg, err := protocol.NewSetPixel(3, 5, 255, 0, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	data, _ := msg.MarshalBinary()
//	conn.WriteTo(data, server)
//
//	// Server side
//	m, err := protocol.DecodeClientMessage(buf[:n])
//	if protocol.IsLengthError(err) {
//	    // drop the datagram
//	}
//
// # Error Handling
//
// Decode errors are *MessageError values that match ErrInvalidMessageLength
// or ErrInvalidFlag with errors.Is. Device ids above 63 are rejected by the
// constructors and encoders with ErrInvalidDevice.
//
// # Thread Safety
//
// All functions are stateless and safe for concurrent use.
package protocol
