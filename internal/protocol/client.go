package protocol

import (
	"fmt"
)

// ClientMessage is a message sent by a client to the server.
//
// Every variant except Hello carries the device id it speaks for.
type ClientMessage interface {
	Instruction() Instruction
	String() string
	MarshalBinary() ([]byte, error)
}

// DeviceMessage is a ClientMessage that is gated by the active device.
type DeviceMessage interface {
	ClientMessage
	DeviceID() Device
}

// Hello is the discovery probe. Servers answer with ServerHello.
type Hello struct{}

// SetActive claims write access to the strip for Device.
type SetActive struct {
	Device Device
}

// SendPixels replaces the whole frame. LEDs not covered by the received
// payload are turned off.
type SendPixels struct {
	Device Device
	Pixels [PixelBytes]byte
}

// SetPixel patches a single LED, leaving the others untouched.
type SetPixel struct {
	Device  Device
	Index   uint8
	R, G, B uint8
}

func (Hello) Instruction() Instruction      { return InstructionHello }
func (SetActive) Instruction() Instruction  { return InstructionSetActive }
func (SendPixels) Instruction() Instruction { return InstructionSendPixels }
func (SetPixel) Instruction() Instruction   { return InstructionSetPixel }

func (m SetActive) DeviceID() Device  { return m.Device }
func (m SendPixels) DeviceID() Device { return m.Device }
func (m SetPixel) DeviceID() Device   { return m.Device }

func (Hello) String() string { return "Hello{}" }

func (m SetActive) String() string {
	return fmt.Sprintf("SetActive{device=%d}", m.Device)
}

func (m SendPixels) String() string {
	return fmt.Sprintf("SendPixels{device=%d, leds=%d}", m.Device, m.LitCount())
}

func (m SetPixel) String() string {
	return fmt.Sprintf("SetPixel{device=%d, index=%d, rgb=(%d,%d,%d)}",
		m.Device, m.Index, m.R, m.G, m.B)
}

// NewSetActive builds a SetActive message for a raw device id.
func NewSetActive(id uint8) (SetActive, error) {
	d, err := NewDevice(id)
	if err != nil {
		return SetActive{}, err
	}
	return SetActive{Device: d}, nil
}

// NewSendPixels builds a SendPixels message. pixels holds R, G, B triplets in
// LED order; anything shorter than a full frame is zero-filled.
func NewSendPixels(id uint8, pixels []byte) (SendPixels, error) {
	d, err := NewDevice(id)
	if err != nil {
		return SendPixels{}, err
	}
	if len(pixels) > PixelBytes {
		return SendPixels{}, lengthError(len(pixels)+HeaderLength,
			"%d pixel bytes exceed a full frame of %d", len(pixels), PixelBytes)
	}
	m := SendPixels{Device: d}
	copy(m.Pixels[:], pixels)
	return m, nil
}

// NewSetPixel builds a SetPixel message.
func NewSetPixel(id uint8, index uint8, r, g, b uint8) (SetPixel, error) {
	d, err := NewDevice(id)
	if err != nil {
		return SetPixel{}, err
	}
	return SetPixel{Device: d, Index: index, R: r, G: g, B: b}, nil
}

// LitCount returns the number of LEDs up to and including the last non-black one.
func (m SendPixels) LitCount() int {
	for i := PixelBytes - 1; i >= 0; i-- {
		if m.Pixels[i] != 0 {
			return i/3 + 1
		}
	}
	return 0
}

// MarshalBinary encodes the message into a MaxMessageLength buffer
func (m Hello) MarshalBinary() ([]byte, error) {
	return newMessage(ClientFlag, InstructionHello, 0), nil
}

// MarshalBinary encodes the message into a MaxMessageLength buffer
func (m SetActive) MarshalBinary() ([]byte, error) {
	if !m.Device.Valid() {
		return nil, deviceError(uint8(m.Device))
	}
	return newMessage(ClientFlag, InstructionSetActive, m.Device), nil
}

// MarshalBinary encodes the message into a MaxMessageLength buffer
func (m SendPixels) MarshalBinary() ([]byte, error) {
	if !m.Device.Valid() {
		return nil, deviceError(uint8(m.Device))
	}
	msg := newMessage(ClientFlag, InstructionSendPixels, m.Device)
	copy(msg[HeaderLength:], m.Pixels[:])
	return msg, nil
}

// MarshalBinary encodes the message into a MaxMessageLength buffer
func (m SetPixel) MarshalBinary() ([]byte, error) {
	if !m.Device.Valid() {
		return nil, deviceError(uint8(m.Device))
	}
	msg := newMessage(ClientFlag, InstructionSetPixel, m.Device)
	msg[2] = m.Index
	msg[3] = m.R
	msg[4] = m.G
	msg[5] = m.B
	return msg, nil
}

// newMessage allocates a zero-padded message and writes its header
func newMessage(flag byte, instruction Instruction, device Device) []byte {
	msg := make([]byte, MaxMessageLength)
	msg[0] = flag
	msg[1] = byte(instruction) | byte(device)
	return msg
}

// EncodeClientMessage encodes any client message.
func EncodeClientMessage(m ClientMessage) ([]byte, error) {
	return m.MarshalBinary()
}

// DecodeClientMessage parses a datagram received by the server.
//
// Length bounds and the role flag are checked first, so a one-byte datagram
// fails with ErrInvalidMessageLength whatever its content.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	if err := checkEnvelope(data, ClientFlag); err != nil {
		return nil, err
	}

	header := data[1]
	switch instruction := instructionOf(header); instruction {
	case InstructionHello:
		return Hello{}, nil

	case InstructionSetActive:
		return SetActive{Device: deviceOf(header)}, nil

	case InstructionSendPixels:
		m := SendPixels{Device: deviceOf(header)}
		copy(m.Pixels[:], data[HeaderLength:])
		return m, nil

	case InstructionSetPixel:
		payload := data[HeaderLength:]
		if len(payload) < SetPixelPayloadLength {
			return nil, lengthError(len(data),
				"set_pixel needs %d payload bytes, got %d", SetPixelPayloadLength, len(payload))
		}
		return SetPixel{
			Device: deviceOf(header),
			Index:  payload[0],
			R:      payload[1],
			G:      payload[2],
			B:      payload[3],
		}, nil

	default:
		return nil, assertUnreachable(header)
	}
}

// checkEnvelope validates the length bounds and role flag shared by every message
func checkEnvelope(data []byte, flag byte) error {
	if len(data) < HeaderLength || len(data) > MaxMessageLength {
		return lengthError(len(data), "%d bytes (allowed %d-%d)", len(data), HeaderLength, MaxMessageLength)
	}
	if data[0] != flag {
		return flagError(data[0], flag)
	}
	return nil
}
