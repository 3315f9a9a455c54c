package protocol

// Wire sizes
const (
	// MaxLEDCount is the largest strip a single SendPixels message can address.
	MaxLEDCount = 256

	// PixelBytes is the payload size of a full frame (R, G, B per LED).
	PixelBytes = MaxLEDCount * 3

	// HeaderLength is the role flag byte plus the instruction/device byte.
	HeaderLength = 2

	// MaxMessageLength is the size of every encoded message.
	MaxMessageLength = HeaderLength + PixelBytes

	// SetPixelPayloadLength is index, r, g, b.
	SetPixelPayloadLength = 4

	// DefaultPort is the well-known UDP port servers listen on.
	DefaultPort = 52772
)

// Role flags (byte 0)
const (
	ServerFlag byte = 0b1110_0110
	ClientFlag byte = 0b0110_1011
)

// Byte 1 layout
const (
	InstructionMask byte = 0b1100_0000
	DeviceMask      byte = 0b0011_1111
)

// Instruction is the 2-bit opcode stored in bits 7:6 of byte 1.
type Instruction byte

// All four codes are assigned, so a decoder switch over them is exhaustive.
const (
	InstructionHello      Instruction = 0b1100_0000
	InstructionSetActive  Instruction = 0b0100_0000
	InstructionSendPixels Instruction = 0b0000_0000
	InstructionSetPixel   Instruction = 0b1000_0000
)

// String returns a human-readable instruction name
func (i Instruction) String() string {
	switch i {
	case InstructionHello:
		return "hello"
	case InstructionSetActive:
		return "set_active"
	case InstructionSendPixels:
		return "send_pixels"
	case InstructionSetPixel:
		return "set_pixel"
	default:
		return "unknown"
	}
}

// instructionOf extracts the instruction bits from the header byte
func instructionOf(header byte) Instruction {
	return Instruction(header & InstructionMask)
}
