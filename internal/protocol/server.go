package protocol

// ServerMessage is a message sent by the server to a client.
type ServerMessage interface {
	Instruction() Instruction
	String() string
	MarshalBinary() ([]byte, error)
}

// ServerHello acknowledges a discovery probe.
type ServerHello struct{}

func (ServerHello) Instruction() Instruction { return InstructionHello }

func (ServerHello) String() string { return "ServerHello{}" }

// MarshalBinary encodes the message into a MaxMessageLength buffer
func (ServerHello) MarshalBinary() ([]byte, error) {
	return newMessage(ServerFlag, InstructionHello, 0), nil
}

// HelloReply is the compact form servers put on the wire: the header alone.
func HelloReply() []byte {
	return []byte{ServerFlag, byte(InstructionHello)}
}

// EncodeServerMessage encodes any server message.
func EncodeServerMessage(m ServerMessage) ([]byte, error) {
	return m.MarshalBinary()
}

// DecodeServerMessage parses a datagram received by a client.
func DecodeServerMessage(data []byte) (ServerMessage, error) {
	if err := checkEnvelope(data, ServerFlag); err != nil {
		return nil, err
	}

	switch instructionOf(data[1]) {
	case InstructionHello:
		return ServerHello{}, nil
	default:
		// Servers only ever say hello; any other code under the server flag
		// is not a server frame.
		return nil, &MessageError{
			Type:    ErrTypeInvalidFlag,
			Message: "instruction " + instructionOf(data[1]).String() + " is not sent by servers",
			Flag:    data[0],
		}
	}
}
