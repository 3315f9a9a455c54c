package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func mustEncode(t *testing.T, m ClientMessage) []byte {
	t.Helper()
	data, err := m.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary(%s) error = %v", m, err)
	}
	return data
}

func TestClientMessage_MarshalBinary(t *testing.T) {
	pixels := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	sendPixels, err := NewSendPixels(2, pixels)
	if err != nil {
		t.Fatalf("NewSendPixels() error = %v", err)
	}

	tests := []struct {
		name        string
		msg         ClientMessage
		wantHeader  byte
		wantPayload []byte
	}{
		{
			name:       "hello",
			msg:        Hello{},
			wantHeader: byte(InstructionHello),
		},
		{
			name:       "set active",
			msg:        SetActive{Device: 1},
			wantHeader: byte(InstructionSetActive) | 1,
		},
		{
			name:        "send pixels",
			msg:         sendPixels,
			wantHeader:  byte(InstructionSendPixels) | 2,
			wantPayload: pixels,
		},
		{
			name:        "set pixel",
			msg:         SetPixel{Device: 63, Index: 2, R: 3, G: 4, B: 5},
			wantHeader:  byte(InstructionSetPixel) | 63,
			wantPayload: []byte{2, 3, 4, 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := mustEncode(t, tt.msg)

			if len(data) != MaxMessageLength {
				t.Fatalf("len = %d, want %d", len(data), MaxMessageLength)
			}
			if data[0] != ClientFlag {
				t.Errorf("flag = 0x%02x, want 0x%02x", data[0], ClientFlag)
			}
			if data[1] != tt.wantHeader {
				t.Errorf("header = 0b%08b, want 0b%08b", data[1], tt.wantHeader)
			}
			payload := data[HeaderLength:]
			if !bytes.Equal(payload[:len(tt.wantPayload)], tt.wantPayload) {
				t.Errorf("payload = %v, want prefix %v", payload[:len(tt.wantPayload)], tt.wantPayload)
			}
			for i, b := range payload[len(tt.wantPayload):] {
				if b != 0 {
					t.Fatalf("padding byte %d = 0x%02x, want 0", len(tt.wantPayload)+i, b)
				}
			}
		})
	}
}

func TestClientMessage_RoundTrip(t *testing.T) {
	var full [PixelBytes]byte
	for i := range full {
		full[i] = byte(i * 7)
	}

	tests := []ClientMessage{
		Hello{},
		SetActive{Device: 0},
		SetActive{Device: 42},
		SetActive{Device: MaxDevice},
		SendPixels{Device: 0},
		SendPixels{Device: 17, Pixels: full},
		SetPixel{Device: 0, Index: 0},
		SetPixel{Device: 9, Index: 255, R: 10, G: 20, B: 30},
	}

	for _, msg := range tests {
		t.Run(msg.String(), func(t *testing.T) {
			got, err := DecodeClientMessage(mustEncode(t, msg))
			if err != nil {
				t.Fatalf("DecodeClientMessage() error = %v", err)
			}
			if got != msg {
				t.Errorf("round trip = %s, want %s", got, msg)
			}
		})
	}
}

func TestDecodeClientMessage(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    ClientMessage
		wantErr error
	}{
		{
			name: "hello header only",
			data: []byte{ClientFlag, byte(InstructionHello)},
			want: Hello{},
		},
		{
			name: "hello ignores payload and device bits",
			data: []byte{ClientFlag, byte(InstructionHello) | 5, 1, 2, 3},
			want: Hello{},
		},
		{
			name: "set active header only",
			data: []byte{ClientFlag, byte(InstructionSetActive) | 1},
			want: SetActive{Device: 1},
		},
		{
			name: "set active ignores trailing bytes",
			data: []byte{ClientFlag, byte(InstructionSetActive) | 7, 9},
			want: SetActive{Device: 7},
		},
		{
			name: "send pixels short payload",
			data: []byte{ClientFlag, byte(InstructionSendPixels) | 3, 1, 2, 3, 4, 5, 6},
			want: func() ClientMessage {
				m := SendPixels{Device: 3}
				copy(m.Pixels[:], []byte{1, 2, 3, 4, 5, 6})
				return m
			}(),
		},
		{
			name: "send pixels empty payload",
			data: []byte{ClientFlag, byte(InstructionSendPixels)},
			want: SendPixels{},
		},
		{
			name: "set pixel exact payload",
			data: []byte{ClientFlag, byte(InstructionSetPixel) | 1, 5, 10, 20, 30},
			want: SetPixel{Device: 1, Index: 5, R: 10, G: 20, B: 30},
		},
		{
			name:    "set pixel short payload",
			data:    []byte{ClientFlag, byte(InstructionSetPixel) | 1, 2, 3, 4},
			wantErr: ErrInvalidMessageLength,
		},
		{
			name:    "empty datagram",
			data:    []byte{},
			wantErr: ErrInvalidMessageLength,
		},
		{
			name:    "oversized datagram",
			data:    append([]byte{ClientFlag, byte(InstructionSendPixels)}, make([]byte, PixelBytes+1)...),
			wantErr: ErrInvalidMessageLength,
		},
		{
			name:    "server flag",
			data:    []byte{ServerFlag, byte(InstructionHello)},
			wantErr: ErrInvalidFlag,
		},
		{
			name:    "zero flag",
			data:    []byte{0x00, byte(InstructionHello)},
			wantErr: ErrInvalidFlag,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeClientMessage(tt.data)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("DecodeClientMessage() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeClientMessage() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeClientMessage() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDecodeClientMessage_SingleByte(t *testing.T) {
	for _, flag := range []byte{ClientFlag, ServerFlag, 0x00} {
		data := []byte{flag}
		_, err := DecodeClientMessage(data)
		if !IsLengthError(err) {
			t.Errorf("DecodeClientMessage(%v) error = %v, want length error", data, err)
		}
	}
}

func TestDecodeClientMessage_WrongFlagEveryInstruction(t *testing.T) {
	instructions := []Instruction{
		InstructionHello,
		InstructionSetActive,
		InstructionSendPixels,
		InstructionSetPixel,
	}
	for _, instruction := range instructions {
		t.Run(instruction.String(), func(t *testing.T) {
			for _, length := range []int{HeaderLength, 6, MaxMessageLength} {
				data := make([]byte, length)
				data[0] = ServerFlag
				data[1] = byte(instruction) | 4

				_, err := DecodeClientMessage(data)
				if !IsFlagError(err) {
					t.Errorf("len %d: error = %v, want flag error", length, err)
				}
			}
		})
	}
}

func TestDecodeClientMessage_ErrorDetails(t *testing.T) {
	_, err := DecodeClientMessage([]byte{0x42, 0x00})

	var msgErr *MessageError
	if !errors.As(err, &msgErr) {
		t.Fatalf("error = %T, want *MessageError", err)
	}
	if msgErr.Type != ErrTypeInvalidFlag {
		t.Errorf("Type = %v, want %v", msgErr.Type, ErrTypeInvalidFlag)
	}
	if msgErr.Flag != 0x42 {
		t.Errorf("Flag = 0x%02x, want 0x42", msgErr.Flag)
	}
	if errors.Is(err, ErrInvalidMessageLength) {
		t.Error("flag error should not match ErrInvalidMessageLength")
	}
}

func TestConstructors_RejectInvalidDevice(t *testing.T) {
	if _, err := NewSetActive(64); !errors.Is(err, ErrInvalidDevice) {
		t.Errorf("NewSetActive(64) error = %v, want ErrInvalidDevice", err)
	}
	if _, err := NewSendPixels(200, nil); !errors.Is(err, ErrInvalidDevice) {
		t.Errorf("NewSendPixels(200) error = %v, want ErrInvalidDevice", err)
	}
	if _, err := NewSetPixel(255, 0, 0, 0, 0); !errors.Is(err, ErrInvalidDevice) {
		t.Errorf("NewSetPixel(255) error = %v, want ErrInvalidDevice", err)
	}
	if _, err := (SetActive{Device: 64}).MarshalBinary(); !errors.Is(err, ErrInvalidDevice) {
		t.Errorf("MarshalBinary() with device 64 error = %v, want ErrInvalidDevice", err)
	}
	if _, err := NewSendPixels(0, make([]byte, PixelBytes+3)); !IsLengthError(err) {
		t.Errorf("NewSendPixels() oversized error = %v, want length error", err)
	}
}

func TestMustDevice_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustDevice(64) did not panic")
		}
	}()
	MustDevice(64)
}

func TestSendPixels_LitCount(t *testing.T) {
	tests := []struct {
		name   string
		pixels []byte
		want   int
	}{
		{"dark", nil, 0},
		{"first led red", []byte{255, 0, 0}, 1},
		{"second led blue", []byte{0, 0, 0, 0, 0, 1}, 2},
		{"gap counts", []byte{1, 0, 0, 0, 0, 0, 0, 1, 0}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewSendPixels(0, tt.pixels)
			if err != nil {
				t.Fatalf("NewSendPixels() error = %v", err)
			}
			if got := m.LitCount(); got != tt.want {
				t.Errorf("LitCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func BenchmarkDecodeClientMessage_SendPixels(b *testing.B) {
	data, _ := SendPixels{Device: 1}.MarshalBinary()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = DecodeClientMessage(data)
	}
}
