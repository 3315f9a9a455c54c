package protocol

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of a protocol error
type ErrorType int

const (
	// ErrTypeInvalidMessageLength indicates a datagram too short or too long
	// for the decoded instruction
	ErrTypeInvalidMessageLength ErrorType = iota
	// ErrTypeInvalidFlag indicates a role byte that does not match the
	// direction being decoded
	ErrTypeInvalidFlag
	// ErrTypeInvalidDevice indicates a device id outside 0-63 handed to a
	// constructor or encoder
	ErrTypeInvalidDevice
)

// Sentinel errors for errors.Is checks
var (
	ErrInvalidMessageLength = errors.New("malformed message: invalid message length")
	ErrInvalidFlag          = errors.New("malformed message: invalid flag")
	ErrInvalidDevice        = errors.New("invalid device id")
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeInvalidMessageLength:
		return "Invalid Message Length"
	case ErrTypeInvalidFlag:
		return "Invalid Flag"
	case ErrTypeInvalidDevice:
		return "Invalid Device"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

func (et ErrorType) sentinel() error {
	switch et {
	case ErrTypeInvalidMessageLength:
		return ErrInvalidMessageLength
	case ErrTypeInvalidFlag:
		return ErrInvalidFlag
	default:
		return ErrInvalidDevice
	}
}

// MessageError describes why a message could not be decoded or encoded
type MessageError struct {
	Type    ErrorType // Category of error
	Message string    // Human-readable detail
	Length  int       // Datagram length (decode errors)
	Flag    byte      // Role byte seen (flag errors)
}

// Error implements the error interface
func (e *MessageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type.sentinel(), e.Message)
}

// Is lets errors.Is match a MessageError against the package sentinels
func (e *MessageError) Is(target error) bool {
	return target == e.Type.sentinel()
}

func lengthError(length int, format string, args ...any) *MessageError {
	return &MessageError{
		Type:    ErrTypeInvalidMessageLength,
		Message: fmt.Sprintf(format, args...),
		Length:  length,
	}
}

func flagError(flag byte, expected byte) *MessageError {
	return &MessageError{
		Type:    ErrTypeInvalidFlag,
		Message: fmt.Sprintf("got 0x%02x (expected 0x%02x)", flag, expected),
		Flag:    flag,
	}
}

func deviceError(id uint8) *MessageError {
	return &MessageError{
		Type:    ErrTypeInvalidDevice,
		Message: fmt.Sprintf("%d does not fit in 6 bits (max %d)", id, MaxDevice),
	}
}

// IsLengthError checks if an error is an invalid message length error
func IsLengthError(err error) bool {
	return errors.Is(err, ErrInvalidMessageLength)
}

// IsFlagError checks if an error is an invalid flag error
func IsFlagError(err error) bool {
	return errors.Is(err, ErrInvalidFlag)
}
