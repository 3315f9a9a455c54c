//go:build !debug

package protocol

import "fmt"

// assertUnreachable is called from the default branch of an exhaustive
// instruction switch. Release builds report it as a malformed datagram.
func assertUnreachable(header byte) error {
	return &MessageError{
		Type:    ErrTypeInvalidFlag,
		Message: fmt.Sprintf("internal invariant violated: unhandled instruction bits in 0x%02x", header),
	}
}
