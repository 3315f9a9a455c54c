//go:build debug

package protocol

import "fmt"

// assertUnreachable panics in debug builds so a broken instruction table is
// caught by the test harness.
func assertUnreachable(header byte) error {
	panic(fmt.Sprintf("protocol: internal invariant violated: unhandled instruction bits in 0x%02x", header))
}
