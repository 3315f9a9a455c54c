// Package arbiter tracks which device currently owns write access to the strip.
//
// The register starts at NoDevice, so nothing is admitted until a client sends
// SetActive. Activation is last-writer-wins; there is no negotiation.
package arbiter

import (
	"sync/atomic"

	"github.com/oxabz/my-ambilight/internal/protocol"
)

// NoDevice is the register value before any activation. It lies outside the
// 6-bit device range so Admit never matches it.
const NoDevice uint32 = 0xFF

// Arbiter holds the active device register.
type Arbiter struct {
	active atomic.Uint32
}

// New returns an arbiter with no active device.
func New() *Arbiter {
	a := &Arbiter{}
	a.active.Store(NoDevice)
	return a
}

// Activate makes device the only one allowed to write.
func (a *Arbiter) Activate(device protocol.Device) {
	a.active.Store(uint32(device))
}

// Admit reports whether device is the active one.
func (a *Arbiter) Admit(device protocol.Device) bool {
	return a.active.Load() == uint32(device)
}

// Active returns the active device, or false if none has been activated.
func (a *Arbiter) Active() (protocol.Device, bool) {
	v := a.active.Load()
	if v > protocol.MaxDevice {
		return 0, false
	}
	return protocol.Device(v), true
}

// Reset clears the register back to NoDevice.
func (a *Arbiter) Reset() {
	a.active.Store(NoDevice)
}
