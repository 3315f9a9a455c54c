package protocol

import "fmt"

// MaxDevice is the largest id that fits in the 6 device bits.
const MaxDevice = 63

// Device identifies a logical controller contending for the strip. It is not
// a network identity: any host may speak for any device.
type Device uint8

// NewDevice validates a raw id.
func NewDevice(id uint8) (Device, error) {
	if id > MaxDevice {
		return 0, deviceError(id)
	}
	return Device(id), nil
}

// MustDevice is like NewDevice but panics on an out-of-range id. Use it only
// with constants.
func MustDevice(id uint8) Device {
	d, err := NewDevice(id)
	if err != nil {
		panic(err)
	}
	return d
}

// Valid reports whether d fits in the 6 device bits.
func (d Device) Valid() bool {
	return d <= MaxDevice
}

func (d Device) String() string {
	return fmt.Sprintf("device(%d)", uint8(d))
}

// deviceOf extracts the device bits from the header byte
func deviceOf(header byte) Device {
	return Device(header & DeviceMask)
}
