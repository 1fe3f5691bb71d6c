package discovery

import (
	"fmt"
	"time"
)

// Device represents a Cube discovered on the local network
type Device struct {
	// Serial is the Cube serial number (e.g., "KEQ0523864")
	Serial string

	// IP is the IPv4 address the identify reply came from (e.g., "192.168.1.100")
	IP string

	// Port is the TCP port the Cube listens on for sessions (62910)
	Port int

	// RFAddress is the Cube's own radio address as a lowercase hex string
	RFAddress string

	// Firmware is the firmware revision reported in the identify reply,
	// as a raw hex string (e.g., "0113")
	Firmware string

	// DiscoveredAt is when the identify reply was received
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("Cube %s (rf %s, fw %s) at %s:%d", d.Serial, d.RFAddress, d.Firmware, d.IP, d.Port)
}

// Addr returns the TCP dial address for the device
func (d *Device) Addr() string {
	return fmt.Sprintf("%s:%d", d.IP, d.Port)
}
