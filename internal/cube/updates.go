package cube

import (
	"fmt"

	"github.com/ivesdebruycker/maxcube/internal/codec"
)

// UpdateKind tags a session event.
type UpdateKind uint8

const (
	// UpdateConnected fires once the transport is connected.
	UpdateConnected UpdateKind = iota
	// UpdateHello fires when an H frame refreshes the cube identity.
	UpdateHello
	// UpdateInventory fires when an M frame replaces the room and device
	// inventory.
	UpdateInventory
	// UpdateDeviceConfig fires when a C frame delivers a device
	// configuration.
	UpdateDeviceConfig
	// UpdateDeviceStatus fires once per device record of an L frame.
	UpdateDeviceStatus
	// UpdateCommStatus fires when the cube reports its radio budget.
	UpdateCommStatus
	// UpdateDisconnected fires when the connection goes away.
	UpdateDisconnected
)

// String returns a stable event name, used as-is in the WebSocket feed and
// MQTT payloads.
func (k UpdateKind) String() string {
	switch k {
	case UpdateConnected:
		return "connected"
	case UpdateHello:
		return "hello"
	case UpdateInventory:
		return "inventory"
	case UpdateDeviceConfig:
		return "device_config"
	case UpdateDeviceStatus:
		return "device_status"
	case UpdateCommStatus:
		return "comm_status"
	case UpdateDisconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("update(%d)", uint8(k))
	}
}

// Update is one session event. RFAddress and Status are set for
// device-scoped kinds only; Status is a private copy the receiver may keep.
type Update struct {
	Kind      UpdateKind
	RFAddress string
	Status    *codec.DeviceStatus
}
