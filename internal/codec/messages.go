package codec

import (
	"fmt"
	"strings"
)

// Command type characters used by the cube.
const (
	CmdHello         = 'H'
	CmdMetadata      = 'M'
	CmdConfiguration = 'C'
	CmdDeviceList    = 'L'
	CmdSendAck       = 'S'
	CmdAck           = 'A'
	CmdVersion       = 'V' // defined by the protocol but never sent
)

// Mode is the 2-bit operating mode of a thermostat.
type Mode uint8

const (
	ModeAuto     Mode = 0 // week schedule
	ModeManual   Mode = 1
	ModeVacation Mode = 2
	ModeBoost    Mode = 3
)

// String returns the protocol-conventional upper case mode name.
func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "AUTO"
	case ModeManual:
		return "MANUAL"
	case ModeVacation:
		return "VACATION"
	case ModeBoost:
		return "BOOST"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// ParseMode parses a mode name as produced by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(s) {
	case "AUTO":
		return ModeAuto, nil
	case "MANUAL":
		return ModeManual, nil
	case "VACATION":
		return ModeVacation, nil
	case "BOOST":
		return ModeBoost, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", s)
	}
}

// DeviceType identifies a device in the metadata inventory.
type DeviceType uint8

const (
	DeviceCube            DeviceType = 0
	DeviceThermostat      DeviceType = 1
	DeviceThermostatPlus  DeviceType = 2
	DeviceWallThermostat  DeviceType = 3
	DeviceShutterContact  DeviceType = 4
	DevicePushButton      DeviceType = 5
	DeviceTypeUnknown     DeviceType = 99
)

// String returns a human-readable device type name.
func (t DeviceType) String() string {
	switch t {
	case DeviceCube:
		return "Cube"
	case DeviceThermostat:
		return "HeatingThermostat"
	case DeviceThermostatPlus:
		return "HeatingThermostatPlus"
	case DeviceWallThermostat:
		return "WallMountedThermostat"
	case DeviceShutterContact:
		return "ShutterContact"
	case DevicePushButton:
		return "PushButton"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// normalize maps unrecognized raw discriminants onto DeviceTypeUnknown so
// decoding never yields an undefined enum value.
func (t DeviceType) normalize() DeviceType {
	switch t {
	case DeviceCube, DeviceThermostat, DeviceThermostatPlus,
		DeviceWallThermostat, DeviceShutterContact, DevicePushButton:
		return t
	default:
		return DeviceTypeUnknown
	}
}

// Message is a decoded protocol record.
type Message interface {
	// Type returns the command type character this record was decoded from.
	Type() byte
	// String returns a debug representation of the record.
	String() string
}

// Hello is the cube's handshake record (H-message). It is the first frame
// the cube sends after the TCP connection is established.
type Hello struct {
	SerialNumber     string
	RFAddress        string
	FirmwareVersion  string
	HTTPConnectionID string
	DutyCycle        int // percent of allowed radio airtime used
	FreeMemorySlots  int
	CubeDate         string // "2015-09-05"
	CubeTime         string // "12:05"
	StateCubeTime    string // raw passthrough
	NTPCounter       string // raw passthrough
}

func (h *Hello) Type() byte { return CmdHello }

func (h *Hello) String() string {
	return fmt.Sprintf("Hello{serial=%s, rf=%s, fw=%s, duty=%d%%, slots=%d, date=%s %s}",
		h.SerialNumber, h.RFAddress, h.FirmwareVersion, h.DutyCycle, h.FreeMemorySlots,
		h.CubeDate, h.CubeTime)
}

// Room is one room entry from the metadata inventory.
type Room struct {
	ID             uint8
	Name           string
	GroupRFAddress string
}

// Device is one static inventory entry from the metadata inventory.
type Device struct {
	Type         DeviceType
	RFAddress    string
	SerialNumber string
	Name         string
	RoomID       uint8
}

// Metadata is the decoded room and device inventory (M-message). The cube
// sends it unsolicited after connect and in reply to "m:".
type Metadata struct {
	Rooms   map[uint8]Room
	Devices map[string]Device // keyed by rf address
}

func (m *Metadata) Type() byte { return CmdMetadata }

func (m *Metadata) String() string {
	return fmt.Sprintf("Metadata{rooms=%d, devices=%d}", len(m.Rooms), len(m.Devices))
}

// Setpoint is one entry of a day's heating program: Temperature applies
// until UntilMinutes (minutes since midnight); the last set-point of a day
// implicitly extends to midnight.
type Setpoint struct {
	Temperature  float64
	UntilMinutes int
}

// Until renders the set-point end time as "HH:MM".
func (s Setpoint) Until() string { return clockString(s.UntilMinutes) }

// WeekProgram is a 7-day schedule table in wire order: index 0 is Saturday,
// index 6 is Friday.
type WeekProgram [7][]Setpoint

// scheduleDayNames is in wire order (Saturday first).
var scheduleDayNames = [7]string{
	"Saturday", "Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday",
}

// DayName returns the weekday name for a wire-order schedule index.
func DayName(wireIndex int) string {
	if wireIndex < 0 || wireIndex > 6 {
		return fmt.Sprintf("Day(%d)", wireIndex)
	}
	return scheduleDayNames[wireIndex]
}

// DeviceConfig is the decoded per-device configuration record (C-message).
// WeekProgram is nil for push buttons and when the schedule section of the
// payload was absent or malformed; the fixed fields remain valid in that case.
type DeviceConfig struct {
	RFAddress    string
	DeviceType   DeviceType
	SerialNumber string

	ComfortTemperature     float64
	EcoTemperature         float64
	MaxSetpointTemperature float64
	MinSetpointTemperature float64
	TemperatureOffset      float64

	WindowOpenTemperature float64
	WindowOpenDuration    int // minutes
	BoostDuration         int // minutes
	BoostValve            int // percent
	DecalcificationDay    int // 1 = Saturday .. 7 = Friday
	DecalcificationHour   int
	MaxValve              float64 // percent
	ValveOffset           float64 // percent

	WeekProgram *WeekProgram
}

func (c *DeviceConfig) Type() byte { return CmdConfiguration }

func (c *DeviceConfig) String() string {
	days := 0
	if c.WeekProgram != nil {
		days = len(c.WeekProgram)
	}
	return fmt.Sprintf("DeviceConfig{rf=%s, type=%s, serial=%s, comfort=%.1f, eco=%.1f, program_days=%d}",
		c.RFAddress, c.DeviceType, c.SerialNumber, c.ComfortTemperature, c.EcoTemperature, days)
}

// StatusKind tags the variant of a DeviceStatus record.
type StatusKind uint8

const (
	StatusUnknown StatusKind = iota
	StatusThermostat
	StatusWallThermostat
	StatusWindowContact
	StatusPushButton
)

// String returns a human-readable kind name.
func (k StatusKind) String() string {
	switch k {
	case StatusThermostat:
		return "thermostat"
	case StatusWallThermostat:
		return "wall thermostat"
	case StatusWindowContact:
		return "window contact"
	case StatusPushButton:
		return "push button"
	default:
		return "unknown"
	}
}

// DeviceStatus is one live status record from an L-message. Which fields are
// meaningful depends on Kind: window contacts carry only Open, push buttons
// and unknown devices carry only the rf address, thermostat variants carry
// the full flag, valve and temperature set. Temperature is a pointer because
// the cube omits it from vacation-mode frames; a nil Temperature means the
// frame did not report one, not that it is zero.
type DeviceStatus struct {
	RFAddress string
	Kind      StatusKind

	Initialized bool
	FromCommand bool
	Error       bool
	Valid       bool

	Mode         Mode
	DSTActive    bool
	GatewayKnown bool
	PanelLocked  bool
	LinkError    bool
	BatteryLow   bool

	ValvePercent int
	Setpoint     float64
	Temperature  *float64

	// Vacation end, set only when Mode == ModeVacation.
	DateUntil string // "2011-09-05"
	TimeUntil string // "23:00", half hour granularity

	Open *bool // window contact only
}

func (s *DeviceStatus) String() string {
	switch s.Kind {
	case StatusWindowContact:
		open := false
		if s.Open != nil {
			open = *s.Open
		}
		return fmt.Sprintf("DeviceStatus{rf=%s, %s, open=%v}", s.RFAddress, s.Kind, open)
	case StatusThermostat, StatusWallThermostat:
		temp := "n/a"
		if s.Temperature != nil {
			temp = fmt.Sprintf("%.1f", *s.Temperature)
		}
		return fmt.Sprintf("DeviceStatus{rf=%s, %s, mode=%s, valve=%d%%, setpoint=%.1f, temp=%s, battery_low=%v}",
			s.RFAddress, s.Kind, s.Mode, s.ValvePercent, s.Setpoint, temp, s.BatteryLow)
	default:
		return fmt.Sprintf("DeviceStatus{rf=%s, %s}", s.RFAddress, s.Kind)
	}
}

// DeviceList is the decoded L-message: zero or more live status records.
type DeviceList struct {
	Devices []DeviceStatus
}

func (l *DeviceList) Type() byte { return CmdDeviceList }

func (l *DeviceList) String() string {
	return fmt.Sprintf("DeviceList{devices=%d}", len(l.Devices))
}

// CommStatus is the cube's radio budget, reported with most replies.
type CommStatus struct {
	DutyCycle       int // percent
	FreeMemorySlots int
}

// SendAck is the reply to an outgoing "s:" command (S-message). Accepted is
// true when the cube reports the command as taken; the comm status fields
// overwrite the cached CommStatus either way.
type SendAck struct {
	Accepted        bool
	DutyCycle       int
	FreeMemorySlots int
}

func (s *SendAck) Type() byte { return CmdSendAck }

func (s *SendAck) String() string {
	return fmt.Sprintf("SendAck{accepted=%v, duty=%d%%, slots=%d}",
		s.Accepted, s.DutyCycle, s.FreeMemorySlots)
}

// Ack is the payload-less A-message; it signals successful receipt only.
type Ack struct{}

func (a *Ack) Type() byte { return CmdAck }

func (a *Ack) String() string { return "Ack{}" }
