package cube

import (
	"sort"
	"sync"

	"github.com/ivesdebruycker/maxcube/internal/codec"
)

// State is the session-local cache of everything the cube has reported:
// identity, room and device inventory, per-device configuration and live
// status, and the radio budget.
//
// Only the frame-processing goroutine calls Apply; everything else reads
// through the accessor methods, which return copies.
type State struct {
	mu sync.RWMutex

	hello    *codec.Hello
	rooms    map[uint8]codec.Room
	devices  map[string]codec.Device
	configs  map[string]codec.DeviceConfig
	statuses map[string]codec.DeviceStatus
	comm     codec.CommStatus

	initialised bool
}

// NewState returns an empty session state.
func NewState() *State {
	return &State{
		rooms:    make(map[uint8]codec.Room),
		devices:  make(map[string]codec.Device),
		configs:  make(map[string]codec.DeviceConfig),
		statuses: make(map[string]codec.DeviceStatus),
	}
}

// Apply merges one decoded record into the state and returns the session
// events it produced. Records the state has no use for (plain acks) produce
// no events. Apply never partially applies: the caller guarantees msg
// decoded cleanly before it gets here.
func (s *State) Apply(msg codec.Message) []Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch m := msg.(type) {
	case *codec.Hello:
		hello := *m
		s.hello = &hello
		s.comm = codec.CommStatus{DutyCycle: m.DutyCycle, FreeMemorySlots: m.FreeMemorySlots}
		return []Update{{Kind: UpdateHello}, {Kind: UpdateCommStatus}}

	case *codec.Metadata:
		// The M frame is authoritative: the whole inventory is replaced,
		// dropping rooms and devices that disappeared from the cube.
		s.rooms = make(map[uint8]codec.Room, len(m.Rooms))
		for id, room := range m.Rooms {
			s.rooms[id] = room
		}
		s.devices = make(map[string]codec.Device, len(m.Devices))
		for rf, dev := range m.Devices {
			s.devices[rf] = dev
		}
		s.initialised = true
		return []Update{{Kind: UpdateInventory}}

	case *codec.DeviceConfig:
		s.configs[m.RFAddress] = cloneConfig(*m)
		return []Update{{Kind: UpdateDeviceConfig, RFAddress: m.RFAddress}}

	case *codec.DeviceList:
		updates := make([]Update, 0, len(m.Devices))
		for _, incoming := range m.Devices {
			merged := s.mergeStatus(incoming)
			s.statuses[merged.RFAddress] = merged
			published := cloneStatus(merged)
			updates = append(updates, Update{
				Kind:      UpdateDeviceStatus,
				RFAddress: merged.RFAddress,
				Status:    &published,
			})
		}
		return updates

	case *codec.SendAck:
		s.comm = codec.CommStatus{DutyCycle: m.DutyCycle, FreeMemorySlots: m.FreeMemorySlots}
		return []Update{{Kind: UpdateCommStatus}}
	}

	return nil
}

// mergeStatus folds an incoming status record into the cached one. Fields
// the frame did not report keep their cached values: a vacation-mode frame
// omits the measured temperature, and the last known reading stays visible
// until a frame reports a new one.
func (s *State) mergeStatus(incoming codec.DeviceStatus) codec.DeviceStatus {
	merged := cloneStatus(incoming)
	existing, ok := s.statuses[incoming.RFAddress]
	if !ok {
		return merged
	}

	if merged.Temperature == nil && existing.Temperature != nil {
		temp := *existing.Temperature
		merged.Temperature = &temp
	}
	if merged.Open == nil && existing.Open != nil {
		open := *existing.Open
		merged.Open = &open
	}
	return merged
}

// cloneStatus deep-copies a status record so stored and published values
// never share pointers with the decoder's output or with each other.
func cloneStatus(st codec.DeviceStatus) codec.DeviceStatus {
	out := st
	if st.Temperature != nil {
		temp := *st.Temperature
		out.Temperature = &temp
	}
	if st.Open != nil {
		open := *st.Open
		out.Open = &open
	}
	return out
}

// cloneConfig deep-copies a configuration record including its week program.
func cloneConfig(cfg codec.DeviceConfig) codec.DeviceConfig {
	out := cfg
	if cfg.WeekProgram != nil {
		var program codec.WeekProgram
		for day, setpoints := range cfg.WeekProgram {
			program[day] = append([]codec.Setpoint(nil), setpoints...)
		}
		out.WeekProgram = &program
	}
	return out
}

// Invalidate marks the session as uninitialised. Called on disconnect; the
// cached tables stay readable as last-known values.
func (s *State) Invalidate() {
	s.mu.Lock()
	s.initialised = false
	s.mu.Unlock()
}

// Initialised reports whether the initial metadata frame has been applied.
func (s *State) Initialised() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialised
}

// Hello returns a copy of the cube identity, or nil before the first H frame.
func (s *State) Hello() *codec.Hello {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.hello == nil {
		return nil
	}
	hello := *s.hello
	return &hello
}

// CommStatus returns the last reported radio budget.
func (s *State) CommStatus() codec.CommStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.comm
}

// Rooms returns the room inventory sorted by room id.
func (s *State) Rooms() []codec.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]codec.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms
}

// Devices returns the device inventory sorted by room, then name.
func (s *State) Devices() []codec.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()

	devices := make([]codec.Device, 0, len(s.devices))
	for _, dev := range s.devices {
		devices = append(devices, dev)
	}
	sort.Slice(devices, func(i, j int) bool {
		if devices[i].RoomID != devices[j].RoomID {
			return devices[i].RoomID < devices[j].RoomID
		}
		return devices[i].Name < devices[j].Name
	})
	return devices
}

// Statuses returns the live status table sorted by rf address.
func (s *State) Statuses() []codec.DeviceStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make([]codec.DeviceStatus, 0, len(s.statuses))
	for _, st := range s.statuses {
		statuses = append(statuses, cloneStatus(st))
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].RFAddress < statuses[j].RFAddress })
	return statuses
}

// Status returns the live status of one device.
func (s *State) Status(rfAddress string) (codec.DeviceStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.statuses[rfAddress]
	if !ok {
		return codec.DeviceStatus{}, false
	}
	return cloneStatus(st), true
}

// Config returns the configuration record of one device.
func (s *State) Config(rfAddress string) (codec.DeviceConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[rfAddress]
	if !ok {
		return codec.DeviceConfig{}, false
	}
	return cloneConfig(cfg), true
}

// DeviceInfo is the joined per-device view: static inventory entry, its
// room name, and the latest status and configuration when known.
type DeviceInfo struct {
	Device   codec.Device
	RoomName string
	Status   *codec.DeviceStatus
	Config   *codec.DeviceConfig
}

// DeviceInfo joins the inventory, room table, status table and config table
// for one device. ErrUnknownDevice if the rf address is not in the inventory.
func (s *State) DeviceInfo(rfAddress string) (DeviceInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dev, ok := s.devices[rfAddress]
	if !ok {
		return DeviceInfo{}, ErrUnknownDevice
	}

	info := DeviceInfo{Device: dev}
	if room, ok := s.rooms[dev.RoomID]; ok {
		info.RoomName = room.Name
	}
	if st, ok := s.statuses[rfAddress]; ok {
		status := cloneStatus(st)
		info.Status = &status
	}
	if cfg, ok := s.configs[rfAddress]; ok {
		config := cloneConfig(cfg)
		info.Config = &config
	}
	return info, nil
}

// Room resolves a room by id.
func (s *State) Room(id uint8) (codec.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	return room, ok
}
