package cube

import (
	"testing"

	"github.com/ivesdebruycker/maxcube/internal/codec"
)

func metadataMsg(rooms []codec.Room, devices []codec.Device) *codec.Metadata {
	m := &codec.Metadata{
		Rooms:   make(map[uint8]codec.Room),
		Devices: make(map[string]codec.Device),
	}
	for _, r := range rooms {
		m.Rooms[r.ID] = r
	}
	for _, d := range devices {
		m.Devices[d.RFAddress] = d
	}
	return m
}

func thermostatStatus(rf string, temp *float64) codec.DeviceStatus {
	return codec.DeviceStatus{
		RFAddress:   rf,
		Kind:        codec.StatusThermostat,
		Mode:        codec.ModeAuto,
		Setpoint:    20.0,
		Temperature: temp,
	}
}

func floatPtr(v float64) *float64 { return &v }

func TestState_MetadataReplacesInventory(t *testing.T) {
	s := NewState()

	office := codec.Room{ID: 1, Name: "Office", GroupRFAddress: "0a0b0c"}
	kitchen := codec.Room{ID: 2, Name: "Kitchen", GroupRFAddress: "0d0e0f"}
	radiator := codec.Device{Type: codec.DeviceThermostat, RFAddress: "0fc380", Name: "Radiator", RoomID: 1}

	if s.Initialised() {
		t.Fatal("fresh state is initialised")
	}

	updates := s.Apply(metadataMsg([]codec.Room{office, kitchen}, []codec.Device{radiator}))
	if len(updates) != 1 || updates[0].Kind != UpdateInventory {
		t.Fatalf("updates = %v, want one inventory update", updates)
	}
	if !s.Initialised() {
		t.Error("state not initialised after metadata")
	}
	if got := s.Rooms(); len(got) != 2 {
		t.Fatalf("rooms = %d, want 2", len(got))
	}

	// A later M frame is authoritative: the kitchen is gone.
	s.Apply(metadataMsg([]codec.Room{office}, []codec.Device{radiator}))

	rooms := s.Rooms()
	if len(rooms) != 1 || rooms[0].Name != "Office" {
		t.Errorf("rooms after replace = %v, want only Office", rooms)
	}
}

func TestState_DeviceListMergePreservesTemperature(t *testing.T) {
	s := NewState()

	// First frame reports a measured temperature.
	s.Apply(&codec.DeviceList{Devices: []codec.DeviceStatus{
		thermostatStatus("0fc380", floatPtr(21.7)),
	}})

	// Vacation frame omits it; the cached reading must survive.
	vacation := thermostatStatus("0fc380", nil)
	vacation.Mode = codec.ModeVacation
	vacation.DateUntil = "2011-09-05"
	vacation.TimeUntil = "23:00"
	s.Apply(&codec.DeviceList{Devices: []codec.DeviceStatus{vacation}})

	st, ok := s.Status("0fc380")
	if !ok {
		t.Fatal("status missing after merge")
	}
	if st.Mode != codec.ModeVacation || st.DateUntil != "2011-09-05" {
		t.Errorf("vacation fields not applied: %+v", st)
	}
	if st.Temperature == nil || *st.Temperature != 21.7 {
		t.Errorf("temperature = %v, want preserved 21.7", st.Temperature)
	}

	// A frame that reports a new reading overwrites the cached one.
	s.Apply(&codec.DeviceList{Devices: []codec.DeviceStatus{
		thermostatStatus("0fc380", floatPtr(19.2)),
	}})
	st, _ = s.Status("0fc380")
	if st.Temperature == nil || *st.Temperature != 19.2 {
		t.Errorf("temperature = %v, want 19.2", st.Temperature)
	}
}

func TestState_HelloAndSendAckOverwriteComm(t *testing.T) {
	s := NewState()

	s.Apply(&codec.Hello{SerialNumber: "KEQ0523864", DutyCycle: 10, FreeMemorySlots: 30})
	if got := s.CommStatus(); got.DutyCycle != 10 || got.FreeMemorySlots != 30 {
		t.Errorf("comm after hello = %+v, want 10/30", got)
	}
	if h := s.Hello(); h == nil || h.SerialNumber != "KEQ0523864" {
		t.Errorf("hello = %+v, want KEQ0523864", h)
	}

	s.Apply(&codec.SendAck{Accepted: true, DutyCycle: 12, FreeMemorySlots: 29})
	if got := s.CommStatus(); got.DutyCycle != 12 || got.FreeMemorySlots != 29 {
		t.Errorf("comm after ack = %+v, want 12/29", got)
	}
}

func TestState_DeviceInfoJoin(t *testing.T) {
	s := NewState()

	s.Apply(metadataMsg(
		[]codec.Room{{ID: 1, Name: "Office", GroupRFAddress: "0a0b0c"}},
		[]codec.Device{{Type: codec.DeviceThermostat, RFAddress: "0fc380", Name: "Radiator", RoomID: 1}},
	))
	s.Apply(&codec.DeviceList{Devices: []codec.DeviceStatus{
		thermostatStatus("0fc380", floatPtr(21.0)),
	}})

	info, err := s.DeviceInfo("0fc380")
	if err != nil {
		t.Fatalf("DeviceInfo() error = %v", err)
	}
	if info.Device.Name != "Radiator" {
		t.Errorf("device name = %q, want Radiator", info.Device.Name)
	}
	if info.RoomName != "Office" {
		t.Errorf("room name = %q, want Office", info.RoomName)
	}
	if info.Status == nil || info.Status.Setpoint != 20.0 {
		t.Errorf("status = %+v, want setpoint 20.0", info.Status)
	}

	if _, err := s.DeviceInfo("ffffff"); err != ErrUnknownDevice {
		t.Errorf("unknown device error = %v, want ErrUnknownDevice", err)
	}
}

func TestState_SnapshotsDoNotAlias(t *testing.T) {
	s := NewState()
	s.Apply(&codec.DeviceList{Devices: []codec.DeviceStatus{
		thermostatStatus("0fc380", floatPtr(21.0)),
	}})

	st, _ := s.Status("0fc380")
	*st.Temperature = 99.0
	st.Setpoint = 99.0

	again, _ := s.Status("0fc380")
	if *again.Temperature != 21.0 || again.Setpoint != 20.0 {
		t.Errorf("snapshot mutation leaked into state: %+v", again)
	}
}

func TestState_UndecodedFramesNeverReachState(t *testing.T) {
	// Parse failure means Apply is never called; this pins the contract at
	// the state level: applying a valid frame after garbage input works on
	// untouched tables.
	s := NewState()
	if updates := s.Apply(&codec.Ack{}); updates != nil {
		t.Errorf("ack produced updates: %v", updates)
	}
	if len(s.Statuses()) != 0 {
		t.Error("ack touched status table")
	}
}

func TestState_InvalidateKeepsLastKnown(t *testing.T) {
	s := NewState()
	s.Apply(metadataMsg([]codec.Room{{ID: 1, Name: "Office"}}, nil))

	s.Invalidate()

	if s.Initialised() {
		t.Error("state still initialised after invalidate")
	}
	if len(s.Rooms()) != 1 {
		t.Error("invalidate dropped last-known inventory")
	}
}
