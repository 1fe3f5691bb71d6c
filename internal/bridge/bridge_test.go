package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ivesdebruycker/maxcube/internal/codec"
	"github.com/ivesdebruycker/maxcube/internal/cube"
)

// fakeToken satisfies mqtt.Token for publishes that always succeed
type fakeToken struct{}

func (fakeToken) Wait() bool                     { return true }
func (fakeToken) WaitTimeout(time.Duration) bool { return true }
func (fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (fakeToken) Error() error { return nil }

// fakePublisher records published messages
type fakePublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
}

type publishedMessage struct {
	topic    string
	retained bool
	payload  []byte
}

func (f *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, publishedMessage{
		topic:    topic,
		retained: retained,
		payload:  payload.([]byte),
	})
	return fakeToken{}
}

func (f *fakePublisher) published() []publishedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publishedMessage(nil), f.messages...)
}

// fakeSession scripts the cube side of the bridge
type fakeSession struct {
	mu       sync.Mutex
	updates  chan cube.Update
	done     chan struct{}
	infos    map[string]cube.DeviceInfo
	statuses []codec.DeviceStatus
	commands []setCommand
}

type setCommand struct {
	rfAddress string
	mode      codec.Mode
	degrees   float64
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		updates: make(chan cube.Update, 16),
		done:    make(chan struct{}),
		infos:   make(map[string]cube.DeviceInfo),
	}
}

func (f *fakeSession) Updates() <-chan cube.Update    { return f.updates }
func (f *fakeSession) Done() <-chan struct{}          { return f.done }
func (f *fakeSession) Statuses() []codec.DeviceStatus { return f.statuses }

func (f *fakeSession) DeviceInfo(rfAddress string) (cube.DeviceInfo, error) {
	info, ok := f.infos[rfAddress]
	if !ok {
		return cube.DeviceInfo{}, cube.ErrUnknownDevice
	}
	return info, nil
}

func (f *fakeSession) SetTemperature(_ context.Context, rfAddress string, mode codec.Mode, degrees float64, _ time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, setCommand{rfAddress: rfAddress, mode: mode, degrees: degrees})
	return true, nil
}

func (f *fakeSession) sentCommands() []setCommand {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]setCommand(nil), f.commands...)
}

// fakeMessage satisfies mqtt.Message for handler tests
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

func floatPtr(v float64) *float64 { return &v }

func thermostatInfo(setpoint float64, temp *float64) cube.DeviceInfo {
	return cube.DeviceInfo{
		Device: codec.Device{
			Type:      codec.DeviceThermostat,
			RFAddress: "0fc380",
			Name:      "Radiator",
			RoomID:    1,
		},
		RoomName: "Office",
		Status: &codec.DeviceStatus{
			RFAddress:    "0fc380",
			Mode:         codec.ModeManual,
			Setpoint:     setpoint,
			Temperature:  temp,
			ValvePercent: 28,
		},
	}
}

func newTestBridge(session *fakeSession) (*Bridge, *fakePublisher) {
	b := New(session, Options{TopicPrefix: "maxcube"})
	pub := &fakePublisher{}
	b.pub = pub
	return b, pub
}

func TestCommandTarget(t *testing.T) {
	tests := []struct {
		topic  string
		suffix string
		wantRF string
		wantOK bool
	}{
		{"maxcube/0fc380/set", "set", "0fc380", true},
		{"maxcube/0fc380/mode/set", "mode/set", "0fc380", true},
		{"maxcube/0fc380/mode/set", "set", "", false}, // rf would contain a slash
		{"other/0fc380/set", "set", "", false},
		{"maxcube//set", "set", "", false},
		{"maxcube/0fc380", "set", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			rf, ok := commandTarget("maxcube", tt.topic, tt.suffix)
			if ok != tt.wantOK {
				t.Fatalf("commandTarget(%q, %q) ok = %v, want %v", tt.topic, tt.suffix, ok, tt.wantOK)
			}
			if rf != tt.wantRF {
				t.Errorf("commandTarget(%q, %q) rf = %q, want %q", tt.topic, tt.suffix, rf, tt.wantRF)
			}
		})
	}
}

func TestStateTopic(t *testing.T) {
	if got := stateTopic("maxcube", "0fc380"); got != "maxcube/0fc380/state" {
		t.Errorf("stateTopic() = %q, want maxcube/0fc380/state", got)
	}
}

func TestStatePayload(t *testing.T) {
	info := thermostatInfo(20.0, floatPtr(22.1))

	state := statePayload(info)

	if state.RFAddress != "0fc380" {
		t.Errorf("RFAddress = %q, want 0fc380", state.RFAddress)
	}
	if state.Name != "Radiator" || state.Room != "Office" {
		t.Errorf("Name/Room = %q/%q, want Radiator/Office", state.Name, state.Room)
	}
	if state.Mode != "manual" {
		t.Errorf("Mode = %q, want manual", state.Mode)
	}
	if state.Setpoint != 20.0 {
		t.Errorf("Setpoint = %v, want 20.0", state.Setpoint)
	}
	if state.Temperature == nil || *state.Temperature != 22.1 {
		t.Errorf("Temperature = %v, want 22.1", state.Temperature)
	}
	if state.Valve != 28 {
		t.Errorf("Valve = %v, want 28", state.Valve)
	}
	if state.Battery != "ok" {
		t.Errorf("Battery = %q, want ok", state.Battery)
	}
}

func TestStatePayload_NoStatusYet(t *testing.T) {
	info := thermostatInfo(20.0, nil)
	info.Status = nil

	state := statePayload(info)

	if state.RFAddress != "0fc380" || state.Kind != "Thermostat" {
		t.Errorf("static fields = %q/%q, want 0fc380/Thermostat", state.RFAddress, state.Kind)
	}
	if state.Mode != "" || state.Temperature != nil {
		t.Errorf("status fields should stay empty without a status, got mode %q", state.Mode)
	}
}

func TestStatePayload_Vacation(t *testing.T) {
	info := thermostatInfo(12.0, nil)
	info.Status.Mode = codec.ModeVacation
	info.Status.DateUntil = "2011-09-05"
	info.Status.TimeUntil = "23:00"

	state := statePayload(info)

	if state.Mode != "vacation" {
		t.Errorf("Mode = %q, want vacation", state.Mode)
	}
	if state.Until != "2011-09-05 23:00" {
		t.Errorf("Until = %q, want '2011-09-05 23:00'", state.Until)
	}
}

func TestBridge_PublishesDeviceState(t *testing.T) {
	session := newFakeSession()
	session.infos["0fc380"] = thermostatInfo(20.0, floatPtr(21.7))
	b, pub := newTestBridge(session)

	b.handleUpdate(cube.Update{Kind: cube.UpdateDeviceStatus, RFAddress: "0fc380"})

	messages := pub.published()
	if len(messages) != 1 {
		t.Fatalf("published %d messages, want 1", len(messages))
	}

	msg := messages[0]
	if msg.topic != "maxcube/0fc380/state" {
		t.Errorf("topic = %q, want maxcube/0fc380/state", msg.topic)
	}
	if !msg.retained {
		t.Error("state message should be retained")
	}

	var state deviceState
	if err := json.Unmarshal(msg.payload, &state); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if state.Setpoint != 20.0 {
		t.Errorf("payload setpoint = %v, want 20.0", state.Setpoint)
	}
}

func TestBridge_InventoryRepublishesAll(t *testing.T) {
	session := newFakeSession()
	session.infos["0fc380"] = thermostatInfo(20.0, nil)
	info2 := thermostatInfo(18.0, nil)
	info2.Device.RFAddress = "0abc12"
	info2.Status.RFAddress = "0abc12"
	session.infos["0abc12"] = info2
	session.statuses = []codec.DeviceStatus{
		{RFAddress: "0fc380"},
		{RFAddress: "0abc12"},
	}
	b, pub := newTestBridge(session)

	b.handleUpdate(cube.Update{Kind: cube.UpdateInventory})

	if got := len(pub.published()); got != 2 {
		t.Fatalf("published %d messages, want 2", got)
	}
}

func TestBridge_UnknownDeviceIsSkipped(t *testing.T) {
	session := newFakeSession()
	b, pub := newTestBridge(session)

	b.handleUpdate(cube.Update{Kind: cube.UpdateDeviceStatus, RFAddress: "ffffff"})

	if got := len(pub.published()); got != 0 {
		t.Fatalf("published %d messages, want 0", got)
	}
}

func TestBridge_HandleSetTemperature(t *testing.T) {
	session := newFakeSession()
	session.infos["0fc380"] = thermostatInfo(20.0, nil)
	b, _ := newTestBridge(session)

	b.handleSetTemperature(nil, &fakeMessage{topic: "maxcube/0fc380/set", payload: []byte("21.5")})

	commands := session.sentCommands()
	if len(commands) != 1 {
		t.Fatalf("sent %d commands, want 1", len(commands))
	}
	cmd := commands[0]
	if cmd.rfAddress != "0fc380" || cmd.mode != codec.ModeManual || cmd.degrees != 21.5 {
		t.Errorf("command = %+v, want manual 21.5 for 0fc380", cmd)
	}
}

func TestBridge_HandleSetTemperatureBadPayload(t *testing.T) {
	session := newFakeSession()
	b, _ := newTestBridge(session)

	b.handleSetTemperature(nil, &fakeMessage{topic: "maxcube/0fc380/set", payload: []byte("warm")})

	if got := len(session.sentCommands()); got != 0 {
		t.Fatalf("sent %d commands, want 0", got)
	}
}

func TestBridge_HandleSetMode(t *testing.T) {
	session := newFakeSession()
	session.infos["0fc380"] = thermostatInfo(20.0, nil)
	b, _ := newTestBridge(session)

	b.handleSetMode(nil, &fakeMessage{topic: "maxcube/0fc380/mode/set", payload: []byte("auto")})

	commands := session.sentCommands()
	if len(commands) != 1 {
		t.Fatalf("sent %d commands, want 1", len(commands))
	}
	cmd := commands[0]
	if cmd.mode != codec.ModeAuto {
		t.Errorf("mode = %v, want auto", cmd.mode)
	}
	// The known setpoint rides along so the device keeps its target.
	if cmd.degrees != 20.0 {
		t.Errorf("degrees = %v, want 20.0", cmd.degrees)
	}
}

func TestBridge_HandleSetModeRejectsVacation(t *testing.T) {
	session := newFakeSession()
	session.infos["0fc380"] = thermostatInfo(20.0, nil)
	b, _ := newTestBridge(session)

	b.handleSetMode(nil, &fakeMessage{topic: "maxcube/0fc380/mode/set", payload: []byte("vacation")})

	if got := len(session.sentCommands()); got != 0 {
		t.Fatalf("sent %d commands, want 0", got)
	}
}
