package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/ivesdebruycker/maxcube/internal/codec"
	"github.com/ivesdebruycker/maxcube/internal/cube"
	"github.com/ivesdebruycker/maxcube/internal/logging"
)

const (
	// DefaultTopicPrefix is the root of all bridge topics
	DefaultTopicPrefix = "maxcube"

	// DefaultClientID identifies the bridge to the broker
	DefaultClientID = "maxcube-bridge"

	// commandTimeout bounds a single radio command triggered over MQTT
	commandTimeout = 30 * time.Second
)

// Options configures the MQTT side of the bridge
type Options struct {
	// BrokerURL is the broker address (e.g., "tcp://homeassistant:1883")
	BrokerURL string

	// Username and Password are optional broker credentials
	Username string
	Password string

	// ClientID overrides DefaultClientID
	ClientID string

	// TopicPrefix overrides DefaultTopicPrefix
	TopicPrefix string
}

// Session is the slice of the cube client the bridge drives
type Session interface {
	Updates() <-chan cube.Update
	Done() <-chan struct{}
	Statuses() []codec.DeviceStatus
	DeviceInfo(rfAddress string) (cube.DeviceInfo, error)
	SetTemperature(ctx context.Context, rfAddress string, mode codec.Mode, degrees float64, until time.Time) (bool, error)
}

// publisher is the slice of mqtt.Client the bridge publishes through
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Bridge mirrors cube state to MQTT and turns MQTT commands into radio
// commands. State topics are retained so late subscribers see the last
// known value immediately.
type Bridge struct {
	session Session
	opts    Options
	client  mqtt.Client
	pub     publisher
	done    chan struct{}
}

// New creates a bridge for the given session. Start connects and runs it.
func New(session Session, opts Options) *Bridge {
	if opts.ClientID == "" {
		opts.ClientID = DefaultClientID
	}
	if opts.TopicPrefix == "" {
		opts.TopicPrefix = DefaultTopicPrefix
	}
	return &Bridge{
		session: session,
		opts:    opts,
		done:    make(chan struct{}),
	}
}

// Start connects to the broker, subscribes to command topics and begins
// mirroring updates. It returns once the initial connect attempt resolved;
// the mirror loop runs until the session ends or Stop is called.
func (b *Bridge) Start() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(b.opts.BrokerURL)
	if b.opts.Username != "" {
		opts.SetUsername(b.opts.Username)
		opts.SetPassword(b.opts.Password)
	}
	opts.SetClientID(b.opts.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetWill(b.availabilityTopic(), "offline", 0, true)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		logging.Info("connected to MQTT broker", zap.String("broker", b.opts.BrokerURL))
		c.Publish(b.availabilityTopic(), 0, true, "online")
		c.Subscribe(b.opts.TopicPrefix+"/+/set", 0, b.handleSetTemperature)
		c.Subscribe(b.opts.TopicPrefix+"/+/mode/set", 0, b.handleSetMode)
	})

	b.client = mqtt.NewClient(opts)
	b.pub = b.client
	if token := b.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	go b.mirrorLoop()
	return nil
}

// Stop publishes the offline marker and disconnects from the broker
func (b *Bridge) Stop() {
	close(b.done)
	if b.client != nil {
		token := b.client.Publish(b.availabilityTopic(), 0, true, "offline")
		token.Wait()
		b.client.Disconnect(250)
	}
}

// mirrorLoop pushes cube updates out as retained state messages
func (b *Bridge) mirrorLoop() {
	for {
		select {
		case update := <-b.session.Updates():
			b.handleUpdate(update)
		case <-b.session.Done():
			logging.Warn("cube session ended, bridge going idle")
			return
		case <-b.done:
			return
		}
	}
}

func (b *Bridge) handleUpdate(update cube.Update) {
	switch update.Kind {
	case cube.UpdateDeviceStatus:
		b.publishDevice(update.RFAddress)
	case cube.UpdateInventory:
		// A fresh inventory renames devices and rooms; republish everything.
		for _, status := range b.session.Statuses() {
			b.publishDevice(status.RFAddress)
		}
	case cube.UpdateCommStatus, cube.UpdateHello:
		// Radio budget changes are not per-device state; skip them.
	}
}

// publishDevice publishes the retained state document for one device
func (b *Bridge) publishDevice(rfAddress string) {
	info, err := b.session.DeviceInfo(rfAddress)
	if err != nil {
		logging.Debug("skipping state publish for unknown device", zap.String("rf", rfAddress))
		return
	}

	payload := statePayload(info)
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("failed to marshal device state", zap.String("rf", rfAddress), zap.Error(err))
		return
	}

	topic := stateTopic(b.opts.TopicPrefix, rfAddress)
	token := b.pub.Publish(topic, 0, true, data)
	token.Wait()
	logging.Debug("published device state", zap.String("topic", topic))
}

// handleSetTemperature processes "<prefix>/<rf>/set" with a temperature
// payload like "21.5". The device keeps its current mode; auto devices
// switch to manual, matching what the cube's own app does.
func (b *Bridge) handleSetTemperature(_ mqtt.Client, msg mqtt.Message) {
	rfAddress, ok := commandTarget(b.opts.TopicPrefix, msg.Topic(), "set")
	if !ok {
		return
	}

	degrees, err := strconv.ParseFloat(strings.TrimSpace(string(msg.Payload())), 64)
	if err != nil {
		logging.Warn("invalid temperature payload",
			zap.String("rf", rfAddress), zap.String("payload", string(msg.Payload())))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	accepted, err := b.session.SetTemperature(ctx, rfAddress, codec.ModeManual, degrees, time.Time{})
	if err != nil {
		logging.Error("set temperature failed", zap.String("rf", rfAddress), zap.Error(err))
		return
	}
	logging.Info("set temperature",
		zap.String("rf", rfAddress), zap.Float64("degrees", degrees), zap.Bool("accepted", accepted))
}

// handleSetMode processes "<prefix>/<rf>/mode/set" with a mode name
// payload ("auto", "manual", "boost"). The current setpoint is preserved
// where one is known.
func (b *Bridge) handleSetMode(_ mqtt.Client, msg mqtt.Message) {
	rfAddress, ok := commandTarget(b.opts.TopicPrefix, msg.Topic(), "mode/set")
	if !ok {
		return
	}

	mode, err := codec.ParseMode(strings.ToUpper(strings.TrimSpace(string(msg.Payload()))))
	if err != nil {
		logging.Warn("invalid mode payload",
			zap.String("rf", rfAddress), zap.String("payload", string(msg.Payload())))
		return
	}
	if mode == codec.ModeVacation {
		// Vacation needs an end date the topic cannot carry.
		logging.Warn("vacation mode not settable over MQTT", zap.String("rf", rfAddress))
		return
	}

	degrees := 0.0
	if info, err := b.session.DeviceInfo(rfAddress); err == nil && info.Status != nil {
		degrees = info.Status.Setpoint
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	accepted, err := b.session.SetTemperature(ctx, rfAddress, mode, degrees, time.Time{})
	if err != nil {
		logging.Error("set mode failed", zap.String("rf", rfAddress), zap.Error(err))
		return
	}
	logging.Info("set mode",
		zap.String("rf", rfAddress), zap.Stringer("mode", mode), zap.Bool("accepted", accepted))
}

func (b *Bridge) availabilityTopic() string {
	return b.opts.TopicPrefix + "/bridge/state"
}

// stateTopic is where a device's retained state document lives
func stateTopic(prefix, rfAddress string) string {
	return fmt.Sprintf("%s/%s/state", prefix, rfAddress)
}

// commandTarget extracts the rf address from "<prefix>/<rf>/<suffix>".
// Returns ok=false for topics that do not match the expected shape.
func commandTarget(prefix, topic, suffix string) (string, bool) {
	rest, found := strings.CutPrefix(topic, prefix+"/")
	if !found {
		return "", false
	}
	rfAddress, found := strings.CutSuffix(rest, "/"+suffix)
	if !found || rfAddress == "" || strings.Contains(rfAddress, "/") {
		return "", false
	}
	return rfAddress, true
}

// deviceState is the JSON document published to the state topic
type deviceState struct {
	RFAddress   string   `json:"rf_address"`
	Name        string   `json:"name,omitempty"`
	Room        string   `json:"room,omitempty"`
	Kind        string   `json:"kind"`
	Mode        string   `json:"mode,omitempty"`
	Setpoint    float64  `json:"setpoint,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Valve       int      `json:"valve,omitempty"`
	Battery     string   `json:"battery,omitempty"`
	LinkError   bool     `json:"link_error,omitempty"`
	Open        *bool    `json:"open,omitempty"`
	Until       string   `json:"until,omitempty"`
}

// statePayload flattens a device join into the published document
func statePayload(info cube.DeviceInfo) deviceState {
	state := deviceState{
		RFAddress: info.Device.RFAddress,
		Name:      info.Device.Name,
		Room:      info.RoomName,
		Kind:      info.Device.Type.String(),
	}

	status := info.Status
	if status == nil {
		return state
	}

	state.Mode = strings.ToLower(status.Mode.String())
	state.Setpoint = status.Setpoint
	state.Temperature = status.Temperature
	state.Valve = status.ValvePercent
	state.Open = status.Open
	state.LinkError = status.LinkError
	if status.BatteryLow {
		state.Battery = "low"
	} else {
		state.Battery = "ok"
	}
	if status.Mode == codec.ModeVacation && status.DateUntil != "" {
		state.Until = status.DateUntil + " " + status.TimeUntil
	}

	return state
}
