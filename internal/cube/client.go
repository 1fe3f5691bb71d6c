package cube

import (
	"context"
	"time"

	"github.com/ivesdebruycker/maxcube/internal/codec"
	"github.com/ivesdebruycker/maxcube/internal/logging"
	"go.uber.org/zap"
)

// minSetpointDegrees is the lowest temperature the cube accepts in a
// set-temperature command; lower requests are raised to it.
const minSetpointDegrees = 2.0

// readyPollInterval paces WaitReady's checks for the initial metadata frame.
const readyPollInterval = 50 * time.Millisecond

// Cube is a live session with one MAX! Cube. All methods are safe for
// concurrent use, but the cube itself answers one command at a time: a
// second awaited operation while one is in flight fails with
// ErrRequestPending.
type Cube struct {
	transport Transport
	state     *State
	coord     coordinator

	updates     chan Update
	processDone chan struct{}
}

// New wraps a transport in a session. Connect must be called before any
// operation.
func New(t Transport) *Cube {
	return &Cube{
		transport:   t,
		state:       NewState(),
		updates:     make(chan Update, 64),
		processDone: make(chan struct{}),
	}
}

// Dial connects to a cube at host:port and waits for the session to become
// ready. It is the usual entry point for CLI commands.
func Dial(ctx context.Context, host string, port int) (*Cube, error) {
	c := New(NewTCPTransport(host, port))
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	if err := c.WaitReady(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// Connect establishes the transport and starts frame processing. The cube
// then pushes its H, M, C and L frames on its own; WaitReady blocks until
// the metadata has landed.
func (c *Cube) Connect(ctx context.Context) error {
	if err := c.transport.Connect(ctx); err != nil {
		return err
	}
	go c.processLoop()
	c.publish(Update{Kind: UpdateConnected})
	return nil
}

// WaitReady blocks until the session is initialised, the context expires,
// or the connection is lost.
func (c *Cube) WaitReady(ctx context.Context) error {
	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		if c.state.Initialised() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.transport.Done():
			return ErrClosed
		case <-ticker.C:
		}
	}
}

// processLoop is the single goroutine that mutates session state. It owns
// the frame reader, so partial TCP reads are reassembled here and nowhere
// else.
func (c *Cube) processLoop() {
	var reader codec.FrameReader

	for {
		select {
		case data := <-c.transport.Receive():
			for _, frame := range reader.Feed(data) {
				c.handleFrame(frame)
			}

		case <-c.transport.Done():
			// Frames already received stay valid; drain them before
			// declaring the session dead.
			for {
				select {
				case data := <-c.transport.Receive():
					for _, frame := range reader.Feed(data) {
						c.handleFrame(frame)
					}
					continue
				default:
				}
				break
			}
			c.state.Invalidate()
			c.coord.fail(ErrClosed)
			c.publish(Update{Kind: UpdateDisconnected})
			close(c.processDone)
			return
		}
	}
}

func (c *Cube) handleFrame(frame codec.RawFrame) {
	logging.LogFrame("recv", frame.Type, frame.Payload)

	msg, err := codec.Parse(frame.Type, frame.Payload)
	if err != nil {
		// A frame that does not decode is dropped whole; cached state is
		// left untouched.
		logging.Warn("dropping undecodable frame",
			zap.String("type", string(frame.Type)),
			zap.Error(err),
		)
		return
	}

	// State first, then the waiter: a caller woken by its reply must see
	// the state that reply produced.
	for _, update := range c.state.Apply(msg) {
		c.publish(update)
	}
	c.coord.deliver(msg)
}

func (c *Cube) publish(update Update) {
	select {
	case c.updates <- update:
	default:
		// Consumer is behind; it loses this event, frame processing
		// never stalls.
	}
}

// Updates returns the session event stream. There is one stream per session;
// a slow consumer drops events rather than blocking the session.
func (c *Cube) Updates() <-chan Update {
	return c.updates
}

// request sends an awaited command and blocks for its reply frame.
func (c *Cube) request(ctx context.Context, command string, replyType byte) (codec.Message, error) {
	if !c.state.Initialised() {
		return nil, ErrNotInitialised
	}

	ch, err := c.coord.begin(replyType)
	if err != nil {
		return nil, err
	}
	if err := c.transport.Send(command); err != nil {
		c.coord.cancel()
		return nil, err
	}

	select {
	case r := <-ch:
		return r.msg, r.err
	case <-ctx.Done():
		c.coord.cancel()
		return nil, ctx.Err()
	}
}

// SayHello polls the cube identity and radio budget.
func (c *Cube) SayHello(ctx context.Context) (*codec.Hello, error) {
	msg, err := c.request(ctx, codec.CommandHello, codec.CmdHello)
	if err != nil {
		return nil, err
	}
	return msg.(*codec.Hello), nil
}

// GetDeviceStatus polls a fresh device list and returns its records. The
// session state is updated as a side effect.
func (c *Cube) GetDeviceStatus(ctx context.Context) ([]codec.DeviceStatus, error) {
	msg, err := c.request(ctx, codec.CommandDeviceList, codec.CmdDeviceList)
	if err != nil {
		return nil, err
	}
	return msg.(*codec.DeviceList).Devices, nil
}

// FlushDeviceCache asks the cube to resend its metadata and waits for the
// replacement inventory.
func (c *Cube) FlushDeviceCache(ctx context.Context) error {
	_, err := c.request(ctx, codec.CommandMetadata, codec.CmdMetadata)
	return err
}

// SetTemperature sets the target temperature and mode of one device. The
// room is resolved from the inventory. For ModeVacation, until bounds the
// override. The returned bool is the cube's accepted flag; false with a nil
// error means the command was understood but rejected (duty cycle exhausted
// or device unreachable).
func (c *Cube) SetTemperature(ctx context.Context, rfAddress string, mode codec.Mode, degrees float64, until time.Time) (bool, error) {
	info, err := c.state.DeviceInfo(rfAddress)
	if err != nil {
		return false, err
	}
	if mode != codec.ModeAuto && degrees < minSetpointDegrees {
		degrees = minSetpointDegrees
	}

	command, err := codec.EncodeSetTemperature(rfAddress, info.Device.RoomID, mode, degrees, until)
	if err != nil {
		return false, err
	}

	msg, err := c.request(ctx, command, codec.CmdSendAck)
	if err != nil {
		return false, err
	}
	ack := msg.(*codec.SendAck)
	if !ack.Accepted {
		logging.Warn("set temperature rejected",
			zap.String("rf", rfAddress),
			zap.Int("duty_cycle", ack.DutyCycle),
		)
	}
	return ack.Accepted, nil
}

// SetSchedule replaces one weekday's heating program of a device.
// weekday is 0=Monday .. 6=Sunday; temperatures and times per
// codec.EncodeSetDayProgram.
func (c *Cube) SetSchedule(ctx context.Context, rfAddress string, weekday int, temperatures []float64, times []string) (bool, error) {
	info, err := c.state.DeviceInfo(rfAddress)
	if err != nil {
		return false, err
	}

	command, err := codec.EncodeSetDayProgram(rfAddress, info.Device.RoomID, weekday, temperatures, times)
	if err != nil {
		return false, err
	}

	msg, err := c.request(ctx, command, codec.CmdSendAck)
	if err != nil {
		return false, err
	}
	return msg.(*codec.SendAck).Accepted, nil
}

// State exposes the session state for read-only consumers (TUI, bridges,
// status feed).
func (c *Cube) State() *State {
	return c.state
}

// Rooms returns the cached room inventory.
func (c *Cube) Rooms() []codec.Room { return c.state.Rooms() }

// Devices returns the cached device inventory.
func (c *Cube) Devices() []codec.Device { return c.state.Devices() }

// Statuses returns the cached live status table.
func (c *Cube) Statuses() []codec.DeviceStatus { return c.state.Statuses() }

// DeviceInfo returns the joined view of one device.
func (c *Cube) DeviceInfo(rfAddress string) (DeviceInfo, error) {
	return c.state.DeviceInfo(rfAddress)
}

// CommStatus returns the last reported radio budget.
func (c *Cube) CommStatus() codec.CommStatus { return c.state.CommStatus() }

// Hello returns the cached cube identity.
func (c *Cube) Hello() *codec.Hello { return c.state.Hello() }

// Done is closed once the session's processing loop has stopped.
func (c *Cube) Done() <-chan struct{} { return c.processDone }

// Close says goodbye to the cube and tears the transport down. The quit
// command is best effort; the cube closes its end on receipt.
func (c *Cube) Close() error {
	_ = c.transport.Send(codec.CommandQuit)
	return c.transport.Close()
}
