// Package cube maintains a live session with a MAX! Cube heating hub.
//
// The package sits on top of internal/codec: a Transport delivers the raw
// TCP byte stream, a single processing goroutine reassembles and decodes
// frames, and the decoded records are merged into the session State. All
// reads hand out copies, so callers never observe a half-applied update.
//
// # Session Lifecycle
//
// After the TCP connection is established the cube pushes an H frame, an M
// frame and one C frame per device, followed by an L frame, all unsolicited.
// The session counts as initialised once the M frame has been applied;
// awaited operations before that point fail with ErrNotInitialised.
//
//	c := cube.New(cube.NewTCPTransport("192.168.1.100", 62910))
//	if err := c.Connect(ctx); err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	statuses, err := c.GetDeviceStatus(ctx)
//	accepted, err := c.SetTemperature(ctx, "0fc380", 1, codec.ModeManual, 21.5, time.Time{})
//
// # Request Coordination
//
// The cube answers at most one command at a time and its replies carry no
// correlation ID, so the session allows a single outstanding awaited request.
// A second awaited call while one is in flight fails fast with
// ErrRequestPending instead of queueing. Timeouts are the caller's business
// via the context passed to every awaited operation.
//
// # Events
//
// Updates() exposes a fan-out channel of session events (connect, inventory
// replaced, device status changed, disconnect) for dashboards and bridges.
// Publishing never blocks; a slow consumer misses events rather than
// stalling frame processing.
package cube
