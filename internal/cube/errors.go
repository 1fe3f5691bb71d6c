package cube

import "errors"

var (
	// ErrNotConnected is returned by operations on a session whose
	// transport is not connected.
	ErrNotConnected = errors.New("not connected")

	// ErrNotInitialised is returned by awaited operations before the
	// cube's initial metadata frame has been received.
	ErrNotInitialised = errors.New("session not initialised")

	// ErrRequestPending is returned when an awaited request is issued
	// while another one is still in flight. The cube answers one command
	// at a time; callers must serialize.
	ErrRequestPending = errors.New("another request is pending")

	// ErrClosed is returned for requests that were in flight when the
	// connection went away.
	ErrClosed = errors.New("connection closed")

	// ErrUnknownDevice is returned when an rf address is not present in
	// the device inventory.
	ErrUnknownDevice = errors.New("unknown device")
)
