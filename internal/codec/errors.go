package codec

import (
	"errors"
	"fmt"
)

// ErrUnknownCommandType is returned by Parse for a frame whose type character
// is not one of the known command types. The frame should be dropped and
// logged; it is not fatal to the session.
var ErrUnknownCommandType = errors.New("unknown command type")

// DecodeError describes a payload that could not be decoded into a record.
// The affected frame is dropped; previously cached state must not be touched.
type DecodeError struct {
	Command byte   // command type character ('H', 'M', ...)
	Reason  string // what was wrong with the payload
	Err     error  // underlying error (invalid base64, ...), may be nil
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %c-message: %s: %v", e.Command, e.Reason, e.Err)
	}
	return fmt.Sprintf("decode %c-message: %s", e.Command, e.Reason)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErr(command byte, reason string) *DecodeError {
	return &DecodeError{Command: command, Reason: reason}
}

func decodeErrWrap(command byte, reason string, err error) *DecodeError {
	return &DecodeError{Command: command, Reason: reason, Err: err}
}

// IsDecodeError reports whether err is (or wraps) a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
