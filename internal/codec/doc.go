// Package codec implements the eQ-3 MAX! Cube line protocol.
//
// This package handles framing, decoding, and construction of the messages
// exchanged with a MAX! Cube LAN gateway over its persistent TCP connection.
// The protocol is line based: every message is a single ASCII line terminated
// by \r\n of the form
//
//	<TypeChar>:<payload>
//
// where the payload is either a comma separated field list or a base64
// encoded binary blob, depending on the command type.
//
// # Command Types
//
// The cube sends the following frames:
//   - H: hello/handshake (serial number, rf address, firmware, date/time)
//   - M: metadata (room and device inventory)
//   - C: per-device configuration, including the weekly program
//   - L: device list with live per-device status
//   - S: send acknowledgement (command accepted, duty cycle)
//   - A: plain acknowledge
//
// Outgoing commands use the same envelope with lowercase type characters,
// e.g. "l:\r\n" polls the device list and "s:<base64>\r\n" carries a
// set-temperature or set-day-program command.
//
// # Binary Payload Layouts
//
// The base64 blobs wrap hand-rolled bit layouts with several fields that are
// not byte aligned: a 7-bit half-degree temperature packed with a 9-bit
// minute-of-day in the weekly program, mode bits spread across a status byte,
// and a 9-bit wall-thermostat temperature spanning two non-adjacent bytes.
// All layouts in this package are bit-exact contracts with the cube firmware
// and must not be altered.
//
// # Usage Example - Decoding
//
//	var reader codec.FrameReader
//	for _, frame := range reader.Feed(buf[:n]) {
//	    msg, err := codec.Parse(frame.Type, frame.Payload)
//	    if err != nil {
//	        continue
//	    }
//	    switch m := msg.(type) {
//	    case *codec.DeviceList:
//	        for _, status := range m.Devices {
//	            fmt.Println(status.String())
//	        }
//	    }
//	}
//
// # Usage Example - Construction
//
//	frame, err := codec.EncodeSetTemperature("0fc380", 1, codec.ModeManual, 21.5, time.Time{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	conn.Write([]byte(frame))
//
// # Thread Safety
//
// All parse and encode functions are stateless and safe for concurrent use.
// FrameReader buffers partial TCP reads and must only be used from a single
// goroutine.
package codec
