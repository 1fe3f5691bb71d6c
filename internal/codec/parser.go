package codec

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Parse decodes a frame payload into a typed record. The payload is expected
// in FrameReader form, i.e. with the \r\n terminator re-appended; it is
// stripped here. Unknown command types yield ErrUnknownCommandType, which is
// non-fatal: the caller logs and drops the frame.
func Parse(frameType byte, payload string) (Message, error) {
	payload = stripTerminator(payload)

	switch frameType {
	case CmdHello:
		return parseHello(payload)
	case CmdMetadata:
		return parseMetadata(payload)
	case CmdConfiguration:
		return parseConfiguration(payload)
	case CmdDeviceList:
		return parseDeviceList(payload)
	case CmdSendAck:
		return parseSendAck(payload)
	case CmdAck:
		return &Ack{}, nil
	default:
		return nil, fmt.Errorf("%w: %c", ErrUnknownCommandType, frameType)
	}
}

// parseHello decodes the comma separated H-message.
//
// Example payload:
//
//	KEQ0523864,003508,0113,00000000,477719c0,00,32,0d0c09,1404,03,0000
func parseHello(payload string) (*Hello, error) {
	fields := strings.Split(payload, ",")
	if len(fields) < 9 {
		return nil, decodeErr(CmdHello, fmt.Sprintf("want at least 9 fields, got %d", len(fields)))
	}

	dutyCycle, err := strconv.ParseUint(fields[5], 16, 8)
	if err != nil {
		return nil, decodeErrWrap(CmdHello, "invalid duty cycle", err)
	}
	freeSlots, err := strconv.ParseUint(fields[6], 16, 8)
	if err != nil {
		return nil, decodeErrWrap(CmdHello, "invalid free memory slots", err)
	}

	cubeDate, err := parseCubeDate(fields[7])
	if err != nil {
		return nil, decodeErrWrap(CmdHello, "invalid cube date", err)
	}
	cubeTime, err := parseCubeTime(fields[8])
	if err != nil {
		return nil, decodeErrWrap(CmdHello, "invalid cube time", err)
	}

	h := &Hello{
		SerialNumber:     fields[0],
		RFAddress:        strings.ToLower(fields[1]),
		FirmwareVersion:  fields[2],
		HTTPConnectionID: fields[4],
		DutyCycle:        int(dutyCycle),
		FreeMemorySlots:  int(freeSlots),
		CubeDate:         cubeDate,
		CubeTime:         cubeTime,
	}
	if len(fields) > 9 {
		h.StateCubeTime = fields[9]
	}
	if len(fields) > 10 {
		h.NTPCounter = fields[10]
	}
	return h, nil
}

// parseCubeDate decodes three hex byte-pairs YYMMDD into "2015-09-05".
func parseCubeDate(s string) (string, error) {
	if len(s) < 6 {
		return "", fmt.Errorf("date field %q too short", s)
	}
	yy, err := strconv.ParseUint(s[0:2], 16, 8)
	if err != nil {
		return "", err
	}
	mm, err := strconv.ParseUint(s[2:4], 16, 8)
	if err != nil {
		return "", err
	}
	dd, err := strconv.ParseUint(s[4:6], 16, 8)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d-%02d-%02d", 2000+yy, mm, dd), nil
}

// parseCubeTime decodes two hex byte-pairs HHMM into "12:05".
func parseCubeTime(s string) (string, error) {
	if len(s) < 4 {
		return "", fmt.Errorf("time field %q too short", s)
	}
	hh, err := strconv.ParseUint(s[0:2], 16, 8)
	if err != nil {
		return "", err
	}
	mm, err := strconv.ParseUint(s[2:4], 16, 8)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d:%02d", hh, mm), nil
}

// parseMetadata decodes the room and device inventory from the M-message.
//
// Field 3 of the comma separated payload is a base64 binary blob:
//
//	[2]       room count
//	per room: room_id(1) | name_len(1) | name(name_len) | group_rf(3)
//	then:     device count(1)
//	per dev:  device_type(1) | rf(3) | serial(10) | name_len(1) | name | room_id(1)
//
// The device section may be absent entirely; that decodes to an empty device
// table rather than an error.
func parseMetadata(payload string) (*Metadata, error) {
	fields := strings.Split(payload, ",")
	if len(fields) < 3 {
		return nil, decodeErr(CmdMetadata, fmt.Sprintf("want 3 fields, got %d", len(fields)))
	}

	blob, err := base64.StdEncoding.DecodeString(fields[2])
	if err != nil {
		return nil, decodeErrWrap(CmdMetadata, "invalid base64 payload", err)
	}
	if len(blob) < 3 {
		return nil, decodeErr(CmdMetadata, "payload truncated before room count")
	}

	meta := &Metadata{
		Rooms:   make(map[uint8]Room),
		Devices: make(map[string]Device),
	}

	roomCount := int(blob[2])
	offset := 3

	for i := 0; i < roomCount; i++ {
		if offset+2 > len(blob) {
			return nil, decodeErr(CmdMetadata, "payload truncated inside room table")
		}
		roomID := blob[offset]
		nameLen := int(blob[offset+1])
		if offset+2+nameLen+3 > len(blob) {
			return nil, decodeErr(CmdMetadata, "payload truncated inside room entry")
		}
		name := decodeDeviceName(blob[offset+2 : offset+2+nameLen])
		groupRF := rfAddressString(blob[offset+2+nameLen : offset+5+nameLen])

		meta.Rooms[roomID] = Room{
			ID:             roomID,
			Name:           name,
			GroupRFAddress: groupRF,
		}
		offset += 5 + nameLen
	}

	// The device section is optional: a payload that ends right after the
	// room table is a valid empty inventory.
	if offset >= len(blob) {
		return meta, nil
	}

	deviceCount := int(blob[offset])
	offset++

	for i := 0; i < deviceCount; i++ {
		if offset+15 > len(blob) {
			return nil, decodeErr(CmdMetadata, "payload truncated inside device table")
		}
		devType := DeviceType(blob[offset]).normalize()
		rf := rfAddressString(blob[offset+1 : offset+4])
		serial := string(blob[offset+4 : offset+14])
		nameLen := int(blob[offset+14])
		if offset+15+nameLen+1 > len(blob) {
			return nil, decodeErr(CmdMetadata, "payload truncated inside device entry")
		}
		name := decodeDeviceName(blob[offset+15 : offset+15+nameLen])
		roomID := blob[offset+15+nameLen]

		meta.Devices[rf] = Device{
			Type:         devType,
			RFAddress:    rf,
			SerialNumber: serial,
			Name:         name,
			RoomID:       roomID,
		}
		offset += 16 + nameLen
	}

	return meta, nil
}

// decodeDeviceName interprets a name field as UTF-8, falling back to a
// lossy conversion for the Latin-1 names older cubes store.
func decodeDeviceName(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}

// parseSendAck decodes the S-message sent in reply to an outgoing command.
//
// Payload: <duty_cycle_hex>,<status>,<free_memory_slots_hex>. Status "0"
// means the command was accepted; a non-zero status means it was rejected
// (duty cycle exhausted or unknown device).
func parseSendAck(payload string) (*SendAck, error) {
	fields := strings.Split(payload, ",")
	if len(fields) < 3 {
		return nil, decodeErr(CmdSendAck, fmt.Sprintf("want 3 fields, got %d", len(fields)))
	}

	dutyCycle, err := strconv.ParseUint(fields[0], 16, 8)
	if err != nil {
		return nil, decodeErrWrap(CmdSendAck, "invalid duty cycle", err)
	}
	freeSlots, err := strconv.ParseUint(fields[2], 16, 8)
	if err != nil {
		return nil, decodeErrWrap(CmdSendAck, "invalid free memory slots", err)
	}

	return &SendAck{
		Accepted:        fields[1] == "0",
		DutyCycle:       int(dutyCycle),
		FreeMemorySlots: int(freeSlots),
	}, nil
}
