package codec

import (
	"encoding/base64"
	"fmt"
)

// L-message record lengths double as the device type discriminant: the cube
// emits 6-byte records for window contacts, 8 for push buttons, 11 for
// radiator thermostats and 12 for wall thermostats (lengths exclude the
// length byte itself).
const (
	recLenWindowContact  = 6
	recLenPushButton     = 8
	recLenThermostat     = 11
	recLenWallThermostat = 12
)

// parseDeviceList decodes the base64 L-message payload: back-to-back
// variable-length device records, each prefixed by its own length byte.
// Records accumulate until the buffer is exhausted; an empty payload is a
// valid empty list.
func parseDeviceList(payload string) (*DeviceList, error) {
	blob, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, decodeErrWrap(CmdDeviceList, "invalid base64 payload", err)
	}

	list := &DeviceList{}
	for len(blob) > 0 {
		recLen := int(blob[0])
		if recLen < 3 {
			return nil, decodeErr(CmdDeviceList,
				fmt.Sprintf("record of %d bytes is too short for an rf address", recLen))
		}
		if len(blob) < recLen+1 {
			return nil, decodeErr(CmdDeviceList,
				fmt.Sprintf("truncated record: declared %d bytes, %d remaining", recLen, len(blob)-1))
		}
		record := blob[:recLen+1]

		status, err := decodeDeviceRecord(record)
		if err != nil {
			return nil, err
		}
		list.Devices = append(list.Devices, status)

		blob = blob[recLen+1:]
	}
	return list, nil
}

// decodeDeviceRecord dispatches one length-prefixed record to its
// type-specific decoder. Unrecognized record lengths yield an Unknown
// status carrying only the rf address, never an error.
func decodeDeviceRecord(record []byte) (DeviceStatus, error) {
	status := DeviceStatus{RFAddress: rfAddressString(record[1:4])}

	switch int(record[0]) {
	case recLenWindowContact:
		status.Kind = StatusWindowContact
		open := bitSet(record[6], 1)
		status.Open = &open

	case recLenPushButton:
		status.Kind = StatusPushButton

	case recLenThermostat:
		status.Kind = StatusThermostat
		decodeThermostat(record, &status)

	case recLenWallThermostat:
		status.Kind = StatusWallThermostat
		decodeThermostat(record, &status)
		decodeWallThermostatOverride(record, &status)

	default:
		status.Kind = StatusUnknown
	}

	return status, nil
}

// decodeThermostat fills the shared thermostat fields of a status record.
//
// Byte 5 flag bits: 1 initialized, 2 answer-to-command, 3 error, 4 valid.
// Byte 6: bits 0-1 mode, bit 3 DST, bit 4 gateway known, bit 5 panel locked,
// bit 6 link error, bit 7 battery low. Byte 7 is the valve position in
// percent, byte 8 the setpoint in half degrees.
func decodeThermostat(record []byte, status *DeviceStatus) {
	status.Initialized = bitSet(record[5], 1)
	status.FromCommand = bitSet(record[5], 2)
	status.Error = bitSet(record[5], 3)
	status.Valid = bitSet(record[5], 4)

	// Boost sets both mode bits, so it must be tested before the
	// single-bit manual and vacation checks.
	switch {
	case record[6]&0x03 == 0x03:
		status.Mode = ModeBoost
	case bitSet(record[6], 0):
		status.Mode = ModeManual
	case bitSet(record[6], 1):
		status.Mode = ModeVacation
	default:
		status.Mode = ModeAuto
	}

	status.DSTActive = bitSet(record[6], 3)
	status.GatewayKnown = bitSet(record[6], 4)
	status.PanelLocked = bitSet(record[6], 5)
	status.LinkError = bitSet(record[6], 6)
	status.BatteryLow = bitSet(record[6], 7)

	status.ValvePercent = int(record[7])
	status.Setpoint = float64(record[8]) / 2

	if status.Mode == ModeVacation {
		// Bytes 9-10 hold the vacation end date: day in the low 5 bits of
		// byte 9, month split across the high 3 bits of byte 9 and the top
		// bit of byte 10, year-2000 in the low 6 bits of byte 10.
		year := 2000 + int(record[10]&0x3F)
		month := int(record[9]&0xE0)>>4 | int(record[10]>>7)
		day := int(record[9] & 0x1F)
		status.DateUntil = fmt.Sprintf("%d-%02d-%02d", year, month, day)

		halfHours := int(record[11] & 0x3F)
		minute := "00"
		if halfHours%2 == 1 {
			minute = "30"
		}
		status.TimeUntil = fmt.Sprintf("%02d:%s", halfHours/2, minute)
	} else {
		// The measured temperature is a 9-bit value whose top bit is
		// carried in byte 9 as a plain non-zero sentinel worth 25.5 °C.
		// This is a property of the wire format, not an approximation.
		temp := float64(record[10]) / 10
		if record[9] != 0 {
			temp += 25.5
		}
		status.Temperature = &temp
	}
}

// decodeWallThermostatOverride replaces the setpoint and temperature of a
// wall thermostat record. The setpoint uses only the low 7 bits of byte 8;
// its dropped top bit is bit 8 of the measured temperature, whose low 8 bits
// live in byte 12.
func decodeWallThermostatOverride(record []byte, status *DeviceStatus) {
	status.Setpoint = float64(record[8]&0x7F) / 2

	raw := int(record[8]&0x80)<<1 | int(record[12])
	temp := float64(raw) / 10
	status.Temperature = &temp
}
