package codec

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"
)

// C-message fixed byte offsets. The cube packs the device configuration at
// hard offsets inside the base64 blob; see the per-field notes below.
const (
	cfgOffDeviceType  = 4
	cfgOffSerial      = 8  // 10 ASCII bytes
	cfgOffComfort     = 18 // raw / 2 °C
	cfgOffEco         = 19
	cfgOffMaxSetpoint = 20
	cfgOffMinSetpoint = 21
	cfgOffTempOffset  = 22 // raw / 2 - 3.5 °C
	cfgOffWindowTemp  = 23
	cfgOffWindowDur   = 24 // raw * 5 minutes
	cfgOffBoost       = 25 // DDDVVVVV: duration (3 bits) | valve (5 bits)
	cfgOffDecalc      = 26 // DDDHHHHH: day of week (Sat=1) | hour
	cfgOffMaxValve    = 27 // raw * 100 / 255 percent
	cfgOffValveOffset = 28
	cfgOffProgram     = 27 // 7 day blocks of 26 bytes each

	programDayLen  = 26
	programDays    = 7
	programLen     = programDays * programDayLen
	setpointsPerDay = programDayLen / 2
)

// parseConfiguration decodes the C-message: "<rf_ascii>,<base64>".
//
// A malformed or absent weekly program section degrades gracefully: the
// record is returned with WeekProgram nil and all fixed fields intact.
func parseConfiguration(payload string) (*DeviceConfig, error) {
	fields := strings.SplitN(payload, ",", 2)
	if len(fields) < 2 {
		return nil, decodeErr(CmdConfiguration, "missing base64 field")
	}

	blob, err := base64.StdEncoding.DecodeString(fields[1])
	if err != nil {
		return nil, decodeErrWrap(CmdConfiguration, "invalid base64 payload", err)
	}
	if len(blob) < cfgOffMaxValve+1 {
		return nil, decodeErr(CmdConfiguration,
			fmt.Sprintf("payload too short: %d bytes, want at least %d", len(blob), cfgOffMaxValve+1))
	}

	cfg := &DeviceConfig{
		RFAddress:    rfAddressString(blob[1:4]),
		DeviceType:   DeviceType(blob[cfgOffDeviceType]).normalize(),
		SerialNumber: string(blob[cfgOffSerial : cfgOffSerial+10]),

		ComfortTemperature:     float64(blob[cfgOffComfort]) / 2,
		EcoTemperature:         float64(blob[cfgOffEco]) / 2,
		MaxSetpointTemperature: float64(blob[cfgOffMaxSetpoint]) / 2,
		MinSetpointTemperature: float64(blob[cfgOffMinSetpoint]) / 2,
		TemperatureOffset:      float64(blob[cfgOffTempOffset])/2 - 3.5,

		WindowOpenTemperature: float64(blob[cfgOffWindowTemp]) / 2,
		WindowOpenDuration:    int(blob[cfgOffWindowDur]) * 5,
		BoostDuration:         boostDurationMinutes(blob[cfgOffBoost] >> 5),
		BoostValve:            int(blob[cfgOffBoost]&0x1F) * 5,
		DecalcificationDay:    int(blob[cfgOffDecalc] >> 5),
		DecalcificationHour:   int(blob[cfgOffDecalc] & 0x1F),
		MaxValve:              float64(blob[cfgOffMaxValve]) * 100 / 255,
	}

	// The valve offset byte trails the guaranteed fixed fields; older
	// firmware omits it.
	if len(blob) > cfgOffValveOffset {
		cfg.ValveOffset = float64(blob[cfgOffValveOffset]) * 100 / 255
	}

	// Push buttons carry no schedule. For everything else the program
	// section is best effort: a short or garbled section only drops the
	// WeekProgram field.
	if cfg.DeviceType != DevicePushButton {
		cfg.WeekProgram = parseWeekProgram(blob)
	}

	return cfg, nil
}

// boostDurationMinutes maps the 3-bit boost duration code to minutes:
// code 7 means 30 minutes, everything else is code * 5.
func boostDurationMinutes(code byte) int {
	if code == 7 {
		return 30
	}
	return int(code) * 5
}

// parseWeekProgram decodes the 7 consecutive 26-byte day blocks, ordered
// Saturday through Friday. Each block holds up to 13 big-endian set-point
// words; a word is emitted only when it differs from its predecessor in both
// temperature and time, which skips the trailing filler the firmware pads
// the block with. Returns nil when the section is missing or truncated.
func parseWeekProgram(blob []byte) *WeekProgram {
	if len(blob) < cfgOffProgram+programLen {
		return nil
	}
	section := blob[cfgOffProgram : cfgOffProgram+programLen]

	var program WeekProgram
	for day := 0; day < programDays; day++ {
		block := section[day*programDayLen : (day+1)*programDayLen]
		program[day] = parseDayProgram(block)
	}
	return &program
}

// parseDayProgram decodes the set-points of one 26-byte day block. The last
// emitted set-point implicitly extends to midnight.
func parseDayProgram(block []byte) []Setpoint {
	var (
		setpoints []Setpoint
		prevTemp  = -1.0
		prevTime  = -1
	)
	for i := 0; i < setpointsPerDay; i++ {
		word := binary.BigEndian.Uint16(block[i*2 : i*2+2])
		temp, minutes := unpackSetpointWord(word)

		// Filler entries repeat the previous word; only a change in both
		// fields marks a real set-point.
		if temp == prevTemp || minutes == prevTime {
			prevTemp, prevTime = temp, minutes
			continue
		}
		setpoints = append(setpoints, Setpoint{Temperature: temp, UntilMinutes: minutes})
		prevTemp, prevTime = temp, minutes
	}
	return setpoints
}
