package codec

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"time"
)

// Outgoing command envelopes. Payload-less commands are complete frames.
const (
	CommandHello       = "h:\r\n" // solicit an H reply
	CommandDeviceList  = "l:\r\n" // solicit an L reply
	CommandMetadata    = "m:\r\n" // flush cache, solicits an M reply
	CommandQuit        = "q:\r\n" // ask the cube to close the connection
)

// Magic prefixes of the binary "s:" command payloads.
var (
	setTemperaturePrefix = []byte{0x00, 0x04, 0x40, 0x00, 0x00, 0x00}
	setDayProgramPrefix  = []byte{0x00, 0x04, 0x10, 0x00, 0x00, 0x00}
)

// maxDayProgramSetpoints is the most set-points a single day-program command
// carries; longer schedules keep the first six plus the final one.
const maxDayProgramSetpoints = 7

// EncodeSetTemperature builds the "s:" command that sets a device's target
// temperature and mode. roomID 0 addresses all rooms. For ModeAuto the
// temperature byte is forced to zero (the week schedule takes over). For
// ModeVacation, until gives the end of the vacation period at half-hour
// granularity; it is ignored for every other mode.
func EncodeSetTemperature(rfAddress string, roomID uint8, mode Mode, temperature float64, until time.Time) (string, error) {
	rf, err := ParseRFAddress(rfAddress)
	if err != nil {
		return "", err
	}
	if mode > ModeBoost {
		return "", fmt.Errorf("unknown mode %d", mode)
	}
	if mode == ModeVacation && until.IsZero() {
		return "", fmt.Errorf("vacation mode requires an until time")
	}

	var tempByte byte
	if mode != ModeAuto {
		tempByte = halfDegreeByte(mode, temperature)
	}

	var dateUntil [2]byte
	var timeUntil byte
	if mode == ModeVacation {
		dateUntil = packUntilDate(until)
		timeUntil = packUntilTime(until)
	}

	payload := make([]byte, 0, len(setTemperaturePrefix)+7)
	payload = append(payload, setTemperaturePrefix...)
	payload = append(payload, rf...)
	payload = append(payload, roomID)
	payload = append(payload, tempByte)
	payload = append(payload, dateUntil[0], dateUntil[1])
	payload = append(payload, timeUntil)

	return frameCommand('s', payload), nil
}

// packUntilDate packs the vacation end date into its 16-bit wire form:
// the top three bits of the month, the 5-bit day, the low bit of the month,
// then the 7-bit year-2000. The interleaving is a firmware contract and must
// be preserved exactly.
func packUntilDate(until time.Time) [2]byte {
	year := uint16(until.Year()-2000) & 0x7F
	month := uint16(until.Month()) & 0x0F
	day := uint16(until.Day()) & 0x1F

	word := month>>1<<13 | day<<8 | month&0x01<<7 | year

	var out [2]byte
	binary.BigEndian.PutUint16(out[:], word)
	return out
}

// packUntilTime packs the vacation end time of day at half-hour resolution.
func packUntilTime(until time.Time) byte {
	halfHours := float64(until.Hour()) + float64(until.Minute())/60
	return byte(halfHours*2 + 0.5)
}

// EncodeSetDayProgram builds the "s:" command that replaces one weekday's
// heating program. weekday is 0=Monday .. 6=Sunday; temperatures and times
// must have equal length, times in "HH:MM", each giving the moment its
// temperature stops applying (the last one conventionally "00:00" for
// midnight). Consecutive equal temperatures are collapsed the same way the
// configuration decoder collapses them, so the two round-trip.
func EncodeSetDayProgram(rfAddress string, roomID uint8, weekday int, temperatures []float64, times []string) (string, error) {
	rf, err := ParseRFAddress(rfAddress)
	if err != nil {
		return "", err
	}
	if weekday < 0 || weekday > 6 {
		return "", fmt.Errorf("weekday %d out of range 0..6", weekday)
	}
	if len(temperatures) == 0 || len(temperatures) != len(times) {
		return "", fmt.Errorf("need equally many temperatures and times, got %d and %d",
			len(temperatures), len(times))
	}

	type pair struct {
		temp    float64
		minutes int
	}
	pairs := make([]pair, 0, len(temperatures))
	for i, t := range temperatures {
		minutes, err := clockMinutes(times[i])
		if err != nil {
			return "", err
		}
		if minutes == 0 {
			minutes = 24 * 60 // "00:00" as an end time means midnight
		}
		// Runs of equal temperatures collapse into the run's last entry.
		if i+1 < len(temperatures) && t == temperatures[i+1] {
			continue
		}
		pairs = append(pairs, pair{temp: t, minutes: minutes})
	}

	if len(pairs) > maxDayProgramSetpoints {
		pairs = append(pairs[:maxDayProgramSetpoints-1], pairs[len(pairs)-1])
	}

	payload := make([]byte, 0, len(setDayProgramPrefix)+5+2*len(pairs))
	payload = append(payload, setDayProgramPrefix...)
	payload = append(payload, rf...)
	payload = append(payload, roomID)
	payload = append(payload, dayCode(weekday)<<5)

	for _, p := range pairs {
		var word [2]byte
		binary.BigEndian.PutUint16(word[:], packSetpointWord(p.temp, p.minutes))
		payload = append(payload, word[0], word[1])
	}

	return frameCommand('s', payload), nil
}

// dayCode maps a caller weekday (0=Monday .. 6=Sunday) to the wire's 3-bit
// day code, whose week starts on Saturday.
func dayCode(weekday int) byte {
	return byte((weekday + 2) % 7)
}

// frameCommand wraps a binary payload in the outgoing command envelope.
func frameCommand(cmdType byte, payload []byte) string {
	return fmt.Sprintf("%c:%s\r\n", cmdType, base64.StdEncoding.EncodeToString(payload))
}
