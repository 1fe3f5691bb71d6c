package codec

import (
	"encoding/hex"
	"fmt"
)

// Low level bit and byte helpers shared by the decoders and encoders.

// bitSet reports whether bit n (0 = least significant) of b is set.
func bitSet(b byte, n uint) bool {
	return b&(1<<n) != 0
}

// rfAddressString renders a 3-byte radio address as 6 lowercase hex characters.
func rfAddressString(b []byte) string {
	return hex.EncodeToString(b)
}

// ParseRFAddress parses a 6-hex-character radio address into its 3 raw bytes.
func ParseRFAddress(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid rf address %q: %w", s, err)
	}
	if len(b) != 3 {
		return nil, fmt.Errorf("invalid rf address %q: want 3 bytes, got %d", s, len(b))
	}
	return b, nil
}

// packSetpointWord packs a weekly program set-point into the 16-bit wire
// word: the temperature in half degrees in the high 7 bits, the time of day
// in 5-minute units in the low 9 bits.
func packSetpointWord(temperature float64, minuteOfDay int) uint16 {
	temp := uint16(temperature*2) & 0x7F
	t := uint16(minuteOfDay/5) & 0x1FF
	return temp<<9 | t
}

// unpackSetpointWord is the inverse of packSetpointWord.
func unpackSetpointWord(w uint16) (temperature float64, minuteOfDay int) {
	return float64(w>>9) / 2, int(w&0x1FF) * 5
}

// halfDegreeByte encodes a temperature in 0.5 degree steps into the low
// 6 bits of a command byte, with the 2-bit mode code in the top bits.
func halfDegreeByte(mode Mode, temperature float64) byte {
	return byte(mode)<<6 | byte(temperature*2+0.5)&0x3F
}

// clockMinutes parses "HH:MM" into minutes since midnight.
func clockMinutes(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return h*60 + m, nil
}

// clockString renders minutes since midnight as "HH:MM".
func clockString(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
