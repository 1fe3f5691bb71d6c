package codec

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
	"time"
)

// decodeCommand strips the "s:" envelope and terminator of an encoded
// command and returns the raw binary payload.
func decodeCommand(t *testing.T, cmd string) []byte {
	t.Helper()
	if !strings.HasPrefix(cmd, "s:") || !strings.HasSuffix(cmd, "\r\n") {
		t.Fatalf("command %q not wrapped in s:...\\r\\n", cmd)
	}
	raw, err := base64.StdEncoding.DecodeString(cmd[2 : len(cmd)-2])
	if err != nil {
		t.Fatalf("command payload is not valid base64: %v", err)
	}
	return raw
}

func TestEncodeSetTemperature(t *testing.T) {
	tests := []struct {
		name        string
		rf          string
		roomID      uint8
		mode        Mode
		temperature float64
		until       time.Time
		wantErr     bool
		verify      func(t *testing.T, raw []byte)
	}{
		{
			name:        "manual 22 degrees",
			rf:          "0fc380",
			roomID:      1,
			mode:        ModeManual,
			temperature: 22.0,
			verify: func(t *testing.T, raw []byte) {
				if len(raw) != 13 {
					t.Fatalf("payload length = %d, want 13", len(raw))
				}
				if !bytes.Equal(raw[:6], []byte{0x00, 0x04, 0x40, 0x00, 0x00, 0x00}) {
					t.Errorf("prefix = % x, want 00 04 40 00 00 00", raw[:6])
				}
				if !bytes.Equal(raw[6:9], []byte{0x0f, 0xc3, 0x80}) {
					t.Errorf("rf = % x, want 0f c3 80", raw[6:9])
				}
				if raw[9] != 1 {
					t.Errorf("room = %d, want 1", raw[9])
				}
				// Manual mode (01) in the top bits, 44 half degrees below.
				if raw[10] != 0x6c {
					t.Errorf("temperature byte = 0x%02x, want 0x6c", raw[10])
				}
				if !bytes.Equal(raw[11:], []byte{0, 0, 0}) {
					t.Errorf("until bytes = % x, want zeros", raw[11:])
				}
			},
		},
		{
			name:        "auto mode zeroes the temperature byte",
			rf:          "0fc380",
			roomID:      1,
			mode:        ModeAuto,
			temperature: 21.5, // ignored, the schedule takes over
			verify: func(t *testing.T, raw []byte) {
				if raw[10] != 0x00 {
					t.Errorf("temperature byte = 0x%02x, want 0x00", raw[10])
				}
			},
		},
		{
			name:        "boost mode",
			rf:          "0fc380",
			roomID:      2,
			mode:        ModeBoost,
			temperature: 30.5,
			verify: func(t *testing.T, raw []byte) {
				if raw[10] != 0xc0|61 {
					t.Errorf("temperature byte = 0x%02x, want 0x%02x", raw[10], 0xc0|61)
				}
			},
		},
		{
			name:        "room zero addresses all rooms",
			rf:          "0fc380",
			roomID:      0,
			mode:        ModeManual,
			temperature: 18.0,
			verify: func(t *testing.T, raw []byte) {
				if raw[9] != 0 {
					t.Errorf("room = %d, want 0", raw[9])
				}
			},
		},
		{
			name:        "vacation until date and time",
			rf:          "0fc380",
			roomID:      1,
			mode:        ModeVacation,
			temperature: 16.0,
			until:       time.Date(2011, time.August, 29, 2, 0, 0, 0, time.UTC),
			verify: func(t *testing.T, raw []byte) {
				if raw[10] != 0x80|32 {
					t.Errorf("temperature byte = 0x%02x, want 0x%02x", raw[10], 0x80|32)
				}
				// month 8: high 3 bits 100, low bit 0; day 29; year-2000 11.
				if raw[11] != 0x9d || raw[12] != 0x0b {
					t.Errorf("date word = %02x %02x, want 9d 0b", raw[11], raw[12])
				}
				if raw[13] != 4 {
					t.Errorf("time byte = %d, want 4 half hours", raw[13])
				}
			},
		},
		{
			name:        "vacation half hour rounding",
			rf:          "0fc380",
			roomID:      1,
			mode:        ModeVacation,
			temperature: 16.0,
			until:       time.Date(2012, time.January, 1, 23, 30, 0, 0, time.UTC),
			verify: func(t *testing.T, raw []byte) {
				if raw[13] != 47 {
					t.Errorf("time byte = %d, want 47", raw[13])
				}
			},
		},
		{
			name:        "vacation without until",
			rf:          "0fc380",
			roomID:      1,
			mode:        ModeVacation,
			temperature: 16.0,
			wantErr:     true,
		},
		{
			name:        "invalid rf address",
			rf:          "0fc3",
			roomID:      1,
			mode:        ModeManual,
			temperature: 20.0,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := EncodeSetTemperature(tt.rf, tt.roomID, tt.mode, tt.temperature, tt.until)

			if (err != nil) != tt.wantErr {
				t.Fatalf("EncodeSetTemperature() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.verify != nil {
				tt.verify(t, decodeCommand(t, cmd))
			}
		})
	}
}

func TestEncodeSetTemperature_HalfDegreeSweep(t *testing.T) {
	// Every encodable manual temperature must survive the trip through the
	// 6-bit half degree encoding.
	for temp := 4.5; temp <= 30.5; temp += 0.5 {
		cmd, err := EncodeSetTemperature("0fc380", 1, ModeManual, temp, time.Time{})
		if err != nil {
			t.Fatalf("EncodeSetTemperature(%v) error = %v", temp, err)
		}
		raw := decodeCommand(t, cmd)

		if mode := Mode(raw[10] >> 6); mode != ModeManual {
			t.Errorf("temp %v: mode bits = %v, want MANUAL", temp, mode)
		}
		if got := float64(raw[10]&0x3F) / 2; got != temp {
			t.Errorf("temp %v: decoded back as %v", temp, got)
		}
	}
}

func TestEncodeSetDayProgram(t *testing.T) {
	tests := []struct {
		name         string
		rf           string
		roomID       uint8
		weekday      int
		temperatures []float64
		times        []string
		wantErr      bool
		verify       func(t *testing.T, raw []byte)
	}{
		{
			name:         "monday with collapsed runs",
			rf:           "0fc380",
			roomID:       1,
			weekday:      0, // Monday
			temperatures: []float64{17, 17, 21, 17},
			times:        []string{"06:00", "09:00", "22:00", "00:00"},
			verify: func(t *testing.T, raw []byte) {
				if !bytes.Equal(raw[:6], []byte{0x00, 0x04, 0x10, 0x00, 0x00, 0x00}) {
					t.Errorf("prefix = % x, want 00 04 10 00 00 00", raw[:6])
				}
				if !bytes.Equal(raw[6:9], []byte{0x0f, 0xc3, 0x80}) {
					t.Errorf("rf = % x, want 0f c3 80", raw[6:9])
				}
				if raw[9] != 1 {
					t.Errorf("room = %d, want 1", raw[9])
				}
				// Monday is wire day code 2, carried in the top 3 bits.
				if raw[10] != 2<<5 {
					t.Errorf("day byte = 0x%02x, want 0x%02x", raw[10], 2<<5)
				}

				// The leading 17,17 run collapses into its last entry, so
				// three set-point words remain: 17 °C to 09:00, 21 °C to
				// 22:00, 17 °C to midnight.
				words := raw[11:]
				want := []uint16{
					packSetpointWord(17, 540),
					packSetpointWord(21, 1320),
					packSetpointWord(17, 1440),
				}
				if len(words) != 2*len(want) {
					t.Fatalf("set-point section = %d bytes, want %d", len(words), 2*len(want))
				}
				for i, w := range want {
					got := uint16(words[i*2])<<8 | uint16(words[i*2+1])
					if got != w {
						t.Errorf("word %d = 0x%04x, want 0x%04x", i, got, w)
					}
				}
			},
		},
		{
			name:         "saturday day code is zero",
			rf:           "0fc380",
			roomID:       1,
			weekday:      5, // Saturday
			temperatures: []float64{20},
			times:        []string{"00:00"},
			verify: func(t *testing.T, raw []byte) {
				if raw[10] != 0 {
					t.Errorf("day byte = 0x%02x, want 0x00", raw[10])
				}
			},
		},
		{
			name:         "sunday day code",
			rf:           "0fc380",
			roomID:       1,
			weekday:      6, // Sunday
			temperatures: []float64{20},
			times:        []string{"00:00"},
			verify: func(t *testing.T, raw []byte) {
				if raw[10] != 1<<5 {
					t.Errorf("day byte = 0x%02x, want 0x%02x", raw[10], 1<<5)
				}
			},
		},
		{
			name:    "overlong schedule keeps first six and last",
			rf:      "0fc380",
			roomID:  1,
			weekday: 0,
			temperatures: []float64{
				16, 17, 18, 19, 20, 21, 22, 23, 24, 25,
			},
			times: []string{
				"01:00", "02:00", "03:00", "04:00", "05:00",
				"06:00", "07:00", "08:00", "09:00", "00:00",
			},
			verify: func(t *testing.T, raw []byte) {
				words := raw[11:]
				if len(words) != 2*maxDayProgramSetpoints {
					t.Fatalf("set-point section = %d bytes, want %d", len(words), 2*maxDayProgramSetpoints)
				}
				// Sixth kept word is 21 °C to 06:00, the seventh is the
				// final 25 °C to midnight.
				gotSixth := uint16(words[10])<<8 | uint16(words[11])
				if want := packSetpointWord(21, 360); gotSixth != want {
					t.Errorf("word 5 = 0x%04x, want 0x%04x", gotSixth, want)
				}
				gotLast := uint16(words[12])<<8 | uint16(words[13])
				if want := packSetpointWord(25, 1440); gotLast != want {
					t.Errorf("word 6 = 0x%04x, want 0x%04x", gotLast, want)
				}
			},
		},
		{
			name:         "weekday out of range",
			rf:           "0fc380",
			roomID:       1,
			weekday:      7,
			temperatures: []float64{20},
			times:        []string{"00:00"},
			wantErr:      true,
		},
		{
			name:         "mismatched lengths",
			rf:           "0fc380",
			roomID:       1,
			weekday:      0,
			temperatures: []float64{20, 21},
			times:        []string{"00:00"},
			wantErr:      true,
		},
		{
			name:         "empty schedule",
			rf:           "0fc380",
			roomID:       1,
			weekday:      0,
			temperatures: nil,
			times:        nil,
			wantErr:      true,
		},
		{
			name:         "invalid time of day",
			rf:           "0fc380",
			roomID:       1,
			weekday:      0,
			temperatures: []float64{20},
			times:        []string{"25:99"},
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := EncodeSetDayProgram(tt.rf, tt.roomID, tt.weekday, tt.temperatures, tt.times)

			if (err != nil) != tt.wantErr {
				t.Fatalf("EncodeSetDayProgram() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.verify != nil {
				tt.verify(t, decodeCommand(t, cmd))
			}
		})
	}
}

// TestDayProgramRoundTrip checks that an encoded day program decodes back to
// the same set-points through the configuration decoder's day block logic.
func TestDayProgramRoundTrip(t *testing.T) {
	temperatures := []float64{17, 17, 21, 17}
	times := []string{"06:00", "09:00", "22:00", "00:00"}

	cmd, err := EncodeSetDayProgram("0fc380", 1, 0, temperatures, times)
	if err != nil {
		t.Fatalf("EncodeSetDayProgram() error = %v", err)
	}
	raw := decodeCommand(t, cmd)

	// Rebuild a full day block from the encoded words plus firmware-style
	// filler and push it back through the decoder.
	block := make([]byte, programDayLen)
	words := raw[11:]
	copy(block, words)
	for i := len(words); i < programDayLen; i += 2 {
		block[i] = words[len(words)-2]
		block[i+1] = words[len(words)-1]
	}

	got := parseDayProgram(block)
	want := []Setpoint{
		{Temperature: 17, UntilMinutes: 540},
		{Temperature: 21, UntilMinutes: 1320},
		{Temperature: 17, UntilMinutes: 1440},
	}
	if len(got) != len(want) {
		t.Fatalf("decoded %d set-points, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("set-point %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestPollCommands(t *testing.T) {
	tests := []struct {
		name string
		cmd  string
		want string
	}{
		{"hello", CommandHello, "h:\r\n"},
		{"device list", CommandDeviceList, "l:\r\n"},
		{"metadata", CommandMetadata, "m:\r\n"},
		{"quit", CommandQuit, "q:\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.cmd != tt.want {
				t.Errorf("command = %q, want %q", tt.cmd, tt.want)
			}
		})
	}
}

func BenchmarkEncodeSetTemperature(b *testing.B) {
	for i := 0; i < b.N; i++ {
		EncodeSetTemperature("0fc380", 1, ModeManual, 21.5, time.Time{})
	}
}

func BenchmarkEncodeSetDayProgram(b *testing.B) {
	temperatures := []float64{17, 21, 17}
	times := []string{"06:00", "22:00", "00:00"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		EncodeSetDayProgram("0fc380", 1, 0, temperatures, times)
	}
}
