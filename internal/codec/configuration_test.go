package codec

import (
	"encoding/base64"
	"encoding/binary"
	"reflect"
	"testing"
)

// configBlob builds the fixed-field section of a C-message payload for a
// device of the given type, using a representative set of temperatures.
func configBlob(devType DeviceType, withProgram bool) []byte {
	size := cfgOffMaxValve + 1
	if withProgram {
		size = cfgOffProgram + programLen
	}
	blob := make([]byte, size)

	blob[0] = byte(size)
	copy(blob[1:4], []byte{0x0f, 0xc3, 0x80})
	blob[cfgOffDeviceType] = byte(devType)
	copy(blob[cfgOffSerial:], "IEQ0109125")

	blob[cfgOffComfort] = 42     // 21.0
	blob[cfgOffEco] = 34         // 17.0
	blob[cfgOffMaxSetpoint] = 61 // 30.5
	blob[cfgOffMinSetpoint] = 9  // 4.5
	blob[cfgOffTempOffset] = 7   // 0.0
	blob[cfgOffWindowTemp] = 24  // 12.0
	blob[cfgOffWindowDur] = 3    // 15 minutes
	blob[cfgOffBoost] = 7<<5 | 16
	blob[cfgOffDecalc] = 1<<5 | 12

	if withProgram {
		// Saturday: 17 °C to 06:00, 21 °C to 22:00, 17 °C to midnight,
		// then firmware filler repeating the last word.
		day := blob[cfgOffProgram : cfgOffProgram+programDayLen]
		writeSetpointWords(day, []Setpoint{
			{Temperature: 17, UntilMinutes: 360},
			{Temperature: 21, UntilMinutes: 1320},
			{Temperature: 17, UntilMinutes: 1440},
		})
		// Remaining days: constant 16 °C.
		for d := 1; d < programDays; d++ {
			day := blob[cfgOffProgram+d*programDayLen : cfgOffProgram+(d+1)*programDayLen]
			writeSetpointWords(day, []Setpoint{{Temperature: 16, UntilMinutes: 1440}})
		}
	}
	return blob
}

// writeSetpointWords packs set-points into a 26-byte day block, padding the
// tail with copies of the last word the way the firmware does.
func writeSetpointWords(block []byte, setpoints []Setpoint) {
	var last uint16
	for i := 0; i < setpointsPerDay; i++ {
		if i < len(setpoints) {
			last = packSetpointWord(setpoints[i].Temperature, setpoints[i].UntilMinutes)
		}
		binary.BigEndian.PutUint16(block[i*2:i*2+2], last)
	}
}

func configPayload(blob []byte) string {
	return "0fc380," + base64.StdEncoding.EncodeToString(blob) + "\r\n"
}

func TestParseConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
		verify  func(t *testing.T, c *DeviceConfig)
	}{
		{
			name:    "thermostat with week program",
			payload: configPayload(configBlob(DeviceThermostat, true)),
			verify: func(t *testing.T, c *DeviceConfig) {
				if c.RFAddress != "0fc380" {
					t.Errorf("rf = %q, want 0fc380", c.RFAddress)
				}
				if c.DeviceType != DeviceThermostat {
					t.Errorf("type = %v, want thermostat", c.DeviceType)
				}
				if c.SerialNumber != "IEQ0109125" {
					t.Errorf("serial = %q, want IEQ0109125", c.SerialNumber)
				}
				if c.ComfortTemperature != 21.0 {
					t.Errorf("comfort = %v, want 21.0", c.ComfortTemperature)
				}
				if c.EcoTemperature != 17.0 {
					t.Errorf("eco = %v, want 17.0", c.EcoTemperature)
				}
				if c.MaxSetpointTemperature != 30.5 || c.MinSetpointTemperature != 4.5 {
					t.Errorf("setpoint range = %v..%v, want 4.5..30.5",
						c.MinSetpointTemperature, c.MaxSetpointTemperature)
				}
				if c.TemperatureOffset != 0.0 {
					t.Errorf("offset = %v, want 0.0", c.TemperatureOffset)
				}
				if c.WindowOpenTemperature != 12.0 || c.WindowOpenDuration != 15 {
					t.Errorf("window = %v °C for %d min, want 12.0 for 15",
						c.WindowOpenTemperature, c.WindowOpenDuration)
				}
				if c.BoostDuration != 30 || c.BoostValve != 80 {
					t.Errorf("boost = %d min at %d%%, want 30 at 80", c.BoostDuration, c.BoostValve)
				}
				if c.DecalcificationDay != 1 || c.DecalcificationHour != 12 {
					t.Errorf("decalc = day %d hour %d, want day 1 hour 12",
						c.DecalcificationDay, c.DecalcificationHour)
				}

				if c.WeekProgram == nil {
					t.Fatal("week program is nil")
				}
				wantSaturday := []Setpoint{
					{Temperature: 17, UntilMinutes: 360},
					{Temperature: 21, UntilMinutes: 1320},
					{Temperature: 17, UntilMinutes: 1440},
				}
				if !reflect.DeepEqual(c.WeekProgram[0], wantSaturday) {
					t.Errorf("saturday = %v, want %v", c.WeekProgram[0], wantSaturday)
				}
				for d := 1; d < programDays; d++ {
					want := []Setpoint{{Temperature: 16, UntilMinutes: 1440}}
					if !reflect.DeepEqual(c.WeekProgram[d], want) {
						t.Errorf("%s = %v, want %v", DayName(d), c.WeekProgram[d], want)
					}
				}
			},
		},
		{
			name:    "short payload keeps fixed fields, drops program",
			payload: configPayload(configBlob(DeviceThermostat, false)),
			verify: func(t *testing.T, c *DeviceConfig) {
				if c.WeekProgram != nil {
					t.Errorf("week program = %v, want nil", c.WeekProgram)
				}
				if c.ComfortTemperature != 21.0 {
					t.Errorf("comfort = %v, want 21.0", c.ComfortTemperature)
				}
			},
		},
		{
			name: "truncated program section drops program only",
			payload: configPayload(
				configBlob(DeviceThermostat, true)[:cfgOffProgram+programLen-1]),
			verify: func(t *testing.T, c *DeviceConfig) {
				if c.WeekProgram != nil {
					t.Error("week program decoded from truncated section")
				}
				if c.SerialNumber != "IEQ0109125" {
					t.Errorf("serial = %q, want IEQ0109125", c.SerialNumber)
				}
			},
		},
		{
			name:    "push button never carries a program",
			payload: configPayload(configBlob(DevicePushButton, true)),
			verify: func(t *testing.T, c *DeviceConfig) {
				if c.DeviceType != DevicePushButton {
					t.Errorf("type = %v, want push button", c.DeviceType)
				}
				if c.WeekProgram != nil {
					t.Error("push button has a week program")
				}
			},
		},
		{
			name:    "missing base64 field",
			payload: "0fc380\r\n",
			wantErr: true,
		},
		{
			name:    "bad base64",
			payload: "0fc380,!!!\r\n",
			wantErr: true,
		},
		{
			name:    "payload shorter than fixed fields",
			payload: configPayload(make([]byte, cfgOffMaxValve)),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Parse(CmdConfiguration, tt.payload)

			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !IsDecodeError(err) {
					t.Errorf("error %v is not a DecodeError", err)
				}
				return
			}
			if tt.verify != nil {
				tt.verify(t, msg.(*DeviceConfig))
			}
		})
	}
}

func TestBoostDurationMinutes(t *testing.T) {
	tests := []struct {
		code byte
		want int
	}{
		{0, 0},
		{1, 5},
		{4, 20},
		{6, 30},
		{7, 30}, // code 7 is a special case, not 35
	}

	for _, tt := range tests {
		if got := boostDurationMinutes(tt.code); got != tt.want {
			t.Errorf("boostDurationMinutes(%d) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestParseDayProgram_FillerSkipped(t *testing.T) {
	block := make([]byte, programDayLen)
	writeSetpointWords(block, []Setpoint{
		{Temperature: 17, UntilMinutes: 360},
		{Temperature: 21, UntilMinutes: 1440},
	})

	got := parseDayProgram(block)
	want := []Setpoint{
		{Temperature: 17, UntilMinutes: 360},
		{Temperature: 21, UntilMinutes: 1440},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("day program = %v, want %v", got, want)
	}
}

func TestParseDayProgram_AllZero(t *testing.T) {
	block := make([]byte, programDayLen)
	if got := parseDayProgram(block); len(got) != 1 {
		// A zeroed block decodes to the single 0 °C at 00:00 word; the
		// repeats are filler.
		t.Errorf("day program = %v, want one entry", got)
	}
}

func BenchmarkParseConfiguration(b *testing.B) {
	payload := configPayload(configBlob(DeviceThermostat, true))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Parse(CmdConfiguration, payload)
	}
}
