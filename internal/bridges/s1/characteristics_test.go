package s1

import (
	"errors"
	"strings"
	"testing"
)

func TestCharacteristicTable(t *testing.T) {
	tests := []struct {
		name         string
		char         Characteristic
		wantName     string
		wantWritable bool
	}{
		{"timer state", CharTimerState, "timer_state", true},
		{"schedule", CharSchedule, "schedule", true},
		{"last sync time", CharLastSyncTime, "last_sync_time", true},
		{"current time", CharCurrentTime, "current_time", true},
		{"brew boiler", CharBrewBoiler, "brew_boiler", false},
		{"steam boiler", CharSteamBoiler, "steam_boiler", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.char.Known() {
				t.Fatalf("Known() = false for %s", tt.char)
			}
			if got := tt.char.Name(); got != tt.wantName {
				t.Errorf("Name() = %q, want %q", got, tt.wantName)
			}
			if got := tt.char.Writable(); got != tt.wantWritable {
				t.Errorf("Writable() = %v, want %v", got, tt.wantWritable)
			}
		})
	}
}

func TestCharacteristicCaseInsensitive(t *testing.T) {
	upper := Characteristic(strings.ToUpper(string(CharBrewBoiler)))

	if !upper.Known() {
		t.Error("Known() = false for upper-cased UUID")
	}
	if got := upper.Name(); got != "brew_boiler" {
		t.Errorf("Name() = %q, want brew_boiler", got)
	}
}

func TestCharacteristicUnknown(t *testing.T) {
	unknown := Characteristic("ffff0001-67f5-479e-8711-b3b99198ce6c")

	if unknown.Known() {
		t.Error("Known() = true for unknown UUID")
	}
	if unknown.Writable() {
		t.Error("Writable() = true for unknown UUID")
	}
	if got := unknown.Name(); got != string(unknown) {
		t.Errorf("Name() = %q, want raw UUID", got)
	}
}

func TestDecodeValue(t *testing.T) {
	t.Run("timer state decodes to bool", func(t *testing.T) {
		v, err := DecodeValue(CharTimerState, []byte{0x01})
		if err != nil {
			t.Fatalf("DecodeValue() error = %v", err)
		}
		if enabled, ok := v.(bool); !ok || !enabled {
			t.Errorf("DecodeValue() = %v (%T), want true (bool)", v, v)
		}
	})

	t.Run("boiler decodes to reading", func(t *testing.T) {
		v, err := DecodeValue(CharBrewBoiler, []byte{0xB6, 0x03, 0x00, 0x00})
		if err != nil {
			t.Fatalf("DecodeValue() error = %v", err)
		}
		reading, ok := v.(BoilerReading)
		if !ok {
			t.Fatalf("DecodeValue() type = %T, want BoilerReading", v)
		}
		if reading.Temperature != 95.0 {
			t.Errorf("temperature = %v, want 95.0", reading.Temperature)
		}
	})

	t.Run("clock decodes to appliance time", func(t *testing.T) {
		v, err := DecodeValue(CharCurrentTime, []byte{24, 1, 1, 0, 9, 5, 0})
		if err != nil {
			t.Fatalf("DecodeValue() error = %v", err)
		}
		if _, ok := v.(ApplianceTime); !ok {
			t.Errorf("DecodeValue() type = %T, want ApplianceTime", v)
		}
	})

	t.Run("schedule decodes to weekly schedule", func(t *testing.T) {
		v, err := DecodeValue(CharSchedule, make([]byte, schedulePayloadSize))
		if err != nil {
			t.Fatalf("DecodeValue() error = %v", err)
		}
		if _, ok := v.(WeeklySchedule); !ok {
			t.Errorf("DecodeValue() type = %T, want WeeklySchedule", v)
		}
	})

	t.Run("unknown characteristic rejected", func(t *testing.T) {
		_, err := DecodeValue("not-a-uuid", []byte{0x01})
		if !errors.Is(err, ErrUnknownCharacteristic) {
			t.Errorf("DecodeValue() error = %v, want ErrUnknownCharacteristic", err)
		}
	})

	t.Run("malformed payload surfaces", func(t *testing.T) {
		_, err := DecodeValue(CharBrewBoiler, []byte{0x01})
		if !errors.Is(err, ErrMalformedPayload) {
			t.Errorf("DecodeValue() error = %v, want ErrMalformedPayload", err)
		}
	})
}
