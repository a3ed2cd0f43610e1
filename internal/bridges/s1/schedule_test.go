package s1

import (
	"encoding/json"
	"errors"
	"testing"
)

// ─── Wire encoding ─────────────────────────────────────────────────

func TestEncodeSchedule(t *testing.T) {
	t.Run("empty schedule is all zeros", func(t *testing.T) {
		got := EncodeSchedule(WeeklySchedule{})
		if len(got) != schedulePayloadSize {
			t.Fatalf("EncodeSchedule() length = %d, want %d", len(got), schedulePayloadSize)
		}
		for i, b := range got {
			if b != 0 {
				t.Fatalf("EncodeSchedule() byte %d = %02X, want 00", i, b)
			}
		}
	})

	t.Run("monday slot record layout", func(t *testing.T) {
		var w WeeklySchedule
		w.Days[0] = []ScheduleSlot{{
			StartHour: 9, StartMinute: 0, EndHour: 10, EndMinute: 0, BoilerOn: true,
		}}

		got := EncodeSchedule(w)
		// Record: [endMin, endHour, startMin, boilerFlag|startHour]
		want := []byte{0, 10, 0, 0x80 | 9}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("record byte %d = %02X, want %02X", i, got[i], want[i])
			}
		}
	})

	t.Run("sunday third slot offset", func(t *testing.T) {
		var w WeeklySchedule
		w.Days[6] = []ScheduleSlot{
			{StartHour: 6, EndHour: 7},
			{StartHour: 12, EndHour: 13},
			{StartHour: 18, StartMinute: 30, EndHour: 19, EndMinute: 45, BoilerOn: true},
		}

		got := EncodeSchedule(w)
		offset := (6*slotsPerDay + 2) * slotSize
		want := []byte{45, 19, 30, 0x80 | 18}
		for i := range want {
			if got[offset+i] != want[i] {
				t.Errorf("byte %d = %02X, want %02X", offset+i, got[offset+i], want[i])
			}
		}
	})

	t.Run("fourth slot truncated silently", func(t *testing.T) {
		var w WeeklySchedule
		w.Days[0] = []ScheduleSlot{
			{StartHour: 1, EndHour: 2},
			{StartHour: 3, EndHour: 4},
			{StartHour: 5, EndHour: 6},
			{StartHour: 7, EndHour: 8},
		}

		decoded, err := DecodeSchedule(EncodeSchedule(w))
		if err != nil {
			t.Fatalf("DecodeSchedule() error = %v", err)
		}
		if len(decoded.Days[0]) != slotsPerDay {
			t.Errorf("slots after round trip = %d, want %d", len(decoded.Days[0]), slotsPerDay)
		}
		if decoded.Days[0][2].StartHour != 5 {
			t.Errorf("third slot start = %d, want 5", decoded.Days[0][2].StartHour)
		}
	})
}

func TestDecodeSchedule(t *testing.T) {
	t.Run("all-zero records absent", func(t *testing.T) {
		data := make([]byte, schedulePayloadSize)
		got, err := DecodeSchedule(data)
		if err != nil {
			t.Fatalf("DecodeSchedule() error = %v", err)
		}
		for day := range got.Days {
			if len(got.Days[day]) != 0 {
				t.Errorf("day %d has %d slots, want 0", day, len(got.Days[day]))
			}
		}
	})

	t.Run("boiler flag extracted from start hour byte", func(t *testing.T) {
		data := make([]byte, schedulePayloadSize)
		copy(data[0:4], []byte{30, 8, 15, 0x80 | 7}) // monday 07:15-08:30 boiler on

		got, err := DecodeSchedule(data)
		if err != nil {
			t.Fatalf("DecodeSchedule() error = %v", err)
		}
		want := ScheduleSlot{StartHour: 7, StartMinute: 15, EndHour: 8, EndMinute: 30, BoilerOn: true}
		if len(got.Days[0]) != 1 || got.Days[0][0] != want {
			t.Errorf("monday = %+v, want [%+v]", got.Days[0], want)
		}
	})

	t.Run("short payload rejected", func(t *testing.T) {
		_, err := DecodeSchedule(make([]byte, schedulePayloadSize-1))
		if !errors.Is(err, ErrMalformedPayload) {
			t.Errorf("DecodeSchedule() error = %v, want ErrMalformedPayload", err)
		}
	})

	t.Run("extra bytes ignored", func(t *testing.T) {
		data := make([]byte, schedulePayloadSize+10)
		if _, err := DecodeSchedule(data); err != nil {
			t.Errorf("DecodeSchedule() error = %v", err)
		}
	})
}

func TestScheduleRoundTrip(t *testing.T) {
	var original WeeklySchedule
	original.Days[0] = []ScheduleSlot{
		{StartHour: 6, StartMinute: 30, EndHour: 8, EndMinute: 0, BoilerOn: true},
	}
	original.Days[2] = []ScheduleSlot{
		{StartHour: 7, EndHour: 9, BoilerOn: true},
		{StartHour: 17, StartMinute: 45, EndHour: 19, EndMinute: 15},
	}
	original.Days[6] = []ScheduleSlot{
		{StartHour: 9, EndHour: 11, EndMinute: 59, BoilerOn: true},
	}

	decoded, err := DecodeSchedule(EncodeSchedule(original))
	if err != nil {
		t.Fatalf("DecodeSchedule() error = %v", err)
	}
	if !decoded.Equal(original) {
		t.Errorf("round trip = %+v, want %+v", decoded, original)
	}
}

// ─── JSON representation ───────────────────────────────────────────

func TestScheduleJSON(t *testing.T) {
	t.Run("marshal omits empty days", func(t *testing.T) {
		var w WeeklySchedule
		w.Days[0] = []ScheduleSlot{{StartHour: 9, EndHour: 10, BoilerOn: true}}

		data, err := json.Marshal(w)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}

		var raw map[string][]scheduleSlotJSON
		if err := json.Unmarshal(data, &raw); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if len(raw) != 1 {
			t.Fatalf("marshalled days = %d, want 1", len(raw))
		}
		slots, ok := raw["monday"]
		if !ok || len(slots) != 1 {
			t.Fatalf("monday missing or wrong length: %v", raw)
		}
		if slots[0].Start != "09:00" || slots[0].End != "10:00" || !slots[0].BoilerOn {
			t.Errorf("monday slot = %+v", slots[0])
		}
	})

	t.Run("unmarshal round trip", func(t *testing.T) {
		var original WeeklySchedule
		original.Days[1] = []ScheduleSlot{
			{StartHour: 6, StartMinute: 15, EndHour: 7, EndMinute: 45, BoilerOn: true},
		}
		original.Days[5] = []ScheduleSlot{
			{StartHour: 10, EndHour: 12},
		}

		data, err := json.Marshal(original)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		var decoded WeeklySchedule
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if !decoded.Equal(original) {
			t.Errorf("round trip = %+v, want %+v", decoded, original)
		}
	})

	t.Run("capitalized day names accepted", func(t *testing.T) {
		var w WeeklySchedule
		payload := `{"Monday":[{"start":"07:30","end":"09:00","boiler_on":true}],"SATURDAY":[{"start":"10:00","end":"12:00"}]}`
		if err := json.Unmarshal([]byte(payload), &w); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		want := ScheduleSlot{StartHour: 7, StartMinute: 30, EndHour: 9, BoilerOn: true}
		if len(w.Days[0]) != 1 || w.Days[0][0] != want {
			t.Errorf("monday = %+v, want [%+v]", w.Days[0], want)
		}
		if len(w.Days[5]) != 1 {
			t.Errorf("saturday = %+v, want one slot", w.Days[5])
		}
	})

	t.Run("unknown day rejected", func(t *testing.T) {
		var w WeeklySchedule
		err := json.Unmarshal([]byte(`{"caturday":[]}`), &w)
		if !errors.Is(err, ErrMalformedPayload) {
			t.Errorf("Unmarshal() error = %v, want ErrMalformedPayload", err)
		}
	})

	t.Run("malformed clock rejected", func(t *testing.T) {
		var w WeeklySchedule
		err := json.Unmarshal([]byte(`{"monday":[{"start":"9am","end":"10:00"}]}`), &w)
		if !errors.Is(err, ErrMalformedPayload) {
			t.Errorf("Unmarshal() error = %v, want ErrMalformedPayload", err)
		}
	})

	t.Run("out of range clock rejected", func(t *testing.T) {
		var w WeeklySchedule
		err := json.Unmarshal([]byte(`{"monday":[{"start":"25:00","end":"26:00"}]}`), &w)
		if !errors.Is(err, ErrMalformedPayload) {
			t.Errorf("Unmarshal() error = %v, want ErrMalformedPayload", err)
		}
	})
}

func TestDayName(t *testing.T) {
	tests := []struct {
		day  int
		want string
	}{
		{0, "monday"},
		{6, "sunday"},
		{-1, ""},
		{7, ""},
	}

	for _, tt := range tests {
		if got := DayName(tt.day); got != tt.want {
			t.Errorf("DayName(%d) = %q, want %q", tt.day, got, tt.want)
		}
	}
}
