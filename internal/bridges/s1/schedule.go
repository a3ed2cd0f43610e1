package s1

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Schedule wire format constants.
const (
	// schedulePayloadSize is the full weekly schedule payload.
	schedulePayloadSize = daysPerWeek * slotsPerDay * slotSize

	// daysPerWeek is the number of day blocks, Monday first.
	daysPerWeek = 7

	// slotsPerDay is the number of slot records per day block.
	slotsPerDay = 3

	// slotSize is the size of one slot record.
	slotSize = 4

	// boilerOnMask is the boiler flag in the start-hour byte.
	boilerOnMask = 0x80

	// startHourMask extracts the start hour from the flag byte.
	startHourMask = 0x7F
)

// dayNames are the schedule day names in wire order (Monday first).
var dayNames = [daysPerWeek]string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// ScheduleSlot is one brew window within a day.
//
// A slot with every field zero is "absent" on the wire; decoded schedules
// never contain such slots.
type ScheduleSlot struct {
	StartHour   int
	StartMinute int
	EndHour     int
	EndMinute   int

	// BoilerOn requests the boiler be heated during the window.
	BoilerOn bool
}

// IsZero reports whether the slot is the absent (all-zero) slot.
func (s ScheduleSlot) IsZero() bool {
	return s == ScheduleSlot{}
}

// String returns the slot as "09:00 - 10:00" with a boiler suffix.
func (s ScheduleSlot) String() string {
	str := fmt.Sprintf("%02d:%02d - %02d:%02d",
		s.StartHour, s.StartMinute, s.EndHour, s.EndMinute)
	if s.BoilerOn {
		str += " (boiler on)"
	}
	return str
}

// WeeklySchedule is the full 7-day brew schedule, Monday first.
//
// Each day holds up to three slots. Days may be empty; slots past the
// third are silently dropped on encode, matching the appliance's fixed
// slot table.
type WeeklySchedule struct {
	Days [daysPerWeek][]ScheduleSlot
}

// Equal reports whether two schedules describe the same slot sets.
func (w WeeklySchedule) Equal(other WeeklySchedule) bool {
	for day := range w.Days {
		if len(w.Days[day]) != len(other.Days[day]) {
			return false
		}
		for i := range w.Days[day] {
			if w.Days[day][i] != other.Days[day][i] {
				return false
			}
		}
	}
	return true
}

// EncodeSchedule encodes a WeeklySchedule to the 84-byte wire format.
//
// Each slot record is:
//
//	Byte 0: end minute
//	Byte 1: end hour
//	Byte 2: start minute
//	Byte 3: boiler flag (bit 7) | start hour (bits 0-6)
//
// Unused slot records are zero-filled. More than three slots in a day
// are truncated without error.
func EncodeSchedule(w WeeklySchedule) []byte {
	buf := make([]byte, schedulePayloadSize)

	for day := 0; day < daysPerWeek; day++ {
		slots := w.Days[day]
		for slot := 0; slot < slotsPerDay; slot++ {
			if slot >= len(slots) {
				continue // zero-filled = absent
			}
			s := slots[slot]
			offset := (day*slotsPerDay + slot) * slotSize

			buf[offset] = byte(s.EndMinute)
			buf[offset+1] = byte(s.EndHour)
			buf[offset+2] = byte(s.StartMinute)

			flagByte := byte(s.StartHour) & startHourMask
			if s.BoilerOn {
				flagByte |= boilerOnMask
			}
			buf[offset+3] = flagByte
		}
	}

	return buf
}

// DecodeSchedule decodes the 84-byte weekly schedule payload.
//
// All-zero slot records are skipped, so decoded days contain only the
// slots actually set. Payloads longer than 84 bytes are accepted with
// the extra bytes ignored.
//
// Returns:
//   - WeeklySchedule: the decoded schedule
//   - error: ErrMalformedPayload if fewer than 84 bytes
func DecodeSchedule(data []byte) (WeeklySchedule, error) {
	if len(data) < schedulePayloadSize {
		return WeeklySchedule{}, fmt.Errorf("%w: schedule payload %d bytes, need %d",
			ErrMalformedPayload, len(data), schedulePayloadSize)
	}

	var w WeeklySchedule
	for day := 0; day < daysPerWeek; day++ {
		for slot := 0; slot < slotsPerDay; slot++ {
			offset := (day*slotsPerDay + slot) * slotSize
			record := data[offset : offset+slotSize]

			if record[0] == 0 && record[1] == 0 && record[2] == 0 && record[3] == 0 {
				continue
			}

			w.Days[day] = append(w.Days[day], ScheduleSlot{
				EndMinute:   int(record[0]),
				EndHour:     int(record[1]),
				StartMinute: int(record[2]),
				StartHour:   int(record[3] & startHourMask),
				BoilerOn:    record[3]&boilerOnMask != 0,
			})
		}
	}

	return w, nil
}

// scheduleSlotJSON is the external representation of a slot.
type scheduleSlotJSON struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	BoilerOn bool   `json:"boiler_on"`
}

// MarshalJSON renders the schedule as a day-name keyed object with
// "HH:MM" slot times. Empty days are omitted:
//
//	{"monday":[{"start":"09:00","end":"10:00","boiler_on":true}]}
func (w WeeklySchedule) MarshalJSON() ([]byte, error) {
	out := make(map[string][]scheduleSlotJSON, daysPerWeek)
	for day, slots := range w.Days {
		if len(slots) == 0 {
			continue
		}
		external := make([]scheduleSlotJSON, 0, len(slots))
		for _, s := range slots {
			external = append(external, scheduleSlotJSON{
				Start:    fmt.Sprintf("%02d:%02d", s.StartHour, s.StartMinute),
				End:      fmt.Sprintf("%02d:%02d", s.EndHour, s.EndMinute),
				BoilerOn: s.BoilerOn,
			})
		}
		out[dayNames[day]] = external
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses the day-name keyed representation. Day names
// are matched case-insensitively ("monday" and "Monday" both work);
// missing days are left empty and unknown day names are rejected.
func (w *WeeklySchedule) UnmarshalJSON(data []byte) error {
	var raw map[string][]scheduleSlotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	var parsed WeeklySchedule
	for name, external := range raw {
		day, err := dayIndex(name)
		if err != nil {
			return err
		}
		for _, e := range external {
			startHour, startMinute, err := parseClock(e.Start)
			if err != nil {
				return err
			}
			endHour, endMinute, err := parseClock(e.End)
			if err != nil {
				return err
			}
			parsed.Days[day] = append(parsed.Days[day], ScheduleSlot{
				StartHour:   startHour,
				StartMinute: startMinute,
				EndHour:     endHour,
				EndMinute:   endMinute,
				BoilerOn:    e.BoilerOn,
			})
		}
	}

	*w = parsed
	return nil
}

// DayName returns the schedule day name for a wire-order index
// (0 = monday). Out-of-range indices return an empty string.
func DayName(day int) string {
	if day < 0 || day >= daysPerWeek {
		return ""
	}
	return dayNames[day]
}

// dayIndex maps a day name to its wire-order index. Matching is
// case-insensitive; clients written against the original firmware
// tooling send capitalized names.
func dayIndex(name string) (int, error) {
	lower := strings.ToLower(name)
	for i, n := range dayNames {
		if n == lower {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown day %q", ErrMalformedPayload, name)
}

// parseClock parses an "HH:MM" clock string with range validation.
func parseClock(s string) (hour, minute int, err error) {
	if _, err := fmt.Sscanf(s, "%02d:%02d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("%w: invalid clock %q", ErrMalformedPayload, s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: clock %q out of range", ErrMalformedPayload, s)
	}
	return hour, minute, nil
}
