package s1

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Payload size constants for the fixed-width characteristic formats.
const (
	// timePayloadSize is the size of the clock characteristics.
	timePayloadSize = 7

	// boilerPayloadSize is the size of the boiler telemetry payload.
	boilerPayloadSize = 4

	// timerStatePayloadSize is the size of the timer switch payload.
	timerStatePayloadSize = 1

	// yearEpoch is the base year for the single-byte year field.
	yearEpoch = 2000

	// tempScale converts raw decidegrees to degrees Celsius.
	tempScale = 10.0
)

// Boiler status codes reported in byte 1 of the telemetry payload.
//
// Byte 1 is simultaneously the high byte of the little-endian temperature,
// so the "status" is really a coarse temperature band: raw values 512-767
// (51.2-76.7 C) read as heating and 768-1023 (76.8-102.3 C) as at
// temperature. The firmware relies on this overlap and so do we.
const (
	// BoilerStatusHeating indicates the boiler is actively heating.
	BoilerStatusHeating byte = 0x02

	// BoilerStatusAtTemperature indicates the boiler has reached its
	// operating temperature.
	BoilerStatusAtTemperature byte = 0x03
)

// ApplianceTime is the machine's representation of a wall-clock instant.
//
// The appliance has no time zone concept; values are whatever local time
// the controller last wrote. The Reserved byte (offset 3 on the wire) has
// unknown firmware meaning and is preserved through decode/encode.
type ApplianceTime struct {
	Year     int // full year, e.g. 2024
	Month    time.Month
	Day      int
	Hour     int
	Minute   int
	Second   int
	Reserved byte
}

// TimeFrom converts a time.Time into the appliance representation,
// discarding sub-second precision and location.
func TimeFrom(t time.Time) ApplianceTime {
	return ApplianceTime{
		Year:   t.Year(),
		Month:  t.Month(),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

// Time converts the appliance representation back to a time.Time in the
// given location (use time.Local for the controller's clock).
func (a ApplianceTime) Time(loc *time.Location) time.Time {
	return time.Date(a.Year, a.Month, a.Day, a.Hour, a.Minute, a.Second, 0, loc)
}

// String returns the instant in "YYYY-MM-DD HH:MM:SS" form.
func (a ApplianceTime) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d",
		a.Year, a.Month, a.Day, a.Hour, a.Minute, a.Second)
}

// EncodeTime encodes an ApplianceTime to the 7-byte wire format:
//
//	Byte 0: year - 2000
//	Byte 1: month (1-12)
//	Byte 2: day of month
//	Byte 3: reserved (preserved as-is)
//	Byte 4: hour
//	Byte 5: minute
//	Byte 6: second
func EncodeTime(a ApplianceTime) []byte {
	return []byte{
		byte(a.Year - yearEpoch),
		byte(a.Month),
		byte(a.Day),
		a.Reserved,
		byte(a.Hour),
		byte(a.Minute),
		byte(a.Second),
	}
}

// DecodeTime decodes the 7-byte clock payload.
//
// Payloads longer than 7 bytes are accepted and the extra bytes ignored,
// matching the appliance's read behaviour.
//
// Returns:
//   - ApplianceTime: the decoded instant
//   - error: ErrMalformedPayload if fewer than 7 bytes
func DecodeTime(data []byte) (ApplianceTime, error) {
	if len(data) < timePayloadSize {
		return ApplianceTime{}, fmt.Errorf("%w: time payload %d bytes, need %d",
			ErrMalformedPayload, len(data), timePayloadSize)
	}
	return ApplianceTime{
		Year:     int(data[0]) + yearEpoch,
		Month:    time.Month(data[1]),
		Day:      int(data[2]),
		Reserved: data[3],
		Hour:     int(data[4]),
		Minute:   int(data[5]),
		Second:   int(data[6]),
	}, nil
}

// BoilerReading is one boiler telemetry sample.
type BoilerReading struct {
	// Temperature is the boiler temperature in degrees Celsius,
	// decoded from little-endian decidegrees.
	Temperature float64

	// StatusCode is the raw status byte (see the status constants).
	// It is also the high byte of the raw temperature; this aliasing
	// is appliance behaviour and is preserved deliberately.
	StatusCode byte
}

// StatusText maps the status code to the firmware's display strings.
func (r BoilerReading) StatusText() string {
	switch r.StatusCode {
	case BoilerStatusAtTemperature:
		return "at temperature"
	case BoilerStatusHeating:
		return "heating"
	default:
		return "idle"
	}
}

// DecodeBoiler decodes the 4-byte boiler telemetry payload:
//
//	Byte 0-1: temperature in decidegrees Celsius (little-endian uint16)
//	Byte 1:   status code (aliases the temperature high byte)
//	Byte 2-3: unused
//
// There is no encoder; the boiler characteristics are read-only and
// writes to them fail with ErrUnsupportedOperation.
//
// Returns:
//   - BoilerReading: the decoded sample
//   - error: ErrMalformedPayload if fewer than 4 bytes
func DecodeBoiler(data []byte) (BoilerReading, error) {
	if len(data) < boilerPayloadSize {
		return BoilerReading{}, fmt.Errorf("%w: boiler payload %d bytes, need %d",
			ErrMalformedPayload, len(data), boilerPayloadSize)
	}

	raw := binary.LittleEndian.Uint16(data[0:2])
	return BoilerReading{
		Temperature: float64(raw) / tempScale,
		StatusCode:  data[1],
	}, nil
}

// EncodeTimerState encodes the schedule timer switch: 0x01 enabled,
// 0x00 disabled.
func EncodeTimerState(enabled bool) []byte {
	if enabled {
		return []byte{0x01}
	}
	return []byte{0x00}
}

// DecodeTimerState decodes the timer switch payload. Any non-zero first
// byte other than 0x01 reads as disabled, matching the firmware.
//
// Returns:
//   - bool: true if the schedule timer is enabled
//   - error: ErrMalformedPayload if the payload is empty
func DecodeTimerState(data []byte) (bool, error) {
	if len(data) < timerStatePayloadSize {
		return false, fmt.Errorf("%w: timer state payload empty", ErrMalformedPayload)
	}
	return data[0] == 0x01, nil
}
