package s1

import "strings"

// Characteristic identifies a GATT characteristic on the S1 by its UUID.
//
// The set of characteristics is closed: the appliance firmware exposes
// exactly these six, and the decode dispatch below only accepts them.
type Characteristic string

// Known S1 characteristics.
const (
	// CharTimerState is the schedule timer switch (also reflects machine
	// power when the schedule is driving the boiler). 1 byte, read/write.
	CharTimerState Characteristic = "acab0002-67f5-479e-8711-b3b99198ce6c"

	// CharSchedule is the 84-byte weekly brew schedule. Read/write.
	CharSchedule Characteristic = "acab0003-67f5-479e-8711-b3b99198ce6c"

	// CharLastSyncTime is the last clock synchronisation time. 7 bytes,
	// read/write. The firmware expects it slightly behind the clock.
	CharLastSyncTime Characteristic = "acab0004-67f5-479e-8711-b3b99198ce6c"

	// CharCurrentTime is the machine's wall clock. 7 bytes, read/write.
	CharCurrentTime Characteristic = "acab0005-67f5-479e-8711-b3b99198ce6c"

	// CharBrewBoiler is brew boiler telemetry. 4 bytes, read-only.
	CharBrewBoiler Characteristic = "acab0002-77f5-479e-8711-b3b99198ce6c"

	// CharSteamBoiler is steam boiler telemetry. 4 bytes, read-only.
	CharSteamBoiler Characteristic = "acab0003-77f5-479e-8711-b3b99198ce6c"
)

// charInfo describes one entry in the characteristic table.
type charInfo struct {
	name     string
	writable bool
	decode   func(data []byte) (any, error)
}

// characteristics is the closed dispatch table for the S1's GATT surface.
// Adding firmware support for a new characteristic means adding a row here;
// there is no runtime registration.
var characteristics = map[Characteristic]charInfo{
	CharTimerState: {
		name:     "timer_state",
		writable: true,
		decode:   func(data []byte) (any, error) { return DecodeTimerState(data) },
	},
	CharSchedule: {
		name:     "schedule",
		writable: true,
		decode:   func(data []byte) (any, error) { return DecodeSchedule(data) },
	},
	CharLastSyncTime: {
		name:     "last_sync_time",
		writable: true,
		decode:   func(data []byte) (any, error) { return DecodeTime(data) },
	},
	CharCurrentTime: {
		name:     "current_time",
		writable: true,
		decode:   func(data []byte) (any, error) { return DecodeTime(data) },
	},
	CharBrewBoiler: {
		name:     "brew_boiler",
		writable: false,
		decode:   func(data []byte) (any, error) { return DecodeBoiler(data) },
	},
	CharSteamBoiler: {
		name:     "steam_boiler",
		writable: false,
		decode:   func(data []byte) (any, error) { return DecodeBoiler(data) },
	},
}

// Known reports whether the characteristic is in the S1's table.
func (c Characteristic) Known() bool {
	_, ok := characteristics[normalise(c)]
	return ok
}

// Writable reports whether the characteristic accepts writes.
// Unknown characteristics report false.
func (c Characteristic) Writable() bool {
	info, ok := characteristics[normalise(c)]
	return ok && info.writable
}

// Name returns a short snake_case name for logging and metrics, or the
// raw UUID for unknown characteristics.
func (c Characteristic) Name() string {
	if info, ok := characteristics[normalise(c)]; ok {
		return info.name
	}
	return string(c)
}

// DecodeValue decodes a raw characteristic payload into its typed value:
// bool for the timer state, WeeklySchedule for the schedule, ApplianceTime
// for the clocks, and BoilerReading for the boilers.
//
// Returns ErrUnknownCharacteristic for IDs outside the table and
// ErrMalformedPayload for undersized payloads.
func DecodeValue(c Characteristic, data []byte) (any, error) {
	info, ok := characteristics[normalise(c)]
	if !ok {
		return nil, ErrUnknownCharacteristic
	}
	return info.decode(data)
}

// normalise lower-cases a characteristic UUID for table lookup.
// Peripheral stacks vary in the case they report UUIDs with.
func normalise(c Characteristic) Characteristic {
	return Characteristic(strings.ToLower(string(c)))
}
