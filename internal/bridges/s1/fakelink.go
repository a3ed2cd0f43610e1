package s1

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"
)

// FakeLink simulation constants.
const (
	// fakeAmbientTemp is the resting temperature of a cold boiler.
	fakeAmbientTemp = 22.0

	// fakeBrewTargetTemp is where the simulated brew boiler settles.
	fakeBrewTargetTemp = 95.0

	// fakeSteamTargetTemp is where the simulated steam boiler settles.
	fakeSteamTargetTemp = 125.0

	// fakeWarmRate is the temperature gained per boiler read while
	// powered, and lost per read while off.
	fakeWarmRate = 1.5
)

// FakeLink is an in-memory appliance simulator implementing Link.
//
// It models the S1's observable behaviour closely enough to exercise the
// full bridge: a characteristic value table, read-only enforcement on the
// boiler characteristics, and the schedule-driven power latch that the
// power choreography exploits. Boiler temperatures step towards target on
// every read while powered and decay while off, so polling produces a
// plausible warming curve.
//
// Failure injection is available per characteristic for error-path tests.
//
// Thread Safety: all methods are safe for concurrent use.
type FakeLink struct {
	mu        sync.Mutex
	connected bool
	values    map[Characteristic][]byte

	// powered is the simulated machine power latch. The schedule timer
	// sets and clears it when the written clock moves inside/outside an
	// active slot, mirroring the firmware's scheduler.
	powered bool

	brewTemp  float64
	steamTemp float64

	// Failure injection.
	connectErr error
	readErr    map[Characteristic]error
	writeErr   map[Characteristic]error

	// writes journals every accepted write for assertions.
	writes []FakeWrite
}

// FakeWrite is one journalled write.
type FakeWrite struct {
	Characteristic Characteristic
	Data           []byte
}

// NewFakeLink creates a simulator seeded with a cold, idle machine:
// empty schedule, timer disabled, clock at 2024-01-01 00:00:00.
func NewFakeLink() *FakeLink {
	seed := TimeFrom(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return &FakeLink{
		values: map[Characteristic][]byte{
			CharTimerState:   EncodeTimerState(false),
			CharSchedule:     EncodeSchedule(WeeklySchedule{}),
			CharCurrentTime:  EncodeTime(seed),
			CharLastSyncTime: EncodeTime(seed),
		},
		brewTemp:  fakeAmbientTemp,
		steamTemp: fakeAmbientTemp,
		readErr:   make(map[Characteristic]error),
		writeErr:  make(map[Characteristic]error),
	}
}

// Connect implements Link.
func (f *FakeLink) Connect(_ context.Context, address string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.connectErr != nil {
		return f.connectErr
	}
	if f.connected {
		return fmt.Errorf("%w: already connected", ErrConnectionFailed)
	}
	if address == "" {
		return fmt.Errorf("%w: empty address", ErrConnectionFailed)
	}
	f.connected = true
	return nil
}

// Disconnect implements Link.
func (f *FakeLink) Disconnect(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	return nil
}

// Connected implements Link.
func (f *FakeLink) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// Read implements Link. Boiler reads step the simulated temperatures.
func (f *FakeLink) Read(_ context.Context, c Characteristic) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.connected {
		return nil, ErrNotConnected
	}
	if err := f.readErr[normalise(c)]; err != nil {
		return nil, err
	}

	switch normalise(c) {
	case CharBrewBoiler:
		f.brewTemp = stepTemp(f.brewTemp, fakeBrewTargetTemp, f.powered)
		return encodeFakeBoiler(f.brewTemp), nil
	case CharSteamBoiler:
		f.steamTemp = stepTemp(f.steamTemp, fakeSteamTargetTemp, f.powered)
		return encodeFakeBoiler(f.steamTemp), nil
	}

	value, ok := f.values[normalise(c)]
	if !ok {
		return nil, ErrUnknownCharacteristic
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Write implements Link. Writes to the boiler characteristics are
// rejected the way the real GATT server rejects them.
func (f *FakeLink) Write(_ context.Context, c Characteristic, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.connected {
		return ErrNotConnected
	}
	c = normalise(c)
	if err := f.writeErr[c]; err != nil {
		return err
	}
	if !c.Known() {
		return ErrUnknownCharacteristic
	}
	if !c.Writable() {
		return fmt.Errorf("%w: characteristic %s is read-only", ErrUnsupportedOperation, c.Name())
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	f.values[c] = stored
	f.writes = append(f.writes, FakeWrite{Characteristic: c, Data: stored})

	f.applyScheduler()
	return nil
}

// applyScheduler re-evaluates the simulated power latch after a write.
//
// With the timer enabled, moving the clock inside an active boiler slot
// powers the machine on, and moving it outside powers it off. With the
// timer disabled the latch holds its last value, which is exactly the
// behaviour the power choreography depends on.
func (f *FakeLink) applyScheduler() {
	enabled, err := DecodeTimerState(f.values[CharTimerState])
	if err != nil || !enabled {
		return
	}
	schedule, err := DecodeSchedule(f.values[CharSchedule])
	if err != nil {
		return
	}
	clock, err := DecodeTime(f.values[CharCurrentTime])
	if err != nil {
		return
	}

	f.powered = scheduleActiveAt(schedule, clock)
}

// scheduleActiveAt reports whether the clock falls inside a boiler-on
// slot on its weekday.
func scheduleActiveAt(schedule WeeklySchedule, clock ApplianceTime) bool {
	weekday := clock.Time(time.UTC).Weekday()
	// Wire order is Monday-first; time.Weekday is Sunday-first.
	day := (int(weekday) + 6) % daysPerWeek

	minute := clock.Hour*60 + clock.Minute
	for _, slot := range schedule.Days[day] {
		if !slot.BoilerOn {
			continue
		}
		start := slot.StartHour*60 + slot.StartMinute
		end := slot.EndHour*60 + slot.EndMinute
		if minute >= start && minute < end {
			return true
		}
	}
	return false
}

// stepTemp moves a boiler temperature one read towards its resting point.
func stepTemp(current, target float64, powered bool) float64 {
	if powered {
		if current+fakeWarmRate >= target {
			return target
		}
		return current + fakeWarmRate
	}
	if current-fakeWarmRate <= fakeAmbientTemp {
		return fakeAmbientTemp
	}
	return current - fakeWarmRate
}

// encodeFakeBoiler encodes a temperature into the 4-byte telemetry
// payload. Byte 1 naturally doubles as the status code, same as the
// real firmware.
func encodeFakeBoiler(temp float64) []byte {
	buf := make([]byte, boilerPayloadSize)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(temp*tempScale))
	return buf
}

// Powered reports the simulated power latch. Test helper.
func (f *FakeLink) Powered() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.powered
}

// SetPowered forces the simulated power latch. Test helper.
func (f *FakeLink) SetPowered(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.powered = on
}

// SetValue seeds a characteristic value directly, bypassing read-only
// enforcement. Test helper.
func (f *FakeLink) SetValue(c Characteristic, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	f.values[normalise(c)] = stored
}

// FailConnect makes subsequent Connect calls fail with err (nil clears).
func (f *FakeLink) FailConnect(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectErr = err
}

// FailRead makes reads of c fail with err (nil clears).
func (f *FakeLink) FailRead(c Characteristic, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.readErr, normalise(c))
		return
	}
	f.readErr[normalise(c)] = err
}

// FailWrite makes writes of c fail with err (nil clears).
func (f *FakeLink) FailWrite(c Characteristic, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.writeErr, normalise(c))
		return
	}
	f.writeErr[normalise(c)] = err
}

// Writes returns a copy of the write journal.
func (f *FakeLink) Writes() []FakeWrite {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeWrite, len(f.writes))
	copy(out, f.writes)
	return out
}

// Ensure FakeLink implements Link.
var _ Link = (*FakeLink)(nil)
