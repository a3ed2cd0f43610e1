package s1

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Power choreography constants.
//
// The S1 exposes no power characteristic, so power is driven through the
// schedule timer: a throwaway one-hour Monday slot is written, the
// appliance clock is jumped inside the slot (power on) or just past its
// end (power off), the firmware scheduler reacts, and then schedule and
// clock are restored. The reference date is arbitrary; only its weekday
// (Monday) matters.
var (
	// overrideSlot is the temporary Monday slot used for both
	// transitions.
	overrideSlot = ScheduleSlot{
		StartHour: 9, StartMinute: 0,
		EndHour: 10, EndMinute: 0,
		BoilerOn: true,
	}

	// clockInsideSlot lands 5 minutes into the slot; the scheduler
	// powers the boiler on.
	clockInsideSlot = time.Date(2024, time.January, 1, 9, 5, 0, 0, time.UTC)

	// clockPastSlot lands 5 minutes past the slot's end; the scheduler
	// powers the boiler off.
	clockPastSlot = time.Date(2024, time.January, 1, 10, 5, 0, 0, time.UTC)
)

// defaultSettleDelay is how long the machine waits for the firmware
// scheduler to react after the clock jump and again after disabling the
// timer.
const defaultSettleDelay = 1 * time.Second

// lastSyncSkew is subtracted from the wall clock when writing the
// last-sync characteristic; the firmware expects the sync mark to trail
// the current time.
const lastSyncSkew = 1 * time.Minute

// CommandBus is the slice of ConnectionWorker the machine drives.
// Consumer-side so tests can substitute a recorder.
type CommandBus interface {
	Connect(ctx context.Context, address string) error
	Disconnect(ctx context.Context) error
	Read(ctx context.Context, c Characteristic) ([]byte, error)
	Write(ctx context.Context, c Characteristic, data []byte) error
	Poll(ctx context.Context, c Characteristic, interval time.Duration) (<-chan PollResult, error)
	StopPoll(ctx context.Context) error
}

var _ CommandBus = (*ConnectionWorker)(nil)

// BackupStore persists schedule snapshots taken before the power
// choreography overwrites the appliance's schedule.
type BackupStore interface {
	SaveSchedule(ctx context.Context, schedule WeeklySchedule) error
}

// MachineOptions configures a Machine.
type MachineOptions struct {
	// Bus executes appliance operations (required).
	Bus CommandBus

	// Address is the appliance's BLE address (required).
	Address string

	// Logger receives machine logs (required).
	Logger Logger

	// SettleDelay overrides the pause between choreography steps.
	// Defaults to 1s.
	SettleDelay time.Duration

	// Backups, when non-nil, receives a schedule snapshot before each
	// power transition. Backup failures are logged and do not abort
	// the transition.
	Backups BackupStore

	// Now overrides the wall clock. Defaults to time.Now.
	Now func() time.Time
}

// Machine is the high-level controller for one S1 appliance. All
// operations go through the command bus, so the machine is safe for
// concurrent use; the power choreography additionally holds a mutex so
// two transitions never interleave.
type Machine struct {
	bus         CommandBus
	address     string
	logger      Logger
	settleDelay time.Duration
	backups     BackupStore
	now         func() time.Time

	mu           sync.Mutex
	lastSnapshot *WeeklySchedule

	// connMu guards detached. Separate from mu because the power
	// choreography holds mu while calling EnsureConnected.
	connMu   sync.Mutex
	detached bool
}

// NewMachine validates opts and returns a controller. The appliance is
// not contacted until the first operation.
func NewMachine(opts MachineOptions) (*Machine, error) {
	if opts.Bus == nil {
		return nil, fmt.Errorf("s1: machine requires a command bus")
	}
	if opts.Address == "" {
		return nil, fmt.Errorf("s1: machine requires an appliance address")
	}
	if opts.Logger == nil {
		return nil, fmt.Errorf("s1: machine requires a logger")
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = defaultSettleDelay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Machine{
		bus:         opts.Bus,
		address:     opts.Address,
		logger:      opts.Logger,
		settleDelay: opts.SettleDelay,
		backups:     opts.Backups,
		now:         opts.Now,
	}, nil
}

// Connect establishes the BLE session and lifts any standing
// disconnect, so subsequent operations auto-connect again.
func (m *Machine) Connect(ctx context.Context) error {
	m.connMu.Lock()
	m.detached = false
	m.connMu.Unlock()
	return m.bus.Connect(ctx, m.address)
}

// EnsureConnected establishes the BLE session if needed. Connecting
// while connected is a no-op at the worker level, so this is cheap to
// call before every operation. After an explicit Disconnect it fails
// with ErrNotConnected until Connect is called; a dropped link is
// redialled, an operator's disconnect is respected.
func (m *Machine) EnsureConnected(ctx context.Context) error {
	m.connMu.Lock()
	detached := m.detached
	m.connMu.Unlock()
	if detached {
		return fmt.Errorf("%w: appliance was explicitly disconnected", ErrNotConnected)
	}
	return m.bus.Connect(ctx, m.address)
}

// Disconnect tears down the BLE session. The disconnect is sticky:
// operations fail with ErrNotConnected until Connect lifts it.
func (m *Machine) Disconnect(ctx context.Context) error {
	m.connMu.Lock()
	m.detached = true
	m.connMu.Unlock()
	return m.bus.Disconnect(ctx)
}

// Schedule reads and decodes the weekly schedule.
func (m *Machine) Schedule(ctx context.Context) (WeeklySchedule, error) {
	if err := m.EnsureConnected(ctx); err != nil {
		return WeeklySchedule{}, err
	}
	data, err := m.bus.Read(ctx, CharSchedule)
	if err != nil {
		return WeeklySchedule{}, err
	}
	return DecodeSchedule(data)
}

// SetSchedule encodes and writes the weekly schedule.
func (m *Machine) SetSchedule(ctx context.Context, schedule WeeklySchedule) error {
	if err := m.EnsureConnected(ctx); err != nil {
		return err
	}
	return m.bus.Write(ctx, CharSchedule, EncodeSchedule(schedule))
}

// ScheduleEnabled reads the schedule timer state.
func (m *Machine) ScheduleEnabled(ctx context.Context) (bool, error) {
	if err := m.EnsureConnected(ctx); err != nil {
		return false, err
	}
	data, err := m.bus.Read(ctx, CharTimerState)
	if err != nil {
		return false, err
	}
	return DecodeTimerState(data)
}

// EnableSchedule sets the schedule timer state.
func (m *Machine) EnableSchedule(ctx context.Context, enabled bool) error {
	if err := m.EnsureConnected(ctx); err != nil {
		return err
	}
	return m.bus.Write(ctx, CharTimerState, EncodeTimerState(enabled))
}

// CurrentTime reads the appliance clock.
func (m *Machine) CurrentTime(ctx context.Context) (ApplianceTime, error) {
	if err := m.EnsureConnected(ctx); err != nil {
		return ApplianceTime{}, err
	}
	data, err := m.bus.Read(ctx, CharCurrentTime)
	if err != nil {
		return ApplianceTime{}, err
	}
	return DecodeTime(data)
}

// SetCurrentTime writes the appliance clock.
func (m *Machine) SetCurrentTime(ctx context.Context, t ApplianceTime) error {
	if err := m.EnsureConnected(ctx); err != nil {
		return err
	}
	return m.bus.Write(ctx, CharCurrentTime, EncodeTime(t))
}

// SetLastSyncTime writes the last-sync mark.
func (m *Machine) SetLastSyncTime(ctx context.Context, t ApplianceTime) error {
	if err := m.EnsureConnected(ctx); err != nil {
		return err
	}
	return m.bus.Write(ctx, CharLastSyncTime, EncodeTime(t))
}

// BrewBoiler reads the brew boiler telemetry.
func (m *Machine) BrewBoiler(ctx context.Context) (BoilerReading, error) {
	return m.readBoiler(ctx, CharBrewBoiler)
}

// SteamBoiler reads the steam boiler telemetry.
func (m *Machine) SteamBoiler(ctx context.Context) (BoilerReading, error) {
	return m.readBoiler(ctx, CharSteamBoiler)
}

func (m *Machine) readBoiler(ctx context.Context, c Characteristic) (BoilerReading, error) {
	if err := m.EnsureConnected(ctx); err != nil {
		return BoilerReading{}, err
	}
	data, err := m.bus.Read(ctx, c)
	if err != nil {
		return BoilerReading{}, err
	}
	return DecodeBoiler(data)
}

// PowerOn switches the machine on via the schedule override
// choreography.
func (m *Machine) PowerOn(ctx context.Context) error {
	return m.setPowerState(ctx, true)
}

// PowerOff switches the machine off via the schedule override
// choreography.
func (m *Machine) PowerOff(ctx context.Context) error {
	return m.setPowerState(ctx, false)
}

// LastScheduleSnapshot returns the schedule captured before the most
// recent power transition, or nil if none has run yet.
func (m *Machine) LastScheduleSnapshot() *WeeklySchedule {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastSnapshot == nil {
		return nil
	}
	snapshot := *m.lastSnapshot
	return &snapshot
}

// setPowerState runs the override choreography:
//
//  1. Read and snapshot the current schedule.
//  2. Enable the schedule timer.
//  3. Write a temporary schedule containing only the Monday override
//     slot.
//  4. Jump the appliance clock inside the slot (on) or past its end
//     (off); the firmware scheduler flips the boiler.
//  5. Settle, disable the timer so the latched state survives, settle
//     again.
//  6. Restore the real clock and the snapshotted schedule.
//
// There is no rollback: a mid-sequence failure leaves the appliance in
// whatever intermediate state it reached, and the error reports which
// step failed.
func (m *Machine) setPowerState(ctx context.Context, on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	action := "power off"
	clock := clockPastSlot
	if on {
		action = "power on"
		clock = clockInsideSlot
	}
	m.logger.Info("power transition starting", "action", action)

	if err := m.EnsureConnected(ctx); err != nil {
		return fmt.Errorf("%s: connect: %w", action, err)
	}

	data, err := m.bus.Read(ctx, CharSchedule)
	if err != nil {
		return fmt.Errorf("%s: read schedule: %w", action, err)
	}
	original, err := DecodeSchedule(data)
	if err != nil {
		return fmt.Errorf("%s: decode schedule: %w", action, err)
	}
	m.lastSnapshot = &original

	if m.backups != nil {
		if err := m.backups.SaveSchedule(ctx, original); err != nil {
			m.logger.Warn("schedule backup failed, continuing", "error", err)
		}
	}

	if err := m.bus.Write(ctx, CharTimerState, EncodeTimerState(true)); err != nil {
		return fmt.Errorf("%s: enable timer: %w", action, err)
	}

	var override WeeklySchedule
	override.Days[0] = []ScheduleSlot{overrideSlot}
	if err := m.bus.Write(ctx, CharSchedule, EncodeSchedule(override)); err != nil {
		return fmt.Errorf("%s: write override schedule: %w", action, err)
	}

	if err := m.jumpClock(ctx, clock); err != nil {
		return fmt.Errorf("%s: jump clock: %w", action, err)
	}

	if err := m.settle(ctx); err != nil {
		return err
	}

	if err := m.bus.Write(ctx, CharTimerState, EncodeTimerState(false)); err != nil {
		return fmt.Errorf("%s: disable timer: %w", action, err)
	}

	if err := m.settle(ctx); err != nil {
		return err
	}

	if err := m.jumpClock(ctx, m.now()); err != nil {
		return fmt.Errorf("%s: restore clock: %w", action, err)
	}

	if err := m.bus.Write(ctx, CharSchedule, EncodeSchedule(original)); err != nil {
		return fmt.Errorf("%s: restore schedule: %w", action, err)
	}

	m.logger.Info("power transition complete", "action", action)
	return nil
}

// jumpClock writes last-sync then current-time, keeping the sync mark a
// minute behind the clock the way the appliance expects.
func (m *Machine) jumpClock(ctx context.Context, t time.Time) error {
	sync := TimeFrom(t.Add(-lastSyncSkew))
	if err := m.bus.Write(ctx, CharLastSyncTime, EncodeTime(sync)); err != nil {
		return fmt.Errorf("set last sync: %w", err)
	}
	if err := m.bus.Write(ctx, CharCurrentTime, EncodeTime(TimeFrom(t))); err != nil {
		return fmt.Errorf("set current time: %w", err)
	}
	return nil
}

// settle pauses for the firmware scheduler, honouring cancellation.
func (m *Machine) settle(ctx context.Context) error {
	timer := time.NewTimer(m.settleDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
