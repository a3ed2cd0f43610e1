package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/brewlink/internal/bridges/s1"
	"github.com/nerrad567/brewlink/internal/infrastructure/mqtt"
	"github.com/nerrad567/brewlink/internal/thermal"
)

// defaultPollInterval is used when MonitorOptions.Interval is zero.
const defaultPollInterval = 5 * time.Second

// topics builds the MQTT topic names the monitor publishes to.
var topics = mqtt.Topics{}

// Poller is the slice of the connection worker the monitor uses.
type Poller interface {
	Poll(ctx context.Context, c s1.Characteristic, interval time.Duration) (<-chan s1.PollResult, error)
	StopPoll(ctx context.Context) error
}

// Publisher is the slice of the MQTT client the monitor uses.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// SampleWriter is the slice of the InfluxDB client the monitor uses.
type SampleWriter interface {
	WriteBoilerSample(boiler string, temperature float64, status string, at time.Time)
	WritePowerTransition(from, to string, at time.Time)
}

// Logger is the minimal logging interface the monitor needs.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// MonitorOptions configures a Monitor.
type MonitorOptions struct {
	// Poller issues the repeating boiler read. Required.
	Poller Poller

	// Estimator classifies power state from the temperature trend. Required.
	Estimator *thermal.Estimator

	// Logger receives monitor lifecycle and sample events. Required.
	Logger Logger

	// Boiler is the characteristic to poll. Defaults to CharBrewBoiler.
	Boiler s1.Characteristic

	// BoilerName tags published samples ("brew" or "steam").
	// Defaults to "brew".
	BoilerName string

	// Interval between polls. Defaults to 5s.
	Interval time.Duration

	// Publisher receives MQTT telemetry. Optional.
	Publisher Publisher

	// Samples receives InfluxDB points. Optional.
	Samples SampleWriter
}

// Status is the monitor's view of the machine, refreshed on every
// successful sample.
type Status struct {
	Boiler      string             `json:"boiler"`
	Temperature float64            `json:"temperature"`
	StatusText  string             `json:"status"`
	PowerState  thermal.PowerState `json:"power_state"`
	StateSince  time.Time          `json:"state_since"`
	UpdatedAt   time.Time          `json:"updated_at"`
	HasSample   bool               `json:"has_sample"`
}

// Monitor consumes the boiler poll stream and fans samples out to the
// estimator, MQTT, InfluxDB and an in-memory snapshot.
type Monitor struct {
	poller    Poller
	estimator *thermal.Estimator
	logger    Logger
	boiler    s1.Characteristic
	name      string
	interval  time.Duration
	publisher Publisher
	samples   SampleWriter

	mu        sync.Mutex
	started   bool
	snapshot  Status
	lastState thermal.PowerState

	done chan struct{}
}

// telemetryMessage is the MQTT payload for one boiler sample.
type telemetryMessage struct {
	Boiler      string  `json:"boiler"`
	Temperature float64 `json:"temperature"`
	Status      string  `json:"status"`
	Time        string  `json:"time"`
}

// powerStateMessage is the retained MQTT payload for a state change.
type powerStateMessage struct {
	State    string `json:"state"`
	Previous string `json:"previous"`
	Since    string `json:"since"`
}

// NewMonitor creates a monitor. It does not start polling; call Start.
func NewMonitor(opts MonitorOptions) (*Monitor, error) {
	if opts.Poller == nil {
		return nil, errors.New("telemetry: poller is required")
	}
	if opts.Estimator == nil {
		return nil, errors.New("telemetry: estimator is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("telemetry: logger is required")
	}

	boiler := opts.Boiler
	if boiler == "" {
		boiler = s1.CharBrewBoiler
	}
	name := opts.BoilerName
	if name == "" {
		name = "brew"
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	return &Monitor{
		poller:    opts.Poller,
		estimator: opts.Estimator,
		logger:    opts.Logger,
		boiler:    boiler,
		name:      name,
		interval:  interval,
		publisher: opts.Publisher,
		samples:   opts.Samples,
		lastState: thermal.StateUnknown,
		snapshot: Status{
			Boiler:     name,
			PowerState: thermal.StateUnknown,
		},
	}, nil
}

// Start begins the repeating poll and the sample loop.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return errors.New("telemetry: monitor already started")
	}
	m.started = true
	m.done = make(chan struct{})
	m.mu.Unlock()

	stream, err := m.poller.Poll(ctx, m.boiler, m.interval)
	if err != nil {
		m.mu.Lock()
		m.started = false
		m.mu.Unlock()
		return fmt.Errorf("starting boiler poll: %w", err)
	}

	go m.loop(stream)

	m.logger.Info("telemetry monitor started",
		"boiler", m.name,
		"interval", m.interval.String(),
	)
	return nil
}

// Stop cancels the poll and waits for the sample loop to drain.
// Safe to call when not started.
func (m *Monitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = false
	done := m.done
	m.mu.Unlock()

	if err := m.poller.StopPoll(ctx); err != nil {
		// The worker may already be stopped; the loop exits when the
		// stream closes either way.
		m.logger.Warn("stopping boiler poll", "error", err)
	}

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("waiting for monitor shutdown: %w", ctx.Err())
	}

	m.logger.Info("telemetry monitor stopped", "boiler", m.name)
	return nil
}

// Snapshot returns the latest observed machine state.
func (m *Monitor) Snapshot() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

// loop consumes the poll stream until it closes.
func (m *Monitor) loop(stream <-chan s1.PollResult) {
	defer close(m.done)

	for sample := range stream {
		if sample.Err != nil {
			m.logger.Warn("boiler poll failed",
				"boiler", m.name,
				"error", sample.Err,
			)
			continue
		}

		reading, ok := sample.Value.(s1.BoilerReading)
		if !ok {
			m.logger.Warn("unexpected poll payload",
				"boiler", m.name,
				"characteristic", string(sample.Characteristic),
			)
			continue
		}

		m.handleSample(reading, sample.Timestamp)
	}
}

// handleSample fans one reading out to the estimator and sinks.
func (m *Monitor) handleSample(reading s1.BoilerReading, at time.Time) {
	state := m.estimator.AddSample(at, reading.Temperature)
	statusText := reading.StatusText()

	m.mu.Lock()
	previous := m.lastState
	changed := state != previous
	m.lastState = state
	m.snapshot = Status{
		Boiler:      m.name,
		Temperature: reading.Temperature,
		StatusText:  statusText,
		PowerState:  state,
		StateSince:  m.estimator.LastChange(),
		UpdatedAt:   at,
		HasSample:   true,
	}
	m.mu.Unlock()

	m.logger.Debug("boiler sample",
		"boiler", m.name,
		"temperature", reading.Temperature,
		"status", statusText,
		"state", state.String(),
	)

	if m.samples != nil {
		m.samples.WriteBoilerSample(m.name, reading.Temperature, statusText, at)
	}
	m.publishSample(reading, statusText, at)

	if changed {
		m.handleTransition(previous, state, at)
	}
}

// handleTransition reports an inferred power-state change.
func (m *Monitor) handleTransition(previous, state thermal.PowerState, at time.Time) {
	m.logger.Info("power state changed",
		"from", previous.String(),
		"to", state.String(),
	)

	if m.samples != nil {
		m.samples.WritePowerTransition(previous.String(), state.String(), at)
	}

	if m.publisher == nil {
		return
	}
	payload, err := json.Marshal(powerStateMessage{
		State:    state.String(),
		Previous: previous.String(),
		Since:    at.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	// Retained so late subscribers see the current state immediately.
	if err := m.publisher.Publish(topics.PowerState(), payload, 1, true); err != nil {
		m.logger.Warn("publishing power state", "error", err)
	}
}

// publishSample sends one sample to the telemetry topic.
func (m *Monitor) publishSample(reading s1.BoilerReading, statusText string, at time.Time) {
	if m.publisher == nil {
		return
	}
	payload, err := json.Marshal(telemetryMessage{
		Boiler:      m.name,
		Temperature: reading.Temperature,
		Status:      statusText,
		Time:        at.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	if err := m.publisher.Publish(topics.BoilerTelemetry(m.name), payload, 0, false); err != nil {
		m.logger.Warn("publishing telemetry", "error", err)
	}
}
