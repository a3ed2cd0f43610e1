package telemetry

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/brewlink/internal/bridges/s1"
	"github.com/nerrad567/brewlink/internal/thermal"
)

// testLogger satisfies Logger and discards everything.
type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// capturedMessage is one Publish call recorded by fakePublisher.
type capturedMessage struct {
	Topic    string
	Payload  []byte
	Retained bool
}

// fakePublisher records published messages.
type fakePublisher struct {
	mu       sync.Mutex
	messages []capturedMessage
}

func (p *fakePublisher) Publish(topic string, payload []byte, _ byte, retained bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, capturedMessage{Topic: topic, Payload: payload, Retained: retained})
	return nil
}

func (p *fakePublisher) snapshot() []capturedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]capturedMessage(nil), p.messages...)
}

// fakeSampleWriter counts influx writes.
type fakeSampleWriter struct {
	mu          sync.Mutex
	samples     int
	transitions []string
}

func (w *fakeSampleWriter) WriteBoilerSample(string, float64, string, time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.samples++
}

func (w *fakeSampleWriter) WritePowerTransition(from, to string, _ time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.transitions = append(w.transitions, from+"->"+to)
}

func (w *fakeSampleWriter) counts() (int, []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.samples, append([]string(nil), w.transitions...)
}

// newTestMonitor wires a monitor to a real worker over a fake link.
func newTestMonitor(t *testing.T, opts MonitorOptions) (*Monitor, *s1.FakeLink) {
	t.Helper()

	link := s1.NewFakeLink()
	worker, err := s1.NewConnectionWorker(s1.WorkerOptions{
		Link:   link,
		Logger: testLogger{},
	})
	if err != nil {
		t.Fatalf("NewConnectionWorker() error = %v", err)
	}
	t.Cleanup(worker.Stop)

	ctx := context.Background()
	if err := worker.Connect(ctx, "AA:BB:CC:DD:EE:FF"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	opts.Poller = worker
	if opts.Estimator == nil {
		opts.Estimator = thermal.NewEstimator(thermal.EstimatorOptions{})
	}
	if opts.Logger == nil {
		opts.Logger = testLogger{}
	}
	if opts.Interval == 0 {
		opts.Interval = 2 * time.Millisecond
	}

	monitor, err := NewMonitor(opts)
	if err != nil {
		t.Fatalf("NewMonitor() error = %v", err)
	}
	return monitor, link
}

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

// ─── Construction ────────────────────────────────────────────────────────────

func TestNewMonitorValidation(t *testing.T) {
	estimator := thermal.NewEstimator(thermal.EstimatorOptions{})

	tests := []struct {
		name string
		opts MonitorOptions
	}{
		{"missing poller", MonitorOptions{Estimator: estimator, Logger: testLogger{}}},
		{"missing estimator", MonitorOptions{Poller: stubPoller{}, Logger: testLogger{}}},
		{"missing logger", MonitorOptions{Poller: stubPoller{}, Estimator: estimator}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMonitor(tt.opts); err == nil {
				t.Error("NewMonitor() expected error")
			}
		})
	}
}

// stubPoller satisfies Poller for validation tests.
type stubPoller struct{}

func (stubPoller) Poll(context.Context, s1.Characteristic, time.Duration) (<-chan s1.PollResult, error) {
	ch := make(chan s1.PollResult)
	close(ch)
	return ch, nil
}
func (stubPoller) StopPoll(context.Context) error { return nil }

// ─── Sample flow ─────────────────────────────────────────────────────────────

func TestMonitorUpdatesSnapshot(t *testing.T) {
	monitor, _ := newTestMonitor(t, MonitorOptions{})
	ctx := context.Background()

	if err := monitor.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer monitor.Stop(ctx) //nolint:errcheck // Test cleanup

	waitFor(t, time.Second, func() bool {
		return monitor.Snapshot().HasSample
	}, "snapshot never updated")

	status := monitor.Snapshot()
	if status.Boiler != "brew" {
		t.Errorf("Boiler = %s, want brew", status.Boiler)
	}
	if status.Temperature <= 0 {
		t.Errorf("Temperature = %v, want positive", status.Temperature)
	}
	if status.UpdatedAt.IsZero() {
		t.Error("UpdatedAt is zero")
	}
}

func TestMonitorPublishesTelemetry(t *testing.T) {
	pub := &fakePublisher{}
	monitor, _ := newTestMonitor(t, MonitorOptions{Publisher: pub})
	ctx := context.Background()

	if err := monitor.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer monitor.Stop(ctx) //nolint:errcheck // Test cleanup

	waitFor(t, time.Second, func() bool {
		return len(pub.snapshot()) > 0
	}, "no telemetry published")

	msg := pub.snapshot()[0]
	if !strings.HasPrefix(msg.Topic, "brewlink/machine/telemetry/") {
		t.Errorf("topic = %s, want telemetry topic", msg.Topic)
	}
	if !strings.Contains(string(msg.Payload), `"boiler":"brew"`) {
		t.Errorf("payload = %s, want boiler field", msg.Payload)
	}
}

func TestMonitorWritesSamples(t *testing.T) {
	writer := &fakeSampleWriter{}
	monitor, _ := newTestMonitor(t, MonitorOptions{Samples: writer})
	ctx := context.Background()

	if err := monitor.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer monitor.Stop(ctx) //nolint:errcheck // Test cleanup

	waitFor(t, time.Second, func() bool {
		n, _ := writer.counts()
		return n >= 3
	}, "samples never written")
}

func TestMonitorReportsTransitions(t *testing.T) {
	// A powered machine warms the fake boiler towards target, so the
	// estimator leaves Unknown once the window fills.
	pub := &fakePublisher{}
	writer := &fakeSampleWriter{}
	monitor, link := newTestMonitor(t, MonitorOptions{Publisher: pub, Samples: writer})
	link.SetPowered(true)
	ctx := context.Background()

	if err := monitor.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer monitor.Stop(ctx) //nolint:errcheck // Test cleanup

	waitFor(t, 2*time.Second, func() bool {
		_, transitions := writer.counts()
		return len(transitions) > 0
	}, "no power transition recorded")

	// The retained power-state message goes out on the power topic.
	var found bool
	for _, msg := range pub.snapshot() {
		if msg.Topic == "brewlink/machine/power" && msg.Retained {
			found = true
			break
		}
	}
	if !found {
		t.Error("no retained power-state message published")
	}
}

// ─── Lifecycle ───────────────────────────────────────────────────────────────

func TestMonitorStartTwice(t *testing.T) {
	monitor, _ := newTestMonitor(t, MonitorOptions{})
	ctx := context.Background()

	if err := monitor.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer monitor.Stop(ctx) //nolint:errcheck // Test cleanup

	if err := monitor.Start(ctx); err == nil {
		t.Error("second Start() expected error")
	}
}

func TestMonitorStop(t *testing.T) {
	monitor, _ := newTestMonitor(t, MonitorOptions{})
	ctx := context.Background()

	if err := monitor.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, time.Second, func() bool {
		return monitor.Snapshot().HasSample
	}, "snapshot never updated")

	if err := monitor.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	// Stop again is a no-op.
	if err := monitor.Stop(ctx); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestMonitorStopWithoutStart(t *testing.T) {
	monitor, _ := newTestMonitor(t, MonitorOptions{})

	if err := monitor.Stop(context.Background()); err != nil {
		t.Errorf("Stop() without Start() error = %v", err)
	}
}
