package mqtt

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// The tests in this file run without a broker. End-to-end tests against
// a live Mosquitto instance live in integration_test.go behind the
// "integration" build tag.

// =============================================================================
// Topic Builder Tests
// =============================================================================

func TestTopics(t *testing.T) {
	tests := []struct {
		name     string
		build    func() string
		expected string
	}{
		{
			name: "BoilerTelemetry",
			build: func() string {
				return Topics{}.BoilerTelemetry("brew_boiler")
			},
			expected: "brewlink/machine/telemetry/brew_boiler",
		},
		{
			name: "PowerState",
			build: func() string {
				return Topics{}.PowerState()
			},
			expected: "brewlink/machine/power",
		},
		{
			name: "Connection",
			build: func() string {
				return Topics{}.Connection()
			},
			expected: "brewlink/machine/connection",
		},
		{
			name: "ScheduleChanged",
			build: func() string {
				return Topics{}.ScheduleChanged()
			},
			expected: "brewlink/machine/schedule",
		},
		{
			name: "PowerCommandResult",
			build: func() string {
				return Topics{}.PowerCommandResult()
			},
			expected: "brewlink/machine/power/result",
		},
		{
			name: "SystemStatus",
			build: func() string {
				return Topics{}.SystemStatus()
			},
			expected: "brewlink/system/status",
		},
		{
			name: "AllTelemetry",
			build: func() string {
				return Topics{}.AllTelemetry()
			},
			expected: "brewlink/machine/telemetry/+",
		},
		{
			name: "AllMachine",
			build: func() string {
				return Topics{}.AllMachine()
			},
			expected: "brewlink/machine/#",
		},
		{
			name: "AllTopics",
			build: func() string {
				return Topics{}.AllTopics()
			},
			expected: "brewlink/#",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.build(); got != tt.expected {
				t.Errorf("topic = %q, want %q", got, tt.expected)
			}
		})
	}
}

// =============================================================================
// Validation Tests (no broker required)
// =============================================================================

func TestCloseNil(t *testing.T) {
	client := &Client{}
	err := client.Close()
	if err != nil {
		t.Errorf("Close() on nil client error = %v, want nil", err)
	}
}

func TestPublishValidation(t *testing.T) {
	client := &Client{}

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"invalid qos", "brewlink/test", []byte("x"), 3, ErrInvalidQoS},
		{"not connected", "brewlink/test", []byte("x"), 1, ErrNotConnected},
		{"oversized payload", "brewlink/test", bytes.Repeat([]byte("x"), maxPayloadSize+1), 1, ErrPublishFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribeValidation(t *testing.T) {
	client := &Client{subscriptions: make(map[string]subscription)}
	handler := func(topic string, payload []byte) error { return nil }

	tests := []struct {
		name    string
		topic   string
		qos     byte
		handler MessageHandler
		wantErr error
	}{
		{"empty topic", "", 1, handler, ErrInvalidTopic},
		{"invalid qos", "brewlink/test", 3, handler, ErrInvalidQoS},
		{"nil handler", "brewlink/test", 1, nil, ErrSubscribeFailed},
		{"not connected", "brewlink/test", 1, handler, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Subscribe(tt.topic, tt.qos, tt.handler)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Subscribe() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUnsubscribeValidation(t *testing.T) {
	client := &Client{subscriptions: make(map[string]subscription)}

	if err := client.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Unsubscribe(\"\") error = %v, want ErrInvalidTopic", err)
	}
	if err := client.Unsubscribe("brewlink/test"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Unsubscribe() error = %v, want ErrNotConnected", err)
	}
}

func TestSubscriptionTrackingEmpty(t *testing.T) {
	client := &Client{subscriptions: make(map[string]subscription)}

	if got := client.SubscriptionCount(); got != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", got)
	}
	if client.HasSubscription("brewlink/test") {
		t.Error("HasSubscription() = true on empty client")
	}
}

// =============================================================================
// Handler Wrapping Tests
// =============================================================================

// fakeMessage implements pahomqtt.Message for handler tests.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 1 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

func TestWrapHandlerPanicRecovery(t *testing.T) {
	client := &Client{}
	logger := &mockLogger{}
	client.SetLogger(logger)

	wrapped := client.wrapHandler(func(topic string, payload []byte) error {
		panic("handler exploded")
	})

	// Must not propagate the panic.
	wrapped(nil, &fakeMessage{topic: "brewlink/test", payload: []byte("x")})

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.errors) != 1 {
		t.Errorf("logged errors = %d, want 1", len(logger.errors))
	}
}

func TestWrapHandlerErrorLogged(t *testing.T) {
	client := &Client{}
	logger := &mockLogger{}
	client.SetLogger(logger)

	wrapped := client.wrapHandler(func(topic string, payload []byte) error {
		return ErrPublishFailed
	})

	wrapped(nil, &fakeMessage{topic: "brewlink/test", payload: []byte("x")})

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.warns) != 1 {
		t.Errorf("logged warnings = %d, want 1", len(logger.warns))
	}
}

func TestSetLogger(t *testing.T) {
	client := &Client{}
	logger := &mockLogger{}

	client.SetLogger(logger)
	if client.getLogger() == nil {
		t.Error("getLogger() = nil after SetLogger()")
	}

	client.SetLogger(nil)
	if client.getLogger() != nil {
		t.Error("getLogger() should be nil after SetLogger(nil)")
	}
}

// mockLogger implements Logger interface for testing.
type mockLogger struct {
	errors []string
	warns  []string
	mu     sync.Mutex
}

func (l *mockLogger) Error(msg string, args ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func (l *mockLogger) Warn(msg string, args ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

var _ pahomqtt.Message = (*fakeMessage)(nil)
