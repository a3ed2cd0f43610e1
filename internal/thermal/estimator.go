package thermal

import (
	"math"
	"sync"
	"time"
)

// Classification thresholds. Derived empirically from brew boiler warmup
// curves sampled at 2-5s intervals.
const (
	// DefaultTargetTemp is the brew boiler's operating temperature in
	// degrees Celsius.
	DefaultTargetTemp = 95.0

	// DefaultWindowSize is the sliding window length.
	DefaultWindowSize = 5

	// minSamples is the minimum window fill before any estimate is made.
	minSamples = 4

	// warmingSlopeMin is the C/s slope above which the boiler is
	// considered actively heating.
	warmingSlopeMin = 0.05

	// warmingStddevMin is the sample spread that must accompany a
	// heating slope; a flat noisy line alone is not warming.
	warmingStddevMin = 0.5

	// coolingSlopeMax is the C/s slope below which the boiler is
	// considered cooling towards ambient.
	coolingSlopeMax = -0.01

	// nearTargetMargin is how far below target still counts as "at
	// temperature".
	nearTargetMargin = 5.0
)

// PowerState is the estimated appliance power state.
type PowerState int

const (
	// StateUnknown means the window has too few samples to classify.
	StateUnknown PowerState = iota

	// StateOff means the boiler is cold or cooling.
	StateOff

	// StateOn means the boiler is at or near operating temperature.
	StateOn

	// StateWarmingUp means the boiler is heating towards target.
	StateWarmingUp
)

// String returns the state's display name.
func (s PowerState) String() string {
	switch s {
	case StateOff:
		return "off"
	case StateOn:
		return "on"
	case StateWarmingUp:
		return "warming_up"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the state as its display name.
func (s PowerState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// sample is one temperature observation.
type sample struct {
	at   time.Time
	temp float64
}

// EstimatorOptions configures an Estimator. The zero value is usable.
type EstimatorOptions struct {
	// TargetTemp is the boiler's operating temperature. Defaults to
	// DefaultTargetTemp.
	TargetTemp float64

	// WindowSize is the sliding window length. Defaults to
	// DefaultWindowSize.
	WindowSize int
}

// Estimator derives a power state from a sliding window of boiler
// temperature samples.
type Estimator struct {
	target float64
	window int

	mu         sync.Mutex
	samples    []sample
	state      PowerState
	lastChange time.Time
}

// NewEstimator returns an estimator in StateUnknown.
func NewEstimator(opts EstimatorOptions) *Estimator {
	if opts.TargetTemp <= 0 {
		opts.TargetTemp = DefaultTargetTemp
	}
	if opts.WindowSize <= 0 {
		opts.WindowSize = DefaultWindowSize
	}
	return &Estimator{
		target:     opts.TargetTemp,
		window:     opts.WindowSize,
		state:      StateUnknown,
		lastChange: time.Now(),
	}
}

// AddSample feeds one temperature observation and returns the resulting
// state. Non-finite temperatures are dropped without touching the window.
//
// Classification, applied in order once the window holds enough samples:
//
//  1. Mean near target, or the latest sample at/above it: On.
//  2. Rising steeply with real spread: WarmingUp.
//  3. Falling and well below target: Off.
//  4. Otherwise the previous state is kept.
func (e *Estimator) AddSample(at time.Time, temp float64) PowerState {
	if math.IsNaN(temp) || math.IsInf(temp, 0) {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.state
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.samples = append(e.samples, sample{at: at, temp: temp})
	if len(e.samples) > e.window {
		e.samples = e.samples[len(e.samples)-e.window:]
	}

	if len(e.samples) < minSamples {
		e.setLocked(StateUnknown)
		return e.state
	}

	slope, ok := e.slopeLocked()
	mean := e.meanLocked()
	stddev := e.stddevLocked(mean)
	latest := e.samples[len(e.samples)-1].temp

	switch {
	case mean >= e.target-nearTargetMargin || latest >= e.target:
		e.setLocked(StateOn)
	case ok && slope > warmingSlopeMin && stddev > warmingStddevMin:
		e.setLocked(StateWarmingUp)
	case ok && slope < coolingSlopeMax && mean < e.target-nearTargetMargin:
		e.setLocked(StateOff)
	}
	// No rule fired (or the timestamps carry no spread): keep the
	// previous state.

	return e.state
}

// SetState overrides the estimate with externally known truth, e.g.
// after a power command completes. A no-op when the state is unchanged.
func (e *Estimator) SetState(state PowerState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setLocked(state)
}

// State returns the current estimate.
func (e *Estimator) State() PowerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// IsOn reports whether the machine is drawing power (On or WarmingUp).
func (e *Estimator) IsOn() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == StateOn || e.state == StateWarmingUp
}

// LastChange returns when the state last transitioned.
func (e *Estimator) LastChange() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastChange
}

// TargetTemp returns the configured operating temperature.
func (e *Estimator) TargetTemp() float64 {
	return e.target
}

// setLocked applies a state transition. Caller holds mu.
func (e *Estimator) setLocked(state PowerState) {
	if state == e.state {
		return
	}
	e.state = state
	e.lastChange = time.Now()
}

// slopeLocked fits a least-squares line through the window and returns
// its slope in C/s. ok is false when the timestamps carry no spread
// (all samples at the same instant), in which case no trend exists.
// Caller holds mu.
func (e *Estimator) slopeLocked() (float64, bool) {
	n := float64(len(e.samples))
	base := e.samples[0].at

	var sumX, sumY, sumXY, sumXX float64
	for _, s := range e.samples {
		x := s.at.Sub(base).Seconds()
		sumX += x
		sumY += s.temp
		sumXY += x * s.temp
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, false
	}
	return (n*sumXY - sumX*sumY) / denom, true
}

// meanLocked returns the window's mean temperature. Caller holds mu.
func (e *Estimator) meanLocked() float64 {
	var sum float64
	for _, s := range e.samples {
		sum += s.temp
	}
	return sum / float64(len(e.samples))
}

// stddevLocked returns the window's sample standard deviation.
// Caller holds mu.
func (e *Estimator) stddevLocked(mean float64) float64 {
	var sum float64
	for _, s := range e.samples {
		d := s.temp - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(e.samples)-1))
}
