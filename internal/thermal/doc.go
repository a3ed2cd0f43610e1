// Package thermal infers appliance power state from boiler temperature
// telemetry.
//
// The S1 exposes no power characteristic, so the controller estimates it
// from the shape of the brew boiler's temperature curve. The estimator
// keeps a small sliding window of samples and classifies the trend:
//
//	          temperature
//	              │      ____________  ← On (near target, flat)
//	              │     /
//	              │    /   ← WarmingUp (steep rise, noisy)
//	              │   /
//	              │__/
//	   ambient →  │          \______  ← Off (falling, cold)
//	              └────────────────── time
//
// States are sticky: when no rule fires the previous state is kept, so a
// flat stretch mid-warmup does not flap the estimate. External knowledge
// (a power command that just completed) can override the estimate via
// SetState.
//
// # Thread Safety
//
// Estimator is safe for concurrent use.
package thermal
