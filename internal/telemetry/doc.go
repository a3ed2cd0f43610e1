// Package telemetry turns the boiler poll stream into observable state.
//
// The monitor owns one repeating poll on a boiler characteristic. Each
// sample flows through three sinks:
//
//	┌────────────┐    ┌───────────┐    ┌─ MQTT    brewlink/machine/telemetry/…
//	│ poll stream │──▶│  Monitor  │──▶├─ InfluxDB boiler_temperature
//	└────────────┘    └─────┬─────┘    └─ Snapshot (REST API reads this)
//	                        │
//	                  ┌─────▼─────┐
//	                  │ Estimator │  power state inferred from the
//	                  └───────────┘  temperature trend
//
// The machine has no power-state characteristic, so the estimator
// classifies On / WarmingUp / Off from the temperature curve. When the
// inferred state changes, the monitor publishes a retained MQTT message
// and writes a power_state transition point.
//
// MQTT and InfluxDB sinks are optional; a monitor with neither still
// maintains the snapshot for the API.
package telemetry
