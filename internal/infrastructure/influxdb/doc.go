// Package influxdb stores and queries Brewlink time-series data.
//
// The telemetry monitor writes through the batched non-blocking API:
//
//	boiler_temperature   tags: boiler, status   field: celsius
//	power_state          tags: from, to         field: transition
//
// WritePoint covers ad-hoc measurements such as worker counters.
// QueryTemperatureHistory reads boiler_temperature back with Flux for
// the REST history endpoint.
//
// Writes fail asynchronously; register SetOnError to see them. Tests
// that need a live server skip unless one is reachable at the default
// development URL.
package influxdb
