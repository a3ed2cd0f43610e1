package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteBoilerSample writes one boiler temperature sample.
//
// This is the primary method for recording machine telemetry.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - boiler: Which boiler the sample came from ("brew_boiler", "steam_boiler")
//   - temperature: Temperature in degrees Celsius
//   - status: Decoded boiler status text ("heating", "at temperature", "idle")
//   - at: When the sample was taken
//
// Example:
//
//	client.WriteBoilerSample("brew_boiler", 93.5, "heating", time.Now())
func (c *Client) WriteBoilerSample(boiler string, temperature float64, status string, at time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"boiler_temperature",
		map[string]string{
			"boiler": boiler,
			"status": status,
		},
		map[string]interface{}{
			"celsius": temperature,
		},
		at,
	)

	c.writeAPI.WritePoint(point)
}

// WritePowerTransition records an estimated power state change.
//
// Used for building warmup/usage history: how often the machine runs,
// how long warmup takes, when it was last used.
//
// Parameters:
//   - from: Previous power state name
//   - to: New power state name
//   - at: When the transition was observed
func (c *Client) WritePowerTransition(from, to string, at time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"power_state",
		map[string]string{
			"from": from,
			"to":   to,
		},
		map[string]interface{}{
			// A field is required; the transition itself is the datum.
			"transition": 1,
		},
		at,
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("worker_stats",
//	    map[string]string{"machine": "kitchen-s1"},
//	    map[string]interface{}{"commands": 120, "failures": 2})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
