package influxdb

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// TemperatureSample is one historical boiler reading returned by
// QueryTemperatureHistory.
type TemperatureSample struct {
	Time        time.Time `json:"time"`
	Temperature float64   `json:"temperature"`
	Status      string    `json:"status"`
}

// QueryTemperatureHistory returns recorded boiler temperatures for the
// given boiler over the requested lookback window, oldest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - boiler: Boiler tag to filter on ("brew" or "steam")
//   - lookback: How far back to query (must be positive)
//
// Returns:
//   - []TemperatureSample: Samples in chronological order
//   - error: nil on success, otherwise the query error
func (c *Client) QueryTemperatureHistory(ctx context.Context, boiler string, lookback time.Duration) ([]TemperatureSample, error) {
	if c == nil || !c.IsConnected() {
		return nil, ErrNotConnected
	}
	if strings.TrimSpace(boiler) == "" {
		return nil, fmt.Errorf("%w: boiler is required", ErrQueryFailed)
	}
	if lookback <= 0 {
		return nil, fmt.Errorf("%w: lookback must be positive", ErrQueryFailed)
	}

	// Boiler names come from config, not user input, but quote-escape anyway.
	escaped := strings.ReplaceAll(boiler, `"`, `\"`)

	flux := fmt.Sprintf(`
from(bucket: %q)
  |> range(start: -%ds)
  |> filter(fn: (r) => r._measurement == "boiler_temperature")
  |> filter(fn: (r) => r.boiler == "%s")
  |> filter(fn: (r) => r._field == "celsius")
  |> sort(columns: ["_time"])`,
		c.cfg.Bucket, int(lookback.Seconds()), escaped)

	queryAPI := c.client.QueryAPI(c.cfg.Org)

	result, err := queryAPI.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer result.Close()

	var samples []TemperatureSample
	for result.Next() {
		record := result.Record()

		value, ok := record.Value().(float64)
		if !ok {
			continue
		}

		status, _ := record.ValueByKey("status").(string)
		samples = append(samples, TemperatureSample{
			Time:        record.Time(),
			Temperature: value,
			Status:      status,
		})
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, result.Err())
	}

	return samples, nil
}
