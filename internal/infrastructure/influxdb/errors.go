package influxdb

import "errors"

// Sentinel errors, matchable with errors.Is. Write-path failures do not
// appear here: the batched writer reports them through the SetOnError
// callback instead.
var (
	// ErrNotConnected indicates Connect has not succeeded yet or the
	// client was already closed.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed indicates the initial ping or health probe failed.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrDisabled indicates the integration is switched off in config.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrQueryFailed wraps Flux query failures and bad query arguments.
	ErrQueryFailed = errors.New("influxdb: query failed")
)
