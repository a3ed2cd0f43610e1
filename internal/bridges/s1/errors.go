package s1

import "errors"

// Domain errors for the S1 appliance bridge package.
var (
	// ErrNotConnected is returned when an operation requires a link
	// connection but none is established.
	ErrNotConnected = errors.New("s1: not connected to appliance")

	// ErrConnectionFailed is returned when establishing the link fails.
	ErrConnectionFailed = errors.New("s1: connection failed")

	// ErrLinkFailure is returned when a read or write on the link fails.
	ErrLinkFailure = errors.New("s1: link operation failed")

	// ErrMalformedPayload is returned when a characteristic payload is
	// too short or otherwise cannot be decoded.
	ErrMalformedPayload = errors.New("s1: malformed payload")

	// ErrUnsupportedOperation is returned when writing to a read-only
	// characteristic (the boiler telemetry characteristics).
	ErrUnsupportedOperation = errors.New("s1: unsupported operation")

	// ErrUnknownCharacteristic is returned when a characteristic ID is
	// not in the appliance's known characteristic table.
	ErrUnknownCharacteristic = errors.New("s1: unknown characteristic")

	// ErrWorkerStopped is returned for commands issued to a stopped
	// connection worker, and for commands drained during shutdown.
	ErrWorkerStopped = errors.New("s1: connection worker stopped")
)
