package s1

import "context"

// Link is the transport to the appliance's GATT surface.
//
// Implementations wrap a concrete low-energy wireless stack (or the
// in-package FakeLink simulator). The bridge never calls a Link from more
// than one goroutine: the connection worker owns it exclusively, so
// implementations do not need to be internally synchronised for the
// bridge's sake.
//
// Links do not retry. A failed operation is reported once and the caller
// decides whether to reconnect; the worker surfaces the failure to the
// originating command.
type Link interface {
	// Connect establishes the transport session to the given device
	// address. Connecting while already connected is an error; the
	// worker guarantees it never does so.
	Connect(ctx context.Context, address string) error

	// Disconnect tears the session down. Disconnecting while already
	// disconnected is a no-op.
	Disconnect(ctx context.Context) error

	// Read reads the current value of a characteristic.
	Read(ctx context.Context, c Characteristic) ([]byte, error)

	// Write writes a characteristic value. The appliance acknowledges
	// writes at the transport level; Write returns after that ack.
	Write(ctx context.Context, c Characteristic, data []byte) error

	// Connected reports the last known session state.
	Connected() bool
}

// Logger is the optional structured logger accepted by this package's
// components. Satisfied by logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}
