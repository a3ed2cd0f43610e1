// Package s1 implements the control bridge for the S1 espresso machine.
//
// The S1 exposes its functions as a small set of GATT characteristics over
// a low-energy wireless link: boiler telemetry, a weekly brew schedule, the
// machine clock, and the schedule timer switch. This package owns that link
// and provides typed, serialised access to it.
//
// # Architecture
//
// All wire traffic flows through a single connection worker goroutine:
//
//	┌──────────────┐  commands   ┌──────────────────┐   Link
//	│   Machine    │────────────►│ ConnectionWorker │◄────────► appliance
//	│ (operations) │◄────────────│  (owns the link) │
//	└──────────────┘   results   └──────────────────┘
//
// Callers enqueue commands carrying a single-use result channel; the worker
// executes them strictly in order and delivers exactly one result per
// command. A repeating poll task can be attached for telemetry sampling;
// at most one poll is active and a replacement cancels its predecessor
// before producing any samples.
//
// # Key Responsibilities
//
//   - Serialise connect/disconnect/read/write operations on the Link
//   - Encode and decode the appliance's binary characteristic formats
//   - Run the cancellable repeating poll for boiler telemetry
//   - Orchestrate the power on/off schedule-override choreography
//
// # Wire Formats
//
// The appliance's formats are fixed-size binary layouts:
//
//   - Time: 7 bytes (year-2000, month, day, reserved, hour, minute, second)
//   - Schedule: 84 bytes (7 days x 3 slots x 4 bytes, all-zero slot unused)
//   - Boiler: 4 bytes (little-endian decidegrees in bytes 0-1)
//   - Timer state: 1 byte (0x01 enabled, 0x00 disabled)
//
// # Thread Safety
//
// ConnectionWorker and Machine are safe for concurrent use. FakeLink is
// safe for concurrent use and intended for tests and simulator mode.
package s1
