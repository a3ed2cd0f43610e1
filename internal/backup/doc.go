// Package backup persists machine state that the power choreography
// puts at risk.
//
// Turning the machine on or off works by temporarily overwriting the
// weekly schedule and jumping the appliance clock. If the process dies
// mid-sequence, the machine is left holding the override schedule and
// a fake clock. This package snapshots the real schedule to SQLite
// before each choreography run so an operator (or a future restore
// command) can recover the original programme.
//
// It also journals every power command with its outcome, giving the
// REST API a queryable history of who turned the machine on and when.
//
// Storage:
//   - schedule_backups: JSON-encoded weekly schedules, newest first
//   - power_events: one row per power command attempt
//
// Both tables are created by EnsureSchema on startup. Timestamps are
// stored as RFC3339 TEXT, matching the rest of the database.
package backup
