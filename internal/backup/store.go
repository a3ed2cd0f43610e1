package backup

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/brewlink/internal/bridges/s1"
)

// Power event actions and outcomes.
const (
	ActionPowerOn  = "power_on"
	ActionPowerOff = "power_off"

	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// defaultListLimit bounds List queries when the caller passes zero.
const defaultListLimit = 50

// maxListLimit caps page sizes for history queries.
const maxListLimit = 200

// ScheduleBackup is one snapshot of the machine's weekly schedule.
type ScheduleBackup struct {
	ID        string            `json:"id"`
	Schedule  s1.WeeklySchedule `json:"schedule"`
	CreatedAt time.Time         `json:"created_at"`
}

// PowerEvent is one recorded power command attempt.
type PowerEvent struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Outcome   string    `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists schedule backups and power events to SQLite.
type Store struct {
	db *sql.DB
}

// Store satisfies the machine's backup dependency.
var _ s1.BackupStore = (*Store)(nil)

// NewStore creates a backup store on the given database connection.
// Call EnsureSchema before first use.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the backup tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS schedule_backups (
	id         TEXT PRIMARY KEY,
	schedule   TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_schedule_backups_created
	ON schedule_backups (created_at DESC);

CREATE TABLE IF NOT EXISTS power_events (
	id         TEXT PRIMARY KEY,
	action     TEXT NOT NULL,
	outcome    TEXT NOT NULL,
	detail     TEXT,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_power_events_created
	ON power_events (created_at DESC);`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating backup schema: %w", err)
	}
	return nil
}

// SaveSchedule snapshots a weekly schedule. Called by the machine
// before power choreography overwrites the device's schedule.
func (s *Store) SaveSchedule(ctx context.Context, schedule s1.WeeklySchedule) error {
	encoded, err := json.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("marshalling schedule: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO schedule_backups (id, schedule, created_at) VALUES (?, ?, ?)`,
		"bkp-"+uuid.NewString()[:8],
		string(encoded),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting schedule backup: %w", err)
	}
	return nil
}

// LatestSchedule returns the most recent schedule backup.
// Returns ErrNoBackups if none have been taken.
func (s *Store) LatestSchedule(ctx context.Context) (*ScheduleBackup, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, schedule, created_at FROM schedule_backups
		 ORDER BY created_at DESC, id DESC LIMIT 1`)

	b, err := scanBackup(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNoBackups
		}
		return nil, err
	}
	return b, nil
}

// ListBackups returns schedule backups, newest first.
func (s *Store) ListBackups(ctx context.Context, limit int) ([]ScheduleBackup, error) {
	limit = clampLimit(limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, schedule, created_at FROM schedule_backups
		 ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying schedule backups: %w", err)
	}
	defer rows.Close()

	backups := []ScheduleBackup{}
	for rows.Next() {
		b, err := scanBackup(rows.Scan)
		if err != nil {
			return nil, err
		}
		backups = append(backups, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating schedule backups: %w", err)
	}
	return backups, nil
}

// Prune deletes all but the newest keep backups.
// Returns the number of rows removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM schedule_backups WHERE id NOT IN (
			SELECT id FROM schedule_backups
			ORDER BY created_at DESC, id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning schedule backups: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned backups: %w", err)
	}
	return removed, nil
}

// RecordPowerEvent journals a power command attempt.
// The ID and CreatedAt are generated if empty.
func (s *Store) RecordPowerEvent(ctx context.Context, event *PowerEvent) error {
	if event.ID == "" {
		event.ID = "pwr-" + uuid.NewString()[:8]
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	var detail any
	if event.Detail != "" {
		detail = event.Detail
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO power_events (id, action, outcome, detail, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		event.ID, event.Action, event.Outcome, detail,
		event.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting power event: %w", err)
	}
	return nil
}

// ListPowerEvents returns power events, newest first.
func (s *Store) ListPowerEvents(ctx context.Context, limit int) ([]PowerEvent, error) {
	limit = clampLimit(limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, action, outcome, detail, created_at FROM power_events
		 ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying power events: %w", err)
	}
	defer rows.Close()

	events := []PowerEvent{}
	for rows.Next() {
		var ev PowerEvent
		var detail sql.NullString
		var createdAt string

		if err := rows.Scan(&ev.ID, &ev.Action, &ev.Outcome, &detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning power event: %w", err)
		}
		if detail.Valid {
			ev.Detail = detail.String
		}

		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing power event timestamp %q: %w", createdAt, err)
		}
		ev.CreatedAt = t

		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating power events: %w", err)
	}
	return events, nil
}

// scanBackup decodes one schedule_backups row from a Scan function.
func scanBackup(scan func(...any) error) (*ScheduleBackup, error) {
	var b ScheduleBackup
	var encoded, createdAt string

	if err := scan(&b.ID, &encoded, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning schedule backup: %w", err)
	}

	if err := json.Unmarshal([]byte(encoded), &b.Schedule); err != nil {
		return nil, fmt.Errorf("decoding schedule backup %s: %w", b.ID, err)
	}

	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing backup timestamp %q: %w", createdAt, err)
	}
	b.CreatedAt = t

	return &b, nil
}

// clampLimit applies the default and maximum page sizes.
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
