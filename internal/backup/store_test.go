package backup

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/brewlink/internal/bridges/s1"
	"github.com/nerrad567/brewlink/internal/infrastructure/database"
)

// openTestStore creates a store on a temporary SQLite database.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "backup_test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	store := NewStore(db.DB)
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	return store
}

// testSchedule returns a schedule with a Monday morning slot.
func testSchedule() s1.WeeklySchedule {
	var schedule s1.WeeklySchedule
	schedule.Days[0] = []s1.ScheduleSlot{
		{StartHour: 7, StartMinute: 30, EndHour: 9, EndMinute: 0, BoilerOn: true},
	}
	return schedule
}

// ─── Schema ──────────────────────────────────────────────────────────────────

func TestEnsureSchemaIdempotent(t *testing.T) {
	store := openTestStore(t)

	// Second call must not fail.
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("second EnsureSchema() error = %v", err)
	}
}

// ─── Schedule backups ────────────────────────────────────────────────────────

func TestSaveAndLatestSchedule(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	want := testSchedule()
	if err := store.SaveSchedule(ctx, want); err != nil {
		t.Fatalf("SaveSchedule() error = %v", err)
	}

	got, err := store.LatestSchedule(ctx)
	if err != nil {
		t.Fatalf("LatestSchedule() error = %v", err)
	}
	if !got.Schedule.Equal(want) {
		t.Errorf("LatestSchedule() schedule = %+v, want %+v", got.Schedule, want)
	}
	if got.ID == "" {
		t.Error("LatestSchedule() returned empty ID")
	}
	if got.CreatedAt.IsZero() {
		t.Error("LatestSchedule() returned zero CreatedAt")
	}
}

func TestLatestScheduleEmpty(t *testing.T) {
	store := openTestStore(t)

	_, err := store.LatestSchedule(context.Background())
	if !errors.Is(err, ErrNoBackups) {
		t.Errorf("LatestSchedule() error = %v, want ErrNoBackups", err)
	}
}

func TestListBackupsNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	// Insert with controlled timestamps so ordering is deterministic.
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"bkp-old", "bkp-mid", "bkp-new"} {
		insertBackupAt(t, store, id, base.Add(time.Duration(i)*time.Hour))
	}

	backups, err := store.ListBackups(ctx, 10)
	if err != nil {
		t.Fatalf("ListBackups() error = %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("ListBackups() returned %d backups, want 3", len(backups))
	}
	if backups[0].ID != "bkp-new" || backups[2].ID != "bkp-old" {
		t.Errorf("ListBackups() order = [%s %s %s], want newest first",
			backups[0].ID, backups[1].ID, backups[2].ID)
	}

	latest, err := store.LatestSchedule(ctx)
	if err != nil {
		t.Fatalf("LatestSchedule() error = %v", err)
	}
	if latest.ID != "bkp-new" {
		t.Errorf("LatestSchedule() ID = %s, want bkp-new", latest.ID)
	}
}

func TestListBackupsLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		insertBackupAt(t, store, "bkp-"+string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute))
	}

	backups, err := store.ListBackups(ctx, 2)
	if err != nil {
		t.Fatalf("ListBackups() error = %v", err)
	}
	if len(backups) != 2 {
		t.Errorf("ListBackups(limit=2) returned %d backups", len(backups))
	}
}

func TestPrune(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		insertBackupAt(t, store, "bkp-"+string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute))
	}

	removed, err := store.Prune(ctx, 2)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 3 {
		t.Errorf("Prune() removed %d rows, want 3", removed)
	}

	backups, err := store.ListBackups(ctx, 10)
	if err != nil {
		t.Fatalf("ListBackups() error = %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("after Prune() %d backups remain, want 2", len(backups))
	}
	// The two newest survive.
	if backups[0].ID != "bkp-e" || backups[1].ID != "bkp-d" {
		t.Errorf("Prune() kept [%s %s], want [bkp-e bkp-d]", backups[0].ID, backups[1].ID)
	}
}

// ─── Power events ────────────────────────────────────────────────────────────

func TestRecordAndListPowerEvents(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	events := []*PowerEvent{
		{Action: ActionPowerOn, Outcome: OutcomeOK, CreatedAt: base},
		{Action: ActionPowerOff, Outcome: OutcomeFailed, Detail: "link failure", CreatedAt: base.Add(time.Hour)},
	}
	for _, ev := range events {
		if err := store.RecordPowerEvent(ctx, ev); err != nil {
			t.Fatalf("RecordPowerEvent(%s) error = %v", ev.Action, err)
		}
		if ev.ID == "" {
			t.Errorf("RecordPowerEvent(%s) did not assign an ID", ev.Action)
		}
	}

	got, err := store.ListPowerEvents(ctx, 10)
	if err != nil {
		t.Fatalf("ListPowerEvents() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListPowerEvents() returned %d events, want 2", len(got))
	}

	// Newest first.
	if got[0].Action != ActionPowerOff {
		t.Errorf("first event action = %s, want %s", got[0].Action, ActionPowerOff)
	}
	if got[0].Outcome != OutcomeFailed || got[0].Detail != "link failure" {
		t.Errorf("first event = %+v, want failed with detail", got[0])
	}
	if got[1].Action != ActionPowerOn || got[1].Detail != "" {
		t.Errorf("second event = %+v, want ok with no detail", got[1])
	}
}

func TestRecordPowerEventGeneratesTimestamp(t *testing.T) {
	store := openTestStore(t)

	ev := &PowerEvent{Action: ActionPowerOn, Outcome: OutcomeOK}
	if err := store.RecordPowerEvent(context.Background(), ev); err != nil {
		t.Fatalf("RecordPowerEvent() error = %v", err)
	}
	if ev.CreatedAt.IsZero() {
		t.Error("RecordPowerEvent() did not assign CreatedAt")
	}
}

func TestListPowerEventsEmpty(t *testing.T) {
	store := openTestStore(t)

	got, err := store.ListPowerEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListPowerEvents() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListPowerEvents() on empty table returned %d events", len(got))
	}
}

// insertBackupAt inserts a schedule backup with an explicit timestamp,
// bypassing SaveSchedule's time.Now.
func insertBackupAt(t *testing.T, store *Store, id string, at time.Time) {
	t.Helper()

	encoded := []byte(`{"monday":[{"start":"07:30","end":"09:00","boiler_on":true}]}`)
	_, err := store.db.ExecContext(context.Background(),
		`INSERT INTO schedule_backups (id, schedule, created_at) VALUES (?, ?, ?)`,
		id, string(encoded), at.UTC().Format(time.RFC3339))
	if err != nil {
		t.Fatalf("inserting backup %s: %v", id, err)
	}
}
