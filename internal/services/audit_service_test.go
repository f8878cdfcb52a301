package services

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"inkwell/internal/models"
)

func newTestAudit(t *testing.T, maxRecords int, retention time.Duration) (*AuditService, *memStore, *clockwork.FakeClock) {
	t.Helper()
	store := newMemStore()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	audit := NewAuditService(store, clock, maxRecords, retention)
	if err := audit.Initialize(); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	return audit, store, clock
}

func TestAuditService_AppendMaterializesRecords(t *testing.T) {
	audit, store, clock := newTestAudit(t, 100, 7*24*time.Hour)

	rec := audit.Append(models.AuditRecord{
		Category: models.CategoryJournal,
		Action:   "create_entry",
		Message:  "Creating journal entry",
		Status:   models.StatusPending,
	})

	if rec.ID == "" {
		t.Error("expected an assigned id")
	}
	if !rec.Timestamp.Equal(clock.Now().UTC()) {
		t.Errorf("timestamp = %v, want clock time %v", rec.Timestamp, clock.Now().UTC())
	}
	if rec.Level != models.LogLevelInfo {
		t.Errorf("default level = %q, want info", rec.Level)
	}

	// Written through to the store
	var persisted []models.AuditRecord
	if !store.persisted(AuditLogKey, &persisted) {
		t.Fatal("log was not persisted")
	}
	if len(persisted) != 1 || persisted[0].ID != rec.ID {
		t.Errorf("persisted log does not match in-memory log: %+v", persisted)
	}
}

func TestAuditService_NewestFirstAndCapacityEviction(t *testing.T) {
	audit, _, clock := newTestAudit(t, 3, 7*24*time.Hour)

	for _, action := range []string{"one", "two", "three", "four", "five"} {
		audit.Append(models.AuditRecord{Category: models.CategorySystem, Action: action, Message: action})
		clock.Advance(time.Second)
	}

	records := audit.Query(models.AuditFilter{})
	if len(records) != 3 {
		t.Fatalf("expected capacity of 3, got %d records", len(records))
	}
	for i, want := range []string{"five", "four", "three"} {
		if records[i].Action != want {
			t.Errorf("records[%d].Action = %q, want %q (newest first, oldest evicted)", i, records[i].Action, want)
		}
	}
}

func TestAuditService_RetentionCleanup(t *testing.T) {
	audit, _, clock := newTestAudit(t, 100, 7*24*time.Hour)

	audit.Append(models.AuditRecord{Category: models.CategorySystem, Action: "old", Message: "old"})
	clock.Advance(8 * 24 * time.Hour)
	audit.Append(models.AuditRecord{Category: models.CategorySystem, Action: "fresh", Message: "fresh"})

	removed := audit.CleanupOldRecords()
	if removed != 1 {
		t.Fatalf("CleanupOldRecords() = %d, want 1", removed)
	}

	records := audit.Query(models.AuditFilter{})
	if len(records) != 1 || records[0].Action != "fresh" {
		t.Errorf("expected only the fresh record to survive, got %+v", records)
	}

	// Second pass has nothing left to do
	if removed := audit.CleanupOldRecords(); removed != 0 {
		t.Errorf("second cleanup removed %d records, want 0", removed)
	}
}

func TestAuditService_FlushFailureKeepsRecordsQueryable(t *testing.T) {
	audit, store, _ := newTestAudit(t, 100, 7*24*time.Hour)

	store.setFailSaves(true)
	audit.Append(models.AuditRecord{Category: models.CategoryJournal, Action: "unlucky", Message: "m"})

	records := audit.Query(models.AuditFilter{Actions: []string{"unlucky"}})
	if len(records) != 1 {
		t.Fatalf("record lost on flush failure: got %d records", len(records))
	}

	// Next successful append flushes the whole log, including the
	// record whose flush failed
	store.setFailSaves(false)
	audit.Append(models.AuditRecord{Category: models.CategoryJournal, Action: "lucky", Message: "m"})

	var persisted []models.AuditRecord
	if !store.persisted(AuditLogKey, &persisted) {
		t.Fatal("log was not persisted")
	}
	if len(persisted) != 2 {
		t.Errorf("persisted %d records, want 2", len(persisted))
	}
}

func TestAuditService_InitializeRestoresPersistedLog(t *testing.T) {
	store := newMemStore()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	first := NewAuditService(store, clock, 100, 7*24*time.Hour)
	if err := first.Initialize(); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	first.Append(models.AuditRecord{Category: models.CategorySystem, Action: "persisted", Message: "m"})

	second := NewAuditService(store, clock, 100, 7*24*time.Hour)
	if err := second.Initialize(); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	if second.Count() != 1 {
		t.Fatalf("expected 1 restored record, got %d", second.Count())
	}
}

func TestAuditService_ExportMetadata(t *testing.T) {
	audit, _, clock := newTestAudit(t, 100, 7*24*time.Hour)

	start := clock.Now().UTC()
	audit.Append(models.AuditRecord{Category: models.CategorySystem, Action: "first", Message: "m"})
	clock.Advance(time.Hour)
	end := clock.Now().UTC()
	audit.Append(models.AuditRecord{Category: models.CategorySystem, Action: "second", Message: "m"})

	export := audit.Export(models.AuditFilter{})
	if export.Metadata.TotalEntries != 2 {
		t.Errorf("TotalEntries = %d, want 2", export.Metadata.TotalEntries)
	}
	if export.Metadata.RangeStart == nil || !export.Metadata.RangeStart.Equal(start) {
		t.Errorf("RangeStart = %v, want %v", export.Metadata.RangeStart, start)
	}
	if export.Metadata.RangeEnd == nil || !export.Metadata.RangeEnd.Equal(end) {
		t.Errorf("RangeEnd = %v, want %v", export.Metadata.RangeEnd, end)
	}
}
