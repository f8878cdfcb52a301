package storage

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"inkwell/internal/models"
)

type recordingSink struct {
	mu      sync.Mutex
	records []models.AuditRecord
}

func (s *recordingSink) Append(record models.AuditRecord) models.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return record
}

func (s *recordingSink) forKey(key string) []models.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AuditRecord
	for _, r := range s.records {
		if r.Details["key"] == key {
			out = append(out, r)
		}
	}
	return out
}

func TestStore_SaveAndLoadRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	saved := map[string]string{"greeting": "hello"}
	if err := store.Save("settings", saved); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	var loaded map[string]string
	found, err := store.Load("settings", &loaded)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !found {
		t.Fatal("expected key to be found")
	}
	if loaded["greeting"] != "hello" {
		t.Errorf("loaded %v, want the saved value back", loaded)
	}
}

func TestStore_LoadMissingKeyIsNotAnError(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	var dest map[string]string
	found, err := store.Load("never-saved", &dest)
	if err != nil {
		t.Fatalf("Load() of missing key returned error: %v", err)
	}
	if found {
		t.Error("expected found=false for a missing key")
	}
	if dest != nil {
		t.Error("dest should be untouched for a missing key")
	}
}

func TestStore_RemoveIsIdempotent(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if err := store.Save("doomed", []string{"x"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := store.Remove("doomed"); err != nil {
		t.Fatalf("first Remove() error: %v", err)
	}
	if err := store.Remove("doomed"); err != nil {
		t.Errorf("second Remove() should succeed silently, got: %v", err)
	}
	if store.Exists("doomed") {
		t.Error("key should be gone after Remove")
	}
}

func TestStore_FailedSaveLeavesPriorValueIntact(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if err := store.Save("data", map[string]int{"v": 1}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	// Channels are not JSON-serializable, so this save must fail before
	// anything touches the file
	if err := store.Save("data", map[string]interface{}{"bad": make(chan int)}); err == nil {
		t.Fatal("expected save of unserializable value to fail")
	}

	var loaded map[string]int
	found, err := store.Load("data", &loaded)
	if err != nil || !found {
		t.Fatalf("Load() after failed save: found=%v err=%v", found, err)
	}
	if loaded["v"] != 1 {
		t.Errorf("prior value corrupted: got %v", loaded)
	}
}

func TestStore_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := store.Save("clean", "value"); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if err != nil {
		t.Fatalf("Glob() error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}

func TestStore_ConcurrentSavesToSameKey(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if err := store.Save("contended", []int{n}); err != nil {
				t.Errorf("Save() error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	// Whatever write won, the file must hold one complete value
	var loaded []int
	found, err := store.Load("contended", &loaded)
	if err != nil || !found {
		t.Fatalf("Load() after concurrent saves: found=%v err=%v", found, err)
	}
	if len(loaded) != 1 {
		t.Errorf("expected one complete value, got %v", loaded)
	}
}

func TestStore_AuditsOperationsButSkipsQuietKeys(t *testing.T) {
	store, err := New(t.TempDir(), "quiet-log")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	sink := &recordingSink{}
	store.SetAuditSink(sink)

	if err := store.Save("normal", "v"); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := store.Save("quiet-log", "v"); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	normal := sink.forKey("normal")
	if len(normal) != 2 {
		t.Fatalf("expected pending+success records for normal key, got %d", len(normal))
	}
	if normal[0].Status != models.StatusPending || normal[1].Status != models.StatusSuccess {
		t.Errorf("expected pending then success, got %s then %s", normal[0].Status, normal[1].Status)
	}

	if quiet := sink.forKey("quiet-log"); len(quiet) != 0 {
		t.Errorf("quiet key should not be audited, got %d records", len(quiet))
	}
}

func TestStore_WrittenWithin(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if store.WrittenWithin("fresh", selfWriteGrace) {
		t.Error("key never written should not register as a self-write")
	}
	if err := store.Save("fresh", "v"); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if !store.WrittenWithin("fresh", selfWriteGrace) {
		t.Error("a just-saved key should register as a self-write")
	}
}

func TestNew_CreatesDataDirAndInitMarker(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	if _, err := New(dir); err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".init")); err != nil {
		t.Errorf("init marker missing: %v", err)
	}
}
