package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"inkwell/internal/models"
)

// AuditSink receives audit records for storage operations. It is an
// interface so the store does not depend on the audit service that is
// itself built on top of the store.
type AuditSink interface {
	Append(record models.AuditRecord) models.AuditRecord
}

// Store persists values as pretty-printed JSON files under a data
// directory, one file per key. Saves are atomic: the value is marshaled
// first, written to a temp file, then renamed into place, so a failed
// save leaves the previously persisted value intact.
//
// Access to the same key is serialized; different keys proceed
// concurrently.
type Store struct {
	baseDir string

	mu        sync.Mutex
	locks     map[string]*sync.Mutex
	lastWrite map[string]time.Time

	sink  AuditSink
	quiet map[string]bool
}

// New creates a store rooted at baseDir, creating the directory if
// needed. Keys listed in quietKeys are exempt from audit logging; the
// audit log's own key must be quiet or every flush would audit itself.
func New(baseDir string, quietKeys ...string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", baseDir, err)
	}

	quiet := make(map[string]bool, len(quietKeys))
	for _, k := range quietKeys {
		quiet[k] = true
	}

	s := &Store{
		baseDir:   baseDir,
		locks:     make(map[string]*sync.Mutex),
		lastWrite: make(map[string]time.Time),
		quiet:     quiet,
	}

	// Initialization marker, written once (mirrors first-run detection
	// in the desktop app's storage layer)
	marker := filepath.Join(baseDir, ".init")
	if _, err := os.Stat(marker); os.IsNotExist(err) {
		payload, _ := json.Marshal(map[string]interface{}{
			"initialized": true,
			"timestamp":   time.Now().Format(time.RFC3339),
		})
		if err := os.WriteFile(marker, payload, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write init marker: %w", err)
		}
	}

	return s, nil
}

// SetAuditSink attaches the audit sink. Wired after construction since
// the audit service needs the store first.
func (s *Store) SetAuditSink(sink AuditSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

// BaseDir returns the directory the store writes into
func (s *Store) BaseDir() string {
	return s.baseDir
}

// Save serializes value and writes it under key. Either the whole write
// succeeds or the prior persisted value remains observable.
func (s *Store) Save(key string, value interface{}) error {
	s.audit(key, models.LogLevelInfo, "save", fmt.Sprintf("Saving data for key: %s", key), models.StatusPending, nil)

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		s.audit(key, models.LogLevelError, "save", fmt.Sprintf("Failed to save data for key: %s", key), models.StatusFailure, err)
		return fmt.Errorf("failed to serialize %s: %w", key, err)
	}

	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.audit(key, models.LogLevelError, "save", fmt.Sprintf("Failed to save data for key: %s", key), models.StatusFailure, err)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		s.audit(key, models.LogLevelError, "save", fmt.Sprintf("Failed to save data for key: %s", key), models.StatusFailure, err)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	s.markWritten(key)
	s.audit(key, models.LogLevelInfo, "save", fmt.Sprintf("Successfully saved data for key: %s", key), models.StatusSuccess, nil)
	return nil
}

// Load reads the value stored under key into dest. A missing key is not
// an error: it returns found=false and leaves dest untouched.
func (s *Store) Load(key string, dest interface{}) (bool, error) {
	s.audit(key, models.LogLevelInfo, "load", fmt.Sprintf("Loading data for key: %s", key), models.StatusPending, nil)

	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			s.audit(key, models.LogLevelWarning, "load", fmt.Sprintf("No data found for key: %s", key), models.StatusSuccess, nil)
			return false, nil
		}
		s.audit(key, models.LogLevelError, "load", fmt.Sprintf("Failed to load data for key: %s", key), models.StatusFailure, err)
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		s.audit(key, models.LogLevelError, "load", fmt.Sprintf("Failed to load data for key: %s", key), models.StatusFailure, err)
		return false, fmt.Errorf("failed to parse %s: %w", key, err)
	}

	s.audit(key, models.LogLevelInfo, "load", fmt.Sprintf("Successfully loaded data for key: %s", key), models.StatusSuccess, nil)
	return true, nil
}

// Remove deletes the record for key. Removing a missing key succeeds
// silently.
func (s *Store) Remove(key string) error {
	s.audit(key, models.LogLevelInfo, "remove", fmt.Sprintf("Removing data for key: %s", key), models.StatusPending, nil)

	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		s.audit(key, models.LogLevelError, "remove", fmt.Sprintf("Failed to remove data for key: %s", key), models.StatusFailure, err)
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}

	s.markWritten(key)
	s.audit(key, models.LogLevelInfo, "remove", fmt.Sprintf("Successfully removed data for key: %s", key), models.StatusSuccess, nil)
	return nil
}

// Exists reports whether a record is present for key
func (s *Store) Exists(key string) bool {
	_, err := os.Stat(s.path(key))
	return err == nil
}

// WrittenWithin reports whether the store itself wrote key within d.
// The data-dir watcher uses this to tell its own writes apart from
// external modifications.
func (s *Store) WrittenWithin(key string, d time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lastWrite[key]
	return ok && time.Since(t) <= d
}

func (s *Store) path(key string) string {
	return filepath.Join(s.baseDir, key+".json")
}

func (s *Store) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

func (s *Store) markWritten(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastWrite[key] = time.Now()
}

func (s *Store) audit(key string, level models.LogLevel, action, message string, status models.LogStatus, opErr error) {
	s.mu.Lock()
	sink := s.sink
	quiet := s.quiet[key]
	s.mu.Unlock()

	if sink == nil || quiet {
		return
	}

	rec := models.AuditRecord{
		Level:    level,
		Category: models.CategoryStorage,
		Action:   action,
		Message:  message,
		Status:   status,
		Details:  map[string]interface{}{"key": key},
	}
	if opErr != nil {
		rec.Error = opErr.Error()
	}
	sink.Append(rec)
}
