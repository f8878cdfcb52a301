package services

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"inkwell/internal/models"
)

// AuditLogKey is the store key the audit log is persisted under. The
// store must treat it as a quiet key or every flush would audit itself.
const AuditLogKey = "app-logs"

// Storage is the durable store surface the services depend on. It is
// satisfied by *storage.Store; tests substitute failing stubs.
type Storage interface {
	Save(key string, value interface{}) error
	Load(key string, dest interface{}) (bool, error)
	Remove(key string) error
}

// AuditService maintains the append-only audit log: an in-memory
// newest-first slice of records, written through to the store on every
// append. Appends never fail; a flush error is logged and swallowed so
// audit trouble can never block a journal operation.
type AuditService struct {
	store Storage
	clock clockwork.Clock

	mu         sync.Mutex
	records    []models.AuditRecord // newest first
	maxRecords int
	retention  time.Duration
}

// NewAuditService creates the audit service. maxRecords caps the log
// (oldest evicted first) and retention bounds how long records survive
// the cleanup sweep.
func NewAuditService(store Storage, clock clockwork.Clock, maxRecords int, retention time.Duration) *AuditService {
	return &AuditService{
		store:      store,
		clock:      clock,
		maxRecords: maxRecords,
		retention:  retention,
	}
}

// Initialize loads previously persisted records. A missing or corrupt
// log file is not fatal; the log restarts empty.
func (s *AuditService) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []models.AuditRecord
	found, err := s.store.Load(AuditLogKey, &records)
	if err != nil {
		log.Printf("⚠️  [AUDIT] Could not load persisted log, starting empty: %v", err)
		return nil
	}
	if !found {
		log.Printf("📋 [AUDIT] No persisted log found, starting empty")
		return nil
	}

	if len(records) > s.maxRecords {
		records = records[:s.maxRecords]
	}
	s.records = records
	log.Printf("📋 [AUDIT] Loaded %d audit records", len(records))
	return nil
}

// Append materializes the record (id, timestamp, default level) and adds
// it at the head of the log. The returned record carries the assigned
// fields. Append always succeeds.
func (s *AuditService) Append(rec models.AuditRecord) models.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = uuid.NewString()
	rec.Timestamp = s.clock.Now().UTC()
	if rec.Level == "" {
		rec.Level = models.LogLevelInfo
	}
	if rec.Status == "" {
		rec.Status = models.StatusSuccess
	}

	s.records = append([]models.AuditRecord{rec}, s.records...)
	if len(s.records) > s.maxRecords {
		s.records = s.records[:s.maxRecords]
	}

	s.flushLocked()
	return rec
}

// Query returns the records matching the filter, newest first
func (s *AuditService) Query(filter models.AuditFilter) []models.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.AuditRecord, 0, len(s.records))
	for _, r := range s.records {
		if filter.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Count returns the number of records currently held
func (s *AuditService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// CleanupOldRecords drops records older than the retention window and
// returns how many were removed. Safe to run repeatedly.
func (s *AuditService) CleanupOldRecords() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.clock.Now().UTC().Add(-s.retention)
	kept := s.records[:0:0]
	for _, r := range s.records {
		if !r.Timestamp.Before(cutoff) {
			kept = append(kept, r)
		}
	}

	removed := len(s.records) - len(kept)
	if removed > 0 {
		s.records = kept
		s.flushLocked()
		log.Printf("🧹 [AUDIT] Removed %d records older than %s", removed, s.retention)
	}
	return removed
}

// Clear wipes the log, in memory and on disk
func (s *AuditService) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	if err := s.store.Remove(AuditLogKey); err != nil {
		return err
	}
	log.Printf("🧹 [AUDIT] Log cleared")
	return nil
}

// Export packages the current log for download
func (s *AuditService) Export(filter models.AuditFilter) models.AuditExport {
	entries := s.Query(filter)

	meta := models.ExportMeta{TotalEntries: len(entries)}
	if len(entries) > 0 {
		newest := entries[0].Timestamp
		oldest := entries[len(entries)-1].Timestamp
		meta.RangeStart = &oldest
		meta.RangeEnd = &newest
	}

	return models.AuditExport{
		Timestamp: s.clock.Now().UTC(),
		Entries:   entries,
		Metadata:  meta,
	}
}

// flushLocked writes the log through to the store. Failures are logged
// and swallowed: the in-memory log stays authoritative and a later
// append retries the flush.
func (s *AuditService) flushLocked() {
	snapshot := append([]models.AuditRecord(nil), s.records...)
	if err := s.store.Save(AuditLogKey, snapshot); err != nil {
		log.Printf("⚠️  [AUDIT] Failed to persist log (kept in memory): %v", err)
	}
}
