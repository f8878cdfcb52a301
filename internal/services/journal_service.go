package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/patrickmn/go-cache"

	"inkwell/internal/models"
)

// JournalEntriesKey is the store key the entry collection lives under
const JournalEntriesKey = "journal-entries"

// Notifier pushes toast notifications to connected UI clients
type Notifier interface {
	Notify(n models.Notification)
}

// Analyzer produces content analysis for an entry. Analysis is
// opportunistic: a slow or failing analyzer never blocks an operation.
type Analyzer interface {
	AnalyzeEntry(ctx context.Context, entry models.JournalEntry) (*models.AIAnalysis, error)
}

// TagTracker records tag usage as entries are created and edited
type TagTracker interface {
	TrackUsage(tags []string, entryType models.EntryType)
}

type undoRecord struct {
	EntryID   string
	ExpiresAt time.Time
}

// JournalService is the entry registry. It owns the canonical in-memory
// collection, drives every lifecycle transition through the same
// protocol (compute next value, write the whole collection through to
// the store, audit pending plus terminal), and schedules expiry of
// soft-deleted entries.
//
// A single mutex serializes mutations; reads take the shared lock and
// hand out deep copies only.
type JournalService struct {
	store      Storage
	audit      *AuditService
	clock      clockwork.Clock
	retention  time.Duration
	undoWindow time.Duration

	notifier Notifier
	analyzer Analyzer
	tags     TagTracker

	mu      sync.RWMutex
	entries []models.JournalEntry

	// timers holds the best-effort per-entry expiry timers; the clock
	// sweep is the source of truth when a timer misfires or the process
	// was down when one would have fired
	timers     map[string]*time.Timer
	undoTokens *cache.Cache
}

// NewJournalService creates the registry. retention is how long a
// soft-deleted entry stays recoverable; undoWindow is how long the
// returned undo token remains valid.
func NewJournalService(store Storage, audit *AuditService, clock clockwork.Clock, retention, undoWindow time.Duration) *JournalService {
	return &JournalService{
		store:      store,
		audit:      audit,
		clock:      clock,
		retention:  retention,
		undoWindow: undoWindow,
		timers:     make(map[string]*time.Timer),
		undoTokens: cache.New(2*undoWindow, time.Minute),
	}
}

// SetNotifier attaches the toast notifier (optional)
func (s *JournalService) SetNotifier(n Notifier) { s.notifier = n }

// SetAnalyzer attaches the content analyzer (optional)
func (s *JournalService) SetAnalyzer(a Analyzer) { s.analyzer = a }

// SetTagTracker attaches the tag usage tracker (optional)
func (s *JournalService) SetTagTracker(t TagTracker) { s.tags = t }

// Initialize loads the persisted collection, upgrades any entries still
// in a legacy shape, and re-arms expiry timers for entries that were
// recently deleted when the process last stopped. The normalized
// collection is persisted at most once, no matter how many entries
// needed fixing.
func (s *JournalService) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []models.JournalEntry
	found, err := s.store.Load(JournalEntriesKey, &entries)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !found {
		log.Printf("📔 [JOURNAL] No persisted entries, starting fresh")
		s.entries = []models.JournalEntry{}
		return nil
	}

	changed := false
	for i := range entries {
		if entries[i].Normalize() {
			changed = true
		}
		if entries[i].Tags == nil {
			entries[i].Tags = []string{}
			changed = true
		}
	}
	s.entries = entries

	if changed {
		if err := s.store.Save(JournalEntriesKey, entries); err != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		s.audit.Append(models.AuditRecord{
			Level:    models.LogLevelInfo,
			Category: models.CategoryJournal,
			Action:   "normalize_entries",
			Message:  "Upgraded legacy entries to the current lifecycle model",
			Status:   models.StatusSuccess,
			Details:  map[string]interface{}{"total": len(entries)},
		})
	}

	now := s.clock.Now().UTC()
	for _, e := range entries {
		if e.State == models.EntryStateRecentlyDeleted && e.DeletedAt != nil {
			if remaining := e.DeletedAt.Add(s.retention).Sub(now); remaining > 0 {
				s.armTimerLocked(e.ID, remaining)
			}
		}
	}

	log.Printf("📔 [JOURNAL] Loaded %d entries", len(entries))
	s.refreshGaugesLocked()
	return nil
}

// Close stops all pending expiry timers
func (s *JournalService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// CreateEntryInput carries the fields for a new entry
type CreateEntryInput struct {
	Title   string           `json:"title"`
	Content string           `json:"content"`
	Type    models.EntryType `json:"type"`
	Mood    string           `json:"mood"`
	Tags    []string         `json:"tags"`
}

// CreateEntry adds a new active entry and returns a copy of it
func (s *JournalService) CreateEntry(in CreateEntryInput) (*models.JournalEntry, error) {
	if strings.TrimSpace(in.Title) == "" && strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("%w: entry needs a title or content", ErrValidation)
	}
	if in.Type == "" {
		in.Type = models.EntryTypeJournal
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown entry type %q", ErrValidation, in.Type)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().UTC()
	entry := models.JournalEntry{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Content:   in.Content,
		Type:      in.Type,
		Mood:      in.Mood,
		Tags:      append([]string{}, in.Tags...),
		CreatedAt: now,
		UpdatedAt: now,
		State:     models.EntryStateActive,
	}

	finish := s.beginTransition("create_entry", "Creating journal entry", entry.ID)
	next := append(s.cloneSliceLocked(), entry)
	if err := s.store.Save(JournalEntriesKey, next); err != nil {
		finish(err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	s.entries = next
	finish(nil)
	s.refreshGaugesLocked()

	if s.tags != nil {
		s.tags.TrackUsage(entry.Tags, entry.Type)
	}
	s.analyzeAsync(entry)

	out := entry.Clone()
	return &out, nil
}

// UpdateEntryInput carries a partial edit; nil fields are left untouched
type UpdateEntryInput struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Mood    *string   `json:"mood"`
	Tags    *[]string `json:"tags"`
}

// UpdateEntry applies a field edit to an entry in any state and bumps
// updatedAt. The entry type is immutable.
func (s *JournalService) UpdateEntry(id string, in UpdateEntryInput) (*models.JournalEntry, error) {
	if in.Title == nil && in.Content == nil && in.Mood == nil && in.Tags == nil {
		return nil, fmt.Errorf("%w: no fields to update", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	updated := s.entries[idx].Clone()
	if in.Title != nil {
		updated.Title = *in.Title
	}
	if in.Content != nil {
		updated.Content = *in.Content
	}
	if in.Mood != nil {
		updated.Mood = *in.Mood
	}
	if in.Tags != nil {
		updated.Tags = append([]string{}, (*in.Tags)...)
	}
	updated.UpdatedAt = s.laterOf(updated.UpdatedAt)

	finish := s.beginTransition("update_entry", "Updating journal entry", id)
	if err := s.commitLocked(idx, updated, finish); err != nil {
		return nil, err
	}

	if s.tags != nil && in.Tags != nil {
		s.tags.TrackUsage(updated.Tags, updated.Type)
	}

	out := updated.Clone()
	return &out, nil
}

// SoftDeleteEntry moves an active entry to recently_deleted, arms its
// expiry timer, and returns an undo handle valid for the undo window
func (s *JournalService) SoftDeleteEntry(id string) (*models.UndoHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	cur := s.entries[idx]
	if cur.State != models.EntryStateActive {
		return nil, fmt.Errorf("%w: entry is %s, only active entries can be deleted", ErrValidation, cur.State)
	}

	now := s.clock.Now().UTC()
	updated := cur.Clone()
	updated.State = models.EntryStateRecentlyDeleted
	deletedAt := now
	updated.DeletedAt = &deletedAt
	updated.UpdatedAt = s.laterOf(updated.UpdatedAt)

	finish := s.beginTransition("soft_delete_entry", "Moving entry to Recently Deleted", id)
	if err := s.commitLocked(idx, updated, finish); err != nil {
		return nil, err
	}

	s.armTimerLocked(id, s.retention)

	token := uuid.NewString()
	handle := &models.UndoHandle{Token: token, EntryID: id, ExpiresAt: now.Add(s.undoWindow)}
	s.undoTokens.Set(token, undoRecord{EntryID: id, ExpiresAt: handle.ExpiresAt}, cache.DefaultExpiration)

	s.notify(models.Notification{
		Message:   "Entry moved to Recently Deleted",
		Duration:  s.undoWindow,
		ShowUndo:  true,
		UndoToken: token,
	})
	return handle, nil
}

// Undo replays the restore for a soft delete if the token is still
// valid. An unknown or expired token, or an entry that has since moved
// on, is a silent no-op: undo after the window is never an error.
func (s *JournalService) Undo(token string) error {
	v, ok := s.undoTokens.Get(token)
	if !ok {
		return nil
	}
	rec := v.(undoRecord)
	s.undoTokens.Delete(token)
	if s.clock.Now().After(rec.ExpiresAt) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(rec.EntryID)
	if idx < 0 || s.entries[idx].State != models.EntryStateRecentlyDeleted {
		return nil
	}
	return s.restoreLocked(idx, "undo_soft_delete")
}

// RestoreEntry brings a recently deleted or hidden entry back to active
func (s *JournalService) RestoreEntry(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if s.entries[idx].State == models.EntryStateActive {
		return fmt.Errorf("%w: entry is already active", ErrValidation)
	}
	return s.restoreLocked(idx, "restore_entry")
}

// HideEntry moves a recently deleted entry to hidden ahead of its
// expiry. deletedAt is kept so the record of when it was deleted survives.
func (s *JournalService) HideEntry(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if s.entries[idx].State != models.EntryStateRecentlyDeleted {
		return fmt.Errorf("%w: only recently deleted entries can be hidden", ErrValidation)
	}
	if err := s.hideLocked(idx, "hide_entry"); err != nil {
		return err
	}
	s.notify(models.Notification{Message: "Entry hidden", Duration: 4 * time.Second})
	return nil
}

// PermanentlyDeleteEntry removes an entry outright, from any state
func (s *JournalService) PermanentlyDeleteEntry(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	finish := s.beginTransition("permanently_delete_entry", "Permanently deleting entry", id)
	next := s.cloneSliceLocked()
	next = append(next[:idx], next[idx+1:]...)
	if err := s.store.Save(JournalEntriesKey, next); err != nil {
		finish(err)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	s.entries = next
	finish(nil)
	s.stopTimerLocked(id)
	s.refreshGaugesLocked()

	s.notify(models.Notification{Message: "Entry permanently deleted", Duration: 4 * time.Second})
	return nil
}

// AttachAnalysis stores an analysis result on an entry
func (s *JournalService) AttachAnalysis(id string, analysis *models.AIAnalysis) error {
	if analysis == nil {
		return fmt.Errorf("%w: nil analysis", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	updated := s.entries[idx].Clone()
	a := *analysis
	updated.AIAnalysis = &a
	updated.UpdatedAt = s.laterOf(updated.UpdatedAt)

	finish := s.beginTransition("attach_analysis", "Attaching analysis to entry", id)
	return s.commitLocked(idx, updated, finish)
}

// CheckDeletedEntries is the expiry sweep: every recently deleted entry
// whose deletedAt is older than the retention window is moved to hidden.
// Each expired entry goes through the same write-through and audit path
// as any other transition. Idempotent; returns how many entries moved.
func (s *JournalService) CheckDeletedEntries() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.clock.Now().UTC().Add(-s.retention)
	moved := 0
	for i := 0; i < len(s.entries); i++ {
		e := s.entries[i]
		if e.State != models.EntryStateRecentlyDeleted || e.DeletedAt == nil {
			continue
		}
		if e.DeletedAt.After(cutoff) {
			continue
		}
		if err := s.hideLocked(i, "expire_entry"); err != nil {
			return moved, err
		}
		moved++
	}

	if moved > 0 {
		log.Printf("🧹 [LIFECYCLE] Sweep moved %d expired entries to hidden", moved)
	}
	return moved, nil
}

// ListActive returns copies of the active entries in insertion order
func (s *JournalService) ListActive() []models.JournalEntry {
	return s.listByState(models.EntryStateActive)
}

// ListRecentlyDeleted returns copies of the recently deleted entries
func (s *JournalService) ListRecentlyDeleted() []models.JournalEntry {
	return s.listByState(models.EntryStateRecentlyDeleted)
}

// ListHidden returns copies of the hidden entries
func (s *JournalService) ListHidden() []models.JournalEntry {
	return s.listByState(models.EntryStateHidden)
}

// GetEntry returns a copy of one entry regardless of state
func (s *JournalService) GetEntry(id string) (*models.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.ID == id {
			out := e.Clone()
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Counts returns how many entries are in each lifecycle state
func (s *JournalService) Counts() map[models.EntryState]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[models.EntryState]int{
		models.EntryStateActive:          0,
		models.EntryStateRecentlyDeleted: 0,
		models.EntryStateHidden:          0,
	}
	for _, e := range s.entries {
		counts[e.State]++
	}
	return counts
}

func (s *JournalService) listByState(state models.EntryState) []models.JournalEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.JournalEntry{}
	for _, e := range s.entries {
		if e.State == state {
			out = append(out, e.Clone())
		}
	}
	return out
}

// restoreLocked performs the shared restore transition: back to active,
// deletedAt cleared, timer cancelled
func (s *JournalService) restoreLocked(idx int, action string) error {
	updated := s.entries[idx].Clone()
	updated.State = models.EntryStateActive
	updated.DeletedAt = nil
	updated.UpdatedAt = s.laterOf(updated.UpdatedAt)

	finish := s.beginTransition(action, "Restoring entry", updated.ID)
	if err := s.commitLocked(idx, updated, finish); err != nil {
		return err
	}
	s.stopTimerLocked(updated.ID)
	s.notify(models.Notification{Message: "Entry restored", Duration: 4 * time.Second})
	return nil
}

// hideLocked performs the shared hide transition, keeping deletedAt
func (s *JournalService) hideLocked(idx int, action string) error {
	updated := s.entries[idx].Clone()
	updated.State = models.EntryStateHidden
	updated.UpdatedAt = s.laterOf(updated.UpdatedAt)

	finish := s.beginTransition(action, "Hiding entry", updated.ID)
	if err := s.commitLocked(idx, updated, finish); err != nil {
		return err
	}
	s.stopTimerLocked(updated.ID)
	return nil
}

// commitLocked writes the collection with entry idx replaced by updated.
// On save failure the in-memory collection is left untouched, so memory
// and disk stay consistent.
func (s *JournalService) commitLocked(idx int, updated models.JournalEntry, finish func(error)) error {
	next := s.cloneSliceLocked()
	next[idx] = updated
	if err := s.store.Save(JournalEntriesKey, next); err != nil {
		finish(err)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	s.entries = next
	finish(nil)
	s.refreshGaugesLocked()
	return nil
}

// beginTransition appends the pending audit record and returns the
// closure that appends the matching terminal record
func (s *JournalService) beginTransition(action, message, entryID string) func(err error) {
	s.audit.Append(models.AuditRecord{
		Level:    models.LogLevelInfo,
		Category: models.CategoryJournal,
		Action:   action,
		Message:  message,
		Status:   models.StatusPending,
		Details:  map[string]interface{}{"entryId": entryID},
	})

	return func(err error) {
		rec := models.AuditRecord{
			Category: models.CategoryJournal,
			Action:   action,
			Details:  map[string]interface{}{"entryId": entryID},
		}
		if err != nil {
			rec.Level = models.LogLevelError
			rec.Status = models.StatusFailure
			rec.Message = message + " failed"
			rec.Error = err.Error()
			persistenceFailures.Inc()
			s.notify(models.Notification{Message: message + " failed", Duration: 6 * time.Second})
		} else {
			rec.Level = models.LogLevelInfo
			rec.Status = models.StatusSuccess
			rec.Message = message + " succeeded"
		}
		s.audit.Append(rec)
		lifecycleTransitions.WithLabelValues(action, string(rec.Status)).Inc()
	}
}

// expireEntry is the per-entry timer callback. The timer is only a
// hint: state and elapsed time are re-checked under the lock before
// anything happens, so a stale timer cannot misfire.
func (s *JournalService) expireEntry(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(id)
	if idx < 0 {
		return
	}
	cur := s.entries[idx]
	if cur.State != models.EntryStateRecentlyDeleted || cur.DeletedAt == nil {
		return
	}
	if s.clock.Now().UTC().Sub(*cur.DeletedAt) < s.retention {
		return
	}
	if err := s.hideLocked(idx, "expire_entry"); err != nil {
		log.Printf("⚠️  [LIFECYCLE] Timer expiry for entry %s failed, sweep will retry: %v", id, err)
	}
}

func (s *JournalService) armTimerLocked(id string, d time.Duration) {
	if t, ok := s.timers[id]; ok {
		t.Stop()
	}
	s.timers[id] = time.AfterFunc(d, func() { s.expireEntry(id) })
}

func (s *JournalService) stopTimerLocked(id string) {
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *JournalService) indexOfLocked(id string) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (s *JournalService) cloneSliceLocked() []models.JournalEntry {
	return append([]models.JournalEntry(nil), s.entries...)
}

// laterOf returns the clock's now unless the entry already carries a
// later updatedAt, keeping the timestamp monotonic per entry
func (s *JournalService) laterOf(prev time.Time) time.Time {
	now := s.clock.Now().UTC()
	if now.After(prev) {
		return now
	}
	return prev
}

func (s *JournalService) notify(n models.Notification) {
	if s.notifier == nil {
		return
	}
	n.ID = uuid.NewString()
	n.DurationMS = n.Duration.Milliseconds()
	notificationsSent.Inc()
	s.notifier.Notify(n)
}

func (s *JournalService) analyzeAsync(entry models.JournalEntry) {
	if s.analyzer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		analysis, err := s.analyzer.AnalyzeEntry(ctx, entry)
		if err != nil {
			log.Printf("⚠️  [AI] Analysis failed for entry %s: %v", entry.ID, err)
			s.audit.Append(models.AuditRecord{
				Level:    models.LogLevelWarning,
				Category: models.CategoryAI,
				Action:   "analyze_entry",
				Message:  "Content analysis failed",
				Status:   models.StatusFailure,
				Details:  map[string]interface{}{"entryId": entry.ID},
				Error:    err.Error(),
			})
			return
		}
		if analysis == nil {
			return
		}
		if err := s.AttachAnalysis(entry.ID, analysis); err != nil {
			log.Printf("⚠️  [AI] Could not attach analysis to entry %s: %v", entry.ID, err)
		}
	}()
}

// refreshGaugesLocked publishes the per-state entry counts to metrics
func (s *JournalService) refreshGaugesLocked() {
	counts := map[models.EntryState]int{
		models.EntryStateActive:          0,
		models.EntryStateRecentlyDeleted: 0,
		models.EntryStateHidden:          0,
	}
	for _, e := range s.entries {
		counts[e.State]++
	}
	for state, n := range counts {
		entriesByState.WithLabelValues(string(state)).Set(float64(n))
	}
}
