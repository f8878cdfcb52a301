package services

import (
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"

	"inkwell/internal/models"
)

// TagHistoryKey is the store key the tag usage history lives under
const TagHistoryKey = "tag-history"

// TagService keeps a usage history of tags so the UI can rank and
// suggest them. History is advisory: a failed persist is logged and the
// in-memory view carries on.
type TagService struct {
	store Storage
	clock clockwork.Clock

	mu    sync.RWMutex
	stats map[string]*models.TagStat
}

// NewTagService creates the tag tracker
func NewTagService(store Storage, clock clockwork.Clock) *TagService {
	return &TagService{
		store: store,
		clock: clock,
		stats: make(map[string]*models.TagStat),
	}
}

// Initialize loads the persisted history; missing history starts empty
func (s *TagService) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats []models.TagStat
	found, err := s.store.Load(TagHistoryKey, &stats)
	if err != nil {
		log.Printf("⚠️  [TAGS] Could not load tag history, starting empty: %v", err)
		return nil
	}
	if found {
		for i := range stats {
			stat := stats[i]
			s.stats[stat.Name] = &stat
		}
		log.Printf("🏷️  [TAGS] Loaded history for %d tags", len(stats))
	}
	return nil
}

// TrackUsage bumps the counters for each tag on an entry
func (s *TagService) TrackUsage(tags []string, entryType models.EntryType) {
	if len(tags) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().UTC()
	for _, raw := range tags {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		stat, ok := s.stats[name]
		if !ok {
			stat = &models.TagStat{Name: name, ByType: make(map[string]int)}
			s.stats[name] = stat
		}
		stat.Count++
		stat.LastUsed = now
		if stat.ByType == nil {
			stat.ByType = make(map[string]int)
		}
		stat.ByType[string(entryType)]++
	}

	s.flushLocked()
}

// ListTags returns all tracked tags, most used first
func (s *TagService) ListTags() []models.TagStat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.TagStat, 0, len(s.stats))
	for _, stat := range s.stats {
		out = append(out, *stat)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Suggest returns up to limit tags matching the prefix, most used first
func (s *TagService) Suggest(prefix string, limit int) []string {
	needle := strings.ToLower(strings.TrimSpace(prefix))

	suggestions := []string{}
	for _, stat := range s.ListTags() {
		if needle != "" && !strings.HasPrefix(strings.ToLower(stat.Name), needle) {
			continue
		}
		suggestions = append(suggestions, stat.Name)
		if limit > 0 && len(suggestions) >= limit {
			break
		}
	}
	return suggestions
}

func (s *TagService) flushLocked() {
	snapshot := make([]models.TagStat, 0, len(s.stats))
	for _, stat := range s.stats {
		snapshot = append(snapshot, *stat)
	}
	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].Name < snapshot[j].Name })

	if err := s.store.Save(TagHistoryKey, snapshot); err != nil {
		log.Printf("⚠️  [TAGS] Failed to persist tag history: %v", err)
	}
}
