package services

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"inkwell/internal/models"
)

func newTestTags(t *testing.T) (*TagService, *memStore) {
	t.Helper()
	store := newMemStore()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	tags := NewTagService(store, clock)
	if err := tags.Initialize(); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	return tags, store
}

func TestTagService_TrackUsageAndRanking(t *testing.T) {
	tags, _ := newTestTags(t)

	tags.TrackUsage([]string{"work", "health"}, models.EntryTypeJournal)
	tags.TrackUsage([]string{"work"}, models.EntryTypeMemory)
	tags.TrackUsage([]string{"work", " ", ""}, models.EntryTypeJournal)

	list := tags.ListTags()
	if len(list) != 2 {
		t.Fatalf("expected 2 tags (blank ones skipped), got %d", len(list))
	}
	if list[0].Name != "work" || list[0].Count != 3 {
		t.Errorf("most used first: got %q with count %d", list[0].Name, list[0].Count)
	}
	if list[0].ByType[string(models.EntryTypeMemory)] != 1 {
		t.Errorf("per-type counts wrong: %+v", list[0].ByType)
	}
}

func TestTagService_Suggest(t *testing.T) {
	tags, _ := newTestTags(t)
	tags.TrackUsage([]string{"work", "workout", "family"}, models.EntryTypeJournal)
	tags.TrackUsage([]string{"work"}, models.EntryTypeJournal)

	got := tags.Suggest("wor", 10)
	if len(got) != 2 || got[0] != "work" || got[1] != "workout" {
		t.Errorf("Suggest(wor) = %v, want [work workout]", got)
	}

	if got := tags.Suggest("", 1); len(got) != 1 {
		t.Errorf("limit not honored: %v", got)
	}
	if got := tags.Suggest("zzz", 10); len(got) != 0 {
		t.Errorf("no matches expected, got %v", got)
	}
}

func TestTagService_HistorySurvivesRestart(t *testing.T) {
	tags, store := newTestTags(t)
	tags.TrackUsage([]string{"travel"}, models.EntryTypeMemory)

	reloaded := NewTagService(store, clockwork.NewFakeClockAt(time.Now()))
	if err := reloaded.Initialize(); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}

	list := reloaded.ListTags()
	if len(list) != 1 || list[0].Name != "travel" || list[0].Count != 1 {
		t.Errorf("history not restored: %+v", list)
	}
}
