package models

import (
	"testing"
	"time"
)

func TestAuditFilter_Matches(t *testing.T) {
	ts := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	record := AuditRecord{
		ID:        "r1",
		Timestamp: ts,
		Level:     LogLevelError,
		Category:  CategoryJournal,
		Action:    "soft_delete_entry",
		Message:   "Moving entry to Recently Deleted failed",
		Status:    StatusFailure,
		Error:     "disk full",
	}

	before := ts.Add(-time.Hour)
	after := ts.Add(time.Hour)

	tests := []struct {
		name   string
		filter AuditFilter
		want   bool
	}{
		{"empty filter matches everything", AuditFilter{}, true},
		{"matching level", AuditFilter{Levels: []LogLevel{LogLevelError}}, true},
		{"non-matching level", AuditFilter{Levels: []LogLevel{LogLevelInfo}}, false},
		{"matching category", AuditFilter{Categories: []LogCategory{CategoryJournal, CategoryStorage}}, true},
		{"non-matching category", AuditFilter{Categories: []LogCategory{CategoryAI}}, false},
		{"matching status", AuditFilter{Statuses: []LogStatus{StatusFailure}}, true},
		{"matching action", AuditFilter{Actions: []string{"soft_delete_entry"}}, true},
		{"non-matching action", AuditFilter{Actions: []string{"create_entry"}}, false},
		{"search hits message case-insensitively", AuditFilter{Search: "recently deleted"}, true},
		{"search hits error text", AuditFilter{Search: "DISK"}, true},
		{"search miss", AuditFilter{Search: "nothing here"}, false},
		{"inside time range", AuditFilter{Start: &before, End: &after}, true},
		{"before range", AuditFilter{Start: &after}, false},
		{"after range", AuditFilter{End: &before}, false},
		{
			"all predicates AND together",
			AuditFilter{
				Levels:     []LogLevel{LogLevelError},
				Categories: []LogCategory{CategoryJournal},
				Statuses:   []LogStatus{StatusFailure},
				Search:     "disk",
			},
			true,
		},
		{
			"one failing predicate fails the whole filter",
			AuditFilter{
				Levels: []LogLevel{LogLevelError},
				Search: "unrelated",
			},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(record); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}
