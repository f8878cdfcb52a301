package models

import (
	"strings"
	"time"
)

// LogLevel is the severity of an audit record
type LogLevel string

const (
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
	LogLevelDebug   LogLevel = "debug"
)

// LogCategory is the operational domain an audit record belongs to
type LogCategory string

const (
	CategoryStorage     LogCategory = "storage"
	CategoryJournal     LogCategory = "journal"
	CategoryAI          LogCategory = "ai"
	CategorySystem      LogCategory = "system"
	CategorySearch      LogCategory = "search"
	CategoryPerformance LogCategory = "performance"
	CategoryNavigation  LogCategory = "navigation"
)

// LogStatus is the outcome of the operation attempt the record describes.
// A single logical operation emits a pending record followed by a
// terminal success or failure record.
type LogStatus string

const (
	StatusPending LogStatus = "pending"
	StatusSuccess LogStatus = "success"
	StatusFailure LogStatus = "failure"
)

// AuditRecord is one immutable entry in the append-only audit log
type AuditRecord struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Level     LogLevel               `json:"level"`
	Category  LogCategory            `json:"category"`
	Action    string                 `json:"action"`
	Message   string                 `json:"message"`
	Status    LogStatus              `json:"status"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// AuditFilter selects audit records; all set predicates compose with AND
type AuditFilter struct {
	Levels     []LogLevel
	Categories []LogCategory
	Statuses   []LogStatus
	Actions    []string
	Search     string
	Start      *time.Time
	End        *time.Time
}

// Matches reports whether the record satisfies every set predicate
func (f AuditFilter) Matches(r AuditRecord) bool {
	if len(f.Levels) > 0 && !containsLevel(f.Levels, r.Level) {
		return false
	}
	if len(f.Categories) > 0 && !containsCategory(f.Categories, r.Category) {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, r.Status) {
		return false
	}
	if len(f.Actions) > 0 {
		found := false
		for _, a := range f.Actions {
			if a == r.Action {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(r.Message), needle) &&
			!strings.Contains(strings.ToLower(r.Action), needle) &&
			!strings.Contains(strings.ToLower(r.Error), needle) {
			return false
		}
	}
	if f.Start != nil && r.Timestamp.Before(*f.Start) {
		return false
	}
	if f.End != nil && r.Timestamp.After(*f.End) {
		return false
	}
	return true
}

func containsLevel(levels []LogLevel, l LogLevel) bool {
	for _, v := range levels {
		if v == l {
			return true
		}
	}
	return false
}

func containsCategory(categories []LogCategory, c LogCategory) bool {
	for _, v := range categories {
		if v == c {
			return true
		}
	}
	return false
}

func containsStatus(statuses []LogStatus, s LogStatus) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

// AuditExport is the envelope produced by the log export endpoint
type AuditExport struct {
	Timestamp time.Time     `json:"timestamp"`
	Entries   []AuditRecord `json:"entries"`
	Metadata  ExportMeta    `json:"metadata"`
}

// ExportMeta summarizes an export payload
type ExportMeta struct {
	TotalEntries int        `json:"totalEntries"`
	RangeStart   *time.Time `json:"rangeStart,omitempty"`
	RangeEnd     *time.Time `json:"rangeEnd,omitempty"`
}
