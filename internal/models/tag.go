package models

import "time"

// TagStat tracks how a tag has been used across entries
type TagStat struct {
	Name     string         `json:"name"`
	Count    int            `json:"count"`
	LastUsed time.Time      `json:"lastUsed"`
	ByType   map[string]int `json:"byType,omitempty"`
}
