package model

import (
	"time"
)

// SearchHistory is an append-only record of a past query and the snapshot
// of results that were returned for it. Immutable after creation.
type SearchHistory struct {
	SearchID  uint   `gorm:"primaryKey;column:search_id"`
	Query     string `gorm:"size:500;not null"`
	Timestamp time.Time
	// Results is the serialized result payload list (JSON).
	Results   string `gorm:"not null"`
	CreatedAt time.Time
}

// TableName returns the table name for SearchHistory
func (SearchHistory) TableName() string {
	return "search_history"
}
