package model

import (
	"time"
)

// VideoRecord is the canonical metadata row for a single video.
// Rows are append-only: the first insert for a VideoID wins and later
// fetches of the same id never overwrite it.
type VideoRecord struct {
	VideoID     string `gorm:"primaryKey;size:20"`
	Title       string `gorm:"size:500;index"`
	Channel     string `gorm:"size:200;index"`
	ChannelID   string `gorm:"size:50"`
	URL         string `gorm:"size:500"`
	Description string
	Transcript  string
	PublishedAt string `gorm:"size:40"`
	// Duration is the ISO-8601 period string as reported upstream (e.g. PT4M13S).
	Duration  string `gorm:"size:20"`
	FetchedAt time.Time
	CreatedAt time.Time
}

// TableName returns the table name for VideoRecord
func (VideoRecord) TableName() string {
	return "videos"
}

// SearchText returns the text blob entered into the full-text index for
// this record: title, description and transcript concatenated.
func (v *VideoRecord) SearchText() string {
	return v.Title + " " + v.Description + " " + v.Transcript
}
