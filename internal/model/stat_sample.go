package model

import (
	"time"
)

// StatSample is one timestamped observation of a video's counters.
// The series is append-only: every ingestion of a video adds a sample,
// whether or not the VideoRecord already existed.
type StatSample struct {
	ID        uint   `gorm:"primaryKey"`
	VideoID   string `gorm:"index;size:20;not null"`
	FetchedAt time.Time
	ViewCount int64
	LikeCount int64
	CreatedAt time.Time
}

// TableName returns the table name for StatSample
func (StatSample) TableName() string {
	return "video_stats"
}

// TrendPoint is one point of a topic trend curve, reconstructed from the
// stat sample series.
type TrendPoint struct {
	FetchedAt time.Time `json:"date"`
	ViewCount int64     `json:"views"`
}
