package ingest

import (
	"github.com/user/topic-scout/internal/analyze"
	"github.com/user/topic-scout/internal/model"
)

// Result is the derived presentation payload for one video in a search
// response. It is a pure function of the stored record plus any comment
// texts gathered during the same ingestion.
type Result struct {
	VideoID       string                 `json:"video_id"`
	Title         string                 `json:"title"`
	Channel       string                 `json:"channel"`
	URL           string                 `json:"url"`
	PublishedAt   string                 `json:"published_at,omitempty"`
	Duration      string                 `json:"duration,omitempty"`
	Summary       string                 `json:"summary"`
	TalkingPoints []string               `json:"talking_points"`
	Sentiment     analyze.SentimentScore `json:"sentiment"`
	ViewCount     int64                  `json:"view_count"`
	LikeCount     int64                  `json:"like_count"`
}

const (
	summarySentences = 3
	summaryKeywords  = 5
)

// buildResult derives the payload for a record. Comments may be nil for
// records served from the local index; sentiment is then the all-zero
// neutral default.
func buildResult(rec *model.VideoRecord, comments []string, stats *model.StatSample) Result {
	sum := analyze.Summarize(rec.Description+" "+rec.Transcript, summarySentences, summaryKeywords)

	res := Result{
		VideoID:       rec.VideoID,
		Title:         rec.Title,
		Channel:       rec.Channel,
		URL:           rec.URL,
		PublishedAt:   rec.PublishedAt,
		Duration:      rec.Duration,
		Summary:       sum.Summary,
		TalkingPoints: sum.Keywords,
		Sentiment:     analyze.Sentiment(comments),
	}
	if stats != nil {
		res.ViewCount = stats.ViewCount
		res.LikeCount = stats.LikeCount
	}
	return res
}
