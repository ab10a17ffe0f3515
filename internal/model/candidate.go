package model

// Candidate is a video fetched from upstream but not yet confirmed
// persisted. It carries the counters destined for the stat series and
// the comment texts used for sentiment scoring; neither lives on the
// canonical record.
type Candidate struct {
	Video     VideoRecord
	ViewCount int64
	LikeCount int64
	Comments  []string
}
