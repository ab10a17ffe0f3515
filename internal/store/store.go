package store

import (
	"context"

	"github.com/user/topic-scout/internal/model"
)

// Store defines the interface for the durable record store and the
// append-only search history log.
type Store interface {
	// Video operations
	UpsertBatch(ctx context.Context, cands []*model.Candidate) (inserted []string, err error)
	VideosByID(ctx context.Context, ids []string) ([]*model.VideoRecord, error)
	AllVideos(ctx context.Context) ([]*model.VideoRecord, error)
	CountVideos(ctx context.Context) (int64, error)

	// Stat series
	LatestStats(ctx context.Context, ids []string) (map[string]*model.StatSample, error)
	Trend(ctx context.Context, topic string) ([]model.TrendPoint, error)

	// Retention / maintenance
	RetentionTrim(ctx context.Context, keep int) (removed []string, err error)
	Vacuum(ctx context.Context) error

	// Search history
	AddSearch(ctx context.Context, query string, results string) (uint, error)
	ListSearches(ctx context.Context) ([]*model.SearchHistory, error)
	GetSearch(ctx context.Context, searchID uint) (*model.SearchHistory, error)

	// Health check
	Ping(ctx context.Context) error
	Close() error
}
