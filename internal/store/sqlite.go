package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/user/topic-scout/internal/config"
	"github.com/user/topic-scout/internal/model"
)

// SQLiteStore implements Store on an embedded SQLite database.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens (creating if needed) the database file and
// migrates the schema. WAL and NORMAL synchronous match the store's
// concurrent-reader single-writer usage.
func NewSQLiteStore(cfg *config.DBConfig) (*SQLiteStore, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(%d)&_pragma=foreign_keys(0)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxConns)
	sqlDB.SetMaxIdleConns(cfg.MaxConns / 2)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&model.VideoRecord{}, &model.StatSample{}, &model.SearchHistory{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// UpsertBatch inserts the candidates whose video id is not already
// present and appends one StatSample per candidate regardless. Existing
// rows are never overwritten: conflicting inserts are silent no-ops, so
// concurrent duplicate batches degrade to redundant samples, not errors.
// Returns the ids that were genuinely new, so callers know which records
// entered the store. The whole batch commits or rolls back as one
// transaction.
func (s *SQLiteStore) UpsertBatch(ctx context.Context, cands []*model.Candidate) ([]string, error) {
	if len(cands) == 0 {
		return nil, nil
	}

	fetchedAt := time.Now().UTC()
	ids := make([]string, 0, len(cands))
	records := make([]*model.VideoRecord, 0, len(cands))
	samples := make([]*model.StatSample, 0, len(cands))
	for _, c := range cands {
		rec := c.Video
		if rec.FetchedAt.IsZero() {
			rec.FetchedAt = fetchedAt
		}
		ids = append(ids, rec.VideoID)
		records = append(records, &rec)
		samples = append(samples, &model.StatSample{
			VideoID:   rec.VideoID,
			FetchedAt: fetchedAt,
			ViewCount: c.ViewCount,
			LikeCount: c.LikeCount,
		})
	}

	var inserted []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []string
		if err := tx.Model(&model.VideoRecord{}).
			Where("video_id IN ?", ids).
			Pluck("video_id", &existing).Error; err != nil {
			return err
		}
		existingSet := make(map[string]struct{}, len(existing))
		for _, id := range existing {
			existingSet[id] = struct{}{}
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "video_id"}},
			DoNothing: true,
		}).CreateInBatches(records, 100).Error; err != nil {
			return err
		}

		for _, id := range ids {
			if _, ok := existingSet[id]; !ok {
				inserted = append(inserted, id)
			}
		}

		return tx.CreateInBatches(samples, 100).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert batch: %w", err)
	}

	return inserted, nil
}

// VideosByID retrieves records for the given ids; unknown ids are
// simply absent from the result.
func (s *SQLiteStore) VideosByID(ctx context.Context, ids []string) ([]*model.VideoRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var videos []*model.VideoRecord
	result := s.db.WithContext(ctx).Where("video_id IN ?", ids).Find(&videos)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get videos by id: %w", result.Error)
	}
	return videos, nil
}

// AllVideos returns every stored record in insertion order. Feeds full
// index rebuilds.
func (s *SQLiteStore) AllVideos(ctx context.Context) ([]*model.VideoRecord, error) {
	var videos []*model.VideoRecord
	result := s.db.WithContext(ctx).Order("rowid ASC").Find(&videos)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list videos: %w", result.Error)
	}
	return videos, nil
}

// CountVideos returns the total count of stored records.
func (s *SQLiteStore) CountVideos(ctx context.Context) (int64, error) {
	var count int64
	result := s.db.WithContext(ctx).Model(&model.VideoRecord{}).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count videos: %w", result.Error)
	}
	return count, nil
}

// LatestStats returns the most recent StatSample per id. Ids with no
// sample are absent from the map, never zero-filled.
func (s *SQLiteStore) LatestStats(ctx context.Context, ids []string) (map[string]*model.StatSample, error) {
	if len(ids) == 0 {
		return map[string]*model.StatSample{}, nil
	}

	var samples []*model.StatSample
	err := s.db.WithContext(ctx).Raw(`
		SELECT vs.* FROM video_stats vs
		JOIN (
			SELECT video_id, MAX(id) AS max_id
			FROM video_stats
			WHERE video_id IN ?
			GROUP BY video_id
		) latest ON vs.id = latest.max_id`, ids).Scan(&samples).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get latest stats: %w", err)
	}

	out := make(map[string]*model.StatSample, len(samples))
	for _, sample := range samples {
		out[sample.VideoID] = sample
	}
	return out, nil
}

// Trend returns the view-count series for records whose title or
// description contains the topic substring (case-insensitive), ordered
// by sample timestamp ascending. This is a naive substring match, not a
// ranked full-text query.
func (s *SQLiteStore) Trend(ctx context.Context, topic string) ([]model.TrendPoint, error) {
	pattern := "%" + topic + "%"
	var points []model.TrendPoint
	err := s.db.WithContext(ctx).Raw(`
		SELECT vs.fetched_at, vs.view_count
		FROM video_stats vs
		JOIN videos v ON v.video_id = vs.video_id
		WHERE lower(v.title) LIKE lower(?) OR lower(v.description) LIKE lower(?)
		ORDER BY vs.fetched_at ASC`, pattern, pattern).Scan(&points).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get trend data: %w", err)
	}
	return points, nil
}

// RetentionTrim deletes the oldest records beyond the most recent keep
// by insertion order, returning the removed ids so the full-text index
// can be brought back in line. Stat samples of removed records are left
// in place.
func (s *SQLiteStore) RetentionTrim(ctx context.Context, keep int) ([]string, error) {
	var removed []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Raw(`
			SELECT video_id FROM videos
			ORDER BY rowid DESC LIMIT -1 OFFSET ?`, keep).Scan(&removed).Error; err != nil {
			return err
		}
		if len(removed) == 0 {
			return nil
		}
		return tx.Where("video_id IN ?", removed).Delete(&model.VideoRecord{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to trim videos: %w", err)
	}
	return removed, nil
}

// Vacuum compacts the database file.
func (s *SQLiteStore) Vacuum(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Exec("VACUUM").Error; err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	return nil
}

// AddSearch appends a query and its serialized result snapshot to the
// history log and returns the new search id.
func (s *SQLiteStore) AddSearch(ctx context.Context, query string, results string) (uint, error) {
	entry := &model.SearchHistory{
		Query:     query,
		Timestamp: time.Now().UTC(),
		Results:   results,
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return 0, fmt.Errorf("failed to add search history: %w", err)
	}
	return entry.SearchID, nil
}

// ListSearches returns past queries, newest first, without their result
// snapshots.
func (s *SQLiteStore) ListSearches(ctx context.Context) ([]*model.SearchHistory, error) {
	var entries []*model.SearchHistory
	result := s.db.WithContext(ctx).
		Select("search_id", "query", "timestamp").
		Order("search_id DESC").
		Find(&entries)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list search history: %w", result.Error)
	}
	return entries, nil
}

// GetSearch retrieves one history entry with its result snapshot.
// Returns (nil, nil) when the id is unknown.
func (s *SQLiteStore) GetSearch(ctx context.Context, searchID uint) (*model.SearchHistory, error) {
	var entry model.SearchHistory
	result := s.db.WithContext(ctx).Where("search_id = ?", searchID).First(&entry)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get search history: %w", result.Error)
	}
	return &entry, nil
}

// Ping checks database connectivity
func (s *SQLiteStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying db: %w", err)
	}
	return sqlDB.Close()
}

// DB returns the underlying gorm.DB instance (for testing purposes)
func (s *SQLiteStore) DB() *gorm.DB {
	return s.db
}
