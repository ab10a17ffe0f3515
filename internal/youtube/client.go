// Package youtube implements the upstream video-platform collaborator
// on the YouTube Data API v3. Every call is rate-limited, retried with
// exponential backoff on transient failures, and fronted by the disk
// cache so identical requests inside the TTL window never hit the API.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/user/topic-scout/internal/cache"
	"github.com/user/topic-scout/internal/config"
	"github.com/user/topic-scout/internal/model"
	"github.com/user/topic-scout/internal/retry"
)

// Source is the upstream collaborator consumed by the ingestion
// coordinator.
type Source interface {
	// SearchIDs returns up to n video ids for the query, relevance order.
	SearchIDs(ctx context.Context, query string, n int) ([]string, error)

	// BatchDetails fetches metadata candidates for the ids, chunked to
	// respect the API's ids-per-call maximum. Transcripts and comments
	// are not populated here.
	BatchDetails(ctx context.Context, ids []string) ([]*model.Candidate, error)

	// Captions returns the plain-text transcript, or "" when captions
	// are disabled or unavailable. Never fails.
	Captions(ctx context.Context, videoID string) string

	// Comments returns up to limit top-level comment texts. Disabled
	// comments and transient failures both surface as an empty list.
	Comments(ctx context.Context, videoID string, limit int) []string
}

// Client implements Source.
type Client struct {
	service   *yt.Service
	http      *http.Client
	limiter   *rate.Limiter
	cache     *cache.Disk
	policy    retry.Policy
	batchSize int
}

// NewClient builds the API service and wires the rate limiter, retry
// policy and response cache.
func NewClient(ctx context.Context, cfg *config.YouTubeConfig, diskCache *cache.Disk) (*Client, error) {
	service, err := yt.NewService(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}

	policy := retry.DefaultPolicy()
	policy.MaxAttempts = cfg.RetryAttempts
	policy.InitialBackoff = cfg.RetryDelay

	return &Client{
		service:   service,
		http:      &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		cache:     diskCache,
		policy:    policy,
		batchSize: cfg.BatchSize,
	}, nil
}

// SearchIDs searches for video ids matching the query.
func (c *Client) SearchIDs(ctx context.Context, query string, n int) ([]string, error) {
	sig := cache.Signature{Kind: "search", Query: query, Limit: n}
	if payload, ok := c.cache.Get(sig); ok {
		var ids []string
		if err := json.Unmarshal(payload, &ids); err == nil {
			return ids, nil
		}
	}

	var ids []string
	err := retry.Do(ctx, c.policy, Retryable, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		resp, err := c.service.Search.List([]string{"id"}).
			Q(query).
			Type("video").
			MaxResults(int64(n)).
			Order("relevance").
			Context(ctx).
			Do()
		if err != nil {
			return err
		}
		ids = ids[:0]
		for _, item := range resp.Items {
			if item.Id != nil && item.Id.VideoId != "" {
				ids = append(ids, item.Id.VideoId)
			}
		}
		return nil
	})
	if err != nil {
		return nil, &APIError{Op: "search", Retryable: Retryable(err), Err: err}
	}

	if payload, err := json.Marshal(ids); err == nil {
		c.cache.Put(sig, payload)
	}
	return ids, nil
}

// BatchDetails fetches metadata for the ids in chunks.
func (c *Client) BatchDetails(ctx context.Context, ids []string) ([]*model.Candidate, error) {
	var all []*model.Candidate
	for start := 0; start < len(ids); start += c.batchSize {
		end := start + c.batchSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk, err := c.chunkDetails(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		all = append(all, chunk...)
	}
	return all, nil
}

func (c *Client) chunkDetails(ctx context.Context, ids []string) ([]*model.Candidate, error) {
	sig := cache.Signature{Kind: "details", IDs: ids}
	if payload, ok := c.cache.Get(sig); ok {
		var cands []*model.Candidate
		if err := json.Unmarshal(payload, &cands); err == nil {
			return cands, nil
		}
	}

	var cands []*model.Candidate
	err := retry.Do(ctx, c.policy, Retryable, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		resp, err := c.service.Videos.List([]string{"snippet", "statistics", "contentDetails"}).
			Id(ids...).
			Context(ctx).
			Do()
		if err != nil {
			return err
		}
		cands = cands[:0]
		for _, item := range resp.Items {
			cands = append(cands, candidateFromItem(item))
		}
		return nil
	})
	if err != nil {
		return nil, &APIError{Op: "details", Retryable: Retryable(err), Err: err}
	}

	if payload, err := json.Marshal(cands); err == nil {
		c.cache.Put(sig, payload)
	}
	return cands, nil
}

func candidateFromItem(item *yt.Video) *model.Candidate {
	cand := &model.Candidate{
		Video: model.VideoRecord{
			VideoID:   item.Id,
			URL:       "https://www.youtube.com/watch?v=" + item.Id,
			FetchedAt: time.Now().UTC(),
		},
	}
	if item.Snippet != nil {
		cand.Video.Title = item.Snippet.Title
		cand.Video.Description = item.Snippet.Description
		cand.Video.Channel = item.Snippet.ChannelTitle
		cand.Video.ChannelID = item.Snippet.ChannelId
		cand.Video.PublishedAt = item.Snippet.PublishedAt
	}
	if item.ContentDetails != nil {
		cand.Video.Duration = item.ContentDetails.Duration
	}
	if item.Statistics != nil {
		cand.ViewCount = int64(item.Statistics.ViewCount)
		cand.LikeCount = int64(item.Statistics.LikeCount)
	}
	return cand
}

// Comments fetches top-level comments, relevance order. Disabled
// comments are logged and reported as empty, like every other failure:
// comments are enrichment, never a reason to fail a fetch.
func (c *Client) Comments(ctx context.Context, videoID string, limit int) []string {
	sig := cache.Signature{Kind: "comments", IDs: []string{videoID}, Limit: limit}
	if payload, ok := c.cache.Get(sig); ok {
		var comments []string
		if err := json.Unmarshal(payload, &comments); err == nil {
			return comments
		}
	}

	var comments []string
	err := retry.Do(ctx, c.policy, Retryable, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		resp, err := c.service.CommentThreads.List([]string{"snippet"}).
			VideoId(videoID).
			TextFormat("plainText").
			MaxResults(int64(limit)).
			Order("relevance").
			Context(ctx).
			Do()
		if err != nil {
			if commentsDisabled(err) {
				comments = nil
				return nil
			}
			return err
		}
		comments = comments[:0]
		for _, item := range resp.Items {
			if item.Snippet != nil && item.Snippet.TopLevelComment != nil && item.Snippet.TopLevelComment.Snippet != nil {
				comments = append(comments, item.Snippet.TopLevelComment.Snippet.TextDisplay)
			}
		}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("videoID", videoID).Msg("Comment fetch failed")
		return nil
	}

	if payload, err := json.Marshal(comments); err == nil {
		c.cache.Put(sig, payload)
	}
	return comments
}
