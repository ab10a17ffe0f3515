// Package ingest coordinates the search/fetch/persist pipeline: query
// the local full-text index, top it up from the upstream collaborator
// when short, deduplicate, persist, re-index, and derive presentation
// payloads. The coordinator is the only writer of the record store and
// the index.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/user/topic-scout/internal/analyze"
	"github.com/user/topic-scout/internal/index"
	"github.com/user/topic-scout/internal/model"
	"github.com/user/topic-scout/internal/store"
	"github.com/user/topic-scout/internal/youtube"
)

// Coordinator orchestrates one query through the pipeline. Safe for
// concurrent use: concurrent identical queries may both reach upstream,
// but the store's conflict-ignoring upsert makes the race harmless.
type Coordinator struct {
	store        store.Store
	index        *index.Index
	source       youtube.Source
	maxResults   int
	commentLimit int
}

// New wires the coordinator to its collaborators.
func New(st store.Store, idx *index.Index, src youtube.Source, maxResults, commentLimit int) *Coordinator {
	return &Coordinator{
		store:        st,
		index:        idx,
		source:       src,
		maxResults:   maxResults,
		commentLimit: commentLimit,
	}
}

// validateQuery rejects blank queries before any store or network I/O.
func validateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return ErrEmptyQuery
	}
	return nil
}

// mergedBatch is the outcome of the fetch/merge/persist phases: local
// records first, then freshly persisted ones, with the comment texts
// gathered for the fresh records.
type mergedBatch struct {
	records  []*model.VideoRecord
	comments map[string][]string
}

// Search runs the full pipeline and returns at most maxResults derived
// payloads, local results ranked first. When the upstream fails but the
// local index produced at least one hit, the local results are returned
// as a normal response. A blank query fails fast with ErrEmptyQuery
// before any store or upstream I/O; callers surface it as a validation
// failure rather than an empty result set.
func (c *Coordinator) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	batch, err := c.gather(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	results, err := c.deriveAll(ctx, batch)
	if err != nil {
		return nil, err
	}

	if _, err := c.appendHistory(ctx, query, results); err != nil {
		return nil, err
	}
	return results, nil
}

// gather performs steps 1-4 of the pipeline: local lookup, upstream
// fetch when short, dedup, persist+index. Everything it returns is
// already durable.
func (c *Coordinator) gather(ctx context.Context, query string, maxResults int) (*mergedBatch, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}
	if maxResults <= 0 {
		maxResults = c.maxResults
	}

	local, err := c.localLookup(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	batch := &mergedBatch{records: local, comments: map[string][]string{}}
	if len(local) >= maxResults {
		return batch, nil
	}

	fresh, comments, upstreamErr := c.fetchAndPersist(ctx, query, maxResults, local)
	if upstreamErr != nil {
		if len(local) == 0 {
			return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, upstreamErr)
		}
		// Graceful degradation: serve what the index had.
		log.Warn().Err(upstreamErr).Str("query", query).Msg("Upstream failed, serving local results only")
		return batch, nil
	}

	batch.records = append(batch.records, fresh...)
	if len(batch.records) > maxResults {
		batch.records = batch.records[:maxResults]
	}
	for id, texts := range comments {
		batch.comments[id] = texts
	}
	return batch, nil
}

// localLookup queries the index and loads the matching records in rank
// order.
func (c *Coordinator) localLookup(ctx context.Context, query string, limit int) ([]*model.VideoRecord, error) {
	ids, err := c.index.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("local search failed: %w", err)
	}
	records, err := c.store.VideosByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*model.VideoRecord, len(records))
	for _, rec := range records {
		byID[rec.VideoID] = rec
	}
	ordered := make([]*model.VideoRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := byID[id]; ok {
			ordered = append(ordered, rec)
		}
	}
	return ordered, nil
}

// fetchAndPersist asks upstream for candidates, drops ids already in
// the local result set, enriches the rest with transcripts and
// comments, and persists them in one batch before indexing each one.
func (c *Coordinator) fetchAndPersist(ctx context.Context, query string, maxResults int, local []*model.VideoRecord) ([]*model.VideoRecord, map[string][]string, error) {
	ids, err := c.source.SearchIDs(ctx, query, maxResults)
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[string]struct{}, len(local))
	for _, rec := range local {
		seen[rec.VideoID] = struct{}{}
	}
	newIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; !dup {
			newIDs = append(newIDs, id)
		}
	}
	if len(newIDs) == 0 {
		return nil, nil, nil
	}

	cands, err := c.source.BatchDetails(ctx, newIDs)
	if err != nil {
		return nil, nil, err
	}

	comments := make(map[string][]string, len(cands))
	for _, cand := range cands {
		cand.Video.Transcript = c.source.Captions(ctx, cand.Video.VideoID)
		cand.Comments = c.source.Comments(ctx, cand.Video.VideoID, c.commentLimit)
		comments[cand.Video.VideoID] = cand.Comments
	}

	fresh, err := c.persist(ctx, cands)
	if err != nil {
		return nil, nil, err
	}
	return fresh, comments, nil
}

// persist writes the candidate batch to the store in one transaction,
// then indexes exactly the records the store accepted. Candidates whose
// id was already stored keep their original row and index entry; the
// stored version is what flows on to derivation. A crash between the
// store write and the indexing leaves the store ahead of the index by
// at most this batch, which a reindex repairs.
func (c *Coordinator) persist(ctx context.Context, cands []*model.Candidate) ([]*model.VideoRecord, error) {
	inserted, err := c.store.UpsertBatch(ctx, cands)
	if err != nil {
		return nil, err
	}
	freshSet := make(map[string]struct{}, len(inserted))
	for _, id := range inserted {
		freshSet[id] = struct{}{}
	}

	var dupIDs []string
	for _, cand := range cands {
		if _, fresh := freshSet[cand.Video.VideoID]; !fresh {
			dupIDs = append(dupIDs, cand.Video.VideoID)
		}
	}
	stored := make(map[string]*model.VideoRecord, len(dupIDs))
	if len(dupIDs) > 0 {
		recs, err := c.store.VideosByID(ctx, dupIDs)
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			stored[rec.VideoID] = rec
		}
	}

	records := make([]*model.VideoRecord, 0, len(cands))
	for _, cand := range cands {
		if _, fresh := freshSet[cand.Video.VideoID]; fresh {
			rec := cand.Video
			if err := c.index.Put(rec.VideoID, rec.SearchText()); err != nil {
				return nil, fmt.Errorf("index update failed: %w", err)
			}
			records = append(records, &rec)
		} else if rec := stored[cand.Video.VideoID]; rec != nil {
			records = append(records, rec)
		}
	}

	log.Info().
		Int("fetched", len(cands)).
		Int("inserted", len(inserted)).
		Msg("Persisted candidate batch")
	return records, nil
}

// deriveAll computes the presentation payload for every record in the
// batch.
func (c *Coordinator) deriveAll(ctx context.Context, batch *mergedBatch) ([]Result, error) {
	ids := make([]string, len(batch.records))
	for i, rec := range batch.records {
		ids[i] = rec.VideoID
	}
	stats, err := c.store.LatestStats(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(batch.records))
	for _, rec := range batch.records {
		results = append(results, buildResult(rec, batch.comments[rec.VideoID], stats[rec.VideoID]))
	}
	return results, nil
}

// appendHistory stores the query with its full serialized result set.
// Called only after every payload is computed, so the log never holds
// partial rows.
func (c *Coordinator) appendHistory(ctx context.Context, query string, results []Result) (uint, error) {
	payload, err := json.Marshal(results)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize results: %w", err)
	}
	id, err := c.store.AddSearch(ctx, query, string(payload))
	if err != nil {
		return 0, err
	}
	return id, nil
}

// History lists past queries, newest first.
func (c *Coordinator) History(ctx context.Context) ([]*model.SearchHistory, error) {
	return c.store.ListSearches(ctx)
}

// ExportResult renders a past result set as a formatted text blob.
// Unknown ids report ErrNotFound.
func (c *Coordinator) ExportResult(ctx context.Context, searchID uint) (string, error) {
	entry, err := c.store.GetSearch(ctx, searchID)
	if err != nil {
		return "", err
	}
	if entry == nil {
		return "", ErrNotFound
	}
	return FormatExport(entry)
}

// Trend returns the view-count time series for a topic substring.
func (c *Coordinator) Trend(ctx context.Context, topic string) ([]model.TrendPoint, error) {
	return c.store.Trend(ctx, topic)
}

// Topics extracts ranked topic labels from the transcripts of locally
// indexed matches for the query.
func (c *Coordinator) Topics(ctx context.Context, query string, n int) ([]string, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}
	records, err := c.localLookup(ctx, query, c.maxResults)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(records))
	for _, rec := range records {
		texts = append(texts, rec.Transcript)
	}
	return analyze.Topics(texts, n), nil
}

// IndexDocCount reports how many records the full-text index holds.
func (c *Coordinator) IndexDocCount() (uint64, error) {
	return c.index.DocCount()
}

// Reindex rebuilds the full-text index from the record store alone.
func (c *Coordinator) Reindex(ctx context.Context) (int, error) {
	records, err := c.store.AllVideos(ctx)
	if err != nil {
		return 0, err
	}
	if err := c.index.Rebuild(records); err != nil {
		return 0, err
	}
	return len(records), nil
}
