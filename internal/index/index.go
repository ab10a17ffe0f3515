// Package index maintains the full-text index over video text, kept in
// lockstep with the record store. The index is derived state: it can be
// rebuilt from the store alone at any time.
package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/rs/zerolog/log"

	"github.com/user/topic-scout/internal/model"
)

// document is the shape indexed per video.
type document struct {
	Text string `json:"text"`
}

// Index wraps a bleve index keyed by video id.
type Index struct {
	idx bleve.Index
}

// Open opens the index at path, creating it if absent. An empty path
// opens a memory-only index (used by tests and ephemeral runs).
func Open(path string) (*Index, error) {
	mapping := buildMapping()

	if path == "" {
		idx, err := bleve.NewMemOnly(mapping)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory index: %w", err)
		}
		return &Index{idx: idx}, nil
	}

	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, mapping)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open index at %s: %w", path, err)
	}
	return &Index{idx: idx}, nil
}

func buildMapping() *mapping.IndexMappingImpl {
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("text", textField)

	m := bleve.NewIndexMapping()
	m.DefaultAnalyzer = standard.Name
	m.DefaultMapping = docMapping
	return m
}

// Put (re)indexes the text blob for a video id.
func (i *Index) Put(videoID, text string) error {
	if err := i.idx.Index(videoID, document{Text: text}); err != nil {
		return fmt.Errorf("failed to index %s: %w", videoID, err)
	}
	return nil
}

// Delete removes a video id from the index. Missing ids are a no-op.
func (i *Index) Delete(videoID string) error {
	return i.idx.Delete(videoID)
}

// Search runs a ranked query and returns matching video ids, best first,
// at most limit long. The query string is forwarded to bleve's
// query-string syntax as-is; a blank query matches nothing.
func (i *Index) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if strings.TrimSpace(query) == "" || limit <= 0 {
		return nil, nil
	}

	q := bleve.NewQueryStringQuery(query)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	res, err := i.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("index search failed: %w", err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// Rebuild drops nothing but re-enters every record in one batch, making
// the index consistent with the given store snapshot. Used for disaster
// recovery and after retention trims.
func (i *Index) Rebuild(records []*model.VideoRecord) error {
	batch := i.idx.NewBatch()
	for _, rec := range records {
		if err := batch.Index(rec.VideoID, document{Text: rec.SearchText()}); err != nil {
			return fmt.Errorf("failed to batch %s: %w", rec.VideoID, err)
		}
	}
	if err := i.idx.Batch(batch); err != nil {
		return fmt.Errorf("failed to apply rebuild batch: %w", err)
	}
	log.Info().Int("records", len(records)).Msg("Index rebuilt")
	return nil
}

// DocCount returns the number of indexed documents.
func (i *Index) DocCount() (uint64, error) {
	return i.idx.DocCount()
}

// Close releases the underlying index.
func (i *Index) Close() error {
	return i.idx.Close()
}
