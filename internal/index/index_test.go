package index

import (
	"context"
	"testing"

	"github.com/user/topic-scout/internal/model"
)

func memIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open("")
	if err != nil {
		t.Fatalf("Open(\"\") error = %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestIndex_PutAndSearch(t *testing.T) {
	idx := memIndex(t)

	if err := idx.Put("vid1", "go concurrency patterns with channels"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := idx.Put("vid2", "baking sourdough bread at home"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	ids, err := idx.Search(context.Background(), "concurrency", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != "vid1" {
		t.Errorf("Search() = %v, want [vid1]", ids)
	}
}

func TestIndex_BlankQueryMatchesNothing(t *testing.T) {
	idx := memIndex(t)
	if err := idx.Put("vid1", "anything at all"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	ids, err := idx.Search(context.Background(), "   ", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Search(blank) = %v, want empty", ids)
	}

	ids, err = idx.Search(context.Background(), "anything", 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Search(limit=0) = %v, want empty", ids)
	}
}

func TestIndex_SearchRespectsLimit(t *testing.T) {
	idx := memIndex(t)
	docs := map[string]string{
		"vid1": "kubernetes cluster setup tutorial",
		"vid2": "kubernetes networking deep dive",
		"vid3": "kubernetes storage explained",
	}
	for id, text := range docs {
		if err := idx.Put(id, text); err != nil {
			t.Fatalf("Put(%s) error = %v", id, err)
		}
	}

	ids, err := idx.Search(context.Background(), "kubernetes", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("Search(limit=2) returned %d ids, want 2", len(ids))
	}
}

func TestIndex_PutReplacesDocument(t *testing.T) {
	idx := memIndex(t)

	if err := idx.Put("vid1", "original topic about rust"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := idx.Put("vid1", "updated topic about zig"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	ids, err := idx.Search(context.Background(), "rust", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Search(old text) = %v, want empty after reindex", ids)
	}

	ids, err = idx.Search(context.Background(), "zig", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != "vid1" {
		t.Errorf("Search(new text) = %v, want [vid1]", ids)
	}
}

func TestIndex_Delete(t *testing.T) {
	idx := memIndex(t)

	if err := idx.Put("vid1", "ephemeral content"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := idx.Delete("vid1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	ids, err := idx.Search(context.Background(), "ephemeral", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Search() after Delete = %v, want empty", ids)
	}

	// Deleting an unknown id is a no-op.
	if err := idx.Delete("never-indexed"); err != nil {
		t.Errorf("Delete(unknown) error = %v, want nil", err)
	}
}

func TestIndex_RebuildMatchesSnapshot(t *testing.T) {
	idx := memIndex(t)

	if err := idx.Put("vid1", "stale text before rebuild"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	records := []*model.VideoRecord{
		{VideoID: "vid1", Title: "Fresh title", Description: "fresh description"},
		{VideoID: "vid2", Title: "Second video", Description: "about databases"},
	}
	if err := idx.Rebuild(records); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	ids, err := idx.Search(context.Background(), "stale", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Search(stale text) = %v, want empty after rebuild", ids)
	}

	ids, err = idx.Search(context.Background(), "databases", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != "vid2" {
		t.Errorf("Search() = %v, want [vid2]", ids)
	}

	count, err := idx.DocCount()
	if err != nil {
		t.Fatalf("DocCount() error = %v", err)
	}
	if count != 2 {
		t.Errorf("DocCount() = %d, want 2", count)
	}
}

func TestIndex_SearchesTranscriptText(t *testing.T) {
	idx := memIndex(t)

	rec := &model.VideoRecord{
		VideoID:     "vid1",
		Title:       "Untitled",
		Description: "no hints here",
		Transcript:  "today we talk about observability and tracing",
	}
	if err := idx.Put(rec.VideoID, rec.SearchText()); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	ids, err := idx.Search(context.Background(), "observability", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != "vid1" {
		t.Errorf("Search(transcript term) = %v, want [vid1]", ids)
	}
}
