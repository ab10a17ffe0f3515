package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/user/topic-scout/internal/model"
)

func TestFormatExport(t *testing.T) {
	entry := &model.SearchHistory{
		SearchID:  7,
		Query:     "go generics",
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Results: `[
			{"video_id":"a1","title":"Generics in practice","channel":"GopherCon",
			 "url":"https://www.youtube.com/watch?v=a1","summary":"A tour of type parameters.",
			 "talking_points":["constraints","type sets"],"view_count":1200,"like_count":80},
			{"video_id":"b2","title":"When not to use generics","channel":"GopherCon",
			 "url":"https://www.youtube.com/watch?v=b2","summary":"",
			 "talking_points":[],"view_count":0,"like_count":0}
		]`,
	}

	blob, err := FormatExport(entry)
	if err != nil {
		t.Fatalf("FormatExport() error = %v", err)
	}

	for _, want := range []string{
		`"go generics"`,
		"2 videos",
		"1. Generics in practice",
		"2. When not to use generics",
		"Views: 1200  Likes: 80",
		"- constraints",
		"A tour of type parameters.",
	} {
		if !strings.Contains(blob, want) {
			t.Errorf("export blob missing %q:\n%s", want, blob)
		}
	}

	// Zero-stat entries omit the stats line entirely.
	if strings.Contains(blob, "Views: 0") {
		t.Errorf("export blob carries a zero stats line:\n%s", blob)
	}
}

func TestFormatExport_CorruptSnapshot(t *testing.T) {
	entry := &model.SearchHistory{Query: "x", Results: "{not json"}
	if _, err := FormatExport(entry); err == nil {
		t.Error("FormatExport(corrupt snapshot) error = nil, want error")
	}
}
