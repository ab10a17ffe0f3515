package ingest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/user/topic-scout/internal/model"
)

// FormatExport renders a stored history entry as a plain-text report.
// The entry's serialized result set is the source of truth; the blob is
// regenerated on every export rather than stored.
func FormatExport(entry *model.SearchHistory) (string, error) {
	var results []Result
	if err := json.Unmarshal([]byte(entry.Results), &results); err != nil {
		return "", fmt.Errorf("failed to decode stored results: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Results for %q (%s)\n", entry.Query, entry.Timestamp)
	fmt.Fprintf(&b, "%d videos\n", len(results))

	for i, res := range results {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%d. %s\n", i+1, res.Title)
		fmt.Fprintf(&b, "   Channel: %s\n", res.Channel)
		fmt.Fprintf(&b, "   URL: %s\n", res.URL)
		if res.ViewCount > 0 || res.LikeCount > 0 {
			fmt.Fprintf(&b, "   Views: %d  Likes: %d\n", res.ViewCount, res.LikeCount)
		}
		if res.Summary != "" {
			fmt.Fprintf(&b, "   Summary: %s\n", res.Summary)
		}
		for _, point := range res.TalkingPoints {
			fmt.Fprintf(&b, "   - %s\n", point)
		}
	}

	return b.String(), nil
}
