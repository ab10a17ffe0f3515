package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/user/topic-scout/internal/cache"
)

const timedtextURL = "https://www.youtube.com/api/timedtext"

// timedtextResponse is the json3 payload of the timedtext endpoint.
type timedtextResponse struct {
	Events []timedtextEvent `json:"events"`
}

type timedtextEvent struct {
	Segs []timedtextSegment `json:"segs,omitempty"`
}

type timedtextSegment struct {
	UTF8 string `json:"utf8"`
}

// Captions fetches the English transcript via the timedtext endpoint
// and flattens it to one line of plain text. Any failure (disabled
// captions, region restriction, transport error) degrades to "".
func (c *Client) Captions(ctx context.Context, videoID string) string {
	sig := cache.Signature{Kind: "captions", IDs: []string{videoID}}
	if payload, ok := c.cache.Get(sig); ok {
		return string(payload)
	}

	text, err := c.fetchCaptions(ctx, videoID)
	if err != nil {
		log.Debug().Err(err).Str("videoID", videoID).Msg("Caption fetch failed")
		return ""
	}

	c.cache.Put(sig, []byte(text))
	return text
}

func (c *Client) fetchCaptions(ctx context.Context, videoID string) (string, error) {
	params := url.Values{}
	params.Set("v", videoID)
	params.Set("lang", "en")
	params.Set("fmt", "json3")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, timedtextURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("timedtext status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var tt timedtextResponse
	if err := json.Unmarshal(body, &tt); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, event := range tt.Events {
		for _, seg := range event.Segs {
			b.WriteString(seg.UTF8)
		}
		if len(event.Segs) > 0 {
			b.WriteString(" ")
		}
	}

	return strings.TrimSpace(strings.ReplaceAll(b.String(), "\n", " ")), nil
}
