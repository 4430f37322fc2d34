// Package youtube searches the YouTube Data API for videos matching a
// course chapter. Enrichment is cosmetic: callers are expected to treat
// every error here as non-fatal.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultURL = "https://www.googleapis.com/youtube/v3/search"

// Config carries the Data API settings.
type Config struct {
	URL        string
	Key        string
	MaxResults int
	Timeout    time.Duration
}

type Client struct {
	cfg Config
	hc  *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = defaultURL
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = 3
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &Client{cfg: cfg, hc: &http.Client{Timeout: timeout}}
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

// Search returns the ids of the top matching videos, most relevant first,
// capped at the configured max results.
func (c *Client) Search(ctx context.Context, query string) ([]string, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("type", "video")
	q.Set("order", "viewCount")
	q.Set("maxResults", strconv.Itoa(c.cfg.MaxResults))
	q.Set("q", query)
	q.Set("key", c.cfg.Key)

	r, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}

	w, err := c.hc.Do(r)
	if err != nil {
		return nil, fmt.Errorf("searching videos: %w", err)
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(w.Body, 512))
		return nil, fmt.Errorf("video search failed with status %d: %s", w.StatusCode, b)
	}

	var resp searchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, it := range resp.Items {
		if it.ID.VideoID != "" {
			ids = append(ids, it.ID.VideoID)
		}
	}

	return ids, nil
}
