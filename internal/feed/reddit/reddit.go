// Package reddit implements feed.Source against Reddit's public search API.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/linnemanlabs/pulse/internal/feed"
)

const defaultBaseURL = "https://www.reddit.com"

// Source searches Reddit posts. The public JSON endpoint requires no OAuth
// but does require a descriptive User-Agent or it aggressively rate limits.
type Source struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// New creates a Reddit source with the given User-Agent.
func New(userAgent string) *Source {
	return &Source{
		baseURL:   defaultBaseURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Name implements feed.Source.
func (s *Source) Name() string { return "Reddit" }

type listing struct {
	Data struct {
		Children []struct {
			Data post `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type post struct {
	Name        string  `json:"name"` // fullname, e.g. t3_abc123
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	Permalink   string  `json:"permalink"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
}

// SearchMentions queries Reddit's search endpoint for posts matching any of
// the keywords, newest first.
func (s *Source) SearchMentions(ctx context.Context, keywords []string, limit int) ([]feed.Item, error) {
	query := buildQuery(keywords)
	if query == "" {
		return nil, nil
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("sort", "new")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("type", "link")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.baseURL+"/search.json?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("reddit: create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reddit: search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("reddit: search returned %d: %s", resp.StatusCode, string(body))
	}

	var l listing
	if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
		return nil, fmt.Errorf("reddit: decode listing: %w", err)
	}

	items := make([]feed.Item, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		p := child.Data

		text := p.Title
		if p.Selftext != "" {
			text += "\n\n" + p.Selftext
		}

		items = append(items, feed.Item{
			ID:         p.Name,
			Text:       text,
			Author:     "u/" + p.Author,
			URL:        defaultBaseURL + p.Permalink,
			Engagement: p.Score + p.NumComments,
		})
	}
	return items, nil
}

// buildQuery ORs the keywords as quoted phrases, dropping blanks.
func buildQuery(keywords []string) string {
	parts := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		parts = append(parts, `"`+kw+`"`)
	}
	return strings.Join(parts, " OR ")
}
