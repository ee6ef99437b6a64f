// Package twitter implements feed.Source against the Twitter API v2 recent
// search endpoint.
package twitter

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

const defaultBaseURL = "https://api.twitter.com"

// The v2 recent search endpoint only accepts 10..100 for max_results.
const (
	minResults = 10
	maxResults = 100
)

// Source searches recent tweets using an app-only bearer token.
type Source struct {
	baseURL     string
	bearerToken string
	httpClient  *http.Client
}

// New creates a Twitter source. The bearer token is required; main only
// registers this source when one is configured.
func New(bearerToken string) *Source {
	return &Source{
		baseURL:     defaultBaseURL,
		bearerToken: bearerToken,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Name implements feed.Source.
func (s *Source) Name() string { return "Twitter" }

type tweet struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	AuthorID      string `json:"author_id"`
	PublicMetrics struct {
		LikeCount    int `json:"like_count"`
		RetweetCount int `json:"retweet_count"`
		ReplyCount   int `json:"reply_count"`
	} `json:"public_metrics"`
}

type searchResponse struct {
	Data     []tweet `json:"data"`
	Includes struct {
		Users []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"users"`
	} `json:"includes"`
}

// SearchMentions queries recent tweets matching any keyword, excluding
// retweets so the same complaint is not counted once per repost.
func (s *Source) SearchMentions(ctx context.Context, keywords []string, limit int) ([]feed.Item, error) {
	query := buildQuery(keywords)
	if query == "" {
		return nil, nil
	}

	switch {
	case limit < minResults:
		limit = minResults
	case limit > maxResults:
		limit = maxResults
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("max_results", strconv.Itoa(limit))
	q.Set("tweet.fields", "public_metrics,author_id")
	q.Set("expansions", "author_id")
	q.Set("user.fields", "username")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.baseURL+"/2/tweets/search/recent?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("twitter: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.bearerToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twitter: search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("twitter: search returned %d: %s", resp.StatusCode, string(body))
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("twitter: decode response: %w", err)
	}

	usernames := make(map[string]string, len(sr.Includes.Users))
	for _, u := range sr.Includes.Users {
		usernames[u.ID] = u.Username
	}

	items := make([]feed.Item, 0, len(sr.Data))
	for _, tw := range sr.Data {
		username := usernames[tw.AuthorID]
		author := "@" + username
		itemURL := ""
		if username != "" {
			itemURL = fmt.Sprintf("https://twitter.com/%s/status/%s", username, tw.ID)
		} else {
			author = ""
		}

		items = append(items, feed.Item{
			ID:         tw.ID,
			Text:       tw.Text,
			Author:     author,
			URL:        itemURL,
			Engagement: tw.PublicMetrics.LikeCount + tw.PublicMetrics.RetweetCount + tw.PublicMetrics.ReplyCount,
		})
	}
	return items, nil
}

func buildQuery(keywords []string) string {
	parts := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		parts = append(parts, `"`+kw+`"`)
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " OR ") + ") -is:retweet"
}
