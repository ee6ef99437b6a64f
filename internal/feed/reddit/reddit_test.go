package reddit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const sampleListing = `{
  "data": {
    "children": [
      {"data": {"name": "t3_abc", "title": "App keeps crashing", "selftext": "It dies on launch every time.", "author": "angryuser", "permalink": "/r/test/comments/abc/app_keeps_crashing/", "score": 42, "num_comments": 13}},
      {"data": {"name": "t3_def", "title": "Love the new release", "selftext": "", "author": "happyuser", "permalink": "/r/test/comments/def/love_it/", "score": 5, "num_comments": 1}}
    ]
  }
}`

func newTestSource(t *testing.T, handler http.HandlerFunc) *Source {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	s := New("pulse-test/1.0")
	s.baseURL = srv.URL
	return s
}

func TestSearchMentions(t *testing.T) {
	t.Parallel()

	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search.json" {
			t.Errorf("path = %q, want /search.json", r.URL.Path)
		}
		if ua := r.Header.Get("User-Agent"); ua != "pulse-test/1.0" {
			t.Errorf("User-Agent = %q", ua)
		}
		q := r.URL.Query()
		if got := q.Get("q"); got != `"acme" OR "acme app"` {
			t.Errorf("q = %q", got)
		}
		if got := q.Get("limit"); got != "20" {
			t.Errorf("limit = %q, want 20", got)
		}
		_, _ = w.Write([]byte(sampleListing))
	})

	items, err := s.SearchMentions(context.Background(), []string{"acme", " acme app "}, 20)
	if err != nil {
		t.Fatalf("SearchMentions: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}

	first := items[0]
	if first.ID != "t3_abc" {
		t.Errorf("ID = %q, want t3_abc", first.ID)
	}
	if first.Author != "u/angryuser" {
		t.Errorf("Author = %q, want u/angryuser", first.Author)
	}
	if first.Engagement != 55 {
		t.Errorf("Engagement = %d, want 55 (score+comments)", first.Engagement)
	}
	if first.Text != "App keeps crashing\n\nIt dies on launch every time." {
		t.Errorf("Text = %q", first.Text)
	}
	if items[1].Text != "Love the new release" {
		t.Errorf("title-only post Text = %q", items[1].Text)
	}
}

func TestSearchMentions_EmptyKeywords(t *testing.T) {
	t.Parallel()

	s := newTestSource(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected for empty keywords")
	})

	items, err := s.SearchMentions(context.Background(), []string{"", "  "}, 20)
	if err != nil {
		t.Fatalf("SearchMentions: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("items = %d, want 0", len(items))
	}
}

func TestSearchMentions_RateLimited(t *testing.T) {
	t.Parallel()

	s := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	})

	if _, err := s.SearchMentions(context.Background(), []string{"acme"}, 20); err == nil {
		t.Fatal("expected error for 429 response")
	}
}
