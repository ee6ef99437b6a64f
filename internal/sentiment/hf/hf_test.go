package hf

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/linnemanlabs/pulse/internal/sentiment"
)

func TestClassifyText_NestedResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			t.Errorf("Authorization = %q, want bearer token", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", r.Header.Get("Content-Type"))
		}
		_, _ = w.Write([]byte(`[[{"label":"NEGATIVE","score":0.97},{"label":"POSITIVE","score":0.03}]]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok-123")
	label, score, err := c.ClassifyText(context.Background(), "worst app ever")
	if err != nil {
		t.Fatalf("ClassifyText: %v", err)
	}
	if label != sentiment.LabelNegative {
		t.Errorf("label = %s, want NEGATIVE", label)
	}
	if score != 0.97 {
		t.Errorf("score = %v, want 0.97", score)
	}
}

func TestClassifyText_FlatResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"label":"POSITIVE","score":0.91}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	label, score, err := c.ClassifyText(context.Background(), "love it")
	if err != nil {
		t.Fatalf("ClassifyText: %v", err)
	}
	if label != sentiment.LabelPositive || score != 0.91 {
		t.Errorf("got (%s, %v), want (POSITIVE, 0.91)", label, score)
	}
}

func TestClassifyText_SSTLabels(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[[{"label":"LABEL_0","score":0.88},{"label":"LABEL_1","score":0.12}]]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	label, _, err := c.ClassifyText(context.Background(), "broken again")
	if err != nil {
		t.Fatalf("ClassifyText: %v", err)
	}
	if label != sentiment.LabelNegative {
		t.Errorf("label = %s, want NEGATIVE for LABEL_0", label)
	}
}

func TestClassifyText_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	if _, _, err := c.ClassifyText(context.Background(), "text"); err == nil {
		t.Fatal("expected error for 503 response")
	}
}

func TestClassifyText_MalformedResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":"oops"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	if _, _, err := c.ClassifyText(context.Background(), "text"); err == nil {
		t.Fatal("expected error for unexpected response shape")
	}
}
