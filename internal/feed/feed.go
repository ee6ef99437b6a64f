// Package feed defines the boundary between the triage pipeline and the
// external platforms that produce text items.
package feed

import "context"

// Item is a single externally sourced text item under evaluation. Items are
// ephemeral: the pipeline consumes them once and never persists them.
type Item struct {
	ID         string
	Text       string
	Author     string
	URL        string
	Engagement int
}

// Source searches one platform for items mentioning the given keywords.
// Implementations own their rate limiting, pagination, and authentication.
// An empty slice is a valid result; errors are isolated per source by the
// cycle driver and never abort the cycle.
type Source interface {
	Name() string
	SearchMentions(ctx context.Context, keywords []string, limit int) ([]Item, error)
}
