// Package memstore provides in-memory implementations of triage.Store and
// triage.Ledger. Suitable for dev/testing.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/pulse/internal/triage"
)

// Store holds alerts and the dedup ledger in memory.
type Store struct {
	mu     sync.RWMutex
	alerts map[string]*triage.Alert // alert ID -> alert
	seen   map[string]struct{}      // "source\x00itemID" -> marker
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{
		alerts: make(map[string]*triage.Alert),
		seen:   make(map[string]struct{}),
	}
}

// CreateAlert stores a copy of the alert with an assigned ID and timestamp.
func (s *Store) CreateAlert(_ context.Context, a *triage.NewAlert) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	id := ulid.Make().String()
	s.alerts[id] = &triage.Alert{
		ID:             id,
		Source:         a.Source,
		Content:        a.Content,
		Author:         a.Author,
		URL:            a.URL,
		SentimentScore: a.SentimentScore,
		SentimentLabel: a.SentimentLabel,
		Urgency:        a.Urgency,
		Recommendation: a.Recommendation,
		CreatedAt:      created,
		Status:         triage.StatusNew,
	}
	return id, nil
}

// MarkNotified sets the notified flag. Already-true is a no-op.
func (s *Store) MarkNotified(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	if !ok {
		return triage.ErrNotFound
	}
	a.Notified = true
	return nil
}

// UpdateStatus overwrites the alert's status after enum validation.
func (s *Store) UpdateStatus(_ context.Context, id string, status triage.Status) error {
	if !triage.ValidStatus(status) {
		return triage.ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	if !ok {
		return triage.ErrNotFound
	}
	a.Status = status
	return nil
}

// ListRecent returns up to limit alerts, newest first. Returns copies.
func (s *Store) ListRecent(_ context.Context, limit int) ([]triage.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.sortedDesc(func(*triage.Alert) bool { return true })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListUnnotified returns alerts with notified=false, newest first.
func (s *Store) ListUnnotified(_ context.Context) ([]triage.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedDesc(func(a *triage.Alert) bool { return !a.Notified }), nil
}

// Stats summarizes the store.
func (s *Store) Stats(_ context.Context) (*triage.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := &triage.Stats{ByUrgency: make(map[triage.Urgency]int)}
	dayAgo := time.Now().Add(-24 * time.Hour)

	for _, a := range s.alerts {
		st.TotalAlerts++
		st.ByUrgency[a.Urgency]++
		if a.CreatedAt.After(dayAgo) {
			st.Last24h++
		}
	}
	return st, nil
}

// Seen reports whether the (source, itemID) pair is recorded.
func (s *Store) Seen(_ context.Context, source, itemID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[ledgerKey(source, itemID)]
	return ok, nil
}

// MarkSeen records the pair, reporting whether this call inserted it. The
// single mutex gives the same winner-takes-insert semantics the durable
// stores get from their uniqueness constraint.
func (s *Store) MarkSeen(_ context.Context, source, itemID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ledgerKey(source, itemID)
	if _, ok := s.seen[key]; ok {
		return false, nil
	}
	s.seen[key] = struct{}{}
	return true, nil
}

func (s *Store) sortedDesc(keep func(*triage.Alert) bool) []triage.Alert {
	out := make([]triage.Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		if keep(a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			// ULIDs are lexicographically ordered by creation time
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func ledgerKey(source, itemID string) string {
	return source + "\x00" + itemID
}
