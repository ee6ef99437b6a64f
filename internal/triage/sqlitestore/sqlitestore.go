// Package sqlitestore provides a SQLite implementation of triage.Store and
// triage.Ledger. It is the default durable store for single-node deployments.
package sqlitestore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/linnemanlabs/pulse/internal/sentiment"
	"github.com/linnemanlabs/pulse/internal/triage"
)

//go:embed schema.sql
var schema string

// Store persists alerts and the dedup ledger in a SQLite database file.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the database at path, applies the schema,
// and returns a ready Store. Use ":memory:" for an ephemeral database.
func New(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// modernc.org/sqlite serializes writes per connection; a single
	// connection avoids SQLITE_BUSY under concurrent cycle and API writes.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

const alertColumns = `id, source, content, author, url, sentiment_score, sentiment_label,
	urgency_level, recommended_response, created_at, status, notified`

// timeFormat is fixed-width; RFC3339Nano drops trailing fractional zeros,
// which makes lexicographic ORDER BY misorder timestamps within the same
// second (".5Z" sorts after ".50001Z").
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// CreateAlert inserts the alert and returns its assigned ID.
func (s *Store) CreateAlert(ctx context.Context, a *triage.NewAlert) (string, error) {
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	id := ulid.Make().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (`+alertColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, a.Source, a.Content, a.Author, a.URL, a.SentimentScore, string(a.SentimentLabel),
		string(a.Urgency), a.Recommendation, created.UTC().Format(timeFormat),
		string(triage.StatusNew), 0,
	)
	if err != nil {
		return "", fmt.Errorf("insert alert: %w", err)
	}
	return id, nil
}

// MarkNotified sets the notified flag. Already-true is a no-op.
func (s *Store) MarkNotified(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE alerts SET notified = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}
	return requireRow(res)
}

// UpdateStatus overwrites the alert's status after enum validation.
func (s *Store) UpdateStatus(ctx context.Context, id string, status triage.Status) error {
	if !triage.ValidStatus(status) {
		return triage.ErrInvalidStatus
	}
	res, err := s.db.ExecContext(ctx, `UPDATE alerts SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return requireRow(res)
}

// ListRecent returns up to limit alerts, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]triage.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryAlerts(ctx, query, args...)
}

// ListUnnotified returns alerts with notified=false, newest first.
func (s *Store) ListUnnotified(ctx context.Context) ([]triage.Alert, error) {
	return s.queryAlerts(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE notified = 0 ORDER BY created_at DESC, id DESC`)
}

// Stats summarizes the alert store.
func (s *Store) Stats(ctx context.Context) (*triage.Stats, error) {
	st := &triage.Stats{ByUrgency: make(map[triage.Urgency]int)}

	rows, err := s.db.QueryContext(ctx, `SELECT urgency_level, COUNT(*) FROM alerts GROUP BY urgency_level`)
	if err != nil {
		return nil, fmt.Errorf("query urgency counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var urgency string
		var n int
		if err := rows.Scan(&urgency, &n); err != nil {
			return nil, fmt.Errorf("scan urgency count: %w", err)
		}
		st.ByUrgency[triage.Urgency(urgency)] = n
		st.TotalAlerts += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate urgency counts: %w", err)
	}

	dayAgo := time.Now().UTC().Add(-24 * time.Hour).Format(timeFormat)
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM alerts WHERE created_at > ?`, dayAgo,
	).Scan(&st.Last24h)
	if err != nil {
		return nil, fmt.Errorf("query last24h: %w", err)
	}
	return st, nil
}

// Seen reports whether the (source, itemID) pair is recorded.
func (s *Store) Seen(ctx context.Context, source, itemID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM seen_items WHERE source = ? AND item_id = ?`, source, itemID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query seen: %w", err)
	}
	return true, nil
}

// MarkSeen records the pair, reporting whether this call inserted it. The
// UNIQUE(source, item_id) constraint makes the ignored insert detectable via
// the affected row count, so concurrent callers get exactly one true.
func (s *Store) MarkSeen(ctx context.Context, source, itemID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO seen_items (source, item_id, first_seen) VALUES (?, ?, ?)`,
		source, itemID, time.Now().UTC().Format(timeFormat),
	)
	if err != nil {
		return false, fmt.Errorf("mark seen: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *Store) queryAlerts(ctx context.Context, query string, args ...any) ([]triage.Alert, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []triage.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return out, nil
}

func scanAlert(rows *sql.Rows) (*triage.Alert, error) {
	var (
		a         triage.Alert
		label     string
		urgency   string
		createdAt string
		status    string
		notified  int
	)
	err := rows.Scan(
		&a.ID, &a.Source, &a.Content, &a.Author, &a.URL, &a.SentimentScore, &label,
		&urgency, &a.Recommendation, &createdAt, &status, &notified,
	)
	if err != nil {
		return nil, fmt.Errorf("scan alert: %w", err)
	}

	a.SentimentLabel = sentiment.Label(label)
	a.Urgency = triage.Urgency(urgency)
	a.Status = triage.Status(status)
	a.Notified = notified != 0

	a.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	return &a, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return triage.ErrNotFound
	}
	return nil
}
