// Package pgstore provides a PostgreSQL implementation of triage.Store and
// triage.Ledger.
package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/pulse/internal/sentiment"
	"github.com/linnemanlabs/pulse/internal/triage"
)

var tracer = otel.Tracer("github.com/linnemanlabs/pulse/internal/triage/pgstore")

//go:embed schema.sql
var schema string

// Store persists alerts and the dedup ledger in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema and returns a ready Store. The pool stays owned by
// the caller.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const alertColumns = `id, source, content, author, url, sentiment_score, sentiment_label,
	urgency_level, recommended_response, created_at, status, notified`

// CreateAlert inserts the alert and returns its assigned ID.
func (s *Store) CreateAlert(ctx context.Context, a *triage.NewAlert) (string, error) {
	ctx, span := tracer.Start(ctx, "pgstore.CreateAlert", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	id := ulid.Make().String()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO alerts (id, source, content, author, url, sentiment_score, sentiment_label,
			urgency_level, recommended_response, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, a.Source, a.Content, a.Author, a.URL, a.SentimentScore, string(a.SentimentLabel),
		string(a.Urgency), a.Recommendation, created,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("insert alert: %w", err)
	}
	return id, nil
}

// MarkNotified sets the notified flag. Already-true is a no-op.
func (s *Store) MarkNotified(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "pgstore.MarkNotified", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "UPDATE"),
	))
	defer span.End()

	tag, err := s.pool.Exec(ctx, `UPDATE alerts SET notified = TRUE WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("mark notified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return triage.ErrNotFound
	}
	return nil
}

// UpdateStatus overwrites the alert's status after enum validation.
func (s *Store) UpdateStatus(ctx context.Context, id string, status triage.Status) error {
	if !triage.ValidStatus(status) {
		return triage.ErrInvalidStatus
	}

	ctx, span := tracer.Start(ctx, "pgstore.UpdateStatus", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "UPDATE"),
	))
	defer span.End()

	tag, err := s.pool.Exec(ctx, `UPDATE alerts SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return triage.ErrNotFound
	}
	return nil
}

// ListRecent returns up to limit alerts, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]triage.Alert, error) {
	ctx, span := tracer.Start(ctx, "pgstore.ListRecent", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + alertColumns + ` FROM alerts ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	out, err := s.queryAlerts(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return out, nil
}

// ListUnnotified returns alerts with notified=false, newest first.
func (s *Store) ListUnnotified(ctx context.Context) ([]triage.Alert, error) {
	ctx, span := tracer.Start(ctx, "pgstore.ListUnnotified", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	out, err := s.queryAlerts(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE NOT notified ORDER BY created_at DESC, id DESC`)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return out, nil
}

// Stats summarizes the alert store.
func (s *Store) Stats(ctx context.Context) (*triage.Stats, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Stats", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	st := &triage.Stats{ByUrgency: make(map[triage.Urgency]int)}

	rows, err := s.pool.Query(ctx, `SELECT urgency_level, COUNT(*) FROM alerts GROUP BY urgency_level`)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
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

	err = s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM alerts WHERE created_at > now() - INTERVAL '24 hours'`,
	).Scan(&st.Last24h)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query last24h: %w", err)
	}
	return st, nil
}

// Seen reports whether the (source, itemID) pair is recorded.
func (s *Store) Seen(ctx context.Context, source, itemID string) (bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Seen", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	var one int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 FROM seen_items WHERE source = $1 AND item_id = $2`, source, itemID,
	).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("query seen: %w", err)
	}
	return true, nil
}

// MarkSeen records the pair, reporting whether this call inserted it. The
// primary key on (source, item_id) makes ON CONFLICT DO NOTHING detectable
// via the affected row count, so concurrent callers get exactly one true.
func (s *Store) MarkSeen(ctx context.Context, source, itemID string) (bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.MarkSeen", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO seen_items (source, item_id) VALUES ($1, $2)
		 ON CONFLICT (source, item_id) DO NOTHING`,
		source, itemID,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("mark seen: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) queryAlerts(ctx context.Context, query string, args ...any) ([]triage.Alert, error) {
	rows, err := s.pool.Query(ctx, query, args...)
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

func scanAlert(rows pgx.Rows) (*triage.Alert, error) {
	var (
		a         triage.Alert
		label     string
		urgency   string
		status    string
		createdAt time.Time
	)
	err := rows.Scan(
		&a.ID, &a.Source, &a.Content, &a.Author, &a.URL, &a.SentimentScore, &label,
		&urgency, &a.Recommendation, &createdAt, &status, &a.Notified,
	)
	if err != nil {
		return nil, fmt.Errorf("scan alert: %w", err)
	}

	a.SentimentLabel = sentiment.Label(label)
	a.Urgency = triage.Urgency(urgency)
	a.Status = triage.Status(status)
	a.CreatedAt = createdAt
	return &a, nil
}
