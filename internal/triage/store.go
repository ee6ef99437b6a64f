package triage

import (
	"context"
	"errors"
)

// ErrInvalidStatus is returned by UpdateStatus for values outside the
// four-value status enum.
var ErrInvalidStatus = errors.New("invalid alert status")

// ErrNotFound is returned when an alert ID does not exist.
var ErrNotFound = errors.New("alert not found")

// Store is the persistence interface for alerts. All operations are atomic at
// the single-record level; the core never needs multi-record transactions.
type Store interface {
	// CreateAlert inserts the alert, assigning its ID and CreatedAt, with
	// status new and notified false. Returns the assigned ID.
	CreateAlert(ctx context.Context, a *NewAlert) (string, error)

	// MarkNotified sets the notified flag. Idempotent: setting an
	// already-true flag is a no-op, not an error.
	MarkNotified(ctx context.Context, id string) error

	// UpdateStatus overwrites the alert's status. Returns ErrInvalidStatus
	// for values outside the enum and ErrNotFound for unknown IDs.
	UpdateStatus(ctx context.Context, id string, status Status) error

	// ListRecent returns up to limit alerts, newest first.
	ListRecent(ctx context.Context, limit int) ([]Alert, error)

	// ListUnnotified returns alerts with notified=false, newest first.
	ListUnnotified(ctx context.Context) ([]Alert, error)

	// Stats summarizes the store for the dashboard.
	Stats(ctx context.Context) (*Stats, error)
}

// Ledger records which (source, item id) pairs have been evaluated, gating
// every item before any content is examined. Keys are never deleted.
type Ledger interface {
	// Seen reports whether the pair was already recorded.
	Seen(ctx context.Context, source, itemID string) (bool, error)

	// MarkSeen records the pair and reports whether this call inserted it.
	// Idempotent and atomic under concurrent insert of the same key: when
	// two cycles race, exactly one caller gets inserted=true and the other
	// observes the conflict as a normal already-seen outcome, never an
	// error.
	MarkSeen(ctx context.Context, source, itemID string) (inserted bool, err error)
}

// DispatchOutcome maps channel name to delivery error (nil = delivered).
type DispatchOutcome map[string]error

// AnySuccess reports whether at least one channel delivered.
func (o DispatchOutcome) AnySuccess() bool {
	for _, err := range o {
		if err == nil {
			return true
		}
	}
	return false
}

// Dispatcher fans a qualifying alert out to the configured notification
// channels. One channel's failure must not block another's attempt.
type Dispatcher interface {
	Dispatch(ctx context.Context, a *Alert) DispatchOutcome
}
