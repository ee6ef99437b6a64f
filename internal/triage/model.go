package triage

import (
	"time"

	"github.com/linnemanlabs/pulse/internal/sentiment"
)

// Status tracks where an alert is in its handling lifecycle. Transitions are
// driven by the dashboard and are unconstrained in order.
type Status string

const (
	// StatusNew means created, not yet looked at
	StatusNew Status = "new"

	// StatusInProgress means someone is handling it
	StatusInProgress Status = "in_progress"

	// StatusResolved means handled
	StatusResolved Status = "resolved"

	// StatusIgnored means reviewed and dismissed
	StatusIgnored Status = "ignored"
)

// ValidStatus reports whether s is one of the four dashboard statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusNew, StatusInProgress, StatusResolved, StatusIgnored:
		return true
	}
	return false
}

// Urgency ranks how quickly an alert needs attention. Critical is most severe.
type Urgency string

const (
	UrgencyLow      Urgency = "LOW"
	UrgencyMedium   Urgency = "MEDIUM"
	UrgencyHigh     Urgency = "HIGH"
	UrgencyCritical Urgency = "CRITICAL"
)

// Alert is a triggered sentiment alert, the durable record of one qualifying
// item. The store is the single writer of ID and Notified.
type Alert struct {
	ID             string          `json:"id"`
	Source         string          `json:"source"`
	Content        string          `json:"content"`
	Author         string          `json:"author"`
	URL            string          `json:"url,omitempty"`
	SentimentScore float64         `json:"sentiment_score"`
	SentimentLabel sentiment.Label `json:"sentiment_label"`
	Urgency        Urgency         `json:"urgency_level"`
	Recommendation string          `json:"recommended_response"`
	CreatedAt      time.Time       `json:"created_at"`
	Status         Status          `json:"status"`
	Notified       bool            `json:"notified"`
}

// NewAlert is the caller-supplied portion of an Alert. The store assigns ID
// at insert and initializes Status to new, Notified to false. A zero
// CreatedAt is filled with the store's clock.
type NewAlert struct {
	Source         string
	Content        string
	Author         string
	URL            string
	SentimentScore float64
	SentimentLabel sentiment.Label
	Urgency        Urgency
	Recommendation string
	CreatedAt      time.Time
}

// Stats summarizes the alert store for the dashboard.
type Stats struct {
	TotalAlerts int             `json:"total_alerts"`
	ByUrgency   map[Urgency]int `json:"urgency_counts"`
	Last24h     int             `json:"last_24h"`
}

// CycleResult aggregates the outcome of one monitoring cycle.
type CycleResult struct {
	ItemsPerSource map[string]int `json:"items_per_source"`
	TotalItems     int            `json:"total_items"`
	AlertsCreated  int            `json:"alerts_created"`
}

// Preview is the dashboard's dry-run classification of arbitrary text. It
// classifies with engagement 0 and never touches the ledger or the store.
type Preview struct {
	Sentiment      sentiment.Result `json:"sentiment"`
	Urgency        Urgency          `json:"urgency"`
	Recommendation string           `json:"recommendation"`
}
