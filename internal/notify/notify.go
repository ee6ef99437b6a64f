// Package notify fans qualifying alerts out to notification channels.
package notify

import (
	"context"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/pulse/internal/triage"
)

// Notifier delivers an alert to one channel.
type Notifier interface {
	// Name identifies the channel in logs, metrics, and dispatch outcomes.
	Name() string

	// Send delivers the alert. Failures are reported, never panicked.
	Send(ctx context.Context, a *triage.Alert) error
}

// Dispatcher sends each alert to every registered channel. Channels are
// attempted independently; one failure never blocks another.
type Dispatcher struct {
	channels []Notifier
	logger   log.Logger
}

// NewDispatcher builds a dispatcher over the given channels. A nil logger
// falls back to a no-op logger.
func NewDispatcher(channels []Notifier, logger log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Nop()
	}
	return &Dispatcher{channels: channels, logger: logger}
}

// Dispatch sends the alert to every channel and returns the per-channel
// outcome. Channels are attempted sequentially; delivery latency is bounded
// by each notifier's own HTTP timeout.
func (d *Dispatcher) Dispatch(ctx context.Context, a *triage.Alert) triage.DispatchOutcome {
	outcome := make(triage.DispatchOutcome, len(d.channels))
	for _, ch := range d.channels {
		err := ch.Send(ctx, a)
		outcome[ch.Name()] = err
		if err != nil {
			d.logger.Error(ctx, err, "notification failed",
				"channel", ch.Name(),
				"alert_id", a.ID,
			)
			continue
		}
		d.logger.Info(ctx, "notification sent",
			"channel", ch.Name(),
			"alert_id", a.ID,
			"urgency", string(a.Urgency),
		)
	}
	return outcome
}
