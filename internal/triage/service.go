package triage

import (
	"context"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/pulse/internal/feed"
	"github.com/linnemanlabs/pulse/internal/sentiment"
)

// ItemOutcome classifies what happened to a single item. Every item gets an
// explicit outcome; failures are recorded, not silently swallowed.
type ItemOutcome string

const (
	// OutcomeAlerted means the item qualified and an alert was created.
	OutcomeAlerted ItemOutcome = "alerted"

	// OutcomeDuplicate means the dedup ledger had already seen the item.
	OutcomeDuplicate ItemOutcome = "duplicate"

	// OutcomeShortText means the trimmed text was below the minimum length.
	OutcomeShortText ItemOutcome = "short_text"

	// OutcomeNotNegative means sentiment did not cross the alert threshold.
	OutcomeNotNegative ItemOutcome = "not_negative"

	// OutcomeFailed means a storage operation failed for this item.
	OutcomeFailed ItemOutcome = "failed"
)

// minTextLen is the shortest trimmed text worth classifying.
const minTextLen = 10

// defaultBatchLimit caps items fetched per source per cycle.
const defaultBatchLimit = 20

// Options carries the tunable pipeline parameters.
type Options struct {
	Keywords           []string
	SentimentThreshold float64
	Interval           time.Duration
	BatchLimit         int
}

// Service is the business boundary for the triage pipeline. It composes the
// dedup ledger, classifier, urgency and recommendation engines, alert store,
// and notification dispatcher into the per-item pipeline and the cycle driver.
type Service struct {
	store       Store
	ledger      Ledger
	analyzer    *sentiment.Analyzer
	recommender *Recommender
	dispatcher  Dispatcher // nil when no channels are configured
	sources     []feed.Source
	opts        Options
	metrics     *Metrics
	logger      log.Logger
}

// NewService creates the triage service.
func NewService(store Store, ledger Ledger, analyzer *sentiment.Analyzer, recommender *Recommender, dispatcher Dispatcher, sources []feed.Source, opts Options, metrics *Metrics, logger log.Logger) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	if opts.BatchLimit <= 0 {
		opts.BatchLimit = defaultBatchLimit
	}
	return &Service{
		store:       store,
		ledger:      ledger,
		analyzer:    analyzer,
		recommender: recommender,
		dispatcher:  dispatcher,
		sources:     sources,
		opts:        opts,
		metrics:     metrics,
		logger:      logger,
	}
}

// ProcessItem runs one item through the decision pipeline. The item is marked
// seen before its content is evaluated, so a crash mid-evaluation never causes
// reprocessing: evaluation is at-most-once.
func (s *Service) ProcessItem(ctx context.Context, source string, item feed.Item) (ItemOutcome, error) {
	seen, err := s.ledger.Seen(ctx, source, item.ID)
	if err != nil {
		return OutcomeFailed, err
	}
	if seen {
		return OutcomeDuplicate, nil
	}

	inserted, err := s.ledger.MarkSeen(ctx, source, item.ID)
	if err != nil {
		return OutcomeFailed, err
	}
	if !inserted {
		// lost the insert race to a concurrent cycle
		return OutcomeDuplicate, nil
	}

	if len(strings.TrimSpace(item.Text)) < minTextLen {
		return OutcomeShortText, nil
	}

	result := s.analyzer.Classify(ctx, item.Text)
	if result.Normalized > s.opts.SentimentThreshold {
		return OutcomeNotNegative, nil
	}

	urgency := ClassifyUrgency(result.Normalized, item.Engagement)
	advice := s.recommender.Recommend(item.Text, result.Label)

	author := item.Author
	if author == "" {
		author = "Unknown"
	}

	alert := &NewAlert{
		Source:         source,
		Content:        item.Text,
		Author:         author,
		URL:            item.URL,
		SentimentScore: result.Normalized,
		SentimentLabel: result.Label,
		Urgency:        urgency,
		Recommendation: advice,
		CreatedAt:      time.Now().UTC(),
	}

	id, err := s.store.CreateAlert(ctx, alert)
	if err != nil {
		return OutcomeFailed, err
	}

	s.metrics.AlertsCreated.WithLabelValues(source, string(urgency)).Inc()
	s.logger.Info(ctx, "alert created",
		"alert_id", id,
		"source", source,
		"item_id", item.ID,
		"urgency", urgency,
		"score", result.Normalized,
	)

	if urgency == UrgencyHigh || urgency == UrgencyCritical {
		s.notify(ctx, id, alert)
	}

	return OutcomeAlerted, nil
}

// notify dispatches to all channels and flips the notified flag when at least
// one delivered. Delivery failures never fail the item.
func (s *Service) notify(ctx context.Context, alertID string, na *NewAlert) {
	if s.dispatcher == nil {
		return
	}

	outcome := s.dispatcher.Dispatch(ctx, &Alert{
		ID:             alertID,
		Source:         na.Source,
		Content:        na.Content,
		Author:         na.Author,
		URL:            na.URL,
		SentimentScore: na.SentimentScore,
		SentimentLabel: na.SentimentLabel,
		Urgency:        na.Urgency,
		Recommendation: na.Recommendation,
		CreatedAt:      na.CreatedAt,
		Status:         StatusNew,
	})

	for channel, err := range outcome {
		if err != nil {
			s.metrics.NotifyTotal.WithLabelValues(channel, "error").Inc()
			s.logger.Warn(ctx, "notification channel failed", "channel", channel, "alert_id", alertID, "error", err)
			continue
		}
		s.metrics.NotifyTotal.WithLabelValues(channel, "ok").Inc()
	}

	if !outcome.AnySuccess() {
		if len(outcome) > 0 {
			s.metrics.NotifyFailures.Inc()
		}
		return
	}

	if err := s.store.MarkNotified(ctx, alertID); err != nil {
		s.logger.Error(ctx, err, "failed to mark alert notified", "alert_id", alertID)
	}
}

// RunCycle fetches a bounded batch from every source and runs each item
// through ProcessItem. A failure fetching from one source zero-contributes for
// the cycle and never aborts the others.
func (s *Service) RunCycle(ctx context.Context, trigger string) *CycleResult {
	start := time.Now()
	s.metrics.CyclesTotal.WithLabelValues(trigger).Inc()

	result := &CycleResult{ItemsPerSource: make(map[string]int)}

	if len(s.opts.Keywords) == 0 {
		s.logger.Warn(ctx, "no keywords configured, skipping cycle")
		return result
	}

	for _, src := range s.sources {
		name := src.Name()

		items, err := src.SearchMentions(ctx, s.opts.Keywords, s.opts.BatchLimit)
		if err != nil {
			s.metrics.FeedFetches.WithLabelValues(name, "error").Inc()
			s.logger.Error(ctx, err, "feed fetch failed", "source", name)
			result.ItemsPerSource[name] = 0
			continue
		}
		s.metrics.FeedFetches.WithLabelValues(name, "ok").Inc()
		s.metrics.FeedItems.WithLabelValues(name).Observe(float64(len(items)))

		result.ItemsPerSource[name] = len(items)
		result.TotalItems += len(items)

		for _, item := range items {
			outcome, err := s.ProcessItem(ctx, name, item)
			s.metrics.ItemsTotal.WithLabelValues(name, string(outcome)).Inc()
			if err != nil {
				s.logger.Error(ctx, err, "item processing failed", "source", name, "item_id", item.ID)
				continue
			}
			if outcome == OutcomeAlerted {
				result.AlertsCreated++
			}
		}
	}

	dur := time.Since(start)
	s.metrics.CycleDuration.Observe(dur.Seconds())
	s.logger.Info(ctx, "cycle complete",
		"trigger", trigger,
		"duration", dur.Seconds(),
		"total_items", result.TotalItems,
		"alerts_created", result.AlertsCreated,
	)
	return result
}

// Run drives RunCycle on the configured interval until ctx is canceled. The
// first cycle runs immediately. A manual trigger may run RunCycle concurrently
// with this loop; the ledger's uniqueness constraint makes that race harmless.
func (s *Service) Run(ctx context.Context) {
	s.RunCycle(ctx, "timer")

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunCycle(ctx, "timer")
		case <-ctx.Done():
			s.logger.Info(context.WithoutCancel(ctx), "monitor loop stopped")
			return
		}
	}
}

// Preview classifies arbitrary text for the dashboard without touching the
// ledger or the store. Engagement is 0 here: this is a dry run, live triage
// always has engagement from the feed adapters.
func (s *Service) Preview(ctx context.Context, text string) *Preview {
	result := s.analyzer.Classify(ctx, text)
	return &Preview{
		Sentiment:      result,
		Urgency:        ClassifyUrgency(result.Normalized, 0),
		Recommendation: s.recommender.Recommend(text, result.Label),
	}
}
