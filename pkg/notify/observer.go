package notify

import (
	"context"
	"fmt"

	"curator/pkg/curation"
)

// Notifier publishes the outcome of a cleanup pass: one event per removal
// record, then a summary.
type Notifier struct {
	publisher Publisher
	topic     string
}

// NewNotifier wraps publisher; an empty topic falls back to the default.
func NewNotifier(publisher Publisher, topic string) *Notifier {
	if topic == "" {
		topic = "curator.removals"
	}
	return &Notifier{publisher: publisher, topic: topic}
}

// Observe implements curation.Observer.
func (n *Notifier) Observe(ctx context.Context, report *curation.Report) error {
	if report == nil {
		return nil
	}
	for i := range report.Removed {
		record := report.Removed[i]
		event := Event{
			RunID:      report.RunID,
			Kind:       KindRemoval,
			Removal:    &record,
			OccurredAt: report.FinishedAt,
		}
		if err := n.publisher.Publish(ctx, n.topic, event); err != nil {
			return fmt.Errorf("publish removal %s: %w", record.Repository, err)
		}
	}
	summary := Event{
		RunID:      report.RunID,
		Kind:       KindSummary,
		Authors:    report.Authors,
		Removed:    len(report.Removed),
		Backfilled: len(report.Backfilled),
		OccurredAt: report.FinishedAt,
	}
	if err := n.publisher.Publish(ctx, n.topic, summary); err != nil {
		return fmt.Errorf("publish summary: %w", err)
	}
	return nil
}

// Close releases the underlying publisher.
func (n *Notifier) Close() error {
	return n.publisher.Close()
}
