package curation

import "time"

// DefaultStaleAfter is the push age a repository must exceed to be stale.
const DefaultStaleAfter = 180 * 24 * time.Hour

// Policy decides whether a repository qualifies for removal.
type Policy interface {
	IsStale(meta RepositoryMetadata, now time.Time) bool
}

// Evaluator is the default staleness policy: no push for more than
// StaleAfter (counted in whole days) while issues or pull requests are open.
// A repository with nothing open is left alone however old its last push is.
type Evaluator struct {
	StaleAfter time.Duration
}

func NewEvaluator(staleAfter time.Duration) *Evaluator {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Evaluator{StaleAfter: staleAfter}
}

func (e *Evaluator) IsStale(meta RepositoryMetadata, now time.Time) bool {
	if !PushAgeExceeds(meta.LastPushedAt, now, e.StaleAfter) {
		return false
	}
	return meta.OpenIssueCount > 0 || meta.OpenPullCount > 0
}

// DaysSincePush returns the whole days elapsed since pushedAt.
func DaysSincePush(pushedAt, now time.Time) int {
	return int(now.Sub(pushedAt) / (24 * time.Hour))
}

// PushAgeExceeds compares the whole-day push age strictly against limit.
func PushAgeExceeds(pushedAt, now time.Time, limit time.Duration) bool {
	age := now.Sub(pushedAt).Truncate(24 * time.Hour)
	return age > limit
}
