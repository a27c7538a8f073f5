package internal

import (
	"fmt"
	"log"
	"strings"
	"time"

	"curator/pkg/curation"

	"github.com/Knetic/govaluate"
)

// ExpressionPolicy evaluates an operator-supplied staleness expression.
// Parameters: days_since_push, open_issues, open_pulls, owner_type,
// owner_login, archived, fork.
type ExpressionPolicy struct {
	when     string
	expr     *govaluate.EvaluableExpression
	fallback curation.Policy
	logger   *log.Logger
}

// NewStalenessPolicy returns the default evaluator, or an expression policy
// falling back to it when cfg.When is set.
func NewStalenessPolicy(cfg PolicyConfig, logger *log.Logger) (curation.Policy, error) {
	days := cfg.StaleAfterDays
	if days <= 0 {
		days = 180
	}
	evaluator := curation.NewEvaluator(time.Duration(days) * 24 * time.Hour)
	when := strings.TrimSpace(cfg.When)
	if when == "" {
		return evaluator, nil
	}
	expr, err := govaluate.NewEvaluableExpression(when)
	if err != nil {
		return nil, fmt.Errorf("compile policy: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ExpressionPolicy{when: when, expr: expr, fallback: evaluator, logger: logger}, nil
}

func (p *ExpressionPolicy) IsStale(meta curation.RepositoryMetadata, now time.Time) bool {
	result, err := p.expr.Evaluate(policyParameters(meta, now))
	if err != nil {
		p.logger.Printf("policy eval failed repository=%s: %v", meta.Repository, err)
		return p.fallback.IsStale(meta, now)
	}
	stale, ok := result.(bool)
	if !ok {
		p.logger.Printf("policy %q returned %T, want bool", p.when, result)
		return p.fallback.IsStale(meta, now)
	}
	return stale
}

func policyParameters(meta curation.RepositoryMetadata, now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"days_since_push": float64(curation.DaysSincePush(meta.LastPushedAt, now)),
		"open_issues":     float64(meta.OpenIssueCount),
		"open_pulls":      float64(meta.OpenPullCount),
		"owner_type":      string(meta.OwnerType),
		"owner_login":     meta.OwnerLogin,
		"archived":        meta.Archived,
		"fork":            meta.Fork,
	}
}
