package types

import (
	"time"

	"github.com/fincast/balance-forecast/internal/domains/forecast/domain"
)

// Metadata captures persistence timestamps attached to stored aggregates.
type Metadata struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StoredRule transports a rule aggregate together with persistence metadata.
type StoredRule struct {
	Rule     *domain.RecurringRule
	Metadata Metadata
}

// NewStoredRule wraps an aggregate with persistence metadata.
func NewStoredRule(rule *domain.RecurringRule, createdAt, updatedAt time.Time) *StoredRule {
	if rule == nil {
		return nil
	}
	return &StoredRule{
		Rule:     rule,
		Metadata: Metadata{CreatedAt: createdAt, UpdatedAt: updatedAt},
	}
}

// StoredProjection is a persisted projection run: the series plus the run
// identity and timestamps of when it was computed.
type StoredProjection struct {
	RunID      string
	AnchorDate time.Time
	Days       []domain.ProjectionDay
	ComputedAt time.Time
}

// RunResult is what a projection run returns to callers: the stored series
// and the data-quality summary of the computation.
type RunResult struct {
	Projection StoredProjection
	Summary    domain.RunSummary
}
