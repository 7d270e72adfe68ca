package ports

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	types "github.com/fincast/balance-forecast/internal/domains/forecast/application/types"
	"github.com/fincast/balance-forecast/internal/domains/forecast/domain"
)

var (
	ErrRuleNotFound     = errors.New("recurring rule not found")
	ErrSettingsNotFound = errors.New("forecast settings not configured")
)

// RuleRepository persists recurring rules (driven port).
type RuleRepository interface {
	Save(ctx context.Context, rule *domain.RecurringRule) (*types.StoredRule, error)
	GetByID(ctx context.Context, id int64) (*types.StoredRule, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*types.StoredRule, error)
}

// Settings carries the run configuration supplied by the settings store.
// BalanceOverride, when set, takes precedence over CurrentBalance.
type Settings struct {
	HorizonDays     int
	CurrentBalance  decimal.Decimal
	BalanceOverride *decimal.Decimal
}

// StartingBalance resolves the balance a projection run starts from.
func (s Settings) StartingBalance() decimal.Decimal {
	if s.BalanceOverride != nil {
		return *s.BalanceOverride
	}
	return s.CurrentBalance
}

// SettingsStore supplies and persists the run configuration.
type SettingsStore interface {
	Get(ctx context.Context) (Settings, error)
	Put(ctx context.Context, settings Settings) error
}

// HolidaySource returns the public holidays covering [from, to].
// Implementations may fetch over the network; failures are expected to be
// absorbed by the caller, which degrades to an empty set.
type HolidaySource interface {
	HolidaysBetween(ctx context.Context, from, to time.Time) (domain.HolidaySet, error)
}

// ProjectionStore persists the output of a projection run.
// Replace must be atomic: either the stored series for dates >= the run's
// anchor is fully swapped for the new one, or the prior series survives
// intact. The series is always computed in full before Replace is called.
type ProjectionStore interface {
	Replace(ctx context.Context, projection types.StoredProjection) error
	Latest(ctx context.Context) (*types.StoredProjection, error)
}
