package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Frequency enumerates the supported recurrence cadences.
type Frequency string

const (
	FrequencyDaily             Frequency = "daily"
	FrequencyWeekly            Frequency = "weekly"
	FrequencyMonthly           Frequency = "monthly"
	FrequencyYearly            Frequency = "yearly"
	FrequencyOneTime           Frequency = "one-time"
	FrequencySemimonthlyMidEnd Frequency = "semimonthly_mid_end"
)

// AdjustDirection is the weekend/holiday shifting policy of a rule.
// Income lands on the last business day before a blocked date; bills land on
// the first business day after it.
type AdjustDirection string

const (
	DirectionForward  AdjustDirection = "forward"
	DirectionBackward AdjustDirection = "backward"
)

var (
	ErrEmptyName        = errors.New("rule name is required")
	ErrUnknownFrequency = errors.New("unknown rule frequency")
	ErrInvalidStride    = errors.New("repeatsEvery must be at least 1")
	ErrMissingStartDate = errors.New("rule start date is required")
	ErrInvertedWindow   = errors.New("rule end date precedes its start date")
	ErrInvalidDirection = errors.New("unknown adjustment direction")
)

// ParseFrequency normalizes a stored frequency string. The match is
// case-insensitive because legacy bill records carried free-form casing.
func ParseFrequency(raw string) (Frequency, error) {
	switch Frequency(strings.ToLower(strings.TrimSpace(raw))) {
	case FrequencyDaily:
		return FrequencyDaily, nil
	case FrequencyWeekly:
		return FrequencyWeekly, nil
	case FrequencyMonthly:
		return FrequencyMonthly, nil
	case FrequencyYearly:
		return FrequencyYearly, nil
	case FrequencyOneTime:
		return FrequencyOneTime, nil
	case FrequencySemimonthlyMidEnd:
		return FrequencySemimonthlyMidEnd, nil
	default:
		return "", ErrUnknownFrequency
	}
}

// DirectionForCategory maps the historical category convention onto the
// explicit direction attribute: only "paycheck" rules shift backward.
func DirectionForCategory(category string) AdjustDirection {
	if strings.EqualFold(strings.TrimSpace(category), "paycheck") {
		return DirectionBackward
	}
	return DirectionForward
}

// RecurringRule is a recurring bill or income source. Amount is signed:
// negative for expenses, positive for income.
type RecurringRule struct {
	ID           int64
	Name         string
	Category     string
	Amount       decimal.Decimal
	Frequency    Frequency
	RepeatsEvery int
	StartDate    time.Time
	EndDate      *time.Time
	Direction    AdjustDirection
}

// NewRecurringRule validates the invariants and builds a rule aggregate.
// The adjustment direction is fixed at creation time from the category
// convention; callers that know better can override it afterwards.
func NewRecurringRule(id int64, name, category string, amount decimal.Decimal, frequency Frequency, repeatsEvery int, start time.Time, end *time.Time) (*RecurringRule, error) {
	r := &RecurringRule{
		ID:           id,
		Category:     strings.TrimSpace(category),
		Amount:       amount,
		Frequency:    frequency,
		RepeatsEvery: repeatsEvery,
		StartDate:    Midnight(start),
		Direction:    DirectionForCategory(category),
	}
	if err := r.Rename(name); err != nil {
		return nil, err
	}
	if end != nil {
		e := Midnight(*end)
		r.EndDate = &e
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Rename mutates the rule name ensuring the invariant.
func (r *RecurringRule) Rename(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	r.Name = name
	return nil
}

// OverrideDirection replaces the creation-time direction.
func (r *RecurringRule) OverrideDirection(dir AdjustDirection) error {
	switch dir {
	case DirectionForward, DirectionBackward:
		r.Direction = dir
		return nil
	default:
		return ErrInvalidDirection
	}
}

// Validate reports the first violated invariant. A rule failing validation is
// skipped by the series builder rather than failing a run.
func (r *RecurringRule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	if _, err := ParseFrequency(string(r.Frequency)); err != nil {
		return err
	}
	if r.RepeatsEvery < 1 {
		return ErrInvalidStride
	}
	if r.StartDate.IsZero() {
		return ErrMissingStartDate
	}
	if r.EndDate != nil && r.EndDate.Before(r.StartDate) {
		return ErrInvertedWindow
	}
	switch r.Direction {
	case DirectionForward, DirectionBackward, "":
	default:
		return ErrInvalidDirection
	}
	return nil
}

// IsIncome reports whether the rule credits the balance.
func (r *RecurringRule) IsIncome() bool {
	return r.Amount.IsPositive()
}

// Clone returns a defensive copy, detaching the end-date pointer.
func (r *RecurringRule) Clone() *RecurringRule {
	if r == nil {
		return nil
	}
	clone := *r
	if r.EndDate != nil {
		end := *r.EndDate
		clone.EndDate = &end
	}
	return &clone
}

// Midnight truncates a timestamp to its UTC calendar day. All recurrence and
// adjustment arithmetic operates on these normalized dates.
func Midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
