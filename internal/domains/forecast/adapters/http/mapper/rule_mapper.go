package mapper

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	foretypes "github.com/fincast/balance-forecast/internal/domains/forecast/application/types"
	"github.com/fincast/balance-forecast/internal/domains/forecast/domain"
)

const dateLayout = "2006-01-02"

// RuleMutation captures inbound payloads for create/update flows while
// preserving field presence. Dates travel as "2006-01-02" strings because the
// engine works on whole calendar days.
type RuleMutation struct {
	ID           int64            `json:"id,omitempty"`
	Name         *string          `json:"name,omitempty"`
	Category     *string          `json:"category,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	Frequency    *string          `json:"frequency,omitempty"`
	RepeatsEvery *int             `json:"repeatsEvery,omitempty"`
	StartDate    *string          `json:"startDate,omitempty"`
	EndDate      *string          `json:"endDate,omitempty"`
	ClearEndDate bool             `json:"clearEndDate,omitempty"`
	Direction    *string          `json:"direction,omitempty"`
}

// Rule is the HTTP representation of a stored recurring rule.
type Rule struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Category     string          `json:"category,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Frequency    string          `json:"frequency"`
	RepeatsEvery int             `json:"repeatsEvery"`
	StartDate    string          `json:"startDate"`
	EndDate      *string         `json:"endDate,omitempty"`
	Direction    string          `json:"direction"`
	CreatedAt    time.Time       `json:"createdAt,omitempty"`
	UpdatedAt    time.Time       `json:"updatedAt,omitempty"`
}

// ToMutationInput maps a transport payload into the application mutation input.
func ToMutationInput(payload RuleMutation) (foretypes.RuleMutationInput, error) {
	input := foretypes.RuleMutationInput{
		ID:           payload.ID,
		Name:         payload.Name,
		Category:     payload.Category,
		Amount:       payload.Amount,
		Frequency:    payload.Frequency,
		RepeatsEvery: payload.RepeatsEvery,
		ClearEndDate: payload.ClearEndDate,
		Direction:    payload.Direction,
	}
	if payload.StartDate != nil {
		day, err := parseDate(*payload.StartDate)
		if err != nil {
			return foretypes.RuleMutationInput{}, fmt.Errorf("startDate: %w", err)
		}
		input.StartDate = &day
	}
	if payload.EndDate != nil {
		day, err := parseDate(*payload.EndDate)
		if err != nil {
			return foretypes.RuleMutationInput{}, fmt.Errorf("endDate: %w", err)
		}
		input.EndDate = &day
	}
	return input, nil
}

// FromStoredRule maps a stored rule into its transport representation.
func FromStoredRule(stored *foretypes.StoredRule) Rule {
	if stored == nil || stored.Rule == nil {
		return Rule{}
	}
	rule := Rule{
		ID:           stored.Rule.ID,
		Name:         stored.Rule.Name,
		Category:     stored.Rule.Category,
		Amount:       stored.Rule.Amount,
		Frequency:    string(stored.Rule.Frequency),
		RepeatsEvery: stored.Rule.RepeatsEvery,
		StartDate:    stored.Rule.StartDate.Format(dateLayout),
		Direction:    string(stored.Rule.Direction),
		CreatedAt:    stored.Metadata.CreatedAt,
		UpdatedAt:    stored.Metadata.UpdatedAt,
	}
	if stored.Rule.EndDate != nil {
		end := stored.Rule.EndDate.Format(dateLayout)
		rule.EndDate = &end
	}
	return rule
}

// FromStoredRuleList maps stored rules in order.
func FromStoredRuleList(stored []*foretypes.StoredRule) []Rule {
	rules := make([]Rule, 0, len(stored))
	for _, s := range stored {
		if s == nil {
			continue
		}
		rules = append(rules, FromStoredRule(s))
	}
	return rules
}

func parseDate(value string) (time.Time, error) {
	day, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected %s: %w", dateLayout, err)
	}
	return domain.Midnight(day), nil
}
