package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// RuleMutationInput captures inbound create/update payloads while preserving
// field presence: nil pointers mean "leave unchanged" on updates.
type RuleMutationInput struct {
	ID           int64
	Name         *string
	Category     *string
	Amount       *decimal.Decimal
	Frequency    *string
	RepeatsEvery *int
	StartDate    *time.Time
	EndDate      *time.Time
	ClearEndDate bool
	Direction    *string
}

// CreateRuleInput adds a new recurring rule.
type CreateRuleInput struct {
	RuleMutationInput
}

// UpdateRuleInput mutates an existing recurring rule.
type UpdateRuleInput struct {
	RuleMutationInput
}

// RuleIdentifier addresses a single rule.
type RuleIdentifier struct {
	ID int64
}

// RunProjectionInput triggers a projection run. AnchorDate defaults to the
// current UTC day and HorizonDays to the configured settings value when zero.
type RunProjectionInput struct {
	AnchorDate  time.Time
	HorizonDays int
}
