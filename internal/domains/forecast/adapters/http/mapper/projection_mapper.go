package mapper

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	foretypes "github.com/fincast/balance-forecast/internal/domains/forecast/application/types"
	"github.com/fincast/balance-forecast/internal/domains/forecast/domain"
	"github.com/fincast/balance-forecast/internal/domains/forecast/ports"
)

// RunProjectionRequest triggers a recomputation. Both fields are optional;
// anchorDate defaults to today and horizonDays to the configured settings.
type RunProjectionRequest struct {
	AnchorDate  *string `json:"anchorDate,omitempty"`
	HorizonDays *int    `json:"horizonDays,omitempty"`
}

// Occurrence is the compact rule representation attached to a projection day.
type Occurrence struct {
	RuleID   int64           `json:"ruleId"`
	Name     string          `json:"name"`
	Category string          `json:"category,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
}

// ProjectionDay is one day of the projected series.
type ProjectionDay struct {
	Date      string          `json:"date"`
	Balance   decimal.Decimal `json:"balance"`
	Rules     []Occurrence    `json:"rules,omitempty"`
	IsHighest bool            `json:"isHighest,omitempty"`
	IsLowest  bool            `json:"isLowest,omitempty"`
}

// Projection is the stored series plus its run identity.
type Projection struct {
	RunID      string          `json:"runId"`
	AnchorDate string          `json:"anchorDate"`
	ComputedAt time.Time       `json:"computedAt"`
	Days       []ProjectionDay `json:"days"`
}

// RunSummary reports data-quality counters for a single run.
type RunSummary struct {
	SkippedRules        int  `json:"skippedRules"`
	AdjustedOccurrences int  `json:"adjustedOccurrences"`
	DroppedOccurrences  int  `json:"droppedOccurrences"`
	AdjustmentOverflows int  `json:"adjustmentOverflows"`
	HolidayFallback     bool `json:"holidayFallback"`
}

// RunResult couples the stored projection with its run summary.
type RunResult struct {
	Projection Projection `json:"projection"`
	Summary    RunSummary `json:"summary"`
}

// Settings is the HTTP representation of the projection settings.
type Settings struct {
	HorizonDays     int              `json:"horizonDays"`
	CurrentBalance  decimal.Decimal  `json:"currentBalance"`
	BalanceOverride *decimal.Decimal `json:"balanceOverride,omitempty"`
}

// ToRunProjectionInput maps a transport request into the application input.
func ToRunProjectionInput(payload RunProjectionRequest) (foretypes.RunProjectionInput, error) {
	var input foretypes.RunProjectionInput
	if payload.AnchorDate != nil {
		day, err := parseDate(*payload.AnchorDate)
		if err != nil {
			return foretypes.RunProjectionInput{}, fmt.Errorf("anchorDate: %w", err)
		}
		input.AnchorDate = day
	}
	if payload.HorizonDays != nil {
		input.HorizonDays = *payload.HorizonDays
	}
	return input, nil
}

// FromStoredProjection maps a stored projection into its transport representation.
func FromStoredProjection(stored *foretypes.StoredProjection) Projection {
	if stored == nil {
		return Projection{}
	}
	days := make([]ProjectionDay, 0, len(stored.Days))
	for _, d := range stored.Days {
		days = append(days, fromProjectionDay(d))
	}
	return Projection{
		RunID:      stored.RunID,
		AnchorDate: stored.AnchorDate.Format(dateLayout),
		ComputedAt: stored.ComputedAt,
		Days:       days,
	}
}

// FromRunResult maps a run outcome into its transport representation.
func FromRunResult(result *foretypes.RunResult) RunResult {
	if result == nil {
		return RunResult{}
	}
	return RunResult{
		Projection: FromStoredProjection(&result.Projection),
		Summary: RunSummary{
			SkippedRules:        result.Summary.SkippedRules,
			AdjustedOccurrences: result.Summary.AdjustedOccurrences,
			DroppedOccurrences:  result.Summary.DroppedOccurrences,
			AdjustmentOverflows: result.Summary.AdjustmentOverflows,
			HolidayFallback:     result.Summary.HolidayFallback,
		},
	}
}

// ToSettings maps a transport payload into the application settings.
func ToSettings(payload Settings) ports.Settings {
	return ports.Settings{
		HorizonDays:     payload.HorizonDays,
		CurrentBalance:  payload.CurrentBalance,
		BalanceOverride: payload.BalanceOverride,
	}
}

// FromSettings maps application settings into the transport representation.
func FromSettings(settings ports.Settings) Settings {
	return Settings{
		HorizonDays:     settings.HorizonDays,
		CurrentBalance:  settings.CurrentBalance,
		BalanceOverride: settings.BalanceOverride,
	}
}

func fromProjectionDay(day domain.ProjectionDay) ProjectionDay {
	var occurrences []Occurrence
	for _, rule := range day.Rules {
		occurrences = append(occurrences, Occurrence{
			RuleID:   rule.ID,
			Name:     rule.Name,
			Category: rule.Category,
			Amount:   rule.Amount,
		})
	}
	return ProjectionDay{
		Date:      day.Date.Format(dateLayout),
		Balance:   day.Balance,
		Rules:     occurrences,
		IsHighest: day.IsHighest,
		IsLowest:  day.IsLowest,
	}
}
