package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ProjectionDay is one day of a projected balance series.
type ProjectionDay struct {
	Date      time.Time
	Balance   decimal.Decimal
	Rules     []RecurringRule
	IsHighest bool
	IsLowest  bool
}

// RunSummary aggregates the non-fatal data-quality findings of a run so the
// caller can decide whether to alert anyone. A run with skipped rules still
// produces a complete series.
type RunSummary struct {
	SkippedRules        int
	AdjustedOccurrences int
	DroppedOccurrences  int
	AdjustmentOverflows int
	HolidayFallback     bool
}

// SeriesInput is the full snapshot a projection run is computed from.
type SeriesInput struct {
	CurrentBalance decimal.Decimal
	Rules          []RecurringRule
	Holidays       HolidaySet
	HorizonDays    int
	AnchorDate     time.Time
}

// Series is the ordered result of a projection run.
type Series struct {
	Days    []ProjectionDay
	Summary RunSummary
}

// ErrInvalidHorizon rejects non-positive horizons before any work is done.
var ErrInvalidHorizon = errors.New("projection horizon must be at least 1 day")

// BuildSeries expands every rule over the horizon, shifts occurrences off
// weekends and holidays, and assembles the running balance series.
//
// The anchor day records its occurrences for display but their amounts are
// not applied: they are assumed to already be reflected in the starting
// balance. Carry-forward begins on day 1, and the extrema flags consider
// days 1..n-1 only. Occurrences whose adjusted date falls outside the
// horizon are dropped, not wrapped.
func BuildSeries(input SeriesInput) (*Series, error) {
	if input.HorizonDays < 1 {
		return nil, ErrInvalidHorizon
	}
	anchor := Midnight(input.AnchorDate)

	series := &Series{Days: make([]ProjectionDay, input.HorizonDays)}
	buckets := make([][]RecurringRule, input.HorizonDays)
	for i := range series.Days {
		series.Days[i].Date = anchor.AddDate(0, 0, i)
	}

	for _, rule := range input.Rules {
		if err := rule.Validate(); err != nil {
			series.Summary.SkippedRules++
			continue
		}
		bucketRule(series, buckets, rule, anchor, input.Holidays)
	}

	balance := input.CurrentBalance
	for i := range series.Days {
		series.Days[i].Rules = buckets[i]
		if i > 0 {
			for _, rule := range buckets[i] {
				balance = balance.Add(rule.Amount)
			}
		}
		series.Days[i].Balance = balance
	}

	markExtrema(series.Days)
	return series, nil
}

func bucketRule(series *Series, buckets [][]RecurringRule, rule RecurringRule, anchor time.Time, holidays HolidaySet) {
	for i := 0; i < len(buckets); i++ {
		day := anchor.AddDate(0, 0, i)
		if !OccursOn(&rule, day) {
			continue
		}
		adjusted := day
		// Daily occurrences are never shifted: moving one would collide
		// with the next day's own occurrence.
		if rule.Frequency != FrequencyDaily {
			shifted, err := AdjustDate(day, rule.Direction, holidays)
			if err != nil {
				series.Summary.AdjustmentOverflows++
			} else {
				adjusted = shifted
			}
		}
		offset := daysBetween(anchor, adjusted)
		if offset < 0 || offset >= len(buckets) {
			series.Summary.DroppedOccurrences++
			continue
		}
		if !adjusted.Equal(day) {
			series.Summary.AdjustedOccurrences++
		}
		buckets[offset] = append(buckets[offset], rule)
	}
}

// markExtrema flags the single highest and lowest balance days, excluding
// the anchor day. Ties resolve to the earliest day.
func markExtrema(days []ProjectionDay) {
	if len(days) < 2 {
		return
	}
	highest, lowest := 1, 1
	for i := 2; i < len(days); i++ {
		if days[i].Balance.GreaterThan(days[highest].Balance) {
			highest = i
		}
		if days[i].Balance.LessThan(days[lowest].Balance) {
			lowest = i
		}
	}
	days[highest].IsHighest = true
	days[lowest].IsLowest = true
}
