package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func money(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func seriesRule(t *testing.T, id int64, name, category string, amount int64, freq Frequency, start time.Time) RecurringRule {
	t.Helper()
	rule, err := NewRecurringRule(id, name, category, money(amount), freq, 1, start, nil)
	require.NoError(t, err)
	return *rule
}

func TestBuildSeries_RejectsInvalidHorizon(t *testing.T) {
	_, err := BuildSeries(SeriesInput{HorizonDays: 0, AnchorDate: date(2024, time.January, 1)})
	require.ErrorIs(t, err, ErrInvalidHorizon)
}

func TestBuildSeries_LengthAndContiguousDates(t *testing.T) {
	anchor := date(2024, time.January, 1)
	series, err := BuildSeries(SeriesInput{
		CurrentBalance: money(500),
		HorizonDays:    30,
		AnchorDate:     anchor,
	})
	require.NoError(t, err)
	require.Len(t, series.Days, 30)
	for i, day := range series.Days {
		assert.Equal(t, anchor.AddDate(0, 0, i), day.Date)
	}
	assert.True(t, series.Days[0].Balance.Equal(money(500)))
}

func TestBuildSeries_BalanceConservation(t *testing.T) {
	anchor := date(2024, time.January, 1)
	rules := []RecurringRule{
		seriesRule(t, 1, "coffee", "food", -5, FrequencyDaily, date(2023, time.December, 1)),
		seriesRule(t, 2, "paycheck", "paycheck", 2000, FrequencyWeekly, date(2024, time.January, 5)),
		seriesRule(t, 3, "rent", "housing", -1200, FrequencyMonthly, date(2023, time.November, 2)),
	}
	series, err := BuildSeries(SeriesInput{
		CurrentBalance: money(300),
		Rules:          rules,
		HorizonDays:    30,
		AnchorDate:     anchor,
	})
	require.NoError(t, err)

	prev := series.Days[0].Balance
	require.True(t, prev.Equal(money(300)))
	for i := 1; i < len(series.Days); i++ {
		expected := prev
		for _, rule := range series.Days[i].Rules {
			expected = expected.Add(rule.Amount)
		}
		assert.True(t, series.Days[i].Balance.Equal(expected), "day %d: got %s want %s", i, series.Days[i].Balance, expected)
		prev = series.Days[i].Balance
	}
}

func TestBuildSeries_AnchorDayAmountsNotApplied(t *testing.T) {
	anchor := date(2024, time.January, 10)
	rules := []RecurringRule{
		seriesRule(t, 1, "subscription", "other", -15, FrequencyOneTime, anchor),
	}
	series, err := BuildSeries(SeriesInput{
		CurrentBalance: money(100),
		Rules:          rules,
		HorizonDays:    5,
		AnchorDate:     anchor,
	})
	require.NoError(t, err)

	require.Len(t, series.Days[0].Rules, 1)
	assert.True(t, series.Days[0].Balance.Equal(money(100)))
	assert.True(t, series.Days[1].Balance.Equal(money(100)))
}

func TestBuildSeries_Determinism(t *testing.T) {
	input := SeriesInput{
		CurrentBalance: money(750),
		Rules: []RecurringRule{
			seriesRule(t, 1, "paycheck", "paycheck", 1500, FrequencyWeekly, date(2024, time.January, 6)),
			seriesRule(t, 2, "groceries", "food", -80, FrequencyWeekly, date(2024, time.January, 2)),
			seriesRule(t, 3, "rent", "housing", -950, FrequencyMonthly, date(2023, time.June, 30)),
		},
		Holidays:    NewHolidaySet(date(2024, time.January, 15)),
		HorizonDays: 60,
		AnchorDate:  date(2024, time.January, 1),
	}

	first, err := BuildSeries(input)
	require.NoError(t, err)
	second, err := BuildSeries(input)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestBuildSeries_SingleExtrema(t *testing.T) {
	series, err := BuildSeries(SeriesInput{
		CurrentBalance: money(100),
		Rules: []RecurringRule{
			seriesRule(t, 1, "paycheck", "paycheck", 400, FrequencyWeekly, date(2024, time.January, 3)),
			seriesRule(t, 2, "utilities", "bills", -120, FrequencyWeekly, date(2024, time.January, 5)),
		},
		HorizonDays: 30,
		AnchorDate:  date(2024, time.January, 1),
	})
	require.NoError(t, err)

	var highs, lows int
	for i, day := range series.Days {
		if day.IsHighest {
			highs++
			assert.NotZero(t, i, "anchor day must not carry an extremum flag")
		}
		if day.IsLowest {
			lows++
			assert.NotZero(t, i, "anchor day must not carry an extremum flag")
		}
	}
	assert.Equal(t, 1, highs)
	assert.Equal(t, 1, lows)
}

func TestBuildSeries_ExtremaExcludeAnchorAndTiesGoEarliest(t *testing.T) {
	// No rules: every projected day carries the same balance, so both flags
	// land on day 1, the first candidate.
	series, err := BuildSeries(SeriesInput{
		CurrentBalance: money(100),
		HorizonDays:    7,
		AnchorDate:     date(2024, time.January, 1),
	})
	require.NoError(t, err)

	assert.False(t, series.Days[0].IsHighest)
	assert.False(t, series.Days[0].IsLowest)
	assert.True(t, series.Days[1].IsHighest)
	assert.True(t, series.Days[1].IsLowest)
	for _, day := range series.Days[2:] {
		assert.False(t, day.IsHighest)
		assert.False(t, day.IsLowest)
	}
}

func TestBuildSeries_WeekendBillShiftsToMonday(t *testing.T) {
	// Weekly bill anchored on Saturday 2024-01-06 lands on Monday the 8th.
	series, err := BuildSeries(SeriesInput{
		CurrentBalance: money(0),
		Rules: []RecurringRule{
			seriesRule(t, 1, "streaming", "other", -20, FrequencyWeekly, date(2024, time.January, 6)),
		},
		HorizonDays: 7,
		AnchorDate:  date(2024, time.January, 5),
	})
	require.NoError(t, err)

	byDate := indexByDate(series.Days)
	assert.Empty(t, byDate[date(2024, time.January, 6)].Rules)
	require.Len(t, byDate[date(2024, time.January, 8)].Rules, 1)
	assert.Equal(t, "streaming", byDate[date(2024, time.January, 8)].Rules[0].Name)
	assert.Equal(t, 1, series.Summary.AdjustedOccurrences)
}

func TestBuildSeries_PaycheckShiftsBackToFriday(t *testing.T) {
	series, err := BuildSeries(SeriesInput{
		CurrentBalance: money(0),
		Rules: []RecurringRule{
			seriesRule(t, 1, "paycheck", "paycheck", 2500, FrequencyWeekly, date(2024, time.January, 6)),
		},
		HorizonDays: 10,
		AnchorDate:  date(2024, time.January, 1),
	})
	require.NoError(t, err)

	byDate := indexByDate(series.Days)
	require.Len(t, byDate[date(2024, time.January, 5)].Rules, 1)
	assert.Empty(t, byDate[date(2024, time.January, 6)].Rules)
}

func TestBuildSeries_DailyRulesNeverShift(t *testing.T) {
	series, err := BuildSeries(SeriesInput{
		CurrentBalance: money(0),
		Rules: []RecurringRule{
			seriesRule(t, 1, "parking", "transport", -4, FrequencyDaily, date(2024, time.January, 1)),
		},
		HorizonDays: 14,
		AnchorDate:  date(2024, time.January, 1),
	})
	require.NoError(t, err)

	for _, day := range series.Days {
		require.Len(t, day.Rules, 1, "daily rule must occur every day, including weekends")
	}
	assert.Zero(t, series.Summary.AdjustedOccurrences)
}

func TestBuildSeries_OneTimeFiresExactlyOnce(t *testing.T) {
	target := date(2024, time.March, 15)
	series, err := BuildSeries(SeriesInput{
		CurrentBalance: money(0),
		Rules: []RecurringRule{
			seriesRule(t, 1, "car registration", "fees", -320, FrequencyOneTime, target),
		},
		HorizonDays: 30,
		AnchorDate:  date(2024, time.March, 1),
	})
	require.NoError(t, err)

	var occurrences int
	for _, day := range series.Days {
		occurrences += len(day.Rules)
	}
	assert.Equal(t, 1, occurrences)
	require.Len(t, indexByDate(series.Days)[target].Rules, 1)
}

func TestBuildSeries_SemimonthlyTwicePerMonth(t *testing.T) {
	series, err := BuildSeries(SeriesInput{
		CurrentBalance: money(0),
		Rules: []RecurringRule{
			seriesRule(t, 1, "allowance", "other", -50, FrequencySemimonthlyMidEnd, date(2024, time.January, 1)),
		},
		HorizonDays: 31,
		AnchorDate:  date(2024, time.January, 1),
	})
	require.NoError(t, err)

	byDate := indexByDate(series.Days)
	// Both January dates fall on weekdays in 2024, so no shifting.
	require.Len(t, byDate[date(2024, time.January, 15)].Rules, 1)
	require.Len(t, byDate[date(2024, time.January, 31)].Rules, 1)
	var occurrences int
	for _, day := range series.Days {
		occurrences += len(day.Rules)
	}
	assert.Equal(t, 2, occurrences)
}

func TestBuildSeries_AdjustedOutsideHorizonDropped(t *testing.T) {
	// Horizon ends on Saturday 2024-01-06; the bill shifts to Monday the
	// 8th, which is past the horizon, so the occurrence is dropped.
	series, err := BuildSeries(SeriesInput{
		CurrentBalance: money(0),
		Rules: []RecurringRule{
			seriesRule(t, 1, "insurance", "bills", -90, FrequencyWeekly, date(2024, time.January, 6)),
		},
		HorizonDays: 6,
		AnchorDate:  date(2024, time.January, 1),
	})
	require.NoError(t, err)

	for _, day := range series.Days {
		assert.Empty(t, day.Rules)
	}
	assert.Equal(t, 1, series.Summary.DroppedOccurrences)
}

func TestBuildSeries_MalformedRulesSkippedNotFatal(t *testing.T) {
	broken := seriesRule(t, 1, "mystery", "other", -10, FrequencyWeekly, date(2024, time.January, 2))
	broken.Frequency = Frequency("whenever")
	ok := seriesRule(t, 2, "groceries", "food", -60, FrequencyWeekly, date(2024, time.January, 2))

	series, err := BuildSeries(SeriesInput{
		CurrentBalance: money(200),
		Rules:          []RecurringRule{broken, ok},
		HorizonDays:    14,
		AnchorDate:     date(2024, time.January, 1),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, series.Summary.SkippedRules)
	var occurrences int
	for _, day := range series.Days {
		occurrences += len(day.Rules)
	}
	assert.Equal(t, 2, occurrences)
}

func TestBuildSeries_AdjustmentOverflowKeepsIntendedDate(t *testing.T) {
	blocked := make(HolidaySet)
	anchor := date(2024, time.January, 1)
	for i := 0; i < 40; i++ {
		blocked.Add(anchor.AddDate(0, 0, i))
	}

	series, err := BuildSeries(SeriesInput{
		CurrentBalance: money(0),
		Rules: []RecurringRule{
			seriesRule(t, 1, "rent", "housing", -900, FrequencyOneTime, date(2024, time.January, 10)),
		},
		Holidays:    blocked,
		HorizonDays: 20,
		AnchorDate:  anchor,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, series.Summary.AdjustmentOverflows)
	require.Len(t, indexByDate(series.Days)[date(2024, time.January, 10)].Rules, 1)
}

func indexByDate(days []ProjectionDay) map[time.Time]ProjectionDay {
	byDate := make(map[time.Time]ProjectionDay, len(days))
	for _, day := range days {
		byDate[day.Date] = day
	}
	return byDate
}
