package domain

import (
	"errors"
	"time"
)

// maxAdjustmentSteps bounds the shifting loop. A well-formed holiday set
// never blocks more than a handful of consecutive days; exceeding the bound
// signals corrupted holiday data rather than a legitimate long closure.
const maxAdjustmentSteps = 14

// ErrAdjustmentOverflow reports that a date could not be shifted onto a free
// business day within the safety bound. The caller keeps the unadjusted date.
var ErrAdjustmentOverflow = errors.New("date adjustment exceeded safety bound")

// HolidaySet is an opaque membership set of calendar days.
type HolidaySet map[string]struct{}

const holidayKeyLayout = "2006-01-02"

// NewHolidaySet builds a set from concrete dates; time-of-day is ignored.
func NewHolidaySet(dates ...time.Time) HolidaySet {
	set := make(HolidaySet, len(dates))
	for _, d := range dates {
		set.Add(d)
	}
	return set
}

func (s HolidaySet) Add(d time.Time) {
	s[Midnight(d).Format(holidayKeyLayout)] = struct{}{}
}

func (s HolidaySet) Contains(d time.Time) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[Midnight(d).Format(holidayKeyLayout)]
	return ok
}

// AdjustDate shifts an intended occurrence date off weekends and holidays.
// Backward-direction rules (income) land on the previous free weekday;
// forward-direction rules (bills) land on the next one, skipping a weekend
// straight to Monday before single-stepping over any holiday.
//
// On overflow the original date is returned together with
// ErrAdjustmentOverflow so the caller can count the defect without dropping
// the occurrence.
func AdjustDate(date time.Time, direction AdjustDirection, holidays HolidaySet) (time.Time, error) {
	original := Midnight(date)
	day := original
	for steps := 0; ; steps++ {
		if steps >= maxAdjustmentSteps {
			return original, ErrAdjustmentOverflow
		}
		weekday := day.Weekday()
		onWeekend := weekday == time.Saturday || weekday == time.Sunday
		if !onWeekend && !holidays.Contains(day) {
			return day, nil
		}
		if direction == DirectionBackward {
			day = day.AddDate(0, 0, -1)
			continue
		}
		switch weekday {
		case time.Saturday:
			day = day.AddDate(0, 0, 2)
		case time.Sunday:
			day = day.AddDate(0, 0, 1)
		default:
			// Blocked by a holiday on a weekday.
			day = day.AddDate(0, 0, 1)
		}
	}
}
