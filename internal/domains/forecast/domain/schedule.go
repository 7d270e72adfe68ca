package domain

import "time"

// OccursOn reports whether the rule has an intended occurrence on the given
// calendar day, before any weekend/holiday adjustment. It is a pure function
// of its inputs: same rule and day always yield the same answer.
func OccursOn(rule *RecurringRule, day time.Time) bool {
	if rule == nil || rule.StartDate.IsZero() {
		return false
	}
	day = Midnight(day)
	start := Midnight(rule.StartDate)

	if rule.Frequency == FrequencyOneTime {
		return day.Equal(start)
	}
	if !withinWindow(rule, day, start) {
		return false
	}

	stride := rule.RepeatsEvery
	if stride < 1 {
		stride = 1
	}

	switch rule.Frequency {
	case FrequencyDaily:
		return daysBetween(start, day)%stride == 0
	case FrequencyWeekly:
		return daysBetween(start, day)%(7*stride) == 0
	case FrequencyMonthly:
		if monthsBetween(start, day)%stride != 0 {
			return false
		}
		return dayOfMonthMatches(start, day)
	case FrequencyYearly:
		if (day.Year()-start.Year())%stride != 0 {
			return false
		}
		return day.Month() == start.Month() && dayOfMonthMatches(start, day)
	case FrequencySemimonthlyMidEnd:
		// Mid-month and month-end, regardless of the start date.
		return day.Day() == 15 || day.Day() == lastDayOfMonth(day)
	default:
		// Unrecognized frequency: no occurrence. Callers surface this as a
		// data-quality issue via Validate, not as a failure here.
		return false
	}
}

func withinWindow(rule *RecurringRule, day, start time.Time) bool {
	if day.Before(start) {
		return false
	}
	if rule.EndDate != nil && day.After(Midnight(*rule.EndDate)) {
		return false
	}
	return true
}

// dayOfMonthMatches applies end-of-month clamping: a rule anchored on the
// 31st fires on Feb 28 (or 29 in leap years), Apr 30, and so on.
func dayOfMonthMatches(start, day time.Time) bool {
	target := start.Day()
	last := lastDayOfMonth(day)
	if target > last {
		return day.Day() == last
	}
	return day.Day() == target
}

func lastDayOfMonth(day time.Time) int {
	return time.Date(day.Year(), day.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}
