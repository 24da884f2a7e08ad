package engine

// =============================================================================
// DAY COUNTER
// =============================================================================

// DefaultDayBase is the number of days treated as one month.
const DefaultDayBase = 30

// CommercialYear is the 360-day year used by commercial simple interest.
const CommercialYear = 360

const secondsPerDay = 24 * 60 * 60

// DaysBetween counts the days from start to end inclusive of both endpoints.
// The order of the arguments does not matter. If either date is absent the
// result is 0, which callers must read as "no period", not as a zero-day loan.
func DaysBetween(start, end Date) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	// Dates are UTC midnights, so whole days divide evenly. Sub would
	// saturate at about 292 years.
	diff := int((end.Time.Unix() - start.Time.Unix()) / secondsPerDay)
	if diff < 0 {
		diff = -diff
	}
	return diff + 1
}

// Months converts a day count into months of dayBase days.
func Months(days, dayBase int) float64 {
	return float64(days) / float64(dayBase)
}
