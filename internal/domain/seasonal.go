package domain

import "time"

// SeasonalPeriod is the length of the cyclic seasonal domain in days.
// Leap days (day-of-year 366) fall outside it and are excluded from model
// fitting so the domain stays fixed across years.
const SeasonalPeriod = 365

// DayOfYear returns the 1-based day of year for a date (1..366).
func DayOfYear(t time.Time) int {
	return t.YearDay()
}

// IsLeapDay reports whether a date is the 366th day of a leap year.
func IsLeapDay(t time.Time) bool {
	return t.YearDay() > SeasonalPeriod
}
