// Package reporting holds the report-period model: week identity, the status
// lifecycle, and the filtering and grouping helpers used by the API and CLI.
package reporting

import (
	"time"

	"github.com/gilanghuda/weekly-report-backend/app/models"
)

// WeekIdentityOf returns the ISO-8601 week and week-year of the civil date of t.
// The time of day and the location offset are ignored. The returned year is
// the year of the week's Thursday, which differs from t's year around the
// turn of the year.
func WeekIdentityOf(t time.Time) models.Period {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	thursday := day.AddDate(0, 0, 4-weekday)

	return models.Period{
		Year: thursday.Year(),
		Week: (thursday.YearDay() + 6) / 7,
	}
}

// CurrentPeriod is the period of the report due for the week containing now.
func CurrentPeriod(now time.Time) models.Period {
	return WeekIdentityOf(now)
}

// WeeksInYear returns 53 for long ISO years and 52 otherwise.
func WeeksInYear(year int) int {
	// December 28th always falls in the last week of its ISO year.
	return WeekIdentityOf(time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC)).Week
}

// ValidPeriod reports whether p names an existing ISO week.
func ValidPeriod(p models.Period) bool {
	if p.Year < 1 || p.Week < 1 {
		return false
	}
	return p.Week <= WeeksInYear(p.Year)
}

// WeekStart returns the Monday of the period at 00:00 UTC.
func WeekStart(p models.Period) time.Time {
	jan4 := time.Date(p.Year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	firstMonday := jan4.AddDate(0, 0, 1-weekday)
	return firstMonday.AddDate(0, 0, (p.Week-1)*7)
}

// FindForPeriod returns the report covering p, or nil when there is none.
// Two reports for the same period break the one-report-per-week invariant;
// that case returns the first one together with ErrDuplicatePeriod.
func FindForPeriod(reports []models.Report, p models.Period) (*models.Report, error) {
	var found *models.Report
	for i := range reports {
		if reports[i].Period() != p {
			continue
		}
		if found != nil {
			return found, &Error{Kind: ErrDuplicatePeriod, Period: p}
		}
		found = &reports[i]
	}
	return found, nil
}
