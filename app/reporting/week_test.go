package reporting

import (
	"errors"
	"testing"
	"time"

	"github.com/gilanghuda/weekly-report-backend/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekIdentityOfBoundaries(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want models.Period
	}{
		{"new year friday belongs to previous year", date(2021, 1, 1), models.Period{Year: 2020, Week: 53}},
		{"first monday of 2021", date(2021, 1, 4), models.Period{Year: 2021, Week: 1}},
		{"new year eve belongs to next year", date(2024, 12, 31), models.Period{Year: 2025, Week: 1}},
		{"sunday closes the week", date(2021, 1, 10), models.Period{Year: 2021, Week: 1}},
		{"mid year", date(2024, 3, 6), models.Period{Year: 2024, Week: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WeekIdentityOf(tt.in))
		})
	}
}

func TestWeekIdentityOfMatchesISOCalendar(t *testing.T) {
	for d := date(1999, 12, 1); d.Before(date(2031, 2, 1)); d = d.AddDate(0, 0, 1) {
		year, week := d.ISOWeek()
		got := WeekIdentityOf(d)
		if got.Year != year || got.Week != week {
			t.Fatalf("WeekIdentityOf(%s) = %+v, want %d-W%02d", d.Format("2006-01-02"), got, year, week)
		}
	}
}

func TestWeekIdentityOfIgnoresClockAndZone(t *testing.T) {
	kiritimati := time.FixedZone("LINT", 14*60*60)
	late := time.Date(2021, 1, 3, 23, 59, 59, 0, kiritimati)

	assert.Equal(t, models.Period{Year: 2020, Week: 53}, WeekIdentityOf(late))
	assert.Equal(t, WeekIdentityOf(date(2021, 1, 3)), WeekIdentityOf(late))
}

func TestWeekIdentityOfSevenDaysApart(t *testing.T) {
	for d := date(2023, 1, 2); d.Year() < 2026; d = d.AddDate(0, 0, 1) {
		next := d.AddDate(0, 0, 7)
		a, b := WeekIdentityOf(d), WeekIdentityOf(next)
		if a.Year != b.Year {
			continue
		}
		assert.Equal(t, a.Week+1, b.Week, "from %s", d.Format("2006-01-02"))
	}
}

func TestCurrentPeriod(t *testing.T) {
	now := time.Date(2024, 12, 30, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, models.Period{Year: 2025, Week: 1}, CurrentPeriod(now))
}

func TestWeeksInYear(t *testing.T) {
	assert.Equal(t, 53, WeeksInYear(2015))
	assert.Equal(t, 53, WeeksInYear(2020))
	assert.Equal(t, 52, WeeksInYear(2021))
	assert.Equal(t, 52, WeeksInYear(2024))
	assert.Equal(t, 53, WeeksInYear(2026))
}

func TestValidPeriod(t *testing.T) {
	assert.True(t, ValidPeriod(models.Period{Year: 2020, Week: 53}))
	assert.True(t, ValidPeriod(models.Period{Year: 2021, Week: 1}))
	assert.False(t, ValidPeriod(models.Period{Year: 2021, Week: 53}))
	assert.False(t, ValidPeriod(models.Period{Year: 2021, Week: 0}))
	assert.False(t, ValidPeriod(models.Period{Year: 0, Week: 10}))
}

func TestWeekStart(t *testing.T) {
	assert.Equal(t, date(2021, 1, 4), WeekStart(models.Period{Year: 2021, Week: 1}))
	assert.Equal(t, date(2020, 12, 28), WeekStart(models.Period{Year: 2020, Week: 53}))
	assert.Equal(t, date(2024, 12, 30), WeekStart(models.Period{Year: 2025, Week: 1}))

	for year := 2018; year <= 2028; year++ {
		for week := 1; week <= WeeksInYear(year); week++ {
			p := models.Period{Year: year, Week: week}
			start := WeekStart(p)
			require.Equal(t, time.Monday, start.Weekday())
			require.Equal(t, p, WeekIdentityOf(start))
		}
	}
}

func TestFindForPeriod(t *testing.T) {
	reports := []models.Report{
		{Year: 2024, Week: 9, Achievements: "a"},
		{Year: 2024, Week: 10, Achievements: "b"},
		{Year: 2025, Week: 10, Achievements: "c"},
	}

	found, err := FindForPeriod(reports, models.Period{Year: 2024, Week: 10})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "b", found.Achievements)

	found, err = FindForPeriod(reports, models.Period{Year: 2023, Week: 10})
	assert.NoError(t, err)
	assert.Nil(t, found)

	found, err = FindForPeriod(nil, models.Period{Year: 2024, Week: 10})
	assert.NoError(t, err)
	assert.Nil(t, found)
}

func TestFindForPeriodFlagsDuplicates(t *testing.T) {
	reports := []models.Report{
		{Year: 2024, Week: 10, Achievements: "first"},
		{Year: 2024, Week: 11},
		{Year: 2024, Week: 10, Achievements: "second"},
	}

	found, err := FindForPeriod(reports, models.Period{Year: 2024, Week: 10})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicatePeriod))
	assert.Contains(t, err.Error(), "2024-W10")
	require.NotNil(t, found)
	assert.Equal(t, "first", found.Achievements)
}
