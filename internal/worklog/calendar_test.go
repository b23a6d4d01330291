package worklog

import (
	"testing"
	"time"

	"github.com/HamedShams/jira-work-hours/internal/domain"
	"github.com/stretchr/testify/assert"
)

var (
	monday   = domain.NewDate(2025, time.January, 6)
	friday   = domain.NewDate(2025, time.January, 10)
	saturday = domain.NewDate(2025, time.January, 11)
	sunday   = domain.NewDate(2025, time.January, 12)
)

func TestDatesInRange_SingleDay(t *testing.T) {
	assert.Equal(t, domain.NewDateSet(monday), DatesInRange(monday, monday, true, nil))
	assert.Equal(t, 0, DatesInRange(saturday, saturday, true, nil).Len())
	assert.Equal(t, domain.NewDateSet(saturday), DatesInRange(saturday, saturday, false, nil))
}

func TestDatesInRange_WeekendsAndHolidays(t *testing.T) {
	days := DatesInRange(monday, sunday, true, domain.NewDateSet(friday))
	assert.Equal(t, []domain.Date{monday, monday.AddDays(1), monday.AddDays(2), monday.AddDays(3)}, days.Sorted())

	all := DatesInRange(monday, sunday, false, nil)
	assert.Equal(t, 7, all.Len())
}

func TestDatesInRange_HolidayEndIsNeverIncluded(t *testing.T) {
	for _, end := range []domain.Date{friday, saturday, sunday} {
		for _, exclude := range []bool{true, false} {
			days := DatesInRange(monday, end, exclude, domain.NewDateSet(end))
			assert.False(t, days.Has(end))
		}
	}
}

func TestDatesInRange_ReversedIsEmpty(t *testing.T) {
	assert.Equal(t, 0, DatesInRange(friday, monday, false, nil).Len())
}
