package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/HamedShams/jira-work-hours/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mon = domain.NewDate(2025, time.January, 6)

func fp(v float64) *float64 { return &v }

func sampleReport() domain.ProductivityReport {
	act := "Support"
	e := domain.IssueEntry(domain.ProductivityRecord{IssueKey: "WH-1", ActivityType: &act, EstimatedHours: 10,
		LoggedHours: 7, WindowHours: 3, ProductivityScore: fp(30), IsProductiveActivity: true})
	return domain.ProductivityReport{
		PeriodLabel:                "Weekly",
		Start:                      mon,
		End:                        mon.AddDays(4),
		Entries:                    []domain.Entry{e},
		ProductiveOnly:             []domain.Entry{e},
		Excluded:                   []domain.Exclusion{{IssueKey: "WH-2", Type: "Bug", WindowHours: 2, Reason: "Issue WH-2 is not a Task or Story (Type: Bug)"}},
		ProductiveTotalWindowHours: 3,
		ProductiveOverall:          fp(70),
		ActivityTypes:              []string{"Support"},
	}
}

func TestScore(t *testing.T) {
	assert.Equal(t, "n/a", Score(nil))
	assert.Equal(t, "30.00% (on target)", Score(fp(30)))
	assert.Equal(t, "-50.00% (over estimate)", Score(fp(-50)))
}

func TestPrinter_Productivity(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, false).Productivity(sampleReport()))
	out := buf.String()
	assert.Contains(t, out, "Weekly productivity for 2025-01-06 to 2025-01-10")
	assert.Contains(t, out, "WH-1")
	assert.Contains(t, out, "30.00% (on target)")
	assert.Contains(t, out, "Without productivity score:")
	assert.Contains(t, out, "not a Task or Story")
	assert.NotContains(t, out, "\x1b[", "no escape codes with color off")
}

func TestPrinter_EmptyReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, false).Productivity(domain.ProductivityReport{PeriodLabel: "Daily", Start: mon, End: mon}))
	assert.Contains(t, buf.String(), "No work logged in this period.")
}

func TestPrinter_GapsAndCoverage(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)
	require.NoError(t, p.Gaps(domain.TimesheetGaps{Start: mon, End: mon.AddDays(1), TargetHoursPerDay: 8, TotalGap: 11,
		Days: []domain.DayGap{{Date: mon, LoggedHours: 5, TargetHours: 8, GapHours: 3}, {Date: mon.AddDays(1), TargetHours: 8, GapHours: 8}}}))
	require.NoError(t, p.Coverage(domain.TimesheetCoverage{Start: mon, End: mon.AddDays(1), TotalDays: 2, DaysWithLogs: 1,
		DaysMissing: 1, MissingDates: []domain.Date{mon.AddDays(1)}, PercentageComplete: 50}))
	out := buf.String()
	assert.Contains(t, out, "Total gap: 11.00 h")
	assert.Contains(t, out, "Tue")
	assert.Contains(t, out, "50%")
	assert.Contains(t, out, "Missing: 2025-01-07")
}

func TestGapsMessage(t *testing.T) {
	msg := GapsMessage(domain.TimesheetGaps{Start: mon, End: mon.AddDays(1), TargetHoursPerDay: 8, TotalGap: 8,
		Days: []domain.DayGap{{Date: mon, LoggedHours: 8, TargetHours: 8}, {Date: mon.AddDays(1), TargetHours: 8, GapHours: 8}}})
	assert.NotContains(t, msg, "2025-01-06 Mon")
	assert.Contains(t, msg, "- 2025-01-07 Tue: logged 0.00 h, missing 8.00 h")
	assert.Contains(t, msg, "Total missing: 8.00 h")

	ok := GapsMessage(domain.TimesheetGaps{Start: mon, End: mon})
	assert.Contains(t, ok, "All business days meet the daily target.")
}

func TestProductivityMessage(t *testing.T) {
	msg := ProductivityMessage(sampleReport())
	assert.Contains(t, msg, "- WH-1: est 10.00 h, logged 7.00 h, score 30.00% (on target)")
	assert.Contains(t, msg, "1 issue(s) without a score")
	assert.Contains(t, msg, "Overall: 70.00% (better than target")
}
