package render

import (
	"fmt"
	"strings"

	"github.com/HamedShams/jira-work-hours/internal/domain"
)

// GapsMessage is the plain-text reminder sent when days are under target.
func GapsMessage(g domain.TimesheetGaps) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Timesheet %s to %s\n", g.Start, g.End)
	if g.TotalGap <= 0 {
		b.WriteString("All business days meet the daily target.\n")
		return b.String()
	}
	for _, d := range g.Days {
		if d.GapHours <= 0 {
			continue
		}
		fmt.Fprintf(&b, "- %s %s: logged %s h, missing %s h\n", d.Date, d.Date.Weekday().String()[:3], hours(d.LoggedHours), hours(d.GapHours))
	}
	fmt.Fprintf(&b, "Total missing: %s h (target %s h/day)\n", hours(g.TotalGap), hours(g.TargetHoursPerDay))
	return b.String()
}

// ProductivityMessage summarizes a report in a few lines.
func ProductivityMessage(rep domain.ProductivityReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s productivity %s to %s\n", rep.PeriodLabel, rep.Start, rep.End)
	for _, e := range rep.ProductiveOnly {
		fmt.Fprintf(&b, "- %s: est %s h, logged %s h, score %s\n", e.Key(), hours(e.EstimatedHours()), hours(e.LoggedHours()), Score(e.Score()))
	}
	if n := len(rep.Excluded); n > 0 {
		fmt.Fprintf(&b, "%d issue(s) without a score\n", n)
	}
	fmt.Fprintf(&b, "Overall: %s over %s productive hours\n", Score(rep.ProductiveOverall), hours(rep.ProductiveTotalWindowHours))
	return b.String()
}
