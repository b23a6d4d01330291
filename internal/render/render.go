/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

// Package render prints reports as tables for the terminal and as short
// plain-text messages for chat delivery.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/HamedShams/jira-work-hours/internal/domain"
	"github.com/HamedShams/jira-work-hours/internal/worklog"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// Printer writes tables to w. Band colors are applied only when color is on.
type Printer struct {
	w     io.Writer
	bands map[worklog.Band]*color.Color
	warn  *color.Color
}

func NewPrinter(w io.Writer, useColor bool) *Printer {
	p := &Printer{
		w: w,
		bands: map[worklog.Band]*color.Color{
			worklog.BandOnTarget:     color.New(color.FgGreen),
			worklog.BandAboveTarget:  color.New(color.FgCyan),
			worklog.BandBelowTarget:  color.New(color.FgYellow),
			worklog.BandOverEstimate: color.New(color.FgRed),
		},
		warn: color.New(color.FgRed, color.Bold),
	}
	for _, c := range p.bands {
		setColor(c, useColor)
	}
	setColor(p.warn, useColor)
	return p
}

func setColor(c *color.Color, on bool) {
	if on {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
}

// JSON writes v indented.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func hours(h float64) string { return strconv.FormatFloat(h, 'f', 2, 64) }

func activity(a *string) string {
	if a == nil {
		return "-"
	}
	return *a
}

// Score formats a score with its band, or "n/a" when undefined.
func Score(s *float64) string {
	if s == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%% (%s)", *s, worklog.Classify(*s))
}

func (p *Printer) score(s *float64) string {
	if s == nil {
		return "n/a"
	}
	return p.bands[worklog.Classify(*s)].Sprint(Score(s))
}

func (p *Printer) line(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format+"\n", args...)
}

// DailyHours prints the created issues, per-issue hours and the day total.
func (p *Printer) DailyHours(d domain.DailyHours) error {
	p.line("Issues created on %s", d.Date)
	if len(d.CreatedIssues) == 0 {
		p.line("  none")
	}
	for _, ref := range d.CreatedIssues {
		p.line("- %s: %s (%s)", ref.IssueKey, ref.Summary, ref.Link)
	}
	p.line("")
	table := tablewriter.NewWriter(p.w)
	table.Header("Issue", "Summary", "Hours", "Link")
	for _, ih := range d.IssueHours {
		_ = table.Append([]string{ih.IssueKey, ih.Summary, hours(ih.Hours), ih.Link})
	}
	if err := table.Render(); err != nil {
		return err
	}
	p.line("\nTotal hours logged on %s: %s", d.Date, hours(d.TotalHours))
	return nil
}

// Entry prints one scored issue or story.
func (p *Printer) Entry(e domain.Entry) error {
	table := tablewriter.NewWriter(p.w)
	table.Header("Field", "Value")
	_ = table.Append([]string{"Kind", string(e.Kind)})
	_ = table.Append([]string{"Issue", e.Key()})
	switch {
	case e.Story != nil:
		s := e.Story
		_ = table.Append([]string{"Summary", s.Summary})
		_ = table.Append([]string{"Status", s.Status})
		_ = table.Append([]string{"Activity", activity(s.ActivityType)})
		_ = table.Append([]string{"Included subtasks", strings.Join(s.IncludedSubtasks, ", ")})
		_ = table.Append([]string{"Done without estimate", strconv.Itoa(s.ExcludedMissingEstimate)})
	case e.Issue != nil:
		r := e.Issue
		_ = table.Append([]string{"Summary", r.Summary})
		_ = table.Append([]string{"Type", r.Type})
		_ = table.Append([]string{"Status", r.Status})
		_ = table.Append([]string{"Activity", activity(r.ActivityType)})
	}
	_ = table.Append([]string{"Productive activity", strconv.FormatBool(e.Productive())})
	_ = table.Append([]string{"Estimated", hours(e.EstimatedHours())})
	_ = table.Append([]string{"Logged", hours(e.LoggedHours())})
	_ = table.Append([]string{"Score", p.score(e.Score())})
	return table.Render()
}

// Productivity prints a daily or range report.
func (p *Printer) Productivity(rep domain.ProductivityReport) error {
	if rep.Start == rep.End {
		p.line("%s productivity for %s", rep.PeriodLabel, rep.Start)
	} else {
		p.line("%s productivity for %s to %s", rep.PeriodLabel, rep.Start, rep.End)
	}
	if len(rep.Entries) == 0 && len(rep.Excluded) == 0 {
		p.line("No work logged in this period.")
		return nil
	}

	table := tablewriter.NewWriter(p.w)
	table.Header("Issue", "Kind", "Activity", "Est", "Logged", "Window", "Score")
	for _, e := range rep.Entries {
		act := "-"
		if e.Issue != nil {
			act = activity(e.Issue.ActivityType)
		} else if e.Story != nil {
			act = activity(e.Story.ActivityType)
		}
		_ = table.Append([]string{e.Key(), string(e.Kind), act,
			hours(e.EstimatedHours()), hours(e.LoggedHours()), hours(e.WindowHours()), p.score(e.Score())})
	}
	if err := table.Render(); err != nil {
		return err
	}

	if len(rep.Excluded) > 0 {
		p.line("")
		p.warn.Fprintln(p.w, "Without productivity score:")
		ex := tablewriter.NewWriter(p.w)
		ex.Header("Issue", "Type", "Status", "Window", "Reason")
		for _, x := range rep.Excluded {
			_ = ex.Append([]string{x.IssueKey, x.Type, x.Status, hours(x.WindowHours), x.Reason})
		}
		if err := ex.Render(); err != nil {
			return err
		}
	}

	p.line("")
	p.line("Estimated %s h, logged %s h, window %s h (all issues %s h)",
		hours(rep.TotalEstimated), hours(rep.TotalLogged), hours(rep.TotalWindowHours), hours(rep.AllWindowHours))
	p.line("Productive: estimated %s h, window %s h, overall %s",
		hours(rep.ProductiveTotalEstimated), hours(rep.ProductiveTotalWindowHours), p.score(rep.ProductiveOverall))
	p.line("Productive activity types: %s", strings.Join(rep.ActivityTypes, ", "))
	return nil
}

// Gaps prints the per-day gap table.
func (p *Printer) Gaps(g domain.TimesheetGaps) error {
	p.line("Timesheet %s to %s (target %s h/day)", g.Start, g.End, hours(g.TargetHoursPerDay))
	table := tablewriter.NewWriter(p.w)
	table.Header("Date", "Day", "Logged", "Gap")
	for _, d := range g.Days {
		gap := hours(d.GapHours)
		if d.GapHours > 0 {
			gap = p.warn.Sprint(gap)
		}
		_ = table.Append([]string{d.Date.String(), d.Date.Weekday().String()[:3], hours(d.LoggedHours), gap})
	}
	if err := table.Render(); err != nil {
		return err
	}
	p.line("Total gap: %s h", hours(g.TotalGap))
	return nil
}

// Coverage prints days with and without logs.
func (p *Printer) Coverage(c domain.TimesheetCoverage) error {
	table := tablewriter.NewWriter(p.w)
	table.Header("Metric", "Value")
	_ = table.Append([]string{"Range", c.Start.String() + " to " + c.End.String()})
	_ = table.Append([]string{"Business days", strconv.Itoa(c.TotalDays)})
	_ = table.Append([]string{"Days with logs", strconv.Itoa(c.DaysWithLogs)})
	_ = table.Append([]string{"Days missing", strconv.Itoa(c.DaysMissing)})
	_ = table.Append([]string{"Complete", strconv.Itoa(c.PercentageComplete) + "%"})
	if err := table.Render(); err != nil {
		return err
	}
	if len(c.MissingDates) > 0 {
		missing := make([]string, len(c.MissingDates))
		for i, d := range c.MissingDates {
			missing[i] = d.String()
		}
		p.warn.Fprintln(p.w, "Missing: "+strings.Join(missing, ", "))
	}
	return nil
}
