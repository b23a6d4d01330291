/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package worklog

import (
	"context"
	"fmt"
	"math"

	"github.com/HamedShams/jira-work-hours/internal/domain"
)

// loggedByDay sums my hours per included day across every issue jql returns.
// A day with only zero-length worklogs is still present in the map.
func (e *Engine) loggedByDay(ctx context.Context, jql string, included domain.DateSet) (map[domain.Date]float64, error) {
	me := e.me(ctx)
	issues, err := e.searchAll(ctx, jql, "")
	if err != nil {
		return nil, err
	}
	byDay := map[domain.Date]float64{}
	for _, iss := range issues {
		wls, err := e.tracker.Worklogs(ctx, iss.Key)
		if err != nil {
			return nil, fmt.Errorf("fetch worklogs for %s: %w", iss.Key, err)
		}
		for d, h := range e.myHoursByDay(iss.Key, wls, included, me) {
			byDay[d] += h
		}
	}
	return byDay, nil
}

// TimesheetGaps compares each business day's logged hours with the daily
// target. A day's gap is never negative.
func (e *Engine) TimesheetGaps(ctx context.Context, start, end domain.Date, excludeWeekends bool) (domain.TimesheetGaps, error) {
	included := DatesInRange(start, end, excludeWeekends, e.opts.Holidays)
	if included.Len() == 0 {
		return domain.TimesheetGaps{}, &domain.NoWorkingDaysError{Start: start, End: end}
	}
	byDay, err := e.loggedByDay(ctx, worklogJQL(start, end.AddDays(1)), included)
	if err != nil {
		return domain.TimesheetGaps{}, err
	}
	return buildGaps(start, end, included, byDay, e.opts.TargetHoursPerDay, excludeWeekends), nil
}

func buildGaps(start, end domain.Date, included domain.DateSet, byDay map[domain.Date]float64, target float64, excludeWeekends bool) domain.TimesheetGaps {
	out := domain.TimesheetGaps{
		Start:             start,
		End:               end,
		Days:              make([]domain.DayGap, 0, included.Len()),
		TargetHoursPerDay: target,
		ExcludeWeekends:   excludeWeekends,
	}
	total := 0.0
	for _, d := range included.Sorted() {
		hours := round2(byDay[d])
		gap := math.Max(0, target-hours)
		total += gap
		out.Days = append(out.Days, domain.DayGap{Date: d, LoggedHours: hours, TargetHours: target, GapHours: round2(gap)})
	}
	out.TotalGap = round2(total)
	return out
}

// TimesheetCoverage reports which business days have any worklog of mine and
// which are missing. A reversed range is swapped.
func (e *Engine) TimesheetCoverage(ctx context.Context, start, end domain.Date, excludeWeekends bool) (domain.TimesheetCoverage, error) {
	if start.After(end) {
		start, end = end, start
	}
	included := DatesInRange(start, end, excludeWeekends, e.opts.Holidays)
	if included.Len() == 0 {
		return domain.TimesheetCoverage{}, &domain.NoWorkingDaysError{Start: start, End: end}
	}
	byDay, err := e.loggedByDay(ctx, worklogJQL(start, end.AddDays(1)), included)
	if err != nil {
		return domain.TimesheetCoverage{}, err
	}
	return buildCoverage(start, end, included, byDay), nil
}

func buildCoverage(start, end domain.Date, included domain.DateSet, byDay map[domain.Date]float64) domain.TimesheetCoverage {
	out := domain.TimesheetCoverage{
		Start:        start,
		End:          end,
		TotalDays:    included.Len(),
		MissingDates: []domain.Date{},
	}
	for _, d := range included.Sorted() {
		if _, ok := byDay[d]; ok {
			out.DaysWithLogs++
		} else {
			out.MissingDates = append(out.MissingDates, d)
		}
	}
	out.DaysMissing = out.TotalDays - out.DaysWithLogs
	out.PercentageComplete = int(math.Round(float64(out.DaysWithLogs) / float64(out.TotalDays) * 100))
	return out
}
