/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package worklog

import (
	"context"
	"errors"
	"fmt"

	"github.com/HamedShams/jira-work-hours/internal/domain"
)

// aggregate scores every candidate issue with window hours on the target days.
// Ineligible issues become exclusion rows that keep their window hours; an
// issue whose worklogs cannot be loaded becomes an exclusion row too.
func (e *Engine) aggregate(ctx context.Context, issues []domain.Issue, target domain.DateSet, me domain.Identity) (domain.ProductivityReport, error) {
	rep := domain.ProductivityReport{
		Entries:        []domain.Entry{},
		ProductiveOnly: []domain.Entry{},
		Excluded:       []domain.Exclusion{},
		ActivityTypes:  append([]string(nil), e.opts.ActivityWhitelist...),
	}
	var (
		totalEst, totalLogged, totalWindow float64
		prodEst, prodLogged, prodWindow    float64
		excludedWindow                     float64
	)
	for _, issue := range issues {
		wls, err := e.tracker.Worklogs(ctx, issue.Key)
		if err != nil {
			// The window is unknown without worklogs, so the row carries none.
			e.log.Warn().Err(err).Str("issue", issue.Key).Msg("worklog fetch failed; issue excluded")
			rep.Excluded = append(rep.Excluded, domain.Exclusion{
				IssueKey: issue.Key,
				Summary:  issue.Summary,
				Type:     issue.Type,
				Status:   issue.Status,
				Reason:   fmt.Sprintf("Could not load worklogs for %s: %v", issue.Key, err),
				Link:     issue.Link,
			})
			continue
		}
		window := sumHours(e.myHoursByDay(issue.Key, wls, target, me))
		if window <= 0 {
			continue
		}

		entry, err := e.score(ctx, issue, wls, e.opts)
		if err != nil {
			var inel *domain.IneligibleError
			if !errors.As(err, &inel) {
				return domain.ProductivityReport{}, err
			}
			rep.Excluded = append(rep.Excluded, e.exclusion(ctx, issue, window, inel.Reason))
			excludedWindow += window
			e.log.Info().Str("issue", issue.Key).Str("reason", inel.Reason).Msg("issue excluded from productivity")
			continue
		}

		setWindowHours(&entry, round2(window))
		rep.Entries = append(rep.Entries, entry)
		totalEst += entry.EstimatedHours()
		totalLogged += entry.LoggedHours()
		totalWindow += window
		if entry.Productive() {
			rep.ProductiveOnly = append(rep.ProductiveOnly, entry)
			prodEst += entry.EstimatedHours()
			prodLogged += entry.LoggedHours()
			prodWindow += window
		}
	}

	rep.TotalEstimated = round2(totalEst)
	rep.TotalLogged = round2(totalLogged)
	rep.TotalWindowHours = round2(totalWindow)
	rep.ProductiveTotalEstimated = round2(prodEst)
	rep.ProductiveTotalLogged = round2(prodLogged)
	rep.ProductiveTotalWindowHours = round2(prodWindow)
	rep.ProductiveOverall = roundPtr(ProductivityScore(prodEst, prodWindow))
	rep.AllWindowHours = round2(totalWindow + excludedWindow)
	return rep, nil
}

func setWindowHours(entry *domain.Entry, h float64) {
	if entry.Story != nil {
		entry.Story.WindowHours = h
	}
	if entry.Issue != nil {
		entry.Issue.WindowHours = h
	}
}

// exclusion builds the report row from a fresh single-issue fetch, falling
// back to the search snapshot when that fetch fails.
func (e *Engine) exclusion(ctx context.Context, issue domain.Issue, window float64, reason string) domain.Exclusion {
	info, err := e.tracker.Issue(ctx, issue.Key)
	if err != nil {
		e.log.Warn().Err(err).Str("issue", issue.Key).Msg("issue lookup failed; using search snapshot")
		info = issue
	}
	return domain.Exclusion{
		IssueKey:    issue.Key,
		Summary:     info.Summary,
		Type:        info.Type,
		Status:      info.Status,
		WindowHours: round2(window),
		Reason:      reason,
		Link:        info.Link,
	}
}

// DailyProductivity scores every issue I logged time on during day.
func (e *Engine) DailyProductivity(ctx context.Context, day domain.Date) (domain.ProductivityReport, error) {
	me := e.me(ctx)
	issues, err := e.searchAll(ctx, worklogJQL(day, day.AddDays(1)), "")
	if err != nil {
		return domain.ProductivityReport{}, err
	}
	rep, err := e.aggregate(ctx, issues, domain.NewDateSet(day), me)
	if err != nil {
		return domain.ProductivityReport{}, err
	}
	rep.PeriodLabel = "Daily"
	rep.Start, rep.End = day, day
	return rep, nil
}

// RangeProductivity scores every issue I logged time on during the business
// days of [start, end].
func (e *Engine) RangeProductivity(ctx context.Context, start, end domain.Date, label string, excludeWeekends bool) (domain.ProductivityReport, error) {
	included := DatesInRange(start, end, excludeWeekends, e.opts.Holidays)
	if included.Len() == 0 {
		return domain.ProductivityReport{}, &domain.NoWorkingDaysError{Start: start, End: end}
	}
	me := e.me(ctx)
	issues, err := e.searchAll(ctx, worklogJQL(start, end.AddDays(1)), "")
	if err != nil {
		return domain.ProductivityReport{}, err
	}
	rep, err := e.aggregate(ctx, issues, included, me)
	if err != nil {
		return domain.ProductivityReport{}, err
	}
	rep.PeriodLabel = label
	rep.Start, rep.End = start, end
	rep.ExcludeWeekends = excludeWeekends
	return rep, nil
}

func (e *Engine) WeeklyProductivity(ctx context.Context, excludeWeekends bool) (domain.ProductivityReport, error) {
	start, end := e.LastDays(7)
	return e.RangeProductivity(ctx, start, end, "Weekly", excludeWeekends)
}

func (e *Engine) MonthlyProductivity(ctx context.Context, excludeWeekends bool) (domain.ProductivityReport, error) {
	start, end := e.LastDays(30)
	return e.RangeProductivity(ctx, start, end, "Monthly", excludeWeekends)
}

// DailyWorkHours lists issues I created on day and the hours I logged per issue.
func (e *Engine) DailyWorkHours(ctx context.Context, day domain.Date) (domain.DailyHours, error) {
	me := e.me(ctx)
	out := domain.DailyHours{
		Date:          day,
		CreatedIssues: []domain.IssueRef{},
		LoggedIssues:  []domain.IssueRef{},
		IssueHours:    []domain.IssueHours{},
	}

	created, err := e.searchAll(ctx, fmt.Sprintf("created >= '%s' AND created < '%s' AND reporter = '%s'",
		day, day.AddDays(1), e.username), "")
	if err != nil {
		return domain.DailyHours{}, err
	}
	for _, iss := range created {
		out.CreatedIssues = append(out.CreatedIssues, domain.IssueRef{IssueKey: iss.Key, Summary: iss.Summary, Link: iss.Link})
	}

	logged, err := e.searchAll(ctx, worklogJQL(day, day.AddDays(1)), "")
	if err != nil {
		return domain.DailyHours{}, err
	}
	target := domain.NewDateSet(day)
	total := 0.0
	for _, iss := range logged {
		out.LoggedIssues = append(out.LoggedIssues, domain.IssueRef{IssueKey: iss.Key, Summary: iss.Summary, Link: iss.Link})
		wls, err := e.tracker.Worklogs(ctx, iss.Key)
		if err != nil {
			return domain.DailyHours{}, fmt.Errorf("fetch worklogs for %s: %w", iss.Key, err)
		}
		h := sumHours(e.myHoursByDay(iss.Key, wls, target, me))
		if h <= 0 {
			continue
		}
		total += h
		out.IssueHours = append(out.IssueHours, domain.IssueHours{IssueKey: iss.Key, Summary: iss.Summary, Hours: round2(h), Link: iss.Link})
	}
	out.TotalHours = round2(total)
	return out, nil
}
