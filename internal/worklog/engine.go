/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package worklog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/HamedShams/jira-work-hours/internal/domain"
	"github.com/rs/zerolog"
)

// Tracker is the issue-tracker collaborator the engine reads from.
type Tracker interface {
	SearchIssues(ctx context.Context, jql string, startAt, max int, fields []string, expand string) ([]domain.Issue, error)
	Worklogs(ctx context.Context, key string) ([]domain.Worklog, error)
	Issue(ctx context.Context, key string) (domain.Issue, error)
	Myself(ctx context.Context) (domain.Identity, error)
}

const searchBatch = 100

// Engine computes every report from live tracker data. It holds no state
// between calls besides its configuration.
type Engine struct {
	tracker  Tracker
	opts     Options
	username string
	log      zerolog.Logger
	now      func() time.Time
}

func NewEngine(t Tracker, opts Options, username string, log zerolog.Logger) *Engine {
	if opts.Holidays == nil {
		opts.Holidays = domain.DateSet{}
	}
	return &Engine{tracker: t, opts: opts, username: username, log: log, now: time.Now}
}

// WithClock overrides the reference time used for relative dates and presets.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	cp := *e
	cp.now = now
	return &cp
}

func (e *Engine) Options() Options { return e.opts }

func (e *Engine) Today() domain.Date { return domain.DateOf(e.now()) }

// ParseDay resolves free-text day input against the engine clock.
func (e *Engine) ParseDay(s string) (domain.Date, error) { return ParseDay(s, e.now()) }

// LastDays returns the inclusive window of n days ending today.
func (e *Engine) LastDays(n int) (domain.Date, domain.Date) {
	end := e.Today()
	if n < 1 {
		n = 1
	}
	return end.AddDays(-(n - 1)), end
}

// me resolves the authenticated identity, falling back to the configured
// username so that short-name matching still works.
func (e *Engine) me(ctx context.Context) domain.Identity {
	id, err := e.tracker.Myself(ctx)
	if err != nil {
		e.log.Warn().Err(err).Str("username", e.username).Msg("myself lookup failed; falling back to username")
		return domain.Identity{Name: e.username}
	}
	return id
}

func (e *Engine) fields() []string {
	f := []string{"summary", "issuetype", "status", "timeoriginalestimate", "subtasks"}
	if e.opts.ActivityField != "" {
		f = append(f, e.opts.ActivityField)
	}
	return f
}

// searchAll pages through results until a short page comes back.
func (e *Engine) searchAll(ctx context.Context, jql, expand string) ([]domain.Issue, error) {
	var out []domain.Issue
	start := 0
	for {
		chunk, err := e.tracker.SearchIssues(ctx, jql, start, searchBatch, e.fields(), expand)
		if err != nil {
			return nil, fmt.Errorf("search issues: %w", err)
		}
		out = append(out, chunk...)
		if len(chunk) < searchBatch {
			break
		}
		start += searchBatch
	}
	return out, nil
}

func worklogJQL(start, endExclusive domain.Date) string {
	return fmt.Sprintf(`worklogDate >= "%s" AND worklogDate < "%s" AND worklogAuthor = currentUser()`,
		start.Slashed(), endExclusive.Slashed())
}

// myHoursByDay sums the issue's worklogs that are mine and fall on a target day.
func (e *Engine) myHoursByDay(issueKey string, wls []domain.Worklog, target domain.DateSet, me domain.Identity) map[domain.Date]float64 {
	byDay := map[domain.Date]float64{}
	ref := e.now()
	for _, wl := range wls {
		d, err := NormalizeDate(wl.Started, ref)
		if err != nil {
			e.log.Debug().Err(err).Str("issue", issueKey).Str("worklog", wl.ID).Msg("skipping worklog")
			continue
		}
		if target.Has(d) && IsMine(wl.Author, me) {
			byDay[d] += wl.Hours()
		}
	}
	return byDay
}

func sumHours(byDay map[domain.Date]float64) float64 {
	total := 0.0
	for _, h := range byDay {
		total += h
	}
	return total
}

func (e *Engine) fetchSubtask(ctx context.Context, key string) (domain.Issue, []domain.Worklog, error) {
	iss, err := e.tracker.Issue(ctx, key)
	if err != nil {
		return domain.Issue{}, nil, err
	}
	wls, err := e.tracker.Worklogs(ctx, key)
	if err != nil {
		return domain.Issue{}, nil, err
	}
	return iss, wls, nil
}

// score is the single scoring path shared by every report: stories that need
// aggregation roll up over subtasks, everything else goes through Score.
func (e *Engine) score(ctx context.Context, issue domain.Issue, wls []domain.Worklog, opts Options) (domain.Entry, error) {
	if needsAggregation(issue, opts) {
		return domain.StoryEntry(AggregateStory(ctx, issue, e.fetchSubtask, opts)), nil
	}
	rec, err := Score(issue, wls, opts)
	if err != nil {
		return domain.Entry{}, err
	}
	return domain.IssueEntry(rec), nil
}

// IssueProductivity scores a single issue. aggregate forces story roll-up.
func (e *Engine) IssueProductivity(ctx context.Context, key string, aggregate bool) (domain.Entry, error) {
	key = strings.ToUpper(strings.TrimSpace(key))
	if key == "" {
		return domain.Entry{}, errors.New("empty issue key")
	}
	issue, err := e.tracker.Issue(ctx, key)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("fetch issue %s: %w", key, err)
	}
	wls, err := e.tracker.Worklogs(ctx, key)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("fetch worklogs for %s: %w", key, err)
	}
	opts := e.opts
	opts.AggregateStories = opts.AggregateStories || aggregate
	return e.score(ctx, issue, wls, opts)
}
