/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/HamedShams/jira-work-hours/internal/config"
	"github.com/HamedShams/jira-work-hours/internal/domain"
	"github.com/HamedShams/jira-work-hours/internal/render"
	"github.com/HamedShams/jira-work-hours/internal/repo"
	"github.com/HamedShams/jira-work-hours/internal/worklog"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNoRunStore is returned by GetLastRun when no database is configured.
var ErrNoRunStore = errors.New("job runs are not recorded without DB_DSN")

const reminderDays = 7

// Reports is the subset of the worklog engine the service drives.
type Reports interface {
	LastDays(n int) (domain.Date, domain.Date)
	Options() worklog.Options
	TimesheetGaps(ctx context.Context, start, end domain.Date, excludeWeekends bool) (domain.TimesheetGaps, error)
	WeeklyProductivity(ctx context.Context, excludeWeekends bool) (domain.ProductivityReport, error)
}

type LLM interface {
	Enabled() bool
	Narrate(ctx context.Context, rep domain.ProductivityReport, gaps domain.TimesheetGaps) (string, error)
}

type Notifier interface {
	SendMessagePlain(ctx context.Context, chatID int64, text string) error
}

// RunStore records reminder runs. It is nil when no database is configured.
type RunStore interface {
	StartJobRun(ctx context.Context, kind string) (uuid.UUID, error)
	FinishJobRun(ctx context.Context, id uuid.UUID, res repo.JobResult) error
	GetLastRun(ctx context.Context) (*repo.LastRun, error)
}

type Service struct {
	cfg     config.Config
	log     zerolog.Logger
	runs    RunStore
	reports Reports
	llm     LLM
	tg      Notifier
}

func New(cfg config.Config, log zerolog.Logger, runs RunStore, reports Reports, llm LLM, tg Notifier) *Service {
	return &Service{cfg: cfg, log: log, runs: runs, reports: reports, llm: llm, tg: tg}
}

// RunTimesheetReminder checks the last week against the daily target and
// messages every configured chat when hours are missing.
func (s *Service) RunTimesheetReminder(ctx context.Context) error {
	start, end := s.reports.LastDays(reminderDays)
	res := repo.JobResult{RangeStart: start.Time(), RangeEnd: end.Time()}

	var runID uuid.UUID
	if s.runs != nil {
		id, err := s.runs.StartJobRun(ctx, "timesheet_reminder")
		if err != nil {
			s.log.Error().Err(err).Msg("start job run failed")
		}
		runID = id
	}
	defer func() {
		if runID == uuid.Nil {
			return
		}
		if err := s.runs.FinishJobRun(context.WithoutCancel(ctx), runID, res); err != nil {
			s.log.Error().Err(err).Str("run", runID.String()).Msg("finish job run failed")
		}
	}()

	s.log.Info().Stringer("start", start).Stringer("end", end).Msg("TimesheetReminder: start")
	gaps, err := s.reports.TimesheetGaps(ctx, start, end, s.reports.Options().ExcludeWeekendsDefault)
	if errors.Is(err, domain.ErrNoWorkingDays) {
		s.log.Info().Msg("TimesheetReminder: no working days in range")
		return nil
	}
	if err != nil {
		res.Err = err
		return fmt.Errorf("timesheet gaps: %w", err)
	}
	res.DaysChecked = len(gaps.Days)
	res.TotalGap = gaps.TotalGap
	if gaps.TotalGap <= 0 {
		s.log.Info().Msg("TimesheetReminder: timesheet complete")
		return nil
	}

	msg := render.GapsMessage(gaps)
	if n := s.narrative(ctx, gaps); n != "" {
		msg += "\n" + n + "\n"
	}
	for _, chat := range s.cfg.TelegramChatIDs {
		if err := s.send(ctx, chat, msg); err != nil {
			s.log.Error().Err(err).Int64("chat", chat).Msg("reminder send failed")
			continue
		}
		res.Notified = true
	}
	s.log.Info().Float64("total_gap", gaps.TotalGap).Bool("notified", res.Notified).Msg("TimesheetReminder: done")
	return nil
}

// narrative is best effort: failures are logged and yield "".
func (s *Service) narrative(ctx context.Context, gaps domain.TimesheetGaps) string {
	if s.llm == nil || !s.llm.Enabled() {
		return ""
	}
	rep, err := s.reports.WeeklyProductivity(ctx, s.reports.Options().ExcludeWeekendsDefault)
	if err != nil {
		s.log.Warn().Err(err).Msg("weekly report for narrative failed")
		return ""
	}
	out, err := s.llm.Narrate(ctx, redactReport(rep), gaps)
	if err != nil {
		s.log.Warn().Err(err).Msg("narrative failed")
		return ""
	}
	return out
}

// HandleCommand answers a chat command. Unknown commands are ignored.
func (s *Service) HandleCommand(ctx context.Context, chatID int64, text string) error {
	if chatID == 0 {
		return nil
	}
	cmd := strings.ToLower(strings.TrimSpace(strings.SplitN(strings.TrimSpace(text), "@", 2)[0]))
	switch cmd {
	case "/timesheet":
		start, end := s.reports.LastDays(reminderDays)
		gaps, err := s.reports.TimesheetGaps(ctx, start, end, s.reports.Options().ExcludeWeekendsDefault)
		if err != nil {
			return s.send(ctx, chatID, "Could not build the timesheet: "+reason(err))
		}
		return s.send(ctx, chatID, render.GapsMessage(gaps))
	case "/week":
		rep, err := s.reports.WeeklyProductivity(ctx, s.reports.Options().ExcludeWeekendsDefault)
		if err != nil {
			return s.send(ctx, chatID, "Could not build the weekly report: "+reason(err))
		}
		return s.send(ctx, chatID, render.ProductivityMessage(rep))
	case "/start", "/help":
		return s.SendHelp(ctx, chatID)
	}
	return nil
}

func (s *Service) SendHelp(ctx context.Context, chatID int64) error {
	if chatID == 0 {
		return nil
	}
	help := "Jira Work Hours\n" +
		"Timesheet reminders and estimate-vs-logged productivity.\n\n" +
		"Commands:\n" +
		"/timesheet - missing hours per business day, last 7 days\n" +
		"/week - productivity for the last 7 days\n" +
		"/help - this message"
	return s.send(ctx, chatID, help)
}

func (s *Service) GetLastRun(ctx context.Context) (*repo.LastRun, error) {
	if s.runs == nil {
		return nil, ErrNoRunStore
	}
	return s.runs.GetLastRun(ctx)
}

func (s *Service) send(ctx context.Context, chatID int64, text string) error {
	for _, part := range chunkText(text, 4000) {
		if err := s.tg.SendMessagePlain(ctx, chatID, part); err != nil {
			return err
		}
	}
	return nil
}

// reason flattens an error to the message shown to a user.
func reason(err error) string {
	var inel *domain.IneligibleError
	if errors.As(err, &inel) {
		return inel.Reason
	}
	return err.Error()
}

var (
	emailRe    = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+`)
	phoneRe    = regexp.MustCompile(`\b\+?\d[\d\-\s]{7,}\b`)
	urlRe      = regexp.MustCompile(`https?://[^\s]+`)
	tokenRe    = regexp.MustCompile(`(?i)\b(?:token|secret|password|apikey|api_key|bearer)[:=\s]+[A-Za-z0-9\-\._~+/]{8,}\b`)
	jiraUserRe = regexp.MustCompile(`\bJIRAUSER\d+\b`)
)

func scrub(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = emailRe.ReplaceAllString(s, "<email>")
	s = urlRe.ReplaceAllString(s, "<url>")
	s = tokenRe.ReplaceAllString(s, "<secret>")
	s = phoneRe.ReplaceAllString(s, "<phone>")
	s = jiraUserRe.ReplaceAllString(s, "<user>")
	return s
}

// redactReport drops links and scrubs free text before a report leaves for the LLM.
func redactReport(rep domain.ProductivityReport) domain.ProductivityReport {
	redactEntries := func(in []domain.Entry) []domain.Entry {
		out := make([]domain.Entry, 0, len(in))
		for _, e := range in {
			if e.Issue != nil {
				r := *e.Issue
				r.Summary, r.Link = scrub(r.Summary), ""
				e.Issue = &r
			}
			if e.Story != nil {
				r := *e.Story
				r.Summary, r.Link = scrub(r.Summary), ""
				subs := make([]string, len(r.IncludedSubtasks))
				for i, st := range r.IncludedSubtasks {
					subs[i] = scrub(st)
				}
				r.IncludedSubtasks = subs
				e.Story = &r
			}
			out = append(out, e)
		}
		return out
	}
	rep.Entries = redactEntries(rep.Entries)
	rep.ProductiveOnly = redactEntries(rep.ProductiveOnly)
	excluded := make([]domain.Exclusion, len(rep.Excluded))
	for i, x := range rep.Excluded {
		x.Summary, x.Reason, x.Link = scrub(x.Summary), scrub(x.Reason), ""
		excluded[i] = x
	}
	rep.Excluded = excluded
	return rep
}

// chunkText splits text into chunks of up to max runes, attempting to break on line boundaries.
func chunkText(s string, max int) []string {
	if max <= 0 {
		return []string{s}
	}
	var chunks []string
	var cur strings.Builder
	curlen := 0
	flush := func() {
		if curlen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curlen = 0
		}
	}
	for _, ln := range strings.Split(s, "\n") {
		r := []rune(ln)
		if len(r) > max {
			flush()
			for i := 0; i < len(r); i += max {
				j := i + max
				if j > len(r) {
					j = len(r)
				}
				chunks = append(chunks, string(r[i:j]))
			}
			continue
		}
		extra := len(r)
		if curlen > 0 {
			extra++
		}
		if curlen+extra > max {
			flush()
			extra = len(r)
		}
		if curlen > 0 {
			cur.WriteByte('\n')
		}
		cur.WriteString(ln)
		curlen += extra
	}
	flush()
	if len(chunks) == 0 {
		chunks = []string{""}
	}
	return chunks
}
