/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/HamedShams/jira-work-hours/internal/config"
	"github.com/HamedShams/jira-work-hours/internal/domain"
	"github.com/HamedShams/jira-work-hours/internal/repo"
	"github.com/HamedShams/jira-work-hours/internal/services"
	"github.com/HamedShams/jira-work-hours/internal/worklog"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Reports is the engine surface the report endpoints use.
type Reports interface {
	Today() domain.Date
	ParseDay(s string) (domain.Date, error)
	LastDays(n int) (domain.Date, domain.Date)
	Options() worklog.Options
	DailyWorkHours(ctx context.Context, day domain.Date) (domain.DailyHours, error)
	DailyProductivity(ctx context.Context, day domain.Date) (domain.ProductivityReport, error)
	WeeklyProductivity(ctx context.Context, excludeWeekends bool) (domain.ProductivityReport, error)
	MonthlyProductivity(ctx context.Context, excludeWeekends bool) (domain.ProductivityReport, error)
	RangeProductivity(ctx context.Context, start, end domain.Date, label string, excludeWeekends bool) (domain.ProductivityReport, error)
	IssueProductivity(ctx context.Context, key string, aggregate bool) (domain.Entry, error)
	TimesheetGaps(ctx context.Context, start, end domain.Date, excludeWeekends bool) (domain.TimesheetGaps, error)
	TimesheetCoverage(ctx context.Context, start, end domain.Date, excludeWeekends bool) (domain.TimesheetCoverage, error)
}

type service interface {
	HandleCommand(ctx context.Context, chatID int64, text string) error
	GetLastRun(ctx context.Context) (*repo.LastRun, error)
}

// runner runs one reminder (under the cron lock).
type runner interface {
	Run(ctx context.Context)
}

type Handlers struct {
	cfg     config.Config
	log     zerolog.Logger
	reports Reports
	svc     service
	remind  runner
}

func NewHandlers(cfg config.Config, log zerolog.Logger, reports Reports, svc service, remind runner) *Handlers {
	return &Handlers{cfg: cfg, log: log, reports: reports, svc: svc, remind: remind}
}

// fail maps domain conditions to 400 and everything else (tracker, transport) to 502.
func (h *Handlers) fail(c *gin.Context, err error) {
	status := http.StatusBadGateway
	var inel *domain.IneligibleError
	msg := err.Error()
	switch {
	case errors.As(err, &inel):
		status, msg = http.StatusBadRequest, inel.Reason
	case errors.Is(err, domain.ErrDateFormat), errors.Is(err, domain.ErrNoWorkingDays), errors.Is(err, errBadParam):
		status = http.StatusBadRequest
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("report failed")
	}
	c.JSON(status, gin.H{"error": msg})
}

var errBadParam = errors.New("bad parameter")

type paramError struct {
	name, value string
}

func (e *paramError) Error() string {
	return "invalid " + e.name + ": " + strconv.Quote(e.value)
}

func (e *paramError) Unwrap() error { return errBadParam }

func (h *Handlers) day(c *gin.Context, name string, def domain.Date) (domain.Date, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return def, nil
	}
	return h.reports.ParseDay(v)
}

func (h *Handlers) excludeWeekends(c *gin.Context) (bool, error) {
	v := strings.TrimSpace(c.Query("exclude_weekends"))
	if v == "" {
		return h.reports.Options().ExcludeWeekendsDefault, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, &paramError{"exclude_weekends", v}
	}
	return b, nil
}

func (h *Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handlers) Daily(c *gin.Context) {
	d, err := h.day(c, "date", h.reports.Today())
	if err != nil {
		h.fail(c, err)
		return
	}
	out, err := h.reports.DailyWorkHours(c.Request.Context(), d)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handlers) Productivity(c *gin.Context) {
	d, err := h.day(c, "date", h.reports.Today())
	if err != nil {
		h.fail(c, err)
		return
	}
	rep, err := h.reports.DailyProductivity(c.Request.Context(), d)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *Handlers) Weekly(c *gin.Context) {
	excl, err := h.excludeWeekends(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	rep, err := h.reports.WeeklyProductivity(c.Request.Context(), excl)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// Monthly is the last 30 days, or start..end when both are given.
func (h *Handlers) Monthly(c *gin.Context) {
	excl, err := h.excludeWeekends(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if c.Query("start") == "" && c.Query("end") == "" {
		rep, err := h.reports.MonthlyProductivity(c.Request.Context(), excl)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, rep)
		return
	}
	h.rangeReport(c, "Monthly", excl)
}

func (h *Handlers) Range(c *gin.Context) {
	excl, err := h.excludeWeekends(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	label := strings.TrimSpace(c.Query("label"))
	if label == "" {
		label = "Custom"
	}
	h.rangeReport(c, label, excl)
}

func (h *Handlers) rangeReport(c *gin.Context, label string, excl bool) {
	defStart, defEnd := h.reports.LastDays(30)
	start, err := h.day(c, "start", defStart)
	if err != nil {
		h.fail(c, err)
		return
	}
	end, err := h.day(c, "end", defEnd)
	if err != nil {
		h.fail(c, err)
		return
	}
	rep, err := h.reports.RangeProductivity(c.Request.Context(), start, end, label, excl)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *Handlers) Issue(c *gin.Context) {
	aggregate := false
	if v := c.Query("aggregate"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			h.fail(c, &paramError{"aggregate", v})
			return
		}
		aggregate = b
	}
	entry, err := h.reports.IssueProductivity(c.Request.Context(), c.Param("key"), aggregate)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// Timesheet serves both views; mode=gaps (default) or mode=coverage.
func (h *Handlers) Timesheet(c *gin.Context) {
	excl, err := h.excludeWeekends(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	defStart, defEnd := h.reports.LastDays(7)
	start, err := h.day(c, "start", defStart)
	if err != nil {
		h.fail(c, err)
		return
	}
	end, err := h.day(c, "end", defEnd)
	if err != nil {
		h.fail(c, err)
		return
	}
	switch mode := c.DefaultQuery("mode", "gaps"); mode {
	case "gaps":
		out, err := h.reports.TimesheetGaps(c.Request.Context(), start, end, excl)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	case "coverage":
		out, err := h.reports.TimesheetCoverage(c.Request.Context(), start, end, excl)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	default:
		h.fail(c, &paramError{"mode", mode})
	}
}

func (h *Handlers) LastRun(c *gin.Context) {
	lr, err := h.svc.GetLastRun(c.Request.Context())
	switch {
	case errors.Is(err, services.ErrNoRunStore), errors.Is(err, repo.ErrNoRuns):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, lr)
}

func (h *Handlers) Remind(c *gin.Context) {
	// Run in background detached from the HTTP request to avoid context cancellation
	go h.remind.Run(context.WithoutCancel(c.Request.Context()))
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

func (h *Handlers) TelegramWebhook(c *gin.Context) {
	secret := h.cfg.TelegramWebhookSecret
	headerSecret := c.GetHeader("X-Telegram-Bot-Api-Secret-Token")
	pathSecret := c.Param("secret")
	// Accept either header secret (preferred) or path secret
	if secret == "" || (headerSecret != secret && pathSecret != secret) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	h.log.Info().Str("ip", c.ClientIP()).Str("ua", c.GetHeader("User-Agent")).Msg("telegram webhook received")

	var upd struct {
		Message *struct {
			Chat struct {
				ID int64 `json:"id"`
			} `json:"chat"`
			Text string `json:"text"`
		} `json:"message"`
	}
	if err := c.ShouldBindJSON(&upd); err == nil && upd.Message != nil {
		chatID := upd.Message.Chat.ID
		// accept only configured chats if provided
		allowed := len(h.cfg.TelegramChatIDs) == 0
		for _, id := range h.cfg.TelegramChatIDs {
			if id == chatID {
				allowed = true
				break
			}
		}
		if allowed {
			text := upd.Message.Text
			ctx := context.WithoutCancel(c.Request.Context())
			go func() {
				if err := h.svc.HandleCommand(ctx, chatID, text); err != nil {
					h.log.Error().Err(err).Int64("chat", chatID).Msg("telegram command failed")
				}
			}()
		}
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
