/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/HamedShams/jira-work-hours/internal/config"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const lockKey int64 = 73_557_102

type service interface {
	RunTimesheetReminder(ctx context.Context) error
}

// Locker serializes runs across replicas. A nil Locker runs unguarded.
type Locker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (bool, error)
	AdvisoryUnlock(ctx context.Context, key int64) error
}

type Cron struct {
	cfg  config.Config
	log  zerolog.Logger
	svc  service
	lock Locker
	c    *cron.Cron
}

func NewCron(cfg config.Config, log zerolog.Logger, svc service, lock Locker) (*Cron, error) {
	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		loc = time.Local
	}
	c := cron.New(cron.WithLocation(loc), cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)))
	cr := &Cron{cfg: cfg, log: log, svc: svc, lock: lock, c: c}
	if _, err := c.AddFunc(cfg.TimesheetCron, cr.reminder); err != nil {
		return nil, fmt.Errorf("cron spec %q: %w", cfg.TimesheetCron, err)
	}
	return cr, nil
}

func (cr *Cron) Start() { cr.c.Start() }

// Stop waits for a running reminder to finish.
func (cr *Cron) Stop() { <-cr.c.Stop().Done() }

func (cr *Cron) reminder() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	cr.Run(ctx)
}

// Run executes one reminder under the lock.
func (cr *Cron) Run(ctx context.Context) {
	if cr.lock != nil {
		ok, err := cr.lock.TryAdvisoryLock(ctx, lockKey)
		if err != nil {
			cr.log.Error().Err(err).Msg("cron: lock error")
			return
		}
		if !ok {
			cr.log.Info().Msg("cron: already running elsewhere")
			return
		}
		defer func() { _ = cr.lock.AdvisoryUnlock(context.Background(), lockKey) }()
	}
	cr.log.Info().Msg("cron: timesheet reminder")
	if err := cr.svc.RunTimesheetReminder(ctx); err != nil {
		cr.log.Error().Err(err).Msg("cron: reminder failed")
	}
}
