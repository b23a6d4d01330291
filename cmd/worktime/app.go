/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/HamedShams/jira-work-hours/internal/adapters/jira"
	"github.com/HamedShams/jira-work-hours/internal/config"
	"github.com/HamedShams/jira-work-hours/internal/credentials"
	"github.com/HamedShams/jira-work-hours/internal/domain"
	"github.com/HamedShams/jira-work-hours/internal/logger"
	"github.com/HamedShams/jira-work-hours/internal/render"
	"github.com/HamedShams/jira-work-hours/internal/worklog"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

type app struct {
	out    io.Writer
	errOut io.Writer
	in     io.Reader
	store  *credentials.Store
	now    func() time.Time

	asJSON  bool
	noColor bool

	cfg    config.Config
	log    zerolog.Logger
	engine *worklog.Engine
}

// load reads configuration and fills missing Jira credentials from the keyring.
func (a *app) load() {
	a.cfg = config.Load()
	a.log = logger.NewWriter(a.cfg, a.errOut)
	if a.cfg.JiraUsername != "" && a.cfg.JiraBaseURL != "" && (a.cfg.JiraPAT != "" || a.cfg.JiraPassword != "") {
		return
	}
	stored, err := a.store.Load()
	if err != nil {
		if !errors.Is(err, credentials.ErrIncomplete) {
			a.log.Warn().Err(err).Msg("keyring unavailable")
		}
		return
	}
	if a.cfg.JiraUsername == "" {
		a.cfg.JiraUsername = stored.Username
	}
	if a.cfg.JiraPAT == "" && a.cfg.JiraPassword == "" {
		a.cfg.JiraPAT = stored.PAT
	}
	if a.cfg.JiraBaseURL == "" {
		a.cfg.JiraBaseURL = stored.BaseURL
	}
}

// connect builds the engine against the configured Jira.
func (a *app) connect() error {
	a.load()
	if a.cfg.JiraBaseURL == "" {
		return errors.New("JIRA_BASE_URL is not set; run `worktime login` or export it")
	}
	if a.cfg.JiraUsername == "" || (a.cfg.JiraPAT == "" && a.cfg.JiraPassword == "") {
		return errors.New("JIRA_USERNAME and JIRA_PAT must be set; run `worktime login`")
	}
	jc := jira.NewClient(a.cfg, a.log)
	a.engine = worklog.NewEngine(jc, a.cfg.Productivity.Options(), a.cfg.JiraUsername, a.log).WithClock(a.now)
	return nil
}

func (a *app) printer() *render.Printer {
	return render.NewPrinter(a.out, !a.noColor && !color.NoColor)
}

// day resolves free-text date arguments; no arguments means today.
func (a *app) day(args []string) (domain.Date, error) {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return a.engine.Today(), nil
	}
	return a.engine.ParseDay(text)
}
