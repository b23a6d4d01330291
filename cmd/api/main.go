/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/HamedShams/jira-work-hours/internal/adapters/jira"
	"github.com/HamedShams/jira-work-hours/internal/adapters/openai"
	"github.com/HamedShams/jira-work-hours/internal/adapters/telegram"
	"github.com/HamedShams/jira-work-hours/internal/config"
	httpapi "github.com/HamedShams/jira-work-hours/internal/http"
	"github.com/HamedShams/jira-work-hours/internal/jobs"
	"github.com/HamedShams/jira-work-hours/internal/logger"
	"github.com/HamedShams/jira-work-hours/internal/repo"
	"github.com/HamedShams/jira-work-hours/internal/services"
	"github.com/HamedShams/jira-work-hours/internal/worklog"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.JiraBaseURL == "" {
		log.Fatal().Msg("JIRA_BASE_URL is required")
	}

	// DB is optional: without it runs are not recorded and cron runs unlocked.
	var (
		runs services.RunStore
		lock jobs.Locker
	)
	if cfg.DBDSN != "" {
		db, err := repo.Open(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("db open failed")
		}
		defer db.Close()
		repository := repo.NewRepository(db, log)
		if err := repository.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("db schema failed")
		}
		runs, lock = repository, repository
	}

	// Adapters
	jc := jira.NewClient(cfg, log)
	llm := openai.NewClient(cfg, log)
	tg := telegram.NewClient(cfg, log)

	engine := worklog.NewEngine(jc, cfg.Productivity.Options(), cfg.JiraUsername, log)
	svc := services.New(cfg, log, runs, engine, llm, tg)

	cron, err := jobs.NewCron(cfg, log, svc, lock)
	if err != nil {
		log.Fatal().Err(err).Msg("cron setup failed")
	}
	if tg.Enabled() && len(cfg.TelegramChatIDs) > 0 {
		cron.Start()
		defer cron.Stop()
	} else {
		log.Warn().Msg("telegram not configured; timesheet reminder schedule disabled")
	}

	router := httpapi.NewRouter(cfg, log, httpapi.NewHandlers(cfg, log, engine, svc, cron))

	// Register Telegram webhook only if PUBLIC_BASE_URL is HTTPS
	if tg.Enabled() && cfg.TelegramWebhookSecret != "" && strings.HasPrefix(strings.ToLower(cfg.PublicBaseURL), "https://") {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			webhookURL := strings.TrimRight(cfg.PublicBaseURL, "/") + "/telegram/webhook"
			if err := tg.SetWebhook(ctx, webhookURL, cfg.TelegramWebhookSecret); err != nil {
				log.Error().Err(err).Str("url", webhookURL).Msg("telegram setWebhook failed")
			} else {
				log.Info().Str("url", webhookURL).Msg("telegram setWebhook ok")
			}
		}()
	}

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info().Msg("shutting down...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
}
