/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
	"time"

	"github.com/HamedShams/jira-work-hours/internal/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const requestIDHeader = "X-Request-ID"

func NewRouter(cfg config.Config, log zerolog.Logger, h *Handlers) *gin.Engine {
	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	cc := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		MaxAge:       12 * time.Hour,
	}
	if len(cfg.CORSOrigins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = cfg.CORSOrigins
	}
	r.Use(cors.New(cc))

	r.Use(func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		start := time.Now()
		c.Next()
		log.Info().Str("rid", id).Str("m", c.Request.Method).Str("p", c.FullPath()).
			Int("s", c.Writer.Status()).Dur("took", time.Since(start)).Msg("http")
	})

	r.GET("/healthz", h.Healthz)

	reports := r.Group("/reports")
	reports.GET("/daily", h.Daily)
	reports.GET("/productivity", h.Productivity)
	reports.GET("/weekly", h.Weekly)
	reports.GET("/monthly", h.Monthly)
	reports.GET("/range", h.Range)
	reports.GET("/issue/:key", h.Issue)
	reports.GET("/timesheet", h.Timesheet)

	r.GET("/admin/last-run", h.LastRun)
	r.POST("/admin/remind", h.Remind)
	// Support both header-authenticated and path-secret webhook endpoints
	r.POST("/telegram/webhook", h.TelegramWebhook)
	r.POST("/telegram/webhook/:secret", h.TelegramWebhook)

	return r
}
