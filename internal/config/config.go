/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/HamedShams/jira-work-hours/internal/domain"
	"github.com/HamedShams/jira-work-hours/internal/worklog"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	TZ       string
	HTTPAddr string

	PublicBaseURL string
	CORSOrigins   []string

	// DBDSN is optional; without it the reminder runs unlocked and unaudited.
	DBDSN string

	JiraBaseURL    string
	JiraPAT        string
	JiraUsername   string
	JiraPassword   string
	JiraAPIVersion string
	HTTPTimeout    time.Duration

	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string
	OpenAITimeout time.Duration

	TelegramToken         string
	TelegramAPIURL        string
	TelegramWebhookSecret string
	TelegramChatIDs       []int64

	TimesheetCron string

	Productivity Productivity
}

// Productivity holds the knobs every report is computed with.
type Productivity struct {
	ActivityTypes     []string
	ActivityField     string
	TargetHoursPerDay float64
	ExcludeWeekends   bool
	Holidays          []domain.Date
	DoneStatuses      []string
	StrictTaskStatus  bool
	AggregateStories  bool
}

// Options converts the loaded values into engine options.
func (p Productivity) Options() worklog.Options {
	return worklog.Options{
		ActivityWhitelist:      append([]string(nil), p.ActivityTypes...),
		ActivityField:          p.ActivityField,
		TargetHoursPerDay:      p.TargetHoursPerDay,
		ExcludeWeekendsDefault: p.ExcludeWeekends,
		Holidays:               domain.NewDateSet(p.Holidays...),
		DoneStatuses:           append([]string(nil), p.DoneStatuses...),
		StrictTaskStatus:       p.StrictTaskStatus,
		AggregateStories:       p.AggregateStories,
	}
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atof(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}

func boolean(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

func dur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func parseInt64s(csv string) []int64 {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.ParseInt(p, 10, 64)
		if err == nil {
			out = append(out, n)
		}
	}
	return out
}

func parseStrings(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// parseDates keeps the entries that are valid YYYY-MM-DD dates.
func parseDates(csv string) []domain.Date {
	var out []domain.Date
	for _, p := range parseStrings(csv) {
		d, err := domain.ParseDate(p)
		if err != nil {
			log.Printf("warning: ignoring holiday %q: %v", p, err)
			continue
		}
		out = append(out, d)
	}
	return out
}

func loadProductivity() Productivity {
	def := worklog.DefaultOptions()
	p := Productivity{
		ActivityTypes:     def.ActivityWhitelist,
		ActivityField:     getenv("ACTIVITY_FIELD", def.ActivityField),
		TargetHoursPerDay: atof("TARGET_HOURS_PER_DAY", def.TargetHoursPerDay),
		ExcludeWeekends:   boolean("EXCLUDE_WEEKENDS", def.ExcludeWeekendsDefault),
		Holidays:          parseDates(getenv("HOLIDAYS", "")),
		DoneStatuses:      def.DoneStatuses,
		StrictTaskStatus:  boolean("STRICT_TASK_STATUS", false),
		AggregateStories:  boolean("AGGREGATE_STORIES", false),
	}
	// ';' is accepted as a separator too.
	if v := strings.TrimSpace(os.Getenv("ACTIVITY_TYPES")); v != "" {
		p.ActivityTypes = parseStrings(strings.ReplaceAll(v, ";", ","))
	}
	if v := parseStrings(os.Getenv("DONE_STATUSES")); len(v) > 0 {
		p.DoneStatuses = v
	}
	return p
}

// Load reads .env (when present) and then the process environment. Values
// already in the environment win over the file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: cannot read .env: %v", err)
	}

	cfg := Config{
		AppEnv:   getenv("APP_ENV", "dev"),
		TZ:       getenv("APP_TZ", "UTC"),
		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		PublicBaseURL: getenv("PUBLIC_BASE_URL", ""),
		CORSOrigins:   parseStrings(getenv("CORS_ORIGINS", "")),

		DBDSN: getenv("DB_DSN", ""),

		JiraBaseURL:    strings.TrimRight(getenv("JIRA_BASE_URL", ""), "/"),
		JiraPAT:        getenv("JIRA_PAT", ""),
		JiraUsername:   getenv("JIRA_USERNAME", ""),
		JiraPassword:   getenv("JIRA_PASSWORD", ""),
		JiraAPIVersion: getenv("JIRA_API_VERSION", "2"),
		HTTPTimeout:    dur("HTTP_TIMEOUT", 15*time.Second),

		OpenAIKey:     getenv("OPENAI_API_KEY", ""),
		OpenAIModel:   getenv("OPENAI_MODEL", "gpt-4.1-mini"),
		OpenAIBaseURL: getenv("OPENAI_BASE_URL", ""),
		OpenAITimeout: dur("OPENAI_TIMEOUT", 15*time.Second),

		TelegramToken:         getenv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAPIURL:        getenv("TELEGRAM_API_URL", "https://api.telegram.org"),
		TelegramWebhookSecret: getenv("TELEGRAM_WEBHOOK_SECRET", ""),
		TelegramChatIDs:       parseInt64s(getenv("TELEGRAM_CHAT_IDS", "")),

		TimesheetCron: getenv("TIMESHEET_CRON", "0 17 * * MON-FRI"),

		Productivity: loadProductivity(),
	}

	// set global timezone if available
	if loc, err := time.LoadLocation(cfg.TZ); err == nil {
		time.Local = loc
	} else {
		log.Printf("warning: cannot load TZ %s: %v", cfg.TZ, err)
	}
	return cfg
}
