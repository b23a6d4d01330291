/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package worklog

import (
	"strings"
	"time"

	"github.com/HamedShams/jira-work-hours/internal/domain"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Jira emits offsets without a colon (+0000), which RFC 3339 does not accept.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04-0700",
	"2006-01-02",
}

var naiveLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04"}

var textParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// NormalizeDate turns a worklog start-time string into the calendar day it was
// written for. Parsers are tried in order: ISO-8601 (trailing Z as UTC), a naive
// timestamp after stripping offset and fractional seconds, then natural language
// relative to ref.
func NormalizeDate(s string, ref time.Time) (domain.Date, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return domain.Date{}, &domain.DateFormatError{Value: s}
	}
	iso := withT(raw)
	if strings.HasSuffix(iso, "Z") {
		iso = strings.TrimSuffix(iso, "Z") + "+00:00"
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, iso); err == nil {
			return domain.DateOf(t), nil
		}
	}

	base := strings.SplitN(withT(raw), "+", 2)[0]
	base = strings.SplitN(base, ".", 2)[0]
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, base); err == nil {
			return domain.DateOf(t), nil
		}
	}

	if d, ok := parseText(raw, ref); ok {
		return d, nil
	}
	return domain.Date{}, &domain.DateFormatError{Value: s}
}

// ParseDay resolves user-entered day text ("2025-01-10", "2025/01/10", "yesterday").
func ParseDay(s string, ref time.Time) (domain.Date, error) {
	raw := strings.TrimSpace(s)
	for _, layout := range []string{domain.DateLayout, "2006/01/02", "02.01.2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return domain.DateOf(t), nil
		}
	}
	switch strings.ToLower(raw) {
	case "today", "now":
		return domain.DateOf(ref), nil
	}
	return NormalizeDate(raw, ref)
}

// withT turns "2025-01-06 09:00:00" into "2025-01-06T09:00:00".
func withT(s string) string {
	if len(s) > 11 && s[10] == ' ' {
		if _, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return s[:10] + "T" + s[11:]
		}
	}
	return s
}

// parseText accepts a natural-language match only when it spans the whole
// input; a time token inside a longer string would otherwise resolve to ref.
func parseText(s string, ref time.Time) (domain.Date, bool) {
	s = strings.TrimSpace(s)
	r, err := textParser.Parse(s, ref)
	if err != nil || r == nil {
		return domain.Date{}, false
	}
	if r.Index != 0 || len(r.Text) != len(s) {
		return domain.Date{}, false
	}
	return domain.DateOf(r.Time), true
}
