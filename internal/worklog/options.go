/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package worklog

import (
	"strings"

	"github.com/HamedShams/jira-work-hours/internal/domain"
)

// Options is the explicit configuration every report is computed with.
type Options struct {
	ActivityWhitelist      []string
	ActivityField          string
	TargetHoursPerDay      float64
	ExcludeWeekendsDefault bool
	Holidays               domain.DateSet
	DoneStatuses           []string

	// StrictTaskStatus excludes Task-like issues whose status is not done.
	StrictTaskStatus bool
	// AggregateStories rolls every story up over its done subtasks.
	AggregateStories bool
}

func DefaultOptions() Options {
	return Options{
		ActivityWhitelist: []string{
			"Project Development",
			"Support",
			"Engineering & R&D",
			"Testing",
			"Code Review",
			"Unit Testing",
		},
		ActivityField:          "customfield_22016",
		TargetHoursPerDay:      8.0,
		ExcludeWeekendsDefault: true,
		Holidays:               domain.DateSet{},
		DoneStatuses:           []string{"Done", "Closed", "Resolved"},
	}
}

func (o Options) isDone(status string) bool {
	s := strings.TrimSpace(status)
	for _, d := range o.DoneStatuses {
		if strings.EqualFold(strings.TrimSpace(d), s) {
			return true
		}
	}
	return false
}

func (o Options) isProductive(activity *string) bool {
	if activity == nil {
		return false
	}
	for _, a := range o.ActivityWhitelist {
		if a == *activity {
			return true
		}
	}
	return false
}
