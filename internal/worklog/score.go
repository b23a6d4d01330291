/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package worklog

import (
	"math"
	"strings"

	"github.com/HamedShams/jira-work-hours/internal/domain"
)

// Band classifies a productivity score for display. It is never stored on a record.
type Band string

const (
	BandOnTarget     Band = "on target"
	BandAboveTarget  Band = "better than target, re-examine estimate or under-logging"
	BandBelowTarget  Band = "below target"
	BandOverEstimate Band = "over estimate"
)

func Classify(score float64) Band {
	switch {
	case score > 45:
		return BandAboveTarget
	case score >= 30:
		return BandOnTarget
	case score >= 0:
		return BandBelowTarget
	default:
		return BandOverEstimate
	}
}

// ProductivityScore is ((estimated - logged) / estimated) * 100, undefined for
// a non-positive estimate.
func ProductivityScore(estimatedHours, loggedHours float64) *float64 {
	if estimatedHours <= 0 {
		return nil
	}
	v := (estimatedHours - loggedHours) / estimatedHours * 100
	return &v
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func roundPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := round2(*v)
	return &r
}

func isTaskLike(issueType string) bool {
	return strings.Contains(strings.ToLower(issueType), "task")
}

func isStoryLike(issueType string) bool {
	return strings.Contains(strings.ToLower(issueType), "story")
}

// Score computes an issue's productivity record from its estimate and every
// worklog on it (not window-filtered). Failing a gate returns an
// *domain.IneligibleError instead of a record.
func Score(issue domain.Issue, worklogs []domain.Worklog, opts Options) (domain.ProductivityRecord, error) {
	if !isTaskLike(issue.Type) && !isStoryLike(issue.Type) {
		return domain.ProductivityRecord{}, domain.Ineligible(issue.Key, domain.ErrNotTaskOrStory,
			"Issue %s is not a Task or Story (Type: %s)", issue.Key, issue.Type)
	}
	if opts.StrictTaskStatus && isTaskLike(issue.Type) && !opts.isDone(issue.Status) {
		return domain.ProductivityRecord{}, domain.Ineligible(issue.Key, domain.ErrStatusNotDone,
			"Issue %s is in status %q, which is not a done status", issue.Key, issue.Status)
	}
	if !issue.HasEstimate() {
		return domain.ProductivityRecord{}, domain.Ineligible(issue.Key, domain.ErrMissingEstimate,
			"Issue %s has no original time estimate", issue.Key)
	}

	estimated := float64(*issue.OriginalEstimateSeconds) / 3600.0
	logged := 0.0
	for _, wl := range worklogs {
		logged += wl.Hours()
	}
	productive := opts.isProductive(issue.ActivityType)

	rec := domain.ProductivityRecord{
		Kind:                 domain.KindIssue,
		IssueKey:             issue.Key,
		Summary:              issue.Summary,
		Type:                 issue.Type,
		Status:               issue.Status,
		ActivityType:         issue.ActivityType,
		EstimatedHours:       round2(estimated),
		LoggedHours:          round2(logged),
		IsProductiveActivity: productive,
		Link:                 issue.Link,
	}
	if productive {
		rec.ProductivityScore = roundPtr(ProductivityScore(estimated, logged))
	}
	return rec, nil
}
