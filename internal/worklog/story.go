/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package worklog

import (
	"context"

	"github.com/HamedShams/jira-work-hours/internal/domain"
)

// SubtaskFetcher loads a subtask and all of its worklogs.
type SubtaskFetcher func(ctx context.Context, key string) (domain.Issue, []domain.Worklog, error)

// needsAggregation: explicit request, or a story that carries no estimate of its own.
func needsAggregation(issue domain.Issue, opts Options) bool {
	if !isStoryLike(issue.Type) {
		return false
	}
	return opts.AggregateStories || !issue.HasEstimate()
}

// AggregateStory rolls estimate and logged hours up over the story's done
// subtasks. Subtask hours are not author-filtered. Subtasks that fail to load
// or are not done are left out of every count; done subtasks without an
// estimate are counted as excluded. As with Score, only a story with a
// productive activity type gets a score.
func AggregateStory(ctx context.Context, story domain.Issue, fetch SubtaskFetcher, opts Options) domain.StoryAggregateRecord {
	rec := domain.StoryAggregateRecord{
		Kind:                 domain.KindStory,
		IssueKey:             story.Key,
		Summary:              story.Summary,
		Status:               story.Status,
		ActivityType:         story.ActivityType,
		IsProductiveActivity: opts.isProductive(story.ActivityType),
		IncludedSubtasks:     []string{},
		Link:                 story.Link,
	}
	var estSeconds int64
	logged := 0.0
	for _, key := range story.Subtasks {
		sub, wls, err := fetch(ctx, key)
		if err != nil {
			continue
		}
		if !opts.isDone(sub.Status) {
			continue
		}
		if !sub.HasEstimate() {
			rec.ExcludedMissingEstimate++
			continue
		}
		rec.IncludedSubtasks = append(rec.IncludedSubtasks, sub.Summary)
		estSeconds += *sub.OriginalEstimateSeconds
		for _, wl := range wls {
			logged += wl.Hours()
		}
	}
	estimated := float64(estSeconds) / 3600.0
	rec.EstimatedHours = round2(estimated)
	rec.LoggedHours = round2(logged)
	if rec.IsProductiveActivity {
		rec.ProductivityScore = roundPtr(ProductivityScore(estimated, logged))
	}
	return rec
}
