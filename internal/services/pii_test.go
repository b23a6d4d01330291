package services

import (
	"strings"
	"testing"

	"github.com/HamedShams/jira-work-hours/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactReport_ScrubsFreeTextAndDropsLinks(t *testing.T) {
	rec := domain.ProductivityRecord{IssueKey: "WH-1", Summary: "Call alice@example.com about token=abcdEFGH1234",
		Link: "https://jira.example.com/browse/WH-1"}
	story := domain.StoryAggregateRecord{IssueKey: "WH-2", Summary: "See https://wiki.example.com/page",
		IncludedSubtasks: []string{"ping JIRAUSER12345"}, Link: "https://jira.example.com/browse/WH-2"}
	rep := domain.ProductivityReport{
		Entries:        []domain.Entry{domain.IssueEntry(rec), domain.StoryEntry(story)},
		ProductiveOnly: []domain.Entry{domain.IssueEntry(rec)},
		Excluded:       []domain.Exclusion{{IssueKey: "WH-3", Summary: "Phone +1 555 123 4567", Reason: "Issue WH-3 has no original time estimate", Link: "x"}},
	}

	red := redactReport(rep)

	require.Len(t, red.Entries, 2)
	assert.Equal(t, "WH-1", red.Entries[0].Key(), "keys are kept")
	assert.NotContains(t, red.Entries[0].Issue.Summary, "alice@example.com")
	assert.NotContains(t, red.Entries[0].Issue.Summary, "abcdEFGH1234")
	assert.Empty(t, red.Entries[0].Issue.Link)
	assert.Equal(t, "See <url>", red.Entries[1].Story.Summary)
	assert.Equal(t, []string{"ping <user>"}, red.Entries[1].Story.IncludedSubtasks)
	assert.Empty(t, red.ProductiveOnly[0].Issue.Link)
	assert.True(t, strings.Contains(red.Excluded[0].Summary, "<phone>"))
	assert.Equal(t, "Issue WH-3 has no original time estimate", red.Excluded[0].Reason)

	// the input is left untouched
	assert.Equal(t, rec.Link, rep.Entries[0].Issue.Link)
	assert.Equal(t, "ping JIRAUSER12345", rep.Entries[1].Story.IncludedSubtasks[0])
	assert.Equal(t, "x", rep.Excluded[0].Link)
}

func TestChunkText(t *testing.T) {
	assert.Equal(t, []string{""}, chunkText("", 10))
	assert.Equal(t, []string{"ab\ncd"}, chunkText("ab\ncd", 10))
	assert.Equal(t, []string{"abcd", "efgh"}, chunkText("abcd\nefgh", 6))
	assert.Equal(t, []string{"abc", "def", "g"}, chunkText("abcdefg", 3))
	assert.Equal(t, []string{"whole"}, chunkText("whole", 0))
}
