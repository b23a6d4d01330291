package worklog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/HamedShams/jira-work-hours/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	meID  = domain.Identity{AccountID: "acc-1", Name: "jdoe", DisplayName: "John Doe"}
	mine  = &domain.Identity{AccountID: "acc-1"}
	other = &domain.Identity{AccountID: "acc-2", Name: "asmith"}
)

func dailyFixture() *fakeTracker {
	ft := newFakeTracker(meID)
	ft.add(task("WH-10", hours(10), str("Project Development")), true,
		wl(mine, "2025-01-06T09:00:00.000+0000", 3),
		wl(mine, "2025-01-07T09:00:00.000+0000", 2),
		wl(other, "2025-01-06T10:00:00.000+0000", 1),
		wl(mine, "??", 1),
	)
	ft.add(task("WH-11", hours(4), str("Meetings")), true, wl(mine, "2025-01-06T15:00:00Z", 1))
	bug := task("WH-12", hours(4), str("Support"))
	bug.Type = "Bug"
	ft.add(bug, true, wl(mine, "2025-01-06T11:00:00Z", 2))
	ft.add(task("WH-13", hours(4), str("Support")), true, wl(other, "2025-01-06T11:00:00Z", 5))
	ft.add(task("WH-14", nil, str("Support")), true, wl(mine, "2025-01-06T16:00:00Z", 0.5))
	return ft
}

func TestDailyProductivity_BucketsAndTotals(t *testing.T) {
	ft := dailyFixture()
	rep, err := testEngine(ft).DailyProductivity(context.Background(), monday)
	require.NoError(t, err)

	assert.Equal(t, `worklogDate >= "2025/01/06" AND worklogDate < "2025/01/07" AND worklogAuthor = currentUser()`, ft.queries[0])
	assert.Equal(t, "Daily", rep.PeriodLabel)

	require.Len(t, rep.Entries, 2)
	assert.Equal(t, "WH-10", rep.Entries[0].Key())
	assert.Equal(t, 3.0, rep.Entries[0].Issue.WindowHours)
	assert.Equal(t, 7.0, rep.Entries[0].Issue.LoggedHours)
	assert.Equal(t, 30.0, *rep.Entries[0].Issue.ProductivityScore)
	assert.Equal(t, "WH-11", rep.Entries[1].Key())
	assert.Nil(t, rep.Entries[1].Issue.ProductivityScore)

	require.Len(t, rep.ProductiveOnly, 1)
	assert.Equal(t, "WH-10", rep.ProductiveOnly[0].Key())

	require.Len(t, rep.Excluded, 2)
	assert.Equal(t, "WH-12", rep.Excluded[0].IssueKey)
	assert.Equal(t, 2.0, rep.Excluded[0].WindowHours)
	assert.Equal(t, "Bug", rep.Excluded[0].Type)
	assert.Equal(t, "WH-14", rep.Excluded[1].IssueKey)
	assert.Contains(t, rep.Excluded[1].Reason, "no original time estimate")

	assert.Equal(t, 14.0, rep.TotalEstimated)
	assert.Equal(t, 8.0, rep.TotalLogged)
	assert.Equal(t, 4.0, rep.TotalWindowHours)
	assert.Equal(t, 10.0, rep.ProductiveTotalEstimated)
	assert.Equal(t, 3.0, rep.ProductiveTotalWindowHours)
	require.NotNil(t, rep.ProductiveOverall)
	assert.Equal(t, 70.0, *rep.ProductiveOverall)
	assert.Equal(t, 6.5, rep.AllWindowHours)
	assert.Equal(t, DefaultOptions().ActivityWhitelist, rep.ActivityTypes)
}

func TestDailyProductivity_IsIdempotent(t *testing.T) {
	e := testEngine(dailyFixture())
	a, err := e.DailyProductivity(context.Background(), monday)
	require.NoError(t, err)
	b, err := e.DailyProductivity(context.Background(), monday)
	require.NoError(t, err)

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, string(ja), string(jb))
}

func TestDailyProductivity_NoIssues(t *testing.T) {
	rep, err := testEngine(newFakeTracker(meID)).DailyProductivity(context.Background(), monday)
	require.NoError(t, err)
	assert.Empty(t, rep.Entries)
	assert.Empty(t, rep.Excluded)
	assert.Nil(t, rep.ProductiveOverall)
}

func TestRangeProductivity_SkipsWeekendsAndHolidays(t *testing.T) {
	ft := newFakeTracker(meID)
	ft.add(task("WH-20", hours(10), str("Testing")), true,
		wl(mine, "2025-01-06T09:00:00Z", 2),
		wl(mine, "2025-01-08T09:00:00Z", 3),
		wl(mine, "2025-01-11T09:00:00Z", 4),
	)
	e := testEngine(ft)

	rep, err := e.RangeProductivity(context.Background(), monday, sunday, "Weekly", true)
	require.NoError(t, err)
	assert.Equal(t, `worklogDate >= "2025/01/06" AND worklogDate < "2025/01/13" AND worklogAuthor = currentUser()`, ft.queries[0])
	require.Len(t, rep.Entries, 1)
	assert.Equal(t, 5.0, rep.Entries[0].WindowHours())
	assert.True(t, rep.ExcludeWeekends)

	opts := DefaultOptions()
	opts.Holidays = domain.NewDateSet(monday.AddDays(2))
	rep, err = NewEngine(ft, opts, "jdoe", e.log).RangeProductivity(context.Background(), monday, sunday, "Weekly", false)
	require.NoError(t, err)
	assert.Equal(t, 6.0, rep.Entries[0].WindowHours())
}

func TestRangeProductivity_NoWorkingDays(t *testing.T) {
	ft := newFakeTracker(meID)
	_, err := testEngine(ft).RangeProductivity(context.Background(), saturday, sunday, "Weekly", true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoWorkingDays))
	assert.Equal(t, "No working days found in range 2025-01-11 to 2025-01-12.", err.Error())
	assert.Empty(t, ft.queries, "no tracker query for an empty calendar")
}

func TestRangeProductivity_StoryEntriesAreTagged(t *testing.T) {
	ft := newFakeTracker(meID)
	story := storyFixture(ft)
	ft.add(story, true, wl(mine, "2025-01-06T09:00:00Z", 1.5))

	rep, err := testEngine(ft).RangeProductivity(context.Background(), monday, friday, "Weekly", true)
	require.NoError(t, err)
	require.Len(t, rep.Entries, 1)
	entry := rep.Entries[0]
	assert.Equal(t, domain.KindStory, entry.Kind)
	require.NotNil(t, entry.Story)
	assert.Equal(t, 1.5, entry.Story.WindowHours)
	assert.Equal(t, 5.0, rep.ProductiveTotalEstimated)
	assert.Equal(t, 70.0, *rep.ProductiveOverall)
}

func TestSearchAll_PagesUntilShortPage(t *testing.T) {
	ft := newFakeTracker(meID)
	for i := 0; i < 250; i++ {
		ft.add(task(fmt.Sprintf("P-%d", i), hours(1), nil), true)
	}
	issues, err := testEngine(ft).searchAll(context.Background(), "x", "")
	require.NoError(t, err)
	assert.Len(t, issues, 250)
	assert.Equal(t, []int{0, 100, 200}, ft.startAts)
}

func TestMe_FallsBackToUsername(t *testing.T) {
	ft := newFakeTracker(meID)
	ft.meErr = errors.New("401 unauthorized")
	ft.add(task("WH-30", hours(4), str("Support")), true,
		wl(&domain.Identity{Name: "JDoe"}, "2025-01-06T09:00:00Z", 1),
		wl(&domain.Identity{AccountID: "acc-1", DisplayName: "John Doe"}, "2025-01-06T10:00:00Z", 2),
	)
	rep, err := testEngine(ft).DailyProductivity(context.Background(), monday)
	require.NoError(t, err)
	require.Len(t, rep.Entries, 1)
	assert.Equal(t, 1.0, rep.Entries[0].WindowHours())
}

func TestDailyWorkHours(t *testing.T) {
	ft := dailyFixture()
	ft.add(task("WH-40", nil, nil), false)
	ft.created = []string{"WH-40"}

	out, err := testEngine(ft).DailyWorkHours(context.Background(), monday)
	require.NoError(t, err)
	require.Len(t, out.CreatedIssues, 1)
	assert.Equal(t, "WH-40", out.CreatedIssues[0].IssueKey)
	assert.Len(t, out.LoggedIssues, 5)
	assert.Equal(t, []string{"WH-10", "WH-11", "WH-12", "WH-14"}, keysOf(out.IssueHours))
	assert.Equal(t, 6.5, out.TotalHours)
	assert.Contains(t, ft.queries[0], "reporter = 'jdoe'")
}

func keysOf(hs []domain.IssueHours) []string {
	out := make([]string, 0, len(hs))
	for _, h := range hs {
		out = append(out, h.IssueKey)
	}
	return out
}

func TestDailyProductivity_WorklogFailureBecomesExclusion(t *testing.T) {
	ft := dailyFixture()
	ft.wlErr = map[string]error{"WH-11": errors.New("jira api status=500 body=boom")}

	rep, err := testEngine(ft).DailyProductivity(context.Background(), monday)
	require.NoError(t, err)
	require.Len(t, rep.Entries, 1)
	assert.Equal(t, "WH-10", rep.Entries[0].Key())

	var failed *domain.Exclusion
	for i := range rep.Excluded {
		if rep.Excluded[i].IssueKey == "WH-11" {
			failed = &rep.Excluded[i]
		}
	}
	require.NotNil(t, failed)
	assert.Contains(t, failed.Reason, "status=500")
	assert.Equal(t, 0.0, failed.WindowHours)
	assert.Equal(t, 5.5, rep.AllWindowHours, "window of the failed issue is unknown")
}
