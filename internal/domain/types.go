/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package domain

// Identity is the subset of a tracker user record used for worklog attribution.
// Deployments populate different subsets: Cloud sets AccountID, Server/DC sets
// Name and DisplayName.
type Identity struct {
	AccountID   string `json:"account_id,omitempty"`
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Issue is an immutable snapshot of a tracker issue.
type Issue struct {
	Key     string
	Type    string
	Status  string
	Summary string
	// ActivityType is already normalized to a plain string by the tracker client.
	ActivityType            *string
	OriginalEstimateSeconds *int64
	Subtasks                []string
	Link                    string
}

// HasEstimate reports whether the issue carries a nonzero original estimate.
func (i Issue) HasEstimate() bool {
	return i.OriginalEstimateSeconds != nil && *i.OriginalEstimateSeconds > 0
}

// Worklog is a single logged-time entry on an issue.
type Worklog struct {
	ID               string
	IssueKey         string
	Author           *Identity
	Started          string
	TimeSpentSeconds int64
}

func (w Worklog) Hours() float64 { return float64(w.TimeSpentSeconds) / 3600.0 }

// RecordKind tags report entries so consumers can tell issue and story records apart.
type RecordKind string

const (
	KindIssue RecordKind = "issue"
	KindStory RecordKind = "story"
)

type ProductivityRecord struct {
	Kind                 RecordKind `json:"kind"`
	IssueKey             string     `json:"issue_key"`
	Summary              string     `json:"summary"`
	Type                 string     `json:"type"`
	Status               string     `json:"status"`
	ActivityType         *string    `json:"activity_type"`
	EstimatedHours       float64    `json:"estimated_hours"`
	LoggedHours          float64    `json:"logged_hours"`
	ProductivityScore    *float64   `json:"productivity_score"`
	IsProductiveActivity bool       `json:"is_productive_activity"`
	Link                 string     `json:"link"`
	// WindowHours is the caller's date- or range-scoped share of LoggedHours.
	WindowHours float64 `json:"window_hours"`
}

type StoryAggregateRecord struct {
	Kind                    RecordKind `json:"kind"`
	IssueKey                string     `json:"issue_key"`
	Summary                 string     `json:"summary"`
	Status                  string     `json:"status"`
	ActivityType            *string    `json:"activity_type"`
	IsProductiveActivity    bool       `json:"is_productive_activity"`
	IncludedSubtasks        []string   `json:"included_subtasks"`
	ExcludedMissingEstimate int        `json:"excluded_missing_estimate"`
	EstimatedHours          float64    `json:"estimated_hours"`
	LoggedHours             float64    `json:"logged_hours"`
	ProductivityScore       *float64   `json:"productivity_score"`
	Link                    string     `json:"link"`
	WindowHours             float64    `json:"window_hours"`
}

// Entry is a scored report row: exactly one of Issue or Story is set, matching Kind.
type Entry struct {
	Kind  RecordKind            `json:"kind"`
	Issue *ProductivityRecord   `json:"issue,omitempty"`
	Story *StoryAggregateRecord `json:"story,omitempty"`
}

func IssueEntry(r ProductivityRecord) Entry {
	r.Kind = KindIssue
	return Entry{Kind: KindIssue, Issue: &r}
}

func StoryEntry(r StoryAggregateRecord) Entry {
	r.Kind = KindStory
	return Entry{Kind: KindStory, Story: &r}
}

func (e Entry) Key() string {
	if e.Story != nil {
		return e.Story.IssueKey
	}
	if e.Issue != nil {
		return e.Issue.IssueKey
	}
	return ""
}

func (e Entry) EstimatedHours() float64 {
	if e.Story != nil {
		return e.Story.EstimatedHours
	}
	if e.Issue != nil {
		return e.Issue.EstimatedHours
	}
	return 0
}

func (e Entry) LoggedHours() float64 {
	if e.Story != nil {
		return e.Story.LoggedHours
	}
	if e.Issue != nil {
		return e.Issue.LoggedHours
	}
	return 0
}

func (e Entry) Score() *float64 {
	if e.Story != nil {
		return e.Story.ProductivityScore
	}
	if e.Issue != nil {
		return e.Issue.ProductivityScore
	}
	return nil
}

func (e Entry) Productive() bool {
	if e.Story != nil {
		return e.Story.IsProductiveActivity
	}
	return e.Issue != nil && e.Issue.IsProductiveActivity
}

func (e Entry) WindowHours() float64 {
	if e.Story != nil {
		return e.Story.WindowHours
	}
	if e.Issue != nil {
		return e.Issue.WindowHours
	}
	return 0
}

// Exclusion is a report row for an issue that had window hours but failed eligibility.
type Exclusion struct {
	IssueKey    string  `json:"issue_key"`
	Summary     string  `json:"summary"`
	Type        string  `json:"type"`
	Status      string  `json:"status"`
	WindowHours float64 `json:"window_hours"`
	Reason      string  `json:"reason"`
	Link        string  `json:"link"`
}

type ProductivityReport struct {
	PeriodLabel     string      `json:"period_label"`
	Start           Date        `json:"start_date"`
	End             Date        `json:"end_date"`
	ExcludeWeekends bool        `json:"exclude_weekends"`
	Entries         []Entry     `json:"entries"`
	ProductiveOnly  []Entry     `json:"productive_issues_only"`
	Excluded        []Exclusion `json:"issues_without_productivity"`

	TotalEstimated   float64 `json:"total_estimated"`
	TotalLogged      float64 `json:"total_logged"`
	TotalWindowHours float64 `json:"total_window_hours"`

	ProductiveTotalEstimated   float64  `json:"productive_total_estimated"`
	ProductiveTotalLogged      float64  `json:"productive_total_logged"`
	ProductiveTotalWindowHours float64  `json:"productive_total_window_hours"`
	ProductiveOverall          *float64 `json:"productive_overall"`

	// AllWindowHours includes excluded issues.
	AllWindowHours float64  `json:"all_window_hours"`
	ActivityTypes  []string `json:"activity_types"`
}

type IssueHours struct {
	IssueKey string  `json:"issue_key"`
	Summary  string  `json:"summary"`
	Hours    float64 `json:"hours"`
	Link     string  `json:"link"`
}

type IssueRef struct {
	IssueKey string `json:"issue_key"`
	Summary  string `json:"summary"`
	Link     string `json:"link"`
}

type DailyHours struct {
	Date          Date         `json:"target_date"`
	CreatedIssues []IssueRef   `json:"created_issues"`
	LoggedIssues  []IssueRef   `json:"logged_issues"`
	IssueHours    []IssueHours `json:"issue_hours"`
	TotalHours    float64      `json:"total_hours_logged"`
}

type DayGap struct {
	Date        Date    `json:"date"`
	LoggedHours float64 `json:"logged_hours"`
	TargetHours float64 `json:"target_hours"`
	GapHours    float64 `json:"gap_hours"`
}

type TimesheetGaps struct {
	Start             Date     `json:"start_date"`
	End               Date     `json:"end_date"`
	Days              []DayGap `json:"days_data"`
	TotalGap          float64  `json:"total_gap"`
	TargetHoursPerDay float64  `json:"target_hours_per_day"`
	ExcludeWeekends   bool     `json:"exclude_weekends"`
}

type TimesheetCoverage struct {
	Start              Date   `json:"start_date"`
	End                Date   `json:"end_date"`
	TotalDays          int    `json:"total_days"`
	DaysWithLogs       int    `json:"days_with_logs"`
	DaysMissing        int    `json:"days_missing"`
	MissingDates       []Date `json:"missing_dates"`
	PercentageComplete int    `json:"percentage_complete"`
}
