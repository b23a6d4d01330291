package jira

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/HamedShams/jira-work-hours/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := config.Config{
		JiraBaseURL:    srv.URL,
		JiraPAT:        "secret-pat",
		JiraAPIVersion: "2",
		HTTPTimeout:    5 * time.Second,
	}
	cfg.Productivity.ActivityField = "customfield_22016"
	c := NewClient(cfg, zerolog.Nop())
	c.backoff = time.Millisecond
	return c
}

func TestActivityValue(t *testing.T) {
	cases := []struct {
		raw  string
		want *string
	}{
		{``, nil},
		{`null`, nil},
		{`"Support"`, strp("Support")},
		{`{"self":"x","value":"Code Review","id":"1"}`, strp("Code Review")},
		{`{"id":"7"}`, strp(`{"id":"7"}`)},
		{`42`, strp("42")},
		{`["a","b"]`, strp(`["a","b"]`)},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			assert.Equal(t, tc.want, ActivityValue(json.RawMessage(tc.raw)))
		})
	}
}

func strp(s string) *string { return &s }

func TestSearchIssues(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/2/search", r.URL.Path)
		assert.Equal(t, "Bearer secret-pat", r.Header.Get("Authorization"))
		assert.Equal(t, "project = WH", r.URL.Query().Get("jql"))
		assert.Equal(t, "100", r.URL.Query().Get("startAt"))
		assert.Equal(t, "summary,customfield_22016", r.URL.Query().Get("fields"))
		assert.Equal(t, "worklog", r.URL.Query().Get("expand"))
		_, _ = w.Write([]byte(`{"issues":[
			{"key":"WH-1","fields":{"summary":"Build it","issuetype":{"name":"Task"},"status":{"name":"Done"},
			 "timeoriginalestimate":36000,"customfield_22016":{"value":"Support"}}},
			{"key":"WH-2","fields":{"summary":"Story","issuetype":{"name":"Story"},"status":{"name":"Open"},
			 "timeoriginalestimate":null,"subtasks":[{"key":"WH-3"},{"key":"WH-4"}]}}
		]}`))
	}))

	issues, err := c.SearchIssues(context.Background(), "project = WH", 100, 100, []string{"summary", "customfield_22016"}, "worklog")
	require.NoError(t, err)
	require.Len(t, issues, 2)

	assert.Equal(t, "WH-1", issues[0].Key)
	assert.Equal(t, "Task", issues[0].Type)
	assert.Equal(t, "Done", issues[0].Status)
	require.NotNil(t, issues[0].OriginalEstimateSeconds)
	assert.Equal(t, int64(36000), *issues[0].OriginalEstimateSeconds)
	assert.Equal(t, strp("Support"), issues[0].ActivityType)
	assert.Equal(t, c.baseURL+"/browse/WH-1", issues[0].Link)

	assert.Nil(t, issues[1].OriginalEstimateSeconds)
	assert.Nil(t, issues[1].ActivityType)
	assert.Equal(t, []string{"WH-3", "WH-4"}, issues[1].Subtasks)
}

func TestWorklogs_Paginates(t *testing.T) {
	var calls int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/rest/api/2/issue/WH-1/worklog", r.URL.Path)
		start, _ := strconv.Atoi(r.URL.Query().Get("startAt"))
		author := `{"accountId":"acc-1","name":"jdoe","displayName":"John Doe"}`
		_, _ = fmt.Fprintf(w, `{"startAt":%d,"maxResults":2,"total":3,"worklogs":[`, start)
		if start == 0 {
			_, _ = fmt.Fprintf(w, `{"id":"1","author":%s,"started":"2025-01-06T09:00:00.000+0000","timeSpentSeconds":3600},`, author)
			_, _ = fmt.Fprintf(w, `{"id":"2","author":%s,"started":"2025-01-07T09:00:00.000+0000","timeSpentSeconds":1800}`, author)
		} else {
			_, _ = fmt.Fprint(w, `{"id":"3","started":"2025-01-08T09:00:00.000+0000","timeSpentSeconds":600}`)
		}
		_, _ = fmt.Fprint(w, `]}`)
	}))

	wls, err := c.Worklogs(context.Background(), "WH-1")
	require.NoError(t, err)
	require.Len(t, wls, 3)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, "acc-1", wls[0].Author.AccountID)
	assert.Equal(t, "WH-1", wls[1].IssueKey)
	assert.Equal(t, 0.5, wls[1].Hours())
	assert.Nil(t, wls[2].Author)
}

func TestMyself(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/2/myself", r.URL.Path)
		_, _ = w.Write([]byte(`{"accountId":"acc-1","name":"jdoe","displayName":"John Doe","emailAddress":"j@example.com"}`))
	}))
	me, err := c.Myself(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "jdoe", me.Name)
	assert.Equal(t, "j@example.com", me.Email)
}

func TestDoJSON_RetriesServerErrors(t *testing.T) {
	var calls int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"key":"WH-9","fields":{"issuetype":{"name":"Bug"},"status":{"name":"Open"}}}`))
	}))
	iss, err := c.Issue(context.Background(), "WH-9")
	require.NoError(t, err)
	assert.Equal(t, "Bug", iss.Type)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDoJSON_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errorMessages":["Issue does not exist"]}`))
	}))
	_, err := c.Issue(context.Background(), "NOPE-1")
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Contains(t, apiErr.Body, "does not exist")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestBasicAuthFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "jdoe", u)
		assert.Equal(t, "pw", p)
		_, _ = w.Write([]byte(`{"name":"jdoe"}`))
	}))
	defer srv.Close()
	c := NewClient(config.Config{JiraBaseURL: srv.URL, JiraUsername: "jdoe", JiraPassword: "pw", HTTPTimeout: time.Second}, zerolog.Nop())
	_, err := c.Myself(context.Background())
	require.NoError(t, err)
}
