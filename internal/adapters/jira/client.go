/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/HamedShams/jira-work-hours/internal/config"
	"github.com/HamedShams/jira-work-hours/internal/domain"
	"github.com/rs/zerolog"
)

const worklogPage = 1000

// APIError is a non-2xx answer from Jira.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jira api status=%d body=%s", e.Status, e.Body)
}

type Client struct {
	baseURL       string
	token         string
	user          string
	pass          string
	apiVer        string
	activityField string
	http          *http.Client
	log           zerolog.Logger
	backoff       time.Duration
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
	return &Client{
		baseURL:       strings.TrimRight(cfg.JiraBaseURL, "/"),
		token:         cfg.JiraPAT,
		user:          cfg.JiraUsername,
		pass:          cfg.JiraPassword,
		apiVer:        cfg.JiraAPIVersion,
		activityField: cfg.Productivity.ActivityField,
		http:          &http.Client{Timeout: cfg.HTTPTimeout},
		log:           log,
		backoff:       300 * time.Millisecond,
	}
}

// Link is the browser permalink of an issue.
func (c *Client) Link(key string) string {
	return c.baseURL + "/browse/" + key
}

func (c *Client) apiPath(rest string) string {
	ver := c.apiVer
	if ver == "" {
		ver = "2"
	}
	return "/rest/api/" + ver + rest
}

func (c *Client) apiURL(path string, q url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := c.baseURL + path
	if len(q) > 0 {
		u = u + "?" + q.Encode()
	}
	return u
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else if c.user != "" && c.pass != "" {
		req.SetBasicAuth(c.user, c.pass)
	}
}

// doJSON retries on transport errors, 429 and 5xx and decodes the body into out.
func (c *Client) doJSON(ctx context.Context, method, u string, body, out any) error {
	if c.baseURL == "" {
		return errors.New("jira: empty baseURL")
	}
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		retry, err := c.once(ctx, method, u, payload, out)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
		c.log.Debug().Err(err).Int("attempt", attempt+1).Str("url", u).Msg("jira request failed")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff * time.Duration(1<<attempt)):
		}
	}
	return lastErr
}

func (c *Client) once(ctx context.Context, method, u string, payload []byte, out any) (bool, error) {
	var r io.Reader
	if payload != nil {
		r = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return ctx.Err() == nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
		return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500, apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("jira: decode response: %w", err)
	}
	return false, nil
}

type user struct {
	AccountID    string `json:"accountId"`
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

func (u *user) identity() *domain.Identity {
	if u == nil {
		return nil
	}
	return &domain.Identity{AccountID: u.AccountID, Name: u.Name, DisplayName: u.DisplayName, Email: u.EmailAddress}
}

type named struct {
	Name string `json:"name"`
}

type issueFields struct {
	Summary              string   `json:"summary"`
	IssueType            named    `json:"issuetype"`
	Status               named    `json:"status"`
	TimeOriginalEstimate *int64   `json:"timeoriginalestimate"`
	Subtasks             []rawKey `json:"subtasks"`
}

type rawKey struct {
	Key string `json:"key"`
}

type rawIssue struct {
	Key    string                     `json:"key"`
	Fields map[string]json.RawMessage `json:"fields"`
}

type worklogPageResp struct {
	StartAt    int          `json:"startAt"`
	MaxResults int          `json:"maxResults"`
	Total      int          `json:"total"`
	Worklogs   []rawWorklog `json:"worklogs"`
}

type rawWorklog struct {
	ID               string `json:"id"`
	Author           *user  `json:"author"`
	Started          string `json:"started"`
	TimeSpentSeconds int64  `json:"timeSpentSeconds"`
}

func (c *Client) toIssue(ri rawIssue) (domain.Issue, error) {
	var f issueFields
	if len(ri.Fields) > 0 {
		b, err := json.Marshal(ri.Fields)
		if err != nil {
			return domain.Issue{}, err
		}
		if err := json.Unmarshal(b, &f); err != nil {
			return domain.Issue{}, fmt.Errorf("jira: decode fields of %s: %w", ri.Key, err)
		}
	}
	iss := domain.Issue{
		Key:                     ri.Key,
		Type:                    f.IssueType.Name,
		Status:                  f.Status.Name,
		Summary:                 f.Summary,
		OriginalEstimateSeconds: f.TimeOriginalEstimate,
		Link:                    c.Link(ri.Key),
	}
	if c.activityField != "" {
		iss.ActivityType = ActivityValue(ri.Fields[c.activityField])
	}
	for _, st := range f.Subtasks {
		if st.Key != "" {
			iss.Subtasks = append(iss.Subtasks, st.Key)
		}
	}
	return iss, nil
}

// ActivityValue normalizes the activity custom field: a plain string is used
// as is, an option object yields its "value", anything else is stringified.
// Absent or null gives nil.
func ActivityValue(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return nil
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case map[string]any:
		if inner, ok := t["value"]; ok && inner != nil {
			if str, ok := inner.(string); ok {
				s = str
			} else {
				s = fmt.Sprint(inner)
			}
		} else {
			s = string(raw)
		}
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(t)
	default:
		s = string(raw)
	}
	return &s
}

// SearchIssues runs one page of a JQL search.
func (c *Client) SearchIssues(ctx context.Context, jql string, startAt, max int, fields []string, expand string) ([]domain.Issue, error) {
	if jql == "" {
		return nil, errors.New("jira: empty jql")
	}
	var resp struct {
		Issues []rawIssue `json:"issues"`
	}
	if c.apiVer == "3" {
		body := map[string]any{"jql": jql, "startAt": startAt, "maxResults": max, "fields": fields}
		if expand != "" {
			body["expand"] = []string{expand}
		}
		if err := c.doJSON(ctx, http.MethodPost, c.apiURL(c.apiPath("/search"), nil), body, &resp); err != nil {
			return nil, err
		}
	} else {
		q := url.Values{}
		q.Set("jql", jql)
		q.Set("startAt", strconv.Itoa(startAt))
		if max > 0 {
			q.Set("maxResults", strconv.Itoa(max))
		}
		if len(fields) > 0 {
			q.Set("fields", strings.Join(fields, ","))
		}
		if expand != "" {
			q.Set("expand", expand)
		}
		if err := c.doJSON(ctx, http.MethodGet, c.apiURL(c.apiPath("/search"), q), nil, &resp); err != nil {
			return nil, err
		}
	}
	out := make([]domain.Issue, 0, len(resp.Issues))
	for _, ri := range resp.Issues {
		iss, err := c.toIssue(ri)
		if err != nil {
			return nil, err
		}
		out = append(out, iss)
	}
	return out, nil
}

// Issue fetches a single issue with the fields the reports need.
func (c *Client) Issue(ctx context.Context, key string) (domain.Issue, error) {
	if key == "" {
		return domain.Issue{}, errors.New("jira: empty issue key")
	}
	fields := []string{"summary", "issuetype", "status", "timeoriginalestimate", "subtasks"}
	if c.activityField != "" {
		fields = append(fields, c.activityField)
	}
	q := url.Values{}
	q.Set("fields", strings.Join(fields, ","))
	var ri rawIssue
	if err := c.doJSON(ctx, http.MethodGet, c.apiURL(c.apiPath("/issue/"+url.PathEscape(key)), q), nil, &ri); err != nil {
		return domain.Issue{}, err
	}
	if ri.Key == "" {
		ri.Key = key
	}
	return c.toIssue(ri)
}

// Worklogs returns every worklog on the issue, following pagination.
func (c *Client) Worklogs(ctx context.Context, key string) ([]domain.Worklog, error) {
	if key == "" {
		return nil, errors.New("jira: empty issue key")
	}
	var out []domain.Worklog
	start := 0
	for {
		q := url.Values{}
		q.Set("startAt", strconv.Itoa(start))
		q.Set("maxResults", strconv.Itoa(worklogPage))
		var page worklogPageResp
		if err := c.doJSON(ctx, http.MethodGet, c.apiURL(c.apiPath("/issue/"+url.PathEscape(key)+"/worklog"), q), nil, &page); err != nil {
			return nil, err
		}
		for _, w := range page.Worklogs {
			out = append(out, domain.Worklog{
				ID:               w.ID,
				IssueKey:         key,
				Author:           w.Author.identity(),
				Started:          w.Started,
				TimeSpentSeconds: w.TimeSpentSeconds,
			})
		}
		start += len(page.Worklogs)
		if len(page.Worklogs) == 0 || start >= page.Total {
			break
		}
	}
	return out, nil
}

// Myself returns the identity the credentials authenticate as.
func (c *Client) Myself(ctx context.Context) (domain.Identity, error) {
	var u user
	if err := c.doJSON(ctx, http.MethodGet, c.apiURL(c.apiPath("/myself"), nil), nil, &u); err != nil {
		return domain.Identity{}, err
	}
	return *u.identity(), nil
}
