package worklog

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/HamedShams/jira-work-hours/internal/domain"
	"github.com/rs/zerolog"
)

var errNotFound = errors.New("not found")

type fakeTracker struct {
	mu       sync.Mutex
	issues   map[string]domain.Issue
	worklogs map[string][]domain.Worklog
	// hits are the keys every search returns, in order.
	hits     []string
	created  []string
	me       domain.Identity
	meErr    error
	queries  []string
	startAts []int
	expands  []string
	wlErr    map[string]error
}

func newFakeTracker(me domain.Identity) *fakeTracker {
	return &fakeTracker{issues: map[string]domain.Issue{}, worklogs: map[string][]domain.Worklog{}, me: me}
}

func (f *fakeTracker) add(iss domain.Issue, hit bool, wls ...domain.Worklog) {
	f.issues[iss.Key] = iss
	for i := range wls {
		wls[i].IssueKey = iss.Key
	}
	f.worklogs[iss.Key] = wls
	if hit {
		f.hits = append(f.hits, iss.Key)
	}
}

func (f *fakeTracker) SearchIssues(_ context.Context, jql string, startAt, max int, _ []string, expand string) ([]domain.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, jql)
	f.expands = append(f.expands, expand)
	f.startAts = append(f.startAts, startAt)
	keys := f.hits
	if strings.HasPrefix(jql, "created") {
		keys = f.created
	}
	var out []domain.Issue
	for i := startAt; i < len(keys) && i < startAt+max; i++ {
		out = append(out, f.issues[keys[i]])
	}
	return out, nil
}

func (f *fakeTracker) Worklogs(_ context.Context, key string) ([]domain.Worklog, error) {
	if err := f.wlErr[key]; err != nil {
		return nil, err
	}
	return f.worklogs[key], nil
}

func (f *fakeTracker) Issue(_ context.Context, key string) (domain.Issue, error) {
	iss, ok := f.issues[key]
	if !ok {
		return domain.Issue{}, errNotFound
	}
	return iss, nil
}

func (f *fakeTracker) Myself(context.Context) (domain.Identity, error) {
	if f.meErr != nil {
		return domain.Identity{}, f.meErr
	}
	return f.me, nil
}

func hours(h float64) *int64 {
	v := int64(h * 3600)
	return &v
}

func str(s string) *string { return &s }

func wl(author *domain.Identity, started string, h float64) domain.Worklog {
	return domain.Worklog{Author: author, Started: started, TimeSpentSeconds: int64(h * 3600)}
}

func testEngine(t Tracker) *Engine {
	return NewEngine(t, DefaultOptions(), "jdoe", zerolog.Nop())
}
