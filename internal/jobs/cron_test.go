package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/HamedShams/jira-work-hours/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingService struct{ runs int }

func (s *countingService) RunTimesheetReminder(context.Context) error {
	s.runs++
	return nil
}

type fakeLock struct {
	free     bool
	err      error
	unlocked int
}

func (l *fakeLock) TryAdvisoryLock(context.Context, int64) (bool, error) { return l.free, l.err }
func (l *fakeLock) AdvisoryUnlock(context.Context, int64) error {
	l.unlocked++
	return nil
}

func cfg() config.Config { return config.Config{TZ: "UTC", TimesheetCron: "0 17 * * MON-FRI"} }

func TestNewCron_RejectsBadSpec(t *testing.T) {
	c := cfg()
	c.TimesheetCron = "every day"
	_, err := NewCron(c, zerolog.Nop(), &countingService{}, nil)
	assert.Error(t, err)
}

func TestRun_Lock(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name     string
		lock     *fakeLock
		runs     int
		unlocked int
	}{
		{"acquired", &fakeLock{free: true}, 1, 1},
		{"held elsewhere", &fakeLock{free: false}, 0, 0},
		{"lock error", &fakeLock{err: errors.New("conn refused")}, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &countingService{}
			cr, err := NewCron(cfg(), zerolog.Nop(), svc, tc.lock)
			require.NoError(t, err)
			cr.Run(ctx)
			assert.Equal(t, tc.runs, svc.runs)
			assert.Equal(t, tc.unlocked, tc.lock.unlocked)
		})
	}
}

func TestRun_WithoutLock(t *testing.T) {
	svc := &countingService{}
	cr, err := NewCron(cfg(), zerolog.Nop(), svc, nil)
	require.NoError(t, err)
	cr.Run(context.Background())
	assert.Equal(t, 1, svc.runs)
}
