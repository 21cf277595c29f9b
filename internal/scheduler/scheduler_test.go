package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/projectledger/internal/depreciation"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (f *fakeRunner) RunBatch(_ context.Context, asOf time.Time) (*depreciation.Report, error) {
	f.mu.Lock()
	f.calls = append(f.calls, asOf)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &depreciation.Report{AsOf: asOf, Errors: []string{"asset x: boom"}}, nil
}

func TestNext(t *testing.T) {
	s := New(&fakeRunner{}, 1, 30)
	assert.Equal(t, "30 1 * * *", s.Spec())
	loc := time.FixedZone("test", 3*3600)

	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"later today", time.Date(2025, 5, 10, 0, 15, 0, 0, loc), time.Date(2025, 5, 10, 1, 30, 0, 0, loc)},
		{"exactly at run time", time.Date(2025, 5, 10, 1, 30, 0, 0, loc), time.Date(2025, 5, 11, 1, 30, 0, 0, loc)},
		{"across month end", time.Date(2025, 5, 31, 23, 0, 0, 0, loc), time.Date(2025, 6, 1, 1, 30, 0, 0, loc)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, err := s.Next(tc.now)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(next), "got %s", next)
		})
	}
}

func TestTickRunsAsOfNow(t *testing.T) {
	runner := &fakeRunner{}
	s := New(runner, 1, 0)
	fixed := time.Date(2025, 5, 10, 1, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	s.tick(context.Background())
	runner.err = errors.New("database locked")
	s.tick(context.Background())

	require.Len(t, runner.calls, 2, "a failed run does not panic or stop ticking")
	assert.Equal(t, fixed, runner.calls[0])
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := &fakeRunner{}
	s := New(runner, 1, 0)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Empty(t, runner.calls)
}

func TestRunRejectsBadSchedule(t *testing.T) {
	s := New(&fakeRunner{}, 1, 0)
	s.spec = "not a schedule"

	err := s.Run(context.Background())
	assert.ErrorContains(t, err, "parse schedule")

	_, err = s.Next(time.Now())
	assert.Error(t, err)
}

func TestRunOnce(t *testing.T) {
	runner := &fakeRunner{}
	s := New(runner, 1, 0)
	asOf := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)

	report, err := s.RunOnce(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, asOf, report.AsOf)

	runner.err = errors.New("boom")
	_, err = s.RunOnce(context.Background(), asOf)
	assert.Error(t, err)
}
