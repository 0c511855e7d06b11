package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu          sync.Mutex
	starts      int
	ticks       int
	completed   []Interval
	modes       []bool
	allComplete int
	last        Status
}

func (r *recorder) OnStart(status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts++
	r.last = status
}

func (r *recorder) OnTick(status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks++
	r.last = status
}

func (r *recorder) OnIntervalComplete(completed Interval, status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, completed)
	r.last = status
}

func (r *recorder) OnModeChanged(isWork bool, status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modes = append(r.modes, isWork)
	r.last = status
}

func (r *recorder) OnAllComplete(status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.allComplete++
	r.last = status
}

func newTestScheduler(t *testing.T) (*Scheduler, *ManualClock, *recorder) {
	t.Helper()
	clock := NewManualClock(time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))
	rec := &recorder{}
	return New(clock, rec, Config{TickInterval: time.Second}), clock, rec
}

func TestNewSchedulerIsIdle(t *testing.T) {
	s, clock, _ := newTestScheduler(t)

	assert.Equal(t, StateIdle, s.State())
	assert.Zero(t, s.ProgressFraction())
	assert.False(t, clock.Pending())
}

func TestStartWithoutPlan(t *testing.T) {
	s, clock, rec := newTestScheduler(t)

	err := s.Start()
	require.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, StateIdle, s.State())
	assert.False(t, clock.Pending())
	assert.Zero(t, rec.starts)
}

func TestPlanRejectsNonPositiveTotal(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	_, err := s.Plan(0)
	require.ErrorIs(t, err, ErrInvalidPlanRequest)
	_, err = s.Plan(-5)
	require.ErrorIs(t, err, ErrInvalidPlanRequest)
	assert.Equal(t, StateIdle, s.State())
}

func TestPlanEntersPlanned(t *testing.T) {
	s, clock, _ := newTestScheduler(t)

	plan, err := s.Plan(30)
	require.NoError(t, err)
	assert.Equal(t, []Interval{work(25), rest(5)}, plan.Intervals)

	status := s.Status()
	assert.Equal(t, StatePlanned, status.State)
	assert.Equal(t, plan.RunID, status.RunID)
	assert.Equal(t, 30*60, status.TotalSeconds)
	assert.Equal(t, 25*60, status.RemainingSeconds)
	assert.Equal(t, 2, status.IntervalCount)
	assert.True(t, status.IsWork())
	assert.False(t, clock.Pending(), "planning must not start the timer")
}

func TestStartArmsOneTick(t *testing.T) {
	s, clock, rec := newTestScheduler(t)
	_, err := s.Plan(10)
	require.NoError(t, err)

	require.NoError(t, s.Start())
	assert.Equal(t, StateRunning, s.State())
	assert.True(t, clock.Pending())
	assert.Equal(t, 1, rec.starts)

	require.True(t, clock.Fire())
	status := s.Status()
	assert.Equal(t, 10*60-1, status.RemainingSeconds)
	assert.Equal(t, 1, status.ElapsedSeconds)
	assert.Equal(t, 1, rec.ticks)
}

func TestStartWhileRunningIsNoop(t *testing.T) {
	s, clock, rec := newTestScheduler(t)
	_, err := s.Plan(10)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	clock.FireN(3)

	require.NoError(t, s.Start())
	assert.Equal(t, 1, rec.starts)
	assert.Equal(t, 10*60-3, s.Status().RemainingSeconds)
}

func TestPauseIsIdempotent(t *testing.T) {
	s, clock, _ := newTestScheduler(t)
	_, err := s.Plan(30)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	clock.FireN(5)

	assert.True(t, s.Pause())
	once := s.Status()
	assert.False(t, s.Pause())
	twice := s.Status()

	assert.Equal(t, StatePaused, twice.State)
	assert.Equal(t, once, twice)
	assert.False(t, clock.Pending())
}

func TestPauseOutsideRunningIsNoop(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	assert.False(t, s.Pause())
	assert.Equal(t, StateIdle, s.State())

	_, err := s.Plan(30)
	require.NoError(t, err)
	assert.False(t, s.Pause())
	assert.Equal(t, StatePlanned, s.State())
}

func TestResumeContinuesCountdown(t *testing.T) {
	s, clock, rec := newTestScheduler(t)
	_, err := s.Plan(30)
	require.NoError(t, err)

	require.NoError(t, s.Start())
	clock.FireN(2)
	s.Pause()
	require.NoError(t, s.Start())

	status := s.Status()
	assert.Equal(t, StateRunning, status.State)
	assert.Equal(t, 25*60-2, status.RemainingSeconds)
	assert.Equal(t, 2, status.ElapsedSeconds)
	assert.Equal(t, 2, rec.starts)

	clock.Fire()
	assert.Equal(t, 25*60-3, s.Status().RemainingSeconds)
}

func TestRunToCompletion(t *testing.T) {
	s, clock, rec := newTestScheduler(t)
	plan, err := s.Plan(30)
	require.NoError(t, err)
	require.NoError(t, s.Start())

	fired := clock.FireN(plan.Sum()*60 + 100)

	assert.Equal(t, plan.Sum()*60, fired)
	assert.Equal(t, StateCompleted, s.State())
	assert.Equal(t, 1, rec.allComplete)
	assert.Equal(t, plan.Intervals, rec.completed)
	assert.Equal(t, []bool{false}, rec.modes)
	assert.Equal(t, 1.0, s.ProgressFraction())
	assert.False(t, clock.Pending())

	status := s.Status()
	assert.Equal(t, 30*60, status.ElapsedSeconds)
	assert.Zero(t, status.RemainingSeconds)
	assert.Equal(t, len(plan.Intervals), status.IntervalIndex)
}

func TestModeChangesFollowPlan(t *testing.T) {
	s, clock, rec := newTestScheduler(t)
	plan, err := s.Plan(150)
	require.NoError(t, err)
	require.NoError(t, s.Start())

	clock.FireN(plan.Sum() * 60)

	want := make([]bool, 0, len(plan.Intervals)-1)
	for _, iv := range plan.Intervals[1:] {
		want = append(want, iv.IsWork())
	}
	assert.Equal(t, want, rec.modes)
	assert.Equal(t, 1, rec.allComplete)
}

func TestProgressIsMonotonic(t *testing.T) {
	s, clock, _ := newTestScheduler(t)
	_, err := s.Plan(12)
	require.NoError(t, err)
	require.NoError(t, s.Start())

	previous := s.ProgressFraction()
	for clock.Fire() {
		current := s.ProgressFraction()
		require.GreaterOrEqual(t, current, previous)
		require.LessOrEqual(t, current, 1.0)
		previous = current
	}
	assert.Equal(t, 1.0, previous)
}

func TestStopResetsRunButKeepsPlan(t *testing.T) {
	s, clock, _ := newTestScheduler(t)
	plan, err := s.Plan(60)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	clock.FireN(90)

	assert.True(t, s.Stop())

	status := s.Status()
	assert.Equal(t, StateIdle, status.State)
	assert.Zero(t, status.ElapsedSeconds)
	assert.Zero(t, status.RemainingSeconds)
	assert.Zero(t, status.TotalSeconds)
	assert.Zero(t, status.IntervalIndex)
	assert.Zero(t, s.ProgressFraction())
	assert.False(t, clock.Pending())
	assert.Equal(t, plan.Intervals, s.CurrentPlan().Intervals)

	assert.False(t, s.Stop())
}

func TestStartAfterStopNeedsNewPlan(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	_, err := s.Plan(60)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	s.Stop()

	require.ErrorIs(t, s.Start(), ErrInvalidState)

	_, err = s.Plan(60)
	require.NoError(t, err)
	require.NoError(t, s.Start())
}

func TestCompletedTransitions(t *testing.T) {
	s, clock, _ := newTestScheduler(t)
	_, err := s.Plan(1)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	clock.FireN(60)
	require.Equal(t, StateCompleted, s.State())

	require.ErrorIs(t, s.Start(), ErrInvalidState)
	assert.False(t, s.Pause())

	_, err = s.Plan(5)
	require.NoError(t, err)
	assert.Equal(t, StatePlanned, s.State())

	require.NoError(t, s.Start())
	clock.FireN(5 * 60)
	require.Equal(t, StateCompleted, s.State())
	assert.True(t, s.Stop())
	assert.Equal(t, StateIdle, s.State())
}

func TestReplanWhileRunningCancelsTimer(t *testing.T) {
	s, clock, _ := newTestScheduler(t)
	first, err := s.Plan(60)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	clock.FireN(10)

	second, err := s.Plan(30)
	require.NoError(t, err)

	status := s.Status()
	assert.Equal(t, StatePlanned, status.State)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Zero(t, status.ElapsedSeconds)
	assert.False(t, clock.Pending())
}

// leakyClock ignores Stop so that cancelled callbacks can still be invoked.
type leakyClock struct {
	fns []func()
}

type leakyTimer struct{}

func (leakyTimer) Stop() bool { return true }

func (c *leakyClock) AfterFunc(_ time.Duration, f func()) Timer {
	c.fns = append(c.fns, f)
	return leakyTimer{}
}

func (c *leakyClock) Now() time.Time { return time.Time{} }

func (c *leakyClock) last() func() { return c.fns[len(c.fns)-1] }

func TestStaleTicksAreIgnored(t *testing.T) {
	tests := []struct {
		name    string
		disrupt func(s *Scheduler)
	}{
		{"after pause", func(s *Scheduler) { s.Pause() }},
		{"after stop", func(s *Scheduler) { s.Stop() }},
		{"after replan", func(s *Scheduler) { _, _ = s.Plan(45) }},
		{"after pause and resume", func(s *Scheduler) {
			s.Pause()
			_ = s.Start()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &leakyClock{}
			s := New(clock, nil, Config{})
			_, err := s.Plan(30)
			require.NoError(t, err)
			require.NoError(t, s.Start())
			stale := clock.last()

			tt.disrupt(s)
			before := s.Status()
			stale()
			assert.Equal(t, before, s.Status())
		})
	}
}

func TestNotifierMayCallBack(t *testing.T) {
	clock := NewManualClock(time.Time{})
	var s *Scheduler
	notifier := NotifierFuncs{
		ModeChanged: func(isWork bool, _ Status) {
			if !isWork {
				s.Pause()
			}
		},
	}
	s = New(clock, notifier, Config{})
	_, err := s.Plan(30)
	require.NoError(t, err)
	require.NoError(t, s.Start())

	clock.FireN(25*60 + 10)

	status := s.Status()
	assert.Equal(t, StatePaused, status.State)
	assert.Equal(t, KindBreak, status.Current.Kind)
	assert.Equal(t, 5*60, status.RemainingSeconds)
	assert.False(t, clock.Pending())
}

func TestSystemClockTicks(t *testing.T) {
	done := make(chan struct{})
	s := New(SystemClock, NotifierFuncs{
		AllComplete: func(Status) { close(done) },
	}, Config{TickInterval: time.Millisecond})
	_, err := s.Plan(1)
	require.NoError(t, err)
	require.NoError(t, s.Start())

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("run did not complete")
	}
	assert.Equal(t, StateCompleted, s.State())
	assert.Equal(t, 60, s.Status().ElapsedSeconds)
}
