package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRestoreRunningComesBackPaused(t *testing.T) {
	s, clock, _ := newTestScheduler(t)
	plan, err := s.Plan(60)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	clock.FireN(25*60 + 30)

	snap := s.Snapshot()
	assert.Equal(t, StateRunning, snap.State)
	assert.Equal(t, clock.Now(), snap.SavedAt)

	restored, restoredClock, rec := newTestScheduler(t)
	require.NoError(t, restored.Restore(snap))

	status := restored.Status()
	assert.Equal(t, StatePaused, status.State)
	assert.Equal(t, plan.RunID, status.RunID)
	assert.Equal(t, 1, status.IntervalIndex)
	assert.Equal(t, 5*60-30, status.RemainingSeconds)
	assert.Equal(t, 25*60+30, status.ElapsedSeconds)
	assert.False(t, restoredClock.Pending())

	require.NoError(t, restored.Start())
	restoredClock.FireN(60 * 60)
	assert.Equal(t, StateCompleted, restored.State())
	assert.Equal(t, 1, rec.allComplete)
	assert.Equal(t, 1.0, restored.ProgressFraction())
}

func TestRestoreIdleKeepsPlanOnly(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	plan, err := NewPlan(40, DefaultRules())
	require.NoError(t, err)

	require.NoError(t, s.Restore(Snapshot{Plan: plan, State: StateIdle, ElapsedSeconds: 99}))

	status := s.Status()
	assert.Equal(t, StateIdle, status.State)
	assert.Zero(t, status.ElapsedSeconds)
	assert.Equal(t, plan.Intervals, s.CurrentPlan().Intervals)
	assert.ErrorIs(t, s.Start(), ErrInvalidState)
}

func TestRestoreRejectsBrokenSnapshots(t *testing.T) {
	plan, err := NewPlan(30, DefaultRules())
	require.NoError(t, err)

	tests := []struct {
		name string
		snap Snapshot
	}{
		{"unknown state", Snapshot{Plan: plan, State: "sleeping"}},
		{"paused without plan", Snapshot{State: StatePaused, RemainingSeconds: 10}},
		{"sum mismatch", Snapshot{
			Plan:             Plan{TotalMinutes: 31, Intervals: plan.Intervals},
			State:            StatePaused,
			RemainingSeconds: 10,
		}},
		{"index out of range", Snapshot{Plan: plan, State: StatePaused, IntervalIndex: 2, RemainingSeconds: 10}},
		{"remaining too large", Snapshot{Plan: plan, State: StatePaused, IntervalIndex: 1, RemainingSeconds: 5*60 + 1}},
		{"elapsed beyond total", Snapshot{Plan: plan, State: StatePaused, RemainingSeconds: 10, ElapsedSeconds: 30*60 + 1}},
		{"completed mid plan", Snapshot{Plan: plan, State: StateCompleted, IntervalIndex: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := newTestScheduler(t)
			err := s.Restore(tt.snap)
			assert.ErrorIs(t, err, ErrInvalidSnapshot)
			assert.Equal(t, StateIdle, s.State())
		})
	}
}
