package scheduler

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidSnapshot is returned by Restore for snapshots that break plan or run invariants.
var ErrInvalidSnapshot = errors.New("invalid scheduler snapshot")

// Snapshot is the persisted form of a plan and its run state.
type Snapshot struct {
	Plan             Plan      `yaml:"plan"`
	State            State     `yaml:"state"`
	IntervalIndex    int       `yaml:"interval_index"`
	RemainingSeconds int       `yaml:"remaining_seconds"`
	ElapsedSeconds   int       `yaml:"elapsed_seconds"`
	SavedAt          time.Time `yaml:"saved_at"`
}

// Snapshot captures the plan and run state.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Plan:             clonePlan(s.plan),
		State:            s.state,
		IntervalIndex:    s.index,
		RemainingSeconds: s.remaining,
		ElapsedSeconds:   s.elapsed,
		SavedAt:          s.clock.Now(),
	}
}

// Restore replaces the scheduler's plan and run state with snap. A snapshot
// taken while running comes back paused, since its timer did not survive.
func (s *Scheduler) Restore(snap Snapshot) error {
	if err := snap.validate(); err != nil {
		return err
	}

	state := snap.State
	if state == StateRunning {
		state = StatePaused
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTimerLocked()
	s.plan = clonePlan(snap.Plan)
	s.state = state
	s.index = snap.IntervalIndex
	s.remaining = snap.RemainingSeconds
	s.elapsed = snap.ElapsedSeconds
	s.totalSeconds = snap.Plan.TotalMinutes * 60
	if state == StateIdle {
		s.resetRunLocked()
		s.totalSeconds = 0
	}
	return nil
}

func (snap Snapshot) validate() error {
	plan := snap.Plan
	switch snap.State {
	case StateIdle:
		return nil
	case StatePlanned, StateRunning, StatePaused, StateCompleted:
	default:
		return fmt.Errorf("%w: unknown state %q", ErrInvalidSnapshot, snap.State)
	}

	if plan.Empty() {
		return fmt.Errorf("%w: state %s without a plan", ErrInvalidSnapshot, snap.State)
	}
	if plan.Sum() != plan.TotalMinutes {
		return fmt.Errorf("%w: intervals sum to %d minutes, plan total is %d", ErrInvalidSnapshot, plan.Sum(), plan.TotalMinutes)
	}
	for i, iv := range plan.Intervals {
		if iv.Minutes <= 0 {
			return fmt.Errorf("%w: interval %d has %d minutes", ErrInvalidSnapshot, i, iv.Minutes)
		}
	}
	if snap.ElapsedSeconds < 0 || snap.ElapsedSeconds > plan.TotalMinutes*60 {
		return fmt.Errorf("%w: elapsed %ds outside plan", ErrInvalidSnapshot, snap.ElapsedSeconds)
	}

	if snap.State == StateCompleted {
		if snap.IntervalIndex != len(plan.Intervals) {
			return fmt.Errorf("%w: completed run at interval %d of %d", ErrInvalidSnapshot, snap.IntervalIndex, len(plan.Intervals))
		}
		return nil
	}

	if snap.IntervalIndex < 0 || snap.IntervalIndex >= len(plan.Intervals) {
		return fmt.Errorf("%w: interval index %d out of range", ErrInvalidSnapshot, snap.IntervalIndex)
	}
	current := plan.Intervals[snap.IntervalIndex]
	if snap.RemainingSeconds <= 0 || snap.RemainingSeconds > current.Seconds() {
		return fmt.Errorf("%w: remaining %ds outside interval of %ds", ErrInvalidSnapshot, snap.RemainingSeconds, current.Seconds())
	}
	return nil
}
