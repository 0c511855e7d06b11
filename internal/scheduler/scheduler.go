package scheduler

import (
	"fmt"
	"sync"
	"time"
)

// State is the scheduler's lifecycle position.
type State string

const (
	StateIdle      State = "idle"
	StatePlanned   State = "planned"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
)

// Status is a point-in-time view of the plan and countdown.
type Status struct {
	RunID            string   `json:"run_id"`
	State            State    `json:"state"`
	TotalMinutes     int      `json:"total_minutes"`
	IntervalIndex    int      `json:"interval_index"`
	IntervalCount    int      `json:"interval_count"`
	Current          Interval `json:"current"`
	RemainingSeconds int      `json:"remaining_seconds"`
	ElapsedSeconds   int      `json:"elapsed_seconds"`
	TotalSeconds     int      `json:"total_seconds"`
	Progress         float64  `json:"progress"`
}

// IsWork reports whether the current interval is work.
func (s Status) IsWork() bool {
	return s.Current.IsWork()
}

// Config contains runtime options for the Scheduler.
type Config struct {
	TickInterval time.Duration
	Rules        Rules
}

// Scheduler runs a plan of work and break intervals as a per-second
// countdown. All operations are serialized on one mutex; ticks come only
// from the Clock and at most one is ever pending.
type Scheduler struct {
	mu       sync.Mutex
	clock    Clock
	notifier Notifier
	options  Config

	plan         Plan
	state        State
	index        int
	remaining    int
	elapsed      int
	totalSeconds int

	timer      Timer
	generation uint64
}

// New creates an idle Scheduler.
func New(clock Clock, notifier Notifier, options Config) *Scheduler {
	if clock == nil {
		clock = SystemClock
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	if options.Rules == (Rules{}) {
		options.Rules = DefaultRules()
	}
	return &Scheduler{
		clock:    clock,
		notifier: notifier,
		options:  options,
		state:    StateIdle,
	}
}

// Plan replaces the current plan with one covering totalMinutes. Any live
// countdown is cancelled and the run counters are reset; the timer is not
// started.
func (s *Scheduler) Plan(totalMinutes int) (Plan, error) {
	plan, err := NewPlan(totalMinutes, s.options.Rules)
	if err != nil {
		return Plan{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTimerLocked()
	s.plan = plan
	s.resetRunLocked()
	s.remaining = plan.Intervals[0].Seconds()
	s.totalSeconds = plan.TotalMinutes * 60
	s.state = StatePlanned
	return clonePlan(plan), nil
}

// Start begins a planned run or resumes a paused one. Starting an already
// running scheduler does nothing.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	switch s.state {
	case StateRunning:
		s.mu.Unlock()
		return nil
	case StatePlanned:
		if s.plan.Empty() {
			s.mu.Unlock()
			return fmt.Errorf("%w: no plan to start", ErrInvalidState)
		}
		s.index = 0
		s.remaining = s.plan.Intervals[0].Seconds()
	case StatePaused:
	default:
		state, empty := s.state, s.plan.Empty()
		s.mu.Unlock()
		if empty {
			return fmt.Errorf("%w: no plan to start", ErrInvalidState)
		}
		return fmt.Errorf("%w: cannot start from %s, request a new plan", ErrInvalidState, state)
	}

	s.state = StateRunning
	s.armLocked()
	status := s.statusLocked()
	s.mu.Unlock()

	s.notifier.OnStart(status)
	return nil
}

// Pause freezes a running countdown. It reports whether anything changed.
func (s *Scheduler) Pause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return false
	}
	s.cancelTimerLocked()
	s.state = StatePaused
	return true
}

// Stop cancels any countdown and resets the run. The plan's intervals are
// kept, but a new Plan call is needed before the next Start.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.state != StateIdle
	s.cancelTimerLocked()
	s.resetRunLocked()
	s.totalSeconds = 0
	s.state = StateIdle
	return changed
}

// ProgressFraction returns elapsed time over the planned total, within [0, 1].
func (s *Scheduler) ProgressFraction() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progressLocked()
}

// Status returns the current view of the scheduler.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// State returns the lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentPlan returns a copy of the active plan.
func (s *Scheduler) CurrentPlan() Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clonePlan(s.plan)
}

func (s *Scheduler) tick(generation uint64) {
	s.mu.Lock()
	if generation != s.generation || s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.remaining--
	s.elapsed++

	if s.remaining > 0 {
		s.armLocked()
		status := s.statusLocked()
		s.mu.Unlock()
		s.notifier.OnTick(status)
		return
	}

	completed := s.plan.Intervals[s.index]
	s.index++

	if s.index >= len(s.plan.Intervals) {
		s.generation++
		s.remaining = 0
		s.state = StateCompleted
		status := s.statusLocked()
		s.mu.Unlock()
		s.notifier.OnIntervalComplete(completed, status)
		s.notifier.OnAllComplete(status)
		return
	}

	next := s.plan.Intervals[s.index]
	s.remaining = next.Seconds()
	s.armLocked()
	status := s.statusLocked()
	s.mu.Unlock()

	s.notifier.OnIntervalComplete(completed, status)
	s.notifier.OnModeChanged(next.IsWork(), status)
	s.notifier.OnTick(status)
}

// armLocked replaces any pending tick with a fresh one bound to a new generation.
func (s *Scheduler) armLocked() {
	s.cancelTimerLocked()
	generation := s.generation
	s.timer = s.clock.AfterFunc(s.options.TickInterval, func() {
		s.tick(generation)
	})
}

// cancelTimerLocked also bumps the generation so a tick already in flight
// is dropped when it finally takes the lock.
func (s *Scheduler) cancelTimerLocked() {
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) resetRunLocked() {
	s.index = 0
	s.remaining = 0
	s.elapsed = 0
}

func (s *Scheduler) progressLocked() float64 {
	if s.plan.TotalMinutes <= 0 {
		return 0
	}
	progress := float64(s.elapsed) / float64(s.plan.TotalMinutes*60)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}

func (s *Scheduler) statusLocked() Status {
	status := Status{
		RunID:            s.plan.RunID,
		State:            s.state,
		TotalMinutes:     s.plan.TotalMinutes,
		IntervalIndex:    s.index,
		IntervalCount:    len(s.plan.Intervals),
		RemainingSeconds: s.remaining,
		ElapsedSeconds:   s.elapsed,
		TotalSeconds:     s.totalSeconds,
		Progress:         s.progressLocked(),
	}
	if s.index < len(s.plan.Intervals) {
		status.Current = s.plan.Intervals[s.index]
	}
	return status
}

func clonePlan(plan Plan) Plan {
	plan.Intervals = append([]Interval(nil), plan.Intervals...)
	return plan
}
