package scheduler

import (
	"fmt"

	"github.com/google/uuid"
)

// IntervalKind tells work time apart from rest time.
type IntervalKind string

const (
	KindWork      IntervalKind = "work"
	KindBreak     IntervalKind = "break"
	KindLongBreak IntervalKind = "long_break"
)

// Interval is one contiguous segment of a plan.
type Interval struct {
	Kind    IntervalKind `json:"kind" yaml:"kind"`
	Minutes int          `json:"minutes" yaml:"minutes"`
}

// IsWork reports whether the interval is focused work.
func (iv Interval) IsWork() bool {
	return iv.Kind == KindWork
}

// Seconds returns the countdown length of the interval.
func (iv Interval) Seconds() int {
	return iv.Minutes * 60
}

// Label is the display text for the interval's mode.
func (iv Interval) Label() string {
	switch iv.Kind {
	case KindWork:
		return "Work Session"
	case KindLongBreak:
		return "Long Break"
	default:
		return "Break Time"
	}
}

// Rules holds the durations used to cut a total into intervals.
type Rules struct {
	WorkMinutes               int `mapstructure:"work_minutes" yaml:"work_minutes"`
	ShortBreakMinutes         int `mapstructure:"short_break_minutes" yaml:"short_break_minutes"`
	LongBreakMinutes          int `mapstructure:"long_break_minutes" yaml:"long_break_minutes"`
	LongBreakEvery            int `mapstructure:"long_break_every" yaml:"long_break_every"`
	LongBreakThresholdMinutes int `mapstructure:"long_break_threshold_minutes" yaml:"long_break_threshold_minutes"`
}

// DefaultRules returns 25 minute work blocks, 5 minute breaks and a
// 15 minute break after every fourth block once the total reaches two hours.
func DefaultRules() Rules {
	return Rules{
		WorkMinutes:               25,
		ShortBreakMinutes:         5,
		LongBreakMinutes:          15,
		LongBreakEvery:            4,
		LongBreakThresholdMinutes: 120,
	}
}

// Validate reports the first non-positive duration.
func (r Rules) Validate() error {
	switch {
	case r.WorkMinutes <= 0:
		return fmt.Errorf("work_minutes must be positive, got %d", r.WorkMinutes)
	case r.ShortBreakMinutes <= 0:
		return fmt.Errorf("short_break_minutes must be positive, got %d", r.ShortBreakMinutes)
	case r.LongBreakMinutes <= 0:
		return fmt.Errorf("long_break_minutes must be positive, got %d", r.LongBreakMinutes)
	case r.LongBreakEvery <= 0:
		return fmt.Errorf("long_break_every must be positive, got %d", r.LongBreakEvery)
	case r.LongBreakThresholdMinutes < 0:
		return fmt.Errorf("long_break_threshold_minutes must not be negative, got %d", r.LongBreakThresholdMinutes)
	}
	return nil
}

// Plan is the ordered interval sequence for one requested total.
type Plan struct {
	RunID        string     `json:"run_id" yaml:"run_id"`
	TotalMinutes int        `json:"total_minutes" yaml:"total_minutes"`
	Intervals    []Interval `json:"intervals" yaml:"intervals"`
}

// Empty reports whether the plan has nothing to run.
func (p Plan) Empty() bool {
	return len(p.Intervals) == 0
}

// Sum returns the minutes covered by the intervals.
func (p Plan) Sum() int {
	total := 0
	for _, iv := range p.Intervals {
		total += iv.Minutes
	}
	return total
}

// WorkCount returns how many work intervals the plan holds.
func (p Plan) WorkCount() int {
	count := 0
	for _, iv := range p.Intervals {
		if iv.IsWork() {
			count++
		}
	}
	return count
}

// BuildIntervals cuts totalMinutes into alternating work and break
// intervals. The result is deterministic and always sums to totalMinutes:
// the last work block takes whatever is left, and a break is clipped when
// less time remains than the break would need.
func BuildIntervals(totalMinutes int, rules Rules) ([]Interval, error) {
	if totalMinutes <= 0 {
		return nil, fmt.Errorf("%w: total minutes must be positive, got %d", ErrInvalidPlanRequest, totalMinutes)
	}
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlanRequest, err)
	}

	longBreaks := totalMinutes >= rules.LongBreakThresholdMinutes
	var intervals []Interval
	remaining := totalMinutes
	workDone := 0

	for remaining > 0 {
		work := min(rules.WorkMinutes, remaining)
		intervals = append(intervals, Interval{Kind: KindWork, Minutes: work})
		remaining -= work
		workDone++
		if remaining == 0 {
			break
		}

		kind, rest := KindBreak, rules.ShortBreakMinutes
		if longBreaks && workDone%rules.LongBreakEvery == 0 {
			kind, rest = KindLongBreak, rules.LongBreakMinutes
		}
		rest = min(rest, remaining)
		intervals = append(intervals, Interval{Kind: kind, Minutes: rest})
		remaining -= rest
	}

	return intervals, nil
}

// NewPlan builds a plan with a fresh run identifier.
func NewPlan(totalMinutes int, rules Rules) (Plan, error) {
	intervals, err := BuildIntervals(totalMinutes, rules)
	if err != nil {
		return Plan{}, err
	}
	return Plan{
		RunID:        uuid.New().String(),
		TotalMinutes: totalMinutes,
		Intervals:    intervals,
	}, nil
}
