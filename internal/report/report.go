// Package report summarizes recorded session history.
package report

import (
	"fmt"
	"sort"
	"time"

	"studybuddy/internal/event"
	"studybuddy/internal/scheduler"
)

// Run is the history of one plan.
type Run struct {
	RunID          string
	PlannedAt      time.Time
	PlannedMinutes int
	FocusMinutes   int
	BreakMinutes   int
	Intervals      int
	Completed      bool
	Stopped        bool
}

// Summary aggregates runs over a period.
type Summary struct {
	Start, End     time.Time
	Runs           []Run
	CompletedRuns  int
	WorkIntervals  int
	BreakIntervals int
	FocusMinutes   int
	BreakMinutes   int
}

// Efficiency is focus time over all completed interval time, in percent.
func (s Summary) Efficiency() float64 {
	total := s.FocusMinutes + s.BreakMinutes
	if total == 0 {
		return 0
	}
	return float64(s.FocusMinutes) / float64(total) * 100
}

// Summarize folds events into per-run and overall totals. Events without a
// run id (app start/stop) are ignored.
func Summarize(start, end time.Time, events []event.Event) Summary {
	sorted := append([]event.Event(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	summary := Summary{Start: start, End: end}
	runs := make(map[string]*Run)
	var order []string

	for _, e := range sorted {
		if e.RunID == "" {
			continue
		}
		run, ok := runs[e.RunID]
		if !ok {
			run = &Run{RunID: e.RunID, PlannedAt: e.Timestamp}
			runs[e.RunID] = run
			order = append(order, e.RunID)
		}

		minutes := int(e.Value)
		switch e.Type {
		case event.EventTypePlan:
			run.PlannedAt = e.Timestamp
			run.PlannedMinutes = minutes
		case event.EventTypeIntervalComplete:
			run.Intervals++
			if scheduler.IntervalKind(e.Tag) == scheduler.KindWork {
				run.FocusMinutes += minutes
				summary.WorkIntervals++
				summary.FocusMinutes += minutes
			} else {
				run.BreakMinutes += minutes
				summary.BreakIntervals++
				summary.BreakMinutes += minutes
			}
		case event.EventTypeAllComplete:
			run.Completed = true
		case event.EventTypeStop:
			run.Stopped = true
			// Partly worked interval cut short by the stop.
			if scheduler.IntervalKind(e.Tag) == scheduler.KindWork {
				run.FocusMinutes += minutes
				summary.FocusMinutes += minutes
			}
		}
	}

	for _, id := range order {
		run := runs[id]
		if run.Completed {
			summary.CompletedRuns++
		}
		summary.Runs = append(summary.Runs, *run)
	}
	return summary
}

// FormatMinutes renders minutes as "1h 5m" or "45m".
func FormatMinutes(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
