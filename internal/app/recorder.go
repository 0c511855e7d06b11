package app

import (
	"log"

	"studybuddy/internal/event"
	"studybuddy/internal/notify"
	"studybuddy/internal/scheduler"
)

// snapshotEvery is how often, in elapsed seconds, a running session is
// checkpointed between interval changes.
const snapshotEvery = 30

// recorder logs scheduler callbacks, queues history events and keeps the
// snapshot file current.
type recorder struct {
	app *App
}

func (r *recorder) OnStart(status scheduler.Status) {
	log.Printf("Session %s: %s (%d/%d), %s left",
		status.RunID, status.Current.Label(), status.IntervalIndex+1, status.IntervalCount,
		notify.FormatClock(status.RemainingSeconds))
}

func (r *recorder) OnTick(status scheduler.Status) {
	if status.ElapsedSeconds%snapshotEvery == 0 {
		r.app.saveSnapshot()
	}
}

func (r *recorder) OnIntervalComplete(completed scheduler.Interval, status scheduler.Status) {
	log.Printf("Session %s: %s complete (%d min), progress %s",
		status.RunID, completed.Label(), completed.Minutes, notify.FormatPercent(status.Progress))
	r.app.record(event.Event{
		Type:  event.EventTypeIntervalComplete,
		RunID: status.RunID,
		Tag:   string(completed.Kind),
		Value: float64(completed.Minutes),
	})
	r.app.saveSnapshot()
}

func (r *recorder) OnModeChanged(isWork bool, status scheduler.Status) {
	mode := "break"
	if isWork {
		mode = "work"
	}
	log.Printf("Session %s: switching to %s, %s (%d/%d)",
		status.RunID, mode, status.Current.Label(), status.IntervalIndex+1, status.IntervalCount)
}

func (r *recorder) OnAllComplete(status scheduler.Status) {
	log.Printf("Session %s: all %d intervals complete, %d minutes", status.RunID, status.IntervalCount, status.TotalMinutes)
	r.app.record(event.Event{
		Type:  event.EventTypeAllComplete,
		RunID: status.RunID,
		Value: float64(status.TotalMinutes),
	})
	r.app.saveSnapshot()
}
