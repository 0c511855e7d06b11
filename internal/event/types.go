package event

import "time"

type EventType string

const (
	EventTypeAppStart         EventType = "app_start"
	EventTypeAppStop          EventType = "app_stop"
	EventTypePlan             EventType = "plan"
	EventTypeStart            EventType = "start"
	EventTypePause            EventType = "pause"
	EventTypeStop             EventType = "stop"
	EventTypeIntervalComplete EventType = "interval_complete"
	EventTypeAllComplete      EventType = "all_complete"
)

// Event structure to store in DB
type Event struct {
	ID        int64     `db:"id"`
	Timestamp time.Time `db:"timestamp"`
	Type      EventType `db:"type"`
	RunID     string    `db:"run_id"` // Plan the event belongs to, empty for app events
	Value     float64   `db:"value"`  // Minutes: planned total, completed interval, or time spent in a stopped one
	Tag       string    `db:"tag"`    // Interval kind for interval_complete and stop, prior state for start
	Notes     string    `db:"notes"`
}
