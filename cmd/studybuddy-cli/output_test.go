package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"studybuddy/internal/event"
	"studybuddy/internal/ipc"
	"studybuddy/internal/report"
	"studybuddy/internal/scheduler"
)

func init() {
	color.NoColor = true
}

func TestWritePlan(t *testing.T) {
	intervals, err := scheduler.BuildIntervals(30, scheduler.DefaultRules())
	assert.NoError(t, err)

	var buf bytes.Buffer
	writePlan(&buf, intervals)

	assert.Equal(t,
		"  1. +00:00  Work Session  25 min\n"+
			"  2. +25:00  Break Time  5 min\n"+
			"Total 30m, 25m of work in 2 intervals\n",
		buf.String())
}

func TestWriteStatus(t *testing.T) {
	var buf bytes.Buffer
	writeStatus(&buf, ipc.NewStatusData(scheduler.Status{State: scheduler.StateIdle}, scheduler.Plan{}))
	assert.Equal(t, "State: Ready\n", buf.String())

	buf.Reset()
	writeStatus(&buf, ipc.NewStatusData(scheduler.Status{
		State:            scheduler.StatePaused,
		TotalMinutes:     30,
		IntervalCount:    2,
		Current:          scheduler.Interval{Kind: scheduler.KindWork, Minutes: 25},
		RemainingSeconds: 1440,
		ElapsedSeconds:   60,
		Progress:         60.0 / 1800.0,
	}, scheduler.Plan{}))
	assert.Contains(t, buf.String(), "State: Paused\n")
	assert.Contains(t, buf.String(), "Interval: Work Session (1/2), 24:00 left\n")
	assert.Contains(t, buf.String(), "3% (01:00 of 30:00)")
}

func TestWriteReport(t *testing.T) {
	start := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	var buf bytes.Buffer
	writeReport(&buf, report.Summary{Start: start, End: end})
	assert.Equal(t,
		"Study report 2026-02-03 to 2026-02-10\n"+
			"Runs: 0 planned, 0 completed\n"+
			"Intervals: 0 work, 0 break\n"+
			"Focus: 0m, breaks: 0m, efficiency 0.0%\n",
		buf.String())

	buf.Reset()
	writeReport(&buf, report.Summary{
		Start: start, End: end,
		Runs:          []report.Run{{RunID: "a", PlannedAt: start, PlannedMinutes: 120, FocusMinutes: 100, Completed: true}},
		CompletedRuns: 1, WorkIntervals: 4, BreakIntervals: 4,
		FocusMinutes: 100, BreakMinutes: 20,
	})
	assert.Contains(t, buf.String(), "Runs: 1 planned, 1 completed\n")
	assert.Contains(t, buf.String(), "Focus: 1h 40m, breaks: 20m, efficiency 83.3%\n")
	assert.Contains(t, buf.String(), "completed   planned 2h 0m, focused 1h 40m  a\n")
}

func TestWriteRunEvents(t *testing.T) {
	at := time.Date(2026, 2, 3, 9, 0, 0, 0, time.Local)
	events := []event.Event{
		{Timestamp: at, Type: event.EventTypePlan, RunID: "r1", Value: 60},
		{Timestamp: at, Type: event.EventTypeStart, RunID: "r1", Tag: "planned"},
		{Timestamp: at.Add(25 * time.Minute), Type: event.EventTypeIntervalComplete, RunID: "r1", Tag: "work", Value: 25},
		{Timestamp: at.Add(40 * time.Minute), Type: event.EventTypeStop, RunID: "r1", Tag: "work", Value: 10.2},
	}

	var buf bytes.Buffer
	writeRunEvents(&buf, "r1", events)
	out := buf.String()

	assert.Contains(t, out, "Run r1\n")
	assert.Contains(t, out, "2026-02-03 09:00:00  plan              60 minutes\n")
	assert.Contains(t, out, "start             from planned\n")
	assert.Contains(t, out, "2026-02-03 09:25:00  interval_complete work, 25 min\n")
	assert.Contains(t, out, "stop              during work, 10 min in\n")
}
