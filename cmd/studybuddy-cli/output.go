package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"studybuddy/internal/event"
	"studybuddy/internal/ipc"
	"studybuddy/internal/notify"
	"studybuddy/internal/report"
	"studybuddy/internal/scheduler"
)

var (
	infoPrefix    = color.New(color.FgBlue).SprintFunc()
	successPrefix = color.New(color.FgGreen).SprintFunc()
	errorPrefix   = color.New(color.FgRed).SprintFunc()
	workColor     = color.New(color.FgGreen).SprintFunc()
	breakColor    = color.New(color.FgCyan).SprintFunc()
	headerColor   = color.New(color.Bold).SprintFunc()
)

func printInfo(msg string) {
	fmt.Println(infoPrefix("[INFO]") + " " + msg)
}

func printSuccess(msg string) {
	fmt.Println(successPrefix("[OK]") + " " + msg)
}

func printError(msg string) {
	fmt.Fprintln(os.Stderr, errorPrefix("[ERROR]")+" "+msg)
}

func intervalName(iv scheduler.Interval) string {
	if iv.IsWork() {
		return workColor(iv.Label())
	}
	return breakColor(iv.Label())
}

// writePlan prints a numbered interval list with running start offsets.
func writePlan(w io.Writer, intervals []scheduler.Interval) {
	offset := 0
	for i, iv := range intervals {
		fmt.Fprintf(w, "%3d. +%s  %s  %d min\n", i+1, notify.FormatClock(offset*60), intervalName(iv), iv.Minutes)
		offset += iv.Minutes
	}
	work := 0
	for _, iv := range intervals {
		if iv.IsWork() {
			work += iv.Minutes
		}
	}
	fmt.Fprintf(w, "Total %s, %s of work in %d intervals\n",
		report.FormatMinutes(offset), report.FormatMinutes(work), len(intervals))
}

func writeStatus(w io.Writer, data ipc.StatusData) {
	fmt.Fprintf(w, "%s %s\n", headerColor("State:"), data.Label)
	if data.State == scheduler.StateIdle {
		return
	}
	if data.State != scheduler.StateCompleted {
		fmt.Fprintf(w, "%s %s (%d/%d), %s left\n", headerColor("Interval:"),
			intervalName(data.Current), data.IntervalIndex+1, data.IntervalCount,
			notify.FormatClock(data.RemainingSeconds))
	}
	fmt.Fprintf(w, "%s %s %s (%s of %s)\n", headerColor("Progress:"),
		notify.ProgressBar(data.Progress, 30), notify.FormatPercent(data.Progress),
		notify.FormatClock(data.ElapsedSeconds), notify.FormatClock(data.TotalMinutes*60))
}

func writeReport(w io.Writer, summary report.Summary) {
	fmt.Fprintf(w, "%s %s to %s\n", headerColor("Study report"),
		summary.Start.Format("2006-01-02"), summary.End.Format("2006-01-02"))
	fmt.Fprintf(w, "Runs: %d planned, %d completed\n", len(summary.Runs), summary.CompletedRuns)
	fmt.Fprintf(w, "Intervals: %d work, %d break\n", summary.WorkIntervals, summary.BreakIntervals)
	fmt.Fprintf(w, "Focus: %s, breaks: %s, efficiency %.1f%%\n",
		report.FormatMinutes(summary.FocusMinutes), report.FormatMinutes(summary.BreakMinutes), summary.Efficiency())

	if len(summary.Runs) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, run := range summary.Runs {
		outcome := "in progress"
		switch {
		case run.Completed:
			outcome = "completed"
		case run.Stopped:
			outcome = "stopped"
		}
		fmt.Fprintf(w, "  %s  %-11s planned %s, focused %s  %s\n",
			run.PlannedAt.Local().Format("2006-01-02 15:04"), outcome,
			report.FormatMinutes(run.PlannedMinutes), report.FormatMinutes(run.FocusMinutes), run.RunID)
	}
}

// writeRunEvents prints the recorded timeline of a single run.
func writeRunEvents(w io.Writer, runID string, events []event.Event) {
	fmt.Fprintf(w, "%s %s\n", headerColor("Run"), runID)
	for _, e := range events {
		detail := ""
		switch e.Type {
		case event.EventTypePlan:
			detail = fmt.Sprintf("%d minutes", int(e.Value))
		case event.EventTypeIntervalComplete:
			detail = fmt.Sprintf("%s, %d min", e.Tag, int(e.Value))
		case event.EventTypeStop:
			if e.Tag != "" {
				detail = fmt.Sprintf("during %s, %d min in", e.Tag, int(e.Value))
			}
		case event.EventTypeStart:
			detail = "from " + e.Tag
		}
		fmt.Fprintf(w, "  %s  %-17s %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Type, detail)
	}
}
