// Package notify turns scheduler callbacks into something a person notices:
// colored terminal lines with a bell, or a desktop notification command.
package notify

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"studybuddy/internal/scheduler"
)

var (
	workPrefix  = color.New(color.FgGreen).SprintFunc()
	breakPrefix = color.New(color.FgCyan).SprintFunc()
	donePrefix  = color.New(color.FgMagenta, color.Bold).SprintFunc()
	infoPrefix  = color.New(color.FgBlue).SprintFunc()
)

const bell = "\a"

// Console writes scheduler events to a terminal. Tick lines are only
// written every TickEvery seconds of elapsed time to keep output readable.
type Console struct {
	mu        sync.Mutex
	out       io.Writer
	TickEvery int
	Bell      bool
}

// NewConsole creates a Console that rings the bell on interval changes.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out, TickEvery: 60, Bell: true}
}

func (c *Console) OnStart(status scheduler.Status) {
	c.printf("%s %s started, %s left in this interval (%d/%d)\n",
		infoPrefix("[START]"), status.Current.Label(),
		FormatClock(status.RemainingSeconds), status.IntervalIndex+1, status.IntervalCount)
}

func (c *Console) OnTick(status scheduler.Status) {
	if c.TickEvery <= 0 || status.ElapsedSeconds%c.TickEvery != 0 {
		return
	}
	c.printf("%s %s %s %s\n",
		modePrefix(status.Current), FormatClock(status.RemainingSeconds),
		ProgressBar(status.Progress, 20), FormatPercent(status.Progress))
}

func (c *Console) OnIntervalComplete(completed scheduler.Interval, _ scheduler.Status) {
	msg := "Break complete! Time to work!"
	if completed.IsWork() {
		msg = "Work session complete! Take a break!"
	}
	c.printf("%s%s %s\n", c.bell(), modePrefix(completed), msg)
}

func (c *Console) OnModeChanged(_ bool, status scheduler.Status) {
	c.printf("%s %s for %s (%d/%d)\n",
		modePrefix(status.Current), status.Current.Label(),
		FormatClock(status.RemainingSeconds), status.IntervalIndex+1, status.IntervalCount)
}

func (c *Console) OnAllComplete(status scheduler.Status) {
	c.printf("%s%s All %d intervals done, %d minutes studied.\n",
		c.bell(), donePrefix("[DONE]"), status.IntervalCount, status.TotalMinutes)
}

func (c *Console) bell() string {
	if c.Bell {
		return bell
	}
	return ""
}

func (c *Console) printf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func modePrefix(iv scheduler.Interval) string {
	if iv.IsWork() {
		return workPrefix("[WORK]")
	}
	return breakPrefix("[BREAK]")
}

// FormatClock renders seconds as MM:SS, or H:MM:SS past an hour.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// FormatPercent renders a fraction as a whole percentage.
func FormatPercent(fraction float64) string {
	return fmt.Sprintf("%d%%", int(clamp(fraction)*100))
}

// ProgressBar renders fraction as a fixed-width bar.
func ProgressBar(fraction float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(clamp(fraction) * float64(width))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

func clamp(fraction float64) float64 {
	if fraction < 0 {
		return 0
	}
	if fraction > 1 {
		return 1
	}
	return fraction
}
