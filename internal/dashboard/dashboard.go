// Package dashboard is the live terminal view behind `studybuddy-cli watch`.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"studybuddy/internal/ipc"
	"studybuddy/internal/notify"
	"studybuddy/internal/scheduler"
)

// StatusSource is what the dashboard polls and controls.
type StatusSource interface {
	Status() (ipc.StatusData, error)
	Send(cmd ipc.Command) (ipc.Response, error)
}

const barWidth = 40

// Render draws one frame of the dashboard using tview color tags.
func Render(data ipc.StatusData) string {
	var b strings.Builder

	color := "white"
	switch {
	case data.State == scheduler.StateCompleted:
		color = "fuchsia"
	case data.State == scheduler.StatePaused:
		color = "yellow"
	case data.State == scheduler.StateRunning && data.IsWork():
		color = "green"
	case data.State == scheduler.StateRunning:
		color = "aqua"
	}

	fmt.Fprintf(&b, "[%s::b]%s[-::-]\n\n", color, data.Label)

	switch data.State {
	case scheduler.StateIdle:
		b.WriteString("No session planned. Run `studybuddy-cli plan --minutes N`.\n")
		return b.String()
	case scheduler.StateCompleted:
		fmt.Fprintf(&b, "All %d intervals done, %d minutes.\n", data.IntervalCount, data.TotalMinutes)
	default:
		fmt.Fprintf(&b, "[::b]%s[::-] left in %s (%d/%d)\n",
			notify.FormatClock(data.RemainingSeconds), data.Current.Label(),
			data.IntervalIndex+1, data.IntervalCount)
	}

	fmt.Fprintf(&b, "\n%s %s\n", notify.ProgressBar(data.Progress, barWidth), notify.FormatPercent(data.Progress))
	fmt.Fprintf(&b, "%s of %s\n\n",
		notify.FormatClock(data.ElapsedSeconds), notify.FormatClock(data.TotalMinutes*60))

	for i, iv := range data.Intervals {
		marker := " "
		switch {
		case i < data.IntervalIndex || data.State == scheduler.StateCompleted:
			marker = "x"
		case i == data.IntervalIndex:
			marker = ">"
		}
		fmt.Fprintf(&b, " %s %-12s %3d min\n", marker, iv.Label(), iv.Minutes)
	}
	return b.String()
}

// Watch runs the dashboard until the user quits or ctx is cancelled.
// Keys: s starts or resumes, p pauses, q quits.
func Watch(ctx context.Context, source StatusSource, refresh time.Duration) error {
	if refresh <= 0 {
		refresh = time.Second
	}

	app := tview.NewApplication()
	view := tview.NewTextView().SetDynamicColors(true)
	view.SetBorder(true).SetTitle(" StudyBuddy ")
	footer := tview.NewTextView().SetDynamicColors(true).
		SetText("[gray]s[-] start/resume  [gray]p[-] pause  [gray]q[-] quit")

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(view, 0, 1, false).
		AddItem(footer, 1, 0, false)

	refreshView := func() {
		data, err := source.Status()
		if err != nil {
			view.SetText(fmt.Sprintf("[red]Cannot reach daemon:[-] %v", err))
			return
		}
		view.SetText(Render(data))
	}

	send := func(name string) {
		if resp, err := source.Send(ipc.Command{Name: name}); err != nil {
			footer.SetText(fmt.Sprintf("[red]%v", err))
		} else if !resp.Success {
			footer.SetText("[red]" + tview.Escape(resp.Message))
		} else {
			footer.SetText(tview.Escape(resp.Message))
		}
		refreshView()
	}

	app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			app.Stop()
			return nil
		}
		switch ev.Rune() {
		case 'q':
			app.Stop()
			return nil
		case 's':
			send(ipc.CmdStart)
			return nil
		case 'p':
			send(ipc.CmdPause)
			return nil
		}
		return ev
	})

	refreshView()

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(refresh)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				app.QueueUpdateDraw(refreshView)
			case <-ctx.Done():
				app.Stop()
				return
			case <-done:
				return
			}
		}
	}()

	return app.SetRoot(layout, true).Run()
}
