package notify

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"time"

	"studybuddy/internal/scheduler"
)

// Command runs an external notifier (notify-send, osascript wrappers, ...)
// as `<name> <title> <message>` when an interval or the whole run ends.
// Fire-and-forget: failures are logged, never returned.
type Command struct {
	scheduler.NopNotifier

	Name    string
	Timeout time.Duration
	run     func(ctx context.Context, name string, args ...string) error
}

// NewCommand returns a Command notifier, or nil when name is empty.
func NewCommand(name string) *Command {
	if name == "" {
		return nil
	}
	return &Command{Name: name, Timeout: 10 * time.Second, run: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func (c *Command) OnIntervalComplete(completed scheduler.Interval, status scheduler.Status) {
	if status.State == scheduler.StateCompleted {
		return
	}
	msg := fmt.Sprintf("%s is over. Next: %s (%d min).", completed.Label(), status.Current.Label(), status.Current.Minutes)
	c.send("StudyBuddy", msg)
}

func (c *Command) OnAllComplete(status scheduler.Status) {
	c.send("StudyBuddy", fmt.Sprintf("All sessions complete! %d minutes planned.", status.TotalMinutes))
}

// send runs the command in the background.
func (c *Command) send(title, message string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
		defer cancel()
		if err := c.run(ctx, c.Name, title, message); err != nil {
			log.Printf("Warning: notify command %q failed: %v", c.Name, err)
		}
	}()
}
