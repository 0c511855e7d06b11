package ipc

import "studybuddy/internal/scheduler"

const DefaultSocketPath = "/tmp/studybuddy.sock"

// Command represents a command sent over the socket
type Command struct {
	Name string      `json:"name"`
	Args interface{} `json:"args,omitempty"`
}

// Response represents a response sent back over the socket
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// --- Command Argument Structs ---

type PlanArgs struct {
	TotalMinutes int `json:"total_minutes"`
}

// Start, pause, stop and status take no arguments.

// --- Command Names (Constants) ---

const (
	CmdPlan   = "plan"
	CmdStart  = "start"
	CmdPause  = "pause"
	CmdStop   = "stop"
	CmdStatus = "status"
	CmdPing   = "ping"
)

// --- Response Data ---

// StatusData is the status payload; it carries the plan when asked for one.
type StatusData struct {
	scheduler.Status
	Label     string               `json:"label"`
	Intervals []scheduler.Interval `json:"intervals,omitempty"`
}

// NewStatusData builds the status payload for the wire.
func NewStatusData(status scheduler.Status, plan scheduler.Plan) StatusData {
	label := "Ready"
	switch status.State {
	case scheduler.StateRunning:
		label = status.Current.Label()
	case scheduler.StatePaused:
		label = "Paused"
	case scheduler.StateCompleted:
		label = "Complete!"
	}
	return StatusData{
		Status:    status,
		Label:     label,
		Intervals: plan.Intervals,
	}
}
