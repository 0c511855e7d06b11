package scheduler

// Notifier receives the scheduler's side effects. The scheduler never renders
// anything itself; sounds, labels and history all hang off these callbacks.
// Callbacks run after the scheduler has released its lock, so they may call
// back into the scheduler.
type Notifier interface {
	OnStart(status Status)
	OnTick(status Status)
	OnIntervalComplete(completed Interval, status Status)
	OnModeChanged(isWork bool, status Status)
	OnAllComplete(status Status)
}

// NopNotifier ignores every callback.
type NopNotifier struct{}

func (NopNotifier) OnStart(Status)                      {}
func (NopNotifier) OnTick(Status)                       {}
func (NopNotifier) OnIntervalComplete(Interval, Status) {}
func (NopNotifier) OnModeChanged(bool, Status)          {}
func (NopNotifier) OnAllComplete(Status)                {}

// NotifierFuncs adapts optional functions to a Notifier. Nil fields are skipped.
type NotifierFuncs struct {
	Start            func(Status)
	Tick             func(Status)
	IntervalComplete func(Interval, Status)
	ModeChanged      func(bool, Status)
	AllComplete      func(Status)
}

func (f NotifierFuncs) OnStart(status Status) {
	if f.Start != nil {
		f.Start(status)
	}
}

func (f NotifierFuncs) OnTick(status Status) {
	if f.Tick != nil {
		f.Tick(status)
	}
}

func (f NotifierFuncs) OnIntervalComplete(completed Interval, status Status) {
	if f.IntervalComplete != nil {
		f.IntervalComplete(completed, status)
	}
}

func (f NotifierFuncs) OnModeChanged(isWork bool, status Status) {
	if f.ModeChanged != nil {
		f.ModeChanged(isWork, status)
	}
}

func (f NotifierFuncs) OnAllComplete(status Status) {
	if f.AllComplete != nil {
		f.AllComplete(status)
	}
}

// Notifiers fans every callback out in order.
type Notifiers []Notifier

func (ns Notifiers) OnStart(status Status) {
	for _, n := range ns {
		n.OnStart(status)
	}
}

func (ns Notifiers) OnTick(status Status) {
	for _, n := range ns {
		n.OnTick(status)
	}
}

func (ns Notifiers) OnIntervalComplete(completed Interval, status Status) {
	for _, n := range ns {
		n.OnIntervalComplete(completed, status)
	}
}

func (ns Notifiers) OnModeChanged(isWork bool, status Status) {
	for _, n := range ns {
		n.OnModeChanged(isWork, status)
	}
}

func (ns Notifiers) OnAllComplete(status Status) {
	for _, n := range ns {
		n.OnAllComplete(status)
	}
}
