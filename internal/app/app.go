package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"studybuddy/internal/config"
	"studybuddy/internal/event"
	"studybuddy/internal/ipc"
	"studybuddy/internal/notify"
	"studybuddy/internal/scheduler"
	"studybuddy/internal/snapshot"
	"studybuddy/internal/storage"

	sqlitestore "studybuddy/internal/storage/sqlite"
)

type App struct {
	cfg       *config.Config
	storage   storage.Storage
	scheduler *scheduler.Scheduler
	snapshots *snapshot.Store
	// --- Socket Handling ---
	socketPath string
	listener   *net.UnixListener

	// History events headed for storage
	eventChan chan event.Event

	wg     conc.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewApp(cfg *config.Config) (*App, error) {
	return newApp(cfg, scheduler.SystemClock, afero.NewOsFs())
}

func newApp(cfg *config.Config, clock scheduler.Clock, fs afero.Fs) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		cfg:        cfg,
		eventChan:  make(chan event.Event, 100),
		socketPath: cfg.SocketPath,
		snapshots:  snapshot.NewStore(fs, cfg.SnapshotPath),
		ctx:        ctx,
		cancel:     cancel,
	}
	if a.socketPath == "" {
		a.socketPath = ipc.DefaultSocketPath
	}

	// Initialize Storage
	a.storage = sqlitestore.NewSQLiteStore(cfg.DatabasePath)
	if err := a.storage.Init(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	notifiers := scheduler.Notifiers{&recorder{app: a}}
	if desktop := notify.NewCommand(cfg.NotifyCommand); desktop != nil {
		notifiers = append(notifiers, desktop)
	}
	a.scheduler = scheduler.New(clock, notifiers, cfg.SchedulerConfig())

	if cfg.RestoreOnStart {
		a.restoreSnapshot()
	}

	return a, nil
}

// restoreSnapshot loads the last saved run. A missing or unusable snapshot
// leaves the scheduler idle.
func (a *App) restoreSnapshot() {
	snap, err := a.snapshots.Load()
	if errors.Is(err, snapshot.ErrNoSnapshot) {
		return
	}
	if err != nil {
		log.Printf("Warning: Failed to load snapshot %s: %v", a.snapshots.Path(), err)
		return
	}
	if err := a.scheduler.Restore(snap); err != nil {
		log.Printf("Warning: Ignoring snapshot %s: %v", a.snapshots.Path(), err)
		return
	}
	status := a.scheduler.Status()
	log.Printf("Restored %s run %s at interval %d/%d, %s remaining",
		status.State, status.RunID, status.IntervalIndex+1, status.IntervalCount,
		notify.FormatClock(status.RemainingSeconds))
}

func (a *App) saveSnapshot() {
	if err := a.snapshots.SaveFrom(a.scheduler.Snapshot); err != nil {
		log.Printf("Warning: Failed to save snapshot: %v", err)
	}
}

// clearSnapshot forgets the saved run so a restart comes back idle.
func (a *App) clearSnapshot() {
	if err := a.snapshots.Clear(); err != nil {
		log.Printf("Warning: Failed to clear snapshot: %v", err)
	}
}

// setupSocket checks for existing socket and creates the listener
func (a *App) setupSocket() error {
	if _, err := os.Stat(a.socketPath); err == nil {
		conn, err := net.DialTimeout("unix", a.socketPath, 1*time.Second)
		if err == nil {
			// Connection successful - another instance is likely running
			conn.Close()
			return fmt.Errorf("socket %s already active, another instance might be running", a.socketPath)
		}
		log.Printf("Stale socket file found at %s, removing.", a.socketPath)
		if err := os.Remove(a.socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket file %s: %w", a.socketPath, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("error checking socket file %s: %w", a.socketPath, err)
	}

	addr, err := net.ResolveUnixAddr("unix", a.socketPath)
	if err != nil {
		return fmt.Errorf("failed to resolve unix addr %s: %w", a.socketPath, err)
	}

	listener, err := net.ListenUnix("unix", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on socket %s: %w", a.socketPath, err)
	}

	a.listener = listener
	log.Printf("Listening for commands on %s", a.socketPath)
	return nil
}

// listenForCommands accepts connections and handles them
func (a *App) listenForCommands() {
	defer log.Println("Socket command listener stopped.")

	for {
		conn, err := a.listener.AcceptUnix()
		if err != nil {
			select {
			case <-a.ctx.Done():
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Printf("Failed to accept connection: %v", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}
		a.wg.Go(func() { a.handleConnection(conn) })
	}
}

// handleConnection reads command, processes it, and sends response
func (a *App) handleConnection(conn *net.UnixConn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	var cmd ipc.Command
	if err := decoder.Decode(&cmd); err != nil {
		if err != io.EOF {
			log.Printf("Failed to decode command: %v", err)
		}
		_ = encoder.Encode(ipc.Response{Success: false, Message: "Failed to decode command: " + err.Error()})
		return
	}

	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	log.Printf("Received command: %s", cmd.Name)
	response := a.processCommand(cmd)

	if err := encoder.Encode(response); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// processCommand routes the command to the scheduler
func (a *App) processCommand(cmd ipc.Command) ipc.Response {
	switch cmd.Name {
	case ipc.CmdPing:
		return ipc.Response{Success: true, Message: "pong"}

	case ipc.CmdPlan:
		args := ipc.PlanArgs{TotalMinutes: a.cfg.Plan.DefaultTotalMinutes}
		if err := ipc.DecodeData(cmd.Args, &args); err != nil {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Invalid args for %s: %v", cmd.Name, err)}
		}
		plan, err := a.scheduler.Plan(args.TotalMinutes)
		if err != nil {
			return ipc.Response{Success: false, Message: err.Error()}
		}
		a.record(event.Event{Type: event.EventTypePlan, RunID: plan.RunID, Value: float64(plan.TotalMinutes)})
		a.saveSnapshot()
		return ipc.Response{
			Success: true,
			Message: fmt.Sprintf("Planned %d minutes in %d intervals (%d work)", plan.TotalMinutes, len(plan.Intervals), plan.WorkCount()),
			Data:    ipc.NewStatusData(a.scheduler.Status(), plan),
		}

	case ipc.CmdStart:
		before := a.scheduler.State()
		if err := a.scheduler.Start(); err != nil {
			return ipc.Response{Success: false, Message: err.Error()}
		}
		status := a.scheduler.Status()
		if before == scheduler.StateRunning {
			return ipc.Response{Success: true, Message: "Already running", Data: ipc.NewStatusData(status, scheduler.Plan{})}
		}
		a.record(event.Event{Type: event.EventTypeStart, RunID: status.RunID, Tag: string(before)})
		a.saveSnapshot()
		return ipc.Response{Success: true, Message: fmt.Sprintf("%s started", status.Current.Label()), Data: ipc.NewStatusData(status, scheduler.Plan{})}

	case ipc.CmdPause:
		if !a.scheduler.Pause() {
			return ipc.Response{Success: true, Message: "Nothing running, nothing to pause"}
		}
		status := a.scheduler.Status()
		a.record(event.Event{Type: event.EventTypePause, RunID: status.RunID, Value: float64(status.ElapsedSeconds) / 60})
		a.saveSnapshot()
		return ipc.Response{Success: true, Message: fmt.Sprintf("Paused with %s left", notify.FormatClock(status.RemainingSeconds)), Data: ipc.NewStatusData(status, scheduler.Plan{})}

	case ipc.CmdStop:
		before := a.scheduler.Status()
		if !a.scheduler.Stop() {
			return ipc.Response{Success: true, Message: "Already stopped"}
		}
		a.record(stopEvent(before))
		a.clearSnapshot()
		return ipc.Response{Success: true, Message: "Stopped, plan a new session to continue"}

	case ipc.CmdStatus:
		return ipc.Response{Success: true, Data: ipc.NewStatusData(a.scheduler.Status(), a.scheduler.CurrentPlan())}

	default:
		return ipc.Response{Success: false, Message: fmt.Sprintf("Unknown command: %s", cmd.Name)}
	}
}

// stopEvent describes the interval a stop cut short: Tag is its kind and
// Value the minutes already spent in it.
func stopEvent(before scheduler.Status) event.Event {
	e := event.Event{Type: event.EventTypeStop, RunID: before.RunID}
	if before.State == scheduler.StateRunning || before.State == scheduler.StatePaused {
		e.Tag = string(before.Current.Kind)
		e.Value = float64(before.Current.Seconds()-before.RemainingSeconds) / 60
	}
	return e
}

// record queues a history event for the event processor.
func (a *App) record(e event.Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	select {
	case a.eventChan <- e:
	case <-a.ctx.Done():
	case <-time.After(50 * time.Millisecond):
		log.Printf("Warning: Timeout queueing event (Type: %s)", e.Type)
	}
}

func (a *App) Run() (err error) {
	defer func() {
		err = multierr.Append(err, a.cleanup())
	}()

	log.Println("Starting StudyBuddy Application (Daemon Mode)...")
	log.Printf("Config: %+v", a.cfg)

	if err := a.setupSocket(); err != nil {
		return fmt.Errorf("failed to set up socket: %w", err)
	}

	a.handleSignals()

	a.wg.Go(a.processEvents)
	a.wg.Go(a.listenForCommands)

	_, saveErr := a.storage.SaveEvent(a.ctx, event.Event{Timestamp: time.Now().UTC(), Type: event.EventTypeAppStart})
	if saveErr != nil {
		log.Printf("Warning: Failed to save AppStart event: %v", saveErr)
	}

	log.Println("StudyBuddy daemon running. Send commands via studybuddy-cli or socket.")
	<-a.ctx.Done()

	log.Println("Shutdown signal received, waiting for components...")

	// Pausing parks the countdown so no more ticks arrive during shutdown.
	if a.scheduler.Pause() {
		log.Println("Paused running session for shutdown.")
	}

	if a.listener != nil {
		log.Println("Closing command socket listener...")
		if err := a.listener.Close(); err != nil {
			log.Printf("Error closing socket listener: %v", err)
		}
	}

	waitChan := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(waitChan)
	}()

	select {
	case <-waitChan:
		log.Println("All application goroutines finished.")
	case <-time.After(5 * time.Second):
		log.Println("Warning: Timeout waiting for application goroutines to stop.")
	}

	log.Println("StudyBuddy Application finished.")
	return nil
}

// Shutdown stops a running App, as a signal would.
func (a *App) Shutdown() {
	a.cancel()
}

// processEvents writes queued history events to storage.
func (a *App) processEvents() {
	defer log.Println("Event processor stopped.")

	for {
		select {
		case <-a.ctx.Done():
			a.drainEvents()
			return
		case e := <-a.eventChan:
			a.saveEvent(a.ctx, e)
		}
	}
}

// drainEvents saves whatever is still queued once shutdown has begun.
func (a *App) drainEvents() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		select {
		case e := <-a.eventChan:
			a.saveEvent(ctx, e)
		default:
			return
		}
	}
}

func (a *App) saveEvent(ctx context.Context, e event.Event) {
	e.Timestamp = e.Timestamp.UTC()
	if _, err := a.storage.SaveEvent(ctx, e); err != nil {
		log.Printf("Error saving event (Type: %s, Tag: %s): %v", e.Type, e.Tag, err)
		return
	}
	log.Printf("Event saved: Type=%s, Run=%s, Tag=%s, Value=%.1f", e.Type, e.RunID, e.Tag, e.Value)
}

func (a *App) handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Printf("Received signal: %v. Initiating shutdown...", sig)
			a.cancel()
		case <-a.ctx.Done():
		}
		signal.Stop(sigChan)
	}()
}

// cleanup records the stop, persists the run and releases resources. Every
// step runs even when an earlier one fails.
func (a *App) cleanup() error {
	log.Println("Running cleanup...")
	var err error

	// Without a listener this instance never ran; the history and snapshot
	// belong to whichever daemon owns the socket.
	if a.listener != nil {
		saveCtx, saveCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer saveCancel()
		if _, saveErr := a.storage.SaveEvent(saveCtx, event.Event{Timestamp: time.Now().UTC(), Type: event.EventTypeAppStop}); saveErr != nil {
			log.Printf("Warning: Failed to save AppStop event: %v", saveErr)
		}

		if snapErr := a.snapshots.SaveFrom(a.scheduler.Snapshot); snapErr != nil {
			err = multierr.Append(err, fmt.Errorf("save snapshot: %w", snapErr))
		}
	}

	if a.storage != nil {
		if closeErr := a.storage.Close(); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("close storage: %w", closeErr))
		}
	}

	if _, statErr := os.Stat(a.socketPath); statErr == nil && a.listener != nil {
		log.Printf("Removing socket file: %s", a.socketPath)
		if rmErr := os.Remove(a.socketPath); rmErr != nil && !os.IsNotExist(rmErr) {
			err = multierr.Append(err, fmt.Errorf("remove socket file: %w", rmErr))
		}
	}

	for _, e := range multierr.Errors(err) {
		log.Printf("Cleanup error: %v", e)
	}
	log.Println("Cleanup finished.")
	return err
}
