package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"studybuddy/internal/config"
	"studybuddy/internal/dashboard"
	"studybuddy/internal/event"
	"studybuddy/internal/ipc"
	"studybuddy/internal/notify"
	"studybuddy/internal/report"
	"studybuddy/internal/scheduler"

	sqlitestore "studybuddy/internal/storage/sqlite"
)

var (
	cfgPath    string
	socketPath string
	dbPath     string
	verbose    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "studybuddy-cli",
	Short: "CLI tool to plan and run study sessions",
	Long: `A command-line interface to the StudyBuddy daemon. It plans a study session,
starts, pauses and stops it over the daemon's Unix socket, and reports on past sessions.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !verbose {
			log.SetOutput(io.Discard)
		}
		loaded, err := config.LoadConfig(cfgPath)
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		cfg = loaded
		if socketPath == "" {
			socketPath = cfg.SocketPath
		}
		if dbPath == "" {
			dbPath = cfg.DatabasePath
		}
		return nil
	},
}

// sendCommand delivers cmd to the daemon and prints its reply.
func sendCommand(cmd ipc.Command) error {
	resp, err := ipc.NewClient(socketPath).Send(cmd)
	if err != nil {
		return fmt.Errorf("%w\nIs the StudyBuddy daemon running?", err)
	}
	if !resp.Success {
		return fmt.Errorf("%s", resp.Message)
	}
	if resp.Message != "" {
		printSuccess(resp.Message)
	}
	return nil
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check if the StudyBuddy daemon is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendCommand(ipc.Command{Name: ipc.CmdPing})
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan a study session of the given length",
	RunE: func(cmd *cobra.Command, args []string) error {
		minutes := planMinutes(cmd, cfg.Plan.DefaultTotalMinutes)
		resp, err := ipc.NewClient(socketPath).Send(ipc.Command{
			Name: ipc.CmdPlan,
			Args: ipc.PlanArgs{TotalMinutes: minutes},
		})
		if err != nil {
			return err
		}
		if !resp.Success {
			return fmt.Errorf("%s", resp.Message)
		}
		var data ipc.StatusData
		if err := ipc.DecodeData(resp.Data, &data); err != nil {
			return err
		}
		printSuccess(resp.Message)
		writePlan(os.Stdout, data.Intervals)
		return nil
	},
}

// planMinutes returns --minutes as given, or fallback when the flag was not
// set. Non-positive values are passed on for the daemon to reject.
func planMinutes(cmd *cobra.Command, fallback int) int {
	if !cmd.Flags().Changed("minutes") {
		return fallback
	}
	minutes, _ := cmd.Flags().GetInt("minutes")
	return minutes
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the planned session, or resume a paused one",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendCommand(ipc.Command{Name: ipc.CmdStart})
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the running session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendCommand(ipc.Command{Name: ipc.CmdPause})
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the session and discard its progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendCommand(ipc.Command{Name: ipc.CmdStop})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := ipc.NewClient(socketPath).Status()
		if err != nil {
			return err
		}
		writeStatus(os.Stdout, data)
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open a live dashboard of the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		refresh, _ := cmd.Flags().GetDuration("refresh")
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
		defer stop()
		return dashboard.Watch(ctx, ipc.NewClient(socketPath), refresh)
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the intervals a session of the given length would have",
	RunE: func(cmd *cobra.Command, args []string) error {
		minutes, _ := cmd.Flags().GetInt("minutes")
		intervals, err := scheduler.BuildIntervals(minutes, cfg.Plan.Rules)
		if err != nil {
			return err
		}
		writePlan(os.Stdout, intervals)
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a session in the foreground without the daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		minutes, _ := cmd.Flags().GetInt("minutes")
		quiet, _ := cmd.Flags().GetBool("quiet")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		done := make(chan struct{})
		console := notify.NewConsole(os.Stdout)
		console.Bell = !quiet
		notifiers := scheduler.Notifiers{
			console,
			scheduler.NotifierFuncs{AllComplete: func(scheduler.Status) { close(done) }},
		}
		if desktop := notify.NewCommand(cfg.NotifyCommand); desktop != nil {
			notifiers = append(notifiers, desktop)
		}

		s := scheduler.New(scheduler.SystemClock, notifiers, cfg.SchedulerConfig())
		plan, err := s.Plan(minutes)
		if err != nil {
			return err
		}
		printInfo(fmt.Sprintf("Planned %d minutes, press Ctrl+C to stop", plan.TotalMinutes))
		writePlan(os.Stdout, plan.Intervals)
		if err := s.Start(); err != nil {
			return err
		}

		select {
		case <-done:
			return nil
		case <-ctx.Done():
			elapsed := s.Status().ElapsedSeconds
			s.Stop()
			fmt.Println()
			printInfo(fmt.Sprintf("Stopped after %s", notify.FormatClock(elapsed)))
			return nil
		}
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize recorded study sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return fmt.Errorf("database file not found at %s, ensure the daemon has run or pass --db", dbPath)
		}

		endTime := time.Now().UTC()
		startTime := endTime.AddDate(0, 0, -days)

		store := sqlitestore.NewSQLiteStore(dbPath)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := store.Init(ctx); err != nil {
			return fmt.Errorf("failed to initialize storage connection: %w", err)
		}
		defer store.Close()

		if runID, _ := cmd.Flags().GetString("run"); runID != "" {
			events, err := store.GetRunEvents(ctx, runID)
			if err != nil {
				return fmt.Errorf("failed to fetch run events: %w", err)
			}
			if len(events) == 0 {
				return fmt.Errorf("no events recorded for run %s", runID)
			}
			writeRunEvents(os.Stdout, runID, events)
			return nil
		}

		events, err := store.GetEvents(ctx, startTime, endTime,
			event.EventTypePlan, event.EventTypeStop,
			event.EventTypeIntervalComplete, event.EventTypeAllComplete)
		if err != nil {
			return fmt.Errorf("failed to fetch events: %w", err)
		}

		writeReport(os.Stdout, report.Summarize(startTime, endTime, events))
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "Daemon socket path (default: from config)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the StudyBuddy database file (default: from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show internal log output")

	planCmd.Flags().IntP("minutes", "m", 0, "Total session length in minutes (default: plan.default_total_minutes)")
	previewCmd.Flags().IntP("minutes", "m", 120, "Total session length in minutes")
	runCmd.Flags().IntP("minutes", "m", 120, "Total session length in minutes")
	runCmd.Flags().BoolP("quiet", "q", false, "Do not ring the terminal bell")
	watchCmd.Flags().Duration("refresh", time.Second, "Dashboard refresh interval")
	reportCmd.Flags().IntP("days", "d", 7, "Number of past days to include in the report")
	reportCmd.Flags().StringP("run", "r", "", "Show the event timeline of one run instead of the summary")

	rootCmd.AddCommand(pingCmd, planCmd, startCmd, pauseCmd, stopCmd, statusCmd,
		watchCmd, previewCmd, runCmd, reportCmd)

	if err := rootCmd.Execute(); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
}
