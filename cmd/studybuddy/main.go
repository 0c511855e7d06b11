package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/sevlyar/go-daemon"

	"studybuddy/internal/app"
	"studybuddy/internal/config"
)

var (
	configPath = flag.String("c", "", "Path to configuration file (e.g., config.yaml). Defaults to ./config.yaml, ~/.config/studybuddy/config.yaml, /etc/studybuddy/config.yaml")
	logPath    = flag.String("log", "", "Path to log file (optional, defaults to stderr)")
	daemonize  = flag.Bool("d", false, "Run in the background, writing a pid file next to the log")
	pidPath    = flag.String("pid", "studybuddy.pid", "Pid file used with -d")
)

// setupLogging configures the log output destination.
func setupLogging(logFilePath string) (*os.File, error) {
	if logFilePath == "" {
		log.SetOutput(os.Stderr)
		log.Println("Logging to stderr")
		return nil, nil
	}

	dir := filepath.Dir(logFilePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	file, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", logFilePath, err)
	}

	log.SetOutput(file)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Printf("Logging to file: %s", logFilePath)
	return file, nil
}

// startDaemon forks the process into the background. It returns true in the
// parent, which should exit, and a release func in the child.
func startDaemon() (bool, func(), error) {
	logFile := *logPath
	if logFile == "" {
		logFile = "studybuddy.log"
	}
	cwd, err := os.Getwd()
	if err != nil {
		return false, nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	dctx := &daemon.Context{
		PidFileName: *pidPath,
		PidFilePerm: 0644,
		LogFileName: logFile,
		LogFilePerm: 0640,
		WorkDir:     cwd,
		Umask:       027,
	}

	child, err := dctx.Reborn()
	if err != nil {
		return false, nil, fmt.Errorf("failed to daemonize: %w", err)
	}
	if child != nil {
		fmt.Printf("StudyBuddy daemon started with pid %d\n", child.Pid)
		return true, nil, nil
	}
	return false, func() {
		if err := dctx.Release(); err != nil {
			log.Printf("Warning: Failed to release pid file: %v", err)
		}
	}, nil
}

func main() {
	flag.Parse()

	if *daemonize {
		parent, release, err := startDaemon()
		if err != nil {
			log.Fatalf("FATAL: %v", err)
		}
		if parent {
			return
		}
		defer release()
		// The daemon context already points stdout and stderr at the log file.
		*logPath = ""
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	}

	logFile, logErr := setupLogging(*logPath)
	if logErr != nil {
		fmt.Fprintf(os.Stderr, "Error setting up file logging: %v. Logging to stderr instead.\n", logErr)
		log.SetOutput(os.Stderr)
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	application, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to create application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("FATAL: Application exited with error: %v", err)
	}

	log.Println("StudyBuddy finished successfully.")
}
