package loadtest

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/okian/dodgestorm/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		logFile = "loadtest_" + timestampSuffix() + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the load test tool.
func ShowHelp() {
	os.Stdout.WriteString(`DodgeStorm Leaderboard Load Tool
================================

A concurrent tool for exercising the leaderboard service end to end:
account registration, score submission, broadcast delivery, and ranking.

Usage:
  go run cmd/loadgen/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -players int
        Number of player accounts to register (default 100)
  -runs int
        Number of score submissions per player (default 10)
  -implausible int
        Percentage of deliberately implausible submissions (default 5)
  -top int
        Number of top entries to fetch from leaderboard (default 50)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Log file for test output (default: loadtest_TIMESTAMP.log)
  -watch
        Follow the live WebSocket feed during the run
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run cmd/loadgen/main.go

  # Heavier run with broadcast verification
  go run cmd/loadgen/main.go -players 500 -runs 20 -watch

  # All submissions plausible
  go run cmd/loadgen/main.go -implausible 0
`)
}
