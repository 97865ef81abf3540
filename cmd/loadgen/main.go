package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/dodgestorm/internal/loadtest"
)

// Default configuration constants.
const (
	defaultPlayers     = 100
	defaultRuns        = 10
	defaultImplausible = 5
	defaultTopN        = 50
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:8080", "Base URL of the service")
		players     = flag.Int("players", defaultPlayers, "Number of player accounts to register")
		runs        = flag.Int("runs", defaultRuns, "Number of score submissions per player")
		implausible = flag.Int("implausible", defaultImplausible, "Percentage of deliberately implausible submissions")
		topN        = flag.Int("top", defaultTopN, "Number of top entries to fetch from leaderboard")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile     = flag.String("log", "", "Log file for test output (default: loadtest_TIMESTAMP.log)")
		watch       = flag.Bool("watch", false, "Follow the live WebSocket feed during the run")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return
	}

	// Setup logging
	if err := loadtest.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create test configuration
	config := &loadtest.Config{
		BaseURL:        *baseURL,
		NumPlayers:     *players,
		RunsPerPlayer:  *runs,
		ImplausiblePct: *implausible,
		TopN:           *topN,
		Workers:        *workers,
		Timeout:        *timeout,
		LogFile:        *logFile,
		Watch:          *watch,
		Verbose:        *verbose,
	}

	// Run the test
	if err := loadtest.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Load test failed: " + err.Error() + "\n")
		return
	}
}
