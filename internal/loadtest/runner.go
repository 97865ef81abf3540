package loadtest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/okian/dodgestorm/pkg/logger"
)

// Timing constants.
const (
	settleDelay = 2 * time.Second
)

// Run executes the complete leaderboard load test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting leaderboard load test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("players", config.NumPlayers),
		logger.Int("runsPerPlayer", config.RunsPerPlayer),
		logger.Int("implausiblePct", config.ImplausiblePct),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Int("topN", config.TopN))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Register player accounts
	players := generatePlayers(config)
	if err := registerPlayers(ctx, config, players, stats); err != nil {
		return fmt.Errorf("player registration failed: %w", err)
	}

	// Step 3: Optionally follow the live feed
	var w *watcher
	if config.Watch {
		w = startWatcher(ctx, config)
	}

	// Step 4: Submit scores concurrently
	subs := generateSubmissions(config, players)
	if err := submitScores(ctx, config, subs, stats); err != nil {
		return fmt.Errorf("score submission failed: %w", err)
	}

	// Step 5: Let broadcasts settle, then read the feed counter
	if w != nil {
		time.Sleep(settleDelay)
		stats.UpdatesReceived = w.Updates()
	}

	// Step 6: Get leaderboard
	leaderboard, err := getLeaderboard(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("leaderboard retrieval failed: %w", err)
	}

	// Step 7: Verify results
	if err := verifyResults(config, subs, leaderboard, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "load test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Any 200 counts as healthy (the endpoint serves Prometheus metrics)
	if resp.StatusCode != 200 {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var acceptRate, subsPerSecond float64

	if stats.SubmissionsSent > 0 {
		acceptRate = float64(stats.SubmissionsAccepted) / float64(stats.SubmissionsSent) * 100
	}

	if stats.Duration > 0 {
		subsPerSecond = float64(stats.SubmissionsSent) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("playersRegistered", stats.PlayersRegistered),
		logger.Int("submissionsSent", stats.SubmissionsSent),
		logger.Int("submissionsAccepted", stats.SubmissionsAccepted),
		logger.Int("submissionsRejected", stats.SubmissionsRejected),
		logger.Int("submissionsFailed", stats.SubmissionsFailed),
		logger.Int("updatesReceived", stats.UpdatesReceived),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("submissionsPerSecond", subsPerSecond))
}

// verifyResults checks leaderboard consistency against the submission plan.
func verifyResults(config *Config, subs []Submission, leaderboard []Entry, stats *Stats) error {
	log.Println("verifying results...")

	// Every deliberately implausible submission must have been rejected.
	implausible := 0
	for _, sub := range subs {
		if sub.Implausible {
			implausible++
		}
	}
	if stats.SubmissionsRejected < implausible {
		log.Printf("warning: %d implausible submissions but only %d rejections", implausible, stats.SubmissionsRejected)
	} else {
		log.Printf("all %d implausible submissions rejected", implausible)
	}

	// The leaderboard must be sorted and free of duplicate users.
	seen := make(map[string]bool, len(leaderboard))
	for i, entry := range leaderboard {
		if i > 0 && entry.Score > leaderboard[i-1].Score {
			return fmt.Errorf("leaderboard not sorted: entry %d outranks entry %d", i, i-1)
		}
		if seen[entry.UserID] {
			return fmt.Errorf("duplicate user %s on leaderboard", entry.UserID)
		}
		seen[entry.UserID] = true
	}

	displayTopPlayers(leaderboard, config.Verbose)

	log.Println("result verification completed")
	return nil
}

// displayTopPlayers shows the head of the final leaderboard.
func displayTopPlayers(leaderboard []Entry, verbose bool) {
	topN := 10
	if len(leaderboard) < topN {
		topN = len(leaderboard)
	}

	log.Printf("top %d players:", topN)
	for i := 0; i < topN; i++ {
		entry := leaderboard[i]
		log.Printf("   %d. %s - Score: %d", i+1, entry.Username, entry.Score)
	}

	if verbose && len(leaderboard) > 0 {
		sum := int64(0)
		for _, entry := range leaderboard {
			sum += entry.Score
		}
		log.Printf(`score statistics:
   Average: %.1f
   Maximum: %d
   Minimum: %d
`, float64(sum)/float64(len(leaderboard)), leaderboard[0].Score, leaderboard[len(leaderboard)-1].Score)
	}
}
