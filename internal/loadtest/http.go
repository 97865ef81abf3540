package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body and optional bearer token
func (c *HTTPClient) Post(ctx context.Context, url, token string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// registerPlayers creates every account concurrently and records the tokens.
func registerPlayers(ctx context.Context, config *Config, players []*Player, stats *Stats) error {
	log.Printf("registering %d players with %d workers...", len(players), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/auth/register"

	var registered int64
	playerChan := make(chan *Player, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range playerChan {
				select {
				case <-ctx.Done():
					return
				default:
					if err := registerSinglePlayer(ctx, client, url, p); err != nil {
						log.Printf("register %s failed: %v", p.Username, err)
						continue
					}
					atomic.AddInt64(&registered, 1)
				}
			}
		}()
	}

	go func() {
		defer close(playerChan)
		for _, p := range players {
			select {
			case <-ctx.Done():
				return
			case playerChan <- p:
			}
		}
	}()

	wg.Wait()

	stats.PlayersRegistered = int(atomic.LoadInt64(&registered))
	if stats.PlayersRegistered == 0 {
		return fmt.Errorf("no players registered")
	}
	log.Printf("registered %d/%d players", stats.PlayersRegistered, len(players))
	return nil
}

// registerSinglePlayer registers one account and stores its token
func registerSinglePlayer(ctx context.Context, client *HTTPClient, url string, p *Player) error {
	resp, err := client.Post(ctx, url, "", map[string]string{
		"username": p.Username,
		"password": p.Password,
	})
	if err != nil {
		return err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var ack struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(body, &ack); err != nil {
		return fmt.Errorf("failed to parse register response: %w", err)
	}
	if ack.Token == "" {
		return fmt.Errorf("empty token in register response")
	}
	p.Token = ack.Token
	p.UserID = ack.UserID
	return nil
}

// submitScores pushes all submissions concurrently using a worker pool
func submitScores(ctx context.Context, config *Config, subs []Submission, stats *Stats) error {
	log.Printf("submitting %d scores with %d workers...", len(subs), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/leaderboard/submit"

	var (
		accepted  int64
		rejected  int64
		failed    int64
		submitted int64
	)

	var lastReport time.Time
	reportInterval := 1 * time.Second

	subChan := make(chan Submission, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range subChan {
				select {
				case <-ctx.Done():
					return
				default:
					result := submitSingleScore(ctx, client, url, sub)

					atomic.AddInt64(&submitted, 1)
					switch result {
					case "accepted":
						atomic.AddInt64(&accepted, 1)
					case "rejected":
						atomic.AddInt64(&rejected, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}

					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&submitted)
						acc := atomic.LoadInt64(&accepted)
						rej := atomic.LoadInt64(&rejected)
						fail := atomic.LoadInt64(&failed)

						if config.Verbose {
							log.Printf("progress: %d/%d submitted (accepted: %d, rejected: %d, failed: %d)",
								total, len(subs), acc, rej, fail)
						} else {
							fmt.Printf("\rsubmitted: %d/%d (accepted: %d, rejected: %d, failed: %d)",
								total, len(subs), acc, rej, fail)
						}
					}
				}
			}
		}()
	}

	go func() {
		defer close(subChan)
		for _, sub := range subs {
			select {
			case <-ctx.Done():
				return
			case subChan <- sub:
			}
		}
	}()

	wg.Wait()

	if !config.Verbose {
		fmt.Println()
	}

	stats.SubmissionsSent = int(atomic.LoadInt64(&submitted))
	stats.SubmissionsAccepted = int(atomic.LoadInt64(&accepted))
	stats.SubmissionsRejected = int(atomic.LoadInt64(&rejected))
	stats.SubmissionsFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`score submission completed:
   Accepted: %d
   Rejected: %d
   Failed: %d
`, stats.SubmissionsAccepted, stats.SubmissionsRejected, stats.SubmissionsFailed)

	return nil
}

// submitSingleScore submits one score and classifies the outcome
func submitSingleScore(ctx context.Context, client *HTTPClient, url string, sub Submission) string {
	if sub.Player.Token == "" {
		// Registration failed earlier; nothing to submit with.
		return "failed"
	}
	resp, err := client.Post(ctx, url, sub.Player.Token, map[string]interface{}{
		"score":           sub.Score,
		"durationSeconds": sub.DurationSeconds,
	})
	if err != nil {
		return "failed"
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return "failed"
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return "accepted"
	case http.StatusBadRequest:
		var e struct {
			Code string `json:"code"`
		}
		if err := json.Unmarshal(body, &e); err == nil && e.Code == "rejected" {
			return "rejected"
		}
		return "failed"
	default:
		return "failed"
	}
}

// getLeaderboard fetches the current top-N view
func getLeaderboard(ctx context.Context, config *Config, stats *Stats) ([]Entry, error) {
	client := newHTTPClient(config.Timeout)
	url := fmt.Sprintf("%s/leaderboard/top?limit=%d", config.BaseURL, config.TopN)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("leaderboard request failed with status %d", resp.StatusCode)
	}

	var entries []Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse leaderboard: %w", err)
	}

	stats.LeaderboardEntries = len(entries)
	return entries, nil
}
