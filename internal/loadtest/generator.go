package loadtest

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	runProfileDivisor  = 6
)

// Constants for run duration ranges, in seconds.
const (
	quickRunMin    = 10.0
	quickRunRange  = 20.0
	normalRunMin   = 30.0
	normalRunRange = 90.0
	longRunMin     = 120.0
	longRunRange   = 180.0
)

// Constants for run profile cases.
const (
	caseQuickRun   = 0
	caseNormalRun  = 1
	caseLongRun    = 2
	caseCasualRun  = 3
	caseSkilledRun = 4
	caseEliteRun   = 5
)

// Scoring-rate assumptions mirroring the server defaults. Plausible
// submissions stay under capRate, implausible ones go well over.
const (
	capRate          = 50.0
	casualRateMax    = 20.0
	skilledRateMax   = 40.0
	eliteRateMax     = 49.0
	implausibleRate  = 200.0
	percentDivisor   = 100
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// generatePlayers creates credentials for the requested number of accounts.
// Usernames carry a random suffix so repeated runs against one deployment
// never collide.
func generatePlayers(config *Config) []*Player {
	players := make([]*Player, config.NumPlayers)
	runID := uuid.New().String()[:8]
	for i := range players {
		players[i] = &Player{
			Username: "load_" + runID + "_" + strconv.Itoa(i),
			Password: uuid.New().String(),
		}
	}
	return players
}

// generateSubmissions builds the full submission plan: RunsPerPlayer scores
// per player, with roughly ImplausiblePct percent pushed over the rate cap.
func generateSubmissions(config *Config, players []*Player) []Submission {
	subs := make([]Submission, 0, len(players)*config.RunsPerPlayer)
	for _, p := range players {
		for i := 0; i < config.RunsPerPlayer; i++ {
			sub := generateSingleSubmission(p)
			if roll, _ := rand.Int(rand.Reader, big.NewInt(percentDivisor)); roll.Int64() < int64(config.ImplausiblePct) {
				sub.Score = int64(sub.DurationSeconds * implausibleRate)
				sub.Implausible = true
			}
			subs = append(subs, sub)
		}
	}
	return subs
}

// generateSingleSubmission creates one plausible run for the given player.
func generateSingleSubmission(p *Player) Submission {
	duration, rate := generateRunProfile()
	return Submission{
		Player:          p,
		Score:           int64(duration * rate),
		DurationSeconds: duration,
	}
}

// generateRunProfile returns a duration and score rate with varied
// distribution, so leaderboards built from the output look organic.
func generateRunProfile() (duration, rate float64) {
	profile, _ := rand.Int(rand.Reader, big.NewInt(runProfileDivisor))
	switch profile.Int64() {
	case caseQuickRun:
		return quickRunMin + getRandomFloat()*quickRunRange, casualRateMax * getRandomFloat()
	case caseNormalRun:
		return normalRunMin + getRandomFloat()*normalRunRange, casualRateMax + getRandomFloat()*(skilledRateMax-casualRateMax)
	case caseLongRun:
		return longRunMin + getRandomFloat()*longRunRange, casualRateMax + getRandomFloat()*(skilledRateMax-casualRateMax)
	case caseCasualRun:
		return normalRunMin + getRandomFloat()*normalRunRange, casualRateMax * getRandomFloat()
	case caseSkilledRun:
		return normalRunMin + getRandomFloat()*normalRunRange, skilledRateMax + getRandomFloat()*(eliteRateMax-skilledRateMax)
	case caseEliteRun:
		return longRunMin + getRandomFloat()*longRunRange, skilledRateMax + getRandomFloat()*(eliteRateMax-skilledRateMax)
	default:
		return normalRunMin + getRandomFloat()*normalRunRange, casualRateMax * getRandomFloat()
	}
}

// timestampSuffix returns a compact timestamp for default filenames.
func timestampSuffix() string {
	return time.Now().Format("20060102_150405")
}
