package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/dodgestorm/internal/domain/model"
	"github.com/okian/dodgestorm/pkg/metrics"
)

// MemoryStore implements Store with mutex-guarded per-mode slices. It backs
// single-process deployments and tests; durability is out of scope here.
type MemoryStore struct {
	mu      sync.RWMutex
	byMode  map[string][]model.ScoreRecord
	records int
}

// NewMemoryStore creates an empty in-memory score store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byMode: make(map[string][]model.ScoreRecord),
	}
}

// Append persists one accepted record.
func (s *MemoryStore) Append(ctx context.Context, rec model.ScoreRecord) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreAppendLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.byMode[rec.GameMode] = append(s.byMode[rec.GameMode], rec)
	s.records++
	metrics.UpdateRecordsTotal(s.records)
	return nil
}

// TopCandidates returns up to limit records for mode, ordered by score desc.
func (s *MemoryStore) TopCandidates(ctx context.Context, mode string, limit int) ([]model.ScoreRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if limit < 1 {
		return nil, nil
	}

	s.mu.RLock()
	src := s.byMode[mode]
	out := make([]model.ScoreRecord, len(src))
	copy(out, src)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count returns the number of records tracked by the store.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records
}
