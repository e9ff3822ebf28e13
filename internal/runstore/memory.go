package runstore

import (
	"context"
	"sync"

	"github.com/fieldserve/jobrunner/internal/jobs"
)

// MemoryStore is a volatile in-process RunStore. It provides no
// cross-process and no cross-restart guarantee, so it is unsuitable for
// any deployment with more than one executor or with restarts. It
// exists for tests, not as a production mode.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]jobs.JobResult
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]jobs.JobResult)}
}

var _ RunStore = (*MemoryStore)(nil)

func (s *MemoryStore) HasRunBefore(_ context.Context, jobID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.runs[jobID]
	return ok, nil
}

func (s *MemoryStore) MarkRun(_ context.Context, jobID, _ string, result jobs.JobResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[jobID]; !ok {
		s.runs[jobID] = result
	}
	return nil
}
