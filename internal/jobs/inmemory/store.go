package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/smartspend/smartspend/internal/jobs"
)

// Store is an in-memory StatusStore. Job status is lost on restart, which
// matches the queue: anything in flight at shutdown has to be re-uploaded.
type Store struct {
	jobs map[string]*jobs.CategorizeBatchJob
	mu   sync.RWMutex
}

// NewStore creates a new in-memory job status store.
func NewStore() *Store {
	return &Store{
		jobs: make(map[string]*jobs.CategorizeBatchJob),
	}
}

// SaveJob saves or updates a job.
func (s *Store) SaveJob(_ context.Context, job *jobs.CategorizeBatchJob) error {
	if job.JobID == "" {
		return fmt.Errorf("job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	jobCopy := *job
	s.jobs[job.JobID] = &jobCopy

	return nil
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(_ context.Context, jobID string) (*jobs.CategorizeBatchJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}

	jobCopy := *job
	return &jobCopy, nil
}

var _ jobs.StatusStore = (*Store)(nil)
