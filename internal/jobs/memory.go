package jobs

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soundmend/soundmend/internal/processor"
)

// MemoryStore is an in-memory Store for tests and local runs.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*Job
}

// NewMemoryStore creates an empty in-memory job store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[uuid.UUID]*Job),
	}
}

// Create registers a new pending job owned by the caller.
func (s *MemoryStore) Create(ctx context.Context, caller Caller, inputPath string) (*Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now()
	job := &Job{
		ID:        uuid.New(),
		Owner:     caller.ID,
		InputPath: inputPath,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job

	return cloneJob(job), nil
}

// Get returns a single job, enforcing owner visibility.
func (s *MemoryStore) Get(ctx context.Context, caller Caller, id uuid.UUID) (*Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !canAccess(caller, job) {
		return nil, ErrForbidden
	}
	return cloneJob(job), nil
}

// ListByOwner returns the owner's jobs, newest first.
func (s *MemoryStore) ListByOwner(ctx context.Context, caller Caller, owner string) ([]*Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if caller.Role != RoleAdmin && caller.ID != owner {
		return nil, ErrForbidden
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*Job
	for _, job := range s.jobs {
		if job.Owner == owner {
			result = append(result, cloneJob(job))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// UpdateStatus moves a job through its lifecycle.
func (s *MemoryStore) UpdateStatus(ctx context.Context, caller Caller, id uuid.UUID, status Status, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if !canAccess(caller, job) {
		return ErrForbidden
	}
	if !validTransition(job.Status, status) {
		return ErrInvalidTransition
	}

	job.Status = status
	job.UpdatedAt = time.Now()
	if status == StatusFailed {
		job.Error = reason
	}
	return nil
}

// AttachResult records the processed artifact on a job and marks it
// complete.
func (s *MemoryStore) AttachResult(ctx context.Context, caller Caller, id uuid.UUID, result *processor.ProcessingResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if !canAccess(caller, job) {
		return ErrForbidden
	}
	if !validTransition(job.Status, StatusComplete) {
		return ErrInvalidTransition
	}

	job.Status = StatusComplete
	job.OutputPath = result.OutputPath
	job.Capabilities = CapabilitiesFrom(result)
	job.Confidence = result.Confidence
	job.UpdatedAt = time.Now()
	return nil
}

func canAccess(caller Caller, job *Job) bool {
	return caller.Role == RoleAdmin || caller.ID == job.Owner
}

// cloneJob copies a job so callers cannot mutate store state.
func cloneJob(job *Job) *Job {
	c := *job
	c.Capabilities = append([]Capability(nil), job.Capabilities...)
	return &c
}
