package repository

import (
	"context"
	"fmt"
	"sync"

	"kukkee/internal/domain"
)

// MemoryPollRepository keeps polls in process memory. It honours the same
// version contract as the PostgreSQL store and backs local runs without
// DATABASE_URL as well as tests.
type MemoryPollRepository struct {
	mu    sync.RWMutex
	polls map[string]domain.Poll
}

func NewMemoryPollRepository(seed ...domain.Poll) *MemoryPollRepository {
	polls := make(map[string]domain.Poll, len(seed))
	for _, poll := range seed {
		if poll.Version == 0 {
			poll.Version = 1
		}
		polls[poll.ID] = poll.Clone()
	}
	return &MemoryPollRepository{polls: polls}
}

func (r *MemoryPollRepository) FindByID(_ context.Context, id string) (*domain.Poll, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	poll, ok := r.polls[id]
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	out := poll.Clone()
	return &out, nil
}

func (r *MemoryPollRepository) ReplaceByID(_ context.Context, id string, poll *domain.Poll, expectedVersion int64) (*domain.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.polls[id]
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	if current.Version != expectedVersion {
		return nil, domain.ErrVersionConflict
	}

	stored := poll.Clone()
	stored.ID = id
	stored.Version = current.Version + 1
	r.polls[id] = stored

	out := stored.Clone()
	return &out, nil
}

func (r *MemoryPollRepository) Create(_ context.Context, poll *domain.Poll) (*domain.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.polls[poll.ID]; exists {
		return nil, fmt.Errorf("poll %s already exists", poll.ID)
	}

	stored := poll.Clone()
	stored.Version = 1
	r.polls[poll.ID] = stored

	out := stored.Clone()
	return &out, nil
}

func (r *MemoryPollRepository) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.polls[id]; !ok {
		return domain.ErrPollNotFound
	}
	delete(r.polls, id)
	return nil
}

func (r *MemoryPollRepository) Health(context.Context) error {
	return nil
}
