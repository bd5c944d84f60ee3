package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kukkee/internal/domain"
	"kukkee/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultCommitAttempts bounds the read-validate-write cycle of one request.
// A request only loses a round when another writer commits, so the bound must
// be at least the number of writers expected to race on a single poll.
const DefaultCommitAttempts = 32

// PollService serializes every poll mutation through a conditional replace
// on the stored version, retrying the whole cycle on conflict.
type PollService struct {
	repo        repository.PollRepository
	cache       *CacheService
	logger      *zap.Logger
	now         func() time.Time
	newID       func() string
	maxAttempts int
}

// PollServiceOption customizes a PollService
type PollServiceOption func(*PollService)

// WithClock overrides the time source
func WithClock(now func() time.Time) PollServiceOption {
	return func(s *PollService) { s.now = now }
}

// WithIDGenerator overrides poll id generation
func WithIDGenerator(newID func() string) PollServiceOption {
	return func(s *PollService) { s.newID = newID }
}

// WithCommitAttempts sets how many conflicting rounds a write may lose
func WithCommitAttempts(n int) PollServiceOption {
	return func(s *PollService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// NewPollService creates a new poll service. cache may be nil.
func NewPollService(repo repository.PollRepository, cache *CacheService, logger *zap.Logger, opts ...PollServiceOption) *PollService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &PollService{
		repo:        repo,
		cache:       cache,
		logger:      logger,
		now:         time.Now,
		newID:       uuid.NewString,
		maxAttempts: DefaultCommitAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitVote admits vote into the poll. Duplicate voters are re-checked
// against the snapshot each round is based on, so a username is stored at most once.
func (s *PollService) SubmitVote(ctx context.Context, pollID string, vote domain.Vote, requester *domain.Requester) (*domain.Poll, error) {
	stored, err := s.commit(ctx, "submit_vote", pollID, func(current *domain.Poll) (domain.Poll, error) {
		return domain.AdmitVote(current, vote, requester, s.now())
	})
	if err != nil {
		s.logger.Debug("Vote rejected",
			zap.String("poll_id", pollID),
			zap.String("voter", vote.Username),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Vote admitted",
		zap.String("poll_id", pollID),
		zap.String("voter", vote.Username),
		zap.Int("slots", len(vote.Times)),
		zap.Int("votes", len(stored.Votes)))
	return stored, nil
}

// ClosePoll fixes final as the chosen slot. Only the poll owner may close it.
func (s *PollService) ClosePoll(ctx context.Context, pollID string, final domain.TimeSlot, requester *domain.Requester) (*domain.Poll, error) {
	if !requester.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}

	stored, err := s.commit(ctx, "close_poll", pollID, func(current *domain.Poll) (domain.Poll, error) {
		if current.Owner != requester.Username {
			return domain.Poll{}, domain.ErrNotOwner
		}
		return domain.ClosePoll(*current, final, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Poll closed",
		zap.String("poll_id", pollID),
		zap.String("owner", requester.Username),
		zap.Int64("final_start", final.Start))
	return stored, nil
}

// CreatePoll stores a new open poll owned by requester
func (s *PollService) CreatePoll(ctx context.Context, req domain.CreatePollRequest, requester *domain.Requester) (*domain.Poll, error) {
	if !requester.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	poll := domain.NewPoll(s.newID(), requester.Username, req, s.now())
	stored, err := s.repo.Create(ctx, &poll)
	if err != nil {
		return nil, s.storageError("create_poll", poll.ID, err)
	}

	s.logger.Info("Poll created",
		zap.String("poll_id", stored.ID),
		zap.String("owner", stored.Owner),
		zap.String("type", string(stored.Type)),
		zap.Int("slots", len(stored.Times)))
	return stored, nil
}

// GetPoll returns the poll, from cache when available
func (s *PollService) GetPoll(ctx context.Context, pollID string) (*domain.Poll, error) {
	poll, err := s.cache.GetPollWithCache(ctx, pollID, s.repo.FindByID)
	if err != nil {
		return nil, s.storageError("get_poll", pollID, err)
	}
	return poll, nil
}

// DeletePoll removes the poll. Only the owner may delete it.
func (s *PollService) DeletePoll(ctx context.Context, pollID string, requester *domain.Requester) error {
	if !requester.Authenticated() {
		return domain.ErrUnauthenticated
	}

	current, err := s.repo.FindByID(ctx, pollID)
	if err != nil {
		return s.storageError("delete_poll", pollID, err)
	}
	if current.Owner != requester.Username {
		return domain.ErrNotOwner
	}

	if err := s.repo.DeleteByID(ctx, pollID); err != nil {
		return s.storageError("delete_poll", pollID, err)
	}
	s.cache.InvalidatePoll(ctx, pollID)

	s.logger.Info("Poll deleted",
		zap.String("poll_id", pollID),
		zap.String("owner", requester.Username))
	return nil
}

// commit runs load, mutate and conditional replace until the replace lands on
// the version it read. mutate sees a fresh snapshot every round.
func (s *PollService) commit(ctx context.Context, op, pollID string, mutate func(current *domain.Poll) (domain.Poll, error)) (*domain.Poll, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, domain.NewPersistenceError(op, err)
		}

		current, err := s.repo.FindByID(ctx, pollID)
		if err != nil {
			return nil, s.storageError(op, pollID, err)
		}

		next, err := mutate(current)
		if err != nil {
			return nil, err
		}

		stored, err := s.repo.ReplaceByID(ctx, pollID, &next, current.Version)
		if err == nil {
			s.cache.InvalidatePoll(ctx, pollID)
			return stored, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, s.storageError(op, pollID, err)
		}

		s.logger.Debug("Concurrent poll write, retrying",
			zap.String("op", op),
			zap.String("poll_id", pollID),
			zap.Int("attempt", attempt),
			zap.Int64("version", current.Version))
	}

	s.logger.Warn("Poll write gave up after repeated conflicts",
		zap.String("op", op),
		zap.String("poll_id", pollID),
		zap.Int("attempts", s.maxAttempts))
	return nil, domain.NewPersistenceError(op, fmt.Errorf("%d conflicting writes", s.maxAttempts))
}

// storageError passes through poll-not-found and wraps everything else as a
// persistence failure, logging the cause that clients never see.
func (s *PollService) storageError(op, pollID string, err error) error {
	if errors.Is(err, domain.ErrPollNotFound) {
		return domain.ErrPollNotFound
	}
	var pe *domain.PersistenceError
	if errors.As(err, &pe) {
		return pe
	}

	s.logger.Error("Poll storage failure",
		zap.String("op", op),
		zap.String("poll_id", pollID),
		zap.Error(err))
	return domain.NewPersistenceError(op, err)
}
