package service

import (
	"context"

	"kukkee/internal/domain"
)

// AuthService resolves bearer tokens into requesters
type AuthService interface {
	// ValidateToken verifies a signed token and returns the identity it carries
	ValidateToken(ctx context.Context, token string) (*domain.Requester, error)
}

// PollOperations is the poll API consumed by the HTTP layer
type PollOperations interface {
	// SubmitVote admits vote into the poll and returns the stored poll
	SubmitVote(ctx context.Context, pollID string, vote domain.Vote, requester *domain.Requester) (*domain.Poll, error)

	// ClosePoll fixes final as the chosen slot and closes the poll
	ClosePoll(ctx context.Context, pollID string, final domain.TimeSlot, requester *domain.Requester) (*domain.Poll, error)

	// CreatePoll stores a new open poll owned by requester
	CreatePoll(ctx context.Context, req domain.CreatePollRequest, requester *domain.Requester) (*domain.Poll, error)

	// GetPoll returns a poll, served from cache when possible
	GetPoll(ctx context.Context, pollID string) (*domain.Poll, error)

	// DeletePoll removes a poll owned by requester
	DeletePoll(ctx context.Context, pollID string, requester *domain.Requester) error
}

// Services aggregates all service interfaces
type Services struct {
	Auth  AuthService
	Polls PollOperations
}
