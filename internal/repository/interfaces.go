package repository

import (
	"context"

	"kukkee/internal/domain"
)

// PollRepository defines the document-store operations the poll core consumes.
// Every write replaces the whole record; nothing is patched field by field.
type PollRepository interface {
	// FindByID returns the poll with its current Version, or domain.ErrPollNotFound
	FindByID(ctx context.Context, id string) (*domain.Poll, error)

	// ReplaceByID stores poll under id only if the stored version still equals
	// expectedVersion. It returns the stored record with its new Version,
	// domain.ErrPollNotFound if the record vanished, or
	// domain.ErrVersionConflict if another writer got there first.
	ReplaceByID(ctx context.Context, id string, poll *domain.Poll, expectedVersion int64) (*domain.Poll, error)

	// Create inserts a new poll at version 1
	Create(ctx context.Context, poll *domain.Poll) (*domain.Poll, error)

	// DeleteByID removes the record, or returns domain.ErrPollNotFound
	DeleteByID(ctx context.Context, id string) error

	// Health checks connectivity to the store
	Health(ctx context.Context) error
}
