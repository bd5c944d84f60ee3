package domain

import (
	"errors"
	"fmt"
)

// Rejection reasons returned by the poll core. Callers match them with errors.Is.
var (
	ErrPollNotFound     = errors.New("poll not found")
	ErrUnauthenticated  = errors.New("authentication required")
	ErrIdentityMismatch = errors.New("vote username does not match the signed-in user")
	ErrPollClosed       = errors.New("poll is closed")
	ErrInvalidSlots     = errors.New("vote must reference at least one of the poll's time slots and nothing else")
	ErrDuplicateVoter   = errors.New("username has already voted on this poll")
	ErrInvalidFinalTime = errors.New("final time is not one of the poll's time slots")
	ErrAlreadyClosed    = errors.New("poll is already closed")
	ErrNotOwner         = errors.New("only the poll owner can do this")
	ErrInvalidVote      = errors.New("invalid vote")
	ErrInvalidPoll      = errors.New("invalid poll")
	ErrPersistence      = errors.New("poll storage is unavailable")

	// ErrVersionConflict is returned by stores when the record changed
	// between read and conditional write.
	ErrVersionConflict = errors.New("poll version conflict")
)

// InvalidPollError describes why a poll proposal was refused
type InvalidPollError struct {
	Reason string
}

// NewInvalidPollError creates an InvalidPollError
func NewInvalidPollError(reason string) *InvalidPollError {
	return &InvalidPollError{Reason: reason}
}

func (e *InvalidPollError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidPoll, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidPoll) hold
func (e *InvalidPollError) Is(target error) bool {
	return target == ErrInvalidPoll
}

// PersistenceError wraps a storage failure. Message() is safe to show to
// clients; Err keeps the detail for logs.
type PersistenceError struct {
	Op  string
	Err error
}

// NewPersistenceError wraps err as a storage failure of op
func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrPersistence) hold
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// Message returns the generic client-facing text
func (e *PersistenceError) Message() string {
	return "Poll storage is temporarily unavailable, please retry"
}

// IsRetryable reports whether a caller may retry the operation with backoff.
// Only storage failures qualify; every other rejection reflects poll state.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPersistence)
}
