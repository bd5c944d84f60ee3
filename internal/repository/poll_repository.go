package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kukkee/internal/domain"
	"kukkee/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL SQLSTATE for duplicate keys
const uniqueViolation = "23505"

// PostgresPollRepository stores each poll as one JSONB document next to a
// version column used for conditional replaces.
type PostgresPollRepository struct {
	db *database.PostgresDB
}

func NewPostgresPollRepository(db *database.PostgresDB) *PostgresPollRepository {
	return &PostgresPollRepository{db: db}
}

// FindByID loads a poll document and its version
func (r *PostgresPollRepository) FindByID(ctx context.Context, id string) (*domain.Poll, error) {
	query := `
		SELECT document, version
		FROM polls
		WHERE id = $1
	`

	var (
		document []byte
		version  int64
	)
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(&document, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPollNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}

	return decodePoll(document, version)
}

// ReplaceByID swaps the whole document if nobody wrote since expectedVersion
func (r *PostgresPollRepository) ReplaceByID(ctx context.Context, id string, poll *domain.Poll, expectedVersion int64) (*domain.Poll, error) {
	document, err := json.Marshal(poll)
	if err != nil {
		return nil, fmt.Errorf("failed to encode poll: %w", err)
	}

	query := `
		UPDATE polls
		SET document = $3, version = version + 1, updated_at = $4
		WHERE id = $1 AND version = $2
		RETURNING version
	`

	var version int64
	err = r.db.Pool.QueryRow(ctx, query, id, expectedVersion, document, poll.UpdatedAt).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		exists, existsErr := r.exists(ctx, id)
		if existsErr != nil {
			return nil, existsErr
		}
		if !exists {
			return nil, domain.ErrPollNotFound
		}
		return nil, domain.ErrVersionConflict
	}
	if err != nil {
		return nil, fmt.Errorf("failed to replace poll: %w", err)
	}

	stored := poll.Clone()
	stored.Version = version
	return &stored, nil
}

// Create inserts a new poll document at version 1
func (r *PostgresPollRepository) Create(ctx context.Context, poll *domain.Poll) (*domain.Poll, error) {
	document, err := json.Marshal(poll)
	if err != nil {
		return nil, fmt.Errorf("failed to encode poll: %w", err)
	}

	createdAt := poll.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO polls (id, owner, version, document, created_at, updated_at)
		VALUES ($1, $2, 1, $3, $4, $4)
	`

	if _, err := r.db.Pool.Exec(ctx, query, poll.ID, poll.Owner, document, createdAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("poll %s already exists: %w", poll.ID, err)
		}
		return nil, fmt.Errorf("failed to create poll: %w", err)
	}

	stored := poll.Clone()
	stored.Version = 1
	return &stored, nil
}

// DeleteByID removes a poll record
func (r *PostgresPollRepository) DeleteByID(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM polls WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete poll: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPollNotFound
	}
	return nil
}

// Health pings the connection pool
func (r *PostgresPollRepository) Health(ctx context.Context) error {
	return r.db.Health(ctx)
}

func (r *PostgresPollRepository) exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM polls WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check poll existence: %w", err)
	}
	return exists, nil
}

func decodePoll(document []byte, version int64) (*domain.Poll, error) {
	var poll domain.Poll
	if err := json.Unmarshal(document, &poll); err != nil {
		return nil, fmt.Errorf("failed to decode poll document: %w", err)
	}
	if poll.Votes == nil {
		poll.Votes = []domain.Vote{}
	}
	poll.Version = version
	return &poll, nil
}
