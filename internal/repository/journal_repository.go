package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	reclaim_errors "reclaim-chat/pkg/errors"
)

type PostgresJournalRepository struct {
	pool *pgxpool.Pool
}

func NewJournalRepository(pool *pgxpool.Pool) JournalRepository {
	return &PostgresJournalRepository{pool: pool}
}

func (r *PostgresJournalRepository) Create(ctx context.Context, e *JournalEntry) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO journal_entries (id, user_id, title, body, mood, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.UserID, e.Title, e.Body, e.Mood, e.CreatedAt, e.UpdatedAt)
	return err
}

func (r *PostgresJournalRepository) Update(ctx context.Context, e JournalEntry) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE journal_entries SET title = $1, body = $2, mood = $3, updated_at = $4
		 WHERE id = $5 AND user_id = $6`,
		e.Title, e.Body, e.Mood, e.UpdatedAt, e.ID, e.UserID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return reclaim_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresJournalRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM journal_entries WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return reclaim_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresJournalRepository) GetByID(ctx context.Context, id uuid.UUID) (JournalEntry, error) {
	var e JournalEntry
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, title, body, mood, created_at, updated_at
		 FROM journal_entries WHERE id = $1`, id).
		Scan(&e.ID, &e.UserID, &e.Title, &e.Body, &e.Mood, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return JournalEntry{}, reclaim_errors.ErrNotFound
	}
	if err != nil {
		return JournalEntry{}, err
	}
	return e, nil
}

func (r *PostgresJournalRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, title, body, mood, created_at, updated_at
		 FROM journal_entries WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []JournalEntry
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Title, &e.Body, &e.Mood, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
