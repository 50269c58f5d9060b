package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	reclaim_errors "reclaim-chat/pkg/errors"
)

type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &PostgresUserRepository{pool: pool}
}

func (r *PostgresUserRepository) Create(ctx context.Context, u *UserRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, display_name, photo_url, is_anonymous, created_at)
		 VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7)`,
		u.ID, u.Email, u.PasswordHash, u.DisplayName, u.PhotoURL, u.IsAnonymous, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return reclaim_errors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (UserRecord, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT id, COALESCE(email, ''), password_hash, display_name, photo_url, is_anonymous, created_at
		 FROM users WHERE id = $1`, id))
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (UserRecord, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT id, COALESCE(email, ''), password_hash, display_name, photo_url, is_anonymous, created_at
		 FROM users WHERE email = $1`, email))
}

func (r *PostgresUserRepository) scanOne(row pgx.Row) (UserRecord, error) {
	var u UserRecord
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.PhotoURL, &u.IsAnonymous, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserRecord{}, reclaim_errors.ErrNotFound
	}
	if err != nil {
		return UserRecord{}, err
	}
	return u, nil
}
