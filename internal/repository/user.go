package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/samandr77/microservices/backoffice/internal/entity"
)

const pgUniqueViolation = "23505"

func (r *Repository) CreateUser(ctx context.Context, u entity.User) (entity.User, error) {
	const q = `
	INSERT INTO users (email, full_name, password_hash)
	VALUES ($1, $2, $3)
	RETURNING id, created_at
	`

	err := r.conn(ctx).QueryRow(ctx, q, u.Email, u.FullName, u.PasswordHash).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return entity.User{}, entity.ErrAlreadyExists
		}

		return entity.User{}, err
	}

	return u, nil
}

func (r *Repository) UserByEmail(ctx context.Context, email string) (u entity.User, err error) {
	const q = `SELECT id, email, full_name, password_hash, created_at FROM users WHERE email = $1`

	err = r.conn(ctx).QueryRow(ctx, q, email).Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.User{}, entity.ErrNotFound
		}

		return entity.User{}, err
	}

	return u, nil
}
