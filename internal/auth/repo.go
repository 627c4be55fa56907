package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Create(ctx context.Context, username *string, email, passwordHash string) (User, error) {
	u := User{ID: uuid.NewString(), Username: username, Email: email, PasswordHash: passwordHash}
	err := r.DB.QueryRow(ctx, `
		INSERT INTO users(id, username, email, password) VALUES ($1,$2,$3,$4)
		RETURNING created_at`, u.ID, u.Username, u.Email, u.PasswordHash).Scan(&u.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// Exists reports whether a user already claimed the username or email.
func (r *Repo) Exists(ctx context.Context, username *string, email string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE email=$1 OR ($2::text IS NOT NULL AND username=$2))`,
		email, username).Scan(&exists)
	return exists, err
}

func (r *Repo) FindByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := r.DB.QueryRow(ctx,
		`SELECT id, username, email, password, created_at FROM users WHERE email=$1`, email).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (r *Repo) FindByID(ctx context.Context, id string) (User, error) {
	var u User
	err := r.DB.QueryRow(ctx,
		`SELECT id, username, email, password, created_at FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}
