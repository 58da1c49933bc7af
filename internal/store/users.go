package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"ats/pipeline-service/internal/auth"
)

const userColumns = `
	id, name, email, password_hash, phone, resume_url, role::text,
	created_at, updated_at`

func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		u    auth.User
		role string
	)
	if err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone, &u.ResumeURL, &role,
		&u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.Role = auth.Role(role)
	return &u, nil
}

// InsertUser returns auth.ErrDuplicate when the email is taken.
func (s *Store) InsertUser(ctx context.Context, u *auth.User) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, name, email, password_hash, phone, role)
		 VALUES ($1, $2, $3, $4, $5, $6::user_role)
		 RETURNING created_at, updated_at`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Phone, string(u.Role),
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if pgCode(err) == uniqueViolation {
		return auth.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insertUser: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*auth.User, error) {
	if !validID(id) {
		return nil, auth.ErrNotFound
	}
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (s *Store) UpdateUserResume(ctx context.Context, id, resumeURL string) (*auth.User, error) {
	if !validID(id) {
		return nil, auth.ErrNotFound
	}
	return s.getUser(ctx,
		`UPDATE users SET resume_url = $1, updated_at = NOW()
		 WHERE id = $2
		 RETURNING `+userColumns,
		resumeURL, id,
	)
}

func (s *Store) getUser(ctx context.Context, query string, args ...any) (*auth.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getUser: %w", err)
	}
	return u, nil
}
