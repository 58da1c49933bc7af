// Package auth is the identity gate: password accounts, bearer session
// tokens and the candidate/admin role check.
//
// Handlers resolve a bearer token to an Actor once and pass the Actor down
// explicitly; nothing reads identity from ambient request state.
package auth

import (
	"context"
	"errors"
	"time"
)

// Role of a user account.
type Role string

const (
	RoleCandidate Role = "candidate"
	RoleAdmin     Role = "admin"
)

// User is a registered account.
type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone"`
	ResumeURL    string    `json:"resumeUrl"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Actor is the identity behind one request.
type Actor struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// IsAdmin reports whether the actor may manage the pipeline.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// RegisterInput carries a sign-up form.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

// UserStore persists accounts. InsertUser returns ErrDuplicate when the
// email is taken; lookups return ErrNotFound.
type UserStore interface {
	InsertUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUserResume(ctx context.Context, id, resumeURL string) (*User, error)
}

// SessionStore maps opaque bearer tokens to actors. Get returns
// ErrNotFound for unknown or expired tokens.
type SessionStore interface {
	Save(ctx context.Context, token string, a Actor, ttl time.Duration) error
	Get(ctx context.Context, token string) (*Actor, error)
	Delete(ctx context.Context, token string) error
}

// Store sentinels.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)
