package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ats/pipeline-service/internal/apperr"
	"ats/pipeline-service/internal/pipeline"
)

const minPasswordLen = 8

// Wire codes.
var (
	ErrUnauthorized       = apperr.New(apperr.Unauthorized, "UNAUTHORIZED", "missing or invalid token")
	ErrForbidden          = apperr.New(apperr.Forbidden, "FORBIDDEN", "admin access required")
	ErrInvalidCredentials = apperr.New(apperr.Unauthorized, "INVALID_CREDENTIALS", "invalid email or password")
	ErrEmailTaken         = apperr.New(apperr.Conflict, "EMAIL_ALREADY_REGISTERED", "an account with this email already exists")
	ErrUserNotFound       = apperr.New(apperr.NotFound, "USER_NOT_FOUND", "user not found")
)

// Service issues and verifies session tokens.
type Service struct {
	users    UserStore
	sessions SessionStore
	blobs    pipeline.BlobStore
	ttl      time.Duration
	admins   map[string]bool
	now      func() time.Time
}

// NewService returns a configured Service. Accounts registered with an
// email listed in adminEmails get the admin role. blobs may be nil.
func NewService(users UserStore, sessions SessionStore, blobs pipeline.BlobStore, ttl time.Duration, adminEmails []string) *Service {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			admins[e] = true
		}
	}
	return &Service{
		users:    users,
		sessions: sessions,
		blobs:    blobs,
		ttl:      ttl,
		admins:   admins,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an account and opens a session for it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, string, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" {
		return nil, "", apperr.Validationf("name and email are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", apperr.Validationf("invalid email %q", email)
	}
	if len(in.Password) < minPasswordLen {
		return nil, "", apperr.Validationf("password must be at least %d characters", minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	role := RoleCandidate
	if s.admins[email] {
		role = RoleAdmin
	}
	u := &User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         role,
	}
	err = s.users.InsertUser(ctx, u)
	if errors.Is(err, ErrDuplicate) {
		return nil, "", ErrEmailTaken
	}
	if err != nil {
		return nil, "", fmt.Errorf("insert user: %w", err)
	}

	token, err := s.openSession(ctx, u)
	if err != nil {
		return nil, "", err
	}
	slog.Info("user registered", "userId", u.ID, "role", u.Role)
	return u, token, nil
}

// Login verifies a password and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	u, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("get user by email: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.openSession(ctx, u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Logout revokes a token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Authenticate resolves a bearer token to its Actor.
func (s *Service) Authenticate(ctx context.Context, token string) (*Actor, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	a, err := s.sessions.Get(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return a, nil
}

// RequireAdmin authenticates token and checks the admin role.
func (s *Service) RequireAdmin(ctx context.Context, token string) (*Actor, error) {
	a, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if !a.IsAdmin() {
		return nil, ErrForbidden
	}
	return a, nil
}

// Me returns the account behind an actor.
func (s *Service) Me(ctx context.Context, a Actor) (*User, error) {
	u, err := s.users.GetUser(ctx, a.UserID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// UploadResume stores a profile résumé for the actor and records its URL.
func (s *Service) UploadResume(ctx context.Context, a Actor, file *pipeline.ResumeFile) (*User, error) {
	if err := file.Check(); err != nil {
		return nil, err
	}
	if s.blobs == nil {
		return nil, pipeline.ErrStorageNotConfigured
	}

	key := pipeline.ResumeKey(s.now(), file.Filename)
	url, err := s.blobs.Upload(ctx, key, file.ContentType, file.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.Dependency, pipeline.CodeFailedToUploadResume, err)
	}

	u, err := s.users.UpdateUserResume(ctx, a.UserID, url)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update user resume: %w", err)
	}
	return u, nil
}

func (s *Service) openSession(ctx context.Context, u *User) (string, error) {
	token := newToken()
	a := Actor{UserID: u.ID, Email: u.Email, Role: u.Role}
	if err := s.sessions.Save(ctx, token, a, s.ttl); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return token, nil
}

func newToken() string {
	return rand.Text() + rand.Text()
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
