package blob

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MaxObjectBytes caps a single stored object.
const MaxObjectBytes = 10 << 20

// ErrNotFound is returned by Open for unknown keys.
var ErrNotFound = errors.New("blob not found")

// ErrTooLarge is returned by Upload when the body exceeds MaxObjectBytes.
var ErrTooLarge = fmt.Errorf("file exceeds %d MB", MaxObjectBytes>>20)

// Object is a stored file.
type Object struct {
	Key         string
	ContentType string
	Data        []byte
}

// Postgres keeps objects in the resume_blobs table. They are served at
// <baseURL>/api/<key>.
type Postgres struct {
	pool    *pgxpool.Pool
	baseURL string
}

// NewPostgres returns a Postgres backend. baseURL is the public origin of
// the HTTP surface.
func NewPostgres(pool *pgxpool.Pool, baseURL string) *Postgres {
	return &Postgres{pool: pool, baseURL: baseURL}
}

// Upload stores body under key, replacing any previous object.
func (p *Postgres) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(body, MaxObjectBytes+1))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if len(data) > MaxObjectBytes {
		return "", ErrTooLarge
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO resume_blobs (key, content_type, data)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE
		 SET content_type = EXCLUDED.content_type, data = EXCLUDED.data, created_at = NOW()`,
		key, contentType, data,
	)
	if err != nil {
		return "", fmt.Errorf("insert resume blob: %w", err)
	}
	return p.baseURL + "/api/" + key, nil
}

// Open returns the object stored under key.
func (p *Postgres) Open(ctx context.Context, key string) (*Object, error) {
	obj := Object{Key: key}
	err := p.pool.QueryRow(ctx,
		`SELECT content_type, data FROM resume_blobs WHERE key = $1`, key,
	).Scan(&obj.ContentType, &obj.Data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open resume blob: %w", err)
	}
	return &obj, nil
}
