// Package store is the PostgreSQL Entity Store. One Store value satisfies
// pipeline.Repository, recruiting.Repository and auth.UserStore.
package store

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ats/pipeline-service/internal/auth"
	"ats/pipeline-service/internal/pipeline"
	"ats/pipeline-service/internal/recruiting"
)

var (
	_ pipeline.Repository   = (*Store)(nil)
	_ recruiting.Repository = (*Store)(nil)
	_ auth.UserStore        = (*Store)(nil)
)

// Store runs every query on a shared pgxpool.
type Store struct {
	pool *pgxpool.Pool
}

// New returns a Store backed by pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// validID reports whether id can be compared with a UUID column. Anything
// else can match no row, so callers answer "not found" without a query.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
