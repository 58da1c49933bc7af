package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"ats/pipeline-service/internal/pipeline"
)

const candidateColumns = `
	id, full_name, email, phone, position, resume_url, applied_date,
	skills, experience, status::text, interview_rounds, version,
	created_at, updated_at`

func scanCandidate(row pgx.Row) (*pipeline.Candidate, error) {
	var (
		c      pipeline.Candidate
		status string
		rounds []byte
	)
	if err := row.Scan(
		&c.ID, &c.FullName, &c.Email, &c.Phone, &c.Position, &c.ResumeURL, &c.AppliedDate,
		&c.Skills, &c.Experience, &status, &rounds, &c.Version,
		&c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Status = pipeline.Status(status)
	if err := json.Unmarshal(rounds, &c.InterviewRounds); err != nil {
		return nil, fmt.Errorf("decode interview_rounds: %w", err)
	}
	if c.InterviewRounds == nil {
		c.InterviewRounds = []pipeline.InterviewRound{}
	}
	if c.Skills == nil {
		c.Skills = []string{}
	}
	return &c, nil
}

func encodeRounds(rounds []pipeline.InterviewRound) (string, error) {
	if rounds == nil {
		rounds = []pipeline.InterviewRound{}
	}
	b, err := json.Marshal(rounds)
	if err != nil {
		return "", fmt.Errorf("encode interview_rounds: %w", err)
	}
	return string(b), nil
}

// InsertCandidate stores a new candidate at version 1.
func (s *Store) InsertCandidate(ctx context.Context, c *pipeline.Candidate) error {
	rounds, err := encodeRounds(c.InterviewRounds)
	if err != nil {
		return err
	}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO candidates
		   (id, full_name, email, phone, position, resume_url, applied_date,
		    skills, experience, status, interview_rounds, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::candidate_status, $11::jsonb, 1)
		 RETURNING version, created_at, updated_at`,
		c.ID, c.FullName, c.Email, c.Phone, c.Position, c.ResumeURL, c.AppliedDate,
		c.Skills, c.Experience, string(c.Status), rounds,
	).Scan(&c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insertCandidate: %w", err)
	}
	return nil
}

// GetCandidate returns one candidate or pipeline.ErrNotFound.
func (s *Store) GetCandidate(ctx context.Context, id string) (*pipeline.Candidate, error) {
	if !validID(id) {
		return nil, pipeline.ErrNotFound
	}
	c, err := scanCandidate(s.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, pipeline.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getCandidate: %w", err)
	}
	return c, nil
}

// UpdateCandidate writes Status and InterviewRounds when the stored version
// still equals c.Version, then advances c.Version.
func (s *Store) UpdateCandidate(ctx context.Context, c *pipeline.Candidate) error {
	if !validID(c.ID) {
		return pipeline.ErrNotFound
	}
	rounds, err := encodeRounds(c.InterviewRounds)
	if err != nil {
		return err
	}
	err = s.pool.QueryRow(ctx,
		`UPDATE candidates
		 SET status           = $1::candidate_status,
		     interview_rounds = $2::jsonb,
		     version          = version + 1,
		     updated_at       = NOW()
		 WHERE id = $3 AND version = $4
		 RETURNING version, updated_at`,
		string(c.Status), rounds, c.ID, c.Version,
	).Scan(&c.Version, &c.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("updateCandidate: %w", err)
	}

	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM candidates WHERE id = $1)`, c.ID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("updateCandidate exists: %w", err)
	}
	if !exists {
		return pipeline.ErrNotFound
	}
	return pipeline.ErrVersionConflict
}

// DeleteCandidate removes a candidate row.
func (s *Store) DeleteCandidate(ctx context.Context, id string) error {
	if !validID(id) {
		return pipeline.ErrNotFound
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM candidates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleteCandidate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pipeline.ErrNotFound
	}
	return nil
}

// ListCandidates returns one page, newest first, and the total match count.
func (s *Store) ListCandidates(ctx context.Context, f pipeline.ListFilter) ([]pipeline.Candidate, int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM candidates WHERE ($1 = '' OR status::text = $1)`,
		string(f.Status),
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("listCandidates count: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+candidateColumns+`
		 FROM candidates
		 WHERE ($1 = '' OR status::text = $1)
		 ORDER BY created_at DESC, id
		 LIMIT $2 OFFSET $3`,
		string(f.Status), f.Limit, f.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listCandidates query: %w", err)
	}
	items, err := collectCandidates(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("listCandidates scan: %w", err)
	}
	return items, total, nil
}

// ListCandidatesWithPendingRounds returns candidates holding at least one
// PENDING round.
func (s *Store) ListCandidatesWithPendingRounds(ctx context.Context) ([]pipeline.Candidate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+candidateColumns+`
		 FROM candidates
		 WHERE interview_rounds @> '[{"roundStatus":"PENDING"}]'::jsonb
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listCandidatesWithPendingRounds query: %w", err)
	}
	items, err := collectCandidates(rows)
	if err != nil {
		return nil, fmt.Errorf("listCandidatesWithPendingRounds scan: %w", err)
	}
	return items, nil
}

func collectCandidates(rows pgx.Rows) ([]pipeline.Candidate, error) {
	defer rows.Close()
	items := make([]pipeline.Candidate, 0)
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}
