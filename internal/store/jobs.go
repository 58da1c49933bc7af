package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"ats/pipeline-service/internal/recruiting"
)

const jobColumns = `
	id, title, company, location, employment_type, experience, openings,
	description, is_active, created_at, updated_at`

func scanJob(row pgx.Row) (*recruiting.Job, error) {
	var (
		j  recruiting.Job
		et string
	)
	if err := row.Scan(
		&j.ID, &j.Title, &j.Company, &j.Location, &et, &j.Experience, &j.Openings,
		&j.Description, &j.IsActive, &j.CreatedAt, &j.UpdatedAt,
	); err != nil {
		return nil, err
	}
	j.EmploymentType = recruiting.EmploymentType(et)
	return &j, nil
}

func (s *Store) InsertJob(ctx context.Context, j *recruiting.Job) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO jobs (id, title, company, location, employment_type, experience, openings, description, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at, updated_at`,
		j.ID, j.Title, j.Company, j.Location, string(j.EmploymentType), j.Experience, j.Openings,
		j.Description, j.IsActive,
	).Scan(&j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insertJob: %w", err)
	}
	return nil
}

func (s *Store) GetJob(ctx context.Context, id string) (*recruiting.Job, error) {
	if !validID(id) {
		return nil, recruiting.ErrNotFound
	}
	j, err := scanJob(s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, recruiting.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getJob: %w", err)
	}
	return j, nil
}

func (s *Store) UpdateJob(ctx context.Context, j *recruiting.Job) error {
	if !validID(j.ID) {
		return recruiting.ErrNotFound
	}
	err := s.pool.QueryRow(ctx,
		`UPDATE jobs
		 SET title = $1, company = $2, location = $3, employment_type = $4, experience = $5,
		     openings = $6, description = $7, is_active = $8, updated_at = NOW()
		 WHERE id = $9
		 RETURNING updated_at`,
		j.Title, j.Company, j.Location, string(j.EmploymentType), j.Experience,
		j.Openings, j.Description, j.IsActive, j.ID,
	).Scan(&j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return recruiting.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("updateJob: %w", err)
	}
	return nil
}

func (s *Store) DeleteJob(ctx context.Context, id string) error {
	if !validID(id) {
		return recruiting.ErrNotFound
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleteJob: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return recruiting.ErrNotFound
	}
	return nil
}

func (s *Store) ListJobs(ctx context.Context, activeOnly bool) ([]recruiting.Job, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE NOT $1 OR is_active
		 ORDER BY created_at DESC`,
		activeOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("listJobs query: %w", err)
	}
	defer rows.Close()

	jobs := make([]recruiting.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("listJobs scan: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}
