package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"ats/pipeline-service/internal/recruiting"
)

const applicationSelect = `
	SELECT a.id, a.user_id, a.job_id, j.title, j.company, u.name, u.email,
	       a.status::text, a.created_at, a.updated_at
	FROM applications a
	JOIN jobs j  ON j.id = a.job_id
	JOIN users u ON u.id = a.user_id`

func scanApplication(row pgx.Row) (*recruiting.Application, error) {
	var (
		a      recruiting.Application
		status string
	)
	if err := row.Scan(
		&a.ID, &a.UserID, &a.JobID, &a.JobTitle, &a.Company, &a.UserName, &a.UserEmail,
		&status, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.Status = recruiting.ApplicationStatus(status)
	return &a, nil
}

// InsertApplication returns recruiting.ErrDuplicate when the user already
// applied to the job and recruiting.ErrNotFound when the job or user is gone.
func (s *Store) InsertApplication(ctx context.Context, a *recruiting.Application) error {
	if !validID(a.UserID) || !validID(a.JobID) {
		return recruiting.ErrNotFound
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO applications (id, user_id, job_id, status)
		 VALUES ($1, $2, $3, $4::application_status)
		 ON CONFLICT (user_id, job_id) DO NOTHING
		 RETURNING created_at, updated_at`,
		a.ID, a.UserID, a.JobID, string(a.Status),
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return recruiting.ErrDuplicate
	case pgCode(err) == foreignKeyViolation:
		return recruiting.ErrNotFound
	}
	return fmt.Errorf("insertApplication: %w", err)
}

func (s *Store) ListApplicationsByUser(ctx context.Context, userID string) ([]recruiting.Application, error) {
	if !validID(userID) {
		return []recruiting.Application{}, nil
	}
	rows, err := s.pool.Query(ctx, applicationSelect+` WHERE a.user_id = $1 ORDER BY a.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listApplicationsByUser query: %w", err)
	}
	return collectApplications(rows)
}

func (s *Store) ListApplications(ctx context.Context) ([]recruiting.Application, error) {
	rows, err := s.pool.Query(ctx, applicationSelect+` ORDER BY a.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listApplications query: %w", err)
	}
	return collectApplications(rows)
}

func (s *Store) UpdateApplicationStatus(ctx context.Context, id string, status recruiting.ApplicationStatus) (*recruiting.Application, error) {
	if !validID(id) {
		return nil, recruiting.ErrNotFound
	}
	a, err := scanApplication(s.pool.QueryRow(ctx,
		`WITH upd AS (
		   UPDATE applications
		   SET status = $1::application_status, updated_at = NOW()
		   WHERE id = $2
		   RETURNING *
		 )
		 SELECT upd.id, upd.user_id, upd.job_id, j.title, j.company, u.name, u.email,
		        upd.status::text, upd.created_at, upd.updated_at
		 FROM upd
		 JOIN jobs j  ON j.id = upd.job_id
		 JOIN users u ON u.id = upd.user_id`,
		string(status), id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, recruiting.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updateApplicationStatus: %w", err)
	}
	return a, nil
}

func collectApplications(rows pgx.Rows) ([]recruiting.Application, error) {
	defer rows.Close()
	apps := make([]recruiting.Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}
