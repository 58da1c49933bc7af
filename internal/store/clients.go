package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"ats/pipeline-service/internal/recruiting"
)

const clientColumns = `
	id, name, industry, contact_person, email, phone, website, notes,
	created_at, updated_at`

func scanClient(row pgx.Row) (*recruiting.Client, error) {
	var c recruiting.Client
	if err := row.Scan(
		&c.ID, &c.Name, &c.Industry, &c.ContactPerson, &c.Email, &c.Phone, &c.Website, &c.Notes,
		&c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) InsertClient(ctx context.Context, c *recruiting.Client) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO clients (id, name, industry, contact_person, email, phone, website, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Industry, c.ContactPerson, c.Email, c.Phone, c.Website, c.Notes,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insertClient: %w", err)
	}
	return nil
}

func (s *Store) GetClient(ctx context.Context, id string) (*recruiting.Client, error) {
	if !validID(id) {
		return nil, recruiting.ErrNotFound
	}
	c, err := scanClient(s.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, recruiting.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getClient: %w", err)
	}
	return c, nil
}

func (s *Store) UpdateClient(ctx context.Context, c *recruiting.Client) error {
	if !validID(c.ID) {
		return recruiting.ErrNotFound
	}
	err := s.pool.QueryRow(ctx,
		`UPDATE clients
		 SET name = $1, industry = $2, contact_person = $3, email = $4, phone = $5,
		     website = $6, notes = $7, updated_at = NOW()
		 WHERE id = $8
		 RETURNING updated_at`,
		c.Name, c.Industry, c.ContactPerson, c.Email, c.Phone, c.Website, c.Notes, c.ID,
	).Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return recruiting.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("updateClient: %w", err)
	}
	return nil
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	if !validID(id) {
		return recruiting.ErrNotFound
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleteClient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return recruiting.ErrNotFound
	}
	return nil
}

func (s *Store) ListClients(ctx context.Context) ([]recruiting.Client, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listClients query: %w", err)
	}
	defer rows.Close()

	clients := make([]recruiting.Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("listClients scan: %w", err)
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}
