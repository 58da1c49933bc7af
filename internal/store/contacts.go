package store

import (
	"context"
	"fmt"

	"ats/pipeline-service/internal/recruiting"
)

func (s *Store) InsertContact(ctx context.Context, c *recruiting.Contact) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO contacts (id, name, email, subject, message)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		c.ID, c.Name, c.Email, c.Subject, c.Message,
	).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insertContact: %w", err)
	}
	return nil
}

func (s *Store) ListContacts(ctx context.Context) ([]recruiting.Contact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, email, subject, message, created_at
		 FROM contacts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listContacts query: %w", err)
	}
	defer rows.Close()

	contacts := make([]recruiting.Contact, 0)
	for rows.Next() {
		var c recruiting.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Subject, &c.Message, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("listContacts scan: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
