package db

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the full DDL applied by `atsctl migrate`. Every statement is
// idempotent.
//
//go:embed schema.sql
var Schema string

// Tables lists every table the service reads or writes.
var Tables = []string{
	"users",
	"candidates",
	"jobs",
	"clients",
	"applications",
	"contacts",
	"resume_blobs",
}

// VerifySchema fails when a required table is missing, so the server
// refuses to start against an unmigrated database.
func VerifySchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, table := range Tables {
		var exists bool
		err := pool.QueryRow(ctx,
			`SELECT EXISTS (
			   SELECT FROM information_schema.tables
			   WHERE table_schema = current_schema() AND table_name = $1
			 )`, table,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("verify schema: %w", err)
		}
		if !exists {
			return fmt.Errorf("required table %s does not exist (run atsctl migrate)", table)
		}
	}
	return nil
}
