// atsctl is the operator CLI for the ATS database.
//
// Usage:
//
//	atsctl migrate                 apply the schema (idempotent)
//	atsctl pipeline                candidate count per pipeline status
//	atsctl candidates [n]          latest n candidates (default 20)
//	atsctl export <file.xlsx>      write the full pipeline workbook
//
// It reads DATABASE_URL from the environment or a .env file.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"ats/pipeline-service/internal/db"
	"ats/pipeline-service/internal/export"
)

const usage = `usage: atsctl <command> [args]

commands:
  migrate              apply the schema (idempotent)
  pipeline             candidate count per pipeline status
  candidates [n]       latest n candidates (default 20)
  export <file.xlsx>   write the full pipeline workbook`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		color.Red("atsctl: %v", err)
		os.Exit(1)
	}
}

func run(cmd string, args []string) error {
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		fmt.Println(usage)
		return nil
	}

	_ = godotenv.Load()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer conn.Close()
	if err := conn.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	switch cmd {
	case "migrate":
		if _, err := conn.Exec(db.Schema); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		color.Green("Schema applied ✓")
		return nil

	case "pipeline":
		counts, err := statusCounts(conn)
		if err != nil {
			return err
		}
		color.Cyan("\n=== Candidate Pipeline ===")
		renderPipeline(os.Stdout, counts)
		return nil

	case "candidates":
		n := 20
		if len(args) > 0 {
			if n, err = strconv.Atoi(args[0]); err != nil || n < 1 {
				return fmt.Errorf("candidates: n must be a positive integer")
			}
		}
		list, err := latestCandidates(conn, n)
		if err != nil {
			return err
		}
		color.Yellow("\nLatest %d candidates", len(list))
		renderCandidates(os.Stdout, list)
		return nil

	case "export":
		if len(args) != 1 {
			return fmt.Errorf("export: output file is required")
		}
		list, err := allCandidates(conn)
		if err != nil {
			return err
		}
		path, err := export.Save(args[0], list, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		color.Green("Exported %d candidates to %s", len(list), path)
		return nil
	}

	return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
}
