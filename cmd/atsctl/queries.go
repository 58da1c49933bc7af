package main

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"ats/pipeline-service/internal/pipeline"
)

const candidateQuery = `
	SELECT id, full_name, email, phone, position, resume_url, applied_date,
	       skills, experience, status::text, interview_rounds, created_at, updated_at
	FROM candidates
	ORDER BY created_at DESC, id`

// statusCount is one row of the pipeline report.
type statusCount struct {
	Status pipeline.Status
	Count  int64
}

// statusCounts returns a row for every pipeline status, zero included,
// in pipeline order.
func statusCounts(conn *sql.DB) ([]statusCount, error) {
	rows, err := conn.Query(`SELECT status::text, COUNT(*) FROM candidates GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count statuses: %w", err)
	}
	defer rows.Close()

	byStatus := map[pipeline.Status]int64{}
	for rows.Next() {
		var st string
		var n int64
		if err := rows.Scan(&st, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		byStatus[pipeline.Status(st)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]statusCount, 0, len(pipeline.AllStatuses))
	for _, st := range pipeline.AllStatuses {
		out = append(out, statusCount{Status: st, Count: byStatus[st]})
	}
	return out, nil
}

func latestCandidates(conn *sql.DB, n int) ([]pipeline.Candidate, error) {
	return queryCandidates(conn, candidateQuery+` LIMIT $1`, n)
}

func allCandidates(conn *sql.DB) ([]pipeline.Candidate, error) {
	return queryCandidates(conn, candidateQuery)
}

func queryCandidates(conn *sql.DB, query string, args ...any) ([]pipeline.Candidate, error) {
	rows, err := conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	out := make([]pipeline.Candidate, 0)
	for rows.Next() {
		var (
			c      pipeline.Candidate
			status string
			rounds []byte
		)
		err := rows.Scan(&c.ID, &c.FullName, &c.Email, &c.Phone, &c.Position, &c.ResumeURL,
			&c.AppliedDate, pq.Array(&c.Skills), &c.Experience, &status, &rounds,
			&c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		c.Status = pipeline.Status(status)
		if err := json.Unmarshal(rounds, &c.InterviewRounds); err != nil {
			return nil, fmt.Errorf("decode rounds of %s: %w", c.ID, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
