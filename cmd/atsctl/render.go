package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"ats/pipeline-service/internal/pipeline"
)

func renderPipeline(w io.Writer, counts []statusCount) {
	var total int64
	for _, c := range counts {
		total += c.Count
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Status", "Candidates", "Share"})
	for _, c := range counts {
		share := 0.0
		if total > 0 {
			share = float64(c.Count) * 100 / float64(total)
		}
		table.Append([]string{string(c.Status), fmt.Sprintf("%d", c.Count), fmt.Sprintf("%.1f%%", share)})
	}
	table.SetFooter([]string{"Total", fmt.Sprintf("%d", total), ""})
	table.Render()
}

func renderCandidates(w io.Writer, list []pipeline.Candidate) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Email", "Position", "Status", "Rounds", "Applied"})
	for _, c := range list {
		table.Append([]string{
			c.FullName,
			c.Email,
			c.Position,
			string(c.Status),
			roundSummary(c.InterviewRounds),
			c.AppliedDate.Format("2006-01-02"),
		})
	}
	table.Render()
}

// roundSummary renders rounds as "2/3 passed", or "-" when none exist.
func roundSummary(rounds []pipeline.InterviewRound) string {
	if len(rounds) == 0 {
		return "-"
	}
	passed, failed := 0, 0
	for _, r := range rounds {
		switch r.RoundStatus {
		case pipeline.RoundPassed:
			passed++
		case pipeline.RoundFailed:
			failed++
		}
	}
	parts := []string{fmt.Sprintf("%d/%d passed", passed, len(rounds))}
	if failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", failed))
	}
	return strings.Join(parts, ", ")
}
