// Package export renders the candidate pipeline as an Excel workbook.
package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"ats/pipeline-service/internal/pipeline"
)

// Sheet names.
const (
	SummarySheet    = "Summary"
	CandidatesSheet = "Candidates"
	RoundsSheet     = "Interview Rounds"
)

// statusFill colours a candidate row by pipeline status.
var statusFill = map[pipeline.Status]string{
	pipeline.StatusApplied:            "FFFFFF",
	pipeline.StatusShortlisted:        "DDEBF7",
	pipeline.StatusInterviewScheduled: "FFEB9C",
	pipeline.StatusInProgress:         "FCE4D6",
	pipeline.StatusSelected:           "C6EFCE",
	pipeline.StatusRejected:           "FFC7CE",
}

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

// Write renders candidates and streams the workbook to w.
func Write(w io.Writer, candidates []pipeline.Candidate, generatedAt time.Time) error {
	f, err := Workbook(candidates, generatedAt)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Save renders candidates to path, adding the .xlsx extension if missing.
func Save(path string, candidates []pipeline.Candidate, generatedAt time.Time) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)

	f, err := Workbook(candidates, generatedAt)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}

// Workbook builds the three-sheet pipeline workbook. The caller closes it.
func Workbook(candidates []pipeline.Candidate, generatedAt time.Time) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{CandidatesSheet, RoundsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder,
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	steps := []func() error{
		func() error { return summarySheet(f, header, candidates, generatedAt) },
		func() error { return candidatesSheet(f, header, candidates) },
		func() error { return roundsSheet(f, header, candidates) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func summarySheet(f *excelize.File, header int, candidates []pipeline.Candidate, generatedAt time.Time) error {
	counts := make(map[pipeline.Status]int, len(pipeline.AllStatuses))
	for _, c := range candidates {
		counts[c.Status]++
	}

	f.SetColWidth(SummarySheet, "A", "A", 24)
	f.SetColWidth(SummarySheet, "B", "B", 22)
	rows := [][]any{
		{"Generated", generatedAt.UTC().Format(time.RFC3339)},
		{"Total candidates", len(candidates)},
		{},
		{"Status", "Candidates"},
	}
	for _, st := range pipeline.AllStatuses {
		rows = append(rows, []any{string(st), counts[st]})
	}
	if err := setRows(f, SummarySheet, rows); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}
	return f.SetCellStyle(SummarySheet, "A4", "B4", header)
}

func candidatesSheet(f *excelize.File, header int, candidates []pipeline.Candidate) error {
	headers := []any{"Name", "Email", "Phone", "Position", "Status", "Experience", "Skills", "Rounds", "Applied", "Résumé"}
	widths := []float64{24, 30, 16, 22, 22, 12, 30, 8, 20, 14}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(CandidatesSheet, col, col, w)
	}

	rows := [][]any{headers}
	for _, c := range candidates {
		rows = append(rows, []any{
			c.FullName, c.Email, c.Phone, c.Position, string(c.Status), c.Experience,
			strings.Join(c.Skills, ", "), len(c.InterviewRounds),
			c.AppliedDate.UTC().Format("2006-01-02 15:04"), "Open",
		})
	}
	if err := setRows(f, CandidatesSheet, rows); err != nil {
		return fmt.Errorf("candidates sheet: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(CandidatesSheet, "A1", last, header); err != nil {
		return err
	}

	styles := make(map[pipeline.Status]int, len(statusFill))
	for st, color := range statusFill {
		id, err := f.NewStyle(&excelize.Style{
			Fill:   excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Border: thinBorder,
		})
		if err != nil {
			return err
		}
		styles[st] = id
	}

	for i, c := range candidates {
		row := i + 2
		first, _ := excelize.CoordinatesToCellName(1, row)
		end, _ := excelize.CoordinatesToCellName(len(headers), row)
		if id, ok := styles[c.Status]; ok {
			f.SetCellStyle(CandidatesSheet, first, end, id)
		}
		if c.ResumeURL != "" {
			f.SetCellHyperLink(CandidatesSheet, end, c.ResumeURL, "External")
		} else {
			f.SetCellValue(CandidatesSheet, end, "")
		}
	}
	return f.AutoFilter(CandidatesSheet, "A1:"+last, nil)
}

func roundsSheet(f *excelize.File, header int, candidates []pipeline.Candidate) error {
	headers := []any{"Candidate", "#", "Round", "Scheduled", "Interviewer", "Result", "Feedback"}
	widths := []float64{24, 5, 20, 20, 20, 10, 40}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(RoundsSheet, col, col, w)
	}

	rows := [][]any{headers}
	for _, c := range candidates {
		for i, r := range c.InterviewRounds {
			rows = append(rows, []any{
				c.FullName, i, r.RoundName, r.ScheduledAt.UTC().Format("2006-01-02 15:04"),
				r.Interviewer, string(r.RoundStatus), r.Feedback,
			})
		}
	}
	if err := setRows(f, RoundsSheet, rows); err != nil {
		return fmt.Errorf("rounds sheet: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	return f.SetCellStyle(RoundsSheet, "A1", last, header)
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
