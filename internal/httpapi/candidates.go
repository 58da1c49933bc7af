package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"ats/pipeline-service/internal/apperr"
	"ats/pipeline-service/internal/auth"
	"ats/pipeline-service/internal/export"
	"ats/pipeline-service/internal/pipeline"
)

type pagination struct {
	TotalCandidates int64 `json:"totalCandidates"`
	TotalPages      int64 `json:"totalPages"`
	CurrentPage     int   `json:"currentPage"`
}

type candidateList struct {
	Candidates []pipeline.Candidate `json:"candidates"`
	Pagination pagination           `json:"pagination"`
}

// createCandidate handles POST /api/candidates
// @Summary Create a candidate
// @Description Uploads the résumé and stores a new candidate at APPLIED.
// @Tags candidates
// @Accept multipart/form-data
// @Produce json
// @Param fullName formData string true "Full name"
// @Param email formData string true "Email"
// @Param skills formData string false "Comma-separated skills"
// @Param experience formData number false "Years of experience"
// @Param resume formData file true "Résumé file"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /candidates [post]
func (s *Server) createCandidate(w http.ResponseWriter, r *http.Request, _ auth.Actor) {
	in, resume, cleanup, err := parseCandidateForm(w, r)
	if err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	defer cleanup()

	c, err := s.Pipeline.CreateCandidate(r.Context(), in, resume)
	if err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	jsonOK(w, http.StatusCreated, c)
}

// parseCandidateForm reads the multipart creation form. A missing résumé
// part is not an error here: CreateCandidate reports RESUME_REQUIRED.
func parseCandidateForm(w http.ResponseWriter, r *http.Request) (pipeline.CandidateInput, *pipeline.ResumeFile, func(), error) {
	noop := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return pipeline.CandidateInput{}, nil, noop, apperr.Validationf("invalid multipart form (max %d MB)", pipeline.MaxResumeBytes>>20)
	}

	in := pipeline.CandidateInput{
		FullName: r.FormValue("fullName"),
		Email:    r.FormValue("email"),
		Phone:    r.FormValue("phone"),
		Position: r.FormValue("position"),
		Skills:   r.FormValue("skills"),
		Status:   r.FormValue("status"),
	}
	if raw := strings.TrimSpace(r.FormValue("experience")); raw != "" {
		exp, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return in, nil, noop, apperr.Validationf("experience must be a number")
		}
		in.Experience = exp
	}

	resume, cleanup, err := formFile(r, "resume")
	if err != nil {
		return in, nil, noop, err
	}
	return in, resume, cleanup, nil
}

// formFile returns the named file part, or nil when it is absent.
func formFile(r *http.Request, field string) (*pipeline.ResumeFile, func(), error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, apperr.Validationf("invalid %s file", field)
	}
	return resumeFile(file, header), func() { file.Close() }, nil
}

func resumeFile(file multipart.File, header *multipart.FileHeader) *pipeline.ResumeFile {
	return &pipeline.ResumeFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
}

// listCandidates handles GET /api/candidates?page=&limit=&status=
// @Summary List candidates
// @Tags candidates
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 5)"
// @Param status query string false "Filter by pipeline status"
// @Success 200 {object} map[string]interface{}
// @Router /candidates [get]
func (s *Server) listCandidates(w http.ResponseWriter, r *http.Request, _ auth.Actor) {
	q := r.URL.Query()
	page := ParsePage(q.Get("page"), pipeline.DefaultPage)
	limit := ParsePage(q.Get("limit"), pipeline.DefaultLimit)

	var status pipeline.Status
	if raw := q.Get("status"); raw != "" {
		st, err := pipeline.ParseStatus(raw)
		if err != nil {
			s.fail(w, apperr.Validationf("%v", err), codeFetchCandidates)
			return
		}
		status = st
	}

	p, err := s.Pipeline.ListCandidates(r.Context(), page, limit, status)
	if err != nil {
		s.fail(w, err, codeFetchCandidates)
		return
	}
	jsonOK(w, http.StatusOK, candidateList{
		Candidates: p.Candidates,
		Pagination: pagination{
			TotalCandidates: p.TotalCandidates,
			TotalPages:      p.TotalPages,
			CurrentPage:     p.CurrentPage,
		},
	})
}

func (s *Server) getCandidate(w http.ResponseWriter, r *http.Request, _ auth.Actor) {
	c, err := s.Pipeline.GetCandidate(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, err, codeFetchCandidates)
		return
	}
	jsonOK(w, http.StatusOK, c)
}

// updateStatus handles PATCH /api/candidates/{id}/status
// @Summary Override a candidate status
// @Tags candidates
// @Accept json
// @Produce json
// @Param id path string true "Candidate ID"
// @Param body body map[string]string true "{\"status\": \"SHORTLISTED\"}"
// @Success 200 {object} map[string]interface{}
// @Router /candidates/{id}/status [patch]
func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request, _ auth.Actor) {
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, err, codeUpdateStatus)
		return
	}

	c, err := s.Pipeline.SetStatus(r.Context(), r.PathValue("id"), body.Status)
	if err != nil {
		s.fail(w, err, codeUpdateStatus)
		return
	}
	jsonOK(w, http.StatusOK, c)
}

// scheduleInterview handles POST /api/candidates/{id}/interview
// @Summary Schedule an interview round
// @Tags candidates
// @Accept json
// @Produce json
// @Param id path string true "Candidate ID"
// @Param body body pipeline.RoundInput true "Round"
// @Success 200 {object} map[string]interface{}
// @Router /candidates/{id}/interview [post]
func (s *Server) scheduleInterview(w http.ResponseWriter, r *http.Request, _ auth.Actor) {
	var body struct {
		RoundName   string `json:"roundName"`
		ScheduledAt string `json:"scheduledAt"`
		Interviewer string `json:"interviewer"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, err, codeScheduleInterview)
		return
	}
	at, err := pipeline.ParseScheduledAt(body.ScheduledAt)
	if err != nil {
		s.fail(w, err, codeScheduleInterview)
		return
	}

	c, err := s.Pipeline.ScheduleInterview(r.Context(), r.PathValue("id"), pipeline.RoundInput{
		RoundName:   body.RoundName,
		ScheduledAt: at,
		Interviewer: body.Interviewer,
	})
	if err != nil {
		s.fail(w, err, codeScheduleInterview)
		return
	}
	jsonOK(w, http.StatusOK, c)
}

// updateInterview handles PATCH /api/candidates/{id}/interview
// @Summary Record an interview round result
// @Tags candidates
// @Accept json
// @Produce json
// @Param id path string true "Candidate ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /candidates/{id}/interview [patch]
func (s *Server) updateInterview(w http.ResponseWriter, r *http.Request, _ auth.Actor) {
	var body struct {
		RoundIndex  *int   `json:"roundIndex"`
		RoundStatus string `json:"roundStatus"`
		Feedback    string `json:"feedback"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, err, codeUpdateInterview)
		return
	}
	idx := -1
	if body.RoundIndex != nil {
		idx = *body.RoundIndex
	}

	c, err := s.Pipeline.RecordRoundResult(r.Context(), r.PathValue("id"), idx, body.RoundStatus, body.Feedback)
	if err != nil {
		s.fail(w, err, codeUpdateInterview)
		return
	}
	jsonOK(w, http.StatusOK, c)
}

// deleteCandidate handles DELETE /api/candidates/{id}
func (s *Server) deleteCandidate(w http.ResponseWriter, r *http.Request, _ auth.Actor) {
	if err := s.Pipeline.DeleteCandidate(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, err, codeDeleteCandidate)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true})
}

// exportCandidates handles GET /api/candidates/export
// @Summary Export the pipeline as an Excel workbook
// @Tags candidates
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Router /candidates/export [get]
func (s *Server) exportCandidates(w http.ResponseWriter, r *http.Request, _ auth.Actor) {
	candidates, err := s.Pipeline.AllCandidates(r.Context())
	if err != nil {
		s.fail(w, err, codeExportCandidates)
		return
	}

	now := s.now().UTC()
	var buf bytes.Buffer
	if err := export.Write(&buf, candidates, now); err != nil {
		s.fail(w, err, codeExportCandidates)
		return
	}

	w.Header().Set("Content-Type", contentTypeSpreadsheet)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="candidates-%s.xlsx"`, now.Format("20060102")))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
