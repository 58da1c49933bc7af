package httpapi

import (
	"net/http"

	"ats/pipeline-service/internal/auth"
	"ats/pipeline-service/internal/recruiting"
)

// ─── Jobs ────────────────────────────────────────────────────────────────────

// listJobs handles GET /api/jobs. Only active postings are listed unless
// an admin asks for ?all=true.
// @Summary List job postings
// @Tags jobs
// @Produce json
// @Param all query bool false "Include inactive postings (admin)"
// @Success 200 {object} map[string]interface{}
// @Router /jobs [get]
func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	activeOnly := true
	if r.URL.Query().Get("all") == "true" {
		if _, err := s.Auth.RequireAdmin(r.Context(), auth.BearerToken(r.Header.Get("Authorization"))); err != nil {
			s.fail(w, err, codeInternal)
			return
		}
		activeOnly = false
	}

	jobs, err := s.Recruiting.ListJobs(r.Context(), activeOnly)
	if err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	jsonOK(w, http.StatusOK, jobs)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	j, err := s.Recruiting.GetJob(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	jsonOK(w, http.StatusOK, j)
}

func (s *Server) createJob(w http.ResponseWriter, r *http.Request, _ auth.Actor) {
	var body recruiting.JobInput
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	j, err := s.Recruiting.CreateJob(r.Context(), body)
	if err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	jsonOK(w, http.StatusCreated, j)
}

func (s *Server) updateJob(w http.ResponseWriter, r *http.Request, _ auth.Actor) {
	var body recruiting.JobInput
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	j, err := s.Recruiting.UpdateJob(r.Context(), r.PathValue("id"), body)
	if err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	jsonOK(w, http.StatusOK, j)
}

func (s *Server) deleteJob(w http.ResponseWriter, r *http.Request, _ auth.Actor) {
	if err := s.Recruiting.DeleteJob(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true})
}

// ─── Applications ────────────────────────────────────────────────────────────

// applyToJob handles POST /api/jobs/{id}/apply
// @Summary Apply to a job
// @Tags applications
// @Produce json
// @Param id path string true "Job ID"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /jobs/{id}/apply [post]
func (s *Server) applyToJob(w http.ResponseWriter, r *http.Request, a auth.Actor) {
	app, err := s.Recruiting.Apply(r.Context(), a.UserID, r.PathValue("id"))
	if err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	jsonOK(w, http.StatusCreated, app)
}

func (s *Server) myApplications(w http.ResponseWriter, r *http.Request, a auth.Actor) {
	apps, err := s.Recruiting.MyApplications(r.Context(), a.UserID)
	if err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	jsonOK(w, http.StatusOK, apps)
}

func (s *Server) listApplications(w http.ResponseWriter, r *http.Request, _ auth.Actor) {
	apps, err := s.Recruiting.ListApplications(r.Context())
	if err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	jsonOK(w, http.StatusOK, apps)
}

func (s *Server) updateApplicationStatus(w http.ResponseWriter, r *http.Request, _ auth.Actor) {
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	app, err := s.Recruiting.SetApplicationStatus(r.Context(), r.PathValue("id"), body.Status)
	if err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	jsonOK(w, http.StatusOK, app)
}

// ─── Clients ─────────────────────────────────────────────────────────────────

func (s *Server) listClients(w http.ResponseWriter, r *http.Request, _ auth.Actor) {
	clients, err := s.Recruiting.ListClients(r.Context())
	if err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	jsonOK(w, http.StatusOK, clients)
}

func (s *Server) getClient(w http.ResponseWriter, r *http.Request, _ auth.Actor) {
	c, err := s.Recruiting.GetClient(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	jsonOK(w, http.StatusOK, c)
}

func (s *Server) createClient(w http.ResponseWriter, r *http.Request, _ auth.Actor) {
	var body recruiting.Client
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	c, err := s.Recruiting.CreateClient(r.Context(), body)
	if err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	jsonOK(w, http.StatusCreated, c)
}

func (s *Server) updateClient(w http.ResponseWriter, r *http.Request, _ auth.Actor) {
	var body recruiting.Client
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	c, err := s.Recruiting.UpdateClient(r.Context(), r.PathValue("id"), body)
	if err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	jsonOK(w, http.StatusOK, c)
}

func (s *Server) deleteClient(w http.ResponseWriter, r *http.Request, _ auth.Actor) {
	if err := s.Recruiting.DeleteClient(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true})
}

// ─── Contact form ────────────────────────────────────────────────────────────

// submitContact handles POST /api/contact (public)
func (s *Server) submitContact(w http.ResponseWriter, r *http.Request) {
	var body recruiting.Contact
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	c, err := s.Recruiting.SubmitContact(r.Context(), body)
	if err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	jsonOK(w, http.StatusCreated, c)
}

func (s *Server) listContacts(w http.ResponseWriter, r *http.Request, _ auth.Actor) {
	contacts, err := s.Recruiting.ListContacts(r.Context())
	if err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	jsonOK(w, http.StatusOK, contacts)
}
