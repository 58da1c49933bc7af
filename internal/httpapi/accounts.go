package httpapi

import (
	"errors"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"ats/pipeline-service/internal/apperr"
	"ats/pipeline-service/internal/auth"
	"ats/pipeline-service/internal/blob"
	"ats/pipeline-service/internal/pipeline"
)

var errResumeNotFound = apperr.New(apperr.NotFound, "RESUME_NOT_FOUND", "resume not found")

type session struct {
	Token string     `json:"token"`
	User  *auth.User `json:"user"`
}

// register handles POST /api/auth/register
// @Summary Register an account
// @Tags auth
// @Accept json
// @Produce json
// @Param body body auth.RegisterInput true "Account"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /auth/register [post]
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var body auth.RegisterInput
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	u, token, err := s.Auth.Register(r.Context(), body)
	if err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	jsonOK(w, http.StatusCreated, session{Token: token, User: u})
}

// login handles POST /api/auth/login
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /auth/login [post]
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	u, token, err := s.Auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	jsonOK(w, http.StatusOK, session{Token: token, User: u})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request, _ auth.Actor) {
	if err := s.Auth.Logout(r.Context(), auth.BearerToken(r.Header.Get("Authorization"))); err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request, a auth.Actor) {
	u, err := s.Auth.Me(r.Context(), a)
	if err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	jsonOK(w, http.StatusOK, u)
}

// uploadProfileResume handles PUT /api/users/me/resume
func (s *Server) uploadProfileResume(w http.ResponseWriter, r *http.Request, a auth.Actor) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.fail(w, apperr.Validationf("invalid multipart form (max %d MB)", pipeline.MaxResumeBytes>>20), codeInternal)
		return
	}
	file, cleanup, err := formFile(r, "resume")
	if err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	defer cleanup()

	u, err := s.Auth.UploadResume(r.Context(), a, file)
	if err != nil {
		s.fail(w, err, codeInternal)
		return
	}
	jsonOK(w, http.StatusOK, u)
}

// downloadResume handles GET /api/resumes/{name} for résumés kept in PostgreSQL.
func (s *Server) downloadResume(w http.ResponseWriter, r *http.Request) {
	if s.Resumes == nil {
		s.fail(w, errResumeNotFound, codeInternal)
		return
	}
	obj, err := s.Resumes.Open(r.Context(), "resumes/"+r.PathValue("name"))
	if errors.Is(err, blob.ErrNotFound) {
		s.fail(w, errResumeNotFound, codeInternal)
		return
	}
	if err != nil {
		s.fail(w, err, codeInternal)
		return
	}

	w.Header().Set("Content-Type", servedContentType(obj.Data))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": path.Base(obj.Key)}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(obj.Data)
}

// servedContentType sniffs the stored bytes instead of trusting the
// uploader's type. Markup is served as plain text.
func servedContentType(data []byte) string {
	ct := http.DetectContentType(data)
	if strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "text/xml") {
		return "text/plain; charset=utf-8"
	}
	return ct
}
