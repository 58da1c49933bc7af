// Package httpapi implements the REST surface of the ATS.
//
// Every response uses one envelope:
//
//	{"success": true,  "data": ...}
//	{"success": false, "error": "<CODE>", "message": "..."}
//
// Routes:
//
//	POST   /api/candidates                    → create candidate (multipart, admin)
//	GET    /api/candidates                    → paginated listing (admin)
//	GET    /api/candidates/export             → xlsx workbook (admin)
//	GET    /api/candidates/{id}               → single candidate (admin)
//	PATCH  /api/candidates/{id}/status        → override status (admin)
//	POST   /api/candidates/{id}/interview     → schedule a round (admin)
//	PATCH  /api/candidates/{id}/interview     → record a round result (admin)
//	DELETE /api/candidates/{id}               → delete candidate (admin)
//
// plus the account, job, application, client and contact routes mounted
// by Routes.
package httpapi

import (
	"context"
	"log"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	"ats/pipeline-service/internal/auth"
	"ats/pipeline-service/internal/blob"
	"ats/pipeline-service/internal/pipeline"
	"ats/pipeline-service/internal/recruiting"
)

// maxUploadBytes caps multipart request bodies: one résumé plus form fields.
const maxUploadBytes = pipeline.MaxResumeBytes + 1<<20

// BlobReader serves stored résumé objects.
type BlobReader interface {
	Open(ctx context.Context, key string) (*blob.Object, error)
}

// Deps are the services behind the REST surface. Resumes may be nil when
// résumés are not kept in PostgreSQL.
type Deps struct {
	Pipeline   *pipeline.Service
	Recruiting *recruiting.Service
	Auth       *auth.Service
	Resumes    BlobReader
	Version    string
}

// Server holds shared dependencies.
type Server struct {
	Deps
	now func() time.Time
}

// NewServer returns a configured Server.
func NewServer(d Deps) *Server {
	return &Server{Deps: d, now: time.Now}
}

// Routes mounts every route on a fresh mux wrapped in request logging.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	mux.HandleFunc("GET /health", s.health)

	// Candidate pipeline
	mux.HandleFunc("POST /api/candidates", s.admin(s.createCandidate))
	mux.HandleFunc("GET /api/candidates", s.admin(s.listCandidates))
	mux.HandleFunc("GET /api/candidates/export", s.admin(s.exportCandidates))
	mux.HandleFunc("GET /api/candidates/{id}", s.admin(s.getCandidate))
	mux.HandleFunc("PATCH /api/candidates/{id}/status", s.admin(s.updateStatus))
	mux.HandleFunc("POST /api/candidates/{id}/interview", s.admin(s.scheduleInterview))
	mux.HandleFunc("PATCH /api/candidates/{id}/interview", s.admin(s.updateInterview))
	mux.HandleFunc("DELETE /api/candidates/{id}", s.admin(s.deleteCandidate))

	// Accounts
	mux.HandleFunc("POST /api/auth/register", s.register)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("POST /api/auth/logout", s.user(s.logout))
	mux.HandleFunc("GET /api/auth/me", s.user(s.me))
	mux.HandleFunc("PUT /api/users/me/resume", s.user(s.uploadProfileResume))
	mux.HandleFunc("GET /api/resumes/{name}", s.downloadResume)

	// Jobs & applications
	mux.HandleFunc("GET /api/jobs", s.listJobs)
	mux.HandleFunc("POST /api/jobs", s.admin(s.createJob))
	mux.HandleFunc("GET /api/jobs/{id}", s.getJob)
	mux.HandleFunc("PUT /api/jobs/{id}", s.admin(s.updateJob))
	mux.HandleFunc("DELETE /api/jobs/{id}", s.admin(s.deleteJob))
	mux.HandleFunc("POST /api/jobs/{id}/apply", s.user(s.applyToJob))
	mux.HandleFunc("GET /api/applications/me", s.user(s.myApplications))
	mux.HandleFunc("GET /api/applications", s.admin(s.listApplications))
	mux.HandleFunc("PATCH /api/applications/{id}/status", s.admin(s.updateApplicationStatus))

	// Clients & contact form
	mux.HandleFunc("GET /api/clients", s.admin(s.listClients))
	mux.HandleFunc("POST /api/clients", s.admin(s.createClient))
	mux.HandleFunc("GET /api/clients/{id}", s.admin(s.getClient))
	mux.HandleFunc("PUT /api/clients/{id}", s.admin(s.updateClient))
	mux.HandleFunc("DELETE /api/clients/{id}", s.admin(s.deleteClient))
	mux.HandleFunc("POST /api/contact", s.submitContact)
	mux.HandleFunc("GET /api/contact", s.admin(s.listContacts))

	return loggingMiddleware(mux)
}

// ─── Identity gate ───────────────────────────────────────────────────────────

type actorHandler func(w http.ResponseWriter, r *http.Request, a auth.Actor)

// user requires any valid session.
func (s *Server) user(next actorHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := s.Auth.Authenticate(r.Context(), auth.BearerToken(r.Header.Get("Authorization")))
		if err != nil {
			s.fail(w, err, codeInternal)
			return
		}
		next(w, r, *a)
	}
}

// admin requires a session with the admin role.
func (s *Server) admin(next actorHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := s.Auth.RequireAdmin(r.Context(), auth.BearerToken(r.Header.Get("Authorization")))
		if err != nil {
			s.fail(w, err, codeInternal)
			return
		}
		next(w, r, *a)
	}
}

// ─── Misc ────────────────────────────────────────────────────────────────────

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "ats-pipeline",
		"version": s.Version,
	})
}

// statusRecorder captures the status code for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("[ats] %s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
