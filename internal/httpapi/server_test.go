package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"ats/pipeline-service/internal/auth"
	"ats/pipeline-service/internal/blob"
	"ats/pipeline-service/internal/httpapi"
	"ats/pipeline-service/internal/pipeline"
	"ats/pipeline-service/internal/recruiting"
)

type harness struct {
	t          *testing.T
	handler    http.Handler
	adminToken string
	userToken  string
	blobs      *memBlobs
	jobs       *memRecruiting
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	blobs := &memBlobs{objects: map[string]blob.Object{}}
	jobs := &memRecruiting{jobs: map[string]recruiting.Job{}, apps: map[string]recruiting.Application{}}
	authSvc := auth.NewService(
		&memUsers{users: map[string]auth.User{}},
		&memSessions{sessions: map[string]auth.Actor{}},
		blobs, time.Hour, []string{"admin@ats.test"},
	)

	ctx := context.Background()
	_, adminToken, err := authSvc.Register(ctx, auth.RegisterInput{Name: "Admin", Email: "admin@ats.test", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("register admin: %v", err)
	}
	_, userToken, err := authSvc.Register(ctx, auth.RegisterInput{Name: "Jane", Email: "jane@ats.test", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("register user: %v", err)
	}

	srv := httpapi.NewServer(httpapi.Deps{
		Pipeline:   pipeline.NewService(&memCandidates{rows: map[string]pipeline.Candidate{}}, blobs, nil),
		Recruiting: recruiting.NewService(jobs),
		Auth:       authSvc,
		Resumes:    blobs,
		Version:    "test",
	})
	return &harness{t: t, handler: srv.Routes(), adminToken: adminToken, userToken: userToken, blobs: blobs, jobs: jobs}
}

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func (h *harness) do(method, path, token string, body io.Reader, contentType string) (*httptest.ResponseRecorder, response) {
	h.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	var resp response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			h.t.Fatalf("%s %s: decode body %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, resp
}

func (h *harness) doJSON(method, path, token string, v any) (*httptest.ResponseRecorder, response) {
	h.t.Helper()
	var body io.Reader
	if v != nil {
		raw, err := json.Marshal(v)
		if err != nil {
			h.t.Fatal(err)
		}
		body = bytes.NewReader(raw)
	}
	return h.do(method, path, token, body, "application/json")
}

func candidateForm(t *testing.T, fields map[string]string, withResume bool) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if withResume {
		fw, err := mw.CreateFormFile("resume", "jane doe.pdf")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte("%PDF-1.4 resume"))
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func (h *harness) createCandidate(name string) pipeline.Candidate {
	h.t.Helper()
	body, ct := candidateForm(h.t, map[string]string{
		"fullName":   name,
		"email":      strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@mail.test",
		"skills":     "go, sql",
		"experience": "4",
	}, true)
	rec, resp := h.do(http.MethodPost, "/api/candidates", h.adminToken, body, ct)
	if rec.Code != http.StatusCreated {
		h.t.Fatalf("create %s: status %d body %s", name, rec.Code, rec.Body.String())
	}
	var c pipeline.Candidate
	if err := json.Unmarshal(resp.Data, &c); err != nil {
		h.t.Fatal(err)
	}
	return c
}

func decodeCandidate(t *testing.T, resp response) pipeline.Candidate {
	t.Helper()
	var c pipeline.Candidate
	if err := json.Unmarshal(resp.Data, &c); err != nil {
		t.Fatalf("decode candidate: %v", err)
	}
	return c
}

// ── Identity gate ──────────────────────────────────────────────────────────

func TestAdminGate(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		name     string
		token    string
		wantCode int
		wantErr  string
	}{
		{"no token", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"unknown token", "forged", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"candidate role", h.userToken, http.StatusForbidden, "FORBIDDEN"},
		{"admin", h.adminToken, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := h.do(http.MethodGet, "/api/candidates", tt.token, nil, "")
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if resp.Error != tt.wantErr {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantErr)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	rec, _ := h.do(http.MethodGet, "/health", "", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("health = %v", body)
	}
}

// ── Candidate pipeline ─────────────────────────────────────────────────────

func TestCreateCandidate(t *testing.T) {
	h := newHarness(t)
	c := h.createCandidate("Jane Doe")

	if c.Status != pipeline.StatusApplied {
		t.Errorf("status = %q, want APPLIED", c.Status)
	}
	if len(c.Skills) != 2 || c.Skills[0] != "go" || c.Experience != 4 {
		t.Errorf("candidate = %+v", c)
	}
	if !strings.HasPrefix(c.ResumeURL, "http://ats.test/api/resumes/") {
		t.Errorf("resumeUrl = %q", c.ResumeURL)
	}
	if len(h.blobs.objects) != 1 {
		t.Errorf("stored blobs = %d, want 1", len(h.blobs.objects))
	}
}

func TestCreateCandidate_IgnoresStatus(t *testing.T) {
	h := newHarness(t)
	body, ct := candidateForm(t, map[string]string{
		"fullName": "Jane",
		"email":    "jane@mail.test",
		"status":   "SELECTED",
	}, true)
	rec, resp := h.do(http.MethodPost, "/api/candidates", h.adminToken, body, ct)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	if c := decodeCandidate(t, resp); c.Status != pipeline.StatusApplied {
		t.Errorf("status = %q, want APPLIED", c.Status)
	}
}

func TestCreateCandidate_Errors(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		name    string
		fields  map[string]string
		resume  bool
		wantErr string
	}{
		{"missing resume", map[string]string{"fullName": "A", "email": "a@b.co"}, false, pipeline.CodeResumeRequired},
		{"bad experience", map[string]string{"fullName": "A", "email": "a@b.co", "experience": "lots"}, true, "VALIDATION_ERROR"},
		{"missing name", map[string]string{"email": "a@b.co"}, true, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := candidateForm(t, tt.fields, tt.resume)
			rec, resp := h.do(http.MethodPost, "/api/candidates", h.adminToken, body, ct)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if resp.Error != tt.wantErr || resp.Success {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}

func TestListCandidates_Pagination(t *testing.T) {
	h := newHarness(t)
	for _, name := range []string{"A One", "B Two", "C Three"} {
		h.createCandidate(name)
	}

	rec, resp := h.do(http.MethodGet, "/api/candidates?page=2&limit=2", h.adminToken, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var list struct {
		Candidates []pipeline.Candidate `json:"candidates"`
		Pagination struct {
			TotalCandidates int64 `json:"totalCandidates"`
			TotalPages      int64 `json:"totalPages"`
			CurrentPage     int   `json:"currentPage"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(resp.Data, &list); err != nil {
		t.Fatal(err)
	}
	if list.Pagination.TotalCandidates != 3 || list.Pagination.TotalPages != 2 || list.Pagination.CurrentPage != 2 {
		t.Errorf("pagination = %+v", list.Pagination)
	}
	if len(list.Candidates) != 1 || list.Candidates[0].FullName != "A One" {
		t.Errorf("page 2 = %+v", list.Candidates)
	}

	// Malformed paging falls back to the defaults.
	_, resp = h.do(http.MethodGet, "/api/candidates?page=zero&limit=-3", h.adminToken, nil, "")
	json.Unmarshal(resp.Data, &list)
	if list.Pagination.CurrentPage != 1 || len(list.Candidates) != 3 {
		t.Errorf("fallback paging = %+v, %d items", list.Pagination, len(list.Candidates))
	}

	rec, resp = h.do(http.MethodGet, "/api/candidates?status=HIRED", h.adminToken, nil, "")
	if rec.Code != http.StatusBadRequest || resp.Error != "VALIDATION_ERROR" {
		t.Errorf("bad status filter = %d %+v", rec.Code, resp)
	}
}

func TestPipelineFlow(t *testing.T) {
	h := newHarness(t)
	c := h.createCandidate("Jane Doe")
	base := "/api/candidates/" + c.ID

	rec, resp := h.doJSON(http.MethodPatch, base+"/status", h.adminToken, map[string]string{"status": "SHORTLISTED"})
	if rec.Code != http.StatusOK || decodeCandidate(t, resp).Status != pipeline.StatusShortlisted {
		t.Fatalf("set status = %d %s", rec.Code, rec.Body.String())
	}

	for _, name := range []string{"Technical", "HR"} {
		rec, resp = h.doJSON(http.MethodPost, base+"/interview", h.adminToken, map[string]any{
			"roundName":   name,
			"scheduledAt": "2026-11-02T10:00:00Z",
			"interviewer": "Bob",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("schedule %s = %d %s", name, rec.Code, rec.Body.String())
		}
	}
	got := decodeCandidate(t, resp)
	if got.Status != pipeline.StatusInterviewScheduled || len(got.InterviewRounds) != 2 {
		t.Fatalf("after scheduling = %+v", got)
	}

	rec, resp = h.doJSON(http.MethodPatch, base+"/interview", h.adminToken, map[string]any{
		"roundIndex": 0, "roundStatus": "PASSED", "feedback": "strong",
	})
	if rec.Code != http.StatusOK || decodeCandidate(t, resp).Status != pipeline.StatusInProgress {
		t.Fatalf("first pass = %d %s", rec.Code, rec.Body.String())
	}

	rec, resp = h.doJSON(http.MethodPatch, base+"/interview", h.adminToken, map[string]any{
		"roundIndex": 1, "roundStatus": "PASSED",
	})
	if rec.Code != http.StatusOK || decodeCandidate(t, resp).Status != pipeline.StatusSelected {
		t.Fatalf("second pass = %d %s", rec.Code, rec.Body.String())
	}
}

func TestUpdateInterview_Errors(t *testing.T) {
	h := newHarness(t)
	c := h.createCandidate("Jane Doe")
	path := "/api/candidates/" + c.ID + "/interview"

	tests := []struct {
		name     string
		body     map[string]any
		wantCode int
		wantErr  string
	}{
		{"no rounds yet", map[string]any{"roundIndex": 0, "roundStatus": "PASSED"}, http.StatusBadRequest, pipeline.CodeRoundNotFound},
		{"missing index", map[string]any{"roundStatus": "PASSED"}, http.StatusBadRequest, pipeline.CodeRoundNotFound},
		{"bad result", map[string]any{"roundIndex": 0, "roundStatus": "MAYBE"}, http.StatusBadRequest, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := h.doJSON(http.MethodPatch, path, h.adminToken, tt.body)
			if rec.Code != tt.wantCode || resp.Error != tt.wantErr {
				t.Errorf("got %d %q, want %d %q", rec.Code, resp.Error, tt.wantCode, tt.wantErr)
			}
		})
	}

	rec, resp := h.doJSON(http.MethodPost, path, h.adminToken, map[string]any{"roundName": "HR"})
	if rec.Code != http.StatusBadRequest || resp.Error != "VALIDATION_ERROR" {
		t.Errorf("schedule without scheduledAt = %d %+v", rec.Code, resp)
	}
}

func TestScheduleInterview_ScheduledAtFormats(t *testing.T) {
	h := newHarness(t)
	c := h.createCandidate("Jane Doe")
	path := "/api/candidates/" + c.ID + "/interview"

	rec, resp := h.doJSON(http.MethodPost, path, h.adminToken, map[string]any{
		"roundName": "Technical", "scheduledAt": "2026-05-01T10:00",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("datetime-local = %d %s", rec.Code, rec.Body.String())
	}
	got := decodeCandidate(t, resp)
	want := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	if len(got.InterviewRounds) != 1 || !got.InterviewRounds[0].ScheduledAt.Equal(want) {
		t.Errorf("rounds = %+v, want one at %v", got.InterviewRounds, want)
	}

	rec, resp = h.doJSON(http.MethodPost, path, h.adminToken, map[string]any{
		"roundName": "HR", "scheduledAt": "next tuesday",
	})
	if rec.Code != http.StatusBadRequest || resp.Error != "VALIDATION_ERROR" || !strings.Contains(resp.Message, "scheduledAt") {
		t.Errorf("garbage = %d %+v", rec.Code, resp)
	}
}

func TestCandidateNotFound(t *testing.T) {
	h := newHarness(t)
	const path = "/api/candidates/3f0f8f7e-0000-4000-8000-000000000000"
	tests := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, path, nil},
		{http.MethodDelete, path, nil},
		{http.MethodPatch, path + "/status", map[string]string{"status": "REJECTED"}},
		{http.MethodPost, path + "/interview", map[string]string{"roundName": "HR", "scheduledAt": "2026-11-02T10:00:00Z"}},
	}
	for _, tt := range tests {
		rec, resp := h.doJSON(tt.method, tt.path, h.adminToken, tt.body)
		if rec.Code != http.StatusNotFound || resp.Error != pipeline.CodeCandidateNotFound {
			t.Errorf("%s %s = %d %q", tt.method, tt.path, rec.Code, resp.Error)
		}
	}
}

func TestDeleteCandidate(t *testing.T) {
	h := newHarness(t)
	c := h.createCandidate("Jane Doe")

	rec, resp := h.do(http.MethodDelete, "/api/candidates/"+c.ID, h.adminToken, nil, "")
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("delete = %d %s", rec.Code, rec.Body.String())
	}
	rec, _ = h.do(http.MethodGet, "/api/candidates/"+c.ID, h.adminToken, nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d", rec.Code)
	}
}

func TestExportCandidates(t *testing.T) {
	h := newHarness(t)
	h.createCandidate("Jane Doe")

	rec, _ := h.do(http.MethodGet, "/api/candidates/export", h.adminToken, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, ".xlsx") {
		t.Errorf("content disposition = %q", cd)
	}
	// xlsx is a zip archive
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("body is not an xlsx archive")
	}
}

// ── Accounts & résumés ─────────────────────────────────────────────────────

func TestRegisterAndLogin(t *testing.T) {
	h := newHarness(t)

	rec, resp := h.doJSON(http.MethodPost, "/api/auth/register", "", auth.RegisterInput{
		Name: "Sam", Email: "sam@ats.test", Password: "long-enough",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register = %d %s", rec.Code, rec.Body.String())
	}

	rec, resp = h.doJSON(http.MethodPost, "/api/auth/register", "", auth.RegisterInput{
		Name: "Sam", Email: "SAM@ats.test", Password: "long-enough",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register = %d %+v", rec.Code, resp)
	}

	rec, resp = h.doJSON(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "sam@ats.test", "password": "nope-nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password = %d", rec.Code)
	}

	rec, resp = h.doJSON(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "sam@ats.test", "password": "long-enough"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login = %d", rec.Code)
	}
	var sess struct {
		Token string    `json:"token"`
		User  auth.User `json:"user"`
	}
	json.Unmarshal(resp.Data, &sess)
	if sess.Token == "" || sess.User.Role != auth.RoleCandidate {
		t.Fatalf("session = %+v", sess)
	}

	rec, _ = h.do(http.MethodGet, "/api/auth/me", sess.Token, nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("me = %d", rec.Code)
	}
	rec, _ = h.do(http.MethodPost, "/api/auth/logout", sess.Token, nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("logout = %d", rec.Code)
	}
	rec, _ = h.do(http.MethodGet, "/api/auth/me", sess.Token, nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("me after logout = %d", rec.Code)
	}
}

func TestDownloadResume(t *testing.T) {
	h := newHarness(t)
	c := h.createCandidate("Jane Doe")

	name := c.ResumeURL[strings.LastIndex(c.ResumeURL, "/")+1:]
	rec, _ := h.do(http.MethodGet, "/api/resumes/"+name, "", nil, "")
	if rec.Code != http.StatusOK || rec.Body.String() != "%PDF-1.4 resume" {
		t.Errorf("download = %d %q", rec.Code, rec.Body.String())
	}

	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	rec, resp := h.do(http.MethodGet, "/api/resumes/missing.pdf", "", nil, "")
	if rec.Code != http.StatusNotFound || resp.Error != "RESUME_NOT_FOUND" {
		t.Errorf("missing = %d %+v", rec.Code, resp)
	}
}

func TestDownloadResume_HTMLServedAsAttachment(t *testing.T) {
	h := newHarness(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="resume"; filename="cv.html"`)
	hdr.Set("Content-Type", "text/html")
	fw, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("<html><script>alert(document.cookie)</script></html>"))
	mw.Close()

	rec, resp := h.do(http.MethodPut, "/api/users/me/resume", h.userToken, &buf, mw.FormDataContentType())
	if rec.Code != http.StatusOK {
		t.Fatalf("upload = %d %s", rec.Code, rec.Body.String())
	}
	var u auth.User
	if err := json.Unmarshal(resp.Data, &u); err != nil {
		t.Fatal(err)
	}
	name := u.ResumeURL[strings.LastIndex(u.ResumeURL, "/")+1:]

	rec, _ = h.do(http.MethodGet, "/api/resumes/"+name, "", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("download = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); strings.Contains(ct, "html") {
		t.Errorf("Content-Type = %q, must not be html", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
}

// ── Jobs & applications ────────────────────────────────────────────────────

func TestApplyToJob(t *testing.T) {
	h := newHarness(t)

	rec, resp := h.doJSON(http.MethodPost, "/api/jobs", h.adminToken, recruiting.JobInput{
		Title: "Backend Engineer", Company: "Acme", EmploymentType: "Full-Time", Openings: 1,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create job = %d %s", rec.Code, rec.Body.String())
	}
	var job recruiting.Job
	json.Unmarshal(resp.Data, &job)

	rec, _ = h.do(http.MethodGet, "/api/jobs", "", nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("public job listing = %d", rec.Code)
	}

	apply := "/api/jobs/" + job.ID + "/apply"
	rec, _ = h.do(http.MethodPost, apply, h.userToken, nil, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("apply = %d %s", rec.Code, rec.Body.String())
	}
	rec, resp = h.do(http.MethodPost, apply, h.userToken, nil, "")
	if rec.Code != http.StatusConflict || resp.Error != "ALREADY_APPLIED" {
		t.Errorf("second apply = %d %+v", rec.Code, resp)
	}

	rec, resp = h.do(http.MethodGet, "/api/applications/me", h.userToken, nil, "")
	var mine []recruiting.Application
	json.Unmarshal(resp.Data, &mine)
	if rec.Code != http.StatusOK || len(mine) != 1 || mine[0].Status != recruiting.ApplicationApplied {
		t.Errorf("my applications = %d %+v", rec.Code, mine)
	}

	rec, _ = h.do(http.MethodPost, "/api/jobs", h.userToken, nil, "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("candidate creating a job = %d", rec.Code)
	}
}

// ── Helpers ────────────────────────────────────────────────────────────────

func TestParsePage(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 5},
		{"3", 3},
		{" 7 ", 7},
		{"0", 5},
		{"-2", 5},
		{"abc", 5},
		{"2.5", 5},
	}
	for _, tt := range tests {
		if got := httpapi.ParsePage(tt.raw, 5); got != tt.want {
			t.Errorf("ParsePage(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}
