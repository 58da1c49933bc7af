package httpapi_test

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"ats/pipeline-service/internal/auth"
	"ats/pipeline-service/internal/blob"
	"ats/pipeline-service/internal/pipeline"
	"ats/pipeline-service/internal/recruiting"
)

// ── pipeline ───────────────────────────────────────────────────────────────

type memCandidates struct {
	mu   sync.Mutex
	rows map[string]pipeline.Candidate
	seq  int
}

func (m *memCandidates) InsertCandidate(_ context.Context, c *pipeline.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	c.CreatedAt = time.Date(2026, 1, 1, 0, 0, m.seq, 0, time.UTC)
	c.Version = 1
	m.rows[c.ID] = *c
	return nil
}

func (m *memCandidates) GetCandidate(_ context.Context, id string) (*pipeline.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, pipeline.ErrNotFound
	}
	c.InterviewRounds = append([]pipeline.InterviewRound{}, c.InterviewRounds...)
	return &c, nil
}

func (m *memCandidates) UpdateCandidate(_ context.Context, c *pipeline.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rows[c.ID]
	if !ok {
		return pipeline.ErrNotFound
	}
	if stored.Version != c.Version {
		return pipeline.ErrVersionConflict
	}
	c.Version++
	m.rows[c.ID] = *c
	return nil
}

func (m *memCandidates) DeleteCandidate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return pipeline.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memCandidates) ListCandidates(_ context.Context, f pipeline.ListFilter) ([]pipeline.Candidate, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]pipeline.Candidate, 0)
	for _, c := range m.rows {
		if f.Status == "" || c.Status == f.Status {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	if f.Offset >= len(all) {
		return []pipeline.Candidate{}, total, nil
	}
	end := min(f.Offset+f.Limit, len(all))
	return all[f.Offset:end], total, nil
}

func (m *memCandidates) ListCandidatesWithPendingRounds(context.Context) ([]pipeline.Candidate, error) {
	return nil, nil
}

type memBlobs struct {
	mu      sync.Mutex
	objects map[string]blob.Object
}

func (m *memBlobs) Upload(_ context.Context, key, contentType string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = blob.Object{Key: key, ContentType: contentType, Data: data}
	return "http://ats.test/api/" + key, nil
}

func (m *memBlobs) Open(_ context.Context, key string) (*blob.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, blob.ErrNotFound
	}
	return &obj, nil
}

// ── auth ───────────────────────────────────────────────────────────────────

type memUsers struct {
	mu    sync.Mutex
	users map[string]auth.User
}

func (m *memUsers) InsertUser(_ context.Context, u *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users {
		if x.Email == u.Email {
			return auth.ErrDuplicate
		}
	}
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) GetUser(_ context.Context, id string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (m *memUsers) UpdateUserResume(_ context.Context, id, url string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	u.ResumeURL = url
	m.users[id] = u
	return &u, nil
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]auth.Actor
}

func (m *memSessions) Save(_ context.Context, token string, a auth.Actor, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = a
	return nil
}

func (m *memSessions) Get(_ context.Context, token string) (*auth.Actor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.sessions[token]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return &a, nil
}

func (m *memSessions) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

// ── recruiting ─────────────────────────────────────────────────────────────

// memRecruiting implements the job and application half of
// recruiting.Repository; the embedded interface panics on anything else.
type memRecruiting struct {
	recruiting.Repository
	mu   sync.Mutex
	jobs map[string]recruiting.Job
	apps map[string]recruiting.Application
}

func (m *memRecruiting) InsertJob(_ context.Context, j *recruiting.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[j.ID] = *j
	return nil
}

func (m *memRecruiting) GetJob(_ context.Context, id string) (*recruiting.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, recruiting.ErrNotFound
	}
	return &j, nil
}

func (m *memRecruiting) ListJobs(_ context.Context, activeOnly bool) ([]recruiting.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]recruiting.Job, 0)
	for _, j := range m.jobs {
		if !activeOnly || j.IsActive {
			out = append(out, j)
		}
	}
	return out, nil
}

func (m *memRecruiting) InsertApplication(_ context.Context, a *recruiting.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.apps {
		if x.UserID == a.UserID && x.JobID == a.JobID {
			return recruiting.ErrDuplicate
		}
	}
	m.apps[a.ID] = *a
	return nil
}

func (m *memRecruiting) ListApplicationsByUser(_ context.Context, userID string) ([]recruiting.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]recruiting.Application, 0)
	for _, a := range m.apps {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}
