package pipeline_test

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"ats/pipeline-service/internal/pipeline"
)

// memRepo is an in-memory Repository with the same compare-and-swap
// semantics as the Postgres store.
type memRepo struct {
	mu      sync.Mutex
	rows    map[string]pipeline.Candidate
	seq     int
	writes  int
	failErr error

	// conflicts makes the next N UpdateCandidate calls lose the race.
	conflicts int
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[string]pipeline.Candidate)}
}

func clone(c pipeline.Candidate) pipeline.Candidate {
	c.Skills = append([]string(nil), c.Skills...)
	c.InterviewRounds = append([]pipeline.InterviewRound{}, c.InterviewRounds...)
	return c
}

func (m *memRepo) InsertCandidate(_ context.Context, c *pipeline.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.seq++
	now := time.Date(2026, 1, 1, 0, 0, m.seq, 0, time.UTC)
	c.CreatedAt, c.UpdatedAt, c.Version = now, now, 1
	m.rows[c.ID] = clone(*c)
	m.writes++
	return nil
}

func (m *memRepo) GetCandidate(_ context.Context, id string) (*pipeline.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, pipeline.ErrNotFound
	}
	out := clone(c)
	return &out, nil
}

func (m *memRepo) UpdateCandidate(_ context.Context, c *pipeline.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	stored, ok := m.rows[c.ID]
	if !ok {
		return pipeline.ErrNotFound
	}
	if m.conflicts > 0 {
		m.conflicts--
		stored.Version++
		m.rows[c.ID] = stored
		return pipeline.ErrVersionConflict
	}
	if stored.Version != c.Version {
		return pipeline.ErrVersionConflict
	}
	c.Version++
	c.UpdatedAt = stored.UpdatedAt.Add(time.Second)
	m.rows[c.ID] = clone(*c)
	m.writes++
	return nil
}

func (m *memRepo) DeleteCandidate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return pipeline.ErrNotFound
	}
	delete(m.rows, id)
	m.writes++
	return nil
}

func (m *memRepo) sorted(status pipeline.Status) []pipeline.Candidate {
	all := make([]pipeline.Candidate, 0, len(m.rows))
	for _, c := range m.rows {
		if status != "" && c.Status != status {
			continue
		}
		all = append(all, clone(c))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return all
}

func (m *memRepo) ListCandidates(_ context.Context, f pipeline.ListFilter) ([]pipeline.Candidate, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, 0, m.failErr
	}
	all := m.sorted(f.Status)
	total := int64(len(all))
	if f.Offset >= len(all) {
		return []pipeline.Candidate{}, total, nil
	}
	end := f.Offset + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[f.Offset:end], total, nil
}

func (m *memRepo) ListCandidatesWithPendingRounds(_ context.Context) ([]pipeline.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []pipeline.Candidate
	for _, c := range m.sorted("") {
		for _, r := range c.InterviewRounds {
			if r.RoundStatus == pipeline.RoundPending {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

// memBlobs records uploads.
type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newMemBlobs() *memBlobs { return &memBlobs{objects: make(map[string][]byte)} }

func (b *memBlobs) Upload(_ context.Context, key, _ string, body io.Reader) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return "https://blobs.example.test/" + key, nil
}

// recordingPublisher keeps every published payload per channel.
type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]any
	err    error
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{events: make(map[string][]any)}
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events[channel] = append(p.events[channel], payload)
	return nil
}

func (p *recordingPublisher) count(channel string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events[channel])
}

var errStoreDown = errors.New("connection refused")
