package pipeline

import (
	"context"
	"io"
	"strings"
	"time"

	"ats/pipeline-service/internal/apperr"
)

// Candidate is the JSON shape returned to the front-end and the gRPC adapter.
type Candidate struct {
	ID              string           `json:"_id"`
	FullName        string           `json:"fullName"`
	Email           string           `json:"email"`
	Phone           string           `json:"phone"`
	Position        string           `json:"position"`
	ResumeURL       string           `json:"resumeUrl"`
	AppliedDate     time.Time        `json:"appliedDate"`
	Skills          []string         `json:"skills"`
	Experience      float64          `json:"experience"`
	Status          Status           `json:"status"`
	InterviewRounds []InterviewRound `json:"interviewRounds"`
	Version         int64            `json:"-"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// InterviewRound is owned by its Candidate and addressed by its index in
// Candidate.InterviewRounds. Rounds are never removed or reordered.
type InterviewRound struct {
	RoundName   string      `json:"roundName"`
	ScheduledAt time.Time   `json:"scheduledAt"`
	Interviewer string      `json:"interviewer,omitempty"`
	RoundStatus RoundStatus `json:"roundStatus"`
	Feedback    string      `json:"feedback,omitempty"`
}

// CandidateInput carries the writable fields of a new candidate.
// Status is accepted so callers can forward raw form input, but it is
// always ignored: new candidates start at APPLIED.
type CandidateInput struct {
	FullName   string
	Email      string
	Phone      string
	Position   string
	Skills     string
	Experience float64
	Status     string
}

// RoundInput carries the fields of a round to schedule.
type RoundInput struct {
	RoundName   string    `json:"roundName"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Interviewer string    `json:"interviewer"`
}

// scheduleLayouts are accepted by ParseScheduledAt, most specific first.
// The zone-less forms are what an HTML datetime-local input submits.
var scheduleLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseScheduledAt parses a round time. Values without a zone are UTC.
func ParseScheduledAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, apperr.Validationf("scheduledAt is required")
	}
	for _, layout := range scheduleLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperr.Validationf("scheduledAt %q must be RFC 3339 or YYYY-MM-DDTHH:MM", raw)
}

// MaxResumeBytes caps a résumé upload.
const MaxResumeBytes = 10 << 20

// ResumeFile is an uploaded résumé as received from the transport layer.
// Size is the declared length in bytes, 0 when unknown.
type ResumeFile struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Check rejects a missing file and a declared size above MaxResumeBytes.
func (f *ResumeFile) Check() error {
	if f == nil || f.Body == nil || f.Filename == "" {
		return ErrResumeRequired
	}
	if f.Size > MaxResumeBytes {
		return ErrResumeTooLarge
	}
	return nil
}

// Page is one page of the candidate listing.
type Page struct {
	Candidates      []Candidate `json:"candidates"`
	TotalCandidates int64       `json:"totalCandidates"`
	TotalPages      int64       `json:"totalPages"`
	CurrentPage     int         `json:"currentPage"`
}

// UpcomingRound identifies a pending round that starts soon.
type UpcomingRound struct {
	CandidateID   string
	CandidateName string
	Email         string
	RoundIndex    int
	Round         InterviewRound
}

// ListFilter narrows a candidate listing.
type ListFilter struct {
	Status Status
	Offset int
	Limit  int
}

// Repository is the Entity Store contract for candidates.
//
// UpdateCandidate writes only Status and InterviewRounds. It is a
// compare-and-swap on Candidate.Version: it fails with ErrVersionConflict
// when the stored version differs and bumps the version on success.
type Repository interface {
	InsertCandidate(ctx context.Context, c *Candidate) error
	GetCandidate(ctx context.Context, id string) (*Candidate, error)
	UpdateCandidate(ctx context.Context, c *Candidate) error
	DeleteCandidate(ctx context.Context, id string) error
	ListCandidates(ctx context.Context, f ListFilter) ([]Candidate, int64, error)
	ListCandidatesWithPendingRounds(ctx context.Context) ([]Candidate, error)
}

// BlobStore is the object storage contract for résumé files.
type BlobStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (publicURL string, err error)
}

// Publisher broadcasts pipeline events. Failures are never fatal.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// SplitSkills splits a comma-delimited skills string, trimming blanks.
func SplitSkills(raw string) []string {
	skills := make([]string, 0)
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}
	return skills
}
