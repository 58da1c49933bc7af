package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"ats/pipeline-service/internal/apperr"
)

// ─── Service ─────────────────────────────────────────────────────────────────

// maxUpdateAttempts bounds the re-read/re-apply loop on version conflicts.
const maxUpdateAttempts = 3

// Default paging used when the caller gives no usable page or limit.
const (
	DefaultPage  = 1
	DefaultLimit = 5
)

// Event channels published on Redis.
const (
	ChannelStatusChanged      = "EVENT_CANDIDATE_STATUS_CHANGED"
	ChannelInterviewScheduled = "EVENT_INTERVIEW_SCHEDULED"
	ChannelInterviewReminder  = "EVENT_INTERVIEW_REMINDER"
)

// Service owns every write to Candidate.Status and Candidate.InterviewRounds.
// It has no dependency on net/http: the REST and gRPC layers both use it.
type Service struct {
	repo  Repository
	blobs BlobStore
	pub   Publisher
	now   func() time.Time
}

// NewService returns a configured Service. blobs may be nil when résumé
// storage is not configured; pub may be nil to disable events.
func NewService(repo Repository, blobs BlobStore, pub Publisher) *Service {
	return &Service{
		repo:  repo,
		blobs: blobs,
		pub:   pub,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// ─── Creation & queries ──────────────────────────────────────────────────────

// CreateCandidate uploads the résumé and stores a new candidate at APPLIED.
// Any status carried by in is ignored.
func (s *Service) CreateCandidate(ctx context.Context, in CandidateInput, resume *ResumeFile) (*Candidate, error) {
	if err := resume.Check(); err != nil {
		return nil, err
	}

	fullName := strings.TrimSpace(in.FullName)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if fullName == "" {
		return nil, apperr.Validationf("fullName is required")
	}
	if email == "" {
		return nil, apperr.Validationf("email is required")
	}
	if in.Experience < 0 {
		return nil, apperr.Validationf("experience must not be negative")
	}

	if s.blobs == nil {
		return nil, ErrStorageNotConfigured
	}

	now := s.now()
	key := ResumeKey(now, resume.Filename)
	url, err := s.blobs.Upload(ctx, key, resume.ContentType, resume.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.Dependency, CodeFailedToUploadResume, err)
	}

	c := &Candidate{
		ID:              uuid.NewString(),
		FullName:        fullName,
		Email:           email,
		Phone:           strings.TrimSpace(in.Phone),
		Position:        strings.TrimSpace(in.Position),
		ResumeURL:       url,
		AppliedDate:     now,
		Skills:          SplitSkills(in.Skills),
		Experience:      in.Experience,
		Status:          StatusApplied,
		InterviewRounds: []InterviewRound{},
	}
	if err := s.repo.InsertCandidate(ctx, c); err != nil {
		return nil, fmt.Errorf("insert candidate: %w", err)
	}

	slog.Info("candidate created", "candidateId", c.ID, "resumeKey", key)
	return c, nil
}

// GetCandidate returns a single candidate by ID.
func (s *Service) GetCandidate(ctx context.Context, id string) (*Candidate, error) {
	return s.load(ctx, id)
}

// ListCandidates returns one page of candidates, newest first. page and
// limit below 1 fall back to DefaultPage and DefaultLimit. An empty status
// lists every candidate.
func (s *Service) ListCandidates(ctx context.Context, page, limit int, status Status) (*Page, error) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}

	items, total, err := s.repo.ListCandidates(ctx, ListFilter{
		Status: status,
		Offset: (page - 1) * limit,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	return &Page{
		Candidates:      items,
		TotalCandidates: total,
		TotalPages:      (total + int64(limit) - 1) / int64(limit),
		CurrentPage:     page,
	}, nil
}

const exportBatch = 200

// AllCandidates walks every page of the listing, newest first.
func (s *Service) AllCandidates(ctx context.Context) ([]Candidate, error) {
	all := make([]Candidate, 0)
	for offset := 0; ; offset += exportBatch {
		items, total, err := s.repo.ListCandidates(ctx, ListFilter{Offset: offset, Limit: exportBatch})
		if err != nil {
			return nil, fmt.Errorf("list candidates: %w", err)
		}
		all = append(all, items...)
		if len(items) < exportBatch || int64(len(all)) >= total {
			return all, nil
		}
	}
}

// DeleteCandidate removes a candidate. Its résumé blob is left in place.
func (s *Service) DeleteCandidate(ctx context.Context, id string) error {
	err := s.repo.DeleteCandidate(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return ErrCandidateNotFound
	}
	if err != nil {
		return fmt.Errorf("delete candidate: %w", err)
	}
	return nil
}

// UpcomingInterviews returns pending rounds scheduled within [from, from+window].
func (s *Service) UpcomingInterviews(ctx context.Context, from time.Time, window time.Duration) ([]UpcomingRound, error) {
	candidates, err := s.repo.ListCandidatesWithPendingRounds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list candidates with pending rounds: %w", err)
	}

	until := from.Add(window)
	var upcoming []UpcomingRound
	for _, c := range candidates {
		for i, r := range c.InterviewRounds {
			if r.RoundStatus != RoundPending {
				continue
			}
			if r.ScheduledAt.Before(from) || r.ScheduledAt.After(until) {
				continue
			}
			upcoming = append(upcoming, UpcomingRound{
				CandidateID:   c.ID,
				CandidateName: c.FullName,
				Email:         c.Email,
				RoundIndex:    i,
				Round:         r,
			})
		}
	}
	return upcoming, nil
}

// ─── Pipeline transitions ────────────────────────────────────────────────────

// SetStatus overrides the candidate status with any known value, whatever
// the current status is.
func (s *Service) SetStatus(ctx context.Context, id, rawStatus string) (*Candidate, error) {
	status, err := ParseStatus(rawStatus)
	if err != nil {
		return nil, apperr.Validationf("%v", err)
	}

	c, from, err := s.mutate(ctx, id, func(c *Candidate) error {
		c.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishStatusChange(ctx, c, from)
	return c, nil
}

// ScheduleInterview appends a PENDING round and moves the candidate to
// INTERVIEW_SCHEDULED, even when it was already further along.
func (s *Service) ScheduleInterview(ctx context.Context, id string, in RoundInput) (*Candidate, error) {
	if in.ScheduledAt.IsZero() {
		return nil, apperr.Validationf("scheduledAt is required")
	}

	round := InterviewRound{
		RoundName:   in.RoundName,
		ScheduledAt: in.ScheduledAt.UTC(),
		Interviewer: in.Interviewer,
		RoundStatus: RoundPending,
	}

	c, from, err := s.mutate(ctx, id, func(c *Candidate) error {
		c.InterviewRounds = append(c.InterviewRounds, round)
		c.Status = StatusInterviewScheduled
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, ChannelInterviewScheduled, map[string]any{
		"type":        ChannelInterviewScheduled,
		"candidateId": c.ID,
		"roundIndex":  len(c.InterviewRounds) - 1,
		"roundName":   round.RoundName,
		"scheduledAt": round.ScheduledAt.Format(time.RFC3339),
		"interviewer": round.Interviewer,
	})
	s.publishStatusChange(ctx, c, from)
	return c, nil
}

// RecordRoundResult stores the outcome and feedback of the round at
// roundIndex and re-evaluates the candidate status with Evaluate.
func (s *Service) RecordRoundResult(ctx context.Context, id string, roundIndex int, rawStatus, feedback string) (*Candidate, error) {
	result, err := ParseRoundStatus(rawStatus)
	if err != nil {
		return nil, apperr.Validationf("%v", err)
	}

	c, from, err := s.mutate(ctx, id, func(c *Candidate) error {
		if roundIndex < 0 || roundIndex >= len(c.InterviewRounds) {
			return ErrRoundNotFound
		}
		c.InterviewRounds[roundIndex].RoundStatus = result
		c.InterviewRounds[roundIndex].Feedback = feedback
		c.Status = Evaluate(c.Status, c.InterviewRounds, result)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishStatusChange(ctx, c, from)
	return c, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (s *Service) load(ctx context.Context, id string) (*Candidate, error) {
	c, err := s.repo.GetCandidate(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrCandidateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	return c, nil
}

// mutate loads the candidate, applies fn and writes it back with a version
// check. On a conflict the whole read-modify-write is replayed so fn always
// sees the latest stored state. fn returning an error aborts before any write.
func (s *Service) mutate(ctx context.Context, id string, fn func(*Candidate) error) (*Candidate, Status, error) {
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		c, err := s.load(ctx, id)
		if err != nil {
			return nil, "", err
		}
		from := c.Status

		if err := fn(c); err != nil {
			return nil, "", err
		}

		err = s.repo.UpdateCandidate(ctx, c)
		switch {
		case err == nil:
			return c, from, nil
		case errors.Is(err, ErrVersionConflict):
			slog.Info("candidate version conflict, retrying", "candidateId", id, "attempt", attempt)
			continue
		case errors.Is(err, ErrNotFound):
			return nil, "", ErrCandidateNotFound
		default:
			return nil, "", fmt.Errorf("update candidate: %w", err)
		}
	}
	return nil, "", ErrConflict
}

func (s *Service) publishStatusChange(ctx context.Context, c *Candidate, from Status) {
	if from == c.Status {
		return
	}
	s.publish(ctx, ChannelStatusChanged, map[string]any{
		"type":        ChannelStatusChanged,
		"candidateId": c.ID,
		"from":        string(from),
		"to":          string(c.Status),
		"at":          s.now().Format(time.RFC3339),
	})
}

// publish is non-fatal: a lost event never fails the transition.
func (s *Service) publish(ctx context.Context, channel string, payload map[string]any) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, channel, payload); err != nil {
		slog.Warn("publish failed", "channel", channel, "err", err)
	}
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ResumeKey derives a collision-resistant object key from the upload time
// and the original file name.
func ResumeKey(at time.Time, filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = unsafeKeyChars.ReplaceAllString(base, "_")
	if base == "" || base == "." || base == "_" {
		base = "resume"
	}
	return fmt.Sprintf("resumes/%d-%s", at.UnixMilli(), base)
}
