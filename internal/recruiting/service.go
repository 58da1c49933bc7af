package recruiting

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"ats/pipeline-service/internal/apperr"
)

// Wire codes.
var (
	ErrJobNotFound         = apperr.New(apperr.NotFound, "JOB_NOT_FOUND", "job not found")
	ErrJobClosed           = apperr.New(apperr.Validation, "JOB_NOT_ACTIVE", "job is no longer accepting applications")
	ErrClientNotFound      = apperr.New(apperr.NotFound, "CLIENT_NOT_FOUND", "client not found")
	ErrApplicationNotFound = apperr.New(apperr.NotFound, "APPLICATION_NOT_FOUND", "application not found")
	ErrAlreadyApplied      = apperr.New(apperr.Conflict, "ALREADY_APPLIED", "you have already applied to this job")
)

// Service implements job, client, application and contact operations.
type Service struct {
	repo Repository
}

// NewService returns a configured Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ─── Jobs ────────────────────────────────────────────────────────────────────

// ListJobs returns job postings, newest first.
func (s *Service) ListJobs(ctx context.Context, activeOnly bool) ([]Job, error) {
	jobs, err := s.repo.ListJobs(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// GetJob returns a single job.
func (s *Service) GetJob(ctx context.Context, id string) (*Job, error) {
	j, err := s.repo.GetJob(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrJobNotFound, "get job")
	}
	return j, nil
}

// CreateJob validates and stores a new posting.
func (s *Service) CreateJob(ctx context.Context, in JobInput) (*Job, error) {
	j := &Job{ID: uuid.NewString(), IsActive: true}
	if err := applyJobInput(j, in); err != nil {
		return nil, err
	}
	if err := s.repo.InsertJob(ctx, j); err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return j, nil
}

// UpdateJob replaces the writable fields of a posting.
func (s *Service) UpdateJob(ctx context.Context, id string, in JobInput) (*Job, error) {
	j, err := s.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyJobInput(j, in); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateJob(ctx, j); err != nil {
		return nil, notFound(err, ErrJobNotFound, "update job")
	}
	return j, nil
}

// DeleteJob removes a posting and, through the store, its applications.
func (s *Service) DeleteJob(ctx context.Context, id string) error {
	if err := s.repo.DeleteJob(ctx, id); err != nil {
		return notFound(err, ErrJobNotFound, "delete job")
	}
	return nil
}

func applyJobInput(j *Job, in JobInput) error {
	title := strings.TrimSpace(in.Title)
	company := strings.TrimSpace(in.Company)
	if title == "" || company == "" {
		return apperr.Validationf("title and company are required")
	}
	et, err := ParseEmploymentType(in.EmploymentType)
	if err != nil {
		return apperr.Validationf("%v", err)
	}
	if in.Openings < 1 {
		return apperr.Validationf("openings must be a positive integer")
	}

	j.Title = title
	j.Company = company
	j.Location = strings.TrimSpace(in.Location)
	j.EmploymentType = et
	j.Experience = strings.TrimSpace(in.Experience)
	j.Openings = in.Openings
	j.Description = in.Description
	if in.IsActive != nil {
		j.IsActive = *in.IsActive
	}
	return nil
}

// ─── Clients ─────────────────────────────────────────────────────────────────

// ListClients returns every client, newest first.
func (s *Service) ListClients(ctx context.Context) ([]Client, error) {
	clients, err := s.repo.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

// GetClient returns a single client.
func (s *Service) GetClient(ctx context.Context, id string) (*Client, error) {
	c, err := s.repo.GetClient(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrClientNotFound, "get client")
	}
	return c, nil
}

// CreateClient validates and stores a new client.
func (s *Service) CreateClient(ctx context.Context, in Client) (*Client, error) {
	in.ID = uuid.NewString()
	if err := normalizeClient(&in); err != nil {
		return nil, err
	}
	if err := s.repo.InsertClient(ctx, &in); err != nil {
		return nil, fmt.Errorf("insert client: %w", err)
	}
	return &in, nil
}

// UpdateClient replaces the writable fields of a client.
func (s *Service) UpdateClient(ctx context.Context, id string, in Client) (*Client, error) {
	existing, err := s.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	in.ID = existing.ID
	in.CreatedAt = existing.CreatedAt
	if err := normalizeClient(&in); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateClient(ctx, &in); err != nil {
		return nil, notFound(err, ErrClientNotFound, "update client")
	}
	return &in, nil
}

// DeleteClient removes a client.
func (s *Service) DeleteClient(ctx context.Context, id string) error {
	if err := s.repo.DeleteClient(ctx, id); err != nil {
		return notFound(err, ErrClientNotFound, "delete client")
	}
	return nil
}

func normalizeClient(c *Client) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return apperr.Validationf("name is required")
	}
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return apperr.Validationf("invalid email %q", c.Email)
		}
	}
	return nil
}

// ─── Applications ────────────────────────────────────────────────────────────

// Apply records that userID applied to jobID, at status Applied.
func (s *Service) Apply(ctx context.Context, userID, jobID string) (*Application, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.IsActive {
		return nil, ErrJobClosed
	}

	a := &Application{
		ID:       uuid.NewString(),
		UserID:   userID,
		JobID:    job.ID,
		JobTitle: job.Title,
		Company:  job.Company,
		Status:   ApplicationApplied,
	}
	err = s.repo.InsertApplication(ctx, a)
	if errors.Is(err, ErrDuplicate) {
		return nil, ErrAlreadyApplied
	}
	if err != nil {
		return nil, fmt.Errorf("insert application: %w", err)
	}
	return a, nil
}

// MyApplications lists the applications of one user.
func (s *Service) MyApplications(ctx context.Context, userID string) ([]Application, error) {
	apps, err := s.repo.ListApplicationsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list applications by user: %w", err)
	}
	return apps, nil
}

// ListApplications lists every application.
func (s *Service) ListApplications(ctx context.Context) ([]Application, error) {
	apps, err := s.repo.ListApplications(ctx)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// SetApplicationStatus sets any known application status, whatever the
// current one is.
func (s *Service) SetApplicationStatus(ctx context.Context, id, raw string) (*Application, error) {
	st, err := ParseApplicationStatus(raw)
	if err != nil {
		return nil, apperr.Validationf("%v", err)
	}
	a, err := s.repo.UpdateApplicationStatus(ctx, id, st)
	if err != nil {
		return nil, notFound(err, ErrApplicationNotFound, "update application status")
	}
	return a, nil
}

// ─── Contacts ────────────────────────────────────────────────────────────────

// SubmitContact stores a contact-form message.
func (s *Service) SubmitContact(ctx context.Context, in Contact) (*Contact, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Message = strings.TrimSpace(in.Message)
	if in.Name == "" || in.Email == "" || in.Message == "" {
		return nil, apperr.Validationf("name, email and message are required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, apperr.Validationf("invalid email %q", in.Email)
	}

	in.ID = uuid.NewString()
	if err := s.repo.InsertContact(ctx, &in); err != nil {
		return nil, fmt.Errorf("insert contact: %w", err)
	}
	return &in, nil
}

// ListContacts returns every contact message, newest first.
func (s *Service) ListContacts(ctx context.Context) ([]Contact, error) {
	contacts, err := s.repo.ListContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

func notFound(err, sentinel error, op string) error {
	if errors.Is(err, ErrNotFound) {
		return sentinel
	}
	return fmt.Errorf("%s: %w", op, err)
}
