// Package recruiting holds the peripheral CRUD domain around the pipeline:
// job postings, clients, applications and contact-form messages.
//
// Application.Status is its own track (Applied, On Hold, Rejected,
// Selected). It is never synchronized with the candidate pipeline status.
package recruiting

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// EmploymentType values accepted for a Job.
type EmploymentType string

const (
	FullTime   EmploymentType = "Full-Time"
	PartTime   EmploymentType = "Part-Time"
	Contract   EmploymentType = "Contract"
	Internship EmploymentType = "Internship"
)

// ParseEmploymentType validates a raw employment type.
func ParseEmploymentType(s string) (EmploymentType, error) {
	et := EmploymentType(s)
	switch et {
	case FullTime, PartTime, Contract, Internship:
		return et, nil
	}
	return "", fmt.Errorf("unknown employment type %q", s)
}

// ApplicationStatus is the status of an Application.
type ApplicationStatus string

const (
	ApplicationApplied  ApplicationStatus = "Applied"
	ApplicationOnHold   ApplicationStatus = "On Hold"
	ApplicationRejected ApplicationStatus = "Rejected"
	ApplicationSelected ApplicationStatus = "Selected"
)

// ParseApplicationStatus validates a raw application status.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	st := ApplicationStatus(s)
	switch st {
	case ApplicationApplied, ApplicationOnHold, ApplicationRejected, ApplicationSelected:
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// Job is a job posting.
type Job struct {
	ID             string         `json:"_id"`
	Title          string         `json:"title"`
	Company        string         `json:"company"`
	Location       string         `json:"location"`
	EmploymentType EmploymentType `json:"employmentType"`
	Experience     string         `json:"experience"`
	Openings       int            `json:"openings"`
	Description    string         `json:"description"`
	IsActive       bool           `json:"isActive"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// JobInput carries the writable fields of a Job. A nil IsActive means true
// on create and "unchanged" on update.
type JobInput struct {
	Title          string `json:"title"`
	Company        string `json:"company"`
	Location       string `json:"location"`
	EmploymentType string `json:"employmentType"`
	Experience     string `json:"experience"`
	Openings       int    `json:"openings"`
	Description    string `json:"description"`
	IsActive       *bool  `json:"isActive"`
}

// Client is a hiring client company.
type Client struct {
	ID            string    `json:"_id"`
	Name          string    `json:"name"`
	Industry      string    `json:"industry"`
	ContactPerson string    `json:"contactPerson"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Website       string    `json:"website"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Application links a user to a job.
type Application struct {
	ID        string            `json:"_id"`
	UserID    string            `json:"user"`
	JobID     string            `json:"job"`
	JobTitle  string            `json:"jobTitle,omitempty"`
	Company   string            `json:"company,omitempty"`
	UserName  string            `json:"userName,omitempty"`
	UserEmail string            `json:"userEmail,omitempty"`
	Status    ApplicationStatus `json:"status"`
	CreatedAt time.Time         `json:"appliedAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Contact is a contact-form submission.
type Contact struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Repository is the Entity Store contract for the recruiting records.
// Lookups and writes on a missing id return ErrNotFound.
type Repository interface {
	InsertJob(ctx context.Context, j *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	UpdateJob(ctx context.Context, j *Job) error
	DeleteJob(ctx context.Context, id string) error
	ListJobs(ctx context.Context, activeOnly bool) ([]Job, error)

	InsertClient(ctx context.Context, c *Client) error
	GetClient(ctx context.Context, id string) (*Client, error)
	UpdateClient(ctx context.Context, c *Client) error
	DeleteClient(ctx context.Context, id string) error
	ListClients(ctx context.Context) ([]Client, error)

	// InsertApplication returns ErrDuplicate when the user already applied.
	InsertApplication(ctx context.Context, a *Application) error
	ListApplicationsByUser(ctx context.Context, userID string) ([]Application, error)
	ListApplications(ctx context.Context) ([]Application, error)
	UpdateApplicationStatus(ctx context.Context, id string, status ApplicationStatus) (*Application, error)

	InsertContact(ctx context.Context, c *Contact) error
	ListContacts(ctx context.Context) ([]Contact, error)
}

// Repository sentinels.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)
