package pipeline

import (
	"errors"
	"fmt"

	"ats/pipeline-service/internal/apperr"
)

// Wire codes.
const (
	CodeCandidateNotFound    = "CANDIDATE_NOT_FOUND"
	CodeRoundNotFound        = "ROUND_NOT_FOUND"
	CodeResumeRequired       = "RESUME_REQUIRED"
	CodeResumeTooLarge       = "RESUME_TOO_LARGE"
	CodeStorageNotConfigured = "SUPABASE_NOT_CONFIGURED"
	CodeFailedToUploadResume = "FAILED_TO_UPLOAD_RESUME"
	CodeConflict             = "CONFLICT"
)

var (
	ErrCandidateNotFound    = apperr.New(apperr.NotFound, CodeCandidateNotFound, "candidate not found")
	ErrRoundNotFound        = apperr.New(apperr.NotFound, CodeRoundNotFound, "interview round not found")
	ErrResumeRequired       = apperr.New(apperr.Validation, CodeResumeRequired, "resume file is required")
	ErrResumeTooLarge       = apperr.New(apperr.Validation, CodeResumeTooLarge, fmt.Sprintf("resume file exceeds %d MB", MaxResumeBytes>>20))
	ErrStorageNotConfigured = apperr.New(apperr.Dependency, CodeStorageNotConfigured, "resume storage is not configured")
	ErrConflict             = apperr.New(apperr.Conflict, CodeConflict, "candidate was modified concurrently, retry")
)

// Repository sentinels.
var (
	// ErrNotFound is returned by lookups and writes that match no row.
	ErrNotFound = errors.New("candidate not found")

	// ErrVersionConflict is returned by UpdateCandidate when the stored
	// version no longer matches.
	ErrVersionConflict = errors.New("candidate version conflict")
)
