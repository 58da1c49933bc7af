// Package pipeline defines the candidate hiring pipeline.
//
// Candidate status graph (no source-state checks are enforced):
//
//	APPLIED ──► SHORTLISTED ──► INTERVIEW_SCHEDULED ──► IN_PROGRESS ──► SELECTED
//	   │             │                  │                    │
//	   └─────────────┴──────────────────┴────────────────────┴──► REJECTED
//
// Scheduling a round always moves the candidate to INTERVIEW_SCHEDULED.
// Recording a round result moves it to REJECTED, IN_PROGRESS or SELECTED.
// SELECTED and REJECTED are not terminal: an admin override or a new round
// can move a candidate out of them.
package pipeline

import "fmt"

// Status values mirror the candidate_status enum in PostgreSQL.
type Status string

const (
	StatusApplied            Status = "APPLIED"
	StatusShortlisted        Status = "SHORTLISTED"
	StatusInterviewScheduled Status = "INTERVIEW_SCHEDULED"
	StatusInProgress         Status = "IN_PROGRESS"
	StatusSelected           Status = "SELECTED"
	StatusRejected           Status = "REJECTED"
)

// AllStatuses lists every candidate status in pipeline order.
var AllStatuses = []Status{
	StatusApplied,
	StatusShortlisted,
	StatusInterviewScheduled,
	StatusInProgress,
	StatusSelected,
	StatusRejected,
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusApplied, StatusShortlisted, StatusInterviewScheduled,
		StatusInProgress, StatusSelected, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown candidate status %q", s)
}

// RoundStatus is the outcome of a single interview round.
type RoundStatus string

const (
	RoundPending RoundStatus = "PENDING"
	RoundPassed  RoundStatus = "PASSED"
	RoundFailed  RoundStatus = "FAILED"
)

// ParseRoundStatus converts a raw string to a RoundStatus.
func ParseRoundStatus(s string) (RoundStatus, error) {
	rs := RoundStatus(s)
	switch rs {
	case RoundPending, RoundPassed, RoundFailed:
		return rs, nil
	}
	return "", fmt.Errorf("unknown round status %q", s)
}

// Evaluate returns the candidate status that follows recording result on
// one of rounds. rounds must already contain the recorded result.
//
// A failed round rejects the candidate whatever the other rounds say. A
// passed round selects the candidate only when every round, including the
// ones not attempted yet, has passed; otherwise the loop is in progress.
// Any other result leaves current untouched.
func Evaluate(current Status, rounds []InterviewRound, result RoundStatus) Status {
	switch result {
	case RoundFailed:
		return StatusRejected
	case RoundPassed:
		if allPassed(rounds) {
			return StatusSelected
		}
		return StatusInProgress
	}
	return current
}

func allPassed(rounds []InterviewRound) bool {
	for _, r := range rounds {
		if r.RoundStatus != RoundPassed {
			return false
		}
	}
	return true
}
