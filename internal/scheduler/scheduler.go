// Package scheduler wires up the cron job that periodically reminds about
// interview rounds starting soon.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"ats/pipeline-service/internal/pipeline"
)

// Finder lists pending rounds in a time window. *pipeline.Service satisfies it.
type Finder interface {
	UpcomingInterviews(ctx context.Context, from time.Time, window time.Duration) ([]pipeline.UpcomingRound, error)
}

// Notifier publishes reminders and claims once-only keys.
type Notifier interface {
	Publish(ctx context.Context, channel string, payload any) error
	Once(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Scheduler wraps robfig/cron and manages the reminder sweep.
type Scheduler struct {
	cron     *cron.Cron
	finder   Finder
	notifier Notifier
	spec     string        // cron spec, e.g. "@every 15m"
	window   time.Duration // how far ahead a round counts as upcoming
	now      func() time.Time
}

// New creates a Scheduler that sweeps on the given cron expression.
func New(finder Finder, notifier Notifier, spec string, window time.Duration) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLogger(cron.DefaultLogger)),
		finder:   finder,
		notifier: notifier,
		spec:     spec,
		window:   window,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start registers the job and starts the scheduler. Also runs one sweep
// immediately so rounds starting before the first tick are not missed.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.sweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started — spec: %s, window: %s", s.spec, s.window)

	go s.sweep(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler and waits for a running sweep.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[scheduler] Cron stopped")
}

func (s *Scheduler) sweep(ctx context.Context) {
	sent, err := s.RunOnce(ctx)
	if err != nil {
		log.Printf("[scheduler] Reminder sweep error: %v", err)
		return
	}
	if sent > 0 {
		log.Printf("[scheduler] Sent %d interview reminder(s)", sent)
	}
}

// RunOnce publishes one reminder per upcoming round not reminded yet and
// returns how many were sent. A round whose publish fails is not retried
// until its marker expires.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	upcoming, err := s.finder.UpcomingInterviews(ctx, s.now(), s.window)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, u := range upcoming {
		key := ReminderKey(u.CandidateID, u.RoundIndex, u.Round.ScheduledAt)
		first, err := s.notifier.Once(ctx, key, 2*s.window)
		if err != nil {
			log.Printf("[scheduler] Claim %s failed: %v", key, err)
			continue
		}
		if !first {
			continue
		}

		err = s.notifier.Publish(ctx, pipeline.ChannelInterviewReminder, map[string]any{
			"type":          pipeline.ChannelInterviewReminder,
			"candidateId":   u.CandidateID,
			"candidateName": u.CandidateName,
			"email":         u.Email,
			"roundIndex":    u.RoundIndex,
			"roundName":     u.Round.RoundName,
			"interviewer":   u.Round.Interviewer,
			"scheduledAt":   u.Round.ScheduledAt.Format(time.RFC3339),
		})
		if err != nil {
			log.Printf("[scheduler] Publish reminder for %s failed: %v", key, err)
			continue
		}
		sent++
	}
	return sent, nil
}

// ReminderKey identifies one reminder. Rescheduling a round changes the key.
func ReminderKey(candidateID string, roundIndex int, scheduledAt time.Time) string {
	return fmt.Sprintf("reminder:%s:%d:%d", candidateID, roundIndex, scheduledAt.Unix())
}
