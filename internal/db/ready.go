package db

import (
	"context"
	"fmt"
	"log"
	"time"
)

const (
	readyAttempts = 5
	readyTimeout  = 3 * time.Second
)

// readyBackoff is the pause between ping attempts; tests shorten it.
var readyBackoff = time.Second

// waitReady pings until success, readyAttempts failures or ctx is done.
func waitReady(ctx context.Context, name string, ping func(context.Context) error) error {
	var err error
	for attempt := 1; attempt <= readyAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, readyTimeout)
		err = ping(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt == readyAttempts {
			break
		}
		log.Printf("[db] %s not ready (attempt %d/%d): %v", name, attempt, readyAttempts, err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s ping: %w", name, ctx.Err())
		case <-time.After(readyBackoff * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("%s ping failed after %d attempts: %w", name, readyAttempts, err)
}
