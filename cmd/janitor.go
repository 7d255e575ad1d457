package cmd

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SessionPurger is satisfied by usecase.AuthService.
type SessionPurger interface {
	PurgeStaleSessions(ctx context.Context) (int64, error)
}

// SessionJanitor purges stale sessions once at start and then every interval
// until ctx is cancelled. Failures are logged and retried on the next tick.
func SessionJanitor(ctx context.Context, purger SessionPurger, interval time.Duration, logger *zap.Logger) {
	log := logger.With(zap.String("component", "session_janitor"))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := purger.PurgeStaleSessions(ctx); err != nil && ctx.Err() == nil {
			log.Warn("Session purge failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
