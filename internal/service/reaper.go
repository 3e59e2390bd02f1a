package service

import (
	"context"
	"log"
	"time"

	"platform/internal/repository"
)

// SessionReaper periodically purges expired session records. It is a
// storage-hygiene loop; session validation never depends on it having run.
type SessionReaper struct {
	sessions repository.SessionRepository
	interval time.Duration
}

func NewSessionReaper(sessions repository.SessionRepository, interval time.Duration) *SessionReaper {
	return &SessionReaper{
		sessions: sessions,
		interval: interval,
	}
}

// Start blocks until ctx is cancelled, sweeping on every tick.
func (r *SessionReaper) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Printf("[SESSION] [INFO] reaper started (interval: %v)", r.interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("[SESSION] [INFO] reaper stopped")
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *SessionReaper) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	deleted, err := r.sessions.DeleteExpired(sweepCtx, time.Now())
	if err != nil {
		log.Println("[SESSION] [ERROR] reaper sweep failed:", err)
		return
	}
	if deleted > 0 {
		log.Printf("[SESSION] [INFO] reaper purged %d expired sessions", deleted)
	}
}
