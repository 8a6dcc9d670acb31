package memory

import (
	"context"
	"time"

	"github.com/nsyszr/toybroker/pkg/storage"
	log "github.com/sirupsen/logrus"
)

// Store contains all memory-based sub-stores for managing the models
type Store struct {
	sessions *sessionStore
}

// NewStore creates a new memory-based Storage interface. A nil eviction
// policy keeps sessions forever.
func NewStore(eviction storage.EvictionPolicy) *Store {
	return &Store{
		sessions: newSessionStore(eviction),
	}
}

// Sessions returns a sub-store for managing the Session model
func (s *Store) Sessions() storage.SessionStore {
	return s.sessions
}

// RunSweeper removes stale sessions every interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.Sweep(); n > 0 {
				log.WithField("count", n).Info("memory store evicted stale sessions")
			}
		}
	}
}
