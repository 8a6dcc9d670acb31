package storage

import (
	"time"

	"github.com/nsyszr/toybroker/pkg/model"
)

// EvictionPolicy decides whether a stored session is stale. Stale sessions
// are reported as not found.
type EvictionPolicy interface {
	Expired(m *model.Session, now time.Time) bool
}

type EvictionPolicyFunc func(m *model.Session, now time.Time) bool

func (f EvictionPolicyFunc) Expired(m *model.Session, now time.Time) bool {
	return f(m, now)
}

// NoEviction keeps sessions until the process restarts.
func NoEviction() EvictionPolicy {
	return EvictionPolicyFunc(func(*model.Session, time.Time) bool { return false })
}

// TTL expires sessions that have not been refreshed by a callback within ttl.
// A ttl of zero or less disables eviction.
func TTL(ttl time.Duration) EvictionPolicy {
	if ttl <= 0 {
		return NoEviction()
	}
	return EvictionPolicyFunc(func(m *model.Session, now time.Time) bool {
		return now.Sub(m.ConnectedAt) > ttl
	})
}
