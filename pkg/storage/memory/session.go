package memory

import (
	"sync"
	"time"

	"github.com/nsyszr/toybroker/pkg/model"
	"github.com/nsyszr/toybroker/pkg/storage"
)

type sessionStore struct {
	store    map[string]model.Session
	eviction storage.EvictionPolicy
	now      func() time.Time
	sync.RWMutex
}

func newSessionStore(eviction storage.EvictionPolicy) *sessionStore {
	if eviction == nil {
		eviction = storage.NoEviction()
	}
	return &sessionStore{
		store:    make(map[string]model.Session),
		eviction: eviction,
		now:      time.Now,
	}
}

func (s *sessionStore) FetchAll() (models map[string]model.Session, err error) {
	now := s.now()

	s.RLock()
	defer s.RUnlock()
	models = make(map[string]model.Session, len(s.store))

	for uid, m := range s.store {
		if s.eviction.Expired(&m, now) {
			continue
		}
		models[uid] = *m.Clone()
	}

	return models, nil
}

func (s *sessionStore) FindByUID(uid string) (*model.Session, error) {
	now := s.now()

	s.RLock()
	defer s.RUnlock()
	if m, ok := s.store[uid]; ok && !s.eviction.Expired(&m, now) {
		return m.Clone(), nil
	}

	return nil, storage.ErrNotFound
}

func (s *sessionStore) Upsert(m *model.Session) error {
	c := m.Stamped(s.now())

	s.Lock()
	defer s.Unlock()

	s.store[c.UID] = *c

	return nil
}

// Sweep deletes all sessions the eviction policy considers stale and returns
// how many were removed.
func (s *sessionStore) Sweep() int {
	now := s.now()

	s.Lock()
	defer s.Unlock()

	n := 0
	for uid, m := range s.store {
		if s.eviction.Expired(&m, now) {
			delete(s.store, uid)
			n++
		}
	}
	return n
}
