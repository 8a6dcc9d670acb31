package storage

import "github.com/nsyszr/toybroker/pkg/model"

// Interface is implemented by the storage
type Interface interface {
	Sessions() SessionStore
}

// SessionStore is the session registry. Upsert replaces any existing entry
// of the same user completely.
type SessionStore interface {
	FetchAll() (map[string]model.Session, error)
	FindByUID(uid string) (*model.Session, error)
	Upsert(m *model.Session) error
}
