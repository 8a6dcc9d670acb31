package model

import "time"

// Session is the registry record of one user's device connectivity as pushed
// by the vendor companion app.
type Session struct {
	UID        string
	Domain     string
	HTTPSPort  int
	HTTPPort   int
	WSPort     int
	WSSPort    int
	Platform   string
	AppVersion string
	UToken     string
	Toys       map[string]Toy

	ConnectedAt time.Time
}

// Clone returns a deep copy of the session. The registry hands out clones
// only, so callers never share the toy map with the store.
func (m *Session) Clone() *Session {
	out := *m
	if m.Toys != nil {
		out.Toys = make(map[string]Toy, len(m.Toys))
		for id, t := range m.Toys {
			out.Toys[id] = t
		}
	}
	return &out
}

// Stamped returns a clone whose ConnectedAt is set to now, rounded to the
// second, when the session does not carry one. m is left untouched.
func (m *Session) Stamped(now time.Time) *Session {
	out := m.Clone()
	if out.ConnectedAt.IsZero() {
		out.ConnectedAt = now.Round(time.Second).UTC()
	}
	return out
}
