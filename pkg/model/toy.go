package model

// ToyStatus is the connectivity flag the vendor reports for a toy.
type ToyStatus int

const (
	ToyStatusDisconnected ToyStatus = iota
	ToyStatusConnected
)

func (s ToyStatus) String() string {
	if s == ToyStatusConnected {
		return "connected"
	}
	return "disconnected"
}

// Toy describes a single toy declared by a session.
type Toy struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	NickName string    `json:"nickName,omitempty"`
	Status   ToyStatus `json:"status"`
	Battery  int       `json:"battery"`
	Version  string    `json:"version,omitempty"`
}
