package events

import (
	"encoding/json"
	"time"

	"github.com/nsyszr/toybroker/pkg/model"
)

// NATS subjects the broker publishes on
const (
	SubjectPrefix  = "toybroker.v1.events."
	SubjectSession = SubjectPrefix + "session"
	SubjectCommand = SubjectPrefix + "command"
	SubjectAll     = SubjectPrefix + ">"
)

// Message is the envelope of every published event.
type Message struct {
	Topic     string          `json:"topic"`
	SourceID  string          `json:"source_id"`
	Timestamp time.Time       `json:"timestamp"`
	Details   json.RawMessage `json:"details,omitempty"`
}

// SessionDetails describes a registry update caused by a vendor callback.
type SessionDetails struct {
	Platform   string `json:"platform,omitempty"`
	AppVersion string `json:"app_version,omitempty"`
	Domain     string `json:"domain,omitempty"`
	Toys       int    `json:"toys"`
	Connected  int    `json:"connected_toys"`
}

// CommandDetails describes the outcome of one dispatched command.
type CommandDetails struct {
	RequestID string `json:"request_id"`
	Command   string `json:"command"`
	Action    string `json:"action,omitempty"`
	Toy       string `json:"toy,omitempty"`
	Route     string `json:"route,omitempty"`
	Success   bool   `json:"success"`
	Reason    string `json:"reason,omitempty"`
}

// NewSessionDetails summarizes a session for an event.
func NewSessionDetails(m *model.Session) *SessionDetails {
	d := &SessionDetails{
		Platform:   m.Platform,
		AppVersion: m.AppVersion,
		Domain:     m.Domain,
		Toys:       len(m.Toys),
	}
	for _, t := range m.Toys {
		if t.Status == model.ToyStatusConnected {
			d.Connected++
		}
	}
	return d
}

// Publisher emits broker events.
type Publisher interface {
	PublishSession(m *model.Session) error
	PublishCommand(uid string, d *CommandDetails) error
}

type noopPublisher struct{}

// Noop returns a publisher which drops every event.
func Noop() Publisher {
	return noopPublisher{}
}

func (noopPublisher) PublishSession(*model.Session) error {
	return nil
}

func (noopPublisher) PublishCommand(string, *CommandDetails) error {
	return nil
}
