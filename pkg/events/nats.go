package events

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/nsyszr/toybroker/pkg/model"
)

// Conn is the part of *nats.Conn used for publishing.
type Conn interface {
	Publish(subj string, data []byte) error
}

type natsPublisher struct {
	nc  Conn
	now func() time.Time
}

// NewNATSPublisher publishes events on nc.
func NewNATSPublisher(nc Conn) Publisher {
	return &natsPublisher{
		nc:  nc,
		now: time.Now,
	}
}

func (p *natsPublisher) PublishSession(m *model.Session) error {
	return p.publish(SubjectSession, m.UID, NewSessionDetails(m))
}

func (p *natsPublisher) PublishCommand(uid string, d *CommandDetails) error {
	return p.publish(SubjectCommand, uid, d)
}

func (p *natsPublisher) publish(subj, sourceID string, details interface{}) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return err
	}

	msg := Message{
		Topic:     TopicOf(subj),
		SourceID:  sourceID,
		Timestamp: p.now().Round(time.Second).UTC(),
		Details:   raw,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return p.nc.Publish(subj, data)
}

// TopicOf strips the subject prefix, e.g. toybroker.v1.events.session
// becomes session.
func TopicOf(subj string) string {
	return strings.TrimPrefix(subj, SubjectPrefix)
}
