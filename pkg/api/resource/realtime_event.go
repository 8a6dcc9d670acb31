package resource

import "time"

type RealtimeEventResource struct {
	Topic     string      `json:"topic"`
	SourceID  string      `json:"source_id"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewRealtimeEvent(topic, sourceID string, timestamp time.Time, data interface{}) *RealtimeEventResource {
	return &RealtimeEventResource{
		Topic:     topic,
		SourceID:  sourceID,
		Timestamp: timestamp,
		Data:      data,
	}
}
