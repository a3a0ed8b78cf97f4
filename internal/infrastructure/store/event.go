package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is the envelope published for every domain event
type Event struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	Data          json.RawMessage `json:"data"`
	Timestamp     time.Time       `json:"timestamp"`
	Sequence      int             `json:"sequence"` // position within one command
}

// NewEvent wraps data in an envelope. sequence is the 1-based position of the event
// within the command that produced it and restarts at 1 for every command.
func NewEvent(aggregateID, aggregateType, eventType string, data any, sequence int, at time.Time) (Event, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     at,
		Sequence:      sequence,
	}, nil
}

// Type returns the event type name
func (e Event) Type() string {
	return e.EventType
}
