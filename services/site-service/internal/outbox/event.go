package outbox

import "encoding/json"

const (
	TopicAppointmentRequested = "booking.appointment.requested.v1"
	TopicContactReceived      = "contact.submission.received.v1"
)

// Event is written in the same transaction as the row it describes.
// The Kafka topic is the event type.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

func NewEvent(aggregateType, aggregateID, eventType string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       raw,
	}, nil
}
