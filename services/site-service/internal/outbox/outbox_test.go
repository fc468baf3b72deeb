package outbox

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/claryon/claryon-site/libs/kafkax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventMarshalsPayload(t *testing.T) {
	evt, err := NewEvent("appointment", "a-1", TopicAppointmentRequested, map[string]string{"appointment_id": "a-1"})
	require.NoError(t, err)
	assert.Equal(t, TopicAppointmentRequested, evt.EventType)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(evt.Payload, &payload))
	assert.Equal(t, "a-1", payload["appointment_id"])
}

func TestToMessageCarriesMeta(t *testing.T) {
	msg := toMessage(context.Background(), Record{
		EventID:     "e-1",
		AggregateID: "a-1",
		EventType:   TopicContactReceived,
		Payload:     []byte(`{}`),
	})
	assert.Equal(t, TopicContactReceived, msg.Topic)
	assert.Equal(t, "a-1", string(msg.Key))
	meta := kafkax.ExtractEventMeta(msg)
	assert.Equal(t, "e-1", meta.EventID)
	assert.Equal(t, TopicContactReceived, meta.EventType)
}
