package kafkax

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
)

type memInbox struct {
	seen   map[string]bool
	err    error
	calls  int
	lastID string
}

func (m *memInbox) Record(_ context.Context, eventID, _ string) (bool, error) {
	m.calls++
	m.lastID = eventID
	if m.err != nil {
		return false, m.err
	}
	if m.seen[eventID] {
		return false, nil
	}
	m.seen[eventID] = true
	return true, nil
}

func newTestConsumer(inbox Inbox, handled *[]string) *Consumer {
	return &Consumer{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		inbox:  inbox,
		handler: func(_ context.Context, msg kafka.Message) error {
			*handled = append(*handled, string(msg.Value))
			return nil
		},
	}
}

func withID(id, value string) kafka.Message {
	return kafka.Message{
		Topic:   "booking.appointment.requested.v1",
		Value:   []byte(value),
		Headers: EventMeta{EventID: id, EventType: "booking.appointment.requested.v1"}.Headers(),
	}
}

func TestHandleSkipsDuplicates(t *testing.T) {
	inbox := &memInbox{seen: map[string]bool{}}
	var handled []string
	c := newTestConsumer(inbox, &handled)

	c.handle(context.Background(), withID("e-1", "first"))
	c.handle(context.Background(), withID("e-1", "again"))
	c.handle(context.Background(), withID("e-2", "second"))

	if len(handled) != 2 || handled[0] != "first" || handled[1] != "second" {
		t.Fatalf("handled = %v, want [first second]", handled)
	}
	if inbox.calls != 3 {
		t.Fatalf("inbox calls = %d, want 3", inbox.calls)
	}
}

func TestHandleStopsOnInboxError(t *testing.T) {
	inbox := &memInbox{seen: map[string]bool{}, err: errors.New("db down")}
	var handled []string
	c := newTestConsumer(inbox, &handled)

	c.handle(context.Background(), withID("e-1", "first"))
	if len(handled) != 0 {
		t.Fatalf("handler ran despite inbox error: %v", handled)
	}
}

func TestHandleWithoutEventIDBypassesInbox(t *testing.T) {
	inbox := &memInbox{seen: map[string]bool{}}
	var handled []string
	c := newTestConsumer(inbox, &handled)

	msg := kafka.Message{Topic: "booking.appointment.requested.v1", Value: []byte("a")}
	c.handle(context.Background(), msg)
	msg.Value = []byte("b")
	c.handle(context.Background(), msg)

	if len(handled) != 2 {
		t.Fatalf("handled = %v, want both messages", handled)
	}
	if inbox.calls != 0 {
		t.Fatalf("inbox recorded an empty id %d times", inbox.calls)
	}
}
