//go:build integration

package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/claryon/claryon-site/libs/db/dbtest"
)

func TestSetCalendarEventIDAgainstPostgres(t *testing.T) {
	pool := dbtest.Start(t)
	ctx := context.Background()

	var id string
	err := pool.QueryRow(ctx, `
		INSERT INTO appointments (client_name, client_email, service_name, preferred_datetime, notes)
		VALUES ('Ana', 'ana@example.com', 'General Consultation', '2025-06-03T12:30:00Z', 'visa')
		RETURNING id::text
	`).Scan(&id)
	if err != nil {
		t.Fatalf("seed appointment: %v", err)
	}

	repo := NewAppointmentRepository(pool)
	before, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if before.CalendarEventID != "" || before.Status != "pending" {
		t.Fatalf("unexpected fresh row %+v", before)
	}

	if err := repo.SetCalendarEventID(ctx, id, "appt123"); err != nil {
		t.Fatalf("SetCalendarEventID: %v", err)
	}
	after, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if after.CalendarEventID != "appt123" {
		t.Fatalf("event id not stored: %+v", after)
	}
	after.CalendarEventID = ""
	if *after != *before {
		t.Fatalf("other columns changed:\nbefore %+v\nafter  %+v", before, after)
	}

	err = repo.SetCalendarEventID(ctx, "00000000-0000-0000-0000-000000000000", "appt123")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Get(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
