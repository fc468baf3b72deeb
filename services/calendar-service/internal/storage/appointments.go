package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/claryon/claryon-site/libs/db"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound           = errors.New("appointment not found")
	ErrStoreNotConfigured = errors.New("appointment store is not configured")
)

type Appointment struct {
	ID                string
	ClientName        string
	ClientEmail       string
	ClientPhone       string
	ServiceName       string
	PreferredDateTime time.Time
	Notes             string
	Status            string
	CalendarEventID   string
	CreatedAt         time.Time
}

type AppointmentRepository struct {
	pool *db.Pool
}

// NewAppointmentRepository accepts a nil pool; every call then fails with
// ErrStoreNotConfigured.
func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

func (r *AppointmentRepository) configured() bool {
	return r != nil && r.pool != nil && r.pool.Pool != nil
}

func (r *AppointmentRepository) Get(ctx context.Context, id string) (*Appointment, error) {
	if !r.configured() {
		return nil, ErrStoreNotConfigured
	}
	var (
		a                  Appointment
		phone, notes, evID *string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, client_name, client_email, client_phone, service_name, preferred_datetime,
			notes, status, google_calendar_event_id, created_at
		FROM appointments
		WHERE id = $1
	`, id).Scan(&a.ID, &a.ClientName, &a.ClientEmail, &phone, &a.ServiceName, &a.PreferredDateTime,
		&notes, &a.Status, &evID, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	a.ClientPhone = deref(phone)
	a.Notes = deref(notes)
	a.CalendarEventID = deref(evID)
	return &a, nil
}

// SetCalendarEventID writes only the event id column of exactly one row.
func (r *AppointmentRepository) SetCalendarEventID(ctx context.Context, id, eventID string) error {
	if !r.configured() {
		return ErrStoreNotConfigured
	}
	if strings.TrimSpace(id) == "" {
		return errors.New("appointment id is required")
	}
	if strings.TrimSpace(eventID) == "" {
		return errors.New("calendar event id is required")
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET google_calendar_event_id = $2
		WHERE id = $1
	`, id, eventID)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
