package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claryon/claryon-site/libs/db"
	"github.com/claryon/claryon-site/services/site-service/internal/model"
	"github.com/jackc/pgx/v5"
)

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

// Create inserts a pending appointment with no calendar event and fills in
// the generated id, status and created_at.
func (r *AppointmentRepository) Create(ctx context.Context, tx pgx.Tx, appt *model.Appointment) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO appointments
			(client_name, client_email, client_phone, service_name, preferred_datetime, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text, status, created_at
	`, appt.ClientName, appt.ClientEmail, nullable(appt.ClientPhone), appt.ServiceName,
		appt.PreferredDateTime, nullable(appt.Notes)).Scan(&appt.ID, &appt.Status, &appt.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	appt.CalendarEventID = ""
	return nil
}

func (r *AppointmentRepository) Get(ctx context.Context, id string) (*model.Appointment, error) {
	if r.pool == nil {
		return nil, ErrStoreNotConfigured
	}
	rows, err := r.pool.Query(ctx, selectAppointments+` WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	list, err := scanAppointments(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return &list[0], nil
}

// List returns the newest appointments first.
func (r *AppointmentRepository) List(ctx context.Context, f model.AppointmentFilter) ([]model.Appointment, error) {
	if r.pool == nil {
		return nil, ErrStoreNotConfigured
	}
	query := selectAppointments + ` WHERE ($1::boolean = false OR google_calendar_event_id IS NULL)
		AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at DESC
		LIMIT $3`
	var before *time.Time
	if !f.CreatedBefore.IsZero() {
		before = &f.CreatedBefore
	}
	rows, err := r.pool.Query(ctx, query, f.PendingSync, before, clampLimit(f.Limit, 100, 500))
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

const selectAppointments = `
	SELECT id::text, client_name, client_email, client_phone, service_name, preferred_datetime,
		notes, status, coach_id::text, google_calendar_event_id, created_at
	FROM appointments`

func scanAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	defer rows.Close()
	var out []model.Appointment
	for rows.Next() {
		var (
			a                         model.Appointment
			phone, notes, coach, evID *string
		)
		if err := rows.Scan(&a.ID, &a.ClientName, &a.ClientEmail, &phone, &a.ServiceName, &a.PreferredDateTime,
			&notes, &a.Status, &coach, &evID, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.ClientPhone = deref(phone)
		a.Notes = deref(notes)
		a.CoachID = deref(coach)
		a.CalendarEventID = deref(evID)
		out = append(out, a)
	}
	return out, rows.Err()
}
