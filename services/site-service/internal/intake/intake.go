package intake

import (
	"context"
	"fmt"
	"time"

	"github.com/claryon/claryon-site/libs/db"
	"github.com/claryon/claryon-site/services/site-service/internal/model"
	"github.com/claryon/claryon-site/services/site-service/internal/outbox"
	"github.com/claryon/claryon-site/services/site-service/internal/storage"
	"github.com/jackc/pgx/v5"
)

// Service records public form submissions together with their outbox event.
type Service struct {
	pool         *db.Pool
	appointments *storage.AppointmentRepository
	contacts     *storage.ContactRepository
	outbox       *outbox.Repository
}

func NewService(pool *db.Pool, appointments *storage.AppointmentRepository, contacts *storage.ContactRepository, outboxRepo *outbox.Repository) *Service {
	return &Service{pool: pool, appointments: appointments, contacts: contacts, outbox: outboxRepo}
}

type AppointmentRequested struct {
	AppointmentID     string    `json:"appointment_id"`
	ClientName        string    `json:"client_name"`
	ClientEmail       string    `json:"client_email"`
	ServiceName       string    `json:"service_name"`
	PreferredDateTime time.Time `json:"preferred_datetime"`
	RequestedAt       time.Time `json:"requested_at"`
}

type ContactReceived struct {
	SubmissionID      string    `json:"submission_id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	ServiceOfInterest string    `json:"service_of_interest,omitempty"`
	ReceivedAt        time.Time `json:"received_at"`
}

// RequestAppointment stores appt as pending. With queueSync it also queues
// booking.appointment.requested.v1 in the same transaction; that event is
// what the calendar consumer acts on.
func (s *Service) RequestAppointment(ctx context.Context, appt *model.Appointment, queueSync bool) error {
	if s.pool == nil {
		return storage.ErrStoreNotConfigured
	}
	return db.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.appointments.Create(ctx, tx, appt); err != nil {
			return err
		}
		if !queueSync {
			return nil
		}
		evt, err := outbox.NewEvent("appointment", appt.ID, outbox.TopicAppointmentRequested, AppointmentRequested{
			AppointmentID:     appt.ID,
			ClientName:        appt.ClientName,
			ClientEmail:       appt.ClientEmail,
			ServiceName:       appt.ServiceName,
			PreferredDateTime: appt.PreferredDateTime,
			RequestedAt:       appt.CreatedAt,
		})
		if err != nil {
			return err
		}
		if err := s.outbox.Insert(ctx, tx, evt); err != nil {
			return fmt.Errorf("insert outbox event: %w", err)
		}
		return nil
	})
}

func (s *Service) SubmitContact(ctx context.Context, c *model.ContactSubmission) error {
	if s.pool == nil {
		return storage.ErrStoreNotConfigured
	}
	return db.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.contacts.Create(ctx, tx, c); err != nil {
			return err
		}
		evt, err := outbox.NewEvent("contact_submission", c.ID, outbox.TopicContactReceived, ContactReceived{
			SubmissionID:      c.ID,
			Name:              c.Name,
			Email:             c.Email,
			ServiceOfInterest: c.ServiceOfInterest,
			ReceivedAt:        c.CreatedAt,
		})
		if err != nil {
			return err
		}
		if err := s.outbox.Insert(ctx, tx, evt); err != nil {
			return fmt.Errorf("insert outbox event: %w", err)
		}
		return nil
	})
}
