package pipeline

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/claryon/claryon-site/services/calendar-service/internal/google"
	"github.com/claryon/claryon-site/services/calendar-service/internal/storage"
)

// Booking is everything needed to describe one calendar event.
type Booking struct {
	AppointmentID string
	Name          string
	Email         string
	Phone         string
	Service       string
	Notes         string
	Start         time.Time
}

// InlineInput is an unvalidated booking that was never stored.
type InlineInput struct {
	Name     string
	Email    string
	Phone    string
	DateTime string
	Service  string
	Notes    string
}

func (in InlineInput) Validate() (Booking, map[string]string) {
	fields := map[string]string{}
	b := Booking{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Phone:   strings.TrimSpace(in.Phone),
		Service: strings.TrimSpace(in.Service),
		Notes:   strings.TrimSpace(in.Notes),
	}
	if b.Name == "" {
		fields["name"] = "Name is required"
	}
	if addr, err := mail.ParseAddress(b.Email); err != nil || addr.Address != b.Email {
		fields["email"] = "Invalid email address"
	}
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(in.DateTime))
	if err != nil {
		fields["date_time"] = "Valid ISO datetime string is required"
	}
	b.Start = start
	if len(fields) > 0 {
		return Booking{}, fields
	}
	return b, nil
}

func bookingFromAppointment(a *storage.Appointment) Booking {
	return Booking{
		AppointmentID: a.ID,
		Name:          a.ClientName,
		Email:         a.ClientEmail,
		Phone:         a.ClientPhone,
		Service:       a.ServiceName,
		Notes:         a.Notes,
		Start:         a.PreferredDateTime,
	}
}

func (b Booking) Summary() string {
	if b.Service == "" {
		return "Appointment with " + b.Name
	}
	return fmt.Sprintf("Appointment: %s with %s", b.Service, b.Name)
}

func (b Booking) Description() string {
	lines := []string{
		"Client: " + b.Name,
		"Email: " + b.Email,
	}
	if b.Phone != "" {
		lines = append(lines, "Phone: "+b.Phone)
	}
	if b.Service != "" {
		lines = append(lines, "Service: "+b.Service)
	}
	if b.AppointmentID != "" {
		lines = append(lines, "Appointment ID: "+b.AppointmentID)
	}
	notes := b.Notes
	if notes == "" {
		notes = "No additional notes provided."
	}
	lines = append(lines, "Notes: "+notes)
	return strings.Join(lines, "\n")
}

func (b Booking) eventRequest(key string) google.EventRequest {
	return google.EventRequest{
		Key:         key,
		Summary:     b.Summary(),
		Description: b.Description(),
		Start:       b.Start,
		Attendees:   []string{b.Email},
	}
}
