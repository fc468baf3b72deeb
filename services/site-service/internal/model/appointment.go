package model

import "time"

const (
	AppointmentPending   = "pending"
	AppointmentConfirmed = "confirmed"
	AppointmentCancelled = "cancelled"
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
	// CoachID is stored but no flow assigns it yet.
	CoachID         string
	CalendarEventID string
	CreatedAt       time.Time
}

// AppointmentFilter narrows the admin listing.
type AppointmentFilter struct {
	// PendingSync keeps only rows without a calendar event id.
	PendingSync   bool
	CreatedBefore time.Time
	Limit         int
}
