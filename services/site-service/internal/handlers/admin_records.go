package handlers

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/claryon/claryon-site/libs/httpx"
	"github.com/claryon/claryon-site/services/site-service/internal/icsfeed"
	"github.com/claryon/claryon-site/services/site-service/internal/model"
)

type AppointmentLister interface {
	List(ctx context.Context, f model.AppointmentFilter) ([]model.Appointment, error)
}

type ContactLister interface {
	List(ctx context.Context, limit int) ([]model.ContactSubmission, error)
}

// AdminRecordsHandler serves the read-only views over bookings and
// contact submissions.
type AdminRecordsHandler struct {
	appointments AppointmentLister
	contacts     ContactLister
	logger       *slog.Logger
	now          func() time.Time
}

func NewAdminRecordsHandler(appointments AppointmentLister, contacts ContactLister, logger *slog.Logger) *AdminRecordsHandler {
	return &AdminRecordsHandler{appointments: appointments, contacts: contacts, logger: logger, now: time.Now}
}

type appointmentItem struct {
	ID                string `json:"id"`
	ClientName        string `json:"client_name"`
	ClientEmail       string `json:"client_email"`
	ClientPhone       string `json:"client_phone,omitempty"`
	ServiceName       string `json:"service_name"`
	PreferredDateTime string `json:"preferred_datetime"`
	Notes             string `json:"notes,omitempty"`
	Status            string `json:"status"`
	CoachID           string `json:"coach_id,omitempty"`
	CalendarEventID   string `json:"google_calendar_event_id,omitempty"`
	CreatedAt         string `json:"created_at"`
}

type contactItem struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	Phone             string `json:"phone,omitempty"`
	ServiceOfInterest string `json:"service_of_interest,omitempty"`
	Message           string `json:"message"`
	IsRead            bool   `json:"is_read"`
	CreatedAt         string `json:"created_at"`
}

func (h *AdminRecordsHandler) filter(r *http.Request) model.AppointmentFilter {
	pending, _ := strconv.ParseBool(r.URL.Query().Get("pending_sync"))
	return model.AppointmentFilter{PendingSync: pending, Limit: queryLimit(r)}
}

func (h *AdminRecordsHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	list, err := h.appointments.List(r.Context(), h.filter(r))
	if err != nil {
		writeStoreError(w, h.logger, "appointments", err)
		return
	}
	out := make([]appointmentItem, 0, len(list))
	for _, a := range list {
		out = append(out, appointmentItem{
			ID:                a.ID,
			ClientName:        a.ClientName,
			ClientEmail:       a.ClientEmail,
			ClientPhone:       a.ClientPhone,
			ServiceName:       a.ServiceName,
			PreferredDateTime: a.PreferredDateTime.UTC().Format(time.RFC3339),
			Notes:             a.Notes,
			Status:            a.Status,
			CoachID:           a.CoachID,
			CalendarEventID:   a.CalendarEventID,
			CreatedAt:         a.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"appointments": out})
}

func (h *AdminRecordsHandler) AppointmentsFeed(w http.ResponseWriter, r *http.Request) {
	list, err := h.appointments.List(r.Context(), h.filter(r))
	if err != nil {
		writeStoreError(w, h.logger, "appointments", err)
		return
	}
	var buf bytes.Buffer
	if err := icsfeed.Write(&buf, list, h.now()); err != nil {
		h.logger.Error("render appointments feed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "could not render feed")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="appointments.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *AdminRecordsHandler) ContactSubmissions(w http.ResponseWriter, r *http.Request) {
	list, err := h.contacts.List(r.Context(), queryLimit(r))
	if err != nil {
		writeStoreError(w, h.logger, "contact submissions", err)
		return
	}
	out := make([]contactItem, 0, len(list))
	for _, c := range list {
		out = append(out, contactItem{
			ID:                c.ID,
			Name:              c.Name,
			Email:             c.Email,
			Phone:             c.Phone,
			ServiceOfInterest: c.ServiceOfInterest,
			Message:           c.Message,
			IsRead:            c.IsRead,
			CreatedAt:         c.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"contact_submissions": out})
}
