package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/claryon/claryon-site/libs/calendarclient"
	"github.com/claryon/claryon-site/libs/httpx"
	"github.com/claryon/claryon-site/services/site-service/internal/model"
	"github.com/claryon/claryon-site/services/site-service/internal/trigger"
)

type AppointmentRequester interface {
	RequestAppointment(ctx context.Context, appt *model.Appointment, queueSync bool) error
}

type CalendarCaller interface {
	Invoke(ctx context.Context, appointmentID string) (calendarclient.Outcome, error)
}

const (
	syncSkipped   = "skipped"
	syncRequested = "requested"
	syncFailed    = "failed"
	syncQueued    = "queued"
)

type BookingHandler struct {
	store    AppointmentRequester
	mode     trigger.Mode
	calendar CalendarCaller
	logger   *slog.Logger
}

func NewBookingHandler(store AppointmentRequester, mode trigger.Mode, calendar CalendarCaller, logger *slog.Logger) *BookingHandler {
	if mode == trigger.ModeHTTP && calendar == nil {
		mode = trigger.ModeNone
	}
	return &BookingHandler{store: store, mode: mode, calendar: calendar, logger: logger}
}

type createAppointmentRequest struct {
	ClientName        string `json:"client_name"`
	ClientEmail       string `json:"client_email"`
	ClientPhone       string `json:"client_phone"`
	ServiceName       string `json:"service_name"`
	PreferredDateTime string `json:"preferred_datetime"`
	Notes             string `json:"notes"`
}

type createAppointmentResponse struct {
	AppointmentID   string `json:"appointment_id"`
	Status          string `json:"status"`
	CalendarSync    string `json:"calendar_sync"`
	CalendarEventID string `json:"calendar_event_id,omitempty"`
}

func (req *createAppointmentRequest) validate() (time.Time, fieldErrors) {
	req.ClientName = strings.TrimSpace(req.ClientName)
	req.ClientEmail = strings.TrimSpace(req.ClientEmail)
	req.ClientPhone = strings.TrimSpace(req.ClientPhone)
	req.ServiceName = strings.TrimSpace(req.ServiceName)
	req.Notes = strings.TrimSpace(req.Notes)

	errs := fieldErrors{}
	if errs.required("client_name", req.ClientName) {
		errs.maxLen("client_name", req.ClientName, 200)
	}
	errs.email("client_email", req.ClientEmail)
	if errs.required("service_name", req.ServiceName) {
		errs.maxLen("service_name", req.ServiceName, 200)
	}
	errs.maxLen("client_phone", req.ClientPhone, 50)
	errs.maxLen("notes", req.Notes, 5000)

	var start time.Time
	if errs.required("preferred_datetime", req.PreferredDateTime) {
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(req.PreferredDateTime))
		if err != nil {
			errs.add("preferred_datetime", "must be an RFC 3339 timestamp")
		}
		start = t.UTC()
	}
	return start, errs
}

// Create stores a pending appointment and, depending on the trigger mode,
// asks the calendar service to create its event (http) or queues the
// requested event for the consumer (event). Only one of the two happens.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, errs := req.validate()
	if !errs.empty() {
		httpx.WriteValidation(w, errs)
		return
	}

	appt := &model.Appointment{
		ClientName:        req.ClientName,
		ClientEmail:       req.ClientEmail,
		ClientPhone:       req.ClientPhone,
		ServiceName:       req.ServiceName,
		PreferredDateTime: start,
		Notes:             req.Notes,
	}
	if err := h.store.RequestAppointment(r.Context(), appt, h.mode == trigger.ModeEvent); err != nil {
		writeStoreError(w, h.logger, "appointment", err)
		return
	}
	h.logger.Info("appointment requested", "appointment_id", appt.ID, "service", appt.ServiceName)

	resp := createAppointmentResponse{
		AppointmentID: appt.ID,
		Status:        model.AppointmentPending,
		CalendarSync:  syncSkipped,
	}
	switch h.mode {
	case trigger.ModeEvent:
		resp.CalendarSync = syncQueued
	case trigger.ModeHTTP:
		out, err := h.calendar.Invoke(r.Context(), appt.ID)
		if err != nil {
			h.logger.Error("calendar sync failed", "appointment_id", appt.ID, "stage", out.Stage, "err", err)
			resp.CalendarSync = syncFailed
		} else {
			resp.CalendarSync = syncRequested
			resp.CalendarEventID = out.EventID
		}
	}
	httpx.WriteJSON(w, http.StatusCreated, resp)
}
