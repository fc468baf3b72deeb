package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/claryon/claryon-site/libs/httpx"
	"github.com/claryon/claryon-site/services/calendar-service/internal/pipeline"
	"github.com/segmentio/kafka-go"
)

type Runner interface {
	RunForAppointment(ctx context.Context, appointmentID string) pipeline.Result
	RunInline(ctx context.Context, in pipeline.InlineInput) pipeline.Result
}

type EventsHandler struct {
	runner      Runner
	logger      *slog.Logger
	invokeToken string
}

func NewEventsHandler(runner Runner, logger *slog.Logger, invokeToken string) *EventsHandler {
	return &EventsHandler{runner: runner, logger: logger, invokeToken: strings.TrimSpace(invokeToken)}
}

// createEventRequest accepts both snake_case and the camelCase names older
// callers send.
type createEventRequest struct {
	AppointmentID      string `json:"appointment_id"`
	AppointmentIDCamel string `json:"appointmentId"`

	Name        string `json:"name"`
	ClientName  string `json:"clientName"`
	Email       string `json:"email"`
	ClientEmail string `json:"clientEmail"`
	Phone       string `json:"phone"`
	DateTime    string `json:"date_time"`
	DateTimeAlt string `json:"dateTime"`
	Preferred   string `json:"preferredDateTime"`
	Service     string `json:"service"`
	ServiceName string `json:"serviceName"`
	Notes       string `json:"notes"`
}

func (r createEventRequest) appointmentID() string {
	return strings.TrimSpace(firstNonEmpty(r.AppointmentID, r.AppointmentIDCamel))
}

func (r createEventRequest) inline() pipeline.InlineInput {
	return pipeline.InlineInput{
		Name:     firstNonEmpty(r.Name, r.ClientName),
		Email:    firstNonEmpty(r.Email, r.ClientEmail),
		Phone:    r.Phone,
		DateTime: firstNonEmpty(r.DateTime, r.DateTimeAlt, r.Preferred),
		Service:  firstNonEmpty(r.Service, r.ServiceName),
		Notes:    r.Notes,
	}
}

type eventResponse struct {
	Success       bool              `json:"success"`
	Message       string            `json:"message,omitempty"`
	Error         string            `json:"error,omitempty"`
	Stage         string            `json:"stage,omitempty"`
	Details       string            `json:"details,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
	AppointmentID string            `json:"appointment_id,omitempty"`
	EventID       string            `json:"event_id,omitempty"`
	EventURL      string            `json:"event_url,omitempty"`
	MeetLink      string            `json:"meet_link,omitempty"`
	Reused        *bool             `json:"reused,omitempty"`
	DatabaseError string            `json:"database_error,omitempty"`
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !h.authorized(r) {
		httpx.WriteError(w, http.StatusUnauthorized, "missing or invalid invoke token")
		return
	}

	var req createEventRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var res pipeline.Result
	if id := req.appointmentID(); id != "" {
		res = h.runner.RunForAppointment(r.Context(), id)
	} else {
		res = h.runner.RunInline(r.Context(), req.inline())
	}
	httpx.WriteJSON(w, res.HTTPStatus(), toResponse(res))
}

// HandleRequested runs the pipeline for a booking.appointment.requested.v1
// message. Halts are logged by the pipeline and not retried.
func (h *EventsHandler) HandleRequested(ctx context.Context, msg kafka.Message) error {
	var payload struct {
		AppointmentID string `json:"appointment_id"`
	}
	if err := json.Unmarshal(msg.Value, &payload); err != nil || strings.TrimSpace(payload.AppointmentID) == "" {
		h.logger.Error("invalid appointment requested payload", "err", err, "topic", msg.Topic)
		return nil
	}
	res := h.runner.RunForAppointment(ctx, payload.AppointmentID)
	if res.OK() {
		h.logger.Info("appointment synced from event", "appointment_id", res.AppointmentID, "event_id", res.EventID)
	}
	return nil
}

func (h *EventsHandler) authorized(r *http.Request) bool {
	if h.invokeToken == "" {
		return true
	}
	got := httpx.BearerToken(r)
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.invokeToken)) == 1
}

func toResponse(res pipeline.Result) eventResponse {
	out := eventResponse{
		Success:       res.OK(),
		AppointmentID: res.AppointmentID,
		EventID:       res.EventID,
	}
	switch res.Stage {
	case pipeline.StageSucceeded:
		reused := res.Reused
		out.Message = res.Message()
		out.EventURL = res.HTMLLink
		out.MeetLink = res.MeetLink
		out.Reused = &reused
	case pipeline.StageInvalidInput:
		out.Error = res.Message()
		out.Stage = string(res.Stage)
		out.Fields = res.Fields
	case pipeline.StageUpdateFailed:
		out.Message = res.Message()
		out.Error = res.Message()
		out.Stage = string(res.Stage)
		if res.Err != nil {
			out.DatabaseError = res.Err.Error()
		}
	default:
		out.Error = res.Message()
		out.Stage = string(res.Stage)
		if res.Err != nil {
			out.Details = res.Err.Error()
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
