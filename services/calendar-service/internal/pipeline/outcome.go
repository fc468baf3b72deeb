package pipeline

import "net/http"

// Stage is the terminal state of one pipeline run.
type Stage string

const (
	StageSucceeded           Stage = "succeeded"
	StageConfigError         Stage = "config_error"
	StageInvalidInput        Stage = "invalid_input"
	StageNotFound            Stage = "not_found"
	StageLookupFailed        Stage = "lookup_failed"
	StageTokenFailed         Stage = "token_failed"
	StageEventCreationFailed Stage = "event_creation_failed"
	// StageUpdateFailed means the calendar event exists but the appointment
	// row does not reference it. EventID is set for reconciliation.
	StageUpdateFailed Stage = "update_failed_after_event_created"
)

type Result struct {
	Stage         Stage
	AppointmentID string
	EventID       string
	HTMLLink      string
	MeetLink      string
	Reused        bool
	// Fields holds per-field messages for StageInvalidInput.
	Fields map[string]string
	Err    error
}

func (r Result) OK() bool {
	return r.Stage == StageSucceeded
}

func (r Result) HTTPStatus() int {
	switch r.Stage {
	case StageSucceeded:
		return http.StatusOK
	case StageInvalidInput:
		return http.StatusBadRequest
	case StageNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message is the caller-facing summary of the outcome.
func (r Result) Message() string {
	switch r.Stage {
	case StageSucceeded:
		if r.AppointmentID == "" {
			return "Successfully created Google Calendar event."
		}
		return "Successfully created Google Calendar event and updated appointment record."
	case StageConfigError:
		return "Calendar integration is not configured."
	case StageInvalidInput:
		return "Invalid input."
	case StageNotFound:
		return "Appointment not found."
	case StageLookupFailed:
		return "Failed to load appointment."
	case StageTokenFailed:
		return "Failed to obtain Google API access token."
	case StageEventCreationFailed:
		return "Failed to create Google Calendar event."
	case StageUpdateFailed:
		return "Google Calendar event created, but failed to update appointment record in database."
	default:
		return "Unexpected pipeline state."
	}
}
