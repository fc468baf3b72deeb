package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/claryon/claryon-site/services/calendar-service/internal/google"
	"github.com/claryon/claryon-site/services/calendar-service/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const janeID = "3b241101-e2bb-4255-8caf-4136c566a962"

type fakeStore struct {
	rows      map[string]*storage.Appointment
	updateErr error
	updates   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]*storage.Appointment{
		janeID: {
			ID:                janeID,
			ClientName:        "Jane Doe",
			ClientEmail:       "jane@example.com",
			ServiceName:       "General Consultation",
			PreferredDateTime: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
			Status:            "pending",
		},
	}}
}

func (s *fakeStore) Get(_ context.Context, id string) (*storage.Appointment, error) {
	a, ok := s.rows[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *fakeStore) SetCalendarEventID(_ context.Context, id, eventID string) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updates++
	s.rows[id].CalendarEventID = eventID
	return nil
}

type fakeTokens struct {
	err   error
	calls int
}

func (f *fakeTokens) AccessToken(context.Context) (*oauth2.Token, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &oauth2.Token{AccessToken: "at-1"}, nil
}

// fakeCalendar deduplicates on the request key like the real provider does.
type fakeCalendar struct {
	err    error
	events map[string]google.EventRequest
	last   google.EventRequest
}

func (f *fakeCalendar) Create(_ context.Context, _ *oauth2.Token, req google.EventRequest) (*google.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.events == nil {
		f.events = map[string]google.EventRequest{}
	}
	f.last = req
	_, exists := f.events[req.Key]
	f.events[req.Key] = req
	return &google.Event{ID: req.Key, HTMLLink: "https://calendar.example/" + req.Key, Reused: exists}, nil
}

func newPipeline(store AppointmentStore, tokens TokenSource, events EventCreator) *Pipeline {
	return New(Config{
		Store:  store,
		Tokens: tokens,
		Events: events,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestRunForAppointmentLinksEvent(t *testing.T) {
	store, cal := newFakeStore(), &fakeCalendar{}
	res := newPipeline(store, &fakeTokens{}, cal).RunForAppointment(context.Background(), janeID)

	require.Equal(t, StageSucceeded, res.Stage, "err: %v", res.Err)
	assert.Equal(t, http.StatusOK, res.HTTPStatus())
	assert.NotEmpty(t, res.EventID)
	assert.Equal(t, res.EventID, store.rows[janeID].CalendarEventID)
	assert.Equal(t, "Appointment: General Consultation with Jane Doe", cal.last.Summary)
	assert.Contains(t, cal.last.Description, "Appointment ID: "+janeID)
	assert.Contains(t, cal.last.Description, "Notes: No additional notes provided.")
	assert.Equal(t, []string{"jane@example.com"}, cal.last.Attendees)
}

func TestRepeatedRunReusesEvent(t *testing.T) {
	store, cal := newFakeStore(), &fakeCalendar{}
	p := newPipeline(store, &fakeTokens{}, cal)

	first := p.RunForAppointment(context.Background(), janeID)
	second := p.RunForAppointment(context.Background(), janeID)

	require.Equal(t, StageSucceeded, second.Stage)
	assert.Equal(t, first.EventID, second.EventID)
	assert.True(t, second.Reused)
	assert.Len(t, cal.events, 1)
}

func TestTokenFailureTouchesNothing(t *testing.T) {
	store, cal := newFakeStore(), &fakeCalendar{}
	tokens := &fakeTokens{err: &google.TokenError{StatusCode: 400, Body: `{"error":"invalid_grant"}`}}
	res := newPipeline(store, tokens, cal).RunForAppointment(context.Background(), janeID)

	assert.Equal(t, StageTokenFailed, res.Stage)
	assert.Equal(t, http.StatusInternalServerError, res.HTTPStatus())
	assert.Empty(t, cal.events)
	assert.Zero(t, store.updates)
	assert.Empty(t, store.rows[janeID].CalendarEventID)
}

func TestMissingRefreshTokenIsConfigError(t *testing.T) {
	store, cal := newFakeStore(), &fakeCalendar{}
	tokens := google.NewTokenClient(google.Credentials{ClientID: "id", ClientSecret: "secret"}, "", nil)
	res := newPipeline(store, tokens, cal).RunForAppointment(context.Background(), janeID)

	assert.Equal(t, StageConfigError, res.Stage)
	assert.Equal(t, http.StatusInternalServerError, res.HTTPStatus())
	assert.ErrorIs(t, res.Err, google.ErrMissingCredentials)
	assert.Empty(t, cal.events)
	assert.Zero(t, store.updates)
}

func TestConfigErrShortCircuits(t *testing.T) {
	tokens := &fakeTokens{}
	p := New(Config{
		Store:     newFakeStore(),
		Tokens:    tokens,
		Events:    &fakeCalendar{},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		ConfigErr: errors.New("GOOGLE_CALENDAR_ID is required"),
	})
	res := p.RunForAppointment(context.Background(), janeID)
	assert.Equal(t, StageConfigError, res.Stage)
	assert.Zero(t, tokens.calls)
}

func TestEventFailureSkipsUpdate(t *testing.T) {
	store := newFakeStore()
	cal := &fakeCalendar{err: &google.ProviderError{StatusCode: 403, Message: "Calendar usage limits exceeded."}}
	res := newPipeline(store, &fakeTokens{}, cal).RunForAppointment(context.Background(), janeID)

	assert.Equal(t, StageEventCreationFailed, res.Stage)
	assert.EqualError(t, res.Err, "Calendar usage limits exceeded.")
	assert.Zero(t, store.updates)
}

func TestUpdateFailureIsPartial(t *testing.T) {
	store := newFakeStore()
	store.updateErr = errors.New("connection reset")
	res := newPipeline(store, &fakeTokens{}, &fakeCalendar{}).RunForAppointment(context.Background(), janeID)

	assert.Equal(t, StageUpdateFailed, res.Stage)
	assert.False(t, res.OK())
	assert.NotEmpty(t, res.EventID)
	assert.Equal(t, http.StatusInternalServerError, res.HTTPStatus())
	assert.Contains(t, res.Message(), "failed to update appointment record")
}

func TestUnknownAndInvalidAppointment(t *testing.T) {
	p := newPipeline(newFakeStore(), &fakeTokens{}, &fakeCalendar{})

	res := p.RunForAppointment(context.Background(), "not-a-uuid")
	assert.Equal(t, StageInvalidInput, res.Stage)
	assert.Equal(t, http.StatusBadRequest, res.HTTPStatus())

	res = p.RunForAppointment(context.Background(), "00000000-0000-0000-0000-000000000001")
	assert.Equal(t, StageNotFound, res.Stage)
	assert.Equal(t, http.StatusNotFound, res.HTTPStatus())
}

func TestNilStoreIsConfigError(t *testing.T) {
	res := newPipeline(storage.NewAppointmentRepository(nil), &fakeTokens{}, &fakeCalendar{}).RunForAppointment(context.Background(), janeID)
	assert.Equal(t, StageConfigError, res.Stage)
	assert.ErrorIs(t, res.Err, storage.ErrStoreNotConfigured)
}

func TestRunInline(t *testing.T) {
	cal := &fakeCalendar{}
	p := newPipeline(nil, &fakeTokens{}, cal)

	res := p.RunInline(context.Background(), InlineInput{
		Name:     "Jane Doe",
		Email:    "jane@example.com",
		Phone:    "+37060000000",
		DateTime: "2025-06-01T10:00:00Z",
	})
	require.Equal(t, StageSucceeded, res.Stage, "err: %v", res.Err)
	assert.Empty(t, res.AppointmentID)
	assert.Equal(t, "Appointment with Jane Doe", cal.last.Summary)
	assert.Contains(t, cal.last.Description, "Phone: +37060000000")
	assert.Equal(t, google.InlineKey("jane@example.com", time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), ""), res.EventID)
}

func TestRunInlineValidation(t *testing.T) {
	cal := &fakeCalendar{}
	res := newPipeline(nil, &fakeTokens{}, cal).RunInline(context.Background(), InlineInput{
		Email:    "not-an-email",
		DateTime: "tomorrow",
	})
	assert.Equal(t, StageInvalidInput, res.Stage)
	assert.Contains(t, res.Fields, "name")
	assert.Contains(t, res.Fields, "email")
	assert.Contains(t, res.Fields, "date_time")
	assert.Empty(t, cal.events)
}
