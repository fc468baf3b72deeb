package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
)

var testCreds = Credentials{ClientID: "client-id", ClientSecret: "client-secret", RefreshToken: "refresh-token"}

func TestAccessTokenExchangesRefreshToken(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "refresh-token", r.PostForm.Get("refresh_token"))
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "client-secret", r.PostForm.Get("client_secret"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","expires_in":3599}`))
	}))
	defer srv.Close()

	client := NewTokenClient(testCreds, srv.URL, srv.Client())
	for i := 0; i < 2; i++ {
		tok, err := client.AccessToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "at-1", tok.AccessToken)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "every call must exchange again")
}

func TestAccessTokenReportsStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Token has been expired or revoked."}`))
	}))
	defer srv.Close()

	_, err := NewTokenClient(testCreds, srv.URL, srv.Client()).AccessToken(context.Background())
	var tokErr *TokenError
	require.True(t, errors.As(err, &tokErr), "got %v", err)
	assert.Equal(t, http.StatusBadRequest, tokErr.StatusCode)
	assert.Contains(t, tokErr.Body, "invalid_grant")
	assert.Contains(t, err.Error(), "400")
}

func TestAccessTokenMissingCredentials(t *testing.T) {
	creds := testCreds
	creds.RefreshToken = ""
	_, err := NewTokenClient(creds, "http://127.0.0.1:0", nil).AccessToken(context.Background())
	require.ErrorIs(t, err, ErrMissingCredentials)
	assert.Contains(t, err.Error(), "GOOGLE_REFRESH_TOKEN")
}

func TestAppointmentKeyIsValidEventID(t *testing.T) {
	id := uuid.MustParse("3b241101-e2bb-4255-8caf-4136c566a962")
	key := AppointmentKey(id)
	assert.Equal(t, "appt3b241101e2bb42558caf4136c566a962", key)
	assertBase32Hex(t, key)
	assert.Equal(t, key, AppointmentKey(id))
}

func TestInlineKeyIsStable(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	a := InlineKey("Jane@Example.com", start, "General Consultation")
	b := InlineKey("jane@example.com ", start.In(time.FixedZone("x", 3600)), "General Consultation")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, InlineKey("jane@example.com", start.Add(time.Hour), "General Consultation"))
	assertBase32Hex(t, a)
}

func assertBase32Hex(t *testing.T, key string) {
	t.Helper()
	assert.GreaterOrEqual(t, len(key), 5)
	for _, r := range key {
		ok := (r >= 'a' && r <= 'v') || (r >= '0' && r <= '9')
		assert.True(t, ok, "invalid event id rune %q in %s", r, key)
	}
}

type fakeCalendar struct {
	inserted  []*calendar.Event
	conflict  bool
	failCode  int
	failMsg   string
	existing  *calendar.Event
	updated   []*calendar.Event
	lastQuery string
}

func (f *fakeCalendar) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/calendar/v3/calendars/primary/events":
			f.lastQuery = r.URL.RawQuery
			if f.failCode != 0 {
				w.WriteHeader(f.failCode)
				_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": f.failCode, "message": f.failMsg}})
				return
			}
			var ev calendar.Event
			require.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
			if f.conflict {
				w.WriteHeader(http.StatusConflict)
				_, _ = w.Write([]byte(`{"error":{"code":409,"message":"The requested identifier already exists."}}`))
				return
			}
			f.inserted = append(f.inserted, &ev)
			ev.HtmlLink = "https://calendar.example/event?eid=" + ev.Id
			ev.HangoutLink = "https://meet.example/abc-defg-hij"
			_ = json.NewEncoder(w).Encode(ev)
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/calendar/v3/calendars/primary/events/"):
			_ = json.NewEncoder(w).Encode(f.existing)
		case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/calendar/v3/calendars/primary/events/"):
			var ev calendar.Event
			require.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
			ev.Id = strings.TrimPrefix(r.URL.Path, "/calendar/v3/calendars/primary/events/")
			f.updated = append(f.updated, &ev)
			ev.HtmlLink = "https://calendar.example/restored"
			_ = json.NewEncoder(w).Encode(ev)
		default:
			http.NotFound(w, r)
		}
	})
}

func newTestCalendar(t *testing.T, f *fakeCalendar, conference bool) *CalendarClient {
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return NewCalendarClient(CalendarConfig{
		CalendarID: "primary",
		TimeZone:   "Europe/Vilnius",
		Conference: conference,
		Endpoint:   srv.URL + "/calendar/v3/",
	}, srv.Client())
}

func TestCreateBuildsOneHourEvent(t *testing.T) {
	f := &fakeCalendar{}
	client := newTestCalendar(t, f, true)
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	ev, err := client.Create(context.Background(), &oauth2.Token{AccessToken: "at-1"}, EventRequest{
		Key:       "appt0123456789abcdef",
		Summary:   "Appointment: General Consultation with Jane Doe",
		Start:     start,
		Attendees: []string{"jane@example.com"},
	})
	require.NoError(t, err)
	require.Len(t, f.inserted, 1)

	sent := f.inserted[0]
	assert.Equal(t, "appt0123456789abcdef", sent.Id)
	assert.Equal(t, "2025-06-01T10:00:00Z", sent.Start.DateTime)
	assert.Equal(t, "2025-06-01T11:00:00Z", sent.End.DateTime)
	assert.Equal(t, "Europe/Vilnius", sent.Start.TimeZone)
	require.Len(t, sent.Attendees, 1)
	assert.Equal(t, "jane@example.com", sent.Attendees[0].Email)
	require.NotNil(t, sent.ConferenceData)
	assert.Equal(t, "appt0123456789abcdef", sent.ConferenceData.CreateRequest.RequestId)
	assert.Contains(t, f.lastQuery, "conferenceDataVersion=1")

	assert.Equal(t, "appt0123456789abcdef", ev.ID)
	assert.NotEmpty(t, ev.HTMLLink)
	assert.Equal(t, "https://meet.example/abc-defg-hij", ev.MeetLink)
	assert.False(t, ev.Reused)
}

func TestCreateReusesExistingEventOnConflict(t *testing.T) {
	f := &fakeCalendar{
		conflict: true,
		existing: &calendar.Event{Id: "appt0123456789abcdef", HtmlLink: "https://calendar.example/existing"},
	}
	client := newTestCalendar(t, f, false)

	ev, err := client.Create(context.Background(), &oauth2.Token{AccessToken: "at-1"}, EventRequest{
		Key:   "appt0123456789abcdef",
		Start: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, ev.Reused)
	assert.Equal(t, "appt0123456789abcdef", ev.ID)
	assert.Equal(t, "https://calendar.example/existing", ev.HTMLLink)
}

func TestCreateRestoresCancelledEventOnConflict(t *testing.T) {
	f := &fakeCalendar{
		conflict: true,
		existing: &calendar.Event{Id: "appt0123456789abcdef", Status: "cancelled"},
	}
	client := newTestCalendar(t, f, false)

	ev, err := client.Create(context.Background(), &oauth2.Token{AccessToken: "at-1"}, EventRequest{
		Key:     "appt0123456789abcdef",
		Summary: "Appointment: General Consultation with Jane Doe",
		Start:   time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, f.updated, 1)
	assert.Equal(t, "confirmed", f.updated[0].Status)
	assert.Equal(t, "Appointment: General Consultation with Jane Doe", f.updated[0].Summary)
	assert.Equal(t, "2025-06-01T11:00:00Z", f.updated[0].End.DateTime)
	assert.Equal(t, "appt0123456789abcdef", ev.ID)
	assert.Equal(t, "https://calendar.example/restored", ev.HTMLLink)
	assert.True(t, ev.Reused)
}

func TestCreateSurfacesProviderMessage(t *testing.T) {
	f := &fakeCalendar{failCode: http.StatusForbidden, failMsg: "Calendar usage limits exceeded."}
	client := newTestCalendar(t, f, false)

	_, err := client.Create(context.Background(), &oauth2.Token{AccessToken: "at-1"}, EventRequest{
		Key:   "appt0123456789abcdef",
		Start: time.Now(),
	})
	var perr *ProviderError
	require.True(t, errors.As(err, &perr), "got %v", err)
	assert.Equal(t, http.StatusForbidden, perr.StatusCode)
	assert.Equal(t, "Calendar usage limits exceeded.", perr.Message)
}

func TestCreateRequiresCalendarID(t *testing.T) {
	client := NewCalendarClient(CalendarConfig{}, nil)
	_, err := client.Create(context.Background(), &oauth2.Token{AccessToken: "at-1"}, EventRequest{})
	require.ErrorIs(t, err, ErrMissingCredentials)
}
