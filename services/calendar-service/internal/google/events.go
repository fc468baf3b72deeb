package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// EventDuration is fixed; services have no per-type length.
const EventDuration = time.Hour

type EventRequest struct {
	// Key becomes the event id and the conference request id.
	Key         string
	Summary     string
	Description string
	Start       time.Time
	Attendees   []string
}

type Event struct {
	ID       string
	HTMLLink string
	MeetLink string
	// Reused is set when an event with the same key already existed.
	Reused bool
}

// ProviderError carries the calendar API's structured error message.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return e.Message
}

type CalendarConfig struct {
	CalendarID string
	TimeZone   string
	Conference bool
	// Endpoint overrides the API base URL.
	Endpoint string
}

type CalendarClient struct {
	cfg        CalendarConfig
	httpClient *http.Client
}

func NewCalendarClient(cfg CalendarConfig, httpClient *http.Client) *CalendarClient {
	if cfg.TimeZone == "" {
		cfg.TimeZone = "UTC"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &CalendarClient{cfg: cfg, httpClient: httpClient}
}

// Create inserts the event. A 409 for req.Key means an earlier run already
// created it; that event is fetched and returned with Reused set. An existing
// event that was deleted (status cancelled) is restored from req first.
func (c *CalendarClient) Create(ctx context.Context, tok *oauth2.Token, req EventRequest) (*Event, error) {
	if strings.TrimSpace(c.cfg.CalendarID) == "" {
		return nil, fmt.Errorf("%w: missing GOOGLE_CALENDAR_ID", ErrMissingCredentials)
	}
	if tok == nil || tok.AccessToken == "" {
		return nil, errors.New("create calendar event: access token is required")
	}

	svc, err := c.service(ctx, tok)
	if err != nil {
		return nil, err
	}

	call := svc.Events.Insert(c.cfg.CalendarID, c.buildEvent(req)).Context(ctx)
	if c.cfg.Conference {
		call = call.ConferenceDataVersion(1)
	}
	created, err := call.Do()
	if err == nil {
		return toEvent(created, false), nil
	}

	var apiErr *googleapi.Error
	if req.Key != "" && errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict {
		existing, getErr := svc.Events.Get(c.cfg.CalendarID, req.Key).Context(ctx).Do()
		if getErr != nil {
			return nil, providerError(getErr)
		}
		if existing.Status == eventCancelled {
			return c.restore(ctx, svc, req)
		}
		return toEvent(existing, true), nil
	}
	return nil, providerError(err)
}

const (
	eventCancelled = "cancelled"
	eventConfirmed = "confirmed"
)

func (c *CalendarClient) restore(ctx context.Context, svc *calendar.Service, req EventRequest) (*Event, error) {
	ev := c.buildEvent(req)
	ev.Status = eventConfirmed
	call := svc.Events.Update(c.cfg.CalendarID, req.Key, ev).Context(ctx)
	if c.cfg.Conference {
		call = call.ConferenceDataVersion(1)
	}
	restored, err := call.Do()
	if err != nil {
		return nil, providerError(err)
	}
	if restored.Status == eventCancelled {
		return nil, &ProviderError{StatusCode: http.StatusConflict, Message: "calendar event " + req.Key + " is cancelled and could not be restored"}
	}
	return toEvent(restored, true), nil
}

func (c *CalendarClient) service(ctx context.Context, tok *oauth2.Token) (*calendar.Service, error) {
	clientCtx := context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	opts := []option.ClientOption{
		option.WithHTTPClient(oauth2.NewClient(clientCtx, oauth2.StaticTokenSource(tok))),
	}
	if c.cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.cfg.Endpoint))
	}
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return svc, nil
}

func (c *CalendarClient) buildEvent(req EventRequest) *calendar.Event {
	start := req.Start.UTC()
	ev := &calendar.Event{
		Id:          req.Key,
		Summary:     req.Summary,
		Description: req.Description,
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: c.cfg.TimeZone},
		End:         &calendar.EventDateTime{DateTime: start.Add(EventDuration).Format(time.RFC3339), TimeZone: c.cfg.TimeZone},
	}
	for _, email := range req.Attendees {
		if email = strings.TrimSpace(email); email != "" {
			ev.Attendees = append(ev.Attendees, &calendar.EventAttendee{Email: email})
		}
	}
	if c.cfg.Conference {
		requestID := req.Key
		if requestID == "" {
			requestID = fmt.Sprintf("req%d", start.Unix())
		}
		ev.ConferenceData = &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId:             requestID,
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		}
	}
	return ev
}

func toEvent(ev *calendar.Event, reused bool) *Event {
	out := &Event{ID: ev.Id, HTMLLink: ev.HtmlLink, MeetLink: ev.HangoutLink, Reused: reused}
	if out.MeetLink == "" && ev.ConferenceData != nil {
		for _, ep := range ev.ConferenceData.EntryPoints {
			if ep != nil && ep.EntryPointType == "video" {
				out.MeetLink = ep.Uri
				break
			}
		}
	}
	return out
}

func providerError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		msg := strings.TrimSpace(apiErr.Message)
		if msg == "" {
			msg = fmt.Sprintf("calendar api returned %d", apiErr.Code)
		}
		return &ProviderError{StatusCode: apiErr.Code, Message: msg}
	}
	return &ProviderError{Message: "calendar api request failed: " + err.Error()}
}
