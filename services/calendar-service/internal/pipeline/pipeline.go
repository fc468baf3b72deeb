package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	otelx "github.com/claryon/claryon-site/libs/otel"
	"github.com/claryon/claryon-site/services/calendar-service/internal/google"
	"github.com/claryon/claryon-site/services/calendar-service/internal/storage"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

type AppointmentStore interface {
	Get(ctx context.Context, id string) (*storage.Appointment, error)
	SetCalendarEventID(ctx context.Context, id, eventID string) error
}

type TokenSource interface {
	AccessToken(ctx context.Context) (*oauth2.Token, error)
}

type EventCreator interface {
	Create(ctx context.Context, tok *oauth2.Token, req google.EventRequest) (*google.Event, error)
}

type Config struct {
	Store  AppointmentStore
	Tokens TokenSource
	Events EventCreator
	Logger *slog.Logger
	// ConfigErr, when set, short-circuits every run with StageConfigError.
	ConfigErr error
}

// Pipeline runs token exchange, event creation and the appointment update
// strictly in sequence. It keeps no state between runs.
type Pipeline struct {
	store     AppointmentStore
	tokens    TokenSource
	events    EventCreator
	logger    *slog.Logger
	configErr error
	tracer    trace.Tracer
}

func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:     cfg.Store,
		tokens:    cfg.Tokens,
		events:    cfg.Events,
		logger:    logger,
		configErr: cfg.ConfigErr,
		tracer:    otelx.Tracer("calendar-pipeline"),
	}
}

// RunForAppointment creates the event for a stored appointment and records
// its id on the row.
func (p *Pipeline) RunForAppointment(ctx context.Context, appointmentID string) Result {
	appointmentID = strings.TrimSpace(appointmentID)
	res := Result{AppointmentID: appointmentID}

	if err := p.checkConfig(true); err != nil {
		return p.halt(ctx, res, StageConfigError, err)
	}
	id, err := uuid.Parse(appointmentID)
	if err != nil {
		res.Fields = map[string]string{"appointment_id": "must be a valid UUID"}
		return p.halt(ctx, res, StageInvalidInput, errors.New("invalid appointment id"))
	}
	res.AppointmentID = id.String()

	appt, err := p.store.Get(ctx, res.AppointmentID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return p.halt(ctx, res, StageNotFound, err)
	case errors.Is(err, storage.ErrStoreNotConfigured):
		return p.halt(ctx, res, StageConfigError, err)
	case err != nil:
		return p.halt(ctx, res, StageLookupFailed, err)
	}

	res, ok := p.createEvent(ctx, res, bookingFromAppointment(appt), google.AppointmentKey(id))
	if !ok {
		return res
	}

	if err := p.update(ctx, res.AppointmentID, res.EventID); err != nil {
		// the event stays; an operator reconciles from the logged event id
		return p.halt(ctx, res, StageUpdateFailed, err)
	}
	res.Stage = StageSucceeded
	p.logger.Info("calendar event linked", "appointment_id", res.AppointmentID, "event_id", res.EventID, "reused", res.Reused)
	return res
}

// RunInline creates an event straight from a payload without touching the store.
func (p *Pipeline) RunInline(ctx context.Context, in InlineInput) Result {
	res := Result{}
	if err := p.checkConfig(false); err != nil {
		return p.halt(ctx, res, StageConfigError, err)
	}
	b, fields := in.Validate()
	if fields != nil {
		res.Fields = fields
		return p.halt(ctx, res, StageInvalidInput, errors.New("invalid booking payload"))
	}

	res, ok := p.createEvent(ctx, res, b, google.InlineKey(b.Email, b.Start, b.Service))
	if !ok {
		return res
	}
	res.Stage = StageSucceeded
	p.logger.Info("calendar event created", "event_id", res.EventID, "reused", res.Reused)
	return res
}

func (p *Pipeline) checkConfig(needStore bool) error {
	if p.configErr != nil {
		return p.configErr
	}
	if p.tokens == nil || p.events == nil {
		return google.ErrMissingCredentials
	}
	if needStore && p.store == nil {
		return storage.ErrStoreNotConfigured
	}
	return nil
}

func (p *Pipeline) createEvent(ctx context.Context, res Result, b Booking, key string) (Result, bool) {
	tok, err := p.token(ctx)
	if err != nil {
		if errors.Is(err, google.ErrMissingCredentials) {
			return p.halt(ctx, res, StageConfigError, err), false
		}
		return p.halt(ctx, res, StageTokenFailed, err), false
	}

	ev, err := p.insert(ctx, tok, b.eventRequest(key))
	if err != nil {
		if errors.Is(err, google.ErrMissingCredentials) {
			return p.halt(ctx, res, StageConfigError, err), false
		}
		return p.halt(ctx, res, StageEventCreationFailed, err), false
	}
	res.EventID = ev.ID
	res.HTMLLink = ev.HTMLLink
	res.MeetLink = ev.MeetLink
	res.Reused = ev.Reused
	return res, true
}

func (p *Pipeline) token(ctx context.Context) (tok *oauth2.Token, err error) {
	ctx, span := p.tracer.Start(ctx, "calendar.token")
	defer func() { otelx.EndSpan(span, err) }()
	return p.tokens.AccessToken(ctx)
}

func (p *Pipeline) insert(ctx context.Context, tok *oauth2.Token, req google.EventRequest) (ev *google.Event, err error) {
	ctx, span := p.tracer.Start(ctx, "calendar.insert", trace.WithAttributes(attribute.String("calendar.event_key", req.Key)))
	defer func() { otelx.EndSpan(span, err) }()
	return p.events.Create(ctx, tok, req)
}

func (p *Pipeline) update(ctx context.Context, appointmentID, eventID string) (err error) {
	ctx, span := p.tracer.Start(ctx, "appointment.update", trace.WithAttributes(attribute.String("appointment.id", appointmentID)))
	defer func() { otelx.EndSpan(span, err) }()
	return p.store.SetCalendarEventID(ctx, appointmentID, eventID)
}

func (p *Pipeline) halt(ctx context.Context, res Result, stage Stage, err error) Result {
	res.Stage = stage
	res.Err = err
	level := slog.LevelError
	if stage == StageInvalidInput || stage == StageNotFound {
		level = slog.LevelWarn
	}
	attrs := []any{"stage", string(stage), "appointment_id", res.AppointmentID, "err", err}
	if res.EventID != "" {
		attrs = append(attrs, "event_id", res.EventID)
	}
	p.logger.Log(ctx, level, "calendar pipeline halted", attrs...)
	return res
}
