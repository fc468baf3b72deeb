package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/claryon/claryon-site/libs/config"
	"github.com/claryon/claryon-site/libs/db"
	"github.com/claryon/claryon-site/libs/httpx"
	"github.com/claryon/claryon-site/libs/kafkax"
	otelx "github.com/claryon/claryon-site/libs/otel"
	"github.com/claryon/claryon-site/libs/runtime"
	"github.com/claryon/claryon-site/services/calendar-service/internal/google"
	"github.com/claryon/claryon-site/services/calendar-service/internal/handlers"
	"github.com/claryon/claryon-site/services/calendar-service/internal/inbox"
	"github.com/claryon/claryon-site/services/calendar-service/internal/pipeline"
	"github.com/claryon/claryon-site/services/calendar-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "calendar-service")
	port, err := config.Port("PORT", "8081")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.ShutdownContext(logger)
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	// A missing store is reported per invocation, not as a crash.
	var pool *db.Pool
	if dbURL := config.String("DATABASE_URL", ""); dbURL != "" {
		pool, err = db.Open(ctx, dbURL, db.Options{Password: config.String("STORE_ACCESS_KEY", ""), MaxConns: 5})
		if err != nil {
			logger.Error("db connection failed; appointment-backed runs will fail", "err", err)
			pool = nil
		} else {
			defer pool.Close()
		}
	} else {
		logger.Error("DATABASE_URL is not set; appointment-backed runs will fail")
	}

	httpClient := otelx.HTTPClient(15 * time.Second)
	creds := google.Credentials{
		ClientID:     config.String("GOOGLE_CLIENT_ID", ""),
		ClientSecret: config.String("GOOGLE_CLIENT_SECRET", ""),
		RefreshToken: config.String("GOOGLE_REFRESH_TOKEN", ""),
	}
	calendarCfg := google.CalendarConfig{
		CalendarID: config.String("GOOGLE_CALENDAR_ID", ""),
		TimeZone:   config.String("CALENDAR_TIMEZONE", "UTC"),
		Conference: config.Bool("CALENDAR_CONFERENCE", false),
		Endpoint:   config.String("GOOGLE_CALENDAR_ENDPOINT", ""),
	}
	configErr := googleConfigError(creds, calendarCfg)
	if configErr != nil {
		logger.Error("calendar integration not configured; every run will fail", "err", configErr)
	}

	runner := pipeline.New(pipeline.Config{
		Store:     storage.NewAppointmentRepository(pool),
		Tokens:    google.NewTokenClient(creds, config.String("GOOGLE_TOKEN_URL", google.DefaultTokenURL), httpClient),
		Events:    google.NewCalendarClient(calendarCfg, httpClient),
		Logger:    logger,
		ConfigErr: configErr,
	})
	eventsHandler := handlers.NewEventsHandler(runner, logger, config.String("INVOKE_TOKEN", ""))

	brokers := config.String("KAFKA_BROKERS", "")
	if brokers != "" && pool != nil {
		consumer := kafkax.NewConsumer(logger, inbox.NewRepository(pool), kafkax.ConsumerConfig{
			Brokers: brokers,
			GroupID: config.String("KAFKA_GROUP_ID", service),
			Topic:   config.String("KAFKA_CONSUME_TOPIC", "booking.appointment.requested.v1"),
		}, eventsHandler.HandleRequested)
		go consumer.Run(ctx)
	}

	checks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
		{Name: "google", Check: func(context.Context) error { return configErr }},
	}
	if brokers != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Optional: true, Check: kafkax.ReadyCheck(brokers)})
	}
	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.HandleFunc("/api/v1/calendar/events", eventsHandler.Create)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.CORSPolicyFromEnv()),
		httpx.WithBodyLimit(64<<10),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "calendar")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func googleConfigError(creds google.Credentials, cal google.CalendarConfig) error {
	missing := creds.Missing()
	if strings.TrimSpace(cal.CalendarID) == "" {
		missing = append(missing, "GOOGLE_CALENDAR_ID")
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: missing %s", google.ErrMissingCredentials, strings.Join(missing, ", "))
}
