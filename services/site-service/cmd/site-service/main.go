package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/claryon/claryon-site/libs/auth"
	"github.com/claryon/claryon-site/libs/calendarclient"
	"github.com/claryon/claryon-site/libs/config"
	"github.com/claryon/claryon-site/libs/db"
	"github.com/claryon/claryon-site/libs/httpx"
	"github.com/claryon/claryon-site/libs/kafkax"
	otelx "github.com/claryon/claryon-site/libs/otel"
	"github.com/claryon/claryon-site/libs/runtime"
	"github.com/claryon/claryon-site/services/site-service/internal/cache"
	"github.com/claryon/claryon-site/services/site-service/internal/content"
	"github.com/claryon/claryon-site/services/site-service/internal/handlers"
	"github.com/claryon/claryon-site/services/site-service/internal/intake"
	"github.com/claryon/claryon-site/services/site-service/internal/notify"
	"github.com/claryon/claryon-site/services/site-service/internal/outbox"
	"github.com/claryon/claryon-site/services/site-service/internal/storage"
	"github.com/claryon/claryon-site/services/site-service/internal/trigger"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "site-service")
	port, err := config.Port("PORT", "8080")
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

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		logger.Error("config error", "err", err)
		os.Exit(1)
	}
	pool, err := db.Open(ctx, dbURL, db.Options{Password: config.String("STORE_ACCESS_KEY", "")})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if config.Bool("DB_AUTO_MIGRATE", false) {
		applied, err := db.Migrate(ctx, pool)
		if err != nil {
			logger.Error("migrations failed", "err", err)
			os.Exit(1)
		}
		logger.Info("migrations applied", "count", len(applied), "versions", applied)
	}

	mode, err := trigger.ParseMode(config.String("CALENDAR_TRIGGER", "none"))
	if err != nil {
		logger.Error("config error", "err", err)
		os.Exit(1)
	}

	appointments := storage.NewAppointmentRepository(pool)
	contacts := storage.NewContactRepository(pool)
	posts := storage.NewPostRepository(pool)
	testimonials := storage.NewTestimonialRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	intakeSvc := intake.NewService(pool, appointments, contacts, outboxRepo)

	brokers := config.String("KAFKA_BROKERS", "")
	publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   brokers,
		PollEvery: config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
	})
	go publisher.Run(ctx)

	var reader content.Reader = content.NewPublic(posts, testimonials)
	var invalidator handlers.Invalidator
	var limiter httpx.Limiter
	limitPerMinute := config.Int("RATE_LIMIT_PER_MINUTE", 20)

	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}
	if brokers != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Optional: true, Check: kafkax.ReadyCheck(brokers)})
	}

	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		defer func() { _ = rdb.Close() }()

		contentCache := cache.New(rdb, reader, config.Duration("CONTENT_CACHE_TTL_SECONDS", time.Minute), logger)
		reader, invalidator = contentCache, contentCache
		limiter = httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "rl"))
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Optional: true, Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
		logger.Info("redis enabled", "addr", addr, "rate_limit_per_minute", limitPerMinute)
	} else {
		limiter = httpx.NewMemoryRateLimiter(limitPerMinute, time.Minute)
		logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
	}

	calendarURL := config.String("CALENDAR_SERVICE_URL", "")
	if mode, err = trigger.Resolve(mode, brokers, calendarURL); err != nil {
		logger.Error("calendar trigger disabled; bookings will not be synced", "err", err)
	}
	var calendar handlers.CalendarCaller
	if mode == trigger.ModeHTTP {
		calendar = calendarclient.New(calendarURL, config.String("CALENDAR_SERVICE_TOKEN", ""), nil)
	}
	logger.Info("calendar trigger", "mode", mode)

	verifier, err := verifierFromEnv()
	if err != nil {
		logger.Error("config error", "err", err)
		os.Exit(1)
	}
	if !verifier.Configured() {
		logger.Warn("admin auth not configured (set JWT_SECRET or JWKS_URL); admin API disabled")
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	handlers.Routes{
		Public:  handlers.NewPublicHandler(reader, config.List("SERVICE_CATALOG", ""), logger),
		Booking: handlers.NewBookingHandler(intakeSvc, mode, calendar, logger),
		Contact: handlers.NewContactHandler(intakeSvc, notifierFromEnv(logger), logger),
		Login: handlers.NewLoginHandler(handlers.LoginConfig{
			ProviderURL:       config.String("AUTH_PROVIDER_URL", ""),
			ProviderKey:       config.String("AUTH_PROVIDER_KEY", ""),
			AdminEmail:        config.String("ADMIN_EMAIL", ""),
			AdminPasswordHash: config.String("ADMIN_PASSWORD_HASH", ""),
			Secret:            verifier.Secret,
			TTL:               config.Duration("ADMIN_TOKEN_TTL", time.Hour),
		}, otelx.HTTPClient(5*time.Second), logger),
		Posts:        handlers.NewAdminPostsHandler(posts, invalidator, logger),
		Testimonials: handlers.NewAdminTestimonialsHandler(testimonials, invalidator, logger),
		Records:      handlers.NewAdminRecordsHandler(appointments, contacts, logger),
		FormLimit:    httpx.RateLimit(limiter, logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true)),
		Admin:        handlers.RequireAdmin(verifier, logger),
	}.Register(mux)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.CORSPolicyFromEnv()),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(15*time.Second),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "site")
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

func verifierFromEnv() (*auth.Verifier, error) {
	v := &auth.Verifier{
		Secret:   config.String("JWT_SECRET", ""),
		Audience: config.String("JWT_AUDIENCE", ""),
		Allowed:  config.List("ADMIN_EMAILS", ""),
	}
	if url := config.String("JWKS_URL", ""); url != "" {
		if !strings.HasPrefix(url, "https://") && !strings.HasPrefix(url, "http://") {
			return nil, fmt.Errorf("JWKS_URL must be an http(s) URL, got %q", url)
		}
		v.JWKS = auth.NewJWKSClient(url, config.Duration("JWKS_CACHE_SECONDS", 10*time.Minute), otelx.HTTPClient(5*time.Second))
	}
	return v, nil
}

func notifierFromEnv(logger *slog.Logger) notify.Notifier {
	host := config.String("SMTP_HOST", "")
	to := config.String("NOTIFY_EMAIL", "")
	if host == "" || to == "" {
		logger.Info("contact notifications disabled (set SMTP_HOST and NOTIFY_EMAIL)")
		return notify.NoopNotifier{}
	}
	return notify.NewSMTPNotifier(host, config.String("SMTP_PORT", "25"), config.String("SMTP_FROM", ""), to)
}
