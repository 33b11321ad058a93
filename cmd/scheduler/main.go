package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/joshua-charles/meetsched/internal/flow"
	"github.com/joshua-charles/meetsched/internal/gcal"
	"github.com/joshua-charles/meetsched/internal/handlers"
	"github.com/joshua-charles/meetsched/internal/ledger"
	"github.com/joshua-charles/meetsched/internal/notify"
	"github.com/joshua-charles/meetsched/internal/timezone"
	"github.com/joshua-charles/meetsched/libs/config"
	"github.com/joshua-charles/meetsched/libs/httpx"
	otelx "github.com/joshua-charles/meetsched/libs/otel"
	"github.com/joshua-charles/meetsched/libs/runtime"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "scheduler")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
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

	var rdb *redis.Client
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		defer func() { _ = rdb.Close() }()
	}

	var store ledger.Store
	if rdb != nil {
		store = ledger.NewRedisStore(rdb, config.String("LEDGER_REDIS_KEY", "meetsched:bookings"))
		logger.Info("booking ledger backed by redis")
	} else {
		path := config.String("LEDGER_FILE", "bookings.json")
		store = ledger.NewFileStore(path)
		logger.Info("booking ledger backed by file", "path", path)
	}

	led := ledger.New(store, logger)
	if err := led.Load(ctx); err != nil {
		logger.Error("ledger load failed", "err", err)
		panic(err)
	}

	zoneName := config.String("MEETING_TIMEZONE", "America/Toronto")
	zone, err := time.LoadLocation(zoneName)
	if err != nil {
		logger.Warn("unknown meeting timezone, using local clock", "zone", zoneName, "err", err)
		zone = time.Local
	}
	tzLabel := timezone.OffsetLabel(zoneName)

	organizerName := config.String("ORGANIZER_NAME", "Joshua Charles")
	organizerEmail := config.String("ORGANIZER_EMAIL", "joshua80.charles@gmail.com")
	location := config.String("MEETING_LOCATION", "Toronto, ON, Canada")
	templateID := config.String("EMAILJS_TEMPLATE_ID", "template_hordn1h")

	var sender notify.Sender
	switch strings.ToLower(config.String("EMAIL_PROVIDER", "emailjs")) {
	case "smtp":
		sender = notify.NewSMTPSender(
			config.String("SMTP_HOST", "mailpit"),
			config.String("SMTP_PORT", "1025"),
			config.String("SMTP_FROM", "no-reply@meetsched.local"),
		)
	case "noop":
		sender = notify.NoopSender{}
	default:
		sender = notify.NewEmailJSSender(
			config.String("EMAILJS_SERVICE_ID", "service_page3ar"),
			config.String("EMAILJS_PUBLIC_KEY", "99o0MgHfdJvDvUD_A"),
		)
	}
	dispatcher := notify.NewDispatcher(sender, logger, config.Duration("NOTIFY_TIMEOUT_SECONDS", 10*time.Second))

	links := &gcal.Builder{
		OrganizerName:  organizerName,
		OrganizerEmail: organizerEmail,
		Location:       location,
		Zone:           zone,
	}

	newMachine := func() *flow.Machine {
		return flow.NewMachine(flow.Config{
			Ledger:         led,
			Dispatcher:     dispatcher,
			Links:          links,
			Logger:         logger,
			TemplateID:     templateID,
			OrganizerName:  organizerName,
			OrganizerEmail: organizerEmail,
			Location:       location,
			TimezoneLabel:  tzLabel,
		})
	}
	sessions := handlers.NewSessionRegistry(config.Duration("SESSION_TTL_SECONDS", 30*time.Minute), newMachine)
	go sessions.Run(ctx)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "ledger", Check: func(ctx context.Context) error {
			_, _, err := store.Load(ctx)
			return err
		}},
	)
	handlers.NewSchedulerHandler(sessions, led, logger, tzLabel, location, time.Now).Register(mux)

	limitPerMinute := config.Int("RATE_LIMIT_PER_MINUTE", 60)
	var rateLimitMW httpx.Middleware
	if rdb != nil {
		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "rl"))
		rateLimitMW = rl.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
		logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute)
	} else {
		rl := httpx.NewRateLimiter(limitPerMinute, time.Minute)
		rateLimitMW = rl.Middleware()
		logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
	}

	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   config.List(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods:   config.List(config.String("CORS_ALLOWED_METHODS", "GET,POST,OPTIONS")),
			AllowedHeaders:   config.List(config.String("CORS_ALLOWED_HEADERS", "Content-Type,X-Request-Id,X-Session-Id")),
			AllowCredentials: config.Bool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           config.Duration("CORS_MAX_AGE_SECONDS", 10*time.Minute),
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20))),
		httpx.WithTimeout(config.Duration("REQUEST_TIMEOUT_SECONDS", 10*time.Second)),
		rateLimitMW,
	)
	handler = otelhttp.NewHandler(handler, service)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
