package main

import (
	"context"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/apptdesk/libs/config"
	"github.com/md-rashed-zaman/apptdesk/libs/httpx"
	otelx "github.com/md-rashed-zaman/apptdesk/libs/otel"
	"github.com/md-rashed-zaman/apptdesk/libs/runtime"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/clock"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/dispatch"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/reminders"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/scheduling"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8083")
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

	store, err := openStore(ctx, logger)
	if err != nil {
		logger.Error("store init failed", "err", err)
		panic(err)
	}
	defer func() { _ = store.Close() }()

	advance, err := config.Int("REMINDER_ADVANCE_MINUTES", reminders.DefaultAdvanceMinutes)
	if err != nil {
		panic(err)
	}
	interval, err := config.Duration("DISPATCH_INTERVAL", time.Minute)
	if err != nil {
		panic(err)
	}

	clk := clock.System{}
	validator := scheduling.NewValidator(store)
	rem := reminders.NewScheduler(store, clk, time.Duration(advance)*time.Minute)
	svc := booking.New(store, validator, rem, logger)

	sinks, err := buildSinks(logger)
	if err != nil {
		logger.Error("delivery sinks init failed", "err", err)
		panic(err)
	}
	defer sinks.close()

	dispatcher := dispatch.New(rem, sinks.multi, logger, dispatch.Config{
		Clock:   clk,
		Trigger: dispatch.NewCronTrigger(interval),
	})
	go func() {
		if err := dispatcher.Run(ctx); err != nil {
			logger.Error("dispatcher stopped", "err", err)
		}
	}()

	rl, rlCheck := rateLimiter(logger)
	defer rl.close()

	checks := []runtime.ReadyCheck{{Name: "store", Check: store.Ping}}
	checks = append(checks, sinks.checks...)
	if rlCheck != nil {
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: rlCheck})
	}
	mux := runtime.NewBaseMuxWithReady(checks...)
	handlers.NewBookingHandler(handlers.Deps{
		Service:    svc,
		Validator:  validator,
		Reminders:  rem,
		Dispatcher: dispatcher,
		Clock:      clk,
		Logger:     logger,
	}).Register(mux)

	httpHandler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: config.List("CORS_ALLOWED_ORIGINS", ""),
			AllowedMethods: config.List("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders: config.List("CORS_ALLOWED_HEADERS", "Content-Type,X-Request-Id"),
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(10*time.Second),
		rl.mw,
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr, "dispatch_interval", interval.String())
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
