package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/apptdesk/libs/config"
	"github.com/md-rashed-zaman/apptdesk/libs/db"
	"github.com/md-rashed-zaman/apptdesk/libs/httpx"
	"github.com/md-rashed-zaman/apptdesk/libs/kafkax"
	"github.com/md-rashed-zaman/apptdesk/libs/runtime"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/delivery"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/storage/postgres"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/storage/sqlite"
	"github.com/redis/go-redis/v9"
)

// openStore picks the backend from STORE_DRIVER. sqlite is the single-desk default.
func openStore(ctx context.Context, logger *slog.Logger) (storage.Store, error) {
	switch driver := strings.ToLower(config.String("STORE_DRIVER", "sqlite")); driver {
	case "sqlite":
		st, err := sqlite.Open(ctx, sqlite.Config{Path: config.String("SQLITE_PATH", "data/appointments.db")}, logger)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "postgres":
		dbURL, err := config.RequiredString("DATABASE_URL")
		if err != nil {
			return nil, err
		}
		maxConns, err := config.Int("DB_MAX_CONNS", 10)
		if err != nil {
			return nil, err
		}
		pool, err := db.Open(ctx, dbURL, db.Config{MaxConns: int32(maxConns)})
		if err != nil {
			return nil, fmt.Errorf("db connection failed: %w", err)
		}
		st, err := postgres.New(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("postgres store ready")
		return st, nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", driver)
	}
}

type sinkSet struct {
	multi   *delivery.Multi
	checks  []runtime.ReadyCheck
	closers []func() error
}

func (s sinkSet) close() {
	for _, c := range s.closers {
		_ = c()
	}
}

// buildSinks fans reminders out to every channel named in DELIVERY_SINKS.
func buildSinks(logger *slog.Logger) (sinkSet, error) {
	set := sinkSet{multi: delivery.NewMulti(logger)}
	for _, name := range config.List("DELIVERY_SINKS", "log") {
		switch strings.ToLower(name) {
		case "log":
			set.multi.Add("log", delivery.NewLogSink(logger))
		case "email":
			host, err := config.RequiredString("SMTP_HOST")
			if err != nil {
				return set, err
			}
			set.multi.Add("email", delivery.NewEmailSink(host, config.String("SMTP_PORT", "25"), config.String("SMTP_FROM", "")))
		case "sms":
			url, err := config.RequiredString("SMS_WEBHOOK_URL")
			if err != nil {
				return set, err
			}
			set.multi.Add("sms", delivery.NewSMSWebhookSink(url, config.String("SMS_WEBHOOK_TOKEN", "")))
		case "kafka":
			brokers := config.String("KAFKA_BROKERS", "")
			k, err := delivery.NewKafkaSink(brokers, config.String("KAFKA_REMINDER_TOPIC", delivery.DefaultReminderTopic))
			if err != nil {
				return set, err
			}
			set.multi.Add("kafka", k)
			set.checks = append(set.checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
			set.closers = append(set.closers, k.Close)
		case "telegram":
			chatID, err := strconv.ParseInt(config.String("TELEGRAM_CHAT_ID", ""), 10, 64)
			if err != nil {
				return set, fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
			}
			tg, err := delivery.NewTelegramSink(delivery.TelegramConfig{
				Token:  config.String("TELEGRAM_TOKEN", ""),
				ChatID: chatID,
				APIURL: config.String("TELEGRAM_API_URL", ""),
			})
			if err != nil {
				return set, err
			}
			set.multi.Add("telegram", tg)
		default:
			return set, fmt.Errorf("unknown delivery sink %q", name)
		}
		logger.Info("delivery sink enabled", "sink", name)
	}
	if set.multi.Len() == 0 {
		set.multi.Add("log", delivery.NewLogSink(logger))
	}
	return set, nil
}

type limiter struct {
	mw    httpx.Middleware
	close func()
}

// rateLimiter shares counters through Redis when REDIS_ADDR is set, otherwise keeps them in process.
func rateLimiter(logger *slog.Logger) (limiter, func(context.Context) error) {
	perMinute, err := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	if err != nil || perMinute <= 0 {
		perMinute = 120
	}
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		redisDB, err := config.Int("REDIS_DB", 0)
		if err != nil || redisDB < 0 {
			redisDB = 0
		}
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       redisDB,
		})
		rl := httpx.NewRedisRateLimiter(rdb, perMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", ""))
		logger.Info("rate limiting enabled (redis)", "per_minute", perMinute, "redis_addr", addr)
		return limiter{
			mw:    rl.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true)),
			close: func() { _ = rdb.Close() },
		}, rl.ReadyCheck()
	}
	rl := httpx.NewRateLimiter(perMinute, time.Minute)
	logger.Info("rate limiting enabled (in-memory)", "per_minute", perMinute)
	return limiter{mw: rl.Middleware(), close: func() {}}, nil
}
