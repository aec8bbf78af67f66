package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrNoRecipient means the sink has no address for this client, e.g. an email sink and a
// client without an email.
var ErrNoRecipient = errors.New("no recipient for channel")

// Reminder is a ready-to-show reminder plus the client contact details channels address.
type Reminder struct {
	NotificationID int64
	AppointmentID  int64
	Title          string
	Message        string
	ClientName     string
	Phone          string
	Email          string
	NotifyAt       time.Time
}

// Sink delivers one reminder synchronously. An error leaves the reminder unsent.
type Sink interface {
	Deliver(ctx context.Context, r Reminder) error
}

type SinkFunc func(ctx context.Context, r Reminder) error

func (f SinkFunc) Deliver(ctx context.Context, r Reminder) error {
	return f(ctx, r)
}

// LogSink writes reminders to the structured log. It is the default channel.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Deliver(ctx context.Context, r Reminder) error {
	s.logger.InfoContext(ctx, "reminder",
		"title", r.Title,
		"message", r.Message,
		"notification_id", r.NotificationID,
		"appointment_id", r.AppointmentID,
		"client", r.ClientName,
	)
	return nil
}

type namedSink struct {
	name string
	sink Sink
}

// Multi fans a reminder out to several channels. Delivery succeeds when at least one channel
// accepted it; channels without a recipient are skipped. Failures on the other channels are
// logged even when delivery succeeds.
type Multi struct {
	sinks  []namedSink
	logger *slog.Logger
}

// NewMulti builds an empty fan-out. A nil logger discards channel failures.
func NewMulti(logger *slog.Logger) *Multi {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Multi{logger: logger}
}

func (m *Multi) Add(name string, s Sink) *Multi {
	m.sinks = append(m.sinks, namedSink{name: name, sink: s})
	return m
}

func (m *Multi) Len() int {
	return len(m.sinks)
}

func (m *Multi) Deliver(ctx context.Context, r Reminder) error {
	if len(m.sinks) == 0 {
		return errors.New("no delivery channels configured")
	}
	var errs []error
	delivered := 0
	for _, s := range m.sinks {
		err := s.sink.Deliver(ctx, r)
		switch {
		case err == nil:
			delivered++
		case errors.Is(err, ErrNoRecipient):
		default:
			m.logger.WarnContext(ctx, "delivery channel failed",
				"channel", s.name,
				"notification_id", r.NotificationID,
				"err", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	if delivered > 0 {
		return nil
	}
	if len(errs) == 0 {
		return ErrNoRecipient
	}
	return errors.Join(errs...)
}
