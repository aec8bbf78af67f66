package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	otelx "github.com/md-rashed-zaman/apptdesk/libs/otel"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/clock"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/storage"
)

const (
	Title                 = "Appointment Reminder"
	DefaultAdvanceMinutes = 60
)

var ErrAppointmentNotFound = errors.New("appointment not found")

// Store is the notification side of the persistence gateway.
type Store interface {
	PendingNotifications(ctx context.Context, nowFloor time.Time) ([]model.Notification, error)
	MarkNotificationSent(ctx context.Context, id int64, at time.Time) (bool, error)
	ListScheduledBetween(ctx context.Context, after, until time.Time) ([]model.Appointment, error)
}

// Scheduler derives the reminder for each new appointment and answers which reminders are due.
// A reminder fires at the appointment start; advance only widens the Upcoming window.
type Scheduler struct {
	store   Store
	clock   clock.Clock
	advance time.Duration
}

func NewScheduler(store Store, clk clock.Clock, advance time.Duration) *Scheduler {
	if clk == nil {
		clk = clock.System{}
	}
	if advance <= 0 {
		advance = DefaultAdvanceMinutes * time.Minute
	}
	return &Scheduler{store: store, clock: clk, advance: advance}
}

// OnAppointmentCreated re-reads the appointment inside tx and stores its single reminder.
// The caller's trace context is kept on the row so delivery can be linked to the booking.
func (s *Scheduler) OnAppointmentCreated(ctx context.Context, tx storage.Tx, appointmentID int64) (model.Notification, error) {
	a, err := tx.GetAppointment(ctx, appointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			return model.Notification{}, fmt.Errorf("appointment %d: %w", appointmentID, ErrAppointmentNotFound)
		}
		return model.Notification{}, err
	}

	traceparent, tracestate := otelx.TraceContextStrings(ctx)
	n := model.Notification{
		AppointmentID:    a.ID,
		NotifyAt:         a.Start,
		Message:          Message(a),
		Traceparent:      traceparent,
		Tracestate:       tracestate,
		AppointmentStart: a.Start,
		ClientName:       a.ClientName,
		ClientPhone:      a.ClientPhone,
		ClientEmail:      a.ClientEmail,
	}
	id, err := tx.InsertNotification(ctx, n)
	if err != nil {
		return model.Notification{}, fmt.Errorf("insert notification: %w", err)
	}
	n.ID = id
	return n, nil
}

// OnAppointmentRescheduled moves a still unsent reminder to the appointment's current slot.
func (s *Scheduler) OnAppointmentRescheduled(ctx context.Context, tx storage.Tx, appointmentID int64) error {
	a, err := tx.GetAppointment(ctx, appointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			return fmt.Errorf("appointment %d: %w", appointmentID, ErrAppointmentNotFound)
		}
		return err
	}
	return tx.RescheduleNotification(ctx, a.ID, a.Start, Message(a))
}

// Due returns unsent reminders at or before now, compared at minute granularity.
func (s *Scheduler) Due(ctx context.Context, now time.Time) ([]model.Notification, error) {
	return s.store.PendingNotifications(ctx, model.FloorMinute(now))
}

// MarkSent reports whether this call flipped the reminder to sent. Repeated calls are no-ops.
func (s *Scheduler) MarkSent(ctx context.Context, id int64) (bool, error) {
	return s.store.MarkNotificationSent(ctx, id, s.clock.Now())
}

// Upcoming lists scheduled appointments starting after now and within the advance window.
func (s *Scheduler) Upcoming(ctx context.Context, now time.Time) ([]model.Appointment, error) {
	now = model.FloorMinute(now)
	return s.store.ListScheduledBetween(ctx, now, now.Add(s.advance))
}

func (s *Scheduler) Advance() time.Duration {
	return s.advance
}

func Message(a model.Appointment) string {
	return fmt.Sprintf("Reminder: you have an appointment at %s with %s", a.TimeString(), a.ClientName)
}
