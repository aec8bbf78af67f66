package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	otelx "github.com/md-rashed-zaman/apptdesk/libs/otel"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/clock"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/delivery"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/reminders"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type State int32

const (
	Idle State = iota
	Dispatching
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dispatching:
		return "dispatching"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Reminders is what the dispatcher needs from the notification scheduler.
type Reminders interface {
	Due(ctx context.Context, now time.Time) ([]model.Notification, error)
	MarkSent(ctx context.Context, id int64) (bool, error)
}

// Report summarizes one tick. Skipped is set when the tick overlapped a running one.
type Report struct {
	Due     int  `json:"due"`
	Sent    int  `json:"sent"`
	Failed  int  `json:"failed"`
	Skipped bool `json:"skipped,omitempty"`
}

// Dispatcher hands due reminders to the sink and marks them sent. A reminder whose delivery
// fails stays unsent and is offered again on the next tick.
type Dispatcher struct {
	reminders Reminders
	sink      delivery.Sink
	clock     clock.Clock
	trigger   Trigger
	logger    *slog.Logger
	state     atomic.Int32
}

type Config struct {
	Clock   clock.Clock
	Trigger Trigger
}

func New(r Reminders, sink delivery.Sink, logger *slog.Logger, cfg Config) *Dispatcher {
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	if cfg.Trigger == nil {
		cfg.Trigger = NewCronTrigger(time.Minute)
	}
	return &Dispatcher{
		reminders: r,
		sink:      sink,
		clock:     cfg.Clock,
		trigger:   cfg.Trigger,
		logger:    logger,
	}
}

func (d *Dispatcher) State() State {
	return State(d.state.Load())
}

// Run ticks on every trigger fire until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("reminder dispatcher started")
	defer d.logger.Info("reminder dispatcher stopped")
	return d.trigger.Start(ctx, func(ctx context.Context) {
		d.Tick(ctx, d.clock.Now())
	})
}

// Tick processes one batch of reminders due at now. It never panics and never returns an error;
// failures are logged and counted.
func (d *Dispatcher) Tick(ctx context.Context, now time.Time) Report {
	if !d.state.CompareAndSwap(int32(Idle), int32(Dispatching)) {
		d.logger.Debug("dispatch tick skipped, previous batch still running")
		return Report{Skipped: true}
	}
	defer d.state.Store(int32(Idle))

	ctx, span := otelx.Tracer("dispatch").Start(ctx, "dispatch.tick")
	defer span.End()

	var report Report
	due, err := d.reminders.Due(ctx, now)
	if err != nil {
		d.logger.Error("load due reminders failed", "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "load due reminders")
		return report
	}
	report.Due = len(due)

	for _, n := range due {
		if err := d.deliver(ctx, n); err != nil {
			report.Failed++
			d.logger.Error("reminder delivery failed", "notification_id", n.ID, "appointment_id", n.AppointmentID, "err", err)
			continue
		}
		flipped, err := d.reminders.MarkSent(ctx, n.ID)
		if err != nil {
			report.Failed++
			d.logger.Error("mark reminder sent failed", "notification_id", n.ID, "err", err)
			continue
		}
		if !flipped {
			d.logger.Warn("reminder was already marked sent", "notification_id", n.ID)
			continue
		}
		report.Sent++
	}

	span.SetAttributes(
		attribute.Int("reminders.due", report.Due),
		attribute.Int("reminders.sent", report.Sent),
		attribute.Int("reminders.failed", report.Failed),
	)
	if report.Due > 0 {
		d.logger.Info("dispatch tick", "due", report.Due, "sent", report.Sent, "failed", report.Failed)
	}
	return report
}

func (d *Dispatcher) deliver(ctx context.Context, n model.Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	msgCtx := otelx.ContextWithTraceContext(ctx, n.Traceparent, n.Tracestate)
	return d.sink.Deliver(msgCtx, delivery.Reminder{
		NotificationID: n.ID,
		AppointmentID:  n.AppointmentID,
		Title:          reminders.Title,
		Message:        n.Message,
		ClientName:     n.ClientName,
		Phone:          n.ClientPhone,
		Email:          n.ClientEmail,
		NotifyAt:       n.NotifyAt,
	})
}
