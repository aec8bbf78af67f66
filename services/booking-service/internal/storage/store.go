package storage

import (
	"context"
	"errors"
	"time"

	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/model"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicatePhone = errors.New("phone number already registered")
	ErrSlotTaken      = errors.New("time slot already booked")
)

// Store is the persistence gateway for clients, appointments and their reminders.
//
// Appointment reads join the owning client's name, phone and email. Time values are UTC
// with minute precision; appointment starts are unique across all statuses.
type Store interface {
	InsertClient(ctx context.Context, name, phone, email string) (int64, error)
	GetClient(ctx context.Context, id int64) (model.Client, error)
	ListClientsByName(ctx context.Context) ([]model.Client, error)
	UpdateClient(ctx context.Context, c model.Client) error
	// DeleteClient removes the client together with its appointments and their notifications.
	DeleteClient(ctx context.Context, id int64) error

	GetAppointment(ctx context.Context, id int64) (model.Appointment, error)
	// ListAppointmentsByDate returns the appointments on day, ordered by time.
	ListAppointmentsByDate(ctx context.Context, day time.Time) ([]model.Appointment, error)
	// ListAppointmentsInRange returns appointments whose date lies in [from, to], ordered by start.
	ListAppointmentsInRange(ctx context.Context, from, to time.Time) ([]model.Appointment, error)
	// ListAllAppointments orders by date then time, newest first.
	ListAllAppointments(ctx context.Context) ([]model.Appointment, error)
	ListAppointmentsByClient(ctx context.Context, clientID int64) ([]model.Appointment, error)
	// ListScheduledBetween returns scheduled appointments starting in (after, until].
	ListScheduledBetween(ctx context.Context, after, until time.Time) ([]model.Appointment, error)
	UpdateAppointment(ctx context.Context, a model.Appointment) error
	DeleteAppointment(ctx context.Context, id int64) error

	// InTx runs fn in a transaction that commits only if fn returns nil.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// PendingNotifications returns unsent notifications due at or before nowFloor, oldest first.
	PendingNotifications(ctx context.Context, nowFloor time.Time) ([]model.Notification, error)
	GetNotificationByAppointment(ctx context.Context, appointmentID int64) (model.Notification, error)
	// MarkNotificationSent flips is_sent only when it is still unset and reports whether it did.
	MarkNotificationSent(ctx context.Context, id int64, at time.Time) (bool, error)

	Stats(ctx context.Context) (model.Stats, error)
	Ping(ctx context.Context) error
	Close() error
}

// Tx is the subset of the store used inside a booking transaction.
type Tx interface {
	InsertAppointment(ctx context.Context, a model.Appointment) (int64, error)
	GetAppointment(ctx context.Context, id int64) (model.Appointment, error)
	UpdateAppointment(ctx context.Context, a model.Appointment) error
	InsertNotification(ctx context.Context, n model.Notification) (int64, error)
	// RescheduleNotification moves the appointment's reminder if it has not been sent yet.
	RescheduleNotification(ctx context.Context, appointmentID int64, at time.Time, message string) error
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrSlotTaken) || errors.Is(err, ErrDuplicatePhone)
}

// DayBounds returns [day 00:00, next day 00:00) in UTC.
func DayBounds(day time.Time) (time.Time, time.Time) {
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return d, d.AddDate(0, 0, 1)
}
