package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	otelx "github.com/md-rashed-zaman/apptdesk/libs/otel"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/reminders"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/scheduling"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/storage"
)

var (
	ErrMissingName     = &scheduling.ValidationError{Code: "missing_name", Reason: "client name is required"}
	ErrMissingPhone    = &scheduling.ValidationError{Code: "missing_phone", Reason: "client phone is required"}
	ErrInvalidDuration = &scheduling.ValidationError{
		Code:   "invalid_duration",
		Reason: fmt.Sprintf("duration must be between %d and %d minutes", model.MinDurationMinutes, model.MaxDurationMinutes),
	}
	ErrInvalidStatus = &scheduling.ValidationError{Code: "invalid_status", Reason: "status must be scheduled, completed or cancelled"}
)

type ClientInput struct {
	Name  string
	Phone string
	Email string
}

type NewAppointment struct {
	ClientID        int64
	Date            string
	Time            string
	Service         string
	DurationMinutes int          // 0 means model.DefaultDurationMinutes
	Notes           string
	Status          model.Status // empty means scheduled
}

// AppointmentUpdate changes the editable fields. Empty Date/Time/Status, a zero duration and
// nil Service/Notes keep the current value; a non-nil empty string clears Service or Notes.
type AppointmentUpdate struct {
	Date            string
	Time            string
	Service         *string
	DurationMinutes int
	Notes           *string
	Status          model.Status
}

// Booking is a stored appointment together with its reminder.
type Booking struct {
	Appointment model.Appointment
	Reminder    model.Notification
}

// Service runs the booking flows on top of the store: every appointment is validated first and
// written together with its reminder in one transaction.
type Service struct {
	store     storage.Store
	validator *scheduling.Validator
	reminders *reminders.Scheduler
	logger    *slog.Logger
}

func New(store storage.Store, validator *scheduling.Validator, rem *reminders.Scheduler, logger *slog.Logger) *Service {
	return &Service{store: store, validator: validator, reminders: rem, logger: logger}
}

func (s *Service) CreateClient(ctx context.Context, in ClientInput) (model.Client, error) {
	in, err := normalizeClient(in)
	if err != nil {
		return model.Client{}, err
	}
	id, err := s.store.InsertClient(ctx, in.Name, in.Phone, in.Email)
	if err != nil {
		return model.Client{}, err
	}
	s.logger.InfoContext(ctx, "client created", "client_id", id)
	return s.store.GetClient(ctx, id)
}

func (s *Service) GetClient(ctx context.Context, id int64) (model.Client, error) {
	return s.store.GetClient(ctx, id)
}

func (s *Service) ListClients(ctx context.Context) ([]model.Client, error) {
	return s.store.ListClientsByName(ctx)
}

func (s *Service) UpdateClient(ctx context.Context, id int64, in ClientInput) (model.Client, error) {
	in, err := normalizeClient(in)
	if err != nil {
		return model.Client{}, err
	}
	if err := s.store.UpdateClient(ctx, model.Client{ID: id, Name: in.Name, Phone: in.Phone, Email: in.Email}); err != nil {
		return model.Client{}, err
	}
	return s.store.GetClient(ctx, id)
}

// DeleteClient also removes the client's appointments and their reminders.
func (s *Service) DeleteClient(ctx context.Context, id int64) error {
	if err := s.store.DeleteClient(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "client deleted", "client_id", id)
	return nil
}

func (s *Service) CreateAppointment(ctx context.Context, in NewAppointment) (Booking, error) {
	ctx, span := otelx.Tracer("booking").Start(ctx, "booking.create_appointment")
	defer span.End()

	duration, err := normalizeDuration(in.DurationMinutes)
	if err != nil {
		return Booking{}, err
	}
	status, err := normalizeStatus(in.Status)
	if err != nil {
		return Booking{}, err
	}
	slot, err := s.validator.ValidateAppointment(ctx, in.ClientID, in.Date, in.Time)
	if err != nil {
		return Booking{}, err
	}
	if _, err := s.store.GetClient(ctx, in.ClientID); err != nil {
		return Booking{}, fmt.Errorf("client %d: %w", in.ClientID, err)
	}

	var b Booking
	err = s.store.InTx(ctx, func(tx storage.Tx) error {
		id, err := tx.InsertAppointment(ctx, model.Appointment{
			ClientID:        in.ClientID,
			Start:           slot.Start(),
			Service:         strings.TrimSpace(in.Service),
			DurationMinutes: duration,
			Notes:           strings.TrimSpace(in.Notes),
			Status:          status,
		})
		if err != nil {
			return err
		}
		n, err := s.reminders.OnAppointmentCreated(ctx, tx, id)
		if err != nil {
			return err
		}
		b.Reminder = n
		b.Appointment, err = tx.GetAppointment(ctx, id)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return Booking{}, err
	}

	s.logger.InfoContext(ctx, "appointment booked",
		"appointment_id", b.Appointment.ID,
		"client_id", in.ClientID,
		"slot", slot.String(),
	)
	return b, nil
}

func (s *Service) UpdateAppointment(ctx context.Context, id int64, upd AppointmentUpdate) (model.Appointment, error) {
	ctx, span := otelx.Tracer("booking").Start(ctx, "booking.update_appointment")
	defer span.End()

	current, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return model.Appointment{}, err
	}

	next := current
	if upd.Service != nil {
		next.Service = strings.TrimSpace(*upd.Service)
	}
	if upd.Notes != nil {
		next.Notes = strings.TrimSpace(*upd.Notes)
	}
	if upd.DurationMinutes != 0 {
		if next.DurationMinutes, err = normalizeDuration(upd.DurationMinutes); err != nil {
			return model.Appointment{}, err
		}
	}
	if upd.Status != "" {
		if next.Status, err = normalizeStatus(upd.Status); err != nil {
			return model.Appointment{}, err
		}
	}

	date, clock := strings.TrimSpace(upd.Date), strings.TrimSpace(upd.Time)
	if date == "" {
		date = current.DateString()
	}
	if clock == "" {
		clock = current.TimeString()
	}
	slot, err := s.validator.ValidateReschedule(ctx, id, date, clock)
	if err != nil {
		return model.Appointment{}, err
	}
	next.Start = slot.Start()
	moved := !next.Start.Equal(current.Start)

	err = s.store.InTx(ctx, func(tx storage.Tx) error {
		if err := tx.UpdateAppointment(ctx, next); err != nil {
			return err
		}
		if moved {
			return s.reminders.OnAppointmentRescheduled(ctx, tx, id)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return model.Appointment{}, err
	}
	if moved {
		s.logger.InfoContext(ctx, "appointment rescheduled", "appointment_id", id, "slot", slot.String())
	}
	return s.store.GetAppointment(ctx, id)
}

// DeleteAppointment also removes its reminder.
func (s *Service) DeleteAppointment(ctx context.Context, id int64) error {
	if err := s.store.DeleteAppointment(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "appointment deleted", "appointment_id", id)
	return nil
}

func (s *Service) GetAppointment(ctx context.Context, id int64) (model.Appointment, error) {
	return s.store.GetAppointment(ctx, id)
}

func (s *Service) AppointmentsByDate(ctx context.Context, date string) ([]model.Appointment, error) {
	day, err := model.ParseDate(date)
	if err != nil {
		return nil, scheduling.ErrInvalidDate
	}
	return s.store.ListAppointmentsByDate(ctx, day)
}

func (s *Service) AllAppointments(ctx context.Context) ([]model.Appointment, error) {
	return s.store.ListAllAppointments(ctx)
}

func (s *Service) AppointmentsByClient(ctx context.Context, clientID int64) ([]model.Appointment, error) {
	if _, err := s.store.GetClient(ctx, clientID); err != nil {
		return nil, err
	}
	return s.store.ListAppointmentsByClient(ctx, clientID)
}

func (s *Service) Stats(ctx context.Context) (model.Stats, error) {
	return s.store.Stats(ctx)
}

func normalizeClient(in ClientInput) (ClientInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" {
		return in, ErrMissingName
	}
	if in.Phone == "" {
		return in, ErrMissingPhone
	}
	return in, nil
}

func normalizeDuration(minutes int) (int, error) {
	if minutes == 0 {
		return model.DefaultDurationMinutes, nil
	}
	if minutes < model.MinDurationMinutes || minutes > model.MaxDurationMinutes {
		return 0, ErrInvalidDuration
	}
	return minutes, nil
}

func normalizeStatus(s model.Status) (model.Status, error) {
	if s == "" {
		return model.StatusScheduled, nil
	}
	if !s.Valid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}
