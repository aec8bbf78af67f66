package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/model"
)

const DefaultIntervalMinutes = 30

// AppointmentReader is the read side of the store the validator needs.
type AppointmentReader interface {
	GetAppointment(ctx context.Context, id int64) (model.Appointment, error)
	ListAppointmentsByDate(ctx context.Context, day time.Time) ([]model.Appointment, error)
	ListAppointmentsInRange(ctx context.Context, from, to time.Time) ([]model.Appointment, error)
}

// Validator decides whether a slot is bookable and enumerates free slots. It never writes;
// the UNIQUE slot constraint in the store settles races between validation and insert.
//
// Appointments of every status occupy their slot, cancelled ones included.
type Validator struct {
	store AppointmentReader
}

func NewValidator(store AppointmentReader) *Validator {
	return &Validator{store: store}
}

func (v *Validator) ValidateAppointment(ctx context.Context, clientID int64, date, clock string) (model.Slot, error) {
	if clientID <= 0 {
		return model.Slot{}, ErrMissingClient
	}
	slot, err := parseSlot(date, clock)
	if err != nil {
		return model.Slot{}, err
	}
	if err := v.checkFree(ctx, slot, 0); err != nil {
		return model.Slot{}, err
	}
	return slot, nil
}

// ValidateReschedule checks a new slot for an existing appointment, ignoring the appointment's
// own row so keeping the current slot is allowed.
func (v *Validator) ValidateReschedule(ctx context.Context, appointmentID int64, date, clock string) (model.Slot, error) {
	if _, err := v.store.GetAppointment(ctx, appointmentID); err != nil {
		return model.Slot{}, err
	}
	slot, err := parseSlot(date, clock)
	if err != nil {
		return model.Slot{}, err
	}
	if err := v.checkFree(ctx, slot, appointmentID); err != nil {
		return model.Slot{}, err
	}
	return slot, nil
}

// AvailableTimes lists the free HH:MM grid points of the business window on date.
// An interval of 0 means DefaultIntervalMinutes.
func (v *Validator) AvailableTimes(ctx context.Context, date string, intervalMinutes int) ([]string, error) {
	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	if intervalMinutes < 0 {
		return nil, ErrInvalidInterval
	}
	if intervalMinutes == 0 {
		intervalMinutes = DefaultIntervalMinutes
	}
	// Checked before converting to a Duration, which would overflow for huge intervals.
	if intervalMinutes >= int((availability.ClosesAt-availability.OpensAt)/time.Minute) {
		return []string{}, nil
	}

	appts, err := v.store.ListAppointmentsByDate(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("list appointments on %s: %w", date, err)
	}
	taken := make([]time.Time, 0, len(appts))
	for _, a := range appts {
		taken = append(taken, a.Start)
	}

	open, closeAt := availability.DayWindow(day)
	free := availability.AvailableSlots(open, closeAt, time.Duration(intervalMinutes)*time.Minute, taken)
	out := make([]string, 0, len(free))
	for _, t := range free {
		out = append(out, t.Format(model.ClockLayout))
	}
	return out, nil
}

// AppointmentsInRange returns appointments dated within [start, end], ascending. A reversed
// range is empty rather than an error.
func (v *Validator) AppointmentsInRange(ctx context.Context, start, end string) ([]model.Appointment, error) {
	from, err := parseDate(start)
	if err != nil {
		return nil, err
	}
	to, err := parseDate(end)
	if err != nil {
		return nil, err
	}
	if from.After(to) {
		return []model.Appointment{}, nil
	}
	return v.store.ListAppointmentsInRange(ctx, from, to)
}

func (v *Validator) checkFree(ctx context.Context, slot model.Slot, exceptID int64) error {
	appts, err := v.store.ListAppointmentsByDate(ctx, slot.Date)
	if err != nil {
		return fmt.Errorf("list appointments on %s: %w", slot.DateString(), err)
	}
	start := slot.Start()
	for _, a := range appts {
		if a.ID == exceptID {
			continue
		}
		if a.Start.Equal(start) {
			return &ValidationError{
				Code:   CodeSlotTaken,
				Reason: fmt.Sprintf("%s is already booked", slot),
				Err:    ErrSlotTaken.Err,
			}
		}
	}
	return nil
}

func parseDate(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, ErrMissingDate
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

func parseSlot(date, clock string) (model.Slot, error) {
	if strings.TrimSpace(date) == "" {
		return model.Slot{}, ErrMissingDate
	}
	if strings.TrimSpace(clock) == "" {
		return model.Slot{}, ErrMissingTime
	}
	day, err := parseDate(date)
	if err != nil {
		return model.Slot{}, err
	}
	c, err := model.ParseClock(clock)
	if err != nil {
		return model.Slot{}, ErrInvalidTime
	}
	return model.Slot{Date: day, Clock: c}, nil
}

// AsValidation reports whether err is a ValidationError and returns it.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
