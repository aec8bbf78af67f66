package scheduling

import (
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/storage"
)

const (
	CodeMissingClient   = "missing_client"
	CodeMissingDate     = "missing_date"
	CodeMissingTime     = "missing_time"
	CodeInvalidDate     = "invalid_date"
	CodeInvalidTime     = "invalid_time"
	CodeInvalidInterval = "invalid_interval"
	CodeSlotTaken       = "slot_taken"
)

// ValidationError is a recoverable rejection of a booking request. Reason is safe to show to
// the person booking.
type ValidationError struct {
	Code   string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is matches any ValidationError carrying the same code, so callers can compare against the
// sentinels below.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Code == e.Code
}

var (
	ErrMissingClient   = &ValidationError{Code: CodeMissingClient, Reason: "please select a client"}
	ErrMissingDate     = &ValidationError{Code: CodeMissingDate, Reason: "please select a date"}
	ErrMissingTime     = &ValidationError{Code: CodeMissingTime, Reason: "please select a time"}
	ErrInvalidDate     = &ValidationError{Code: CodeInvalidDate, Reason: model.ErrInvalidDate.Error(), Err: model.ErrInvalidDate}
	ErrInvalidTime     = &ValidationError{Code: CodeInvalidTime, Reason: model.ErrInvalidTime.Error(), Err: model.ErrInvalidTime}
	ErrInvalidInterval = &ValidationError{Code: CodeInvalidInterval, Reason: "interval must not be negative"}
	ErrSlotTaken       = &ValidationError{Code: CodeSlotTaken, Reason: "this time slot is already booked", Err: storage.ErrSlotTaken}
)
