package model

import "time"

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

const (
	DefaultDurationMinutes = 30
	MinDurationMinutes     = 15
	MaxDurationMinutes     = 480
)

// Appointment is a booking of one slot. Start holds the calendar date and the minute of day;
// the location is always UTC and carries no zone meaning.
type Appointment struct {
	ID              int64
	ClientID        int64
	Start           time.Time
	Service         string
	DurationMinutes int
	Notes           string
	Status          Status
	CreatedAt       time.Time

	// Joined from the owning client on reads.
	ClientName  string
	ClientPhone string
	ClientEmail string
}

func (a Appointment) Slot() Slot {
	return SlotAt(a.Start)
}

func (a Appointment) DateString() string {
	return a.Start.Format(DateLayout)
}

func (a Appointment) TimeString() string {
	return a.Start.Format(ClockLayout)
}

func (a Appointment) End() time.Time {
	return a.Start.Add(time.Duration(a.DurationMinutes) * time.Minute)
}
