package model

import "time"

// Notification is the single reminder owned by an appointment.
type Notification struct {
	ID            int64
	AppointmentID int64
	NotifyAt      time.Time
	Message       string
	IsSent        bool
	SentAt        *time.Time
	CreatedAt     time.Time

	// W3C trace context of the booking request that created the reminder.
	Traceparent string
	Tracestate  string

	// Joined from the appointment and its client on reads.
	AppointmentStart time.Time
	ClientName       string
	ClientPhone      string
	ClientEmail      string
}

type Stats struct {
	TotalClients      int `json:"total_clients"`
	TotalAppointments int `json:"total_appointments"`
	Scheduled         int `json:"scheduled"`
	Completed         int `json:"completed"`
	Cancelled         int `json:"cancelled"`
	PendingReminders  int `json:"pending_reminders"`
}
