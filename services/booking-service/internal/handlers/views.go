package handlers

import (
	"time"

	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/model"
)

type clientItem struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"created_at"`
}

type appointmentItem struct {
	ID              int64  `json:"id"`
	ClientID        int64  `json:"client_id"`
	ClientName      string `json:"client_name"`
	ClientPhone     string `json:"client_phone"`
	ClientEmail     string `json:"client_email,omitempty"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	Service         string `json:"service,omitempty"`
	DurationMinutes int    `json:"duration_minutes"`
	Notes           string `json:"notes,omitempty"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at"`
}

type notificationItem struct {
	ID               int64  `json:"id"`
	AppointmentID    int64  `json:"appointment_id"`
	NotificationTime string `json:"notification_time"`
	Message          string `json:"message"`
	IsSent           bool   `json:"is_sent"`
	SentAt           string `json:"sent_at,omitempty"`
	ClientName       string `json:"client_name,omitempty"`
}

func toClientItem(c model.Client) clientItem {
	return clientItem{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toAppointmentItem(a model.Appointment) appointmentItem {
	return appointmentItem{
		ID:              a.ID,
		ClientID:        a.ClientID,
		ClientName:      a.ClientName,
		ClientPhone:     a.ClientPhone,
		ClientEmail:     a.ClientEmail,
		Date:            a.DateString(),
		Time:            a.TimeString(),
		Service:         a.Service,
		DurationMinutes: a.DurationMinutes,
		Notes:           a.Notes,
		Status:          string(a.Status),
		CreatedAt:       a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toNotificationItem(n model.Notification) notificationItem {
	item := notificationItem{
		ID:               n.ID,
		AppointmentID:    n.AppointmentID,
		NotificationTime: n.NotifyAt.Format(model.DateTimeLayout),
		Message:          n.Message,
		IsSent:           n.IsSent,
		ClientName:       n.ClientName,
	}
	if n.SentAt != nil {
		item.SentAt = n.SentAt.UTC().Format(time.RFC3339)
	}
	return item
}

func appointmentItems(appts []model.Appointment) []appointmentItem {
	items := make([]appointmentItem, 0, len(appts))
	for _, a := range appts {
		items = append(items, toAppointmentItem(a))
	}
	return items
}
