package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/model"
)

// evaluationTime reads an optional ?at=YYYY-MM-DD HH:MM, falling back to the clock.
func (h *BookingHandler) evaluationTime(r *http.Request) (time.Time, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("at"))
	if raw == "" {
		return h.clock.Now(), true
	}
	at, err := time.ParseInLocation(model.DateTimeLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}

func (h *BookingHandler) DueNotifications(w http.ResponseWriter, r *http.Request) {
	now, ok := h.evaluationTime(r)
	if !ok {
		http.Error(w, "at must be YYYY-MM-DD HH:MM", http.StatusBadRequest)
		return
	}
	due, err := h.reminders.Due(r.Context(), now)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	items := make([]notificationItem, 0, len(due))
	for _, n := range due {
		items = append(items, toNotificationItem(n))
	}
	writeJSON(w, http.StatusOK, items)
}

type upcomingResponse struct {
	AdvanceMinutes int               `json:"advance_minutes"`
	Appointments   []appointmentItem `json:"appointments"`
}

func (h *BookingHandler) UpcomingReminders(w http.ResponseWriter, r *http.Request) {
	now, ok := h.evaluationTime(r)
	if !ok {
		http.Error(w, "at must be YYYY-MM-DD HH:MM", http.StatusBadRequest)
		return
	}
	appts, err := h.reminders.Upcoming(r.Context(), now)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, upcomingResponse{
		AdvanceMinutes: int(h.reminders.Advance() / time.Minute),
		Appointments:   appointmentItems(appts),
	})
}

// RunDispatch runs one dispatcher tick immediately, outside the regular schedule.
func (h *BookingHandler) RunDispatch(w http.ResponseWriter, r *http.Request) {
	if h.dispatcher == nil {
		http.Error(w, "dispatcher not configured", http.StatusServiceUnavailable)
		return
	}
	report := h.dispatcher.Tick(r.Context(), h.clock.Now())
	status := http.StatusOK
	if report.Skipped {
		status = http.StatusConflict
	}
	writeJSON(w, status, report)
}
