package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/clock"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/dispatch"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/reminders"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/scheduling"
)

type BookingHandler struct {
	svc        *booking.Service
	validator  *scheduling.Validator
	reminders  *reminders.Scheduler
	dispatcher *dispatch.Dispatcher
	clock      clock.Clock
	logger     *slog.Logger
}

type Deps struct {
	Service    *booking.Service
	Validator  *scheduling.Validator
	Reminders  *reminders.Scheduler
	Dispatcher *dispatch.Dispatcher
	Clock      clock.Clock
	Logger     *slog.Logger
}

func NewBookingHandler(d Deps) *BookingHandler {
	if d.Clock == nil {
		d.Clock = clock.System{}
	}
	return &BookingHandler{
		svc:        d.Service,
		validator:  d.Validator,
		reminders:  d.Reminders,
		dispatcher: d.Dispatcher,
		clock:      d.Clock,
		logger:     d.Logger,
	}
}

func (h *BookingHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/services", h.Services)

	mux.HandleFunc("POST /api/v1/clients", h.CreateClient)
	mux.HandleFunc("GET /api/v1/clients", h.ListClients)
	mux.HandleFunc("GET /api/v1/clients/{id}", h.GetClient)
	mux.HandleFunc("PUT /api/v1/clients/{id}", h.UpdateClient)
	mux.HandleFunc("DELETE /api/v1/clients/{id}", h.DeleteClient)
	mux.HandleFunc("GET /api/v1/clients/{id}/appointments", h.ClientAppointments)

	mux.HandleFunc("POST /api/v1/appointments", h.CreateAppointment)
	mux.HandleFunc("GET /api/v1/appointments", h.ListAppointments)
	mux.HandleFunc("POST /api/v1/appointments/validate", h.Validate)
	mux.HandleFunc("GET /api/v1/appointments/{id}", h.GetAppointment)
	mux.HandleFunc("PUT /api/v1/appointments/{id}", h.UpdateAppointment)
	mux.HandleFunc("DELETE /api/v1/appointments/{id}", h.DeleteAppointment)

	mux.HandleFunc("GET /api/v1/slots", h.Slots)

	mux.HandleFunc("GET /api/v1/notifications/due", h.DueNotifications)
	mux.HandleFunc("GET /api/v1/reminders/upcoming", h.UpcomingReminders)
	mux.HandleFunc("POST /api/v1/dispatch/run", h.RunDispatch)

	mux.HandleFunc("GET /api/v1/stats", h.Stats)
}

func (h *BookingHandler) Services(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"services": model.ServiceCatalog})
}

type appointmentRequest struct {
	ClientID        int64  `json:"client_id"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	Service         string `json:"service"`
	DurationMinutes int    `json:"duration_minutes"`
	Notes           string `json:"notes"`
	Status          string `json:"status"`
}

// updateAppointmentRequest leaves omitted fields unchanged; "" clears service or notes.
type updateAppointmentRequest struct {
	Date            string  `json:"date"`
	Time            string  `json:"time"`
	Service         *string `json:"service"`
	DurationMinutes int     `json:"duration_minutes"`
	Notes           *string `json:"notes"`
	Status          string  `json:"status"`
}

type createAppointmentResponse struct {
	Appointment  appointmentItem  `json:"appointment"`
	Notification notificationItem `json:"notification"`
}

func (h *BookingHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req appointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	b, err := h.svc.CreateAppointment(r.Context(), booking.NewAppointment{
		ClientID:        req.ClientID,
		Date:            req.Date,
		Time:            req.Time,
		Service:         req.Service,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
		Status:          model.Status(strings.TrimSpace(req.Status)),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, createAppointmentResponse{
		Appointment:  toAppointmentItem(b.Appointment),
		Notification: toNotificationItem(b.Reminder),
	})
}

// ListAppointments serves ?date=, ?from=&to= or, with neither, every appointment newest first.
func (h *BookingHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date := strings.TrimSpace(q.Get("date"))
	from, to := strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to"))

	var (
		appts []model.Appointment
		err   error
	)
	switch {
	case date != "":
		appts, err = h.svc.AppointmentsByDate(r.Context(), date)
	case from != "" || to != "":
		appts, err = h.validator.AppointmentsInRange(r.Context(), from, to)
	default:
		appts, err = h.svc.AllAppointments(r.Context())
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, appointmentItems(appts))
}

func (h *BookingHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	a, err := h.svc.GetAppointment(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentItem(a))
}

func (h *BookingHandler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	var req updateAppointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	a, err := h.svc.UpdateAppointment(r.Context(), id, booking.AppointmentUpdate{
		Date:            req.Date,
		Time:            req.Time,
		Service:         req.Service,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
		Status:          model.Status(strings.TrimSpace(req.Status)),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentItem(a))
}

func (h *BookingHandler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	if err := h.svc.DeleteAppointment(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type validateRequest struct {
	AppointmentID int64  `json:"appointment_id"`
	ClientID      int64  `json:"client_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
}

type validateResponse struct {
	OK   bool   `json:"ok"`
	Slot string `json:"slot"`
}

// Validate is a dry run of booking (or, with appointment_id, rescheduling). Nothing is written.
func (h *BookingHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	var (
		slot model.Slot
		err  error
	)
	if req.AppointmentID > 0 {
		slot, err = h.validator.ValidateReschedule(r.Context(), req.AppointmentID, req.Date, req.Time)
	} else {
		slot, err = h.validator.ValidateAppointment(r.Context(), req.ClientID, req.Date, req.Time)
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{OK: true, Slot: slot.String()})
}

type slotsResponse struct {
	Date            string   `json:"date"`
	IntervalMinutes int      `json:"interval_minutes"`
	Times           []string `json:"times"`
}

func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	interval := scheduling.DefaultIntervalMinutes
	if raw := strings.TrimSpace(r.URL.Query().Get("interval_minutes")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid interval_minutes", http.StatusBadRequest)
			return
		}
		interval = n
	}

	times, err := h.validator.AvailableTimes(r.Context(), date, interval)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if interval == 0 {
		interval = scheduling.DefaultIntervalMinutes
	}
	writeJSON(w, http.StatusOK, slotsResponse{Date: date, IntervalMinutes: interval, Times: times})
}

func (h *BookingHandler) Stats(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Stats(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
