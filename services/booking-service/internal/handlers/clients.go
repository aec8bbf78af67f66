package handlers

import (
	"net/http"

	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/booking"
)

type clientRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

func (h *BookingHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	c, err := h.svc.CreateClient(r.Context(), booking.ClientInput{Name: req.Name, Phone: req.Phone, Email: req.Email})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toClientItem(c))
}

func (h *BookingHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.svc.ListClients(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	items := make([]clientItem, 0, len(clients))
	for _, c := range clients {
		items = append(items, toClientItem(c))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *BookingHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid client id", http.StatusBadRequest)
		return
	}
	c, err := h.svc.GetClient(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientItem(c))
}

func (h *BookingHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid client id", http.StatusBadRequest)
		return
	}
	var req clientRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	c, err := h.svc.UpdateClient(r.Context(), id, booking.ClientInput{Name: req.Name, Phone: req.Phone, Email: req.Email})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientItem(c))
}

func (h *BookingHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid client id", http.StatusBadRequest)
		return
	}
	if err := h.svc.DeleteClient(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BookingHandler) ClientAppointments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid client id", http.StatusBadRequest)
		return
	}
	appts, err := h.svc.AppointmentsByClient(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, appointmentItems(appts))
}
