package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/reminders"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/scheduling"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/storage"
)

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeError maps domain errors onto HTTP statuses. Unknown errors are logged and hidden.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, storage.ErrSlotTaken):
		msg := storage.ErrSlotTaken.Error()
		if ve, ok := scheduling.AsValidation(err); ok {
			msg = ve.Reason
		}
		writeJSON(w, http.StatusConflict, errorResponse{Code: scheduling.CodeSlotTaken, Error: msg})
	case errors.Is(err, storage.ErrDuplicatePhone):
		writeJSON(w, http.StatusConflict, errorResponse{Code: "duplicate_phone", Error: storage.ErrDuplicatePhone.Error()})
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, reminders.ErrAppointmentNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Code: "not_found", Error: "not found"})
	default:
		if ve, ok := scheduling.AsValidation(err); ok {
			writeJSON(w, http.StatusBadRequest, errorResponse{Code: ve.Code, Error: ve.Reason})
			return
		}
		logger.Error("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Code: "internal", Error: "internal error"})
	}
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
