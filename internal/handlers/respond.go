package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"watchparty/internal/services"
	"watchparty/internal/storage"

	"github.com/sirupsen/logrus"
)

type response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response{Success: status < http.StatusBadRequest, Data: data})
}

// writeError maps the error taxonomy onto status codes: validation 400,
// missing records 404, membership conflicts 409, everything else is treated
// as a store failure the caller may retry.
func writeError(w http.ResponseWriter, log *logrus.Logger, err error) {
	status := http.StatusBadGateway

	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrAlreadyMember), errors.Is(err, services.ErrNotMember):
		status = http.StatusConflict
	default:
		log.WithError(err).Error("Store operation failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response{Success: false, Error: err.Error()})
}
