package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"digital-menu/services"

	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps service errors to a status and a message safe to show the user.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var throttled *services.ThrottledError
	var upload *services.UploadError

	switch {
	case errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrMissingRoom),
		errors.Is(err, services.ErrUnknownRoom),
		errors.Is(err, services.ErrInvalidInput):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrUnauthorized):
		writeMessage(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, services.ErrEmailTaken):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.As(err, &throttled):
		w.Header().Set("Retry-After", strconv.Itoa(throttled.WaitSeconds))
		writeMessage(w, http.StatusTooManyRequests, throttled.Error())
	case errors.As(err, &upload):
		h.Log.Error("image upload failed", zap.String("path", upload.Path), zap.Error(upload.Err))
		writeMessage(w, http.StatusBadGateway, "image upload failed, item not saved")
	default:
		h.Log.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
