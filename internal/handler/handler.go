// Package handler exposes the tracker over a JSON HTTP API.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/questpet/internal/apperr"
)

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, key, msg string) {
	writeJSON(w, status, map[string]string{key: msg})
}

// decodeJSON reads the request body into v. An empty body leaves v as is.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// writeError maps tracker errors onto status codes. Anything unexpected is
// logged and reported as fallback.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error, fallback string) {
	switch {
	case apperr.IsValidation(err):
		writeMessage(w, http.StatusBadRequest, "error", err.Error())
	case apperr.IsNotFound(err):
		writeMessage(w, http.StatusNotFound, "error", err.Error())
	case errors.Is(err, apperr.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "error", err.Error())
	case errors.Is(err, apperr.ErrDuplicate):
		writeMessage(w, http.StatusConflict, "error", err.Error())
	default:
		logger.Error(fallback, "error", err)
		writeMessage(w, http.StatusInternalServerError, "error", fallback)
	}
}
