package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/baharkarakas/point-service/internal/services"
)

type APIError struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, code, msg string, details any) {
	WriteJSON(w, status, APIError{
		Error:   msg,
		Code:    code,
		Details: details,
	})
}

// StatusFor maps a service error to its HTTP status and error code.
// Anything that is not a *services.Error is internal.
func StatusFor(err error) (int, string) {
	var se *services.Error
	if !errors.As(err, &se) {
		return http.StatusInternalServerError, "internal_error"
	}
	switch se.Kind.Category() {
	case services.CategoryValidation:
		return http.StatusBadRequest, string(se.Kind)
	default:
		return http.StatusUnprocessableEntity, string(se.Kind)
	}
}

// WriteServiceError hides internal error text from the client.
func WriteServiceError(w http.ResponseWriter, err error) {
	status, code := StatusFor(err)
	msg := "internal error"
	if status != http.StatusInternalServerError {
		msg = err.Error()
	}
	WriteError(w, status, code, msg, nil)
}
