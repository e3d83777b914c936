package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/engine"
)

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func writeErrorJSON(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message},
	})
}

// writeEngineError maps the engine taxonomy onto HTTP: conflicts are 409 so
// callers can tell "someone already acted" from plain invalid requests,
// missing records are 404, remaining precondition failures are 400.
// Anything untyped is an internal fault.
func writeEngineError(w http.ResponseWriter, err error) {
	var e *engine.Error
	if errors.As(err, &e) {
		status := http.StatusBadRequest
		switch {
		case e == engine.ErrNotFound:
			status = http.StatusNotFound
		case engine.Conflict(err):
			status = http.StatusConflict
		}
		writeErrorJSON(w, status, e.Code, e.Message)
		return
	}

	logger.Error.Printf("Internal error: %v", err)
	http.Error(w, "Internal error", http.StatusInternalServerError)
}
