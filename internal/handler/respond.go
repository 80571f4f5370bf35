package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"storefront/internal/service"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg, kind string) {
	writeJSON(w, status, errorResponse{Message: msg, Error: kind})
}

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation, service.KindDeliveryUnavailable,
		service.KindVerification, service.KindIllegalTransition:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindGatewayUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a service error to its status. Storage failures never
// expose their cause.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *service.Error
	if !errors.As(err, &appErr) {
		appErr = &service.Error{Kind: service.KindStorage, Message: "internal error", Err: err}
	}

	status := statusFor(appErr.Kind)
	msg := appErr.Message
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	writeMessage(w, status, msg, string(appErr.Kind))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func badRequest(w http.ResponseWriter, msg string) {
	writeMessage(w, http.StatusBadRequest, msg, string(service.KindValidation))
}
