package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Error codes carried in the "error" field of failed responses
const (
	codeValidation         = "validation_error"
	codeNotFound           = "not_found"
	codeStoreUnavailable   = "store_unavailable"
	codeExternalService    = "external_service_error"
	codeServiceUnavailable = "service_unavailable"
	codeInternal           = "internal_error"
)

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.From(ctx).Error("failed to write response", "error", err)
	}
}

func writeData(ctx context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(ctx, w, status, envelope{Success: true, Data: data})
}

// writeError converts an error into a status code and a uniform body. Store and
// external service failures are logged with their details and reported with a
// generic message.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status, code, msg := classify(err)
	if status >= http.StatusInternalServerError {
		logging.From(ctx).Error("request failed", logging.ErrAttr("error", err))
	} else {
		logging.From(ctx).Info("request rejected", "code", code, "error", err)
	}
	writeJSON(ctx, w, status, envelope{Error: code, Message: msg})
}

func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest, codeValidation, err.Error()
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, codeNotFound, err.Error()
	case errors.Is(err, model.ErrStoreUnavailable):
		return http.StatusInternalServerError, codeStoreUnavailable, "meeting store is unavailable"
	case errors.Is(err, model.ErrExternalService):
		return http.StatusInternalServerError, codeExternalService, "external service failed"
	default:
		return http.StatusInternalServerError, codeInternal, "internal server error"
	}
}

func writeUnavailable(ctx context.Context, w http.ResponseWriter, what string) {
	writeJSON(ctx, w, http.StatusServiceUnavailable, envelope{
		Error:   codeServiceUnavailable,
		Message: what + " is not configured",
	})
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return goerr.Wrap(model.ErrValidation, "request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return goerr.Wrap(model.ErrValidation, "invalid request body", goerr.V("cause", err.Error()))
	}
	return nil
}
