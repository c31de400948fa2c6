package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"aeroqualify/internal/bootstrap/logging"
	"aeroqualify/internal/errs"
)

type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps error kinds onto HTTP statuses. Persistence errors carry the
// storage message so an operator can see which table or constraint failed;
// only unclassified errors are returned without detail.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch errs.KindOf(err) {
	case errs.KindValidation:
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Description: err.Error()})
	case errs.KindNotFound:
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Description: err.Error()})
	case errs.KindPermission:
		writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden", Description: err.Error()})
	case errs.KindPersistence:
		logging.Error(ctx, "request failed", slog.Any("err", errs.Loggable(err)))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "persistence_error", Description: err.Error()})
	default:
		if errors.Is(err, context.Canceled) {
			return
		}
		logging.Error(ctx, "request failed", slog.Any("err", errs.Loggable(err)))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal_error"})
	}
}

func writeUnauthorized(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized", Description: err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.Validation(errs.Wrap(err, "decode request body"))
	}
	return nil
}
