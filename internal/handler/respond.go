package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ilmhub/coinhub/internal/ilmhub"
	"github.com/ilmhub/coinhub/internal/redemption"
	"github.com/ilmhub/coinhub/internal/shop"
)

// statusClientClosedRequest is logged when the caller went away before the
// backend answered. Nothing reads the response.
const statusClientClosedRequest = 499

const maxRequestBody = 1 << 16

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps domain and upstream errors onto HTTP statuses.
func statusFor(err error) int {
	var apiErr *ilmhub.APIError
	switch {
	case errors.Is(err, redemption.ErrInvalidQuantity),
		errors.Is(err, redemption.ErrInsufficientFunds),
		errors.Is(err, shop.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, redemption.ErrInvalidTransition),
		errors.Is(err, shop.ErrInFlight):
		return http.StatusConflict
	case errors.Is(err, ilmhub.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden):
		return apiErr.StatusCode
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case errors.Is(err, ilmhub.ErrRequestFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError replies with the mapped status and a user-facing message.
func writeError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(op, "status", status, "error", err)
	} else {
		logger.Debug(op, "status", status, "error", err)
	}
	writeMessage(w, status, shop.UserMessage(err))
}

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}
