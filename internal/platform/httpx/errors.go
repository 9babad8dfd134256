package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/odyssey-erp/taskhub/internal/shared"
)

type errorMapping struct {
	kind    error
	status  int
	message string
}

var errorMappings = []errorMapping{
	{shared.ErrValidation, http.StatusBadRequest, "Invalid request"},
	{shared.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{shared.ErrInvalidToken, http.StatusUnauthorized, "Invalid token"},
	{shared.ErrUnknownUser, http.StatusUnauthorized, "User not found"},
	{shared.ErrUnauthenticated, http.StatusUnauthorized, "Unauthorized"},
	{shared.ErrForbidden, http.StatusForbidden, "Forbidden: insufficient permissions"},
	{shared.ErrNotFound, http.StatusNotFound, "Not found"},
	{shared.ErrConflict, http.StatusConflict, "Conflict"},
}

// StatusFor maps a domain error to its HTTP status and client message.
func StatusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.kind) {
			if msg, ok := shared.PublicMessage(err); ok {
				return m.status, msg
			}
			return m.status, m.message
		}
	}
	return http.StatusInternalServerError, "Internal server error"
}

// RespondError writes err as {"message": ...}. Unmapped errors are logged and
// reported as a generic 500.
func RespondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, msg := StatusFor(err)
	if status == http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", slog.Any("error", err))
	}
	Message(w, status, msg)
}
