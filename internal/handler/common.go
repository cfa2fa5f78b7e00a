package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mindscribe/journal-api/internal/repository"
	"github.com/mindscribe/journal-api/internal/session"
)

// dbTimeout bounds the duration of one handler's storage work. The
// reflection call is bounded separately by the generator's own client
// timeout and retry budget.
const dbTimeout = 5 * time.Second

// getUserID extracts the authenticated user id placed in the context
// by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	if v, ok := c.Get("user_id").(uint64); ok && v != 0 {
		return v, nil
	}
	return 0, errors.New("unauthorized")
}

// statusFor maps machine/repository sentinels onto HTTP status codes.
// Anything unrecognized is an internal error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrInvalidCredentials),
		errors.Is(err, session.ErrBadPasscode),
		errors.Is(err, session.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, repository.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrEntryNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrHandleExists),
		errors.Is(err, session.ErrWrongPage):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// machineError renders a failed transition: the session context carries
// the user-facing message, the sentinel picks the status code.
func machineError(c echo.Context, sc session.Context, err error) error {
	status := statusFor(err)
	msg := sc.Error
	if msg == "" || status == http.StatusInternalServerError {
		msg = "internal error"
	}
	return c.JSON(status, echo.Map{"error": msg, "session": sc})
}

func opContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}
