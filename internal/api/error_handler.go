package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/voiceguard/biometric-system/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrUserNotEnrolled):
		return http.StatusConflict, "user has no voiceprint"
	case errors.Is(err, domain.ErrAlreadyEnrolled):
		return http.StatusConflict, "user already enrolled"
	case errors.Is(err, domain.ErrUserLocked):
		return http.StatusLocked, "user is locked"
	case errors.Is(err, domain.ErrChallengeNotFound):
		return http.StatusNotFound, "challenge not found"
	case errors.Is(err, domain.ErrChallengeExpired):
		return http.StatusGone, "challenge expired"
	case errors.Is(err, domain.ErrChallengeReplayed):
		return http.StatusConflict, "challenge already used"
	case errors.Is(err, domain.ErrInvalidChallenge):
		return http.StatusUnprocessableEntity, "challenge does not match request"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "challenge rate limit exceeded"
	case errors.Is(err, domain.ErrNoPhraseAvailable):
		return http.StatusConflict, "no phrase available"
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "enrollment session not found"
	case errors.Is(err, domain.ErrSessionNotActive):
		return http.StatusConflict, "enrollment session is not in progress"
	case errors.Is(err, domain.ErrSessionExpired):
		return http.StatusGone, "enrollment session expired"
	case errors.Is(err, domain.ErrSessionConflict):
		return http.StatusConflict, "concurrent session update, retry"
	case errors.Is(err, domain.ErrIncompleteSession):
		return http.StatusUnprocessableEntity, "enrollment session incomplete"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrOperatorNotFound):
		return http.StatusNotFound, "operator not found"
	case errors.Is(err, domain.ErrOperatorExists):
		return http.StatusConflict, "operator already exists"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
