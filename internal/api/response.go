package api

import (
	"errors"
	"net/http"
	"strings"

	"tourguide/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type errorBody struct {
	StatusCode int               `json:"status_code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
}

type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrSlotTaken),
		errors.Is(err, domain.ErrSlotUnavailable),
		errors.Is(err, domain.ErrAlreadyReviewed),
		errors.Is(err, domain.ErrTourInUse):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrConcurrentModification):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	code := statusFor(err)
	body := errorBody{StatusCode: code, Message: err.Error()}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		body.Message = verr.Message
		body.Details = verr.Fields
	}
	if code == http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		body.Message = "internal server error"
	}
	c.AbortWithStatusJSON(code, errorEnvelope{Error: body})
}

func writeStatus(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, errorEnvelope{Error: errorBody{StatusCode: code, Message: message}})
}

// badRequest reports a malformed request body or query parameter.
func badRequest(c *gin.Context, field string, err error) {
	msg := err.Error()
	if i := strings.Index(msg, "\n"); i > 0 {
		msg = msg[:i]
	}
	writeError(c, domain.Invalid(field, msg))
}
