package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-approval/internal/domain/workflow"
)

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrNoPendingApproval), errors.Is(err, workflow.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, workflow.ErrInvalidDecision),
		errors.Is(err, workflow.ErrInvalidRule),
		errors.Is(err, workflow.ErrInvalidExpense):
		return http.StatusBadRequest
	case errors.Is(err, workflow.ErrConfigurationMismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as a failed Response. Internal failures are logged
// and their detail is not returned to the client.
func (h *Handlers) writeError(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(msg,
			"request_id", c.GetString(requestIDKey),
			"path", c.Request.URL.Path,
			"error", err,
		)
		c.JSON(status, Response{
			Success: false,
			Error:   "internal error",
		})
		return
	}

	h.logger.Info(msg,
		"request_id", c.GetString(requestIDKey),
		"status", status,
		"error", err,
	)
	c.JSON(status, Response{
		Success: false,
		Error:   err.Error(),
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   msg,
	})
}
