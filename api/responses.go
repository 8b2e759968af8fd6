package api

import (
	"errors"
	"net/http"

	"stakeforge/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Response is the envelope every handler returns
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: data})
}

func respondCreated(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Response{Success: true, Message: message, Data: data})
}

// respondError maps the service failure taxonomy onto HTTP status codes.
// Errors outside the taxonomy are internal faults; their detail is logged,
// not sent to the client.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	switch {
	case errors.Is(err, service.ErrInvalidArgument), errors.Is(err, service.ErrInsufficientFunds):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrStakeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrGitHubAuthRequired):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrStakeNotPending), errors.Is(err, service.ErrUserExists):
		status = http.StatusConflict
	case errors.Is(err, service.ErrUpstreamUnavailable):
		status = http.StatusBadGateway
	default:
		message = "internal server error"
	}

	if status >= http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"path":  c.FullPath(),
			"error": err,
		}).Error("Request failed")
	}

	c.JSON(status, Response{Success: false, Message: message})
}

func respondStatus(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Success: false, Message: message})
}
