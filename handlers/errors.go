package handlers

import (
	"errors"
	"net/http"

	"acroparty/services"

	"github.com/gin-gonic/gin"
)

// respondError maps service sentinel errors onto HTTP status codes so every
// handler reports failures the same way.
func respondError(c *gin.Context, err error) {
	status := http.StatusUnprocessableEntity

	switch {
	case errors.Is(err, services.ErrGameNotFound),
		errors.Is(err, services.ErrRoundNotFound),
		errors.Is(err, services.ErrAnswerNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrNotHost):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrWrongPassword):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrAlreadyVoted),
		errors.Is(err, services.ErrAlreadyInGame):
		status = http.StatusConflict
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
