package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"health-vault-server/internal/services"
	"health-vault-server/internal/utils"
)

// respondServiceError translates service errors into the standard response
// envelope. Unknown errors never leak details to the client.
func respondServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError

	switch {
	case errors.As(err, &validationErr):
		utils.BadRequest(c, validationErr.Error())
	case errors.Is(err, services.ErrNotFound):
		utils.NotFound(c, "Resource not found")
	case errors.Is(err, services.ErrPermissionDenied):
		utils.Forbidden(c, "You are not authorized to perform this action")
	case errors.Is(err, services.ErrConflict):
		utils.Conflict(c, "A pending or approved connection already exists for this pair")
	case errors.Is(err, services.ErrUpstreamUnavailable):
		utils.ServiceUnavailable(c, "A dependent service is unavailable")
	default:
		utils.InternalServerError(c, "An unexpected error occurred")
	}
}
