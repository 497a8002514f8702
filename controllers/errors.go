// controllers/errors.go
package controllers

import (
	"errors"
	"net/http"

	"motoshop-backend/services"
	"motoshop-backend/utils"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps service errors to HTTP statuses. Database causes
// are never echoed; the service has already logged them.
func respondServiceError(c *gin.Context, err error, notFound string) {
	var validation *services.ValidationError
	var operation *services.OperationError
	switch {
	case errors.As(err, &validation):
		utils.RespondWithError(c, http.StatusBadRequest, validation.Message)
	case errors.Is(err, services.ErrNotFound):
		utils.RespondWithError(c, http.StatusNotFound, notFound)
	case errors.As(err, &operation):
		utils.RespondWithError(c, http.StatusInternalServerError, operation.Error())
	default:
		utils.RespondWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}

func currentUser(c *gin.Context) (uint, bool) {
	id, ok := utils.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
	}
	return id, ok
}
