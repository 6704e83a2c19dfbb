package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"salonpos-backend/services"
	"salonpos-backend/utils"
)

// respondServiceError maps service sentinels onto HTTP statuses. The message
// is passed through as-is.
func respondServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrNoSalonContext):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrSlotUnavailable),
		errors.Is(err, services.ErrAlreadyBilled),
		errors.Is(err, services.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrInactiveService):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "path", c.FullPath(), "error", err)
	}
	utils.RespondWithError(c, status, err.Error())
}

func salonFromContext(c *gin.Context) (uuid.UUID, bool) {
	salonID, ok := utils.SalonIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusForbidden, "No salon associated with this account")
		return uuid.Nil, false
	}
	return salonID, true
}

// userFromContext returns uuid.Nil when the request carries no user.
func userFromContext(c *gin.Context) uuid.UUID {
	id, _ := utils.UserIDFromContext(c)
	return id
}

func parseIDParam(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+what+" ID format")
		return uuid.Nil, false
	}
	return id, true
}
