package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"salonpos-backend/models"
	"salonpos-backend/services"
	"salonpos-backend/utils"
)

type UpdateStatusInput struct {
	Status models.AppointmentStatus `json:"status" binding:"required"`
}

type AppointmentController struct {
	Appointments *services.AppointmentService
}

func optionalUUIDQuery(c *gin.Context, key string) (*uuid.UUID, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+key)
		return nil, false
	}
	return &id, true
}

func (ac *AppointmentController) GetAppointments(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	filter := services.AppointmentFilter{
		Date:   c.Query("date"),
		Status: models.AppointmentStatus(c.Query("status")),
	}
	if filter.CustomerID, ok = optionalUUIDQuery(c, "customerId"); !ok {
		return
	}
	if filter.StaffID, ok = optionalUUIDQuery(c, "staffId"); !ok {
		return
	}

	appointments, err := ac.Appointments.List(c.Request.Context(), salonID, filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, appointments)
}

func (ac *AppointmentController) GetAppointment(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "appointment")
	if !ok {
		return
	}
	appointment, err := ac.Appointments.Get(c.Request.Context(), salonID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, appointment)
}

func (ac *AppointmentController) CreateAppointment(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	var input services.BookAppointmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	appointment, err := ac.Appointments.Book(c.Request.Context(), salonID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, appointment)
}

// GetAvailability returns the slot grid for ?date=YYYY-MM-DD&duration=minutes.
func (ac *AppointmentController) GetAvailability(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	duration, err := strconv.Atoi(c.Query("duration"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "duration must be a number of minutes")
		return
	}
	date := c.Query("date")

	slots, err := ac.Appointments.Availability(c.Request.Context(), salonID, date, duration)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "duration": duration, "slots": slots})
}

func (ac *AppointmentController) GetPendingBilling(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	appointments, err := ac.Appointments.PendingBilling(c.Request.Context(), salonID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, appointments)
}

func (ac *AppointmentController) CheckIn(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "appointment")
	if !ok {
		return
	}
	appointment, err := ac.Appointments.CheckIn(c.Request.Context(), salonID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, appointment)
}

func (ac *AppointmentController) UpdateStatus(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "appointment")
	if !ok {
		return
	}
	var input UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	appointment, err := ac.Appointments.UpdateStatus(c.Request.Context(), salonID, id, input.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, appointment)
}

func (ac *AppointmentController) Reschedule(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "appointment")
	if !ok {
		return
	}
	var input services.RescheduleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	appointment, err := ac.Appointments.Reschedule(c.Request.Context(), salonID, id, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, appointment)
}
