// controllers/reminder.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"salonpos-backend/models"
	"salonpos-backend/services"
	"salonpos-backend/utils"
)

// CreateReminderTemplateInput defines the expected JSON structure
type CreateReminderTemplateInput struct {
	Type    string `json:"type" binding:"required,oneof=birthday appointment"`
	Message string `json:"message" binding:"required"`
}

// UpdateReminderTemplateInput defines the expected JSON structure
type UpdateReminderTemplateInput struct {
	Message  *string `json:"message" binding:"omitempty,min=1"`
	IsActive *bool   `json:"isActive"`
}

type SendTestInput struct {
	Channel string `json:"channel" binding:"required,oneof=sms whatsapp"`
	To      string `json:"to" binding:"required"`
	Message string `json:"message" binding:"required"`
}

type ReminderController struct {
	DB        *gorm.DB
	Reminders *services.ReminderService
}

// CreateReminderTemplate creates a new reminder template
func (rc *ReminderController) CreateReminderTemplate(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	var input CreateReminderTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// One template per type
	var existing models.ReminderTemplate
	if err := rc.DB.Where("salon_id = ? AND type = ?", salonID, input.Type).
		First(&existing).Error; err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Template for this type already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	template := models.ReminderTemplate{
		SalonID:  salonID,
		Type:     input.Type,
		Message:  input.Message,
		IsActive: true,
	}
	if err := rc.DB.Create(&template).Error; err != nil {
		respondServiceError(c, services.TranslateDBError(err))
		return
	}

	c.JSON(http.StatusCreated, template)
}

func (rc *ReminderController) GetReminderTemplates(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	var templates []models.ReminderTemplate
	if err := rc.DB.Where("salon_id = ?", salonID).Order("type ASC").Find(&templates).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve templates")
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (rc *ReminderController) findTemplate(c *gin.Context, salonID uuid.UUID) (*models.ReminderTemplate, bool) {
	templateID, ok := parseIDParam(c, "template")
	if !ok {
		return nil, false
	}
	var template models.ReminderTemplate
	if err := rc.DB.Where("salon_id = ? AND id = ?", salonID, templateID).
		First(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Template not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &template, true
}

func (rc *ReminderController) GetReminderTemplate(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	template, ok := rc.findTemplate(c, salonID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, template)
}

// UpdateReminderTemplate edits the message or toggles the template.
func (rc *ReminderController) UpdateReminderTemplate(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	var input UpdateReminderTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	template, ok := rc.findTemplate(c, salonID)
	if !ok {
		return
	}

	if input.Message != nil {
		template.Message = *input.Message
	}
	if input.IsActive != nil {
		template.IsActive = *input.IsActive
	}

	if err := rc.DB.Save(template).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update template")
		return
	}
	c.JSON(http.StatusOK, template)
}

func (rc *ReminderController) DeleteReminderTemplate(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	templateID, ok := parseIDParam(c, "template")
	if !ok {
		return
	}

	result := rc.DB.Where("salon_id = ? AND id = ?", salonID, templateID).
		Delete(&models.ReminderTemplate{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete template")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Template not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Template deleted successfully"})
}

// GetReminderLogs lists delivery attempts, newest first. ?limit= caps the
// page (default 50, max 500).
func (rc *ReminderController) GetReminderLogs(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			utils.RespondWithError(c, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	q := rc.DB.Where("salon_id = ?", salonID)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	var logs []models.ReminderLog
	if err := q.Order("sent_at DESC").Limit(limit).Find(&logs).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve reminder logs")
		return
	}
	c.JSON(http.StatusOK, logs)
}

// RunReminders processes this salon's reminders immediately instead of
// waiting for the daily job. Already-sent reminders are skipped.
func (rc *ReminderController) RunReminders(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	var salon models.SalonProfile
	if err := rc.DB.First(&salon, "id = ?", salonID).Error; err != nil {
		respondServiceError(c, services.TranslateDBError(err))
		return
	}
	report := rc.Reminders.ProcessSalonReminders(c.Request.Context(), salon)
	c.JSON(http.StatusOK, report)
}

func (rc *ReminderController) SendTest(c *gin.Context) {
	var input SendTestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	sid, err := rc.Reminders.SendTest(c.Request.Context(), input.Channel, utils.NormalizePhone(input.To), input.Message)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			respondServiceError(c, err)
			return
		}
		utils.RespondWithError(c, http.StatusBadGateway, "Failed to send message: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Test message sent", "sid": sid})
}
