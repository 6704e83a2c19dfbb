package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"salonpos-backend/models"
	"salonpos-backend/utils"
)

type UpdateProfileInput struct {
	Name    *string `json:"name" binding:"omitempty,min=1,max=120"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
}

type WorkingHoursInput struct {
	WorkingHours json.RawMessage `json:"workingHours" binding:"required"`
}

type NotificationSettingsInput struct {
	BirthdayReminders    *bool `json:"birthdayReminders"`
	AppointmentReminders *bool `json:"appointmentReminders"`
	WhatsAppEnabled      *bool `json:"whatsAppEnabled"`
	SMSEnabled           *bool `json:"smsEnabled"`
}

type ProfileController struct {
	DB *gorm.DB
}

func (pc *ProfileController) loadProfile(c *gin.Context, salonID uuid.UUID) (*models.SalonProfile, bool) {
	var profile models.SalonProfile
	if err := pc.DB.First(&profile, "id = ?", salonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Salon profile not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &profile, true
}

func (pc *ProfileController) GetProfile(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	profile, ok := pc.loadProfile(c, salonID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (pc *ProfileController) UpdateProfile(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	profile, ok := pc.loadProfile(c, salonID)
	if !ok {
		return
	}

	if input.Name != nil {
		profile.Name = strings.TrimSpace(*input.Name)
	}
	if input.Address != nil {
		profile.Address = *input.Address
	}
	if input.Phone != nil {
		phone := utils.NormalizePhone(*input.Phone)
		if phone != "" && !utils.ValidatePhone(phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}
		profile.Phone = phone
	}

	if err := pc.DB.Save(profile).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateWorkingHours stores the opening hours as given. The booking grid does
// not read them.
func (pc *ProfileController) UpdateWorkingHours(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	var input WorkingHoursInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	var hours map[string]any
	if err := json.Unmarshal(input.WorkingHours, &hours); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "workingHours must be an object keyed by weekday")
		return
	}

	result := pc.DB.Model(&models.SalonProfile{}).Where("id = ?", salonID).
		Update("working_hours", datatypes.JSON(input.WorkingHours))
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update working hours")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Salon profile not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Working hours updated"})
}

func (pc *ProfileController) UpdateNotificationSettings(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	var input NotificationSettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	profile, ok := pc.loadProfile(c, salonID)
	if !ok {
		return
	}
	if input.BirthdayReminders != nil {
		profile.BirthdayReminders = *input.BirthdayReminders
	}
	if input.AppointmentReminders != nil {
		profile.AppointmentReminders = *input.AppointmentReminders
	}
	if input.WhatsAppEnabled != nil {
		profile.WhatsAppEnabled = *input.WhatsAppEnabled
	}
	if input.SMSEnabled != nil {
		profile.SMSEnabled = *input.SMSEnabled
	}

	if err := pc.DB.Save(profile).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update notification settings")
		return
	}
	c.JSON(http.StatusOK, profile)
}
