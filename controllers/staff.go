package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"salonpos-backend/models"
	"salonpos-backend/services"
	"salonpos-backend/utils"
)

type StaffInput struct {
	FirstName       *string          `json:"firstName" binding:"omitempty,min=1,max=100"`
	LastName        *string          `json:"lastName" binding:"omitempty,max=100"`
	Phone           *string          `json:"phone"`
	Email           *string          `json:"email"`
	Role            *string          `json:"role" binding:"omitempty,max=60"`
	Specializations []string         `json:"specializations"`
	HireDate        *string          `json:"hireDate"`
	Salary          *decimal.Decimal `json:"salary"`
	CommissionRate  *decimal.Decimal `json:"commissionRate"`
	Status          *string          `json:"status" binding:"omitempty,oneof=active inactive on_leave"`
}

type StaffController struct {
	DB    *gorm.DB
	Cache *services.CollectionCache
}

var hundred = decimal.NewFromInt(100)

// apply copies the provided fields onto staff, validating as it goes.
func (in StaffInput) apply(staff *models.Staff) error {
	if in.FirstName != nil {
		staff.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		staff.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Phone != nil {
		phone := utils.NormalizePhone(*in.Phone)
		if phone != "" && !utils.ValidatePhone(phone) {
			return errors.New("invalid phone number format")
		}
		staff.Phone = phone
	}
	if in.Email != nil {
		if *in.Email != "" && !utils.ValidateEmail(*in.Email) {
			return errors.New("invalid email address")
		}
		staff.Email = *in.Email
	}
	if in.Role != nil {
		staff.RoleLabel = *in.Role
	}
	if in.Specializations != nil {
		staff.Specializations = datatypes.JSONSlice[string](in.Specializations)
	}
	if in.HireDate != nil {
		d, err := parseOptionalDate(*in.HireDate)
		if err != nil {
			return err
		}
		staff.HireDate = d
	}
	if in.Salary != nil {
		if in.Salary.IsNegative() {
			return errors.New("salary cannot be negative")
		}
		staff.Salary = in.Salary
	}
	if in.CommissionRate != nil {
		if in.CommissionRate.IsNegative() || in.CommissionRate.GreaterThan(hundred) {
			return errors.New("commission rate must be between 0 and 100")
		}
		staff.CommissionRate = in.CommissionRate
	}
	if in.Status != nil {
		staff.Status = *in.Status
	}
	return nil
}

func (sc *StaffController) CreateStaff(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	var input StaffInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.FirstName == nil || strings.TrimSpace(*input.FirstName) == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "First name is required")
		return
	}

	staff := models.Staff{
		SalonID:         salonID,
		Status:          models.StaffActive,
		Specializations: datatypes.JSONSlice[string]{},
	}
	if err := input.apply(&staff); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := sc.DB.Create(&staff).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create staff member")
		return
	}
	sc.Cache.Invalidate(c.Request.Context(), salonID, services.CollectionStaff)

	c.JSON(http.StatusCreated, staff)
}

func (sc *StaffController) GetStaff(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	status := c.Query("status")

	staff, err := services.CachedList(c.Request.Context(), sc.Cache, salonID, services.CollectionStaff, "status="+status,
		func() ([]models.Staff, error) {
			q := sc.DB.Where("salon_id = ?", salonID)
			if status != "" {
				q = q.Where("status = ?", status)
			}
			var out []models.Staff
			err := q.Order("first_name ASC").Find(&out).Error
			return out, err
		})
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve staff")
		return
	}
	c.JSON(http.StatusOK, staff)
}

func (sc *StaffController) findStaff(c *gin.Context, salonID uuid.UUID) (*models.Staff, bool) {
	staffID, ok := parseIDParam(c, "staff")
	if !ok {
		return nil, false
	}
	var staff models.Staff
	if err := sc.DB.Where("salon_id = ? AND id = ?", salonID, staffID).First(&staff).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Staff member not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &staff, true
}

func (sc *StaffController) GetStaffMember(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	staff, ok := sc.findStaff(c, salonID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, staff)
}

func (sc *StaffController) UpdateStaff(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	var input StaffInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	staff, ok := sc.findStaff(c, salonID)
	if !ok {
		return
	}
	if err := input.apply(staff); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := sc.DB.Save(staff).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update staff member")
		return
	}
	sc.Cache.Invalidate(c.Request.Context(), salonID, services.CollectionStaff)

	c.JSON(http.StatusOK, staff)
}

func (sc *StaffController) DeleteStaff(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	staffID, ok := parseIDParam(c, "staff")
	if !ok {
		return
	}

	result := sc.DB.Where("salon_id = ? AND id = ?", salonID, staffID).Delete(&models.Staff{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete staff member")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Staff member not found")
		return
	}
	sc.Cache.Invalidate(c.Request.Context(), salonID, services.CollectionStaff)

	c.JSON(http.StatusOK, gin.H{"message": "Staff member deleted successfully"})
}
