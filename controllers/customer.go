package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"salonpos-backend/models"
	"salonpos-backend/services"
	"salonpos-backend/utils"
)

// CreateCustomerInput defines the expected JSON structure for creating a customer
type CreateCustomerInput struct {
	FirstName   string `json:"firstName" binding:"required,max=100"`
	LastName    string `json:"lastName" binding:"max=100"`
	Phone       string `json:"phone" binding:"required"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	DateOfBirth string `json:"dateOfBirth"` // YYYY-MM-DD
	Notes       string `json:"notes"`
}

// UpdateCustomerInput defines the expected JSON structure for updating a customer
type UpdateCustomerInput struct {
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email"`
	Address     *string `json:"address"`
	DateOfBirth *string `json:"dateOfBirth"`
	Notes       *string `json:"notes"`
}

type CustomerController struct {
	DB    *gorm.DB
	Cache *services.CollectionCache
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := utils.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (cc *CustomerController) phoneTaken(salonID uuid.UUID, phone string, except uuid.UUID) (bool, error) {
	var existing models.Customer
	err := cc.DB.Where("salon_id = ? AND phone = ? AND id <> ?", salonID, phone, except).First(&existing).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

// CreateCustomer creates a new customer for the salon
func (cc *CustomerController) CreateCustomer(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}

	var input CreateCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	phone := utils.NormalizePhone(input.Phone)
	if !utils.ValidatePhone(phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}
	if input.Email != "" && !utils.ValidateEmail(input.Email) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid email address")
		return
	}
	dob, err := parseOptionalDate(input.DateOfBirth)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	taken, err := cc.phoneTaken(salonID, phone, uuid.Nil)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}
	if taken {
		utils.RespondWithError(c, http.StatusConflict, "Customer with this phone number already exists")
		return
	}

	customer := models.Customer{
		SalonID:     salonID,
		FirstName:   strings.TrimSpace(input.FirstName),
		LastName:    strings.TrimSpace(input.LastName),
		Phone:       phone,
		Email:       input.Email,
		Address:     input.Address,
		DateOfBirth: dob,
		Notes:       input.Notes,
	}
	if userID := userFromContext(c); userID != uuid.Nil {
		customer.CreatedByUserID = &userID
	}

	if err := cc.DB.Create(&customer).Error; err != nil {
		respondServiceError(c, services.TranslateDBError(err))
		return
	}
	cc.Cache.Invalidate(c.Request.Context(), salonID, services.CollectionCustomers)

	c.JSON(http.StatusCreated, customer)
}

// GetCustomers lists the salon's customers; ?search= matches name or phone.
func (cc *CustomerController) GetCustomers(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	search := strings.TrimSpace(c.Query("search"))

	customers, err := services.CachedList(c.Request.Context(), cc.Cache, salonID, services.CollectionCustomers, "search="+search,
		func() ([]models.Customer, error) {
			q := cc.DB.Where("salon_id = ?", salonID)
			if search != "" {
				like := "%" + strings.ToLower(search) + "%"
				q = q.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR phone LIKE ?", like, like, like)
			}
			var out []models.Customer
			err := q.Order("first_name ASC, last_name ASC").Find(&out).Error
			return out, err
		})
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve customers")
		return
	}

	c.JSON(http.StatusOK, customers)
}

func (cc *CustomerController) findCustomer(c *gin.Context, salonID uuid.UUID) (*models.Customer, bool) {
	customerID, ok := parseIDParam(c, "customer")
	if !ok {
		return nil, false
	}
	var customer models.Customer
	if err := cc.DB.Where("salon_id = ? AND id = ?", salonID, customerID).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &customer, true
}

// GetCustomer retrieves a specific customer by ID
func (cc *CustomerController) GetCustomer(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	customer, ok := cc.findCustomer(c, salonID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, customer)
}

// GetCustomerHistory returns a customer's appointments and sales, newest first.
func (cc *CustomerController) GetCustomerHistory(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	customer, ok := cc.findCustomer(c, salonID)
	if !ok {
		return
	}

	var appointments []models.Appointment
	if err := cc.DB.Preload("Service").
		Where("salon_id = ? AND customer_id = ?", salonID, customer.ID).
		Order("date DESC, start_time DESC").Find(&appointments).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve appointments")
		return
	}
	var sales []models.Sale
	if err := cc.DB.Preload("Items").
		Where("salon_id = ? AND customer_id = ?", salonID, customer.ID).
		Order("created_at DESC").Find(&sales).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve sales")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customer":     customer,
		"appointments": appointments,
		"sales":        sales,
	})
}

// UpdateCustomer updates an existing customer
func (cc *CustomerController) UpdateCustomer(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}

	var input UpdateCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	customer, ok := cc.findCustomer(c, salonID)
	if !ok {
		return
	}

	if input.FirstName != nil {
		if strings.TrimSpace(*input.FirstName) == "" {
			utils.RespondWithError(c, http.StatusBadRequest, "First name cannot be empty")
			return
		}
		customer.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		customer.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Phone != nil {
		phone := utils.NormalizePhone(*input.Phone)
		if !utils.ValidatePhone(phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}
		if phone != customer.Phone {
			taken, err := cc.phoneTaken(salonID, phone, customer.ID)
			if err != nil {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
				return
			}
			if taken {
				utils.RespondWithError(c, http.StatusConflict, "Another customer with this phone number already exists")
				return
			}
		}
		customer.Phone = phone
	}
	if input.Email != nil {
		if *input.Email != "" && !utils.ValidateEmail(*input.Email) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid email address")
			return
		}
		customer.Email = *input.Email
	}
	if input.Address != nil {
		customer.Address = *input.Address
	}
	if input.DateOfBirth != nil {
		dob, err := parseOptionalDate(*input.DateOfBirth)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		customer.DateOfBirth = dob
	}
	if input.Notes != nil {
		customer.Notes = *input.Notes
	}

	if err := cc.DB.Save(customer).Error; err != nil {
		respondServiceError(c, services.TranslateDBError(err))
		return
	}
	cc.Cache.Invalidate(c.Request.Context(), salonID, services.CollectionCustomers)

	c.JSON(http.StatusOK, customer)
}

// DeleteCustomer soft deletes a customer; history keeps pointing at the row.
func (cc *CustomerController) DeleteCustomer(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	customerID, ok := parseIDParam(c, "customer")
	if !ok {
		return
	}

	result := cc.DB.Where("salon_id = ? AND id = ?", salonID, customerID).Delete(&models.Customer{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete customer")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		return
	}
	cc.Cache.Invalidate(c.Request.Context(), salonID, services.CollectionCustomers)

	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted successfully"})
}
