// controllers/service.go
package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"salonpos-backend/models"
	"salonpos-backend/services"
	"salonpos-backend/utils"
)

// CreateServiceInput defines the expected JSON structure for creating a service
type CreateServiceInput struct {
	Name        string          `json:"name" binding:"required,max=120"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Duration    int             `json:"duration" binding:"required,min=1,max=1440"` // in minutes
	CategoryID  *uuid.UUID      `json:"categoryId"`
	Status      string          `json:"status" binding:"omitempty,oneof=active inactive"`
}

// UpdateServiceInput defines the expected JSON structure for updating a service
type UpdateServiceInput struct {
	Name        *string          `json:"name" binding:"omitempty,max=120"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Duration    *int             `json:"duration" binding:"omitempty,min=1,max=1440"`
	CategoryID  *uuid.UUID       `json:"categoryId"`
	Status      *string          `json:"status" binding:"omitempty,oneof=active inactive"`
}

type CategoryInput struct {
	Name string `json:"name" binding:"required,max=80"`
}

type ServiceController struct {
	DB    *gorm.DB
	Cache *services.CollectionCache
}

func (sc *ServiceController) categoryExists(salonID uuid.UUID, id *uuid.UUID) (bool, error) {
	if id == nil {
		return true, nil
	}
	var count int64
	err := sc.DB.Model(&models.ServiceCategory{}).Where("salon_id = ? AND id = ?", salonID, *id).Count(&count).Error
	return count > 0, err
}

// CreateService creates a new service for the salon
func (sc *ServiceController) CreateService(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}

	var input CreateServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.Price.IsNegative() {
		utils.RespondWithError(c, http.StatusBadRequest, "Price cannot be negative")
		return
	}
	if exists, err := sc.categoryExists(salonID, input.CategoryID); err != nil || !exists {
		utils.RespondWithError(c, http.StatusBadRequest, "Unknown service category")
		return
	}

	service := models.Service{
		SalonID:     salonID,
		CategoryID:  input.CategoryID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Duration:    input.Duration,
		Price:       input.Price,
		Status:      models.ServiceActive,
	}
	if input.Status != "" {
		service.Status = input.Status
	}

	if err := sc.DB.Create(&service).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create service")
		return
	}
	sc.Cache.Invalidate(c.Request.Context(), salonID, services.CollectionServices)

	c.JSON(http.StatusCreated, service)
}

// GetServices lists every service, inactive ones included; ?status= filters.
func (sc *ServiceController) GetServices(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	status := c.Query("status")

	list, err := services.CachedList(c.Request.Context(), sc.Cache, salonID, services.CollectionServices, "status="+status,
		func() ([]models.Service, error) {
			q := sc.DB.Preload("Category").Where("salon_id = ?", salonID)
			if status != "" {
				q = q.Where("status = ?", status)
			}
			var out []models.Service
			err := q.Order("name ASC").Find(&out).Error
			return out, err
		})
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve services")
		return
	}

	c.JSON(http.StatusOK, list)
}

func (sc *ServiceController) findService(c *gin.Context, salonID uuid.UUID) (*models.Service, bool) {
	serviceID, ok := parseIDParam(c, "service")
	if !ok {
		return nil, false
	}
	var service models.Service
	if err := sc.DB.Preload("Category").Where("salon_id = ? AND id = ?", salonID, serviceID).First(&service).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Service not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &service, true
}

func (sc *ServiceController) GetService(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	service, ok := sc.findService(c, salonID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, service)
}

// UpdateService edits a service. Existing appointments keep the duration
// they were booked with.
func (sc *ServiceController) UpdateService(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}

	var input UpdateServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	service, ok := sc.findService(c, salonID)
	if !ok {
		return
	}

	if input.Name != nil {
		service.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		service.Description = *input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			utils.RespondWithError(c, http.StatusBadRequest, "Price cannot be negative")
			return
		}
		service.Price = *input.Price
	}
	if input.Duration != nil {
		service.Duration = *input.Duration
	}
	if input.CategoryID != nil {
		if exists, err := sc.categoryExists(salonID, input.CategoryID); err != nil || !exists {
			utils.RespondWithError(c, http.StatusBadRequest, "Unknown service category")
			return
		}
		service.CategoryID = input.CategoryID
		service.Category = nil
	}
	if input.Status != nil {
		service.Status = *input.Status
	}

	if err := sc.DB.Omit("Category").Save(service).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update service")
		return
	}
	sc.Cache.Invalidate(c.Request.Context(), salonID, services.CollectionServices)

	c.JSON(http.StatusOK, service)
}

// DeleteService soft deletes; past sales and appointments still resolve it.
func (sc *ServiceController) DeleteService(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	serviceID, ok := parseIDParam(c, "service")
	if !ok {
		return
	}

	result := sc.DB.Where("salon_id = ? AND id = ?", salonID, serviceID).Delete(&models.Service{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete service")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Service not found")
		return
	}
	sc.Cache.Invalidate(c.Request.Context(), salonID, services.CollectionServices)

	c.JSON(http.StatusOK, gin.H{"message": "Service deleted successfully"})
}

func (sc *ServiceController) CreateCategory(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	var input CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	category := models.ServiceCategory{SalonID: salonID, Name: strings.TrimSpace(input.Name)}
	if err := sc.DB.Create(&category).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create category")
		return
	}
	sc.Cache.Invalidate(c.Request.Context(), salonID, services.CollectionCategories)

	c.JSON(http.StatusCreated, category)
}

func (sc *ServiceController) GetCategories(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	categories, err := services.CachedList(c.Request.Context(), sc.Cache, salonID, services.CollectionCategories, "all",
		func() ([]models.ServiceCategory, error) {
			var out []models.ServiceCategory
			err := sc.DB.Where("salon_id = ?", salonID).Order("name ASC").Find(&out).Error
			return out, err
		})
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve categories")
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (sc *ServiceController) UpdateCategory(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	categoryID, ok := parseIDParam(c, "category")
	if !ok {
		return
	}
	var input CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	result := sc.DB.Model(&models.ServiceCategory{}).
		Where("salon_id = ? AND id = ?", salonID, categoryID).
		Update("name", strings.TrimSpace(input.Name))
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update category")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Category not found")
		return
	}
	sc.Cache.Invalidate(c.Request.Context(), salonID, services.CollectionCategories, services.CollectionServices)

	c.JSON(http.StatusOK, gin.H{"message": "Category updated successfully"})
}

// DeleteCategory detaches the category from its services before removing it.
func (sc *ServiceController) DeleteCategory(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	categoryID, ok := parseIDParam(c, "category")
	if !ok {
		return
	}

	err := sc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Service{}).
			Where("salon_id = ? AND category_id = ?", salonID, categoryID).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		result := tx.Where("salon_id = ? AND id = ?", salonID, categoryID).Delete(&models.ServiceCategory{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusNotFound, "Category not found")
		return
	}
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete category")
		return
	}
	sc.Cache.Invalidate(c.Request.Context(), salonID, services.CollectionCategories, services.CollectionServices)

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}
