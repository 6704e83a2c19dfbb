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

type CreateProductInput struct {
	Name          string          `json:"name" binding:"required,max=120"`
	Category      string          `json:"category"`
	CostPrice     decimal.Decimal `json:"costPrice"`
	SellingPrice  decimal.Decimal `json:"sellingPrice"`
	StockQuantity int             `json:"stockQuantity" binding:"min=0"`
	MinStockLevel int             `json:"minStockLevel" binding:"min=0"`
	Status        string          `json:"status" binding:"omitempty,oneof=active inactive"`
}

type UpdateProductInput struct {
	Name          *string          `json:"name" binding:"omitempty,min=1,max=120"`
	Category      *string          `json:"category"`
	CostPrice     *decimal.Decimal `json:"costPrice"`
	SellingPrice  *decimal.Decimal `json:"sellingPrice"`
	StockQuantity *int             `json:"stockQuantity" binding:"omitempty,min=0"`
	MinStockLevel *int             `json:"minStockLevel" binding:"omitempty,min=0"`
	Status        *string          `json:"status" binding:"omitempty,oneof=active inactive"`
}

type StockAdjustmentInput struct {
	Delta int `json:"delta" binding:"required"`
}

type ProductController struct {
	DB    *gorm.DB
	Cache *services.CollectionCache
}

func (pc *ProductController) CreateProduct(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	var input CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.CostPrice.IsNegative() || input.SellingPrice.IsNegative() {
		utils.RespondWithError(c, http.StatusBadRequest, "Prices cannot be negative")
		return
	}

	product := models.Product{
		SalonID:       salonID,
		Name:          strings.TrimSpace(input.Name),
		Category:      input.Category,
		CostPrice:     input.CostPrice,
		SellingPrice:  input.SellingPrice,
		StockQuantity: input.StockQuantity,
		MinStockLevel: input.MinStockLevel,
		Status:        models.ProductActive,
	}
	if input.Status != "" {
		product.Status = input.Status
	}

	if err := pc.DB.Create(&product).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create product")
		return
	}
	pc.Cache.Invalidate(c.Request.Context(), salonID, services.CollectionProducts)

	c.JSON(http.StatusCreated, product)
}

// GetProducts lists products; ?lowStock=true keeps only those at or below
// their minimum level.
func (pc *ProductController) GetProducts(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	lowStock := c.Query("lowStock") == "true"
	category := c.Query("category")
	variant := "category=" + category
	if lowStock {
		variant += "&low"
	}

	products, err := services.CachedList(c.Request.Context(), pc.Cache, salonID, services.CollectionProducts, variant,
		func() ([]models.Product, error) {
			q := pc.DB.Where("salon_id = ?", salonID)
			if category != "" {
				q = q.Where("category = ?", category)
			}
			if lowStock {
				q = q.Where("stock_quantity <= min_stock_level")
			}
			var out []models.Product
			err := q.Order("name ASC").Find(&out).Error
			return out, err
		})
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}
	c.JSON(http.StatusOK, products)
}

func (pc *ProductController) findProduct(c *gin.Context, salonID uuid.UUID) (*models.Product, bool) {
	productID, ok := parseIDParam(c, "product")
	if !ok {
		return nil, false
	}
	var product models.Product
	if err := pc.DB.Where("salon_id = ? AND id = ?", salonID, productID).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Product not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &product, true
}

func (pc *ProductController) GetProduct(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	product, ok := pc.findProduct(c, salonID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product, "lowStock": product.LowStock()})
}

func (pc *ProductController) UpdateProduct(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	var input UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	product, ok := pc.findProduct(c, salonID)
	if !ok {
		return
	}

	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.CostPrice != nil {
		if input.CostPrice.IsNegative() {
			utils.RespondWithError(c, http.StatusBadRequest, "Prices cannot be negative")
			return
		}
		product.CostPrice = *input.CostPrice
	}
	if input.SellingPrice != nil {
		if input.SellingPrice.IsNegative() {
			utils.RespondWithError(c, http.StatusBadRequest, "Prices cannot be negative")
			return
		}
		product.SellingPrice = *input.SellingPrice
	}
	if input.StockQuantity != nil {
		product.StockQuantity = *input.StockQuantity
	}
	if input.MinStockLevel != nil {
		product.MinStockLevel = *input.MinStockLevel
	}
	if input.Status != nil {
		product.Status = *input.Status
	}

	if err := pc.DB.Save(product).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update product")
		return
	}
	pc.Cache.Invalidate(c.Request.Context(), salonID, services.CollectionProducts)

	c.JSON(http.StatusOK, product)
}

// AdjustStock applies a restock (positive) or write-off (negative) in SQL,
// never going below zero.
func (pc *ProductController) AdjustStock(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "product")
	if !ok {
		return
	}
	var input StockAdjustmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	result := pc.DB.Model(&models.Product{}).
		Where("salon_id = ? AND id = ?", salonID, productID).
		Update("stock_quantity", gorm.Expr(
			"CASE WHEN stock_quantity + ? > 0 THEN stock_quantity + ? ELSE 0 END", input.Delta, input.Delta))
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to adjust stock")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Product not found")
		return
	}
	pc.Cache.Invalidate(c.Request.Context(), salonID, services.CollectionProducts)

	var product models.Product
	if err := pc.DB.First(&product, "id = ?", productID).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (pc *ProductController) DeleteProduct(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "product")
	if !ok {
		return
	}

	result := pc.DB.Where("salon_id = ? AND id = ?", salonID, productID).Delete(&models.Product{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete product")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Product not found")
		return
	}
	pc.Cache.Invalidate(c.Request.Context(), salonID, services.CollectionProducts)

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
