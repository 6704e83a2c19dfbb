package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"salonpos-backend/models"
	"salonpos-backend/services"
	"salonpos-backend/utils"
)

type SaleController struct {
	Settlement *services.SettlementService
}

// GetSales lists sales; ?status=pending shows held carts, ?from/&to bound
// the creation date (YYYY-MM-DD, to exclusive).
func (sc *SaleController) GetSales(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	filter := services.SaleFilter{Status: models.PaymentStatus(c.Query("status"))}
	if filter.CustomerID, ok = optionalUUIDQuery(c, "customerId"); !ok {
		return
	}
	for key, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		d, err := parseOptionalDate(c.Query(key))
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+key+" date")
			return
		}
		*dst = d
	}

	sales, err := sc.Settlement.ListSales(c.Request.Context(), salonID, filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sales)
}

func (sc *SaleController) GetSale(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "sale")
	if !ok {
		return
	}
	sale, err := sc.Settlement.GetSale(c.Request.Context(), salonID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

func (sc *SaleController) Checkout(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	var input services.CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	sale, err := sc.Settlement.Checkout(c.Request.Context(), salonID, userFromContext(c), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

func (sc *SaleController) Hold(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	var input services.CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	sale, err := sc.Settlement.Hold(c.Request.Context(), salonID, userFromContext(c), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

func (sc *SaleController) Resume(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "sale")
	if !ok {
		return
	}
	cart, err := sc.Settlement.Resume(c.Request.Context(), salonID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (sc *SaleController) CompleteHeld(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "sale")
	if !ok {
		return
	}
	var input services.CompleteHeldInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	sale, err := sc.Settlement.CompleteHeld(c.Request.Context(), salonID, id, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}
