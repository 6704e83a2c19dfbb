// controllers/report.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"salonpos-backend/services"
)

// ReportController serves the analytics and dashboard summaries.
type ReportController struct {
	Reports *services.ReportService
}

// GetReportAnalytics returns month, quarter and year revenue with growth
// against the previous period, plus the top services, products and customers.
func (rc *ReportController) GetReportAnalytics(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	summary, err := rc.Reports.Analytics(c.Request.Context(), salonID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetDashboard returns the front-desk overview for today.
func (rc *ReportController) GetDashboard(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	overview, err := rc.Reports.Dashboard(c.Request.Context(), salonID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}
