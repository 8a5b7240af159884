package controllers

import (
	"net/http"

	"performance-review-api/config"
	"performance-review-api/models"
	"performance-review-api/services"

	"github.com/gin-gonic/gin"
)

// GetActiveCycle handles GET /evaluation-cycle/active?type=
func GetActiveCycle(c *gin.Context) {
	cycleType := models.CycleType(c.Query("type"))
	if cycleType != "" && !cycleType.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cycle type"})
		return
	}

	svc := services.NewCycleQueryService(config.DB)
	cycle, err := svc.ActiveCycle(cycleType)
	if err != nil {
		c.JSON(statusForServiceError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cycle": cycle})
}

// GetClosedCycles handles GET /evaluation-cycle/closed
func GetClosedCycles(c *gin.Context) {
	svc := services.NewCycleQueryService(config.DB)
	cycles, err := svc.ClosedCycles()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cycles": cycles})
}

// GetRecentCycle handles GET /evaluation-cycle/recent
func GetRecentCycle(c *gin.Context) {
	svc := services.NewCycleQueryService(config.DB)
	cycle, err := svc.MostRecentCycle("")
	if err != nil {
		c.JSON(statusForServiceError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cycle": cycle})
}
