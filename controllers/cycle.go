package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"performance-review-api/config"
	"performance-review-api/models"
	"performance-review-api/services"

	"github.com/gin-gonic/gin"
)

// statusForServiceError maps service sentinel errors onto HTTP statuses.
func statusForServiceError(err error) int {
	switch {
	case errors.Is(err, services.ErrCycleNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrCycleAlreadyActive),
		errors.Is(err, services.ErrDuplicateEvaluation),
		errors.Is(err, services.ErrEvaluationCycleClosed):
		return http.StatusConflict
	case errors.Is(err, services.ErrNoCycleInProgress):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func currentUserID(c *gin.Context) int {
	if v, ok := c.Get("userID"); ok {
		if id, ok := v.(int); ok {
			return id
		}
	}
	return 0
}

// UpdateCycleStatus handles PATCH /ciclos/:id/status
func UpdateCycleStatus(c *gin.Context) {
	cycleID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cycle id"})
		return
	}

	var req struct {
		Status models.CycleStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := services.NewCycleTransitionService(config.DB)
	cycle, err := svc.UpdateStatus(cycleID, req.Status)
	if err != nil {
		c.JSON(statusForServiceError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cycle": cycle})
}

type closeCycleRequest struct {
	CycleID *json.RawMessage `json:"cycle_id"`
}

// resolveExplicitCycleID parses the optional cycle id from the request body.
// The id may be sent as a JSON number or a numeric string. Only an absent
// body means "no explicit id"; any other bind failure is a client error,
// never a silent fallback to the most recent cycle.
func resolveExplicitCycleID(c *gin.Context) (*int, bool) {
	var req closeCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, true
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return nil, false
	}
	if req.CycleID == nil {
		return nil, true
	}

	raw := strings.Trim(strings.TrimSpace(string(*req.CycleID)), `"`)
	id, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cycle_id must be numeric"})
		return nil, false
	}
	return &id, true
}

// CloseCollaboratorCycle handles PATCH /ciclos/close-collaborator
func CloseCollaboratorCycle(c *gin.Context) {
	explicitID, ok := resolveExplicitCycleID(c)
	if !ok {
		return
	}

	svc := services.NewCycleWorkflowService(config.DB)
	result, err := svc.CloseCollaboratorCycle(explicitID, currentUserID(c))
	if err != nil {
		c.JSON(statusForServiceError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Collaborator cycle closed, manager cycle opened",
		"result":  result,
	})
}

// CloseManagerCycle handles PATCH /ciclos/close-manager
func CloseManagerCycle(c *gin.Context) {
	explicitID, ok := resolveExplicitCycleID(c)
	if !ok {
		return
	}

	svc := services.NewCycleWorkflowService(config.DB)
	result, err := svc.CloseManagerCycle(explicitID, currentUserID(c))
	if err != nil {
		c.JSON(statusForServiceError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Manager cycle closed, committee cycle opened",
		"result":  result,
	})
}

// CreateCollaboratorCycle handles POST /ciclos/create-collaborator-cycle
func CreateCollaboratorCycle(c *gin.Context) {
	var req struct {
		Name      string     `json:"name"`
		StartDate *time.Time `json:"start_date"`
		EndDate   *time.Time `json:"end_date"`
	}
	// Body is optional; an empty or absent body falls back to defaults.
	_ = c.ShouldBindJSON(&req)

	// At most one in-progress cycle per type, same rule the workflows enforce.
	query := services.NewCycleQueryService(config.DB)
	if _, err := query.ActiveCycle(models.CycleTypeCollaborator); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": services.ErrCycleAlreadyActive.Error()})
		return
	} else if !errors.Is(err, services.ErrCycleNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	name := req.Name
	if name == "" {
		name = "Ciclo " + now.Format("2006.01")
	}
	start := now
	if req.StartDate != nil {
		start = *req.StartDate
	}
	end := start.Add(14 * 24 * time.Hour)
	if req.EndDate != nil {
		end = *req.EndDate
	}

	svc := services.NewCycleTransitionService(config.DB)
	cycle, err := svc.CreateCycle(services.CreateCycleInput{
		Name:      name,
		StartDate: start,
		EndDate:   end,
		Status:    models.StatusInProgressCollaborator,
		CycleType: models.CycleTypeCollaborator,
	})
	if err != nil {
		c.JSON(statusForServiceError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"cycle": cycle})
}

// GetCurrentCycle handles GET /ciclos/current?status=
func GetCurrentCycle(c *gin.Context) {
	status := models.CycleStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
		return
	}

	svc := services.NewCycleQueryService(config.DB)
	info, err := svc.CurrentCycle(status)
	if err != nil {
		c.JSON(statusForServiceError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cycle": info})
}

// GetBrutalFacts handles GET /ciclos/brutal-facts
func GetBrutalFacts(c *gin.Context) {
	svc := services.NewInsightService(config.DB, nil)

	insight, err := svc.GetInsightForLastCompletedCycle(c.Request.Context())
	if err != nil {
		c.JSON(statusForServiceError(err), gin.H{"error": err.Error()})
		return
	}

	history, err := svc.HistoricalFinalAverages()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"insight": insight,
		"history": history,
	})
}
