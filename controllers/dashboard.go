package controllers

import (
	"errors"
	"net/http"
	"time"

	"performance-review-api/config"
	"performance-review-api/models"
	"performance-review-api/services"

	"github.com/gin-gonic/gin"
)

// GetDashboardStats returns dashboard statistics
func GetDashboardStats(c *gin.Context) {
	userIDVal, userExists := c.Get("userID")
	roleIDVal, roleExists := c.Get("roleID")
	if !userExists || !roleExists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "authentication context missing",
		})
		return
	}

	userID, okUser := userIDVal.(int)
	roleID, okRole := roleIDVal.(int)
	if !okUser || !okRole {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "invalid user or role id",
		})
		return
	}

	var stats map[string]interface{}
	if roleID == models.RoleAdmin || roleID == models.RoleCommittee {
		stats = getAdminDashboard()
	} else {
		stats = getUserDashboard(userID)
	}

	if stats == nil {
		stats = make(map[string]interface{})
	}

	stats["current_date"] = time.Now().Format("2006-01-02")

	c.JSON(http.StatusOK, gin.H{
		"stats": stats,
	})
}

// getUserDashboard returns dashboard for collaborators and managers
func getUserDashboard(userID int) map[string]interface{} {
	stats := make(map[string]interface{})

	query := services.NewCycleQueryService(config.DB)
	cycle, err := query.CurrentCycle("")
	if err != nil {
		if errors.Is(err, services.ErrCycleNotFound) {
			stats["active_cycle"] = nil
			return stats
		}
		return stats
	}
	stats["active_cycle"] = cycle

	var mySubmissions struct {
		SelfSubmitted    int64 `json:"self_submitted"`
		PeersEvaluated   int64 `json:"peers_evaluated"`
		ReportsEvaluated int64 `json:"reports_evaluated"`
	}

	config.DB.Model(&models.SelfEvaluation{}).
		Where("cycle_id = ? AND user_id = ?", cycle.CycleID, userID).
		Count(&mySubmissions.SelfSubmitted)
	config.DB.Model(&models.PeerEvaluation{}).
		Where("cycle_id = ? AND evaluator_id = ?", cycle.CycleID, userID).
		Count(&mySubmissions.PeersEvaluated)
	config.DB.Model(&models.ManagerEvaluation{}).
		Where("cycle_id = ? AND evaluator_id = ?", cycle.CycleID, userID).
		Count(&mySubmissions.ReportsEvaluated)

	stats["my_evaluations"] = mySubmissions
	return stats
}

// getAdminDashboard returns cohort-wide counts for the active cycle
func getAdminDashboard() map[string]interface{} {
	stats := make(map[string]interface{})

	query := services.NewCycleQueryService(config.DB)
	cycle, err := query.CurrentCycle("")
	if err != nil {
		stats["active_cycle"] = nil
	} else {
		stats["active_cycle"] = cycle

		var counts struct {
			SelfEvaluations    int64 `json:"self_evaluations"`
			PeerEvaluations    int64 `json:"peer_evaluations"`
			ManagerEvaluations int64 `json:"manager_evaluations"`
			MentorEvaluations  int64 `json:"mentor_evaluations"`
			FinalScores        int64 `json:"final_scores"`
		}

		config.DB.Model(&models.SelfEvaluation{}).Where("cycle_id = ?", cycle.CycleID).Count(&counts.SelfEvaluations)
		config.DB.Model(&models.PeerEvaluation{}).Where("cycle_id = ?", cycle.CycleID).Count(&counts.PeerEvaluations)
		config.DB.Model(&models.ManagerEvaluation{}).Where("cycle_id = ?", cycle.CycleID).Count(&counts.ManagerEvaluations)
		config.DB.Model(&models.MentorToCollaboratorEvaluation{}).Where("cycle_id = ?", cycle.CycleID).Count(&counts.MentorEvaluations)
		config.DB.Model(&models.FinalScore{}).Where("cycle_id = ?", cycle.CycleID).Count(&counts.FinalScores)

		stats["evaluations"] = counts
	}

	var activeCollaborators int64
	config.DB.Model(&models.User{}).
		Where("role_id = ? AND is_active = ? AND delete_at IS NULL", models.RoleCollaborator, true).
		Count(&activeCollaborators)
	stats["active_collaborators"] = activeCollaborators

	var workflowRuns []models.CycleWorkflowRun
	config.DB.Order("run_id DESC").Limit(5).Find(&workflowRuns)
	stats["recent_workflow_runs"] = workflowRuns

	return stats
}
