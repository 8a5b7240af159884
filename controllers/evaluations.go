package controllers

import (
	"net/http"
	"strconv"

	"performance-review-api/config"
	"performance-review-api/services"

	"github.com/gin-gonic/gin"
)

func cycleIDQuery(c *gin.Context) (int, bool) {
	cycleID, err := strconv.Atoi(c.Query("cycle_id"))
	if err != nil || cycleID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cycle_id query parameter is required"})
		return 0, false
	}
	return cycleID, true
}

// CreateSelfEvaluation handles POST /self-evaluations
func CreateSelfEvaluation(c *gin.Context) {
	var input services.SelfEvaluationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.UserID = currentUserID(c)

	svc := services.NewEvaluationService(config.DB)
	evaluation, err := svc.CreateSelfEvaluation(input)
	if err != nil {
		c.JSON(statusForServiceError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"self_evaluation": evaluation})
}

// ListSelfEvaluations handles GET /self-evaluations?cycle_id=
func ListSelfEvaluations(c *gin.Context) {
	cycleID, ok := cycleIDQuery(c)
	if !ok {
		return
	}

	svc := services.NewEvaluationService(config.DB)
	evaluations, err := svc.ListSelfEvaluations(cycleID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"self_evaluations": evaluations})
}

// CreatePeerEvaluation handles POST /peer-evaluations
func CreatePeerEvaluation(c *gin.Context) {
	var input services.PeerEvaluationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.EvaluatorID = currentUserID(c)

	if input.EvaluatorID == input.EvaluateeID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot peer-evaluate yourself"})
		return
	}

	svc := services.NewEvaluationService(config.DB)
	evaluation, err := svc.CreatePeerEvaluation(input)
	if err != nil {
		c.JSON(statusForServiceError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"peer_evaluation": evaluation})
}

// ListPeerEvaluations handles GET /peer-evaluations?cycle_id=
func ListPeerEvaluations(c *gin.Context) {
	cycleID, ok := cycleIDQuery(c)
	if !ok {
		return
	}

	svc := services.NewEvaluationService(config.DB)
	evaluations, err := svc.ListPeerEvaluations(cycleID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"peer_evaluations": evaluations})
}

// CreateManagerEvaluation handles POST /manager-evaluations
func CreateManagerEvaluation(c *gin.Context) {
	var input services.ManagerEvaluationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.EvaluatorID = currentUserID(c)

	svc := services.NewEvaluationService(config.DB)
	evaluation, err := svc.CreateManagerEvaluation(input)
	if err != nil {
		c.JSON(statusForServiceError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"manager_evaluation": evaluation})
}

// ListManagerEvaluations handles GET /manager-evaluations?cycle_id=
func ListManagerEvaluations(c *gin.Context) {
	cycleID, ok := cycleIDQuery(c)
	if !ok {
		return
	}

	svc := services.NewEvaluationService(config.DB)
	evaluations, err := svc.ListManagerEvaluations(cycleID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"manager_evaluations": evaluations})
}

// CreateMentorEvaluation handles POST /mentor-evaluations
func CreateMentorEvaluation(c *gin.Context) {
	var input services.MentorEvaluationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.MentorID = currentUserID(c)

	svc := services.NewEvaluationService(config.DB)
	evaluation, err := svc.CreateMentorEvaluation(input)
	if err != nil {
		c.JSON(statusForServiceError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"mentor_evaluation": evaluation})
}

// ListMentorEvaluations handles GET /mentor-evaluations?cycle_id=
func ListMentorEvaluations(c *gin.Context) {
	cycleID, ok := cycleIDQuery(c)
	if !ok {
		return
	}

	svc := services.NewEvaluationService(config.DB)
	evaluations, err := svc.ListMentorEvaluations(cycleID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"mentor_evaluations": evaluations})
}

// CreateFinalScore handles POST /final-scores
func CreateFinalScore(c *gin.Context) {
	var input services.FinalScoreInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.AdjusterID = currentUserID(c)

	svc := services.NewEvaluationService(config.DB)
	record, err := svc.CreateFinalScore(input)
	if err != nil {
		c.JSON(statusForServiceError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"final_score": record})
}

// ListFinalScores handles GET /final-scores?cycle_id=
func ListFinalScores(c *gin.Context) {
	cycleID, ok := cycleIDQuery(c)
	if !ok {
		return
	}

	svc := services.NewEvaluationService(config.DB)
	scores, err := svc.ListFinalScores(cycleID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"final_scores": scores})
}
