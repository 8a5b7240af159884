package services

import (
	"fmt"
	"strconv"
	"time"

	"performance-review-api/config"
	"performance-review-api/models"
	"performance-review-api/utils"

	"gorm.io/gorm"
)

// EvaluationService creates and lists the five evaluation record kinds.
// Uniqueness per (evaluator, evaluatee, cycle) is enforced by an existence
// check before insert; free-text fields are encrypted before they hit the
// database.
type EvaluationService struct {
	db *gorm.DB
}

// NewEvaluationService instantiates the service.
func NewEvaluationService(db *gorm.DB) *EvaluationService {
	if db == nil {
		db = config.DB
	}
	return &EvaluationService{db: db}
}

// EvaluationItemInput is one scored criterion in a self or manager evaluation.
type EvaluationItemInput struct {
	CriterionID   int    `json:"criterion_id" binding:"required"`
	Score         int    `json:"score" binding:"required,min=1,max=5"`
	Justification string `json:"justification"`
}

// SelfEvaluationInput creates a collaborator's self evaluation.
type SelfEvaluationInput struct {
	CycleID int                   `json:"cycle_id" binding:"required"`
	UserID  int                   `json:"-"`
	Items   []EvaluationItemInput `json:"items" binding:"required,min=1,dive"`
}

// ManagerEvaluationInput creates a manager's evaluation of a collaborator.
type ManagerEvaluationInput struct {
	CycleID     int                   `json:"cycle_id" binding:"required"`
	EvaluatorID int                   `json:"-"`
	EvaluateeID int                   `json:"evaluatee_id" binding:"required"`
	Items       []EvaluationItemInput `json:"items" binding:"required,min=1,dive"`
}

// PeerProjectInput is one shared project on a peer evaluation.
type PeerProjectInput struct {
	ProjectName         string `json:"project_name" binding:"required"`
	CollaborationMonths int    `json:"collaboration_months" binding:"required,min=1"`
}

// PeerEvaluationInput creates one colleague's 360 feedback about another.
type PeerEvaluationInput struct {
	CycleID           int                `json:"cycle_id" binding:"required"`
	EvaluatorID       int                `json:"-"`
	EvaluateeID       int                `json:"evaluatee_id" binding:"required"`
	Score             float64            `json:"score" binding:"required,min=1,max=5"`
	Strengths         string             `json:"strengths"`
	ImprovementPoints string             `json:"improvement_points"`
	MotivationLabel   string             `json:"motivation_label"`
	Projects          []PeerProjectInput `json:"projects" binding:"dive"`
}

// MentorEvaluationInput creates a mentor's evaluation of a mentee.
type MentorEvaluationInput struct {
	CycleID        int    `json:"cycle_id" binding:"required"`
	MentorID       int    `json:"-"`
	CollaboratorID int    `json:"collaborator_id" binding:"required"`
	Score          int    `json:"score" binding:"required,min=1,max=5"`
	Justification  string `json:"justification"`
}

// FinalScoreInput records the committee's consolidated score.
type FinalScoreInput struct {
	CycleID    int     `json:"cycle_id" binding:"required"`
	UserID     int     `json:"user_id" binding:"required"`
	Score      float64 `json:"score" binding:"required"`
	Summary    string  `json:"summary"`
	AdjusterID int     `json:"-"`
}

func (s *EvaluationService) requireCycleStage(cycleID int, stage models.CycleStatus) error {
	cycle, err := getCycleTx(s.db, cycleID)
	if err != nil {
		return err
	}
	if cycle.Status != stage {
		return fmt.Errorf("%w: cycle %d is %s", ErrEvaluationCycleClosed, cycleID, cycle.Status)
	}
	return nil
}

// CreateSelfEvaluation stores a self evaluation, one per user per cycle.
func (s *EvaluationService) CreateSelfEvaluation(input SelfEvaluationInput) (*models.SelfEvaluation, error) {
	if err := s.requireCycleStage(input.CycleID, models.StatusInProgressCollaborator); err != nil {
		return nil, err
	}

	var count int64
	err := s.db.Model(&models.SelfEvaluation{}).
		Where("cycle_id = ? AND user_id = ?", input.CycleID, input.UserID).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateEvaluation
	}

	now := time.Now()
	evaluation := models.SelfEvaluation{
		CycleID:  input.CycleID,
		UserID:   input.UserID,
		Status:   "SUBMITTED",
		CreateAt: &now,
		UpdateAt: &now,
	}
	for _, item := range input.Items {
		if !utils.ValidateScore(item.Score) {
			return nil, fmt.Errorf("score %d is outside the 1-5 scale", item.Score)
		}
		justification, err := utils.EncryptField(item.Justification)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt justification: %w", err)
		}
		evaluation.Items = append(evaluation.Items, models.SelfEvaluationItem{
			CriterionID:   item.CriterionID,
			Score:         item.Score,
			ScoreLabel:    models.ScoreLabelFor(item.Score),
			Justification: justification,
		})
	}

	if err := s.db.Create(&evaluation).Error; err != nil {
		return nil, fmt.Errorf("failed to create self evaluation: %w", err)
	}
	return &evaluation, nil
}

// CreateManagerEvaluation stores a manager evaluation, one per
// (evaluator, evaluatee, cycle).
func (s *EvaluationService) CreateManagerEvaluation(input ManagerEvaluationInput) (*models.ManagerEvaluation, error) {
	if err := s.requireCycleStage(input.CycleID, models.StatusInProgressManager); err != nil {
		return nil, err
	}

	var count int64
	err := s.db.Model(&models.ManagerEvaluation{}).
		Where("cycle_id = ? AND evaluator_id = ? AND evaluatee_id = ?", input.CycleID, input.EvaluatorID, input.EvaluateeID).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateEvaluation
	}

	now := time.Now()
	evaluation := models.ManagerEvaluation{
		CycleID:     input.CycleID,
		EvaluatorID: input.EvaluatorID,
		EvaluateeID: input.EvaluateeID,
		Status:      "SUBMITTED",
		CreateAt:    &now,
		UpdateAt:    &now,
	}
	for _, item := range input.Items {
		if !utils.ValidateScore(item.Score) {
			return nil, fmt.Errorf("score %d is outside the 1-5 scale", item.Score)
		}
		justification, err := utils.EncryptField(item.Justification)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt justification: %w", err)
		}
		evaluation.Items = append(evaluation.Items, models.ManagerEvaluationItem{
			CriterionID:   item.CriterionID,
			Score:         item.Score,
			ScoreLabel:    models.ScoreLabelFor(item.Score),
			Justification: justification,
		})
	}

	if err := s.db.Create(&evaluation).Error; err != nil {
		return nil, fmt.Errorf("failed to create manager evaluation: %w", err)
	}
	return &evaluation, nil
}

// CreatePeerEvaluation stores a 360 evaluation, one per
// (evaluator, evaluatee, cycle).
func (s *EvaluationService) CreatePeerEvaluation(input PeerEvaluationInput) (*models.PeerEvaluation, error) {
	if err := s.requireCycleStage(input.CycleID, models.StatusInProgressCollaborator); err != nil {
		return nil, err
	}

	var count int64
	err := s.db.Model(&models.PeerEvaluation{}).
		Where("cycle_id = ? AND evaluator_id = ? AND evaluatee_id = ?", input.CycleID, input.EvaluatorID, input.EvaluateeID).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateEvaluation
	}

	strengths, err := utils.EncryptField(input.Strengths)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt strengths: %w", err)
	}
	improvements, err := utils.EncryptField(input.ImprovementPoints)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt improvement points: %w", err)
	}

	now := time.Now()
	evaluation := models.PeerEvaluation{
		CycleID:           input.CycleID,
		EvaluatorID:       input.EvaluatorID,
		EvaluateeID:       input.EvaluateeID,
		Score:             input.Score,
		Strengths:         strengths,
		ImprovementPoints: improvements,
		MotivationLabel:   input.MotivationLabel,
		CreateAt:          &now,
		UpdateAt:          &now,
	}
	for _, project := range input.Projects {
		evaluation.Projects = append(evaluation.Projects, models.PeerEvaluationProject{
			ProjectName:         project.ProjectName,
			CollaborationMonths: project.CollaborationMonths,
		})
	}

	if err := s.db.Create(&evaluation).Error; err != nil {
		return nil, fmt.Errorf("failed to create peer evaluation: %w", err)
	}
	return &evaluation, nil
}

// CreateMentorEvaluation stores a mentor evaluation, one per
// (mentor, collaborator, cycle).
func (s *EvaluationService) CreateMentorEvaluation(input MentorEvaluationInput) (*models.MentorToCollaboratorEvaluation, error) {
	if err := s.requireCycleStage(input.CycleID, models.StatusInProgressCollaborator); err != nil {
		return nil, err
	}

	var count int64
	err := s.db.Model(&models.MentorToCollaboratorEvaluation{}).
		Where("cycle_id = ? AND mentor_id = ? AND collaborator_id = ?", input.CycleID, input.MentorID, input.CollaboratorID).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateEvaluation
	}

	if !utils.ValidateScore(input.Score) {
		return nil, fmt.Errorf("score %d is outside the 1-5 scale", input.Score)
	}

	justification, err := utils.EncryptField(input.Justification)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt justification: %w", err)
	}

	now := time.Now()
	evaluation := models.MentorToCollaboratorEvaluation{
		CycleID:        input.CycleID,
		MentorID:       input.MentorID,
		CollaboratorID: input.CollaboratorID,
		Score:          input.Score,
		Justification:  justification,
		CreateAt:       &now,
		UpdateAt:       &now,
	}

	if err := s.db.Create(&evaluation).Error; err != nil {
		return nil, fmt.Errorf("failed to create mentor evaluation: %w", err)
	}
	return &evaluation, nil
}

// CreateFinalScore records the committee's consolidated score, one per
// (user, cycle). The numeric value is stored encrypted.
func (s *EvaluationService) CreateFinalScore(input FinalScoreInput) (*models.FinalScore, error) {
	if err := s.requireCycleStage(input.CycleID, models.StatusInProgressCommittee); err != nil {
		return nil, err
	}

	var count int64
	err := s.db.Model(&models.FinalScore{}).
		Where("cycle_id = ? AND user_id = ?", input.CycleID, input.UserID).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateEvaluation
	}

	if input.Score < 1 || input.Score > 5 {
		return nil, fmt.Errorf("final score %.2f is outside the 1-5 scale", input.Score)
	}

	encrypted, err := utils.EncryptField(strconv.FormatFloat(input.Score, 'f', -1, 64))
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt final score: %w", err)
	}

	now := time.Now()
	adjuster := input.AdjusterID
	record := models.FinalScore{
		CycleID:    input.CycleID,
		UserID:     input.UserID,
		FinalScore: encrypted,
		Summary:    input.Summary,
		AdjusterID: &adjuster,
		Status:     "SUBMITTED",
		CreateAt:   &now,
		UpdateAt:   &now,
	}

	if err := s.db.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to create final score: %w", err)
	}
	return &record, nil
}

// ListSelfEvaluations returns the self evaluations of a cycle with decrypted
// justifications.
func (s *EvaluationService) ListSelfEvaluations(cycleID int) ([]models.SelfEvaluation, error) {
	var evaluations []models.SelfEvaluation
	err := s.db.Preload("Items").Preload("User").Where("cycle_id = ?", cycleID).Find(&evaluations).Error
	if err != nil {
		return nil, err
	}
	for i := range evaluations {
		for j := range evaluations[i].Items {
			evaluations[i].Items[j].Justification = utils.DecryptField(evaluations[i].Items[j].Justification)
		}
	}
	return evaluations, nil
}

// ListManagerEvaluations returns the manager evaluations of a cycle with
// decrypted justifications.
func (s *EvaluationService) ListManagerEvaluations(cycleID int) ([]models.ManagerEvaluation, error) {
	var evaluations []models.ManagerEvaluation
	err := s.db.Preload("Items").Preload("Evaluatee").Where("cycle_id = ?", cycleID).Find(&evaluations).Error
	if err != nil {
		return nil, err
	}
	for i := range evaluations {
		for j := range evaluations[i].Items {
			evaluations[i].Items[j].Justification = utils.DecryptField(evaluations[i].Items[j].Justification)
		}
	}
	return evaluations, nil
}

// ListPeerEvaluations returns the peer evaluations of a cycle with decrypted
// text fields.
func (s *EvaluationService) ListPeerEvaluations(cycleID int) ([]models.PeerEvaluation, error) {
	var evaluations []models.PeerEvaluation
	err := s.db.Preload("Projects").Preload("Evaluatee").Where("cycle_id = ?", cycleID).Find(&evaluations).Error
	if err != nil {
		return nil, err
	}
	for i := range evaluations {
		evaluations[i].Strengths = utils.DecryptField(evaluations[i].Strengths)
		evaluations[i].ImprovementPoints = utils.DecryptField(evaluations[i].ImprovementPoints)
	}
	return evaluations, nil
}

// ListMentorEvaluations returns the mentor evaluations of a cycle with
// decrypted justifications.
func (s *EvaluationService) ListMentorEvaluations(cycleID int) ([]models.MentorToCollaboratorEvaluation, error) {
	var evaluations []models.MentorToCollaboratorEvaluation
	err := s.db.Where("cycle_id = ?", cycleID).Find(&evaluations).Error
	if err != nil {
		return nil, err
	}
	for i := range evaluations {
		evaluations[i].Justification = utils.DecryptField(evaluations[i].Justification)
	}
	return evaluations, nil
}

// ListFinalScores returns the final scores of a cycle with the numeric value
// decrypted into DecryptedScore.
func (s *EvaluationService) ListFinalScores(cycleID int) ([]DecryptedFinalScore, error) {
	var rows []models.FinalScore
	err := s.db.Preload("User").Where("cycle_id = ?", cycleID).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	results := make([]DecryptedFinalScore, 0, len(rows))
	for _, row := range rows {
		value, _ := decryptScore(row.FinalScore)
		results = append(results, DecryptedFinalScore{
			FinalScore: row,
			Score:      value,
		})
	}
	return results, nil
}

// DecryptedFinalScore pairs a final score row with its decrypted value.
type DecryptedFinalScore struct {
	models.FinalScore
	Score float64 `json:"score"`
}
