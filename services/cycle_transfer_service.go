package services

import (
	"fmt"
	"time"

	"performance-review-api/config"
	"performance-review-api/models"

	"gorm.io/gorm"
)

// CycleTransferService copies all evaluation data of a source cycle into a
// destination cycle so later stages see the prior stage's history without
// being able to mutate it. Strictly copy-forward: source rows are never
// touched, and running the same transfer twice duplicates the destination
// rows. Idempotence is the caller's responsibility.
type CycleTransferService struct {
	db *gorm.DB
}

// NewCycleTransferService instantiates the service.
func NewCycleTransferService(db *gorm.DB) *CycleTransferService {
	if db == nil {
		db = config.DB
	}
	return &CycleTransferService{db: db}
}

// TransferSummary counts the rows copied per evaluation kind.
type TransferSummary struct {
	SelfEvaluations    int `json:"self_evaluations"`
	PeerEvaluations    int `json:"peer_evaluations"`
	ManagerEvaluations int `json:"manager_evaluations"`
	FinalScores        int `json:"final_scores"`
}

// Total returns the number of parent records copied.
func (s TransferSummary) Total() int {
	return s.SelfEvaluations + s.PeerEvaluations + s.ManagerEvaluations + s.FinalScores
}

// TransferCycleData copies self, peer, manager and final-score records from
// one cycle to another. Pass a transaction handle to run inside the
// orchestrator's transaction; nil uses the service's own connection.
// A source cycle with no records yields an empty summary, not an error.
func (s *CycleTransferService) TransferCycleData(tx *gorm.DB, fromCycleID, toCycleID int) (TransferSummary, error) {
	if tx == nil {
		tx = s.db
	}

	summary := TransferSummary{}

	n, err := s.copySelfEvaluations(tx, fromCycleID, toCycleID)
	if err != nil {
		return summary, err
	}
	summary.SelfEvaluations = n

	n, err = s.copyPeerEvaluations(tx, fromCycleID, toCycleID)
	if err != nil {
		return summary, err
	}
	summary.PeerEvaluations = n

	n, err = s.copyManagerEvaluations(tx, fromCycleID, toCycleID)
	if err != nil {
		return summary, err
	}
	summary.ManagerEvaluations = n

	n, err = s.copyFinalScores(tx, fromCycleID, toCycleID)
	if err != nil {
		return summary, err
	}
	summary.FinalScores = n

	return summary, nil
}

func (s *CycleTransferService) copySelfEvaluations(tx *gorm.DB, fromCycleID, toCycleID int) (int, error) {
	var sources []models.SelfEvaluation
	if err := tx.Preload("Items").Where("cycle_id = ?", fromCycleID).Find(&sources).Error; err != nil {
		return 0, fmt.Errorf("failed to load self evaluations of cycle %d: %w", fromCycleID, err)
	}

	now := time.Now()
	for _, src := range sources {
		dup := models.SelfEvaluation{
			CycleID:  toCycleID,
			UserID:   src.UserID,
			Status:   src.Status,
			CreateAt: &now,
			UpdateAt: &now,
		}
		for _, item := range src.Items {
			dup.Items = append(dup.Items, models.SelfEvaluationItem{
				CriterionID:   item.CriterionID,
				Score:         item.Score,
				ScoreLabel:    item.ScoreLabel,
				Justification: item.Justification,
			})
		}
		if err := tx.Create(&dup).Error; err != nil {
			return 0, fmt.Errorf("failed to copy self evaluation %d: %w", src.SelfEvaluationID, err)
		}
	}
	return len(sources), nil
}

func (s *CycleTransferService) copyPeerEvaluations(tx *gorm.DB, fromCycleID, toCycleID int) (int, error) {
	var sources []models.PeerEvaluation
	if err := tx.Preload("Projects").Where("cycle_id = ?", fromCycleID).Find(&sources).Error; err != nil {
		return 0, fmt.Errorf("failed to load peer evaluations of cycle %d: %w", fromCycleID, err)
	}

	now := time.Now()
	for _, src := range sources {
		dup := models.PeerEvaluation{
			CycleID:           toCycleID,
			EvaluatorID:       src.EvaluatorID,
			EvaluateeID:       src.EvaluateeID,
			Score:             src.Score,
			Strengths:         src.Strengths,
			ImprovementPoints: src.ImprovementPoints,
			MotivationLabel:   src.MotivationLabel,
			CreateAt:          &now,
			UpdateAt:          &now,
		}
		for _, project := range src.Projects {
			dup.Projects = append(dup.Projects, models.PeerEvaluationProject{
				ProjectName:         project.ProjectName,
				CollaborationMonths: project.CollaborationMonths,
			})
		}
		if err := tx.Create(&dup).Error; err != nil {
			return 0, fmt.Errorf("failed to copy peer evaluation %d: %w", src.PeerEvaluationID, err)
		}
	}
	return len(sources), nil
}

func (s *CycleTransferService) copyManagerEvaluations(tx *gorm.DB, fromCycleID, toCycleID int) (int, error) {
	var sources []models.ManagerEvaluation
	if err := tx.Preload("Items").Where("cycle_id = ?", fromCycleID).Find(&sources).Error; err != nil {
		return 0, fmt.Errorf("failed to load manager evaluations of cycle %d: %w", fromCycleID, err)
	}

	now := time.Now()
	for _, src := range sources {
		dup := models.ManagerEvaluation{
			CycleID:     toCycleID,
			EvaluatorID: src.EvaluatorID,
			EvaluateeID: src.EvaluateeID,
			Status:      src.Status,
			CreateAt:    &now,
			UpdateAt:    &now,
		}
		for _, item := range src.Items {
			dup.Items = append(dup.Items, models.ManagerEvaluationItem{
				CriterionID:   item.CriterionID,
				Score:         item.Score,
				ScoreLabel:    item.ScoreLabel,
				Justification: item.Justification,
			})
		}
		if err := tx.Create(&dup).Error; err != nil {
			return 0, fmt.Errorf("failed to copy manager evaluation %d: %w", src.ManagerEvaluationID, err)
		}
	}
	return len(sources), nil
}

func (s *CycleTransferService) copyFinalScores(tx *gorm.DB, fromCycleID, toCycleID int) (int, error) {
	var sources []models.FinalScore
	if err := tx.Where("cycle_id = ?", fromCycleID).Find(&sources).Error; err != nil {
		return 0, fmt.Errorf("failed to load final scores of cycle %d: %w", fromCycleID, err)
	}

	now := time.Now()
	for _, src := range sources {
		dup := models.FinalScore{
			CycleID:    toCycleID,
			UserID:     src.UserID,
			FinalScore: src.FinalScore,
			Summary:    src.Summary,
			AdjusterID: src.AdjusterID,
			Status:     src.Status,
			CreateAt:   &now,
			UpdateAt:   &now,
		}
		if err := tx.Create(&dup).Error; err != nil {
			return 0, fmt.Errorf("failed to copy final score %d: %w", src.FinalScoreID, err)
		}
	}
	return len(sources), nil
}
