package services

import (
	"errors"
	"time"

	"performance-review-api/config"
	"performance-review-api/models"

	"gorm.io/gorm"
)

// CycleQueryService is the read-only finder over evaluation cycles.
type CycleQueryService struct {
	db *gorm.DB
}

// NewCycleQueryService instantiates the service.
func NewCycleQueryService(db *gorm.DB) *CycleQueryService {
	if db == nil {
		db = config.DB
	}
	return &CycleQueryService{db: db}
}

// CurrentCycleInfo decorates a cycle with deadline information for the UI.
type CurrentCycleInfo struct {
	models.EvaluationCycle
	DaysRemaining int  `json:"days_remaining"`
	IsOverdue     bool `json:"is_overdue"`
}

// MostRecentCycle returns the newest cycle (by start date, ties broken by
// highest id) matching the type and any of the given statuses.
// Returns ErrCycleNotFound when nothing matches.
func (s *CycleQueryService) MostRecentCycle(cycleType models.CycleType, statuses ...models.CycleStatus) (*models.EvaluationCycle, error) {
	return s.mostRecentCycleTx(s.db, cycleType, statuses...)
}

func (s *CycleQueryService) mostRecentCycleTx(tx *gorm.DB, cycleType models.CycleType, statuses ...models.CycleStatus) (*models.EvaluationCycle, error) {
	query := tx.Where("delete_at IS NULL")
	if cycleType != "" {
		query = query.Where("cycle_type = ?", cycleType)
	}
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var cycle models.EvaluationCycle
	err := query.Order("start_date DESC").Order("cycle_id DESC").First(&cycle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCycleNotFound
		}
		return nil, err
	}
	return &cycle, nil
}

// ActiveCycle returns the most recent in-progress cycle, optionally filtered
// by type.
func (s *CycleQueryService) ActiveCycle(cycleType models.CycleType) (*models.EvaluationCycle, error) {
	return s.MostRecentCycle(cycleType, models.InProgressStatuses()...)
}

// LastCompletedCycle returns the most recently started cycle that has left
// its active period (CLOSED or PUBLISHED).
func (s *CycleQueryService) LastCompletedCycle() (*models.EvaluationCycle, error) {
	return s.MostRecentCycle("", models.StatusClosed, models.StatusPublished)
}

// ClosedCycles lists completed cycles, newest first.
func (s *CycleQueryService) ClosedCycles() ([]models.EvaluationCycle, error) {
	var cycles []models.EvaluationCycle
	err := s.db.
		Where("delete_at IS NULL AND status IN ?", []models.CycleStatus{models.StatusClosed, models.StatusPublished}).
		Order("start_date DESC").Order("cycle_id DESC").
		Find(&cycles).Error
	if err != nil {
		return nil, err
	}
	return cycles, nil
}

// GetCycle loads a single cycle by id.
func (s *CycleQueryService) GetCycle(cycleID int) (*models.EvaluationCycle, error) {
	return getCycleTx(s.db, cycleID)
}

func getCycleTx(tx *gorm.DB, cycleID int) (*models.EvaluationCycle, error) {
	var cycle models.EvaluationCycle
	err := tx.Where("cycle_id = ? AND delete_at IS NULL", cycleID).First(&cycle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCycleNotFound
		}
		return nil, err
	}
	return &cycle, nil
}

// CurrentCycle returns the active cycle (optionally narrowed to one status)
// together with computed deadline fields.
func (s *CycleQueryService) CurrentCycle(status models.CycleStatus) (*CurrentCycleInfo, error) {
	statuses := models.InProgressStatuses()
	if status != "" {
		statuses = []models.CycleStatus{status}
	}

	cycle, err := s.MostRecentCycle("", statuses...)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &CurrentCycleInfo{
		EvaluationCycle: *cycle,
		DaysRemaining:   cycle.DaysRemaining(now),
		IsOverdue:       cycle.IsOverdue(now),
	}, nil
}
