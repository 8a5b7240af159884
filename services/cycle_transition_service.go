package services

import (
	"fmt"
	"time"

	"performance-review-api/config"
	"performance-review-api/models"

	"gorm.io/gorm"
)

// CycleTransitionService executes the cycle status state machine. Every
// status change in the system goes through it, so the transition table in
// models/cycle.go is the only authority on what may follow what.
type CycleTransitionService struct {
	db *gorm.DB
}

// NewCycleTransitionService instantiates the service.
func NewCycleTransitionService(db *gorm.DB) *CycleTransitionService {
	if db == nil {
		db = config.DB
	}
	return &CycleTransitionService{db: db}
}

// CreateCycleInput carries caller-supplied cycle attributes. No defaults are
// applied here; the orchestrator decides names and dates.
type CreateCycleInput struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Status    models.CycleStatus
	CycleType models.CycleType
}

// CloseCycle transitions a cycle to CLOSED. Closing an already-closed cycle
// is an idempotent no-op; closing a published cycle is rejected.
func (s *CycleTransitionService) CloseCycle(cycleID int) error {
	return s.closeCycleTx(s.db, cycleID)
}

func (s *CycleTransitionService) closeCycleTx(tx *gorm.DB, cycleID int) error {
	cycle, err := getCycleTx(tx, cycleID)
	if err != nil {
		return err
	}

	if cycle.Status == models.StatusClosed {
		return nil
	}
	if !cycle.Status.CanTransitionTo(models.StatusClosed) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cycle.Status, models.StatusClosed)
	}

	return s.setStatusTx(tx, cycle, models.StatusClosed)
}

// UpdateStatus transitions a cycle to an arbitrary valid successor status.
func (s *CycleTransitionService) UpdateStatus(cycleID int, status models.CycleStatus) (*models.EvaluationCycle, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, status)
	}

	cycle, err := getCycleTx(s.db, cycleID)
	if err != nil {
		return nil, err
	}

	if cycle.Status == status {
		return cycle, nil
	}
	if !cycle.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cycle.Status, status)
	}

	if err := s.setStatusTx(s.db, cycle, status); err != nil {
		return nil, err
	}
	return cycle, nil
}

func (s *CycleTransitionService) setStatusTx(tx *gorm.DB, cycle *models.EvaluationCycle, status models.CycleStatus) error {
	now := time.Now()
	err := tx.Model(&models.EvaluationCycle{}).
		Where("cycle_id = ?", cycle.CycleID).
		Updates(map[string]interface{}{"status": status, "update_at": now}).Error
	if err != nil {
		return fmt.Errorf("failed to update cycle %d status: %w", cycle.CycleID, err)
	}
	cycle.Status = status
	cycle.UpdateAt = &now
	return nil
}

// CreateCycle inserts a new cycle with the supplied attributes.
func (s *CycleTransitionService) CreateCycle(input CreateCycleInput) (*models.EvaluationCycle, error) {
	return s.createCycleTx(s.db, input)
}

func (s *CycleTransitionService) createCycleTx(tx *gorm.DB, input CreateCycleInput) (*models.EvaluationCycle, error) {
	if !input.CycleType.IsValid() {
		return nil, fmt.Errorf("invalid cycle type %q", input.CycleType)
	}
	if !input.Status.IsValid() {
		return nil, fmt.Errorf("invalid cycle status %q", input.Status)
	}

	now := time.Now()
	cycle := models.EvaluationCycle{
		Name:      input.Name,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		Status:    input.Status,
		CycleType: input.CycleType,
		CreateAt:  &now,
		UpdateAt:  &now,
	}

	if err := tx.Create(&cycle).Error; err != nil {
		return nil, fmt.Errorf("failed to create cycle: %w", err)
	}
	return &cycle, nil
}
