package models

import (
	"time"
)

// CycleStatus is the lifecycle state of an evaluation cycle.
type CycleStatus string

const (
	StatusInProgressCollaborator CycleStatus = "IN_PROGRESS_COLLABORATOR"
	StatusInProgressManager      CycleStatus = "IN_PROGRESS_MANAGER"
	StatusInProgressCommittee    CycleStatus = "IN_PROGRESS_COMMITTEE"
	StatusClosed                 CycleStatus = "CLOSED"
	StatusPublished              CycleStatus = "PUBLISHED"
)

// CycleType denotes which role population the cycle governs.
type CycleType string

const (
	CycleTypeCollaborator CycleType = "COLLABORATOR"
	CycleTypeManager      CycleType = "MANAGER"
	CycleTypeCommittee    CycleType = "COMMITTEE"
)

// validCycleTransitions is the single source of truth for which status may
// follow which. No call site sets a cycle status without going through it.
var validCycleTransitions = map[CycleStatus][]CycleStatus{
	StatusInProgressCollaborator: {StatusInProgressManager, StatusClosed},
	StatusInProgressManager:      {StatusInProgressCommittee, StatusClosed},
	StatusInProgressCommittee:    {StatusClosed},
	StatusClosed:                 {StatusPublished},
	StatusPublished:              {},
}

// InProgressStatuses lists every status that counts as "in progress".
func InProgressStatuses() []CycleStatus {
	return []CycleStatus{
		StatusInProgressCollaborator,
		StatusInProgressManager,
		StatusInProgressCommittee,
	}
}

// IsValid reports whether s is a known cycle status.
func (s CycleStatus) IsValid() bool {
	_, ok := validCycleTransitions[s]
	return ok
}

// IsInProgress reports whether the status is one of the in-progress stages.
func (s CycleStatus) IsInProgress() bool {
	switch s {
	case StatusInProgressCollaborator, StatusInProgressManager, StatusInProgressCommittee:
		return true
	}
	return false
}

// IsTerminal reports whether the status ends the active evaluation period.
func (s CycleStatus) IsTerminal() bool {
	return s == StatusClosed || s == StatusPublished
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s CycleStatus) CanTransitionTo(next CycleStatus) bool {
	for _, allowed := range validCycleTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsValid reports whether t is a known cycle type.
func (t CycleType) IsValid() bool {
	switch t {
	case CycleTypeCollaborator, CycleTypeManager, CycleTypeCommittee:
		return true
	}
	return false
}

// InProgressStatusFor returns the in-progress status matching a cycle type.
func InProgressStatusFor(t CycleType) CycleStatus {
	switch t {
	case CycleTypeManager:
		return StatusInProgressManager
	case CycleTypeCommittee:
		return StatusInProgressCommittee
	default:
		return StatusInProgressCollaborator
	}
}

// EvaluationCycle is a bounded evaluation period for one role population.
type EvaluationCycle struct {
	CycleID   int         `gorm:"primaryKey;column:cycle_id" json:"cycle_id"`
	Name      string      `gorm:"column:name" json:"name"`
	StartDate time.Time   `gorm:"column:start_date" json:"start_date"`
	EndDate   time.Time   `gorm:"column:end_date" json:"end_date"`
	Status    CycleStatus `gorm:"column:status" json:"status"`
	CycleType CycleType   `gorm:"column:cycle_type" json:"cycle_type"`
	CreateAt  *time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt  *time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt  *time.Time  `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

func (EvaluationCycle) TableName() string {
	return "evaluation_cycles"
}

// DaysRemaining returns whole days until the cycle end date, negative when
// the deadline has passed.
func (c *EvaluationCycle) DaysRemaining(now time.Time) int {
	return int(c.EndDate.Sub(now).Hours() / 24)
}

// IsOverdue reports whether the cycle end date has passed.
func (c *EvaluationCycle) IsOverdue(now time.Time) bool {
	return now.After(c.EndDate)
}
