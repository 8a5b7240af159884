package models

import (
	"time"
)

// Workflow run statuses.
const (
	WorkflowRunCompleted = "COMPLETED"
	WorkflowRunFailed    = "FAILED"
)

// Workflow names recorded on audit rows.
const (
	WorkflowCloseCollaborator = "CLOSE_COLLABORATOR_OPEN_MANAGER"
	WorkflowCloseManager      = "CLOSE_MANAGER_OPEN_COMMITTEE"
)

// CycleWorkflowRun is the audit record written for every close/open/transfer
// workflow execution, so a half-applied run can be traced and corrected.
type CycleWorkflowRun struct {
	RunID         int        `gorm:"primaryKey;column:run_id" json:"run_id"`
	RunUUID       string     `gorm:"column:run_uuid" json:"run_uuid"`
	Workflow      string     `gorm:"column:workflow" json:"workflow"`
	SourceCycleID int        `gorm:"column:source_cycle_id" json:"source_cycle_id"`
	TargetCycleID int        `gorm:"column:target_cycle_id" json:"target_cycle_id"`
	RecordsCopied int        `gorm:"column:records_copied" json:"records_copied"`
	Status        string     `gorm:"column:status" json:"status"`
	ErrorText     *string    `gorm:"column:error_text" json:"error_text,omitempty"`
	TriggeredBy   int        `gorm:"column:triggered_by" json:"triggered_by"`
	CreateAt      *time.Time `gorm:"column:create_at" json:"create_at"`
}

func (CycleWorkflowRun) TableName() string {
	return "cycle_workflow_runs"
}
