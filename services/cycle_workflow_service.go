package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"performance-review-api/config"
	"performance-review-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Length of the evaluation window granted to the successor cycle.
const successorCycleDuration = 14 * 24 * time.Hour

// CycleWorkflowService sequences the multi-step stage transitions: close the
// current cycle, open the next one for the following role population, and
// carry the evaluation data forward. The whole sequence runs in a single
// database transaction, so a failure at any step leaves no half-applied
// state, and every run writes an audit row.
type CycleWorkflowService struct {
	db         *gorm.DB
	query      *CycleQueryService
	transition *CycleTransitionService
	transfer   *CycleTransferService
	notify     func(cycle *models.EvaluationCycle)
}

// NewCycleWorkflowService instantiates the orchestrator and its collaborators.
func NewCycleWorkflowService(db *gorm.DB) *CycleWorkflowService {
	if db == nil {
		db = config.DB
	}
	return &CycleWorkflowService{
		db:         db,
		query:      NewCycleQueryService(db),
		transition: NewCycleTransitionService(db),
		transfer:   NewCycleTransferService(db),
		notify:     notifyCycleOpened,
	}
}

// WorkflowResult reports what a completed workflow run did.
type WorkflowResult struct {
	RunUUID       string          `json:"run_uuid"`
	Workflow      string          `json:"workflow"`
	ClosedCycleID int             `json:"closed_cycle_id"`
	NewCycleID    int             `json:"new_cycle_id"`
	Transferred   TransferSummary `json:"transferred"`
}

// CloseCollaboratorCycle closes the in-progress collaborator cycle (or the
// explicitly supplied one) and opens the manager cycle with its data carried
// forward.
func (s *CycleWorkflowService) CloseCollaboratorCycle(explicitCycleID *int, triggeredBy int) (*WorkflowResult, error) {
	return s.run(models.WorkflowCloseCollaborator, models.CycleTypeCollaborator, models.CycleTypeManager, explicitCycleID, triggeredBy)
}

// CloseManagerCycle closes the in-progress manager cycle (or the explicitly
// supplied one) and opens the committee cycle with its data carried forward.
func (s *CycleWorkflowService) CloseManagerCycle(explicitCycleID *int, triggeredBy int) (*WorkflowResult, error) {
	return s.run(models.WorkflowCloseManager, models.CycleTypeManager, models.CycleTypeCommittee, explicitCycleID, triggeredBy)
}

func (s *CycleWorkflowService) run(workflow string, sourceType, targetType models.CycleType, explicitCycleID *int, triggeredBy int) (*WorkflowResult, error) {
	result := &WorkflowResult{
		RunUUID:  uuid.NewString(),
		Workflow: workflow,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Resolve the source cycle before any mutation.
		var source *models.EvaluationCycle
		var err error
		if explicitCycleID != nil {
			source, err = getCycleTx(tx, *explicitCycleID)
			if err != nil {
				return err
			}
			if source.CycleType != sourceType {
				return fmt.Errorf("cycle %d is of type %s, expected %s", source.CycleID, source.CycleType, sourceType)
			}
		} else {
			source, err = s.query.mostRecentCycleTx(tx, sourceType, models.InProgressStatuses()...)
			if err != nil {
				if errors.Is(err, ErrCycleNotFound) {
					return fmt.Errorf("%w: %s", ErrNoCycleInProgress, sourceType)
				}
				return err
			}
		}

		// At most one in-progress cycle per type: refuse to open a successor
		// while another cycle of the target type is still running.
		if _, err := s.query.mostRecentCycleTx(tx, targetType, models.InProgressStatuses()...); err == nil {
			return fmt.Errorf("%w: %s", ErrCycleAlreadyActive, targetType)
		} else if !errors.Is(err, ErrCycleNotFound) {
			return err
		}

		if err := s.transition.closeCycleTx(tx, source.CycleID); err != nil {
			return err
		}
		result.ClosedCycleID = source.CycleID

		name := source.Name
		if name == "" {
			name = fmt.Sprintf("Ciclo %s", time.Now().Format("2006.01"))
		}

		now := time.Now()
		successor, err := s.transition.createCycleTx(tx, CreateCycleInput{
			Name:      name,
			StartDate: now,
			EndDate:   now.Add(successorCycleDuration),
			Status:    models.InProgressStatusFor(targetType),
			CycleType: targetType,
		})
		if err != nil {
			return err
		}
		result.NewCycleID = successor.CycleID

		summary, err := s.transfer.TransferCycleData(tx, source.CycleID, successor.CycleID)
		if err != nil {
			return err
		}
		result.Transferred = summary

		runRow := models.CycleWorkflowRun{
			RunUUID:       result.RunUUID,
			Workflow:      workflow,
			SourceCycleID: source.CycleID,
			TargetCycleID: successor.CycleID,
			RecordsCopied: summary.Total(),
			Status:        models.WorkflowRunCompleted,
			TriggeredBy:   triggeredBy,
			CreateAt:      &now,
		}
		if err := tx.Create(&runRow).Error; err != nil {
			return fmt.Errorf("failed to record workflow run: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notify != nil {
		if cycle, cErr := s.query.GetCycle(result.NewCycleID); cErr == nil {
			s.notify(cycle)
		}
	}

	return result, nil
}

// notifyCycleOpened emails the HR distribution list after a new stage opens.
// Best effort: delivery problems are logged, never propagated.
func notifyCycleOpened(cycle *models.EvaluationCycle) {
	recipients := hrNotificationRecipients()
	if len(recipients) == 0 {
		return
	}

	subject := fmt.Sprintf("Novo ciclo de avaliação aberto: %s", cycle.Name)
	body := fmt.Sprintf(
		"<p>O ciclo <strong>%s</strong> (%s) foi aberto.</p><p>Prazo: %s</p>",
		cycle.Name, cycle.CycleType, cycle.EndDate.Format("02/01/2006"),
	)

	if err := config.SendMail(recipients, subject, body); err != nil {
		log.Printf("cycle workflow: failed to send notification mail: %v", err)
	}
}

func hrNotificationRecipients() []string {
	raw := strings.Split(os.Getenv("HR_NOTIFICATION_EMAILS"), ",")
	recipients := make([]string, 0, len(raw))
	for _, addr := range raw {
		if addr = strings.TrimSpace(addr); addr != "" {
			recipients = append(recipients, addr)
		}
	}
	return recipients
}
