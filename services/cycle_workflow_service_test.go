package services

import (
	"testing"
	"time"

	"performance-review-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloseCollaboratorCycleHappyPath(t *testing.T) {
	db := newTestDB(t)
	svc := NewCycleWorkflowService(db)
	svc.notify = nil

	source := seedCycle(t, db, models.CycleTypeCollaborator, models.StatusInProgressCollaborator, time.Now().Add(-14*24*time.Hour))

	now := time.Now()
	require.NoError(t, db.Create(&models.SelfEvaluation{
		CycleID: source.CycleID, UserID: 1, Status: "SUBMITTED", CreateAt: &now, UpdateAt: &now,
	}).Error)
	require.NoError(t, db.Create(&models.PeerEvaluation{
		CycleID: source.CycleID, EvaluatorID: 2, EvaluateeID: 1, Score: 4, CreateAt: &now, UpdateAt: &now,
	}).Error)

	result, err := svc.CloseCollaboratorCycle(nil, 42)
	require.NoError(t, err)

	assert.Equal(t, source.CycleID, result.ClosedCycleID)
	assert.NotZero(t, result.NewCycleID)
	assert.NotEqual(t, source.CycleID, result.NewCycleID)
	assert.Equal(t, models.WorkflowCloseCollaborator, result.Workflow)
	assert.NotEmpty(t, result.RunUUID)
	assert.Equal(t, 2, result.Transferred.Total())

	closed, err := getCycleTx(db, source.CycleID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, closed.Status)

	successor, err := getCycleTx(db, result.NewCycleID)
	require.NoError(t, err)
	assert.Equal(t, models.CycleTypeManager, successor.CycleType)
	assert.Equal(t, models.StatusInProgressManager, successor.Status)
	assert.Equal(t, source.Name, successor.Name)

	assert.EqualValues(t, 1, countRows(t, db, &models.SelfEvaluation{}, "cycle_id = ?", result.NewCycleID))
	assert.EqualValues(t, 1, countRows(t, db, &models.PeerEvaluation{}, "cycle_id = ?", result.NewCycleID))

	var run models.CycleWorkflowRun
	require.NoError(t, db.Where("run_uuid = ?", result.RunUUID).First(&run).Error)
	assert.Equal(t, models.WorkflowRunCompleted, run.Status)
	assert.Equal(t, source.CycleID, run.SourceCycleID)
	assert.Equal(t, result.NewCycleID, run.TargetCycleID)
	assert.Equal(t, 2, run.RecordsCopied)
	assert.Equal(t, 42, run.TriggeredBy)
}

func TestCloseManagerCycleHappyPath(t *testing.T) {
	db := newTestDB(t)
	svc := NewCycleWorkflowService(db)
	svc.notify = nil

	source := seedCycle(t, db, models.CycleTypeManager, models.StatusInProgressManager, time.Now().Add(-14*24*time.Hour))

	result, err := svc.CloseManagerCycle(nil, 7)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowCloseManager, result.Workflow)

	successor, err := getCycleTx(db, result.NewCycleID)
	require.NoError(t, err)
	assert.Equal(t, models.CycleTypeCommittee, successor.CycleType)
	assert.Equal(t, models.StatusInProgressCommittee, successor.Status)

	closed, err := getCycleTx(db, source.CycleID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, closed.Status)
}

func TestCloseCollaboratorCycleNoCycleInProgress(t *testing.T) {
	db := newTestDB(t)
	svc := NewCycleWorkflowService(db)
	svc.notify = nil

	seedCycle(t, db, models.CycleTypeCollaborator, models.StatusClosed, time.Now())

	_, err := svc.CloseCollaboratorCycle(nil, 1)
	assert.ErrorIs(t, err, ErrNoCycleInProgress)

	// The failed run must leave no new cycles and no audit row behind.
	assert.EqualValues(t, 1, countRows(t, db, &models.EvaluationCycle{}, "1 = 1"))
	assert.EqualValues(t, 0, countRows(t, db, &models.CycleWorkflowRun{}, "1 = 1"))
}

func TestCloseCollaboratorCycleRefusesWhenManagerCycleActive(t *testing.T) {
	db := newTestDB(t)
	svc := NewCycleWorkflowService(db)
	svc.notify = nil

	source := seedCycle(t, db, models.CycleTypeCollaborator, models.StatusInProgressCollaborator, time.Now().Add(-14*24*time.Hour))
	seedCycle(t, db, models.CycleTypeManager, models.StatusInProgressManager, time.Now())

	_, err := svc.CloseCollaboratorCycle(nil, 1)
	assert.ErrorIs(t, err, ErrCycleAlreadyActive)

	// Rollback: the source cycle must still be in progress.
	reloaded, gErr := getCycleTx(db, source.CycleID)
	require.NoError(t, gErr)
	assert.Equal(t, models.StatusInProgressCollaborator, reloaded.Status)
}

func TestCloseCollaboratorCycleExplicitID(t *testing.T) {
	db := newTestDB(t)
	svc := NewCycleWorkflowService(db)
	svc.notify = nil

	older := seedCycle(t, db, models.CycleTypeCollaborator, models.StatusInProgressCollaborator, time.Now().Add(-30*24*time.Hour))
	seedCycle(t, db, models.CycleTypeCollaborator, models.StatusInProgressCollaborator, time.Now())

	result, err := svc.CloseCollaboratorCycle(&older.CycleID, 1)
	require.NoError(t, err)
	assert.Equal(t, older.CycleID, result.ClosedCycleID)
}

func TestCloseCollaboratorCycleExplicitIDWrongType(t *testing.T) {
	db := newTestDB(t)
	svc := NewCycleWorkflowService(db)
	svc.notify = nil

	wrongType := seedCycle(t, db, models.CycleTypeManager, models.StatusInProgressManager, time.Now())

	_, err := svc.CloseCollaboratorCycle(&wrongType.CycleID, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected COLLABORATOR")
}
