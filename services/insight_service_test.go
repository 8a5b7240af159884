package services

import (
	"context"
	"strconv"
	"testing"
	"time"

	"performance-review-api/models"
	"performance-review-api/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubGenerator struct {
	calls    int
	response string
}

func (g *stubGenerator) GenerateNarrative(ctx context.Context, prompt string) (string, error) {
	g.calls++
	return g.response, nil
}

func seedFinalScore(t *testing.T, db *gorm.DB, cycleID, userID int, score float64) {
	t.Helper()

	encrypted, err := utils.EncryptField(strconv.FormatFloat(score, 'f', -1, 64))
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, db.Create(&models.FinalScore{
		CycleID:    cycleID,
		UserID:     userID,
		FinalScore: encrypted,
		Status:     "SUBMITTED",
		CreateAt:   &now,
		UpdateAt:   &now,
	}).Error)
}

func TestInsightNoCompletedCycle(t *testing.T) {
	db := newTestDB(t)
	gen := &stubGenerator{response: "irrelevante"}
	svc := NewInsightService(db, gen)

	seedCycle(t, db, models.CycleTypeCollaborator, models.StatusInProgressCollaborator, time.Now())

	insight, err := svc.GetInsightForLastCompletedCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Nenhum ciclo concluído encontrado.", insight.Narrative)
	assert.Zero(t, gen.calls)
}

func TestInsightAggregatesCohort(t *testing.T) {
	db := newTestDB(t)
	gen := &stubGenerator{response: "O ciclo mostrou resultados sólidos."}
	svc := NewInsightService(db, gen)

	cycle := seedCycle(t, db, models.CycleTypeCommittee, models.StatusClosed, time.Now().Add(-7*24*time.Hour))
	alice := seedUser(t, db, models.RoleCollaborator, "alice")
	bruno := seedUser(t, db, models.RoleCollaborator, "bruno")

	seedFinalScore(t, db, cycle.CycleID, alice.UserID, 4.5)
	seedFinalScore(t, db, cycle.CycleID, bruno.UserID, 3.0)

	insight, err := svc.GetInsightForLastCompletedCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "O ciclo mostrou resultados sólidos.", insight.Narrative)
	require.NotNil(t, insight.Stats)
	assert.Equal(t, 2, insight.Stats.TotalEvaluated)
	assert.Equal(t, 1, insight.Stats.TopPerformers)
	// (4.5 + 3.0) / 2 = 3.75, rounded to one decimal.
	assert.Equal(t, "3.8", insight.Stats.FinalAverage)
	require.Len(t, insight.Collaborators, 2)
}

func TestInsightAveragesAreMeansOfPerCollaboratorMeans(t *testing.T) {
	db := newTestDB(t)
	gen := &stubGenerator{response: "resumo"}
	svc := NewInsightService(db, gen)

	cycle := seedCycle(t, db, models.CycleTypeCommittee, models.StatusClosed, time.Now().Add(-7*24*time.Hour))
	alice := seedUser(t, db, models.RoleCollaborator, "alice")
	bruno := seedUser(t, db, models.RoleCollaborator, "bruno")

	seedFinalScore(t, db, cycle.CycleID, alice.UserID, 4.0)
	seedFinalScore(t, db, cycle.CycleID, bruno.UserID, 3.0)

	now := time.Now()

	// Alice self-scores [4, 5] (mean 4.5), Bruno self-scores [3] (mean 3.0).
	// The cohort average weighs each collaborator equally: (4.5 + 3.0) / 2 =
	// 3.75 -> "3.8". A flat mean over the three items would give 4.0.
	require.NoError(t, db.Create(&models.SelfEvaluation{
		CycleID: cycle.CycleID, UserID: alice.UserID, Status: "SUBMITTED",
		Items: []models.SelfEvaluationItem{
			{CriterionID: 1, Score: 4},
			{CriterionID: 2, Score: 5},
		},
		CreateAt: &now, UpdateAt: &now,
	}).Error)
	require.NoError(t, db.Create(&models.SelfEvaluation{
		CycleID: cycle.CycleID, UserID: bruno.UserID, Status: "SUBMITTED",
		Items: []models.SelfEvaluationItem{
			{CriterionID: 1, Score: 3},
		},
		CreateAt: &now, UpdateAt: &now,
	}).Error)

	require.NoError(t, db.Create(&models.ManagerEvaluation{
		CycleID: cycle.CycleID, EvaluatorID: 99, EvaluateeID: alice.UserID, Status: "SUBMITTED",
		Items: []models.ManagerEvaluationItem{
			{CriterionID: 1, Score: 4},
			{CriterionID: 2, Score: 5},
		},
		CreateAt: &now, UpdateAt: &now,
	}).Error)
	require.NoError(t, db.Create(&models.ManagerEvaluation{
		CycleID: cycle.CycleID, EvaluatorID: 99, EvaluateeID: bruno.UserID, Status: "SUBMITTED",
		Items: []models.ManagerEvaluationItem{
			{CriterionID: 1, Score: 3},
		},
		CreateAt: &now, UpdateAt: &now,
	}).Error)

	require.NoError(t, db.Create(&models.PeerEvaluation{
		CycleID: cycle.CycleID, EvaluatorID: 98, EvaluateeID: alice.UserID, Score: 4,
		CreateAt: &now, UpdateAt: &now,
	}).Error)
	require.NoError(t, db.Create(&models.PeerEvaluation{
		CycleID: cycle.CycleID, EvaluatorID: 99, EvaluateeID: alice.UserID, Score: 5,
		CreateAt: &now, UpdateAt: &now,
	}).Error)
	require.NoError(t, db.Create(&models.PeerEvaluation{
		CycleID: cycle.CycleID, EvaluatorID: 98, EvaluateeID: bruno.UserID, Score: 3,
		CreateAt: &now, UpdateAt: &now,
	}).Error)

	insight, err := svc.GetInsightForLastCompletedCycle(context.Background())
	require.NoError(t, err)

	require.NotNil(t, insight.Stats)
	assert.Equal(t, "3.8", insight.Stats.SelfAverage)
	assert.Equal(t, "3.8", insight.Stats.ManagerAverage)
	assert.Equal(t, "3.8", insight.Stats.PeerAverage)
	assert.Equal(t, "3.5", insight.Stats.FinalAverage)

	byUser := map[int]CollaboratorScores{}
	for _, entry := range insight.Collaborators {
		byUser[entry.UserID] = entry
	}
	require.NotNil(t, byUser[alice.UserID].SelfAverage)
	assert.Equal(t, 4.5, *byUser[alice.UserID].SelfAverage)
	require.NotNil(t, byUser[alice.UserID].ManagerAverage)
	assert.Equal(t, 4.5, *byUser[alice.UserID].ManagerAverage)
	require.NotNil(t, byUser[alice.UserID].PeerAverage)
	assert.Equal(t, 4.5, *byUser[alice.UserID].PeerAverage)
	require.NotNil(t, byUser[bruno.UserID].SelfAverage)
	assert.Equal(t, 3.0, *byUser[bruno.UserID].SelfAverage)
}

func TestInsightCollaboratorWithoutRecordsHasNilAverages(t *testing.T) {
	db := newTestDB(t)
	svc := NewInsightService(db, &stubGenerator{response: "resumo"})

	cycle := seedCycle(t, db, models.CycleTypeCommittee, models.StatusClosed, time.Now().Add(-7*24*time.Hour))
	user := seedUser(t, db, models.RoleCollaborator, "iris")
	seedFinalScore(t, db, cycle.CycleID, user.UserID, 4.0)

	insight, err := svc.GetInsightForLastCompletedCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, insight.Collaborators, 1)
	assert.Nil(t, insight.Collaborators[0].SelfAverage)
	assert.Nil(t, insight.Collaborators[0].ManagerAverage)
	assert.Nil(t, insight.Collaborators[0].PeerAverage)
}

func TestInsightExcludesInactiveAndNonCollaborators(t *testing.T) {
	db := newTestDB(t)
	gen := &stubGenerator{response: "resumo"}
	svc := NewInsightService(db, gen)

	cycle := seedCycle(t, db, models.CycleTypeCommittee, models.StatusClosed, time.Now().Add(-7*24*time.Hour))
	active := seedUser(t, db, models.RoleCollaborator, "carla")
	manager := seedUser(t, db, models.RoleManager, "diego")
	inactive := seedUser(t, db, models.RoleCollaborator, "elisa")
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

	seedFinalScore(t, db, cycle.CycleID, active.UserID, 4.0)
	seedFinalScore(t, db, cycle.CycleID, manager.UserID, 5.0)
	seedFinalScore(t, db, cycle.CycleID, inactive.UserID, 5.0)

	insight, err := svc.GetInsightForLastCompletedCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, insight.Collaborators, 1)
	assert.Equal(t, active.UserID, insight.Collaborators[0].UserID)
}

func TestInsightNarrativeIsCachedPerCycle(t *testing.T) {
	db := newTestDB(t)
	gen := &stubGenerator{response: "primeira narrativa"}
	svc := NewInsightService(db, gen)

	cycle := seedCycle(t, db, models.CycleTypeCommittee, models.StatusClosed, time.Now().Add(-7*24*time.Hour))
	user := seedUser(t, db, models.RoleCollaborator, "fabio")
	seedFinalScore(t, db, cycle.CycleID, user.UserID, 3.5)

	first, err := svc.GetInsightForLastCompletedCycle(context.Background())
	require.NoError(t, err)
	second, err := svc.GetInsightForLastCompletedCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Narrative, second.Narrative)
	assert.Equal(t, 1, gen.calls)

	// A newer completed cycle invalidates the cached narrative.
	newer := seedCycle(t, db, models.CycleTypeCommittee, models.StatusClosed, time.Now())
	seedFinalScore(t, db, newer.CycleID, user.UserID, 4.0)

	_, err = svc.GetInsightForLastCompletedCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, gen.calls)
}

func TestInsightSkipsUnreadableScores(t *testing.T) {
	db := newTestDB(t)
	gen := &stubGenerator{response: "resumo"}
	svc := NewInsightService(db, gen)

	cycle := seedCycle(t, db, models.CycleTypeCommittee, models.StatusClosed, time.Now().Add(-7*24*time.Hour))
	user := seedUser(t, db, models.RoleCollaborator, "gabi")

	now := time.Now()
	require.NoError(t, db.Create(&models.FinalScore{
		CycleID:    cycle.CycleID,
		UserID:     user.UserID,
		FinalScore: "not-a-number",
		Status:     "SUBMITTED",
		CreateAt:   &now,
		UpdateAt:   &now,
	}).Error)

	insight, err := svc.GetInsightForLastCompletedCycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, insight.Collaborators)
	assert.Equal(t, 0, insight.Stats.TotalEvaluated)
}

func TestHistoricalFinalAveragesOldestFirst(t *testing.T) {
	db := newTestDB(t)
	svc := NewInsightService(db, &stubGenerator{})

	older := seedCycle(t, db, models.CycleTypeCommittee, models.StatusClosed, time.Now().Add(-60*24*time.Hour))
	newer := seedCycle(t, db, models.CycleTypeCommittee, models.StatusPublished, time.Now().Add(-10*24*time.Hour))
	user := seedUser(t, db, models.RoleCollaborator, "heitor")

	seedFinalScore(t, db, older.CycleID, user.UserID, 3.0)
	seedFinalScore(t, db, newer.CycleID, user.UserID, 4.25)

	history, err := svc.HistoricalFinalAverages()
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, older.CycleID, history[0].CycleID)
	assert.Equal(t, 3.0, history[0].FinalAverage)
	assert.Equal(t, newer.CycleID, history[1].CycleID)
	assert.Equal(t, 4.3, history[1].FinalAverage)
}

func TestMeanAndRounding(t *testing.T) {
	assert.Equal(t, 0.0, mean(nil))
	assert.Equal(t, 3.75, mean([]float64{4.5, 3.0}))
	assert.Equal(t, "3.8", formatOneDecimal(3.75))
	assert.Equal(t, "0.0", formatOneDecimal(0))
	assert.Equal(t, 4.3, roundOneDecimal(4.25))
}
