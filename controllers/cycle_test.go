package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"performance-review-api/config"
	"performance-review-api/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newCycleTestRouter wires the cycle handlers onto a fresh in-memory database.
func newCycleTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.EvaluationCycle{},
		&models.SelfEvaluation{},
		&models.SelfEvaluationItem{},
		&models.ManagerEvaluation{},
		&models.ManagerEvaluationItem{},
		&models.PeerEvaluation{},
		&models.PeerEvaluationProject{},
		&models.MentorToCollaboratorEvaluation{},
		&models.FinalScore{},
		&models.CycleWorkflowRun{},
	))

	previous := config.DB
	config.DB = db
	t.Cleanup(func() { config.DB = previous })

	router := gin.New()
	router.PATCH("/ciclos/close-collaborator", CloseCollaboratorCycle)
	router.PATCH("/ciclos/close-manager", CloseManagerCycle)
	router.POST("/ciclos/create-collaborator-cycle", CreateCollaboratorCycle)
	return router, db
}

func seedTestCycle(t *testing.T, db *gorm.DB, cycleType models.CycleType, status models.CycleStatus, start time.Time) *models.EvaluationCycle {
	t.Helper()

	now := time.Now()
	cycle := models.EvaluationCycle{
		Name:      fmt.Sprintf("Ciclo %s", start.Format("2006.01")),
		StartDate: start,
		EndDate:   start.Add(14 * 24 * time.Hour),
		Status:    status,
		CycleType: cycleType,
		CreateAt:  &now,
		UpdateAt:  &now,
	}
	require.NoError(t, db.Create(&cycle).Error)
	return &cycle
}

func cycleStatus(t *testing.T, db *gorm.DB, cycleID int) models.CycleStatus {
	t.Helper()

	var cycle models.EvaluationCycle
	require.NoError(t, db.First(&cycle, "cycle_id = ?", cycleID).Error)
	return cycle.Status
}

func patchJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPatch, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCloseCollaboratorCycleNumericBodyID(t *testing.T) {
	router, db := newCycleTestRouter(t)

	older := seedTestCycle(t, db, models.CycleTypeCollaborator, models.StatusInProgressCollaborator, time.Now().Add(-30*24*time.Hour))
	newer := seedTestCycle(t, db, models.CycleTypeCollaborator, models.StatusInProgressCollaborator, time.Now())

	w := patchJSON(router, "/ciclos/close-collaborator", fmt.Sprintf(`{"cycle_id": %d}`, older.CycleID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Result struct {
			ClosedCycleID int `json:"closed_cycle_id"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, older.CycleID, resp.Result.ClosedCycleID)

	// The named cycle closes; the other stays in progress.
	assert.Equal(t, models.StatusClosed, cycleStatus(t, db, older.CycleID))
	assert.Equal(t, models.StatusInProgressCollaborator, cycleStatus(t, db, newer.CycleID))
}

func TestCloseCollaboratorCycleStringBodyID(t *testing.T) {
	router, db := newCycleTestRouter(t)

	older := seedTestCycle(t, db, models.CycleTypeCollaborator, models.StatusInProgressCollaborator, time.Now().Add(-30*24*time.Hour))
	seedTestCycle(t, db, models.CycleTypeCollaborator, models.StatusInProgressCollaborator, time.Now())

	w := patchJSON(router, "/ciclos/close-collaborator", fmt.Sprintf(`{"cycle_id": "%d"}`, older.CycleID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StatusClosed, cycleStatus(t, db, older.CycleID))
}

func TestCloseCollaboratorCycleEmptyBodyUsesMostRecent(t *testing.T) {
	router, db := newCycleTestRouter(t)

	older := seedTestCycle(t, db, models.CycleTypeCollaborator, models.StatusInProgressCollaborator, time.Now().Add(-30*24*time.Hour))
	newer := seedTestCycle(t, db, models.CycleTypeCollaborator, models.StatusInProgressCollaborator, time.Now())

	w := patchJSON(router, "/ciclos/close-collaborator", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, models.StatusClosed, cycleStatus(t, db, newer.CycleID))
	assert.Equal(t, models.StatusInProgressCollaborator, cycleStatus(t, db, older.CycleID))
}

func TestCloseCollaboratorCycleMalformedBody(t *testing.T) {
	router, db := newCycleTestRouter(t)

	cycle := seedTestCycle(t, db, models.CycleTypeCollaborator, models.StatusInProgressCollaborator, time.Now())

	w := patchJSON(router, "/ciclos/close-collaborator", `{"cycle_id": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// A bad body must abort before any mutation.
	assert.Equal(t, models.StatusInProgressCollaborator, cycleStatus(t, db, cycle.CycleID))
}

func TestCloseCollaboratorCycleNonNumericID(t *testing.T) {
	router, db := newCycleTestRouter(t)

	cycle := seedTestCycle(t, db, models.CycleTypeCollaborator, models.StatusInProgressCollaborator, time.Now())

	w := patchJSON(router, "/ciclos/close-collaborator", `{"cycle_id": "abc"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "cycle_id must be numeric")
	assert.Equal(t, models.StatusInProgressCollaborator, cycleStatus(t, db, cycle.CycleID))
}

func TestCreateCollaboratorCycleRefusesSecondActive(t *testing.T) {
	router, db := newCycleTestRouter(t)

	active := seedTestCycle(t, db, models.CycleTypeCollaborator, models.StatusInProgressCollaborator, time.Now())

	req := httptest.NewRequest(http.MethodPost, "/ciclos/create-collaborator-cycle", strings.NewReader(`{"name":"Ciclo extra"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.EqualValues(t, 1, func() int64 {
		var n int64
		db.Model(&models.EvaluationCycle{}).Count(&n)
		return n
	}())
	assert.Equal(t, models.StatusInProgressCollaborator, cycleStatus(t, db, active.CycleID))
}

func TestCreateCollaboratorCycleAfterClose(t *testing.T) {
	router, db := newCycleTestRouter(t)

	seedTestCycle(t, db, models.CycleTypeCollaborator, models.StatusClosed, time.Now().Add(-30*24*time.Hour))

	req := httptest.NewRequest(http.MethodPost, "/ciclos/create-collaborator-cycle", strings.NewReader(`{"name":"Ciclo 2026.09"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Cycle models.EvaluationCycle `json:"cycle"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Ciclo 2026.09", resp.Cycle.Name)
	assert.Equal(t, models.StatusInProgressCollaborator, resp.Cycle.Status)
}
