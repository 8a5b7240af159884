package services

import (
	"fmt"
	"testing"
	"time"

	"performance-review-api/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database and migrates every model.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Criterion{},
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
	)
	require.NoError(t, err)

	return db
}

func seedCycle(t *testing.T, db *gorm.DB, cycleType models.CycleType, status models.CycleStatus, start time.Time) *models.EvaluationCycle {
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

func seedUser(t *testing.T, db *gorm.DB, roleID int, fname string) *models.User {
	t.Helper()

	now := time.Now()
	user := models.User{
		UserFname: fname,
		UserLname: "Teste",
		Email:     fmt.Sprintf("%s@example.com", fname),
		Password:  "secret",
		RoleID:    roleID,
		IsActive:  true,
		CreateAt:  &now,
		UpdateAt:  &now,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&count).Error)
	return count
}
