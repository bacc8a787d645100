package repositories_test

import (
	"testing"
	"time"

	"taskflow/backend/internal/models"
	"taskflow/backend/internal/repositories"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Project{}, &models.Task{}, &models.Token{}))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	id, err := uuid.NewV4()
	require.NoError(t, err)

	user := &models.User{
		ID:       id,
		Name:     "Test User",
		Email:    id.String() + "@example.com",
		Password: "hashed",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestTask(t *testing.T, db *gorm.DB, userID uuid.UUID, title, status string, dueDate *time.Time) *models.Task {
	t.Helper()

	id, err := uuid.NewV4()
	require.NoError(t, err)

	task := &models.Task{
		ID:      id,
		UserID:  userID,
		Title:   title,
		Status:  status,
		DueDate: dueDate,
	}
	require.NoError(t, db.Create(task).Error)
	return task
}

func TestTaskRepository_FindByStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := repositories.NewTaskRepository()
	user := createTestUser(t, db)
	other := createTestUser(t, db)

	createTestTask(t, db, user.ID, "todo task", models.TaskStatusTodo, nil)
	createTestTask(t, db, user.ID, "done task", models.TaskStatusDone, nil)
	createTestTask(t, db, other.ID, "other user todo", models.TaskStatusTodo, nil)

	tasks, err := repo.FindByStatus(db, user.ID, models.TaskStatusTodo)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "todo task", tasks[0].Title)
}

func TestTaskRepository_FindOverdue(t *testing.T) {
	db := setupTestDB(t)
	repo := repositories.NewTaskRepository()
	user := createTestUser(t, db)

	past := time.Now().Add(-48 * time.Hour)
	future := time.Now().Add(48 * time.Hour)

	createTestTask(t, db, user.ID, "overdue", models.TaskStatusTodo, &past)
	createTestTask(t, db, user.ID, "done in the past", models.TaskStatusDone, &past)
	createTestTask(t, db, user.ID, "future", models.TaskStatusTodo, &future)
	createTestTask(t, db, user.ID, "no due date", models.TaskStatusTodo, nil)

	tasks, err := repo.FindOverdue(db, user.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "overdue", tasks[0].Title)
}

func TestTaskRepository_Search(t *testing.T) {
	db := setupTestDB(t)
	repo := repositories.NewTaskRepository()
	user := createTestUser(t, db)

	createTestTask(t, db, user.ID, "Write REPORT", models.TaskStatusTodo, nil)
	deploy := createTestTask(t, db, user.ID, "Deploy service", models.TaskStatusTodo, nil)
	deploy.Description = "includes the report step"
	require.NoError(t, db.Save(deploy).Error)
	createTestTask(t, db, user.ID, "Unrelated", models.TaskStatusTodo, nil)

	tasks, err := repo.Search(db, user.ID, "report", 20)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	tasks, err = repo.Search(db, user.ID, "report", 1)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestTaskRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := repositories.NewTaskRepository()
	user := createTestUser(t, db)
	task := createTestTask(t, db, user.ID, "original", models.TaskStatusTodo, nil)

	updated, err := repo.Update(db, task, map[string]interface{}{
		"title":  "renamed",
		"status": models.TaskStatusInProgress,
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, models.TaskStatusInProgress, updated.Status)
}

func TestTaskRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := repositories.NewTaskRepository()
	user := createTestUser(t, db)
	task := createTestTask(t, db, user.ID, "to delete", models.TaskStatusTodo, nil)

	require.NoError(t, repo.Delete(db, task))

	var count int64
	require.NoError(t, db.Model(&models.Task{}).Where("id = ?", task.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTaskRepository_BulkUpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := repositories.NewTaskRepository()
	user := createTestUser(t, db)

	a := createTestTask(t, db, user.ID, "a", models.TaskStatusTodo, nil)
	b := createTestTask(t, db, user.ID, "b", models.TaskStatusInProgress, nil)
	c := createTestTask(t, db, user.ID, "c", models.TaskStatusTodo, nil)

	affected, err := repo.BulkUpdateStatus(db, []uuid.UUID{a.ID, b.ID}, models.TaskStatusDone)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	var untouched models.Task
	require.NoError(t, db.First(&untouched, "id = ?", c.ID).Error)
	assert.Equal(t, models.TaskStatusTodo, untouched.Status)
}

func TestTaskRepository_GetStatistics(t *testing.T) {
	db := setupTestDB(t)
	repo := repositories.NewTaskRepository()
	user := createTestUser(t, db)

	past := time.Now().Add(-24 * time.Hour)
	createTestTask(t, db, user.ID, "t1", models.TaskStatusTodo, nil)
	createTestTask(t, db, user.ID, "t2", models.TaskStatusTodo, &past)
	createTestTask(t, db, user.ID, "t3", models.TaskStatusInProgress, nil)
	createTestTask(t, db, user.ID, "t4", models.TaskStatusDone, &past)

	stats, err := repo.GetStatistics(db, user.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(2), stats.Todo)
	assert.Equal(t, int64(1), stats.InProgress)
	assert.Equal(t, int64(1), stats.Done)
	assert.Equal(t, int64(1), stats.Overdue)
	assert.Equal(t, int64(2), stats.StatusDistribution[models.TaskStatusTodo])
}
