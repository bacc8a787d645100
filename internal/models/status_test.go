package models_test

import (
	"testing"
	"time"

	"taskflow/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestProjectStatusProgress(t *testing.T) {
	tests := []struct {
		status   string
		expected int
	}{
		{models.ProjectStatusPlanning, 10},
		{models.ProjectStatusInProgress, 50},
		{models.ProjectStatusOnHold, 30},
		{models.ProjectStatusCompleted, 100},
		{models.ProjectStatusCancelled, 0},
		{"bogus", 0},
		{"", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, models.ProjectStatusProgress(tt.status), "status %q", tt.status)
	}
}

func TestTaskStatusProgress(t *testing.T) {
	assert.Equal(t, 0, models.TaskStatusProgress(models.TaskStatusTodo))
	assert.Equal(t, 50, models.TaskStatusProgress(models.TaskStatusInProgress))
	assert.Equal(t, 100, models.TaskStatusProgress(models.TaskStatusDone))
	assert.Equal(t, 0, models.TaskStatusProgress("unknown"))
}

func TestIsValidStatus(t *testing.T) {
	assert.True(t, models.IsValidProjectStatus(models.ProjectStatusOnHold))
	assert.False(t, models.IsValidProjectStatus("archived"))

	assert.True(t, models.IsValidTaskStatus(models.TaskStatusInProgress))
	assert.False(t, models.IsValidTaskStatus("pending"))

	assert.True(t, models.IsValidProjectPriority(models.ProjectPriorityUrgent))
	assert.False(t, models.IsValidProjectPriority("critical"))
}

func TestStatusValues_Order(t *testing.T) {
	assert.Equal(t, []string{
		models.ProjectStatusPlanning,
		models.ProjectStatusInProgress,
		models.ProjectStatusOnHold,
		models.ProjectStatusCompleted,
		models.ProjectStatusCancelled,
	}, models.ProjectStatusValues())

	assert.Equal(t, []string{
		models.TaskStatusTodo,
		models.TaskStatusInProgress,
		models.TaskStatusDone,
	}, models.TaskStatusValues())
}

func TestProjectIsOverdue(t *testing.T) {
	past := time.Now().Add(-24 * time.Hour)
	future := time.Now().Add(24 * time.Hour)

	overdue := models.Project{EndDate: &past, Status: models.ProjectStatusInProgress}
	assert.True(t, overdue.IsOverdue())

	completed := models.Project{EndDate: &past, Status: models.ProjectStatusCompleted}
	assert.False(t, completed.IsOverdue())

	upcoming := models.Project{EndDate: &future, Status: models.ProjectStatusInProgress}
	assert.False(t, upcoming.IsOverdue())

	noEndDate := models.Project{Status: models.ProjectStatusInProgress}
	assert.False(t, noEndDate.IsOverdue())
}

func TestTaskIsOverdue(t *testing.T) {
	past := time.Now().Add(-24 * time.Hour)

	overdue := models.Task{DueDate: &past, Status: models.TaskStatusTodo}
	assert.True(t, overdue.IsOverdue())

	done := models.Task{DueDate: &past, Status: models.TaskStatusDone}
	assert.False(t, done.IsOverdue())

	noDueDate := models.Task{Status: models.TaskStatusTodo}
	assert.False(t, noDueDate.IsOverdue())
}
