package dto

import (
	"time"

	"github.com/gofrs/uuid"

	"taskflow/backend/internal/models"
)

type TaskResponse struct {
	ID                 string  `json:"id"`
	Title              string  `json:"title"`
	Description        string  `json:"description"`
	Status             string  `json:"status"`
	DueDate            *string `json:"due_date"`
	UserID             string  `json:"user_id"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
	ProgressPercentage int     `json:"progress_percentage"`
	IsOverdue          bool    `json:"is_overdue"`
}

func NewTaskResponse(t *models.Task) TaskResponse {
	return TaskResponse{
		ID:                 t.ID.String(),
		Title:              t.Title,
		Description:        t.Description,
		Status:             t.Status,
		DueDate:            formatDate(t.DueDate),
		UserID:             t.UserID.String(),
		CreatedAt:          t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          t.UpdatedAt.UTC().Format(time.RFC3339),
		ProgressPercentage: t.ProgressPercentage(),
		IsOverdue:          t.IsOverdue(),
	}
}

type CreateTaskInput struct {
	Title       string  `json:"title" binding:"required,max=255"`
	Description string  `json:"description" binding:"omitempty,max=2000"`
	Status      string  `json:"status" binding:"omitempty,oneof=todo in_progress done"`
	DueDate     *string `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
}

func (in *CreateTaskInput) ToModel(userID uuid.UUID) (*models.Task, error) {
	due, err := parseDate(in.DueDate)
	if err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = models.TaskStatusTodo
	}

	return &models.Task{
		ID:          uuid.Must(uuid.NewV4()),
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Status:      status,
		DueDate:     due,
	}, nil
}

type UpdateTaskInput struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Status      *string `json:"status" binding:"omitempty,oneof=todo in_progress done"`
	DueDate     *string `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
}

func (in *UpdateTaskInput) Changes() (map[string]interface{}, error) {
	changes := make(map[string]interface{})
	if in.Title != nil {
		changes["title"] = *in.Title
	}
	if in.Description != nil {
		changes["description"] = *in.Description
	}
	if in.Status != nil {
		changes["status"] = *in.Status
	}
	if in.DueDate != nil {
		t, err := parseDate(in.DueDate)
		if err != nil {
			return nil, err
		}
		changes["due_date"] = t
	}
	return changes, nil
}

func (in *UpdateTaskInput) HasUpdates() bool {
	return in.Title != nil || in.Description != nil || in.Status != nil || in.DueDate != nil
}

type TaskListQuery struct {
	Status    string `form:"status"`
	DueDate   string `form:"due_date"`
	Search    string `form:"search"`
	Overdue   string `form:"overdue"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
	Page      int    `form:"page"`
	PerPage   int    `form:"per_page"`
}

type TaskStatistics struct {
	TotalTasks         int64            `json:"total_tasks"`
	TodoTasks          int64            `json:"todo_tasks"`
	InProgressTasks    int64            `json:"in_progress_tasks"`
	DoneTasks          int64            `json:"done_tasks"`
	OverdueTasks       int64            `json:"overdue_tasks"`
	StatusDistribution map[string]int64 `json:"status_distribution"`
}
