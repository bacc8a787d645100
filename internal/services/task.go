package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"taskflow/backend/internal/apperrors"
	"taskflow/backend/internal/cache"
	"taskflow/backend/internal/dto"
	"taskflow/backend/internal/filters"
	"taskflow/backend/internal/models"
	"taskflow/backend/internal/repositories"
)

// Search results are capped to keep the endpoint bounded, matching the
// project search cap.
const taskSearchLimit = 20

const taskStatsTTL = 5 * time.Minute

var taskSortFields = map[string]bool{
	"title":      true,
	"status":     true,
	"due_date":   true,
	"created_at": true,
	"updated_at": true,
}

type TaskService interface {
	List(db *gorm.DB, user *models.User, q dto.TaskListQuery) (*dto.TaskList, error)
	Create(db *gorm.DB, user *models.User, input dto.CreateTaskInput) (*dto.TaskResponse, error)
	Get(db *gorm.DB, user *models.User, id uuid.UUID) (*dto.TaskResponse, error)
	Update(db *gorm.DB, user *models.User, id uuid.UUID, input dto.UpdateTaskInput) (*dto.TaskResponse, error)
	Delete(db *gorm.DB, user *models.User, id uuid.UUID) error
	Statistics(db *gorm.DB, user *models.User) (*dto.TaskStatistics, error)
	Search(db *gorm.DB, user *models.User, term string) ([]dto.TaskResponse, error)
	ByStatus(db *gorm.DB, user *models.User, status string) ([]dto.TaskResponse, error)
	Overdue(db *gorm.DB, user *models.User) (*dto.OverdueTasks, error)
	BulkUpdateStatus(db *gorm.DB, user *models.User, ids []uuid.UUID, status string) (*dto.BulkUpdateResult, error)
}

type TaskServiceImpl struct {
	repo     repositories.TaskRepository
	chain    *filters.Chain
	logger   *zap.Logger
	cache    *cache.RedisCache
	observer TaskObserver
}

// NewTaskService wires the task business logic. statsCache and observer may
// be nil.
func NewTaskService(repo repositories.TaskRepository, logger *zap.Logger, statsCache *cache.RedisCache, observer TaskObserver) *TaskServiceImpl {
	return &TaskServiceImpl{
		repo:     repo,
		chain:    filters.NewTaskChain(),
		logger:   logger,
		cache:    statsCache,
		observer: observer,
	}
}

func (s *TaskServiceImpl) List(db *gorm.DB, user *models.User, q dto.TaskListQuery) (*dto.TaskList, error) {
	query := db.Model(&models.Task{}).Where("user_id = ?", user.ID)

	values := map[string]string{
		"status":   q.Status,
		"due_date": q.DueDate,
		"search":   q.Search,
		"overdue":  q.Overdue,
	}
	query = s.chain.Apply(query, values, []string{"status", "due_date", "search", "overdue"})

	query = applySort(query, q.SortBy, q.SortOrder, taskSortFields)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		s.logger.Error("failed to count tasks", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, apperrors.Internal("Failed to retrieve tasks", err)
	}

	page, perPage := normalizePage(q.Page, q.PerPage)

	var tasks []models.Task
	if err := query.Offset((page - 1) * perPage).Limit(perPage).Find(&tasks).Error; err != nil {
		s.logger.Error("failed to list tasks", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, apperrors.Internal("Failed to retrieve tasks", err)
	}

	return &dto.TaskList{
		Data: taskResponses(tasks),
		Meta: dto.NewListMeta(total, page, perPage, len(tasks)),
	}, nil
}

func (s *TaskServiceImpl) Create(db *gorm.DB, user *models.User, input dto.CreateTaskInput) (*dto.TaskResponse, error) {
	task, err := input.ToModel(user.ID)
	if err != nil {
		return nil, apperrors.Validation("Invalid due date")
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.Internal("Failed to create task", tx.Error)
	}

	if err := s.repo.Create(tx, task); err != nil {
		tx.Rollback()
		s.logger.Error("failed to create task", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, apperrors.Internal("Failed to create task", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.Internal("Failed to create task", err)
	}

	s.notify(TaskCreated, nil, task)
	s.invalidateStats(user.ID)

	s.logger.Info("task created",
		zap.String("task_id", task.ID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("title", task.Title))

	resp := dto.NewTaskResponse(task)
	return &resp, nil
}

func (s *TaskServiceImpl) Get(db *gorm.DB, user *models.User, id uuid.UUID) (*dto.TaskResponse, error) {
	task, err := s.findOwned(db, user, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewTaskResponse(task)
	return &resp, nil
}

func (s *TaskServiceImpl) Update(db *gorm.DB, user *models.User, id uuid.UUID, input dto.UpdateTaskInput) (*dto.TaskResponse, error) {
	task, err := s.findOwned(db, user, id)
	if err != nil {
		return nil, err
	}

	// Empty effective payload: skip the write so updated_at stays put.
	if !input.HasUpdates() {
		resp := dto.NewTaskResponse(task)
		return &resp, nil
	}

	changes, err := input.Changes()
	if err != nil {
		return nil, apperrors.Validation("Invalid due date")
	}

	before := *task

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.Internal("Failed to update task", tx.Error)
	}

	fresh, err := s.repo.Update(tx, task, changes)
	if err != nil {
		tx.Rollback()
		s.logger.Error("failed to update task", zap.Error(err), zap.String("task_id", id.String()))
		return nil, apperrors.Internal("Failed to update task", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.Internal("Failed to update task", err)
	}

	s.notify(TaskUpdated, &before, fresh)
	s.invalidateStats(user.ID)

	s.logger.Info("task updated",
		zap.String("task_id", fresh.ID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("title", fresh.Title))

	resp := dto.NewTaskResponse(fresh)
	return &resp, nil
}

func (s *TaskServiceImpl) Delete(db *gorm.DB, user *models.User, id uuid.UUID) error {
	task, err := s.findOwned(db, user, id)
	if err != nil {
		return err
	}

	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.Internal("Failed to delete task", tx.Error)
	}

	if err := s.repo.Delete(tx, task); err != nil {
		tx.Rollback()
		s.logger.Error("failed to delete task", zap.Error(err), zap.String("task_id", id.String()))
		return apperrors.Internal("Failed to delete task", err)
	}

	if err := tx.Commit().Error; err != nil {
		return apperrors.Internal("Failed to delete task", err)
	}

	s.notify(TaskDeleted, task, nil)
	s.invalidateStats(user.ID)

	s.logger.Info("task deleted",
		zap.String("task_id", id.String()),
		zap.String("user_id", user.ID.String()))

	return nil
}

func (s *TaskServiceImpl) Statistics(db *gorm.DB, user *models.User) (*dto.TaskStatistics, error) {
	cacheKey := taskStatsKey(user.ID)
	if s.cache != nil {
		var cached dto.TaskStatistics
		if err := s.cache.Get(cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	raw, err := s.repo.GetStatistics(db, user.ID)
	if err != nil {
		s.logger.Error("failed to compute task statistics", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, apperrors.Internal("Failed to retrieve task statistics", err)
	}

	stats := &dto.TaskStatistics{
		TotalTasks:         raw.Total,
		TodoTasks:          raw.Todo,
		InProgressTasks:    raw.InProgress,
		DoneTasks:          raw.Done,
		OverdueTasks:       raw.Overdue,
		StatusDistribution: raw.StatusDistribution,
	}

	if s.cache != nil {
		_ = s.cache.Set(cacheKey, stats, taskStatsTTL)
	}

	return stats, nil
}

func (s *TaskServiceImpl) Search(db *gorm.DB, user *models.User, term string) ([]dto.TaskResponse, error) {
	if term == "" {
		return nil, apperrors.Validation("Search term is required")
	}

	tasks, err := s.repo.Search(db, user.ID, term, taskSearchLimit)
	if err != nil {
		s.logger.Error("failed to search tasks", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, apperrors.Internal("Failed to search tasks", err)
	}

	return taskResponses(tasks), nil
}

func (s *TaskServiceImpl) ByStatus(db *gorm.DB, user *models.User, status string) ([]dto.TaskResponse, error) {
	if !models.IsValidTaskStatus(status) {
		return nil, apperrors.Validation("Invalid status provided")
	}

	tasks, err := s.repo.FindByStatus(db, user.ID, status)
	if err != nil {
		s.logger.Error("failed to list tasks by status", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, apperrors.Internal("Failed to retrieve tasks", err)
	}

	return taskResponses(tasks), nil
}

func (s *TaskServiceImpl) Overdue(db *gorm.DB, user *models.User) (*dto.OverdueTasks, error) {
	tasks, err := s.repo.FindOverdue(db, user.ID)
	if err != nil {
		s.logger.Error("failed to list overdue tasks", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, apperrors.Internal("Failed to retrieve overdue tasks", err)
	}

	return &dto.OverdueTasks{Data: taskResponses(tasks), Count: len(tasks)}, nil
}

func (s *TaskServiceImpl) BulkUpdateStatus(db *gorm.DB, user *models.User, ids []uuid.UUID, status string) (*dto.BulkUpdateResult, error) {
	if !models.IsValidTaskStatus(status) {
		return nil, apperrors.Validation("Invalid status provided")
	}

	// Every id must belong to the caller before anything is touched.
	var owned int64
	if err := db.Model(&models.Task{}).
		Where("user_id = ? AND id IN ?", user.ID, ids).
		Count(&owned).Error; err != nil {
		return nil, apperrors.Internal("Failed to update tasks", err)
	}
	if owned != int64(len(ids)) {
		return nil, apperrors.NotFound("Some tasks not found or do not belong to you")
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.Internal("Failed to update tasks", tx.Error)
	}

	count, err := s.repo.BulkUpdateStatus(tx, ids, status)
	if err != nil {
		tx.Rollback()
		s.logger.Error("failed to bulk update tasks", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, apperrors.Internal("Failed to update tasks", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.Internal("Failed to update tasks", err)
	}

	s.invalidateStats(user.ID)

	s.logger.Info("tasks bulk status updated",
		zap.String("user_id", user.ID.String()),
		zap.Int64("updated_count", count),
		zap.String("status", status))

	return &dto.BulkUpdateResult{
		UpdatedCount: count,
		Message:      fmt.Sprintf("Successfully updated %d tasks to '%s' status", count, status),
	}, nil
}

// findOwned loads a task and verifies ownership. A task owned by someone else
// is reported as missing so existence never leaks.
func (s *TaskServiceImpl) findOwned(db *gorm.DB, user *models.User, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := db.First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Task not found")
		}
		return nil, apperrors.Internal("Failed to retrieve task", err)
	}
	if task.UserID != user.ID {
		return nil, apperrors.NotFound("Task not found")
	}
	return &task, nil
}

func (s *TaskServiceImpl) notify(event TaskEvent, before, after *models.Task) {
	if s.observer != nil {
		s.observer(event, before, after)
	}
}

func (s *TaskServiceImpl) invalidateStats(userID uuid.UUID) {
	if s.cache != nil {
		_ = s.cache.Delete(taskStatsKey(userID))
	}
}

func taskStatsKey(userID uuid.UUID) string {
	return "task_stats:" + userID.String()
}

func taskResponses(tasks []models.Task) []dto.TaskResponse {
	out := make([]dto.TaskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, dto.NewTaskResponse(&tasks[i]))
	}
	return out
}
