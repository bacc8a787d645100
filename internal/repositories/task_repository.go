package repositories

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"taskflow/backend/internal/models"
)

// TaskStats holds per-user aggregate counts straight from the store.
type TaskStats struct {
	Total              int64
	Todo               int64
	InProgress         int64
	Done               int64
	Overdue            int64
	StatusDistribution map[string]int64
}

// TaskRepository implements the task query operations, all scoped to a user
// id. Methods take the *gorm.DB handle as their first argument so callers can
// pass a transaction.
type TaskRepository interface {
	FindByStatus(db *gorm.DB, userID uuid.UUID, status string) ([]models.Task, error)
	FindOverdue(db *gorm.DB, userID uuid.UUID) ([]models.Task, error)
	Search(db *gorm.DB, userID uuid.UUID, term string, limit int) ([]models.Task, error)
	Create(db *gorm.DB, task *models.Task) error
	Update(db *gorm.DB, task *models.Task, changes map[string]interface{}) (*models.Task, error)
	Delete(db *gorm.DB, task *models.Task) error
	BulkUpdateStatus(db *gorm.DB, ids []uuid.UUID, status string) (int64, error)
	GetStatistics(db *gorm.DB, userID uuid.UUID) (*TaskStats, error)
}

type TaskRepositoryImpl struct{}

func NewTaskRepository() *TaskRepositoryImpl {
	return &TaskRepositoryImpl{}
}

func (r *TaskRepositoryImpl) FindByStatus(db *gorm.DB, userID uuid.UUID, status string) ([]models.Task, error) {
	var tasks []models.Task
	err := db.Where("user_id = ? AND status = ?", userID, status).Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepositoryImpl) FindOverdue(db *gorm.DB, userID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	err := db.Where("user_id = ? AND due_date < ? AND status != ?",
		userID, time.Now(), models.TaskStatusDone).Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepositoryImpl) Search(db *gorm.DB, userID uuid.UUID, term string, limit int) ([]models.Task, error) {
	pattern := "%" + term + "%"
	var tasks []models.Task
	query := db.Where("user_id = ?", userID).
		Where("LOWER(title) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", pattern, pattern)
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepositoryImpl) Create(db *gorm.DB, task *models.Task) error {
	return db.Create(task).Error
}

// Update applies the change set and returns the refreshed row.
func (r *TaskRepositoryImpl) Update(db *gorm.DB, task *models.Task, changes map[string]interface{}) (*models.Task, error) {
	if err := db.Model(task).Updates(changes).Error; err != nil {
		return nil, err
	}
	var fresh models.Task
	if err := db.First(&fresh, "id = ?", task.ID).Error; err != nil {
		return nil, err
	}
	return &fresh, nil
}

func (r *TaskRepositoryImpl) Delete(db *gorm.DB, task *models.Task) error {
	return db.Delete(task).Error
}

// BulkUpdateStatus updates every row in ids and returns the affected count.
// Ownership is not checked here; callers must verify all ids belong to the
// requesting user first.
func (r *TaskRepositoryImpl) BulkUpdateStatus(db *gorm.DB, ids []uuid.UUID, status string) (int64, error) {
	result := db.Model(&models.Task{}).Where("id IN ?", ids).Update("status", status)
	return result.RowsAffected, result.Error
}

func (r *TaskRepositoryImpl) GetStatistics(db *gorm.DB, userID uuid.UUID) (*TaskStats, error) {
	stats := &TaskStats{StatusDistribution: make(map[string]int64)}

	base := func() *gorm.DB {
		return db.Model(&models.Task{}).Where("user_id = ?", userID)
	}

	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status = ?", models.TaskStatusTodo).Count(&stats.Todo).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status = ?", models.TaskStatusInProgress).Count(&stats.InProgress).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status = ?", models.TaskStatusDone).Count(&stats.Done).Error; err != nil {
		return nil, err
	}
	if err := base().Where("due_date < ? AND status != ?", time.Now(), models.TaskStatusDone).
		Count(&stats.Overdue).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		Status string
		Count  int64
	}
	if err := base().Select("status, COUNT(*) as count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.StatusDistribution[row.Status] = row.Count
	}

	return stats, nil
}
