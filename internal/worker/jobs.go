package worker

import (
	"context"
	"fmt"
	"time"

	"taskflow/backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TokenCleanupHandler deletes expired auth tokens so revoked sessions do not
// accumulate forever.
func TokenCleanupHandler(db *gorm.DB, logger *zap.Logger) JobHandler {
	return func(ctx context.Context, job *Job) error {
		result := db.WithContext(ctx).
			Where("expires_at < ?", time.Now()).
			Delete(&models.Token{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete expired tokens: %w", result.Error)
		}

		if result.RowsAffected > 0 {
			logger.Info("expired tokens cleaned up",
				zap.Int64("deleted", result.RowsAffected))
		}
		return nil
	}
}

// TaskReminderHandler logs tasks that come due within the next 24 hours.
func TaskReminderHandler(db *gorm.DB, logger *zap.Logger) JobHandler {
	return func(ctx context.Context, job *Job) error {
		var tasks []models.Task
		now := time.Now()
		err := db.WithContext(ctx).
			Where("due_date IS NOT NULL AND due_date BETWEEN ? AND ?", now, now.Add(24*time.Hour)).
			Where("status <> ?", models.TaskStatusDone).
			Find(&tasks).Error
		if err != nil {
			return fmt.Errorf("failed to load due tasks: %w", err)
		}

		for _, task := range tasks {
			logger.Info("task due soon",
				zap.String("task_id", task.ID.String()),
				zap.String("user_id", task.UserID.String()),
				zap.String("title", task.Title),
				zap.Timep("due_date", task.DueDate))
		}
		return nil
	}
}

// ScheduleRecurring enqueues a job that the worker re-enqueues after every
// successful run, giving a lightweight cron without an extra dependency.
// The first run happens one interval from now.
func ScheduleRecurring(queue *JobQueue, jobType JobType, interval time.Duration) error {
	return queue.EnqueueAt(QueueDefault, jobType, map[string]interface{}{
		payloadIntervalSeconds: interval.Seconds(),
	}, time.Now().Add(interval))
}
