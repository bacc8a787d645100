package services

import (
	"go.uber.org/zap"

	"taskflow/backend/internal/models"
)

type TaskEvent string

const (
	TaskCreated TaskEvent = "created"
	TaskUpdated TaskEvent = "updated"
	TaskDeleted TaskEvent = "deleted"
)

// TaskObserver is invoked after a task mutation commits, with the entity
// state before and after the write. before is nil on create, after is nil on
// delete. Observers run outside the transaction and cannot fail it.
type TaskObserver func(event TaskEvent, before, after *models.Task)

// NewTaskLogObserver returns an observer that records task lifecycle events,
// flagging completions and tasks that a due-date change made overdue.
func NewTaskLogObserver(logger *zap.Logger) TaskObserver {
	return func(event TaskEvent, before, after *models.Task) {
		switch event {
		case TaskCreated:
			logger.Info("task created",
				zap.String("task_id", after.ID.String()),
				zap.String("title", after.Title),
				zap.String("status", after.Status),
				zap.String("user_id", after.UserID.String()))

		case TaskUpdated:
			logger.Info("task updated",
				zap.String("task_id", after.ID.String()),
				zap.String("title", after.Title),
				zap.String("status", after.Status),
				zap.String("user_id", after.UserID.String()))

			if before.Status != after.Status && after.Status == models.TaskStatusDone {
				logger.Info("task completed",
					zap.String("task_id", after.ID.String()),
					zap.String("title", after.Title),
					zap.String("user_id", after.UserID.String()))
			}

			dueChanged := (before.DueDate == nil) != (after.DueDate == nil) ||
				(before.DueDate != nil && after.DueDate != nil && !before.DueDate.Equal(*after.DueDate))
			if dueChanged && after.IsOverdue() {
				logger.Warn("task became overdue",
					zap.String("task_id", after.ID.String()),
					zap.String("title", after.Title),
					zap.Timep("due_date", after.DueDate),
					zap.String("user_id", after.UserID.String()))
			}

		case TaskDeleted:
			logger.Info("task deleted",
				zap.String("task_id", before.ID.String()),
				zap.String("title", before.Title),
				zap.String("status", before.Status),
				zap.String("user_id", before.UserID.String()))
		}
	}
}
