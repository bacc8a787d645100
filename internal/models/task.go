package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type Task struct {
	ID          uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	UserID      uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	Title       string     `json:"title" gorm:"not null"`
	Description string     `json:"description"`
	Status      string     `json:"status" gorm:"not null;default:'todo'"`
	DueDate     *time.Time `json:"due_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// IsOverdue reports whether the task's due date has passed while the task is
// not done. Tasks without a due date are never overdue.
func (t *Task) IsOverdue() bool {
	return t.DueDate != nil &&
		t.DueDate.Before(time.Now()) &&
		t.Status != TaskStatusDone
}

func (t *Task) ProgressPercentage() int {
	return TaskStatusProgress(t.Status)
}
