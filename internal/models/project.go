package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type Project struct {
	ID          uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	UserID      uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	Name        string     `json:"name" gorm:"not null"`
	Description string     `json:"description"`
	Status      string     `json:"status" gorm:"not null;default:'planning'"`
	Priority    string     `json:"priority" gorm:"not null;default:'medium'"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Budget      *float64   `json:"budget"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// IsOverdue reports whether the project's end date has passed while the
// project is not completed. Projects without an end date are never overdue.
func (p *Project) IsOverdue() bool {
	return p.EndDate != nil &&
		p.EndDate.Before(time.Now()) &&
		p.Status != ProjectStatusCompleted
}

func (p *Project) ProgressPercentage() int {
	return ProjectStatusProgress(p.Status)
}
