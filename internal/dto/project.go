package dto

import (
	"time"

	"github.com/gofrs/uuid"

	"taskflow/backend/internal/models"
)

const dateLayout = "2006-01-02"

type ProjectResponse struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	Status             string   `json:"status"`
	Priority           string   `json:"priority"`
	StartDate          *string  `json:"start_date"`
	EndDate            *string  `json:"end_date"`
	Budget             *float64 `json:"budget"`
	UserID             string   `json:"user_id"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
	DeletedAt          *string  `json:"deleted_at,omitempty"`
	ProgressPercentage int      `json:"progress_percentage"`
	IsOverdue          bool     `json:"is_overdue"`
}

func NewProjectResponse(p *models.Project) ProjectResponse {
	resp := ProjectResponse{
		ID:                 p.ID.String(),
		Name:               p.Name,
		Description:        p.Description,
		Status:             p.Status,
		Priority:           p.Priority,
		StartDate:          formatDate(p.StartDate),
		EndDate:            formatDate(p.EndDate),
		Budget:             p.Budget,
		UserID:             p.UserID.String(),
		CreatedAt:          p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          p.UpdatedAt.UTC().Format(time.RFC3339),
		ProgressPercentage: p.ProgressPercentage(),
		IsOverdue:          p.IsOverdue(),
	}
	if p.DeletedAt.Valid {
		t := p.DeletedAt.Time
		resp.DeletedAt = formatDate(&t)
	}
	return resp
}

type CreateProjectInput struct {
	Name        string   `json:"name" binding:"required,min=3,max=255"`
	Description string   `json:"description" binding:"omitempty,max=2000"`
	Status      string   `json:"status" binding:"omitempty,oneof=planning in_progress on_hold completed cancelled"`
	Priority    string   `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	StartDate   *string  `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate     *string  `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Budget      *float64 `json:"budget" binding:"omitempty,gte=0,lte=99999999.99"`
}

// ToModel builds a Project owned by userID. Omitted status and priority fall
// back to their defaults.
func (in *CreateProjectInput) ToModel(userID uuid.UUID) (*models.Project, error) {
	start, err := parseDate(in.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(in.EndDate)
	if err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = models.ProjectStatusPlanning
	}
	priority := in.Priority
	if priority == "" {
		priority = models.ProjectPriorityMedium
	}

	return &models.Project{
		ID:          uuid.Must(uuid.NewV4()),
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		Status:      status,
		Priority:    priority,
		StartDate:   start,
		EndDate:     end,
		Budget:      in.Budget,
	}, nil
}

type UpdateProjectInput struct {
	Name        *string  `json:"name" binding:"omitempty,min=3,max=255"`
	Description *string  `json:"description" binding:"omitempty,max=2000"`
	Status      *string  `json:"status" binding:"omitempty,oneof=planning in_progress on_hold completed cancelled"`
	Priority    *string  `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	StartDate   *string  `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate     *string  `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Budget      *float64 `json:"budget" binding:"omitempty,gte=0,lte=99999999.99"`
}

// Changes returns the column updates for the fields present in the payload.
// Null fields are ignored, so an all-null payload produces an empty map.
func (in *UpdateProjectInput) Changes() (map[string]interface{}, error) {
	changes := make(map[string]interface{})
	if in.Name != nil {
		changes["name"] = *in.Name
	}
	if in.Description != nil {
		changes["description"] = *in.Description
	}
	if in.Status != nil {
		changes["status"] = *in.Status
	}
	if in.Priority != nil {
		changes["priority"] = *in.Priority
	}
	if in.StartDate != nil {
		t, err := parseDate(in.StartDate)
		if err != nil {
			return nil, err
		}
		changes["start_date"] = t
	}
	if in.EndDate != nil {
		t, err := parseDate(in.EndDate)
		if err != nil {
			return nil, err
		}
		changes["end_date"] = t
	}
	if in.Budget != nil {
		changes["budget"] = *in.Budget
	}
	return changes, nil
}

func (in *UpdateProjectInput) HasUpdates() bool {
	return in.Name != nil || in.Description != nil || in.Status != nil ||
		in.Priority != nil || in.StartDate != nil || in.EndDate != nil ||
		in.Budget != nil
}

type ProjectListQuery struct {
	Status    string `form:"status"`
	Priority  string `form:"priority"`
	Search    string `form:"search"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
	Page      int    `form:"page"`
	PerPage   int    `form:"per_page"`
}

type ProjectStatistics struct {
	TotalProjects        int64            `json:"total_projects"`
	CompletedProjects    int64            `json:"completed_projects"`
	InProgressProjects   int64            `json:"in_progress_projects"`
	OverdueProjects      int64            `json:"overdue_projects"`
	TotalBudget          float64          `json:"total_budget"`
	CompletionPercentage float64          `json:"completion_percentage"`
	OverduePercentage    float64          `json:"overdue_percentage"`
	StatusDistribution   map[string]int64 `json:"status_distribution"`
	PriorityDistribution map[string]int64 `json:"priority_distribution"`
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
