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
	"taskflow/backend/internal/models"
)

const projectSearchLimit = 20

const projectStatsTTL = 5 * time.Minute

var projectSortFields = map[string]bool{
	"name":       true,
	"status":     true,
	"priority":   true,
	"start_date": true,
	"end_date":   true,
	"created_at": true,
	"updated_at": true,
}

type ProjectService interface {
	List(db *gorm.DB, user *models.User, q dto.ProjectListQuery) (*dto.ProjectList, error)
	Create(db *gorm.DB, user *models.User, input dto.CreateProjectInput) (*dto.ProjectResponse, error)
	Get(db *gorm.DB, user *models.User, id uuid.UUID) (*dto.ProjectResponse, error)
	Update(db *gorm.DB, user *models.User, id uuid.UUID, input dto.UpdateProjectInput) (*dto.ProjectResponse, error)
	Delete(db *gorm.DB, user *models.User, id uuid.UUID) error
	Restore(db *gorm.DB, user *models.User, id uuid.UUID) (*dto.ProjectResponse, error)
	ForceDelete(db *gorm.DB, user *models.User, id uuid.UUID) error
	Statistics(db *gorm.DB, user *models.User) (*dto.ProjectStatistics, error)
	Search(db *gorm.DB, user *models.User, term string) ([]dto.ProjectResponse, error)
	ByStatus(db *gorm.DB, user *models.User, status string) ([]dto.ProjectResponse, error)
	Overdue(db *gorm.DB, user *models.User) (*dto.OverdueProjects, error)
	BulkUpdateStatus(db *gorm.DB, user *models.User, ids []uuid.UUID, status string) (*dto.BulkUpdateResult, error)
	Duplicate(db *gorm.DB, user *models.User, id uuid.UUID) (*dto.ProjectResponse, error)
}

type ProjectServiceImpl struct {
	logger *zap.Logger
	cache  *cache.RedisCache
}

// NewProjectService wires the project business logic. statsCache may be nil.
func NewProjectService(logger *zap.Logger, statsCache *cache.RedisCache) *ProjectServiceImpl {
	return &ProjectServiceImpl{logger: logger, cache: statsCache}
}

// List returns the user's projects, soft-deleted rows included so clients
// can offer restore.
func (s *ProjectServiceImpl) List(db *gorm.DB, user *models.User, q dto.ProjectListQuery) (*dto.ProjectList, error) {
	query := db.Unscoped().Model(&models.Project{}).Where("user_id = ?", user.ID)

	if q.Status != "" && models.IsValidProjectStatus(q.Status) {
		query = query.Where("status = ?", q.Status)
	}
	if q.Priority != "" && models.IsValidProjectPriority(q.Priority) {
		query = query.Where("priority = ?", q.Priority)
	}
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		query = query.Where("LOWER(name) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", pattern, pattern)
	}

	query = applySort(query, q.SortBy, q.SortOrder, projectSortFields)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		s.logger.Error("failed to count projects", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, apperrors.Internal("Failed to retrieve projects", err)
	}

	page, perPage := normalizePage(q.Page, q.PerPage)

	var projects []models.Project
	if err := query.Offset((page - 1) * perPage).Limit(perPage).Find(&projects).Error; err != nil {
		s.logger.Error("failed to list projects", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, apperrors.Internal("Failed to retrieve projects", err)
	}

	return &dto.ProjectList{
		Data: projectResponses(projects),
		Meta: dto.NewListMeta(total, page, perPage, len(projects)),
	}, nil
}

func (s *ProjectServiceImpl) Create(db *gorm.DB, user *models.User, input dto.CreateProjectInput) (*dto.ProjectResponse, error) {
	project, err := input.ToModel(user.ID)
	if err != nil {
		return nil, apperrors.Validation("Invalid date format")
	}
	if err := validateDateOrder(project.StartDate, project.EndDate); err != nil {
		return nil, err
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.Internal("Failed to create project", tx.Error)
	}

	if err := tx.Create(project).Error; err != nil {
		tx.Rollback()
		s.logger.Error("failed to create project", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, apperrors.Internal("Failed to create project", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.Internal("Failed to create project", err)
	}

	s.invalidateStats(user.ID)

	s.logger.Info("project created",
		zap.String("project_id", project.ID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("name", project.Name))

	resp := dto.NewProjectResponse(project)
	return &resp, nil
}

func (s *ProjectServiceImpl) Get(db *gorm.DB, user *models.User, id uuid.UUID) (*dto.ProjectResponse, error) {
	project, err := s.findOwned(db, user, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewProjectResponse(project)
	return &resp, nil
}

func (s *ProjectServiceImpl) Update(db *gorm.DB, user *models.User, id uuid.UUID, input dto.UpdateProjectInput) (*dto.ProjectResponse, error) {
	project, err := s.findOwned(db, user, id)
	if err != nil {
		return nil, err
	}

	// Empty effective payload: skip the write so updated_at stays put.
	if !input.HasUpdates() {
		resp := dto.NewProjectResponse(project)
		return &resp, nil
	}

	changes, err := input.Changes()
	if err != nil {
		return nil, apperrors.Validation("Invalid date format")
	}

	// Date ordering is re-checked against the merged state, since either
	// bound may come from the payload or the stored row.
	newStart := project.StartDate
	if v, ok := changes["start_date"]; ok {
		newStart, _ = v.(*time.Time)
	}
	newEnd := project.EndDate
	if v, ok := changes["end_date"]; ok {
		newEnd, _ = v.(*time.Time)
	}
	if err := validateDateOrder(newStart, newEnd); err != nil {
		return nil, err
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.Internal("Failed to update project", tx.Error)
	}

	if err := tx.Model(project).Updates(changes).Error; err != nil {
		tx.Rollback()
		s.logger.Error("failed to update project", zap.Error(err), zap.String("project_id", id.String()))
		return nil, apperrors.Internal("Failed to update project", err)
	}

	var fresh models.Project
	if err := tx.First(&fresh, "id = ?", project.ID).Error; err != nil {
		tx.Rollback()
		return nil, apperrors.Internal("Failed to update project", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.Internal("Failed to update project", err)
	}

	s.invalidateStats(user.ID)

	s.logger.Info("project updated",
		zap.String("project_id", fresh.ID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("name", fresh.Name))

	resp := dto.NewProjectResponse(&fresh)
	return &resp, nil
}

// Delete soft-deletes the project; Restore can bring it back.
func (s *ProjectServiceImpl) Delete(db *gorm.DB, user *models.User, id uuid.UUID) error {
	project, err := s.findOwned(db, user, id)
	if err != nil {
		return err
	}

	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.Internal("Failed to delete project", tx.Error)
	}

	if err := tx.Delete(project).Error; err != nil {
		tx.Rollback()
		s.logger.Error("failed to delete project", zap.Error(err), zap.String("project_id", id.String()))
		return apperrors.Internal("Failed to delete project", err)
	}

	if err := tx.Commit().Error; err != nil {
		return apperrors.Internal("Failed to delete project", err)
	}

	s.invalidateStats(user.ID)

	s.logger.Info("project deleted",
		zap.String("project_id", id.String()),
		zap.String("user_id", user.ID.String()))

	return nil
}

// Restore un-marks a soft-deleted project.
func (s *ProjectServiceImpl) Restore(db *gorm.DB, user *models.User, id uuid.UUID) (*dto.ProjectResponse, error) {
	project, err := s.findOwnedTrashed(db, user, id)
	if err != nil {
		return nil, err
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.Internal("Failed to restore project", tx.Error)
	}

	if err := tx.Unscoped().Model(project).Update("deleted_at", nil).Error; err != nil {
		tx.Rollback()
		s.logger.Error("failed to restore project", zap.Error(err), zap.String("project_id", id.String()))
		return nil, apperrors.Internal("Failed to restore project", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.Internal("Failed to restore project", err)
	}

	project.DeletedAt = gorm.DeletedAt{}
	s.invalidateStats(user.ID)

	s.logger.Info("project restored",
		zap.String("project_id", id.String()),
		zap.String("user_id", user.ID.String()))

	resp := dto.NewProjectResponse(project)
	return &resp, nil
}

// ForceDelete permanently removes a project, soft-deleted or not.
func (s *ProjectServiceImpl) ForceDelete(db *gorm.DB, user *models.User, id uuid.UUID) error {
	project, err := s.findOwnedTrashed(db, user, id)
	if err != nil {
		return err
	}

	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.Internal("Failed to permanently delete project", tx.Error)
	}

	if err := tx.Unscoped().Delete(project).Error; err != nil {
		tx.Rollback()
		s.logger.Error("failed to force delete project", zap.Error(err), zap.String("project_id", id.String()))
		return apperrors.Internal("Failed to permanently delete project", err)
	}

	if err := tx.Commit().Error; err != nil {
		return apperrors.Internal("Failed to permanently delete project", err)
	}

	s.invalidateStats(user.ID)

	s.logger.Info("project permanently deleted",
		zap.String("project_id", id.String()),
		zap.String("user_id", user.ID.String()))

	return nil
}

func (s *ProjectServiceImpl) Statistics(db *gorm.DB, user *models.User) (*dto.ProjectStatistics, error) {
	cacheKey := projectStatsKey(user.ID)
	if s.cache != nil {
		var cached dto.ProjectStatistics
		if err := s.cache.Get(cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	base := func() *gorm.DB {
		return db.Model(&models.Project{}).Where("user_id = ?", user.ID)
	}

	stats := &dto.ProjectStatistics{
		StatusDistribution:   make(map[string]int64),
		PriorityDistribution: make(map[string]int64),
	}

	if err := base().Count(&stats.TotalProjects).Error; err != nil {
		return nil, apperrors.Internal("Failed to retrieve project statistics", err)
	}
	if err := base().Where("status = ?", models.ProjectStatusCompleted).Count(&stats.CompletedProjects).Error; err != nil {
		return nil, apperrors.Internal("Failed to retrieve project statistics", err)
	}
	if err := base().Where("status = ?", models.ProjectStatusInProgress).Count(&stats.InProgressProjects).Error; err != nil {
		return nil, apperrors.Internal("Failed to retrieve project statistics", err)
	}
	if err := base().Where("end_date < ? AND status != ?", time.Now(), models.ProjectStatusCompleted).
		Count(&stats.OverdueProjects).Error; err != nil {
		return nil, apperrors.Internal("Failed to retrieve project statistics", err)
	}
	if err := base().Select("COALESCE(SUM(budget), 0)").Scan(&stats.TotalBudget).Error; err != nil {
		return nil, apperrors.Internal("Failed to retrieve project statistics", err)
	}

	var rows []struct {
		Status   string
		Priority string
		Count    int64
	}
	if err := base().Select("status, COUNT(*) as count").Group("status").Scan(&rows).Error; err != nil {
		return nil, apperrors.Internal("Failed to retrieve project statistics", err)
	}
	for _, row := range rows {
		stats.StatusDistribution[row.Status] = row.Count
	}

	rows = rows[:0]
	if err := base().Select("priority, COUNT(*) as count").Group("priority").Scan(&rows).Error; err != nil {
		return nil, apperrors.Internal("Failed to retrieve project statistics", err)
	}
	for _, row := range rows {
		stats.PriorityDistribution[row.Priority] = row.Count
	}

	stats.CompletionPercentage = dto.RoundPercentage(stats.CompletedProjects, stats.TotalProjects)
	stats.OverduePercentage = dto.RoundPercentage(stats.OverdueProjects, stats.TotalProjects)

	if s.cache != nil {
		_ = s.cache.Set(cacheKey, stats, projectStatsTTL)
	}

	return stats, nil
}

func (s *ProjectServiceImpl) Search(db *gorm.DB, user *models.User, term string) ([]dto.ProjectResponse, error) {
	if term == "" {
		return nil, apperrors.Validation("Search term is required")
	}

	pattern := "%" + term + "%"
	var projects []models.Project
	if err := db.Where("user_id = ?", user.ID).
		Where("LOWER(name) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", pattern, pattern).
		Limit(projectSearchLimit).
		Find(&projects).Error; err != nil {
		s.logger.Error("failed to search projects", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, apperrors.Internal("Failed to search projects", err)
	}

	return projectResponses(projects), nil
}

func (s *ProjectServiceImpl) ByStatus(db *gorm.DB, user *models.User, status string) ([]dto.ProjectResponse, error) {
	if !models.IsValidProjectStatus(status) {
		return nil, apperrors.Validation("Invalid status provided")
	}

	var projects []models.Project
	if err := db.Where("user_id = ? AND status = ?", user.ID, status).Find(&projects).Error; err != nil {
		s.logger.Error("failed to list projects by status", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, apperrors.Internal("Failed to retrieve projects", err)
	}

	return projectResponses(projects), nil
}

func (s *ProjectServiceImpl) Overdue(db *gorm.DB, user *models.User) (*dto.OverdueProjects, error) {
	var projects []models.Project
	if err := db.Where("user_id = ? AND end_date < ? AND status != ?",
		user.ID, time.Now(), models.ProjectStatusCompleted).Find(&projects).Error; err != nil {
		s.logger.Error("failed to list overdue projects", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, apperrors.Internal("Failed to retrieve overdue projects", err)
	}

	return &dto.OverdueProjects{Data: projectResponses(projects), Count: len(projects)}, nil
}

func (s *ProjectServiceImpl) BulkUpdateStatus(db *gorm.DB, user *models.User, ids []uuid.UUID, status string) (*dto.BulkUpdateResult, error) {
	if !models.IsValidProjectStatus(status) {
		return nil, apperrors.Validation("Invalid status provided")
	}

	var owned int64
	if err := db.Model(&models.Project{}).
		Where("user_id = ? AND id IN ?", user.ID, ids).
		Count(&owned).Error; err != nil {
		return nil, apperrors.Internal("Failed to update projects", err)
	}
	if owned != int64(len(ids)) {
		return nil, apperrors.NotFound("Some projects not found or do not belong to you")
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.Internal("Failed to update projects", tx.Error)
	}

	result := tx.Model(&models.Project{}).Where("id IN ?", ids).Update("status", status)
	if result.Error != nil {
		tx.Rollback()
		s.logger.Error("failed to bulk update projects", zap.Error(result.Error), zap.String("user_id", user.ID.String()))
		return nil, apperrors.Internal("Failed to update projects", result.Error)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.Internal("Failed to update projects", err)
	}

	s.invalidateStats(user.ID)

	s.logger.Info("projects bulk status updated",
		zap.String("user_id", user.ID.String()),
		zap.Int64("updated_count", result.RowsAffected),
		zap.String("status", status))

	return &dto.BulkUpdateResult{
		UpdatedCount: result.RowsAffected,
		Message:      fmt.Sprintf("Successfully updated %d projects to '%s' status", result.RowsAffected, status),
	}, nil
}

// Duplicate clones a project under a fresh id with " (Copy)" appended to the
// name. The clone always starts in planning, whatever the source status.
func (s *ProjectServiceImpl) Duplicate(db *gorm.DB, user *models.User, id uuid.UUID) (*dto.ProjectResponse, error) {
	project, err := s.findOwned(db, user, id)
	if err != nil {
		return nil, err
	}

	clone := &models.Project{
		ID:          uuid.Must(uuid.NewV4()),
		UserID:      project.UserID,
		Name:        project.Name + " (Copy)",
		Description: project.Description,
		Status:      models.ProjectStatusPlanning,
		Priority:    project.Priority,
		StartDate:   project.StartDate,
		EndDate:     project.EndDate,
		Budget:      project.Budget,
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.Internal("Failed to duplicate project", tx.Error)
	}

	if err := tx.Create(clone).Error; err != nil {
		tx.Rollback()
		s.logger.Error("failed to duplicate project", zap.Error(err), zap.String("project_id", id.String()))
		return nil, apperrors.Internal("Failed to duplicate project", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.Internal("Failed to duplicate project", err)
	}

	s.invalidateStats(user.ID)

	s.logger.Info("project duplicated",
		zap.String("original_project_id", id.String()),
		zap.String("new_project_id", clone.ID.String()),
		zap.String("user_id", user.ID.String()))

	resp := dto.NewProjectResponse(clone)
	return &resp, nil
}

func (s *ProjectServiceImpl) findOwned(db *gorm.DB, user *models.User, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := db.First(&project, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Project not found")
		}
		return nil, apperrors.Internal("Failed to retrieve project", err)
	}
	if project.UserID != user.ID {
		return nil, apperrors.NotFound("Project not found")
	}
	return &project, nil
}

// findOwnedTrashed is findOwned but includes soft-deleted rows, for restore
// and force-delete.
func (s *ProjectServiceImpl) findOwnedTrashed(db *gorm.DB, user *models.User, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := db.Unscoped().First(&project, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Project not found")
		}
		return nil, apperrors.Internal("Failed to retrieve project", err)
	}
	if project.UserID != user.ID {
		return nil, apperrors.NotFound("Project not found")
	}
	return &project, nil
}

func (s *ProjectServiceImpl) invalidateStats(userID uuid.UUID) {
	if s.cache != nil {
		_ = s.cache.Delete(projectStatsKey(userID))
	}
}

func projectStatsKey(userID uuid.UUID) string {
	return "project_stats:" + userID.String()
}

func validateDateOrder(start, end *time.Time) error {
	if start != nil && end != nil && start.After(*end) {
		return apperrors.ValidationFields("The given data was invalid.", map[string][]string{
			"start_date": {"The start date must be before or equal to the end date."},
		})
	}
	return nil
}

func projectResponses(projects []models.Project) []dto.ProjectResponse {
	out := make([]dto.ProjectResponse, 0, len(projects))
	for i := range projects {
		out = append(out, dto.NewProjectResponse(&projects[i]))
	}
	return out
}
