package handlers

import (
	"net/http"
	"strings"

	"taskflow/backend/internal/dto"
	"taskflow/backend/internal/middleware"
	"taskflow/backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	db             *gorm.DB
	projectService services.ProjectService
}

func NewProjectHandler(db *gorm.DB, projectService services.ProjectService) *ProjectHandler {
	return &ProjectHandler{db: db, projectService: projectService}
}

func (h *ProjectHandler) List(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var query dto.ProjectListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindingError(c, err)
		return
	}

	result, err := h.projectService.List(h.db, user, query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope("Projects retrieved successfully").
		Set("data", gin.H{"data": result.Data}).
		Set("meta", result.Meta))
}

func (h *ProjectHandler) Create(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var input dto.CreateProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}

	result, err := h.projectService.Create(h.db, user, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, envelope("Project created successfully").
		Set("data", result))
}

func (h *ProjectHandler) Get(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	result, err := h.projectService.Get(h.db, user, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope("Project retrieved successfully").
		Set("data", result))
}

func (h *ProjectHandler) Update(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var input dto.UpdateProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}

	result, err := h.projectService.Update(h.db, user, id, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope("Project updated successfully").
		Set("data", result))
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.projectService.Delete(h.db, user, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope("Project deleted successfully"))
}

func (h *ProjectHandler) Restore(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	result, err := h.projectService.Restore(h.db, user, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope("Project restored successfully").
		Set("data", result))
}

func (h *ProjectHandler) ForceDelete(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.projectService.ForceDelete(h.db, user, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope("Project permanently deleted"))
}

func (h *ProjectHandler) Statistics(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	result, err := h.projectService.Statistics(h.db, user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope("Statistics retrieved successfully").
		Set("data", result))
}

func (h *ProjectHandler) Search(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	term := strings.TrimSpace(c.Query("q"))

	result, err := h.projectService.Search(h.db, user, term)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope("Search completed successfully").
		Set("data", result).
		Set("count", len(result)))
}

func (h *ProjectHandler) ByStatus(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	result, err := h.projectService.ByStatus(h.db, user, c.Param("status"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope("Projects retrieved successfully").
		Set("data", result).
		Set("count", len(result)))
}

func (h *ProjectHandler) Overdue(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	result, err := h.projectService.Overdue(h.db, user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope("Overdue projects retrieved successfully").
		Set("data", result.Data).
		Set("count", result.Count))
}

func (h *ProjectHandler) BulkUpdateStatus(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var input dto.BulkUpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}

	result, err := h.projectService.BulkUpdateStatus(h.db, user, parseBulkIDs(input.IDs), input.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope(result.Message).
		Set("data", gin.H{"updated_count": result.UpdatedCount}))
}

func (h *ProjectHandler) Duplicate(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	result, err := h.projectService.Duplicate(h.db, user, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, envelope("Project duplicated successfully").
		Set("data", result))
}
