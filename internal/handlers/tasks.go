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

type TaskHandler struct {
	db          *gorm.DB
	taskService services.TaskService
}

func NewTaskHandler(db *gorm.DB, taskService services.TaskService) *TaskHandler {
	return &TaskHandler{db: db, taskService: taskService}
}

func (h *TaskHandler) List(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var query dto.TaskListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindingError(c, err)
		return
	}

	result, err := h.taskService.List(h.db, user, query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope("Tasks retrieved successfully").
		Set("data", gin.H{"data": result.Data}).
		Set("meta", result.Meta))
}

func (h *TaskHandler) Create(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var input dto.CreateTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}

	result, err := h.taskService.Create(h.db, user, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, envelope("Task created successfully").
		Set("data", result))
}

func (h *TaskHandler) Get(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	result, err := h.taskService.Get(h.db, user, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope("Task retrieved successfully").
		Set("data", result))
}

func (h *TaskHandler) Update(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var input dto.UpdateTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}

	result, err := h.taskService.Update(h.db, user, id, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope("Task updated successfully").
		Set("data", result))
}

func (h *TaskHandler) Delete(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.taskService.Delete(h.db, user, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope("Task deleted successfully"))
}

func (h *TaskHandler) Statistics(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	result, err := h.taskService.Statistics(h.db, user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope("Statistics retrieved successfully").
		Set("data", result))
}

func (h *TaskHandler) Search(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	term := strings.TrimSpace(c.Query("q"))

	result, err := h.taskService.Search(h.db, user, term)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope("Search completed successfully").
		Set("data", result).
		Set("count", len(result)))
}

func (h *TaskHandler) ByStatus(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	result, err := h.taskService.ByStatus(h.db, user, c.Param("status"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope("Tasks retrieved successfully").
		Set("data", result).
		Set("count", len(result)))
}

func (h *TaskHandler) Overdue(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	result, err := h.taskService.Overdue(h.db, user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope("Overdue tasks retrieved successfully").
		Set("data", result.Data).
		Set("count", result.Count))
}

func (h *TaskHandler) BulkUpdateStatus(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var input dto.BulkUpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}

	result, err := h.taskService.BulkUpdateStatus(h.db, user, parseBulkIDs(input.IDs), input.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope(result.Message).
		Set("data", gin.H{"updated_count": result.UpdatedCount}))
}
