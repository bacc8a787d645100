package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskflow/backend/internal/config"
	"taskflow/backend/internal/handlers"
	"taskflow/backend/internal/models"
	"taskflow/backend/internal/repositories"
	"taskflow/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type apiClient struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func setupAPI(t *testing.T) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Task{},
		&models.Token{},
	))

	log := zap.NewNop()
	authService := services.NewAuthService("test-secret", time.Hour, bcrypt.MinCost, log)
	projectService := services.NewProjectService(log, nil)
	taskService := services.NewTaskService(
		repositories.NewTaskRepository(),
		log,
		nil,
		services.NewTaskLogObserver(log),
	)

	cfg := &config.Config{
		Server: config.ServerConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}

	router := handlers.NewRouter(handlers.RouterDeps{
		Config:         cfg,
		DB:             db,
		AuthService:    authService,
		ProjectService: projectService,
		TaskService:    taskService,
	})

	return &apiClient{t: t, router: router}
}

func (c *apiClient) do(method, path string, payload interface{}) *httptest.ResponseRecorder {
	c.t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(c.t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, body)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

func (c *apiClient) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	c.t.Helper()
	var body map[string]interface{}
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &body), "body: %s", w.Body.String())
	return body
}

// register creates an account and stores its bearer token on the client.
func (c *apiClient) register(name, email string) {
	c.t.Helper()

	w := c.do("POST", "/api/v1/auth/register", gin.H{
		"name":     name,
		"email":    email,
		"password": "password123",
	})
	require.Equal(c.t, http.StatusCreated, w.Code, "body: %s", w.Body.String())

	body := c.decode(w)
	data := body["data"].(map[string]interface{})
	c.token = data["token"].(string)
	require.NotEmpty(c.t, c.token)
}

func TestHealthEndpoint(t *testing.T) {
	api := setupAPI(t)

	w := api.do("GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	body := api.decode(w)
	assert.Equal(t, "healthy", body["status"])
}

func TestAuthEndpoints(t *testing.T) {
	api := setupAPI(t)
	api.register("Alice", "alice@example.com")

	w := api.do("GET", "/api/v1/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := api.decode(w)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "alice@example.com", data["email"])

	// The legacy /user alias serves the same payload.
	w = api.do("GET", "/api/v1/user", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Refresh revokes the presented token and issues a new one.
	oldToken := api.token
	w = api.do("POST", "/api/v1/auth/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = api.decode(w)
	data = body["data"].(map[string]interface{})
	newToken := data["token"].(string)
	require.NotEqual(t, oldToken, newToken)

	api.token = oldToken
	w = api.do("GET", "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	api.token = newToken
	w = api.do("GET", "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Logout invalidates the session.
	w = api.do("POST", "/api/v1/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = api.do("GET", "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegister_ValidationErrors(t *testing.T) {
	api := setupAPI(t)

	w := api.do("POST", "/api/v1/auth/register", gin.H{
		"name":     "Bob",
		"email":    "not-an-email",
		"password": "short",
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	body := api.decode(w)
	assert.Equal(t, "The given data was invalid", body["message"])
	fields := body["errors"].(map[string]interface{})
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestLogin_WrongPassword(t *testing.T) {
	api := setupAPI(t)
	api.register("Carol", "carol@example.com")
	api.token = ""

	w := api.do("POST", "/api/v1/auth/login", gin.H{
		"email":    "carol@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	body := api.decode(w)
	fields := body["errors"].(map[string]interface{})
	assert.Contains(t, fields, "email")
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	api := setupAPI(t)

	for _, path := range []string{"/api/v1/projects", "/api/v1/tasks", "/api/v1/auth/me"} {
		w := api.do("GET", path, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "path %s", path)
	}
}

func TestProjectLifecycle(t *testing.T) {
	api := setupAPI(t)
	api.register("Dave", "dave@example.com")

	w := api.do("POST", "/api/v1/projects", gin.H{
		"name":        "Website Redesign",
		"description": "Refresh the marketing site",
		"status":      "in_progress",
		"priority":    "high",
		"budget":      5000.0,
	})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	body := api.decode(w)
	created := body["data"].(map[string]interface{})
	projectID := created["id"].(string)
	assert.Equal(t, 50.0, created["progress_percentage"])

	w = api.do("GET", "/api/v1/projects/"+projectID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do("PUT", "/api/v1/projects/"+projectID, gin.H{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code)
	body = api.decode(w)
	updated := body["data"].(map[string]interface{})
	assert.Equal(t, 100.0, updated["progress_percentage"])

	// Soft delete hides the project from Get but keeps it listed as trashed.
	w = api.do("DELETE", "/api/v1/projects/"+projectID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do("GET", "/api/v1/projects/"+projectID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do("GET", "/api/v1/projects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = api.decode(w)
	rows := body["data"].(map[string]interface{})["data"].([]interface{})
	require.Len(t, rows, 1)
	assert.NotNil(t, rows[0].(map[string]interface{})["deleted_at"])

	w = api.do("POST", "/api/v1/projects/"+projectID+"/restore", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do("GET", "/api/v1/projects/"+projectID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do("POST", "/api/v1/projects/"+projectID+"/duplicate", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	body = api.decode(w)
	dup := body["data"].(map[string]interface{})
	assert.Equal(t, "Website Redesign (Copy)", dup["name"])
	assert.Equal(t, "planning", dup["status"])

	w = api.do("DELETE", "/api/v1/projects/"+projectID+"/force-delete", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do("POST", "/api/v1/projects/"+projectID+"/restore", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProjectStatisticsAndSearch(t *testing.T) {
	api := setupAPI(t)
	api.register("Erin", "erin@example.com")

	for i, status := range []string{"planning", "in_progress", "completed"} {
		w := api.do("POST", "/api/v1/projects", gin.H{
			"name":   fmt.Sprintf("Project %d", i+1),
			"status": status,
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := api.do("GET", "/api/v1/projects/statistics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := api.decode(w)
	stats := body["data"].(map[string]interface{})
	assert.Equal(t, 3.0, stats["total_projects"])

	w = api.do("GET", "/api/v1/projects/search?q=Project", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = api.decode(w)
	assert.Equal(t, 3.0, body["count"])

	w = api.do("GET", "/api/v1/projects/status/completed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = api.decode(w)
	assert.Equal(t, 1.0, body["count"])

	// Blank query is rejected.
	w = api.do("GET", "/api/v1/projects/search?q=", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestTaskEndpoints(t *testing.T) {
	api := setupAPI(t)
	api.register("Frank", "frank@example.com")

	var taskIDs []string
	for i := 0; i < 3; i++ {
		w := api.do("POST", "/api/v1/tasks", gin.H{
			"title":  fmt.Sprintf("Task %d", i+1),
			"status": "todo",
		})
		require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
		body := api.decode(w)
		taskIDs = append(taskIDs, body["data"].(map[string]interface{})["id"].(string))
	}

	w := api.do("GET", "/api/v1/tasks?per_page=2&page=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := api.decode(w)
	rows := body["data"].(map[string]interface{})["data"].([]interface{})
	assert.Len(t, rows, 2)
	meta := body["meta"].(map[string]interface{})
	assert.Equal(t, 3.0, meta["total"])
	assert.Equal(t, 2.0, meta["last_page"])

	w = api.do("POST", "/api/v1/tasks/bulk-update-status", gin.H{
		"ids":    taskIDs[:2],
		"status": "done",
	})
	require.Equal(t, http.StatusOK, w.Code)
	body = api.decode(w)
	assert.Equal(t, 2.0, body["data"].(map[string]interface{})["updated_count"])

	w = api.do("GET", "/api/v1/tasks/statistics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = api.decode(w)
	stats := body["data"].(map[string]interface{})
	assert.Equal(t, 3.0, stats["total_tasks"])
	assert.Equal(t, 2.0, stats["done_tasks"])

	w = api.do("GET", "/api/v1/tasks/status/done", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = api.decode(w)
	assert.Equal(t, 2.0, body["count"])

	w = api.do("DELETE", "/api/v1/tasks/"+taskIDs[2], nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = api.do("GET", "/api/v1/tasks/"+taskIDs[2], nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResponseBodies_MessageFirst(t *testing.T) {
	api := setupAPI(t)
	api.register("Judy", "judy@example.com")

	w := api.do("POST", "/api/v1/tasks", gin.H{"title": "Ordered"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), `{"message"`), "body: %s", w.Body.String())

	w = api.do("GET", "/api/v1/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), `{"message"`), "body: %s", w.Body.String())

	w = api.do("GET", "/api/v1/tasks/not-a-uuid", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), `{"message"`), "body: %s", w.Body.String())
}

func TestTask_NotFoundAndBadID(t *testing.T) {
	api := setupAPI(t)
	api.register("Grace", "grace@example.com")

	w := api.do("GET", "/api/v1/tasks/b3f1f1f0-0000-4000-8000-000000000000", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do("GET", "/api/v1/tasks/not-a-uuid", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUsersCannotSeeEachOthersData(t *testing.T) {
	api := setupAPI(t)
	api.register("Heidi", "heidi@example.com")

	w := api.do("POST", "/api/v1/tasks", gin.H{"title": "Private task"})
	require.Equal(t, http.StatusCreated, w.Code)
	body := api.decode(w)
	taskID := body["data"].(map[string]interface{})["id"].(string)

	other := &apiClient{t: t, router: api.router}
	other.register("Ivan", "ivan@example.com")

	w = other.do("GET", "/api/v1/tasks/"+taskID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = other.do("GET", "/api/v1/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = other.decode(w)
	rows := body["data"].(map[string]interface{})["data"].([]interface{})
	assert.Empty(t, rows)
}
