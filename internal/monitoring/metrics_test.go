package monitoring_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"taskflow/backend/internal/monitoring"

	"github.com/gin-gonic/gin"
)

func TestMetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(monitoring.MetricsMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", monitoring.MetricsHandler())

	req, _ := http.NewRequest("GET", "/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	req, _ = http.NewRequest("GET", "/metrics", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Error("Expected metrics output to include http_requests_total")
	}
}

func TestHealthChecker_Healthy(t *testing.T) {
	gin.SetMode(gin.TestMode)

	health := monitoring.NewHealthChecker()
	health.Register("database", func(ctx context.Context) error { return nil })

	router := gin.New()
	router.GET("/health", health.Handler())

	req, _ := http.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("Expected status healthy, got %v", body["status"])
	}
}

func TestHealthChecker_Degraded(t *testing.T) {
	gin.SetMode(gin.TestMode)

	health := monitoring.NewHealthChecker()
	health.Register("database", func(ctx context.Context) error { return nil })
	health.Register("redis", func(ctx context.Context) error {
		return errors.New("connection refused")
	})

	router := gin.New()
	router.GET("/health", health.Handler())

	req, _ := http.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["status"] != "degraded" {
		t.Errorf("Expected status degraded, got %v", body["status"])
	}

	checks := body["checks"].(map[string]interface{})
	redis := checks["redis"].(map[string]interface{})
	if redis["status"] != "down" {
		t.Errorf("Expected redis check down, got %v", redis["status"])
	}
}
