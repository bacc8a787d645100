package handlers

import (
	"net/http"

	"taskflow/backend/internal/dto"
	"taskflow/backend/internal/middleware"
	"taskflow/backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthHandler struct {
	db          *gorm.DB
	authService services.AuthService
}

func NewAuthHandler(db *gorm.DB, authService services.AuthService) *AuthHandler {
	return &AuthHandler{db: db, authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input dto.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}

	result, err := h.authService.Register(h.db, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, envelope("User registered successfully").
		Set("data", result))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input dto.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}

	result, err := h.authService.Login(h.db, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope("Login successful").
		Set("data", result))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	tokenID, _ := middleware.CurrentTokenID(c)

	if err := h.authService.Logout(h.db, user, tokenID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope("Logged out successfully"))
}

func (h *AuthHandler) LogoutAll(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	if err := h.authService.LogoutAll(h.db, user); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope("Logged out from all devices"))
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	tokenID, _ := middleware.CurrentTokenID(c)

	result, err := h.authService.Refresh(h.db, user, tokenID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope("Token refreshed successfully").
		Set("data", result))
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	result, err := h.authService.GetUserInfo(user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope("User retrieved successfully").
		Set("data", result))
}
