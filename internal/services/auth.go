package services

import (
	"errors"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"taskflow/backend/internal/apperrors"
	"taskflow/backend/internal/dto"
	"taskflow/backend/internal/models"
)

const (
	actionRegister     = "register"
	actionLogin        = "login"
	actionLogout       = "logout"
	actionLogoutAll    = "logout_all"
	actionRefreshToken = "refresh_token"
	actionGetUserInfo  = "get_user_info"
)

const tokenName = "auth-token"

type AuthService interface {
	Register(db *gorm.DB, input dto.RegisterInput) (*dto.AuthResult, error)
	Login(db *gorm.DB, input dto.LoginInput) (*dto.AuthResult, error)
	Logout(db *gorm.DB, user *models.User, tokenID uuid.UUID) error
	LogoutAll(db *gorm.DB, user *models.User) error
	Refresh(db *gorm.DB, user *models.User, tokenID uuid.UUID) (*dto.TokenResult, error)
	GetUserInfo(user *models.User) (*dto.UserResponse, error)
	Authenticate(db *gorm.DB, tokenString string) (*models.User, uuid.UUID, error)
}

type AuthServiceImpl struct {
	secret     []byte
	tokenTTL   time.Duration
	bcryptCost int
	logger     *zap.Logger
}

func NewAuthService(secret string, tokenTTL time.Duration, bcryptCost int, logger *zap.Logger) *AuthServiceImpl {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthServiceImpl{
		secret:     []byte(secret),
		tokenTTL:   tokenTTL,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *AuthServiceImpl) Register(db *gorm.DB, input dto.RegisterInput) (*dto.AuthResult, error) {
	var existing models.User
	err := db.Where("email = ?", input.Email).First(&existing).Error
	if err == nil {
		return nil, apperrors.ValidationFields("The given data was invalid.", map[string][]string{
			"email": {"The email has already been taken."},
		})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Internal("Registration failed", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, apperrors.Internal("Registration failed", err)
	}

	user := models.User{
		ID:       uuid.Must(uuid.NewV4()),
		Name:     input.Name,
		Email:    input.Email,
		Password: string(hashed),
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.Internal("Registration failed", tx.Error)
	}

	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		s.logger.Error("user registration failed", zap.Error(err), zap.String("email", input.Email))
		return nil, apperrors.Internal("Registration failed", err)
	}

	tokenString, err := s.issueToken(tx, user.ID)
	if err != nil {
		tx.Rollback()
		return nil, apperrors.Internal("Registration failed", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.Internal("Registration failed", err)
	}

	s.logAction(actionRegister, &user, true)

	return &dto.AuthResult{
		User:      dto.NewUserResponse(&user),
		Token:     tokenString,
		TokenType: "Bearer",
	}, nil
}

// Login verifies credentials and issues a token. A successful login revokes
// every prior token for the user, so only one session is active at a time.
// Failures carry a single generic message that never says which field was
// wrong.
func (s *AuthServiceImpl) Login(db *gorm.DB, input dto.LoginInput) (*dto.AuthResult, error) {
	var user models.User
	err := db.Where("email = ?", input.Email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("failed login attempt", zap.String("email", input.Email))
			return nil, invalidCredentials()
		}
		return nil, apperrors.Internal("Login failed", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil {
		s.logger.Warn("failed login attempt", zap.String("email", input.Email))
		return nil, invalidCredentials()
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.Internal("Login failed", tx.Error)
	}

	if err := tx.Where("user_id = ?", user.ID).Delete(&models.Token{}).Error; err != nil {
		tx.Rollback()
		return nil, apperrors.Internal("Login failed", err)
	}

	tokenString, err := s.issueToken(tx, user.ID)
	if err != nil {
		tx.Rollback()
		return nil, apperrors.Internal("Login failed", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.Internal("Login failed", err)
	}

	s.logAction(actionLogin, &user, true)

	return &dto.AuthResult{
		User:      dto.NewUserResponse(&user),
		Token:     tokenString,
		TokenType: "Bearer",
	}, nil
}

// Logout revokes only the token presented with this request.
func (s *AuthServiceImpl) Logout(db *gorm.DB, user *models.User, tokenID uuid.UUID) error {
	if err := db.Delete(&models.Token{}, "id = ?", tokenID).Error; err != nil {
		s.logger.Error("logout failed", zap.Error(err), zap.String("user_id", user.ID.String()))
		return apperrors.Internal("Logout failed", err)
	}

	s.logAction(actionLogout, user, true)
	return nil
}

// LogoutAll revokes every token the user owns.
func (s *AuthServiceImpl) LogoutAll(db *gorm.DB, user *models.User) error {
	if err := db.Where("user_id = ?", user.ID).Delete(&models.Token{}).Error; err != nil {
		s.logger.Error("logout from all devices failed", zap.Error(err), zap.String("user_id", user.ID.String()))
		return apperrors.Internal("Logout failed", err)
	}

	s.logAction(actionLogoutAll, user, true)
	return nil
}

// Refresh revokes the current token and issues a replacement.
func (s *AuthServiceImpl) Refresh(db *gorm.DB, user *models.User, tokenID uuid.UUID) (*dto.TokenResult, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.Internal("Token refresh failed", tx.Error)
	}

	if err := tx.Delete(&models.Token{}, "id = ?", tokenID).Error; err != nil {
		tx.Rollback()
		return nil, apperrors.Internal("Token refresh failed", err)
	}

	tokenString, err := s.issueToken(tx, user.ID)
	if err != nil {
		tx.Rollback()
		return nil, apperrors.Internal("Token refresh failed", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.Internal("Token refresh failed", err)
	}

	s.logAction(actionRefreshToken, user, true)

	return &dto.TokenResult{Token: tokenString, TokenType: "Bearer"}, nil
}

func (s *AuthServiceImpl) GetUserInfo(user *models.User) (*dto.UserResponse, error) {
	if user == nil {
		return nil, apperrors.Unauthenticated("User not authenticated")
	}

	s.logger.Debug("user info requested",
		zap.String("action", actionGetUserInfo),
		zap.String("user_id", user.ID.String()))

	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// Authenticate resolves a bearer token to its user. The JWT signature and
// expiry are verified first, then the jti claim is matched against a live
// token row; a missing row means the token was revoked.
func (s *AuthServiceImpl) Authenticate(db *gorm.DB, tokenString string) (*models.User, uuid.UUID, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, uuid.Nil, apperrors.Unauthenticated("Invalid or expired token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, uuid.Nil, apperrors.Unauthenticated("Invalid or expired token")
	}

	jti, _ := claims["jti"].(string)
	tokenID := uuid.FromStringOrNil(jti)
	if tokenID == uuid.Nil {
		return nil, uuid.Nil, apperrors.Unauthenticated("Invalid or expired token")
	}

	var token models.Token
	if err := db.Where("id = ? AND expires_at > ?", tokenID, time.Now()).First(&token).Error; err != nil {
		return nil, uuid.Nil, apperrors.Unauthenticated("Invalid or expired token")
	}

	var user models.User
	if err := db.First(&user, "id = ?", token.UserID).Error; err != nil {
		return nil, uuid.Nil, apperrors.Unauthenticated("Invalid or expired token")
	}

	return &user, tokenID, nil
}

func (s *AuthServiceImpl) issueToken(db *gorm.DB, userID uuid.UUID) (string, error) {
	token := models.Token{
		ID:        uuid.Must(uuid.NewV4()),
		UserID:    userID,
		Name:      tokenName,
		ExpiresAt: time.Now().Add(s.tokenTTL),
	}
	if err := db.Create(&token).Error; err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"sub": userID.String(),
		"jti": token.ID.String(),
		"exp": token.ExpiresAt.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Auth audit logging is best-effort and never affects the operation outcome.
func (s *AuthServiceImpl) logAction(action string, user *models.User, success bool) {
	s.logger.Info("auth action",
		zap.String("action", action),
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email),
		zap.Bool("success", success))
}

func invalidCredentials() error {
	return apperrors.ValidationFields("The provided credentials are incorrect.", map[string][]string{
		"email": {"The provided credentials are incorrect."},
	})
}
