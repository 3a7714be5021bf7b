package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rafiq/internal/config"
	"rafiq/internal/middleware"
	"rafiq/internal/models"
	"rafiq/internal/services"
)

// AuthHandler issues JWTs for the portal.
type AuthHandler struct {
	users  *services.UserService
	config *config.Config
	logger *logrus.Logger
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(users *services.UserService, cfg *config.Config, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		config: cfg,
		logger: logger,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      interface{} `json:"user"`
}

// Register creates an account and returns a token.
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	user, err := h.users.Register(c.Request.Context(), &req)
	if err != nil {
		if err == services.ErrEmailTaken {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "Email already registered",
				Message: err.Error(),
			})
			return
		}
		h.logger.Errorf("Failed to register user: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to register",
			Message: err.Error(),
		})
		return
	}

	h.issueToken(c, http.StatusCreated, user)
}

// Login authenticates and returns a token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if err == services.ErrInvalidCredentials {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "Unauthorized",
				Message: err.Error(),
			})
			return
		}
		h.logger.Errorf("Failed to authenticate: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to authenticate",
			Message: err.Error(),
		})
		return
	}

	h.issueToken(c, http.StatusOK, user)
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Message: err.Error()})
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) issueToken(c *gin.Context, status int, user *models.User) {
	expiresIn := h.config.JWT.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 24 * time.Hour
	}
	expiresAt := time.Now().Add(expiresIn)

	token, err := middleware.SignHS256JWT(h.config.JWT.Secret, map[string]interface{}{
		"user_id":  user.ID,
		"role":     user.Role,
		"language": user.Language,
		"iat":      time.Now().Unix(),
		"exp":      expiresAt.Unix(),
	})
	if err != nil {
		h.logger.Errorf("Failed to sign token: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to issue token",
			Message: err.Error(),
		})
		return
	}

	c.JSON(status, tokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	})
}
