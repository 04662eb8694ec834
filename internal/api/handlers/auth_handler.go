package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Amedjranamen/IM/internal/api/middleware"
	"github.com/Amedjranamen/IM/internal/auth"
	"github.com/Amedjranamen/IM/internal/config"
	"github.com/Amedjranamen/IM/internal/models"
	"github.com/Amedjranamen/IM/internal/services"
)

// AuthHandler handles registration, login and the current-user endpoint.
type AuthHandler struct {
	cfg         *config.Config
	userService services.IUserService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(cfg *config.Config, userService services.IUserService) *AuthHandler {
	return &AuthHandler{cfg: cfg, userService: userService}
}

// currentUser pulls the authenticated user set by the auth middleware.
func currentUser(c *gin.Context) *models.User {
	return c.MustGet(middleware.ContextKeyUser).(*models.User)
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.UserCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrEmailExists) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
		return
	}

	token, err := auth.GenerateToken(user.ID, h.cfg.JwtSecret, h.cfg.TokenTTL)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user.Response()})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.UserLogin
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	user, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
		return
	}

	token, err := auth.GenerateToken(user.ID, h.cfg.JwtSecret, h.cfg.TokenTTL)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user.Response()})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c).Response())
}
