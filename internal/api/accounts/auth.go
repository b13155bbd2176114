// auth.go implements registration and login handlers issuing bearer tokens.
package accounts

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskflow/taskflow/internal/auth"
	"github.com/taskflow/taskflow/internal/config"
	"github.com/taskflow/taskflow/internal/db/models"
	"github.com/taskflow/taskflow/internal/db/repositories"
	"github.com/taskflow/taskflow/internal/telemetry"
)

// AuthHandlers handles registration and login endpoints
type AuthHandlers struct {
	cfg      *config.Config
	db       *sql.DB
	userRepo *repositories.UserRepository
}

// NewAuthHandlers creates a new AuthHandlers instance
func NewAuthHandlers(cfg *config.Config, db *sql.DB) *AuthHandlers {
	return &AuthHandlers{
		cfg:      cfg,
		db:       db,
		userRepo: repositories.NewUserRepository(db),
	}
}

// RegisterRequest represents the request to register a new account
type RegisterRequest struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}

// LoginRequest represents the request to authenticate an existing account
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// @Summary      Register
// @Description  Create a new account with the admin application role and return a bearer token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body  RegisterRequest  true  "Registration details"
// @Success      201  {object}  map[string]interface{}  "token: string, user: models.User"
// @Failure      400  {object}  map[string]interface{}  "Validation error"
// @Failure      409  {object}  map[string]interface{}  "Email already registered"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/auth/register [post]
// RegisterHandler creates a new account and returns a signed token
// POST /api/v1/auth/register
func (h *AuthHandlers) RegisterHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		if err := auth.ValidateEmail(req.Email); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}

		if err := auth.ValidatePasswordStrength(req.Password); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}

		existing, err := h.userRepo.GetUserByEmail(c.Request.Context(), req.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to check existing user",
			})
			return
		}
		if existing != nil {
			c.JSON(http.StatusConflict, gin.H{
				"error": "User with this email already exists",
			})
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create user",
			})
			return
		}

		user := &models.User{
			Email:        req.Email,
			PasswordHash: hash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Role:         models.AppRoleAdmin,
			IsActive:     true,
		}
		if err := h.userRepo.CreateUser(c.Request.Context(), user); err != nil {
			slog.Error("failed to create user", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create user",
			})
			return
		}

		token, err := auth.GenerateJWT(user.ID, user.Email, user.Role, h.cfg.Auth.TokenTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to generate token",
			})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"token": token,
			"user":  user,
		})
	}
}

// @Summary      Login
// @Description  Authenticate with email and password and return a bearer token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body  LoginRequest  true  "Credentials"
// @Success      200  {object}  map[string]interface{}  "token: string, user: models.User"
// @Failure      401  {object}  map[string]interface{}  "Invalid credentials"
// @Failure      403  {object}  map[string]interface{}  "Account is deactivated"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/auth/login [post]
// LoginHandler verifies credentials and returns a signed token
// POST /api/v1/auth/login
func (h *AuthHandlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		user, err := h.userRepo.GetUserByEmail(c.Request.Context(), req.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to authenticate",
			})
			return
		}

		// Same response for unknown email and wrong password
		if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
			telemetry.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid credentials",
			})
			return
		}

		if !user.IsActive {
			telemetry.LoginAttemptsTotal.WithLabelValues("deactivated").Inc()
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Account is deactivated",
			})
			return
		}

		if err := h.userRepo.UpdateLastLogin(c.Request.Context(), user.ID); err != nil {
			slog.Warn("failed to record last login", "user_id", user.ID, "error", err)
		}

		token, err := auth.GenerateJWT(user.ID, user.Email, user.Role, h.cfg.Auth.TokenTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to generate token",
			})
			return
		}

		telemetry.LoginAttemptsTotal.WithLabelValues("success").Inc()
		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user":  user,
		})
	}
}
