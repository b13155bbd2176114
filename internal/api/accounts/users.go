// users.go implements profile and directory-search handlers for authenticated users.
package accounts

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskflow/taskflow/internal/activity"
	"github.com/taskflow/taskflow/internal/authz"
	"github.com/taskflow/taskflow/internal/config"
	"github.com/taskflow/taskflow/internal/db/models"
	"github.com/taskflow/taskflow/internal/db/repositories"
	"github.com/taskflow/taskflow/internal/middleware"
)

const searchResultLimit = 20

// UserHandlers handles profile and user search endpoints
type UserHandlers struct {
	cfg      *config.Config
	db       *sql.DB
	userRepo *repositories.UserRepository
	resolver *authz.Resolver
	notifier *activity.Notifier
}

// NewUserHandlers creates a new UserHandlers instance
func NewUserHandlers(cfg *config.Config, db *sql.DB, resolver *authz.Resolver, notifier *activity.Notifier) *UserHandlers {
	return &UserHandlers{
		cfg:      cfg,
		db:       db,
		userRepo: repositories.NewUserRepository(db),
		resolver: resolver,
		notifier: notifier,
	}
}

// UpdateProfileRequest carries the patchable profile fields. Absent fields
// are left untouched.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	AvatarURL *string `json:"avatar_url"`
	Phone     *string `json:"phone"`
	Bio       *string `json:"bio"`
}

// @Summary      Get profile
// @Description  Return the authenticated user's profile.
// @Tags         Users
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "user: models.User"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Router       /api/v1/users/profile [get]
// GetProfileHandler returns the caller's own profile
// GET /api/v1/users/profile
func (h *UserHandlers) GetProfileHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

// @Summary      Update profile
// @Description  Partially update the authenticated user's profile. Only the provided fields change.
// @Tags         Users
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        request  body  UpdateProfileRequest  true  "Fields to update"
// @Success      200  {object}  map[string]interface{}  "user: models.User"
// @Failure      400  {object}  map[string]interface{}  "Empty or invalid patch"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/users/profile [patch]
// UpdateProfileHandler applies a partial update to the caller's profile
// PATCH /api/v1/users/profile
func (h *UserHandlers) UpdateProfileHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var req UpdateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		patch := &repositories.ProfilePatch{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			AvatarURL: req.AvatarURL,
			Phone:     req.Phone,
			Bio:       req.Bio,
		}
		if patch.IsEmpty() {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "No fields to update",
			})
			return
		}

		updated, err := h.userRepo.UpdateProfile(c.Request.Context(), user.ID, patch)
		if err != nil {
			slog.Error("failed to update profile", "user_id", user.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update profile",
			})
			return
		}
		if updated == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}

		h.notifier.Notify(&models.ActivityLog{
			UserID:     user.ID,
			Action:     models.ActionProfileUpdated,
			EntityType: "user",
			EntityID:   &user.ID,
		})

		c.JSON(http.StatusOK, gin.H{"user": updated})
	}
}

// @Summary      Search users
// @Description  Search active users by email or name within a workspace the caller belongs to. Queries shorter than two characters return an empty list.
// @Tags         Users
// @Security     Bearer
// @Produce      json
// @Param        workspaceId  query  string  true   "Workspace ID"
// @Param        q            query  string  false  "Search term"
// @Success      200  {object}  map[string]interface{}  "users: []models.UserSummary"
// @Failure      400  {object}  map[string]interface{}  "Missing workspaceId"
// @Failure      403  {object}  map[string]interface{}  "Not a workspace member"
// @Failure      404  {object}  map[string]interface{}  "Workspace not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/users/search [get]
// SearchUsersHandler searches active users for member pickers
// GET /api/v1/users/search?workspaceId=...&q=...
func (h *UserHandlers) SearchUsersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		workspaceID := c.Query("workspaceId")
		if workspaceID == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "workspaceId is required",
			})
			return
		}

		if _, err := h.resolver.RequireMember(c.Request.Context(), workspaceID, user.ID, user.Role); err != nil {
			authz.WriteError(c, err)
			return
		}

		q := strings.TrimSpace(c.Query("q"))
		if len(q) < 2 {
			c.JSON(http.StatusOK, gin.H{"users": []*models.UserSummary{}})
			return
		}

		users, err := h.userRepo.SearchUsers(c.Request.Context(), q, searchResultLimit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to search users",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"users": users})
	}
}
