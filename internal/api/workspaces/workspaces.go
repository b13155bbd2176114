// workspaces.go implements handlers for workspace CRUD and membership management.
package workspaces

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskflow/taskflow/internal/authz"
	"github.com/taskflow/taskflow/internal/config"
	"github.com/taskflow/taskflow/internal/db/models"
	"github.com/taskflow/taskflow/internal/db/repositories"
	"github.com/taskflow/taskflow/internal/middleware"
)

// WorkspaceHandlers handles workspace and workspace-member endpoints
type WorkspaceHandlers struct {
	cfg      *config.Config
	db       *sql.DB
	wsRepo   *repositories.WorkspaceRepository
	resolver *authz.Resolver
}

// NewWorkspaceHandlers creates a new WorkspaceHandlers instance
func NewWorkspaceHandlers(cfg *config.Config, db *sql.DB, resolver *authz.Resolver) *WorkspaceHandlers {
	return &WorkspaceHandlers{
		cfg:      cfg,
		db:       db,
		wsRepo:   repositories.NewWorkspaceRepository(db),
		resolver: resolver,
	}
}

// CreateWorkspaceRequest represents the request to create a workspace
type CreateWorkspaceRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// AddMemberRequest represents the request to add or update a workspace member
type AddMemberRequest struct {
	WorkspaceID string `json:"workspace_id" binding:"required"`
	UserID      string `json:"user_id" binding:"required"`
	Role        string `json:"role"`
	Designation string `json:"designation"`
}

// @Summary      List workspaces
// @Description  List the active workspaces the caller belongs to, newest first.
// @Tags         Workspaces
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "workspaces: []models.Workspace"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/workspaces [get]
// ListWorkspacesHandler lists the caller's workspaces
// GET /api/v1/workspaces
func (h *WorkspaceHandlers) ListWorkspacesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		workspaces, err := h.wsRepo.ListWorkspacesForUser(c.Request.Context(), user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list workspaces",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"workspaces": workspaces})
	}
}

// @Summary      Create workspace
// @Description  Create a workspace. The creator is enrolled as workspace admin in the same transaction.
// @Tags         Workspaces
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        request  body  CreateWorkspaceRequest  true  "Workspace details"
// @Success      201  {object}  map[string]interface{}  "workspace: models.Workspace"
// @Failure      400  {object}  map[string]interface{}  "Validation error"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/workspaces [post]
// CreateWorkspaceHandler creates a workspace and enrolls the creator
// POST /api/v1/workspaces
func (h *WorkspaceHandlers) CreateWorkspaceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var req CreateWorkspaceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		ws := &models.Workspace{
			Name:     req.Name,
			OwnerID:  user.ID,
			IsActive: true,
		}
		if req.Description != "" {
			ws.Description = &req.Description
		}
		if err := h.wsRepo.CreateWorkspace(c.Request.Context(), ws); err != nil {
			slog.Error("failed to create workspace", "user_id", user.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create workspace",
			})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"workspace": ws})
	}
}

// @Summary      List workspace members
// @Description  List active members of a workspace with user details, newest first. Caller must be a member.
// @Tags         Workspaces
// @Security     Bearer
// @Produce      json
// @Param        workspaceId  query  string  true  "Workspace ID"
// @Success      200  {object}  map[string]interface{}  "members: []models.WorkspaceMemberWithUser"
// @Failure      400  {object}  map[string]interface{}  "Missing workspaceId"
// @Failure      403  {object}  map[string]interface{}  "Not a workspace member"
// @Failure      404  {object}  map[string]interface{}  "Workspace not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/workspace-members [get]
// ListMembersHandler lists active members of a workspace
// GET /api/v1/workspace-members?workspaceId=...
func (h *WorkspaceHandlers) ListMembersHandler() gin.HandlerFunc {
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

		members, err := h.wsRepo.ListMembersWithUsers(c.Request.Context(), workspaceID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list workspace members",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"members": members})
	}
}

// @Summary      Add workspace member
// @Description  Add a user to a workspace or update their role. Requires workspace admin/manager or app admin. Re-adding reactivates the membership.
// @Tags         Workspaces
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        request  body  AddMemberRequest  true  "Membership details"
// @Success      201  {object}  map[string]interface{}  "member: models.WorkspaceMember"
// @Failure      400  {object}  map[string]interface{}  "Validation error"
// @Failure      403  {object}  map[string]interface{}  "Insufficient permissions"
// @Failure      404  {object}  map[string]interface{}  "Workspace not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/workspace-members [post]
// AddMemberHandler upserts a workspace membership
// POST /api/v1/workspace-members
func (h *WorkspaceHandlers) AddMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var req AddMemberRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		role := req.Role
		if role == "" {
			role = models.WorkspaceRoleMember
		}
		switch role {
		case models.WorkspaceRoleAdmin, models.WorkspaceRoleManager, models.WorkspaceRoleMember, models.WorkspaceRoleViewer:
		default:
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid role",
			})
			return
		}

		if err := h.resolver.RequireManager(c.Request.Context(), req.WorkspaceID, user.ID, user.Role); err != nil {
			authz.WriteError(c, err)
			return
		}

		member := &models.WorkspaceMember{
			WorkspaceID: req.WorkspaceID,
			UserID:      req.UserID,
			Role:        role,
			InvitedBy:   &user.ID,
			IsActive:    true,
		}
		if req.Designation != "" {
			member.Designation = &req.Designation
		}
		if err := h.wsRepo.UpsertMember(c.Request.Context(), member); err != nil {
			slog.Error("failed to add workspace member", "workspace_id", req.WorkspaceID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to add workspace member",
			})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"member": member})
	}
}
