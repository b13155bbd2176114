// projects.go implements handlers for project listing and creation.
package projects

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskflow/taskflow/internal/activity"
	"github.com/taskflow/taskflow/internal/authz"
	"github.com/taskflow/taskflow/internal/config"
	"github.com/taskflow/taskflow/internal/db/models"
	"github.com/taskflow/taskflow/internal/db/repositories"
	"github.com/taskflow/taskflow/internal/middleware"
)

// ProjectHandlers handles project endpoints
type ProjectHandlers struct {
	cfg         *config.Config
	db          *sql.DB
	projectRepo *repositories.ProjectRepository
	resolver    *authz.Resolver
	notifier    *activity.Notifier
}

// NewProjectHandlers creates a new ProjectHandlers instance
func NewProjectHandlers(cfg *config.Config, db *sql.DB, resolver *authz.Resolver, notifier *activity.Notifier) *ProjectHandlers {
	return &ProjectHandlers{
		cfg:         cfg,
		db:          db,
		projectRepo: repositories.NewProjectRepository(db),
		resolver:    resolver,
		notifier:    notifier,
	}
}

// CreateProjectRequest represents the request to create a project
type CreateProjectRequest struct {
	WorkspaceID string `json:"workspace_id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

// @Summary      List projects
// @Description  List non-archived projects of a workspace with the owner's name, newest first. Caller must be a member.
// @Tags         Projects
// @Security     Bearer
// @Produce      json
// @Param        workspaceId  query  string  true  "Workspace ID"
// @Success      200  {object}  map[string]interface{}  "projects: []models.ProjectWithOwner"
// @Failure      400  {object}  map[string]interface{}  "Missing workspaceId"
// @Failure      403  {object}  map[string]interface{}  "Not a workspace member"
// @Failure      404  {object}  map[string]interface{}  "Workspace not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/projects [get]
// ListProjectsHandler lists a workspace's non-archived projects
// GET /api/v1/projects?workspaceId=...
func (h *ProjectHandlers) ListProjectsHandler() gin.HandlerFunc {
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

		projects, err := h.projectRepo.ListProjectsByWorkspace(c.Request.Context(), workspaceID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list projects",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"projects": projects})
	}
}

// @Summary      Create project
// @Description  Create a project together with its kickoff milestone and an activity entry in one transaction. Caller must be a workspace member.
// @Tags         Projects
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        request  body  CreateProjectRequest  true  "Project details"
// @Success      201  {object}  map[string]interface{}  "project: models.Project"
// @Failure      400  {object}  map[string]interface{}  "Validation error"
// @Failure      403  {object}  map[string]interface{}  "Not a workspace member"
// @Failure      404  {object}  map[string]interface{}  "Workspace not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/projects [post]
// CreateProjectHandler creates a project with its kickoff milestone
// POST /api/v1/projects
func (h *ProjectHandlers) CreateProjectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var req CreateProjectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		if _, err := h.resolver.RequireMember(c.Request.Context(), req.WorkspaceID, user.ID, user.Role); err != nil {
			authz.WriteError(c, err)
			return
		}

		project := &models.Project{
			WorkspaceID: req.WorkspaceID,
			Name:        req.Name,
			Color:       req.Color,
			Icon:        req.Icon,
			OwnerID:     user.ID,
			Status:      models.ProjectStatusActive,
		}
		if req.Description != "" {
			project.Description = &req.Description
		}
		if err := h.projectRepo.CreateProject(c.Request.Context(), project); err != nil {
			slog.Error("failed to create project", "workspace_id", req.WorkspaceID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create project",
			})
			return
		}

		h.notifier.Notify(&models.ActivityLog{
			WorkspaceID: &project.WorkspaceID,
			UserID:      user.ID,
			Action:      models.ActionProjectCreated,
			EntityType:  "project",
			EntityID:    &project.ID,
		})

		c.JSON(http.StatusCreated, gin.H{"project": project})
	}
}
