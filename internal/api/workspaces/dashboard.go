// dashboard.go implements the workspace dashboard aggregation endpoint.
package workspaces

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/taskflow/taskflow/internal/authz"
	"github.com/taskflow/taskflow/internal/config"
	"github.com/taskflow/taskflow/internal/db/repositories"
	"github.com/taskflow/taskflow/internal/middleware"
)

// DashboardHandlers handles the dashboard stats endpoint
type DashboardHandlers struct {
	cfg      *config.Config
	taskRepo *repositories.TaskRepository
	wsRepo   *repositories.WorkspaceRepository
	resolver *authz.Resolver
}

// NewDashboardHandlers creates a new DashboardHandlers instance
func NewDashboardHandlers(cfg *config.Config, dbx *sqlx.DB, wsRepo *repositories.WorkspaceRepository, resolver *authz.Resolver) *DashboardHandlers {
	return &DashboardHandlers{
		cfg:      cfg,
		taskRepo: repositories.NewTaskRepository(dbx),
		wsRepo:   wsRepo,
		resolver: resolver,
	}
}

// @Summary      Dashboard stats
// @Description  Aggregate task counts and active member count for a workspace the caller belongs to.
// @Tags         Dashboard
// @Security     Bearer
// @Produce      json
// @Param        workspaceId  query  string  true  "Workspace ID"
// @Success      200  {object}  map[string]interface{}  "stats: models.DashboardStats"
// @Failure      400  {object}  map[string]interface{}  "Missing workspaceId"
// @Failure      403  {object}  map[string]interface{}  "Not a workspace member"
// @Failure      404  {object}  map[string]interface{}  "Workspace not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/dashboard/stats [get]
// StatsHandler aggregates task and membership counts for a workspace
// GET /api/v1/dashboard/stats?workspaceId=...
func (h *DashboardHandlers) StatsHandler() gin.HandlerFunc {
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

		stats, err := h.taskRepo.GetWorkspaceStats(c.Request.Context(), workspaceID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to load dashboard stats",
			})
			return
		}

		members, err := h.wsRepo.CountActiveMembers(c.Request.Context(), workspaceID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to load dashboard stats",
			})
			return
		}
		stats.ActiveMembers = members

		c.JSON(http.StatusOK, gin.H{"stats": stats})
	}
}
