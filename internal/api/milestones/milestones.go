// milestones.go implements handlers for milestone listing and writes.
// Writes require the workspace admin or manager role; updates and deletes
// resolve the workspace from the stored milestone row.
package milestones

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskflow/taskflow/internal/activity"
	"github.com/taskflow/taskflow/internal/authz"
	"github.com/taskflow/taskflow/internal/config"
	"github.com/taskflow/taskflow/internal/db/models"
	"github.com/taskflow/taskflow/internal/db/repositories"
	"github.com/taskflow/taskflow/internal/middleware"
)

// MilestoneHandlers handles milestone endpoints
type MilestoneHandlers struct {
	cfg           *config.Config
	db            *sql.DB
	milestoneRepo *repositories.MilestoneRepository
	resolver      *authz.Resolver
	notifier      *activity.Notifier
}

// NewMilestoneHandlers creates a new MilestoneHandlers instance
func NewMilestoneHandlers(cfg *config.Config, db *sql.DB, resolver *authz.Resolver, notifier *activity.Notifier) *MilestoneHandlers {
	return &MilestoneHandlers{
		cfg:           cfg,
		db:            db,
		milestoneRepo: repositories.NewMilestoneRepository(db),
		resolver:      resolver,
		notifier:      notifier,
	}
}

// CreateMilestoneRequest represents the request to create a milestone
type CreateMilestoneRequest struct {
	WorkspaceID        string `json:"workspace_id" binding:"required"`
	ProjectID          string `json:"project_id" binding:"required"`
	Title              string `json:"title" binding:"required"`
	Description        string `json:"description"`
	DueDate            string `json:"due_date" binding:"required"`
	Status             string `json:"status"`
	ProgressPercentage *int   `json:"progress_percentage"`
}

// UpdateMilestoneRequest carries the milestone ID plus the patchable fields.
// Absent fields are left untouched.
type UpdateMilestoneRequest struct {
	ID                 string  `json:"id" binding:"required"`
	Title              *string `json:"title"`
	Description        *string `json:"description"`
	DueDate            *string `json:"due_date"`
	Status             *string `json:"status"`
	ProgressPercentage *int    `json:"progress_percentage"`
}

// DeleteMilestoneRequest represents the request to delete a milestone
type DeleteMilestoneRequest struct {
	ID string `json:"id" binding:"required"`
}

// Due dates travel as calendar dates, not timestamps
const dueDateLayout = "2006-01-02"

func parseDueDate(value string) (time.Time, error) {
	if t, err := time.Parse(dueDateLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

func validStatus(status string) bool {
	switch status {
	case models.MilestoneStatusPending, models.MilestoneStatusInProgress, models.MilestoneStatusCompleted:
		return true
	}
	return false
}

// @Summary      List milestones
// @Description  List a workspace's milestones with project and creator names, ordered by due date descending. Optionally filtered by project. Caller must be a member.
// @Tags         Milestones
// @Security     Bearer
// @Produce      json
// @Param        workspaceId  query  string  true   "Workspace ID"
// @Param        projectId    query  string  false  "Project ID filter"
// @Success      200  {object}  map[string]interface{}  "milestones: []models.MilestoneWithDetails"
// @Failure      400  {object}  map[string]interface{}  "Missing workspaceId"
// @Failure      403  {object}  map[string]interface{}  "Not a workspace member"
// @Failure      404  {object}  map[string]interface{}  "Workspace not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/milestones [get]
// ListMilestonesHandler lists milestones for a workspace
// GET /api/v1/milestones?workspaceId=...&projectId=...
func (h *MilestoneHandlers) ListMilestonesHandler() gin.HandlerFunc {
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

		milestones, err := h.milestoneRepo.ListMilestonesByWorkspace(c.Request.Context(), workspaceID, c.Query("projectId"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list milestones",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"milestones": milestones})
	}
}

// @Summary      Create milestone
// @Description  Create a milestone and an activity entry in one transaction. Requires workspace admin/manager or app admin.
// @Tags         Milestones
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        request  body  CreateMilestoneRequest  true  "Milestone details"
// @Success      201  {object}  map[string]interface{}  "milestone: models.Milestone"
// @Failure      400  {object}  map[string]interface{}  "Validation error"
// @Failure      403  {object}  map[string]interface{}  "Insufficient permissions"
// @Failure      404  {object}  map[string]interface{}  "Workspace not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/milestones [post]
// CreateMilestoneHandler creates a milestone
// POST /api/v1/milestones
func (h *MilestoneHandlers) CreateMilestoneHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var req CreateMilestoneRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		dueDate, err := parseDueDate(req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid due_date, expected YYYY-MM-DD",
			})
			return
		}

		if req.Status != "" && !validStatus(req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid status",
			})
			return
		}
		if req.ProgressPercentage != nil && (*req.ProgressPercentage < 0 || *req.ProgressPercentage > 100) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "progress_percentage must be between 0 and 100",
			})
			return
		}

		if err := h.resolver.RequireManager(c.Request.Context(), req.WorkspaceID, user.ID, user.Role); err != nil {
			authz.WriteError(c, err)
			return
		}

		m := &models.Milestone{
			ProjectID:   req.ProjectID,
			WorkspaceID: req.WorkspaceID,
			Title:       req.Title,
			DueDate:     &dueDate,
			Status:      req.Status,
			CreatedBy:   user.ID,
		}
		if m.Status == "" {
			m.Status = models.MilestoneStatusPending
		}
		if req.Description != "" {
			m.Description = &req.Description
		}
		if req.ProgressPercentage != nil {
			m.ProgressPercentage = *req.ProgressPercentage
		}
		if err := h.milestoneRepo.CreateMilestone(c.Request.Context(), m); err != nil {
			slog.Error("failed to create milestone", "workspace_id", req.WorkspaceID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create milestone",
			})
			return
		}

		h.notifier.Notify(&models.ActivityLog{
			WorkspaceID: &m.WorkspaceID,
			UserID:      user.ID,
			Action:      models.ActionMilestoneCreated,
			EntityType:  "milestone",
			EntityID:    &m.ID,
		})

		c.JSON(http.StatusCreated, gin.H{"milestone": m})
	}
}

// @Summary      Update milestone
// @Description  Partially update a milestone. Only the provided fields change; an empty patch is rejected. Requires workspace admin/manager or app admin.
// @Tags         Milestones
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        request  body  UpdateMilestoneRequest  true  "Milestone ID and fields to update"
// @Success      200  {object}  map[string]interface{}  "milestone: models.Milestone"
// @Failure      400  {object}  map[string]interface{}  "Empty or invalid patch"
// @Failure      403  {object}  map[string]interface{}  "Insufficient permissions"
// @Failure      404  {object}  map[string]interface{}  "Milestone not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/milestones [patch]
// UpdateMilestoneHandler applies a partial update to a milestone
// PATCH /api/v1/milestones
func (h *MilestoneHandlers) UpdateMilestoneHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var req UpdateMilestoneRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		if req.Status != nil && !validStatus(*req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid status",
			})
			return
		}
		if req.ProgressPercentage != nil && (*req.ProgressPercentage < 0 || *req.ProgressPercentage > 100) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "progress_percentage must be between 0 and 100",
			})
			return
		}

		patch := &models.MilestonePatch{
			Title:              req.Title,
			Description:        req.Description,
			Status:             req.Status,
			ProgressPercentage: req.ProgressPercentage,
		}
		if req.DueDate != nil {
			dueDate, err := parseDueDate(*req.DueDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"error": "Invalid due_date, expected YYYY-MM-DD",
				})
				return
			}
			patch.DueDate = &dueDate
		}
		if patch.IsEmpty() {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "No fields to update",
			})
			return
		}

		existing, err := h.milestoneRepo.GetMilestoneByID(c.Request.Context(), req.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update milestone",
			})
			return
		}
		if existing == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Milestone not found",
			})
			return
		}

		if err := h.resolver.RequireManager(c.Request.Context(), existing.WorkspaceID, user.ID, user.Role); err != nil {
			authz.WriteError(c, err)
			return
		}

		updated, err := h.milestoneRepo.UpdateMilestone(c.Request.Context(), existing.ID, user.ID, patch)
		if err != nil {
			slog.Error("failed to update milestone", "milestone_id", existing.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update milestone",
			})
			return
		}
		if updated == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Milestone not found",
			})
			return
		}

		h.notifier.Notify(&models.ActivityLog{
			WorkspaceID: &updated.WorkspaceID,
			UserID:      user.ID,
			Action:      models.ActionMilestoneUpdated,
			EntityType:  "milestone",
			EntityID:    &updated.ID,
		})

		c.JSON(http.StatusOK, gin.H{"milestone": updated})
	}
}

// @Summary      Delete milestone
// @Description  Delete a milestone and record an activity entry. Requires workspace admin/manager or app admin.
// @Tags         Milestones
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        request  body  DeleteMilestoneRequest  true  "Milestone ID"
// @Success      200  {object}  map[string]interface{}  "message: string"
// @Failure      403  {object}  map[string]interface{}  "Insufficient permissions"
// @Failure      404  {object}  map[string]interface{}  "Milestone not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/milestones [delete]
// DeleteMilestoneHandler deletes a milestone
// DELETE /api/v1/milestones
func (h *MilestoneHandlers) DeleteMilestoneHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var req DeleteMilestoneRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		existing, err := h.milestoneRepo.GetMilestoneByID(c.Request.Context(), req.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to delete milestone",
			})
			return
		}
		if existing == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Milestone not found",
			})
			return
		}

		if err := h.resolver.RequireManager(c.Request.Context(), existing.WorkspaceID, user.ID, user.Role); err != nil {
			authz.WriteError(c, err)
			return
		}

		if err := h.milestoneRepo.DeleteMilestone(c.Request.Context(), existing, user.ID); err != nil {
			slog.Error("failed to delete milestone", "milestone_id", existing.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to delete milestone",
			})
			return
		}

		h.notifier.Notify(&models.ActivityLog{
			WorkspaceID: &existing.WorkspaceID,
			UserID:      user.ID,
			Action:      models.ActionMilestoneDeleted,
			EntityType:  "milestone",
			EntityID:    &existing.ID,
		})

		c.JSON(http.StatusOK, gin.H{"message": "Milestone deleted"})
	}
}
