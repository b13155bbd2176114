// employees.go implements admin-only handlers for employee provisioning.
// Created accounts receive a generated temporary password that is returned
// exactly once in the create response.
package admin

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskflow/taskflow/internal/activity"
	"github.com/taskflow/taskflow/internal/auth"
	"github.com/taskflow/taskflow/internal/config"
	"github.com/taskflow/taskflow/internal/db/models"
	"github.com/taskflow/taskflow/internal/db/repositories"
	"github.com/taskflow/taskflow/internal/middleware"
)

const tempPasswordLength = 12

// EmployeeHandlers handles employee management endpoints
type EmployeeHandlers struct {
	cfg      *config.Config
	db       *sql.DB
	userRepo *repositories.UserRepository
	notifier *activity.Notifier
}

// NewEmployeeHandlers creates a new EmployeeHandlers instance
func NewEmployeeHandlers(cfg *config.Config, db *sql.DB, notifier *activity.Notifier) *EmployeeHandlers {
	return &EmployeeHandlers{
		cfg:      cfg,
		db:       db,
		userRepo: repositories.NewUserRepository(db),
		notifier: notifier,
	}
}

// CreateEmployeeRequest represents the request to provision an employee account
type CreateEmployeeRequest struct {
	Email         string `json:"email" binding:"required"`
	FirstName     string `json:"first_name" binding:"required"`
	LastName      string `json:"last_name" binding:"required"`
	Phone         string `json:"phone"`
	WorkspaceID   string `json:"workspace_id"`
	WorkspaceRole string `json:"workspace_role"`
	Designation   string `json:"designation"`
}

// @Summary      List employees
// @Description  List active accounts. With workspaceId, rows are decorated with that workspace's role and designation.
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Param        workspaceId  query  string  false  "Workspace ID for role decoration"
// @Success      200  {object}  map[string]interface{}  "employees: []models.EmployeeWithWorkspaceRole"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      403  {object}  map[string]interface{}  "Admin access required"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/employees [get]
// ListEmployeesHandler lists active accounts for administration
// GET /api/v1/admin/employees?workspaceId=...
func (h *EmployeeHandlers) ListEmployeesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		workspaceID := c.Query("workspaceId")

		if workspaceID != "" {
			employees, err := h.userRepo.ListActiveUsersWithWorkspaceRole(c.Request.Context(), workspaceID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Failed to list employees",
				})
				return
			}
			c.JSON(http.StatusOK, gin.H{"employees": employees})
			return
		}

		users, err := h.userRepo.ListActiveUsers(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list employees",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"employees": users})
	}
}

// @Summary      Create employee
// @Description  Provision an employee account with a temporary password, optionally enrolling it into a workspace. The temporary password is only returned here.
// @Tags         Admin
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        request  body  CreateEmployeeRequest  true  "Employee details"
// @Success      201  {object}  map[string]interface{}  "user: models.User, temp_password: string"
// @Failure      400  {object}  map[string]interface{}  "Validation error"
// @Failure      403  {object}  map[string]interface{}  "Admin access required"
// @Failure      409  {object}  map[string]interface{}  "Email already registered"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/employees [post]
// CreateEmployeeHandler provisions an employee account
// POST /api/v1/admin/employees
func (h *EmployeeHandlers) CreateEmployeeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.CurrentUser(c)
		if actor == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var req CreateEmployeeRequest
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

		workspaceRole := req.WorkspaceRole
		if workspaceRole == "" {
			workspaceRole = models.WorkspaceRoleMember
		}
		switch workspaceRole {
		case models.WorkspaceRoleAdmin, models.WorkspaceRoleManager, models.WorkspaceRoleMember, models.WorkspaceRoleViewer:
		default:
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid workspace role",
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

		tempPassword, err := auth.GenerateTempPassword(tempPasswordLength)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create employee",
			})
			return
		}
		hash, err := auth.HashPassword(tempPassword)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create employee",
			})
			return
		}

		user := &models.User{
			Email:        req.Email,
			PasswordHash: hash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Role:         models.AppRoleEmployee,
			IsActive:     true,
		}
		if req.Phone != "" {
			user.Phone = &req.Phone
		}
		if err := h.userRepo.CreateEmployee(c.Request.Context(), user, req.WorkspaceID, workspaceRole, req.Designation, actor.ID); err != nil {
			slog.Error("failed to create employee", "email", req.Email, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create employee",
			})
			return
		}

		entry := &models.ActivityLog{
			UserID:     actor.ID,
			Action:     models.ActionEmployeeCreated,
			EntityType: "user",
			EntityID:   &user.ID,
		}
		if req.WorkspaceID != "" {
			entry.WorkspaceID = &req.WorkspaceID
		}
		h.notifier.Notify(entry)

		c.JSON(http.StatusCreated, gin.H{
			"user":          user,
			"temp_password": tempPassword,
		})
	}
}
