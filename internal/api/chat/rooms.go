// rooms.go implements handlers for chat room listing and creation.
package chat

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

// RoomHandlers handles chat room and room-member endpoints
type RoomHandlers struct {
	cfg      *config.Config
	db       *sql.DB
	chatRepo *repositories.ChatRepository
	wsRepo   *repositories.WorkspaceRepository
	resolver *authz.Resolver
}

// NewRoomHandlers creates a new RoomHandlers instance
func NewRoomHandlers(cfg *config.Config, db *sql.DB, resolver *authz.Resolver) *RoomHandlers {
	return &RoomHandlers{
		cfg:      cfg,
		db:       db,
		chatRepo: repositories.NewChatRepository(db),
		wsRepo:   repositories.NewWorkspaceRepository(db),
		resolver: resolver,
	}
}

// CreateRoomRequest represents the request to create a chat room
type CreateRoomRequest struct {
	WorkspaceID string   `json:"workspace_id" binding:"required"`
	Name        string   `json:"name" binding:"required"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	MemberIDs   []string `json:"member_ids"`
}

// @Summary      List chat rooms
// @Description  List the non-archived rooms the caller belongs to within a workspace, newest first.
// @Tags         Chat
// @Security     Bearer
// @Produce      json
// @Param        workspaceId  query  string  true  "Workspace ID"
// @Success      200  {object}  map[string]interface{}  "rooms: []models.ChatRoom"
// @Failure      400  {object}  map[string]interface{}  "Missing workspaceId"
// @Failure      403  {object}  map[string]interface{}  "Not a workspace member"
// @Failure      404  {object}  map[string]interface{}  "Workspace not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/chat-rooms [get]
// ListRoomsHandler lists the caller's rooms in a workspace
// GET /api/v1/chat-rooms?workspaceId=...
func (h *RoomHandlers) ListRoomsHandler() gin.HandlerFunc {
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

		rooms, err := h.chatRepo.ListRoomsForUser(c.Request.Context(), workspaceID, user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list chat rooms",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"rooms": rooms})
	}
}

// @Summary      Create chat room
// @Description  Create a room and enroll the creator plus any listed members in one transaction. Caller must be a workspace member.
// @Tags         Chat
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        request  body  CreateRoomRequest  true  "Room details"
// @Success      201  {object}  map[string]interface{}  "room: models.ChatRoom"
// @Failure      400  {object}  map[string]interface{}  "Validation error"
// @Failure      403  {object}  map[string]interface{}  "Not a workspace member"
// @Failure      404  {object}  map[string]interface{}  "Workspace not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/chat-rooms [post]
// CreateRoomHandler creates a chat room with its initial members
// POST /api/v1/chat-rooms
func (h *RoomHandlers) CreateRoomHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var req CreateRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		if req.Type != "" {
			switch req.Type {
			case models.RoomTypeDirect, models.RoomTypeGroup, models.RoomTypeChannel:
			default:
				c.JSON(http.StatusBadRequest, gin.H{
					"error": "Invalid room type",
				})
				return
			}
		}

		if _, err := h.resolver.RequireMember(c.Request.Context(), req.WorkspaceID, user.ID, user.Role); err != nil {
			authz.WriteError(c, err)
			return
		}

		room := &models.ChatRoom{
			WorkspaceID: req.WorkspaceID,
			Name:        req.Name,
			Type:        req.Type,
			CreatedBy:   user.ID,
		}
		if req.Description != "" {
			room.Description = &req.Description
		}
		if err := h.chatRepo.CreateRoom(c.Request.Context(), room, req.MemberIDs); err != nil {
			slog.Error("failed to create chat room", "workspace_id", req.WorkspaceID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create chat room",
			})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"room": room})
	}
}
