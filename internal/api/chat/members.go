// members.go implements handlers for chat room membership management.
// Adding and removing members requires the room creator, a workspace
// admin or manager, or an application admin.
package chat

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskflow/taskflow/internal/authz"
	"github.com/taskflow/taskflow/internal/middleware"
)

// RoomMemberRequest represents the request to add or remove a room member
type RoomMemberRequest struct {
	RoomID string `json:"room_id" binding:"required"`
	UserID string `json:"user_id" binding:"required"`
}

// @Summary      List room members
// @Description  List a room's members with user details, oldest first. Caller must be a room member.
// @Tags         Chat
// @Security     Bearer
// @Produce      json
// @Param        roomId  query  string  true  "Room ID"
// @Success      200  {object}  map[string]interface{}  "members: []models.ChatRoomMemberWithUser"
// @Failure      400  {object}  map[string]interface{}  "Missing roomId"
// @Failure      403  {object}  map[string]interface{}  "Not a room member"
// @Failure      404  {object}  map[string]interface{}  "Room not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/chat-room-members [get]
// ListRoomMembersHandler lists members of a chat room
// GET /api/v1/chat-room-members?roomId=...
func (h *RoomHandlers) ListRoomMembersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		roomID := c.Query("roomId")
		if roomID == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "roomId is required",
			})
			return
		}

		if _, err := h.resolver.RequireRoomMember(c.Request.Context(), roomID, user.ID); err != nil {
			authz.WriteError(c, err)
			return
		}

		members, err := h.chatRepo.ListRoomMembers(c.Request.Context(), roomID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list room members",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"members": members})
	}
}

// @Summary      Add room member
// @Description  Add a workspace member to a chat room. Adding an existing member is a no-op. Requires room creator, workspace admin/manager, or app admin.
// @Tags         Chat
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        request  body  RoomMemberRequest  true  "Room and user"
// @Success      201  {object}  map[string]interface{}  "message: string"
// @Failure      400  {object}  map[string]interface{}  "Target is not a workspace member"
// @Failure      403  {object}  map[string]interface{}  "Insufficient permissions"
// @Failure      404  {object}  map[string]interface{}  "Room not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/chat-room-members [post]
// AddRoomMemberHandler adds a workspace member to a room
// POST /api/v1/chat-room-members
func (h *RoomHandlers) AddRoomMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var req RoomMemberRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		room, err := h.resolver.RequireRoomManager(c.Request.Context(), req.RoomID, user.ID, user.Role)
		if err != nil {
			authz.WriteError(c, err)
			return
		}

		// The target must belong to the room's workspace
		target, err := h.wsRepo.GetMember(c.Request.Context(), room.WorkspaceID, req.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to add room member",
			})
			return
		}
		if target == nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "User is not a member of this workspace",
			})
			return
		}

		if err := h.chatRepo.AddRoomMember(c.Request.Context(), req.RoomID, req.UserID); err != nil {
			slog.Error("failed to add room member", "room_id", req.RoomID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to add room member",
			})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"message": "Member added to room"})
	}
}

// @Summary      Remove room member
// @Description  Remove a member from a chat room. Requires room creator, workspace admin/manager, or app admin.
// @Tags         Chat
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        request  body  RoomMemberRequest  true  "Room and user"
// @Success      200  {object}  map[string]interface{}  "message: string"
// @Failure      403  {object}  map[string]interface{}  "Insufficient permissions"
// @Failure      404  {object}  map[string]interface{}  "Room not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/chat-room-members [delete]
// RemoveRoomMemberHandler removes a member from a room
// DELETE /api/v1/chat-room-members
func (h *RoomHandlers) RemoveRoomMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var req RoomMemberRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		if _, err := h.resolver.RequireRoomManager(c.Request.Context(), req.RoomID, user.ID, user.Role); err != nil {
			authz.WriteError(c, err)
			return
		}

		if err := h.chatRepo.RemoveRoomMember(c.Request.Context(), req.RoomID, req.UserID); err != nil {
			slog.Error("failed to remove room member", "room_id", req.RoomID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to remove room member",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Member removed from room"})
	}
}
