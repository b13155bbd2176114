// messages.go implements handlers for reading and sending chat messages.
package chat

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/taskflow/taskflow/internal/authz"
	"github.com/taskflow/taskflow/internal/config"
	"github.com/taskflow/taskflow/internal/db/models"
	"github.com/taskflow/taskflow/internal/db/repositories"
	"github.com/taskflow/taskflow/internal/middleware"
	"github.com/taskflow/taskflow/internal/telemetry"
)

// MessageHandlers handles message endpoints
type MessageHandlers struct {
	cfg      *config.Config
	msgRepo  *repositories.MessageRepository
	resolver *authz.Resolver
}

// NewMessageHandlers creates a new MessageHandlers instance
func NewMessageHandlers(cfg *config.Config, dbx *sqlx.DB, resolver *authz.Resolver) *MessageHandlers {
	return &MessageHandlers{
		cfg:      cfg,
		msgRepo:  repositories.NewMessageRepository(dbx),
		resolver: resolver,
	}
}

// SendMessageRequest represents the request to send a message
type SendMessageRequest struct {
	RoomID        string `json:"room_id" binding:"required"`
	Content       string `json:"content" binding:"required"`
	MessageType   string `json:"message_type"`
	AttachmentURL string `json:"attachment_url"`
}

// @Summary      List messages
// @Description  Page through a room's messages. The newest page is fetched and returned in chronological order. Caller must be a room member.
// @Tags         Chat
// @Security     Bearer
// @Produce      json
// @Param        roomId  query  string  true   "Room ID"
// @Param        limit   query  int     false  "Page size (default 50, max 200)"
// @Param        offset  query  int     false  "Offset from the newest message"
// @Success      200  {object}  map[string]interface{}  "messages: []models.MessageWithSender"
// @Failure      400  {object}  map[string]interface{}  "Missing roomId"
// @Failure      403  {object}  map[string]interface{}  "Not a room member"
// @Failure      404  {object}  map[string]interface{}  "Room not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/messages [get]
// ListMessagesHandler pages through a room's messages
// GET /api/v1/messages?roomId=...&limit=50&offset=0
func (h *MessageHandlers) ListMessagesHandler() gin.HandlerFunc {
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

		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		if limit < 1 || limit > 200 {
			limit = 50
		}
		if offset < 0 {
			offset = 0
		}

		if _, err := h.resolver.RequireRoomMember(c.Request.Context(), roomID, user.ID); err != nil {
			authz.WriteError(c, err)
			return
		}

		messages, err := h.msgRepo.ListMessages(c.Request.Context(), roomID, limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list messages",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"messages": messages})
	}
}

// @Summary      Send message
// @Description  Send a message to a room the caller belongs to. The created message is returned with sender details.
// @Tags         Chat
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        request  body  SendMessageRequest  true  "Message details"
// @Success      201  {object}  map[string]interface{}  "data: models.MessageWithSender"
// @Failure      400  {object}  map[string]interface{}  "Validation error"
// @Failure      403  {object}  map[string]interface{}  "Not a room member"
// @Failure      404  {object}  map[string]interface{}  "Room not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/messages [post]
// SendMessageHandler appends a message to a room
// POST /api/v1/messages
func (h *MessageHandlers) SendMessageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var req SendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		room, err := h.resolver.RequireRoomMember(c.Request.Context(), req.RoomID, user.ID)
		if err != nil {
			authz.WriteError(c, err)
			return
		}

		msg := &models.Message{
			RoomID:      req.RoomID,
			SenderID:    user.ID,
			Content:     req.Content,
			MessageType: req.MessageType,
		}
		if req.AttachmentURL != "" {
			msg.AttachmentURL = &req.AttachmentURL
		}
		created, err := h.msgRepo.CreateMessage(c.Request.Context(), msg)
		if err != nil {
			slog.Error("failed to send message", "room_id", req.RoomID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to send message",
			})
			return
		}

		telemetry.MessagesSentTotal.WithLabelValues(room.Type).Inc()
		c.JSON(http.StatusCreated, gin.H{
			"message": "Message sent successfully",
			"data":    created,
		})
	}
}
