// Package repositories - message_repository.go handles the append-only message
// store. Listings fetch newest-first for cheap LIMIT/OFFSET paging, then flip
// to chronological order before returning.
package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/taskflow/taskflow/internal/db/models"
)

// MessageRepository handles message database operations
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// CreateMessage appends a message and returns it with sender details
func (r *MessageRepository) CreateMessage(ctx context.Context, msg *models.Message) (*models.MessageWithSender, error) {
	msg.ID = uuid.New().String()
	if msg.MessageType == "" {
		msg.MessageType = "text"
	}
	msg.CreatedAt = time.Now()

	query := `
		INSERT INTO messages (id, room_id, sender_id, content, message_type, attachment_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		msg.ID,
		msg.RoomID,
		msg.SenderID,
		msg.Content,
		msg.MessageType,
		msg.AttachmentURL,
		msg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	detailQuery := `
		SELECT m.id, m.room_id, m.sender_id, m.content, m.message_type, m.attachment_url, m.created_at,
		       u.first_name AS sender_first_name, u.last_name AS sender_last_name, u.avatar_url AS sender_avatar_url
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.id = $1
	`

	out := &models.MessageWithSender{}
	if err := r.db.GetContext(ctx, out, detailQuery, msg.ID); err != nil {
		return nil, err
	}

	return out, nil
}

// ListMessages retrieves a page of room messages in chronological order.
// The page is selected newest-first, then reversed.
func (r *MessageRepository) ListMessages(ctx context.Context, roomID string, limit, offset int) ([]*models.MessageWithSender, error) {
	query := `
		SELECT m.id, m.room_id, m.sender_id, m.content, m.message_type, m.attachment_url, m.created_at,
		       u.first_name AS sender_first_name, u.last_name AS sender_last_name, u.avatar_url AS sender_avatar_url
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.room_id = $1
		ORDER BY m.created_at DESC
		LIMIT $2 OFFSET $3
	`

	messages := make([]*models.MessageWithSender, 0)
	if err := r.db.SelectContext(ctx, &messages, query, roomID, limit, offset); err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
