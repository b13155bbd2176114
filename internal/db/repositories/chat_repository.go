// Package repositories - chat_repository.go handles chat rooms and their
// membership. Room creation enrolls the creator and any initial members in one
// transaction, all-or-nothing.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/taskflow/internal/db/models"
)

// ChatRepository handles chat room and room membership database operations
type ChatRepository struct {
	db *sql.DB
}

// NewChatRepository creates a new ChatRepository
func NewChatRepository(db *sql.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// CreateRoom creates a chat room, enrolls the creator, and bulk-adds the given
// members in a single transaction
func (r *ChatRepository) CreateRoom(ctx context.Context, room *models.ChatRoom, memberIDs []string) error {
	room.ID = uuid.New().String()
	if room.Type == "" {
		room.Type = models.RoomTypeGroup
	}
	room.CreatedAt = time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO chat_rooms (id, workspace_id, name, type, description, created_by, is_archived, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)
	`

	_, err = tx.ExecContext(ctx, query,
		room.ID,
		room.WorkspaceID,
		room.Name,
		room.Type,
		room.Description,
		room.CreatedBy,
		room.CreatedAt,
	)
	if err != nil {
		return err
	}

	memberQuery := `
		INSERT INTO chat_room_members (room_id, user_id, joined_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (room_id, user_id) DO NOTHING
	`

	if _, err := tx.ExecContext(ctx, memberQuery, room.ID, room.CreatedBy); err != nil {
		return err
	}

	for _, userID := range memberIDs {
		if userID == room.CreatedBy {
			continue
		}
		if _, err := tx.ExecContext(ctx, memberQuery, room.ID, userID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetRoomByID retrieves a chat room by ID
func (r *ChatRepository) GetRoomByID(ctx context.Context, roomID string) (*models.ChatRoom, error) {
	query := `
		SELECT id, workspace_id, name, type, description, created_by, is_archived, created_at
		FROM chat_rooms
		WHERE id = $1
	`

	room := &models.ChatRoom{}
	err := r.db.QueryRowContext(ctx, query, roomID).Scan(
		&room.ID,
		&room.WorkspaceID,
		&room.Name,
		&room.Type,
		&room.Description,
		&room.CreatedBy,
		&room.IsArchived,
		&room.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return room, nil
}

// ListRoomsForUser retrieves the non-archived rooms in a workspace that the
// user belongs to, newest first
func (r *ChatRepository) ListRoomsForUser(ctx context.Context, workspaceID, userID string) ([]*models.ChatRoom, error) {
	query := `
		SELECT cr.id, cr.workspace_id, cr.name, cr.type, cr.description, cr.created_by, cr.is_archived, cr.created_at
		FROM chat_rooms cr
		JOIN chat_room_members crm ON crm.room_id = cr.id
		WHERE cr.workspace_id = $1 AND crm.user_id = $2 AND cr.is_archived = FALSE
		ORDER BY cr.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := make([]*models.ChatRoom, 0)
	for rows.Next() {
		room := &models.ChatRoom{}
		err := rows.Scan(
			&room.ID,
			&room.WorkspaceID,
			&room.Name,
			&room.Type,
			&room.Description,
			&room.CreatedBy,
			&room.IsArchived,
			&room.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

// IsRoomMember reports whether the user belongs to the room
func (r *ChatRepository) IsRoomMember(ctx context.Context, roomID, userID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM chat_room_members WHERE room_id = $1 AND user_id = $2)`
	err := r.db.QueryRowContext(ctx, query, roomID, userID).Scan(&exists)
	return exists, err
}

// AddRoomMember adds a user to a room. Adding an existing member is a no-op.
func (r *ChatRepository) AddRoomMember(ctx context.Context, roomID, userID string) error {
	query := `
		INSERT INTO chat_room_members (room_id, user_id, joined_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (room_id, user_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, roomID, userID)
	return err
}

// RemoveRoomMember removes a user from a room
func (r *ChatRepository) RemoveRoomMember(ctx context.Context, roomID, userID string) error {
	query := `DELETE FROM chat_room_members WHERE room_id = $1 AND user_id = $2`
	_, err := r.db.ExecContext(ctx, query, roomID, userID)
	return err
}

// ListRoomMembers retrieves room members with user details
func (r *ChatRepository) ListRoomMembers(ctx context.Context, roomID string) ([]*models.ChatRoomMemberWithUser, error) {
	query := `
		SELECT crm.room_id, crm.user_id, crm.joined_at,
		       u.email, u.first_name, u.last_name, u.avatar_url
		FROM chat_room_members crm
		JOIN users u ON u.id = crm.user_id
		WHERE crm.room_id = $1
		ORDER BY crm.joined_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]*models.ChatRoomMemberWithUser, 0)
	for rows.Next() {
		m := &models.ChatRoomMemberWithUser{}
		err := rows.Scan(
			&m.RoomID,
			&m.UserID,
			&m.JoinedAt,
			&m.Email,
			&m.FirstName,
			&m.LastName,
			&m.AvatarURL,
		)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	return members, rows.Err()
}
