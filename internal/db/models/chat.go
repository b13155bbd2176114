// Package models - chat.go defines the ChatRoom, ChatRoomMember, and Message models
// plus the enriched views joining sender and member details.
package models

import "time"

// Chat room types
const (
	RoomTypeDirect  = "direct"
	RoomTypeGroup   = "group"
	RoomTypeChannel = "channel"
)

// ChatRoom represents a chat room within a workspace
type ChatRoom struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Description *string   `json:"description"`
	CreatedBy   string    `json:"created_by"`
	IsArchived  bool      `json:"is_archived"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChatRoomMember represents a user's membership in a chat room
type ChatRoomMember struct {
	RoomID   string    `json:"room_id"`
	UserID   string    `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// ChatRoomMemberWithUser includes user details for room member listings
type ChatRoomMemberWithUser struct {
	RoomID    string    `json:"room_id"`
	UserID    string    `json:"user_id"`
	JoinedAt  time.Time `json:"joined_at"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	AvatarURL *string   `json:"avatar_url"`
}

// Message represents a chat message. Messages are append-only.
type Message struct {
	ID            string    `json:"id" db:"id"`
	RoomID        string    `json:"room_id" db:"room_id"`
	SenderID      string    `json:"sender_id" db:"sender_id"`
	Content       string    `json:"content" db:"content"`
	MessageType   string    `json:"message_type" db:"message_type"`
	AttachmentURL *string   `json:"attachment_url" db:"attachment_url"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// MessageWithSender includes the sender's name and avatar for message listings
type MessageWithSender struct {
	Message
	SenderFirstName string  `json:"sender_first_name" db:"sender_first_name"`
	SenderLastName  string  `json:"sender_last_name" db:"sender_last_name"`
	SenderAvatarURL *string `json:"sender_avatar_url" db:"sender_avatar_url"`
}
