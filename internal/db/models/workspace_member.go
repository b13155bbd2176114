// Package models - workspace_member.go defines models for user-to-workspace membership,
// including the per-workspace role and an enriched view joining user details.
package models

import "time"

// Workspace roles. These are scoped to a single workspace and are independent
// of the account's application role.
const (
	WorkspaceRoleAdmin   = "admin"
	WorkspaceRoleManager = "manager"
	WorkspaceRoleMember  = "member"
	WorkspaceRoleViewer  = "viewer"
)

// WorkspaceMember represents a user's membership in a workspace
type WorkspaceMember struct {
	WorkspaceID string    `json:"workspace_id"`
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
	Designation *string   `json:"designation"`
	InvitedBy   *string   `json:"invited_by"`
	IsActive    bool      `json:"is_active"`
	JoinedAt    time.Time `json:"joined_at"`
}

// CanManageWorkspace returns true for the roles allowed to invite members,
// write milestones, and manage chat room membership
func (m *WorkspaceMember) CanManageWorkspace() bool {
	return m.Role == WorkspaceRoleAdmin || m.Role == WorkspaceRoleManager
}

// WorkspaceMemberWithUser includes user details for member listings
type WorkspaceMemberWithUser struct {
	WorkspaceID string    `json:"workspace_id"`
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
	Designation *string   `json:"designation"`
	JoinedAt    time.Time `json:"joined_at"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	AvatarURL   *string   `json:"avatar_url"`
}
