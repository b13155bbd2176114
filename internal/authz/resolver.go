// Package authz resolves the two authorization axes: the account's application
// role carried in JWT claims, and the per-workspace role held in
// workspace_members. Handlers map the typed errors to HTTP statuses
// (ErrWorkspaceNotFound/ErrRoomNotFound to 404, the rest to 403). Existence is
// always checked before roles so a non-member cannot probe for workspace IDs.
package authz

import (
	"context"
	"errors"

	"github.com/taskflow/taskflow/internal/db/models"
)

var (
	// ErrWorkspaceNotFound means the workspace does not exist or is inactive
	ErrWorkspaceNotFound = errors.New("workspace not found")
	// ErrRoomNotFound means the chat room does not exist
	ErrRoomNotFound = errors.New("chat room not found")
	// ErrNotMember means the caller has no active membership in the workspace
	ErrNotMember = errors.New("not a member of this workspace")
	// ErrNotRoomMember means the caller does not belong to the chat room
	ErrNotRoomMember = errors.New("not a member of this chat room")
	// ErrForbidden means the caller's workspace role does not allow the action
	ErrForbidden = errors.New("insufficient permissions")
)

// WorkspaceStore is the slice of the workspace repository the resolver needs
type WorkspaceStore interface {
	GetWorkspaceByID(ctx context.Context, workspaceID string) (*models.Workspace, error)
	GetMember(ctx context.Context, workspaceID, userID string) (*models.WorkspaceMember, error)
}

// RoomStore is the slice of the chat repository the resolver needs
type RoomStore interface {
	GetRoomByID(ctx context.Context, roomID string) (*models.ChatRoom, error)
	IsRoomMember(ctx context.Context, roomID, userID string) (bool, error)
}

// Resolver answers authorization questions for workspace and room scoped actions
type Resolver struct {
	workspaces WorkspaceStore
	rooms      RoomStore
}

// NewResolver creates a new Resolver
func NewResolver(workspaces WorkspaceStore, rooms RoomStore) *Resolver {
	return &Resolver{workspaces: workspaces, rooms: rooms}
}

// RequireMember verifies the workspace exists and the caller holds an active
// membership. An application admin passes without a membership row; the
// returned member is nil in that case.
func (r *Resolver) RequireMember(ctx context.Context, workspaceID, userID, appRole string) (*models.WorkspaceMember, error) {
	ws, err := r.workspaces.GetWorkspaceByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if ws == nil || !ws.IsActive {
		return nil, ErrWorkspaceNotFound
	}

	member, err := r.workspaces.GetMember(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		if appRole == models.AppRoleAdmin {
			return nil, nil
		}
		return nil, ErrNotMember
	}

	return member, nil
}

// RequireManager verifies the caller may perform workspace management actions:
// member invites, milestone writes, room membership changes. Allowed for
// workspace admins and managers, and for application admins regardless of
// membership.
func (r *Resolver) RequireManager(ctx context.Context, workspaceID, userID, appRole string) error {
	member, err := r.RequireMember(ctx, workspaceID, userID, appRole)
	if err != nil {
		if errors.Is(err, ErrNotMember) && appRole == models.AppRoleAdmin {
			return nil
		}
		return err
	}

	if appRole == models.AppRoleAdmin {
		return nil
	}
	if member == nil || !member.CanManageWorkspace() {
		return ErrForbidden
	}

	return nil
}

// RequireRoomMember verifies the room exists and the caller belongs to it
func (r *Resolver) RequireRoomMember(ctx context.Context, roomID, userID string) (*models.ChatRoom, error) {
	room, err := r.rooms.GetRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	isMember, err := r.rooms.IsRoomMember(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotRoomMember
	}

	return room, nil
}

// RequireRoomManager verifies the caller may manage a room's membership:
// the room's creator, a workspace admin or manager, or an application admin.
func (r *Resolver) RequireRoomManager(ctx context.Context, roomID, userID, appRole string) (*models.ChatRoom, error) {
	room, err := r.rooms.GetRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	if room.CreatedBy == userID || appRole == models.AppRoleAdmin {
		return room, nil
	}

	member, err := r.workspaces.GetMember(ctx, room.WorkspaceID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotMember
	}
	if !member.CanManageWorkspace() {
		return nil, ErrForbidden
	}

	return room, nil
}
