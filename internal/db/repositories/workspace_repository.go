// Package repositories - workspace_repository.go handles workspaces and their
// memberships. Creating a workspace and enrolling its owner happens in one
// transaction so a workspace can never exist without an admin.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/taskflow/internal/db/models"
)

// WorkspaceRepository handles workspace and membership database operations
type WorkspaceRepository struct {
	db *sql.DB
}

// NewWorkspaceRepository creates a new WorkspaceRepository
func NewWorkspaceRepository(db *sql.DB) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

// CreateWorkspace creates a workspace and enrolls the owner as its admin
func (r *WorkspaceRepository) CreateWorkspace(ctx context.Context, ws *models.Workspace) error {
	ws.ID = uuid.New().String()
	ws.IsActive = true
	ws.CreatedAt = time.Now()
	ws.UpdatedAt = time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO workspaces (id, owner_id, name, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = tx.ExecContext(ctx, query,
		ws.ID,
		ws.OwnerID,
		ws.Name,
		ws.Description,
		ws.IsActive,
		ws.CreatedAt,
		ws.UpdatedAt,
	)
	if err != nil {
		return err
	}

	memberQuery := `
		INSERT INTO workspace_members (workspace_id, user_id, role, is_active, joined_at)
		VALUES ($1, $2, $3, TRUE, NOW())
	`

	if _, err := tx.ExecContext(ctx, memberQuery, ws.ID, ws.OwnerID, models.WorkspaceRoleAdmin); err != nil {
		return err
	}

	return tx.Commit()
}

// GetWorkspaceByID retrieves a workspace by ID
func (r *WorkspaceRepository) GetWorkspaceByID(ctx context.Context, workspaceID string) (*models.Workspace, error) {
	query := `
		SELECT id, owner_id, name, description, is_active, created_at, updated_at
		FROM workspaces
		WHERE id = $1
	`

	ws := &models.Workspace{}
	err := r.db.QueryRowContext(ctx, query, workspaceID).Scan(
		&ws.ID,
		&ws.OwnerID,
		&ws.Name,
		&ws.Description,
		&ws.IsActive,
		&ws.CreatedAt,
		&ws.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return ws, nil
}

// ListWorkspacesForUser retrieves the active workspaces the user belongs to, newest first
func (r *WorkspaceRepository) ListWorkspacesForUser(ctx context.Context, userID string) ([]*models.Workspace, error) {
	query := `
		SELECT w.id, w.owner_id, w.name, w.description, w.is_active, w.created_at, w.updated_at
		FROM workspaces w
		JOIN workspace_members wm ON wm.workspace_id = w.id
		WHERE wm.user_id = $1 AND wm.is_active = TRUE AND w.is_active = TRUE
		ORDER BY w.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workspaces := make([]*models.Workspace, 0)
	for rows.Next() {
		ws := &models.Workspace{}
		err := rows.Scan(
			&ws.ID,
			&ws.OwnerID,
			&ws.Name,
			&ws.Description,
			&ws.IsActive,
			&ws.CreatedAt,
			&ws.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		workspaces = append(workspaces, ws)
	}

	return workspaces, rows.Err()
}

// GetMember retrieves a user's active membership in a workspace.
// Inactive memberships are treated as absent.
func (r *WorkspaceRepository) GetMember(ctx context.Context, workspaceID, userID string) (*models.WorkspaceMember, error) {
	query := `
		SELECT workspace_id, user_id, role, designation, invited_by, is_active, joined_at
		FROM workspace_members
		WHERE workspace_id = $1 AND user_id = $2 AND is_active = TRUE
	`

	m := &models.WorkspaceMember{}
	err := r.db.QueryRowContext(ctx, query, workspaceID, userID).Scan(
		&m.WorkspaceID,
		&m.UserID,
		&m.Role,
		&m.Designation,
		&m.InvitedBy,
		&m.IsActive,
		&m.JoinedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return m, nil
}

// UpsertMember adds a user to a workspace, or refreshes an existing row.
// Re-inviting reactivates the membership and overwrites role and designation.
func (r *WorkspaceRepository) UpsertMember(ctx context.Context, m *models.WorkspaceMember) error {
	m.IsActive = true
	m.JoinedAt = time.Now()

	query := `
		INSERT INTO workspace_members (workspace_id, user_id, role, designation, invited_by, is_active, joined_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6)
		ON CONFLICT (workspace_id, user_id)
		DO UPDATE SET role = EXCLUDED.role, designation = EXCLUDED.designation, invited_by = EXCLUDED.invited_by, is_active = TRUE
	`

	_, err := r.db.ExecContext(ctx, query,
		m.WorkspaceID,
		m.UserID,
		m.Role,
		m.Designation,
		m.InvitedBy,
		m.JoinedAt,
	)

	return err
}

// ListMembersWithUsers retrieves active members with user details, newest first
func (r *WorkspaceRepository) ListMembersWithUsers(ctx context.Context, workspaceID string) ([]*models.WorkspaceMemberWithUser, error) {
	query := `
		SELECT wm.workspace_id, wm.user_id, wm.role, wm.designation, wm.joined_at,
		       u.email, u.first_name, u.last_name, u.avatar_url
		FROM workspace_members wm
		JOIN users u ON u.id = wm.user_id
		WHERE wm.workspace_id = $1 AND wm.is_active = TRUE
		ORDER BY wm.joined_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]*models.WorkspaceMemberWithUser, 0)
	for rows.Next() {
		m := &models.WorkspaceMemberWithUser{}
		err := rows.Scan(
			&m.WorkspaceID,
			&m.UserID,
			&m.Role,
			&m.Designation,
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

// CountActiveMembers returns the number of active members in a workspace
func (r *WorkspaceRepository) CountActiveMembers(ctx context.Context, workspaceID string) (int, error) {
	var total int
	query := `SELECT COUNT(*) FROM workspace_members WHERE workspace_id = $1 AND is_active = TRUE`
	err := r.db.QueryRowContext(ctx, query, workspaceID).Scan(&total)
	return total, err
}
