// Package repositories - project_repository.go handles projects. Creating a
// project also seeds its kickoff milestone and records the event, all in one
// transaction.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/taskflow/internal/db/models"
)

// ProjectRepository handles project database operations
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// CreateProject creates a project, its kickoff milestone, and the activity
// record in a single transaction
func (r *ProjectRepository) CreateProject(ctx context.Context, p *models.Project) error {
	p.ID = uuid.New().String()
	if p.Color == "" {
		p.Color = "#3B82F6"
	}
	if p.Icon == "" {
		p.Icon = "folder"
	}
	p.Status = models.ProjectStatusActive
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO projects (id, workspace_id, name, description, color, icon, owner_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = tx.ExecContext(ctx, query,
		p.ID,
		p.WorkspaceID,
		p.Name,
		p.Description,
		p.Color,
		p.Icon,
		p.OwnerID,
		p.Status,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}

	milestoneQuery := `
		INSERT INTO milestones (id, project_id, workspace_id, title, description, due_date, status, progress_percentage, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_DATE, $6, 0, $7, NOW(), NOW())
	`

	milestoneID := uuid.New().String()
	_, err = tx.ExecContext(ctx, milestoneQuery,
		milestoneID,
		p.ID,
		p.WorkspaceID,
		"Project Created: "+p.Name,
		"Auto-generated milestone upon project creation",
		models.MilestoneStatusPending,
		p.OwnerID,
	)
	if err != nil {
		return err
	}

	if err := insertActivityLogTx(ctx, tx, &models.ActivityLog{
		WorkspaceID: &p.WorkspaceID,
		UserID:      p.OwnerID,
		Action:      models.ActionProjectCreated,
		EntityType:  "project",
		EntityID:    &p.ID,
	}); err != nil {
		return err
	}

	return tx.Commit()
}

// ListProjectsByWorkspace retrieves non-archived projects with owner names, newest first
func (r *ProjectRepository) ListProjectsByWorkspace(ctx context.Context, workspaceID string) ([]*models.ProjectWithOwner, error) {
	query := `
		SELECT p.id, p.workspace_id, p.name, p.description, p.color, p.icon, p.owner_id, p.status, p.created_at, p.updated_at,
		       u.first_name, u.last_name
		FROM projects p
		JOIN users u ON u.id = p.owner_id
		WHERE p.workspace_id = $1 AND p.status != $2
		ORDER BY p.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, workspaceID, models.ProjectStatusArchived)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]*models.ProjectWithOwner, 0)
	for rows.Next() {
		p := &models.ProjectWithOwner{}
		err := rows.Scan(
			&p.ID,
			&p.WorkspaceID,
			&p.Name,
			&p.Description,
			&p.Color,
			&p.Icon,
			&p.OwnerID,
			&p.Status,
			&p.CreatedAt,
			&p.UpdatedAt,
			&p.OwnerFirstName,
			&p.OwnerLastName,
		)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}

	return projects, rows.Err()
}

// GetProjectByID retrieves a project by ID
func (r *ProjectRepository) GetProjectByID(ctx context.Context, projectID string) (*models.Project, error) {
	query := `
		SELECT id, workspace_id, name, description, color, icon, owner_id, status, created_at, updated_at
		FROM projects
		WHERE id = $1
	`

	p := &models.Project{}
	err := r.db.QueryRowContext(ctx, query, projectID).Scan(
		&p.ID,
		&p.WorkspaceID,
		&p.Name,
		&p.Description,
		&p.Color,
		&p.Icon,
		&p.OwnerID,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return p, nil
}

// ArchiveProject marks a project archived. Project rows are never deleted.
func (r *ProjectRepository) ArchiveProject(ctx context.Context, projectID string) error {
	query := `UPDATE projects SET status = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, projectID, models.ProjectStatusArchived)
	return err
}
