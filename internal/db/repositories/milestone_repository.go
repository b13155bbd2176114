// Package repositories - milestone_repository.go handles milestones. Every
// write records a matching activity log entry in the same transaction.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/taskflow/internal/db/models"
)

const milestoneColumns = `id, project_id, workspace_id, title, description, due_date, status, progress_percentage, created_by, created_at, updated_at`

// MilestoneRepository handles milestone database operations
type MilestoneRepository struct {
	db *sql.DB
}

// NewMilestoneRepository creates a new MilestoneRepository
func NewMilestoneRepository(db *sql.DB) *MilestoneRepository {
	return &MilestoneRepository{db: db}
}

func scanMilestone(row interface{ Scan(...any) error }) (*models.Milestone, error) {
	m := &models.Milestone{}
	err := row.Scan(
		&m.ID,
		&m.ProjectID,
		&m.WorkspaceID,
		&m.Title,
		&m.Description,
		&m.DueDate,
		&m.Status,
		&m.ProgressPercentage,
		&m.CreatedBy,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// CreateMilestone creates a milestone and records the event in one transaction
func (r *MilestoneRepository) CreateMilestone(ctx context.Context, m *models.Milestone) error {
	m.ID = uuid.New().String()
	if m.Status == "" {
		m.Status = models.MilestoneStatusPending
	}
	m.CreatedAt = time.Now()
	m.UpdatedAt = time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO milestones (id, project_id, workspace_id, title, description, due_date, status, progress_percentage, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = tx.ExecContext(ctx, query,
		m.ID,
		m.ProjectID,
		m.WorkspaceID,
		m.Title,
		m.Description,
		m.DueDate,
		m.Status,
		m.ProgressPercentage,
		m.CreatedBy,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if err := insertActivityLogTx(ctx, tx, &models.ActivityLog{
		WorkspaceID: &m.WorkspaceID,
		UserID:      m.CreatedBy,
		Action:      models.ActionMilestoneCreated,
		EntityType:  "milestone",
		EntityID:    &m.ID,
	}); err != nil {
		return err
	}

	return tx.Commit()
}

// GetMilestoneByID retrieves a milestone by ID
func (r *MilestoneRepository) GetMilestoneByID(ctx context.Context, milestoneID string) (*models.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE id = $1`
	return scanMilestone(r.db.QueryRowContext(ctx, query, milestoneID))
}

// ListMilestonesByWorkspace retrieves milestones for a workspace, optionally
// narrowed to one project, with project and creator names joined. Ordered by
// due date, most recent first, then creation time.
func (r *MilestoneRepository) ListMilestonesByWorkspace(ctx context.Context, workspaceID, projectID string) ([]*models.MilestoneWithDetails, error) {
	query := `
		SELECT m.id, m.project_id, m.workspace_id, m.title, m.description, m.due_date, m.status,
		       m.progress_percentage, m.created_by, m.created_at, m.updated_at,
		       p.name, u.first_name, u.last_name
		FROM milestones m
		JOIN projects p ON p.id = m.project_id
		JOIN users u ON u.id = m.created_by
		WHERE m.workspace_id = $1 AND ($2 = '' OR m.project_id = $2)
		ORDER BY m.due_date DESC, m.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, workspaceID, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	milestones := make([]*models.MilestoneWithDetails, 0)
	for rows.Next() {
		m := &models.MilestoneWithDetails{}
		err := rows.Scan(
			&m.ID,
			&m.ProjectID,
			&m.WorkspaceID,
			&m.Title,
			&m.Description,
			&m.DueDate,
			&m.Status,
			&m.ProgressPercentage,
			&m.CreatedBy,
			&m.CreatedAt,
			&m.UpdatedAt,
			&m.ProjectName,
			&m.CreatorFirstName,
			&m.CreatorLastName,
		)
		if err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}

	return milestones, rows.Err()
}

// UpdateMilestone applies a partial update and records the event in one
// transaction. Nil patch fields keep their current values.
func (r *MilestoneRepository) UpdateMilestone(ctx context.Context, milestoneID, actorID string, patch *models.MilestonePatch) (*models.Milestone, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := `
		UPDATE milestones
		SET title = COALESCE($2, title),
		    description = COALESCE($3, description),
		    due_date = COALESCE($4, due_date),
		    status = COALESCE($5, status),
		    progress_percentage = COALESCE($6, progress_percentage),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + milestoneColumns

	m, err := scanMilestone(tx.QueryRowContext(ctx, query,
		milestoneID,
		patch.Title,
		patch.Description,
		patch.DueDate,
		patch.Status,
		patch.ProgressPercentage,
	))
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}

	if err := insertActivityLogTx(ctx, tx, &models.ActivityLog{
		WorkspaceID: &m.WorkspaceID,
		UserID:      actorID,
		Action:      models.ActionMilestoneUpdated,
		EntityType:  "milestone",
		EntityID:    &m.ID,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return m, nil
}

// DeleteMilestone removes a milestone and records the event in one transaction
func (r *MilestoneRepository) DeleteMilestone(ctx context.Context, m *models.Milestone, actorID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `DELETE FROM milestones WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, m.ID); err != nil {
		return err
	}

	if err := insertActivityLogTx(ctx, tx, &models.ActivityLog{
		WorkspaceID: &m.WorkspaceID,
		UserID:      actorID,
		Action:      models.ActionMilestoneDeleted,
		EntityType:  "milestone",
		EntityID:    &m.ID,
	}); err != nil {
		return err
	}

	return tx.Commit()
}
