// Package repositories - task_repository.go aggregates task progress for the
// dashboard. Tasks have no write path through the API yet.
package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/taskflow/taskflow/internal/db/models"
)

// TaskRepository handles task aggregation queries
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// GetWorkspaceStats aggregates task counts for a workspace. Tasks under
// review count as in progress.
func (r *TaskRepository) GetWorkspaceStats(ctx context.Context, workspaceID string) (*models.DashboardStats, error) {
	query := `
		SELECT COUNT(*) AS total_tasks,
		       COUNT(*) FILTER (WHERE status = 'completed') AS completed_tasks,
		       COUNT(*) FILTER (WHERE status IN ('in_progress', 'in_review')) AS in_progress_tasks,
		       COUNT(*) FILTER (WHERE status = 'todo') AS todo_tasks
		FROM tasks
		WHERE workspace_id = $1
	`

	stats := &models.DashboardStats{}
	err := r.db.QueryRowContext(ctx, query, workspaceID).Scan(
		&stats.TotalTasks,
		&stats.CompletedTasks,
		&stats.InProgressTasks,
		&stats.TodoTasks,
	)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
