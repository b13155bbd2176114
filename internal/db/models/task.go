// Package models - task.go defines the Task model backing dashboard aggregation.
package models

import "time"

// Task statuses
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusInReview   = "in_review"
	TaskStatusCompleted  = "completed"
)

// Task represents a unit of work within a workspace
type Task struct {
	ID          string    `json:"id" db:"id"`
	WorkspaceID string    `json:"workspace_id" db:"workspace_id"`
	ProjectID   *string   `json:"project_id" db:"project_id"`
	Title       string    `json:"title" db:"title"`
	Status      string    `json:"status" db:"status"`
	AssigneeID  *string   `json:"assignee_id" db:"assignee_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// DashboardStats aggregates task progress and membership for a workspace.
// InProgress folds in tasks under review.
type DashboardStats struct {
	TotalTasks      int `json:"total_tasks"`
	CompletedTasks  int `json:"completed_tasks"`
	InProgressTasks int `json:"in_progress_tasks"`
	TodoTasks       int `json:"todo_tasks"`
	ActiveMembers   int `json:"active_members"`
}
