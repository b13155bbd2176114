// Package models - activity_log.go defines the ActivityLog model for recording
// domain events, capturing actor, action, and the affected entity.
package models

import "time"

// Activity actions written alongside mutations
const (
	ActionProjectCreated   = "project_created"
	ActionMilestoneCreated = "milestone_created"
	ActionMilestoneUpdated = "milestone_updated"
	ActionMilestoneDeleted = "milestone_deleted"
	ActionEmployeeCreated  = "employee_created"
	ActionProfileUpdated   = "profile_updated"
)

// ActivityLog represents a recorded domain event. Entries are append-only and
// are never served back through the API.
type ActivityLog struct {
	ID          string    `json:"id" db:"id"`
	WorkspaceID *string   `json:"workspace_id" db:"workspace_id"` // Nullable for account-level events
	UserID      string    `json:"user_id" db:"user_id"`
	Action      string    `json:"action" db:"action"`
	EntityType  string    `json:"entity_type" db:"entity_type"`
	EntityID    *string   `json:"entity_id" db:"entity_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
