// Package models - workspace.go defines the Workspace model representing a tenant
// boundary that owns projects, milestones, chat rooms, and memberships.
package models

import "time"

// Workspace represents a tenant workspace
type Workspace struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
