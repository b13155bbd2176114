// Package models - project.go defines the Project model and the view that joins
// the owner's display name for project listings.
package models

import "time"

// Project statuses. Archiving flips the status; project rows are never deleted.
const (
	ProjectStatusActive   = "active"
	ProjectStatusArchived = "archived"
)

// Project represents a project within a workspace
type Project struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Color       string    `json:"color"`
	Icon        string    `json:"icon"`
	OwnerID     string    `json:"owner_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectWithOwner includes the owner's name for listings
type ProjectWithOwner struct {
	Project
	OwnerFirstName string `json:"owner_first_name"`
	OwnerLastName  string `json:"owner_last_name"`
}
