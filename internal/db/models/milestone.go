// Package models - milestone.go defines the Milestone model and the enriched view
// joining project and creator names for milestone listings.
package models

import "time"

// Milestone statuses. Transitions are unrestricted.
const (
	MilestoneStatusPending    = "pending"
	MilestoneStatusInProgress = "in_progress"
	MilestoneStatusCompleted  = "completed"
)

// Milestone represents a milestone within a project
type Milestone struct {
	ID                 string     `json:"id"`
	ProjectID          string     `json:"project_id"`
	WorkspaceID        string     `json:"workspace_id"`
	Title              string     `json:"title"`
	Description        *string    `json:"description"`
	DueDate            *time.Time `json:"due_date"`
	Status             string     `json:"status"`
	ProgressPercentage int        `json:"progress_percentage"`
	CreatedBy          string     `json:"created_by"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// MilestoneWithDetails includes the project name and creator name for listings
type MilestoneWithDetails struct {
	Milestone
	ProjectName      string `json:"project_name"`
	CreatorFirstName string `json:"creator_first_name"`
	CreatorLastName  string `json:"creator_last_name"`
}

// MilestonePatch carries the optional fields of a partial milestone update.
// Nil fields are left untouched.
type MilestonePatch struct {
	Title              *string    `json:"title"`
	Description        *string    `json:"description"`
	DueDate            *time.Time `json:"due_date"`
	Status             *string    `json:"status"`
	ProgressPercentage *int       `json:"progress_percentage"`
}

// IsEmpty returns true when the patch carries no fields
func (p *MilestonePatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil &&
		p.Status == nil && p.ProgressPercentage == nil
}
