// Package models - user.go defines the User model for application accounts with
// credentials, profile fields, and the application-level role used for admin gating.
package models

import "time"

// Application roles. Role is global to the account and independent of
// any per-workspace role.
const (
	AppRoleAdmin    = "admin"
	AppRoleManager  = "manager"
	AppRoleEmployee = "employee"
)

// User represents an account in the system
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	AvatarURL    *string    `json:"avatar_url"`
	Phone        *string    `json:"phone"`
	Bio          *string    `json:"bio"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsAppAdmin returns true when the account holds the application admin role
func (u *User) IsAppAdmin() bool {
	return u.Role == AppRoleAdmin
}

// UserSummary is the trimmed user view returned by search and member listings
type UserSummary struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	AvatarURL *string `json:"avatar_url"`
}

// EmployeeWithWorkspaceRole decorates a user row with the role and designation
// they hold in a specific workspace, when an employee listing is scoped to one
type EmployeeWithWorkspaceRole struct {
	User
	WorkspaceRole *string `json:"workspace_role"`
	Designation   *string `json:"designation"`
}
