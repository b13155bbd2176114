// Package repositories implements the data access layer (repository pattern) for the backend.
// Each repository type encapsulates all database queries for a domain entity.
// Handlers never issue SQL directly — all database access goes through this layer, which makes query logic testable in isolation and prevents accidental cross-domain data access.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/taskflow/internal/db/models"
)

const userColumns = `id, email, password_hash, first_name, last_name, avatar_url, phone, bio, role, is_active, last_login_at, created_at, updated_at`

// UserRepository handles user database operations
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.AvatarURL,
		&user.Phone,
		&user.Bio,
		&user.Role,
		&user.IsActive,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser creates a new user
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = uuid.New().String()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, avatar_url, phone, bio, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.AvatarURL,
		user.Phone,
		user.Bio,
		user.Role,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)

	return err
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, userID))
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// UpdateLastLogin stamps the account's last successful login
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID string) error {
	query := `UPDATE users SET last_login_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// ProfilePatch carries the optional fields of a partial profile update.
// Nil fields are left untouched.
type ProfilePatch struct {
	FirstName *string
	LastName  *string
	AvatarURL *string
	Phone     *string
	Bio       *string
}

// IsEmpty returns true when the patch carries no fields
func (p *ProfilePatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.AvatarURL == nil &&
		p.Phone == nil && p.Bio == nil
}

// UpdateProfile applies a partial profile update and records the change as an
// activity log entry in the same transaction
func (r *UserRepository) UpdateProfile(ctx context.Context, userID string, patch *ProfilePatch) (*models.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := `
		UPDATE users
		SET first_name = COALESCE($2, first_name),
		    last_name = COALESCE($3, last_name),
		    avatar_url = COALESCE($4, avatar_url),
		    phone = COALESCE($5, phone),
		    bio = COALESCE($6, bio),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(tx.QueryRowContext(ctx, query,
		userID,
		patch.FirstName,
		patch.LastName,
		patch.AvatarURL,
		patch.Phone,
		patch.Bio,
	))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	if err := insertActivityLogTx(ctx, tx, &models.ActivityLog{
		UserID:     userID,
		Action:     models.ActionProfileUpdated,
		EntityType: "user",
		EntityID:   &userID,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return user, nil
}

// SearchUsers finds active users whose email or name matches the query.
// Results are capped and ordered newest first.
func (r *UserRepository) SearchUsers(ctx context.Context, query string, limit int) ([]*models.UserSummary, error) {
	searchQuery := `
		SELECT id, email, first_name, last_name, avatar_url
		FROM users
		WHERE is_active = TRUE
		  AND (email ILIKE $1 OR first_name ILIKE $1 OR last_name ILIKE $1)
		ORDER BY created_at DESC
		LIMIT $2
	`

	searchPattern := "%" + query + "%"
	rows, err := r.db.QueryContext(ctx, searchQuery, searchPattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.UserSummary, 0)
	for rows.Next() {
		u := &models.UserSummary{}
		err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.AvatarURL)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// ListActiveUsers retrieves all active users, newest first
func (r *UserRepository) ListActiveUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE is_active = TRUE ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// ListActiveUsersWithWorkspaceRole retrieves active users decorated with the
// role and designation they hold in the given workspace, when any
func (r *UserRepository) ListActiveUsersWithWorkspaceRole(ctx context.Context, workspaceID string) ([]*models.EmployeeWithWorkspaceRole, error) {
	query := `
		SELECT u.id, u.email, u.password_hash, u.first_name, u.last_name, u.avatar_url, u.phone, u.bio,
		       u.role, u.is_active, u.last_login_at, u.created_at, u.updated_at,
		       wm.role AS workspace_role, wm.designation
		FROM users u
		LEFT JOIN workspace_members wm ON wm.user_id = u.id AND wm.workspace_id = $1 AND wm.is_active = TRUE
		WHERE u.is_active = TRUE
		ORDER BY u.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]*models.EmployeeWithWorkspaceRole, 0)
	for rows.Next() {
		e := &models.EmployeeWithWorkspaceRole{}
		err := rows.Scan(
			&e.ID,
			&e.Email,
			&e.PasswordHash,
			&e.FirstName,
			&e.LastName,
			&e.AvatarURL,
			&e.Phone,
			&e.Bio,
			&e.Role,
			&e.IsActive,
			&e.LastLoginAt,
			&e.CreatedAt,
			&e.UpdatedAt,
			&e.WorkspaceRole,
			&e.Designation,
		)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}

	return employees, rows.Err()
}

// CreateEmployee creates an employee account and, when a workspace is given,
// enrolls them and records the creation, all in one transaction
func (r *UserRepository) CreateEmployee(ctx context.Context, user *models.User, workspaceID, workspaceRole, designation string, createdBy string) error {
	user.ID = uuid.New().String()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, avatar_url, phone, bio, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = tx.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.AvatarURL,
		user.Phone,
		user.Bio,
		user.Role,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return err
	}

	var logWorkspaceID *string
	if workspaceID != "" {
		memberQuery := `
			INSERT INTO workspace_members (workspace_id, user_id, role, designation, invited_by, is_active, joined_at)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5, TRUE, NOW())
			ON CONFLICT (workspace_id, user_id)
			DO UPDATE SET role = EXCLUDED.role, designation = EXCLUDED.designation, invited_by = EXCLUDED.invited_by, is_active = TRUE
		`
		if _, err := tx.ExecContext(ctx, memberQuery, workspaceID, user.ID, workspaceRole, designation, createdBy); err != nil {
			return err
		}
		logWorkspaceID = &workspaceID
	}

	if err := insertActivityLogTx(ctx, tx, &models.ActivityLog{
		WorkspaceID: logWorkspaceID,
		UserID:      createdBy,
		Action:      models.ActionEmployeeCreated,
		EntityType:  "user",
		EntityID:    &user.ID,
	}); err != nil {
		return err
	}

	return tx.Commit()
}
