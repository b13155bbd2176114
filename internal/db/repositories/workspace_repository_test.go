package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/taskflow/taskflow/internal/db/models"
)

var workspaceCols = []string{"id", "owner_id", "name", "description", "is_active", "created_at", "updated_at"}

var memberCols = []string{"workspace_id", "user_id", "role", "designation", "invited_by", "is_active", "joined_at"}

func sampleWorkspaceRow() *sqlmock.Rows {
	return sqlmock.NewRows(workspaceCols).
		AddRow("ws-1", "user-1", "Acme", nil, true, time.Now(), time.Now())
}

func newWorkspaceRepo(t *testing.T) (*WorkspaceRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewWorkspaceRepository(db), mock
}

// ---------------------------------------------------------------------------
// CreateWorkspace
// ---------------------------------------------------------------------------

func TestCreateWorkspace_EnrollsOwner(t *testing.T) {
	repo, mock := newWorkspaceRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO workspaces").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO workspace_members").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ws := &models.Workspace{Name: "Acme", OwnerID: "user-1"}
	if err := repo.CreateWorkspace(context.Background(), ws); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ws.ID == "" {
		t.Error("expected generated ID")
	}
	if !ws.IsActive {
		t.Error("expected workspace to be active")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateWorkspace_MemberInsertFails(t *testing.T) {
	repo, mock := newWorkspaceRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO workspaces").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO workspace_members").
		WillReturnError(errDB)
	mock.ExpectRollback()

	ws := &models.Workspace{Name: "Acme", OwnerID: "user-1"}
	if err := repo.CreateWorkspace(context.Background(), ws); err == nil {
		t.Error("expected error, got nil")
	}
}

// ---------------------------------------------------------------------------
// GetWorkspaceByID / ListWorkspacesForUser
// ---------------------------------------------------------------------------

func TestGetWorkspaceByID_Found(t *testing.T) {
	repo, mock := newWorkspaceRepo(t)
	mock.ExpectQuery("SELECT.*FROM workspaces.*WHERE id").
		WithArgs("ws-1").
		WillReturnRows(sampleWorkspaceRow())

	ws, err := repo.GetWorkspaceByID(context.Background(), "ws-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ws == nil || ws.ID != "ws-1" {
		t.Fatalf("expected ws-1, got %v", ws)
	}
}

func TestGetWorkspaceByID_NotFound(t *testing.T) {
	repo, mock := newWorkspaceRepo(t)
	mock.ExpectQuery("SELECT.*FROM workspaces.*WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(workspaceCols))

	ws, err := repo.GetWorkspaceByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ws != nil {
		t.Errorf("expected nil workspace, got %v", ws)
	}
}

func TestListWorkspacesForUser(t *testing.T) {
	repo, mock := newWorkspaceRepo(t)
	rows := sqlmock.NewRows(workspaceCols).
		AddRow("ws-2", "user-1", "Beta", nil, true, time.Now(), time.Now()).
		AddRow("ws-1", "user-1", "Acme", nil, true, time.Now(), time.Now())

	mock.ExpectQuery("SELECT.*FROM workspaces.*JOIN workspace_members").
		WithArgs("user-1").
		WillReturnRows(rows)

	workspaces, err := repo.ListWorkspacesForUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(workspaces) != 2 {
		t.Errorf("len = %d, want 2", len(workspaces))
	}
}

// ---------------------------------------------------------------------------
// GetMember / UpsertMember
// ---------------------------------------------------------------------------

func TestGetMember_Found(t *testing.T) {
	repo, mock := newWorkspaceRepo(t)
	rows := sqlmock.NewRows(memberCols).
		AddRow("ws-1", "user-1", "manager", nil, nil, true, time.Now())

	mock.ExpectQuery("SELECT.*FROM workspace_members.*is_active = TRUE").
		WithArgs("ws-1", "user-1").
		WillReturnRows(rows)

	m, err := repo.GetMember(context.Background(), "ws-1", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m == nil {
		t.Fatal("expected member, got nil")
	}
	if !m.CanManageWorkspace() {
		t.Error("manager should be able to manage the workspace")
	}
}

func TestGetMember_NotFound(t *testing.T) {
	repo, mock := newWorkspaceRepo(t)
	mock.ExpectQuery("SELECT.*FROM workspace_members").
		WithArgs("ws-1", "outsider").
		WillReturnRows(sqlmock.NewRows(memberCols))

	m, err := repo.GetMember(context.Background(), "ws-1", "outsider")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m != nil {
		t.Errorf("expected nil member, got %v", m)
	}
}

func TestUpsertMember(t *testing.T) {
	repo, mock := newWorkspaceRepo(t)
	mock.ExpectExec("INSERT INTO workspace_members.*ON CONFLICT").
		WillReturnResult(sqlmock.NewResult(0, 1))

	m := &models.WorkspaceMember{WorkspaceID: "ws-1", UserID: "user-2", Role: models.WorkspaceRoleMember}
	if err := repo.UpsertMember(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.IsActive {
		t.Error("upsert should mark the membership active")
	}
}

// ---------------------------------------------------------------------------
// ListMembersWithUsers / CountActiveMembers
// ---------------------------------------------------------------------------

func TestListMembersWithUsers(t *testing.T) {
	repo, mock := newWorkspaceRepo(t)
	cols := []string{"workspace_id", "user_id", "role", "designation", "joined_at", "email", "first_name", "last_name", "avatar_url"}
	rows := sqlmock.NewRows(cols).
		AddRow("ws-1", "user-1", "admin", nil, time.Now(), "alice@example.com", "Alice", "Nguyen", nil)

	mock.ExpectQuery("SELECT.*FROM workspace_members.*JOIN users").
		WithArgs("ws-1").
		WillReturnRows(rows)

	members, err := repo.ListMembersWithUsers(context.Background(), "ws-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("len = %d, want 1", len(members))
	}
	if members[0].Email != "alice@example.com" {
		t.Errorf("email = %s", members[0].Email)
	}
}

func TestCountActiveMembers(t *testing.T) {
	repo, mock := newWorkspaceRepo(t)
	mock.ExpectQuery("SELECT COUNT.*FROM workspace_members").
		WithArgs("ws-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	total, err := repo.CountActiveMembers(context.Background(), "ws-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 4 {
		t.Errorf("total = %d, want 4", total)
	}
}
