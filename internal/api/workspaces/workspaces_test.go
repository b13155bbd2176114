package workspaces

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/taskflow/taskflow/internal/authz"
	"github.com/taskflow/taskflow/internal/config"
	"github.com/taskflow/taskflow/internal/db/models"
	"github.com/taskflow/taskflow/internal/db/repositories"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ---------------------------------------------------------------------------
// Test setup helpers
// ---------------------------------------------------------------------------

var workspaceSQLCols = []string{"id", "owner_id", "name", "description", "is_active", "created_at", "updated_at"}

var memberSQLCols = []string{"workspace_id", "user_id", "role", "designation", "invited_by", "is_active", "joined_at"}

func activeWorkspaceRow() *sqlmock.Rows {
	return sqlmock.NewRows(workspaceSQLCols).
		AddRow("ws-1", "owner", "Acme", nil, true, time.Now(), time.Now())
}

func memberRow(userID, role string) *sqlmock.Rows {
	return sqlmock.NewRows(memberSQLCols).
		AddRow("ws-1", userID, role, nil, nil, true, time.Now())
}

func testUser(id, role string) *models.User {
	return &models.User{ID: id, Email: id + "@example.com", FirstName: "Test", LastName: "User", Role: role, IsActive: true}
}

// newWorkspaceRouter creates a gin router with the workspace routes registered
// behind a middleware injecting the given authenticated user.
func newWorkspaceRouter(t *testing.T, user *models.User) (sqlmock.Sqlmock, *gin.Engine) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	resolver := authz.NewResolver(
		repositories.NewWorkspaceRepository(db),
		repositories.NewChatRepository(db),
	)
	h := NewWorkspaceHandlers(&config.Config{}, db, resolver)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if user != nil {
			c.Set("user", user)
			c.Set("user_id", user.ID)
			c.Set("app_role", user.Role)
		}
		c.Next()
	})
	r.GET("/workspaces", h.ListWorkspacesHandler())
	r.POST("/workspaces", h.CreateWorkspaceHandler())
	r.GET("/workspace-members", h.ListMembersHandler())
	r.POST("/workspace-members", h.AddMemberHandler())

	return mock, r
}

func jsonBody(v interface{}) *bytes.Buffer {
	b, _ := json.Marshal(v)
	return bytes.NewBuffer(b)
}

func getJSON(resp *httptest.ResponseRecorder) map[string]interface{} {
	var m map[string]interface{}
	json.Unmarshal(resp.Body.Bytes(), &m)
	return m
}

func postJSON(r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", path, jsonBody(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

// ---------------------------------------------------------------------------
// ListWorkspacesHandler / CreateWorkspaceHandler
// ---------------------------------------------------------------------------

func TestListWorkspacesHandler(t *testing.T) {
	mock, r := newWorkspaceRouter(t, testUser("user-1", models.AppRoleEmployee))

	mock.ExpectQuery("SELECT.*FROM workspaces.*JOIN workspace_members").
		WithArgs("user-1").
		WillReturnRows(activeWorkspaceRow())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/workspaces", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	workspaces, ok := getJSON(w)["workspaces"].([]interface{})
	if !ok || len(workspaces) != 1 {
		t.Errorf("workspaces = %v, want 1 entry", getJSON(w)["workspaces"])
	}
}

func TestCreateWorkspaceHandler_Success(t *testing.T) {
	mock, r := newWorkspaceRouter(t, testUser("user-1", models.AppRoleAdmin))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO workspaces").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO workspace_members").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := postJSON(r, "/workspaces", CreateWorkspaceRequest{Name: "Acme"})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", w.Code, w.Body.String())
	}
	ws, ok := getJSON(w)["workspace"].(map[string]interface{})
	if !ok {
		t.Fatal("expected workspace object in response")
	}
	if ws["owner_id"] != "user-1" {
		t.Errorf("owner_id = %v, want user-1", ws["owner_id"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateWorkspaceHandler_MissingName(t *testing.T) {
	_, r := newWorkspaceRouter(t, testUser("user-1", models.AppRoleAdmin))
	w := postJSON(r, "/workspaces", map[string]string{"description": "no name"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

// ---------------------------------------------------------------------------
// ListMembersHandler
// ---------------------------------------------------------------------------

func TestListMembersHandler_Success(t *testing.T) {
	mock, r := newWorkspaceRouter(t, testUser("user-1", models.AppRoleEmployee))

	mock.ExpectQuery("SELECT.*FROM workspaces.*WHERE id").
		WithArgs("ws-1").
		WillReturnRows(activeWorkspaceRow())
	mock.ExpectQuery("SELECT.*FROM workspace_members").
		WithArgs("ws-1", "user-1").
		WillReturnRows(memberRow("user-1", "member"))
	cols := []string{"workspace_id", "user_id", "role", "designation", "joined_at", "email", "first_name", "last_name", "avatar_url"}
	mock.ExpectQuery("SELECT.*FROM workspace_members.*JOIN users").
		WithArgs("ws-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("ws-1", "user-1", "member", nil, time.Now(), "test@example.com", "Test", "User", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/workspace-members?workspaceId=ws-1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	members, ok := getJSON(w)["members"].([]interface{})
	if !ok || len(members) != 1 {
		t.Errorf("members = %v, want 1 entry", getJSON(w)["members"])
	}
}

func TestListMembersHandler_MissingWorkspaceID(t *testing.T) {
	_, r := newWorkspaceRouter(t, testUser("user-1", models.AppRoleEmployee))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/workspace-members", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestListMembersHandler_NotAMember(t *testing.T) {
	mock, r := newWorkspaceRouter(t, testUser("outsider", models.AppRoleEmployee))

	mock.ExpectQuery("SELECT.*FROM workspaces.*WHERE id").
		WithArgs("ws-1").
		WillReturnRows(activeWorkspaceRow())
	mock.ExpectQuery("SELECT.*FROM workspace_members").
		WithArgs("ws-1", "outsider").
		WillReturnRows(sqlmock.NewRows(memberSQLCols))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/workspace-members?workspaceId=ws-1", nil))

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

// ---------------------------------------------------------------------------
// AddMemberHandler
// ---------------------------------------------------------------------------

func TestAddMemberHandler_ManagerCanInvite(t *testing.T) {
	mock, r := newWorkspaceRouter(t, testUser("user-1", models.AppRoleEmployee))

	mock.ExpectQuery("SELECT.*FROM workspaces.*WHERE id").
		WithArgs("ws-1").
		WillReturnRows(activeWorkspaceRow())
	mock.ExpectQuery("SELECT.*FROM workspace_members").
		WithArgs("ws-1", "user-1").
		WillReturnRows(memberRow("user-1", "manager"))
	mock.ExpectExec("INSERT INTO workspace_members.*ON CONFLICT").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := postJSON(r, "/workspace-members", AddMemberRequest{
		WorkspaceID: "ws-1",
		UserID:      "user-2",
		Designation: "Designer",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", w.Code, w.Body.String())
	}
	member, ok := getJSON(w)["member"].(map[string]interface{})
	if !ok {
		t.Fatal("expected member object in response")
	}
	if member["role"] != models.WorkspaceRoleMember {
		t.Errorf("role = %v, want member default", member["role"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAddMemberHandler_InvalidRole(t *testing.T) {
	_, r := newWorkspaceRouter(t, testUser("user-1", models.AppRoleEmployee))

	w := postJSON(r, "/workspace-members", AddMemberRequest{
		WorkspaceID: "ws-1",
		UserID:      "user-2",
		Role:        "overlord",
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if getJSON(w)["error"] != "Invalid role" {
		t.Errorf("error = %v", getJSON(w)["error"])
	}
}

func TestAddMemberHandler_PlainMemberForbidden(t *testing.T) {
	mock, r := newWorkspaceRouter(t, testUser("user-1", models.AppRoleEmployee))

	mock.ExpectQuery("SELECT.*FROM workspaces.*WHERE id").
		WithArgs("ws-1").
		WillReturnRows(activeWorkspaceRow())
	mock.ExpectQuery("SELECT.*FROM workspace_members").
		WithArgs("ws-1", "user-1").
		WillReturnRows(memberRow("user-1", "member"))

	w := postJSON(r, "/workspace-members", AddMemberRequest{WorkspaceID: "ws-1", UserID: "user-2"})

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestAddMemberHandler_AppAdminBypass(t *testing.T) {
	mock, r := newWorkspaceRouter(t, testUser("root", models.AppRoleAdmin))

	mock.ExpectQuery("SELECT.*FROM workspaces.*WHERE id").
		WithArgs("ws-1").
		WillReturnRows(activeWorkspaceRow())
	mock.ExpectQuery("SELECT.*FROM workspace_members").
		WithArgs("ws-1", "root").
		WillReturnRows(sqlmock.NewRows(memberSQLCols))
	mock.ExpectExec("INSERT INTO workspace_members.*ON CONFLICT").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := postJSON(r, "/workspace-members", AddMemberRequest{
		WorkspaceID: "ws-1",
		UserID:      "user-2",
		Role:        models.WorkspaceRoleViewer,
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", w.Code, w.Body.String())
	}
}

func TestAddMemberHandler_WorkspaceNotFound(t *testing.T) {
	mock, r := newWorkspaceRouter(t, testUser("user-1", models.AppRoleEmployee))

	mock.ExpectQuery("SELECT.*FROM workspaces.*WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(workspaceSQLCols))

	w := postJSON(r, "/workspace-members", AddMemberRequest{WorkspaceID: "missing", UserID: "user-2"})

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
