package httpapi

import (
	"net/http"
	"testing"

	"kanza-admin-go/internal/models"
)

func TestUserManagementRequiresAdmin(t *testing.T) {
	ts, server := newTestServer(t)
	seedUser(t, server, "editor@example.com", "editor-pass", models.RoleEditor, models.StatusActive)
	editorToken := login(t, ts, "editor@example.com", "editor-pass").AccessToken

	resp := doJSON(t, "GET", ts.URL+"/api/admin/users", editorToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("editor listing users: got %d, want 403", resp.StatusCode)
	}
	resp.Body.Close()

	// editors still reach content routes
	resp = doJSON(t, "GET", ts.URL+"/api/admin/categories", editorToken, nil)
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestUsersCRUD(t *testing.T) {
	ts, _ := newTestServer(t)
	token := adminToken(t, ts)

	resp := doJSON(t, "POST", ts.URL+"/api/admin/users", token, UserCreateRequest{
		Email:    "New.Editor@Example.com",
		Password: "long-enough-pass",
		Role:     "EDITOR",
	})
	wantStatus(t, resp, http.StatusCreated)
	var created UserDTO
	decodeBody(t, resp, &created)
	if created.Email != "new.editor@example.com" {
		t.Errorf("email not normalized: %s", created.Email)
	}

	cases := []struct {
		name string
		req  UserCreateRequest
	}{
		{"bad email", UserCreateRequest{Email: "nope", Password: "long-enough-pass", Role: "EDITOR"}},
		{"short password", UserCreateRequest{Email: "a@b.co", Password: "short", Role: "EDITOR"}},
		{"bad role", UserCreateRequest{Email: "a@b.co", Password: "long-enough-pass", Role: "SUPERUSER"}},
		{"duplicate email", UserCreateRequest{Email: "new.editor@example.com", Password: "long-enough-pass", Role: "EDITOR"}},
	}
	for _, tc := range cases {
		resp := doJSON(t, "POST", ts.URL+"/api/admin/users", token, tc.req)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: got %d, want 400", tc.name, resp.StatusCode)
		}
		resp.Body.Close()
	}

	// role filter
	resp = doJSON(t, "GET", ts.URL+"/api/admin/users?role=EDITOR", token, nil)
	wantStatus(t, resp, http.StatusOK)
	var list struct {
		Data []UserDTO `json:"data"`
	}
	decodeBody(t, resp, &list)
	if len(list.Data) != 1 || list.Data[0].Role != "EDITOR" {
		t.Errorf("role filter: %+v", list.Data)
	}
}

func TestUserSelfGuards(t *testing.T) {
	ts, _ := newTestServer(t)
	session := login(t, ts, testAdminEmail, testAdminPassword)
	token := session.AccessToken
	selfID := session.User.ID

	resp := doJSON(t, "PATCH", ts.URL+"/api/admin/users/"+selfID+"/status", token, StatusRequest{Status: "inactive"})
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = doJSON(t, "DELETE", ts.URL+"/api/admin/users/"+selfID, token, nil)
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	// demoting yourself out of the admin role is blocked too
	resp = doJSON(t, "PUT", ts.URL+"/api/admin/users/"+selfID, token, UserUpdateRequest{
		Email: testAdminEmail,
		Role:  "EDITOR",
	})
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestDeactivatedUserLosesSessions(t *testing.T) {
	ts, server := newTestServer(t)
	adminTok := adminToken(t, ts)
	targetID := seedUser(t, server, "victim@example.com", "victim-pass", models.RoleEditor, models.StatusActive)
	victim := login(t, ts, "victim@example.com", "victim-pass")

	resp := doJSON(t, "PATCH", ts.URL+"/api/admin/users/"+targetID+"/status", adminTok, StatusRequest{Status: "inactive"})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	// the refresh token is revoked, so the session cannot be renewed
	resp = doJSON(t, "POST", ts.URL+"/api/auth/refresh", "", RefreshRequest{RefreshToken: victim.RefreshToken})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("refresh after deactivation: got %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestDashboard(t *testing.T) {
	ts, _ := newTestServer(t)
	token := adminToken(t, ts)
	category := createCategory(t, ts, token, "Stats")
	createCourse(t, ts, token, category.ID, "Counted course")

	resp := doJSON(t, "GET", ts.URL+"/api/admin/dashboard", token, nil)
	wantStatus(t, resp, http.StatusOK)
	var dashboard DashboardResponse
	decodeBody(t, resp, &dashboard)
	if dashboard.Counts.Categories != 1 || dashboard.Counts.Courses != 1 {
		t.Errorf("dashboard counts: %+v", dashboard.Counts)
	}
	if dashboard.Counts.Users != 1 {
		t.Errorf("user count: %d", dashboard.Counts.Users)
	}
}
