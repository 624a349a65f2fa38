package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kanza-admin-go/internal/cache"
	"kanza-admin-go/internal/config"
	"kanza-admin-go/internal/db"
	"kanza-admin-go/internal/models"
	"kanza-admin-go/internal/services"

	"github.com/google/uuid"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "admin-password"
)

func testConfig(t *testing.T) config.Config {
	return config.Config{
		JWTSecret:            "test-secret",
		JWTIssuer:            "kanza-admin-test",
		AccessTTLSeconds:     3600,
		RefreshTTLSeconds:    86400,
		MediaStoragePath:     t.TempDir(),
		PublicBaseURL:        "http://media.test",
		CacheTTLSeconds:      60,
		MetricsSampleSeconds: 60,
	}
}

func seedUser(t *testing.T, server *Server, email, password string, role models.Role, status models.Status) string {
	t.Helper()
	hash, err := server.Tokens.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC()
	id := uuid.NewString()
	_, err = server.DB.Exec(server.DB.Rebind(`
INSERT INTO users (id, email, password_hash, first_name, last_name, role, status, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?)
`), id, email, hash, nil, nil, role, status, now, now)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

func newTestServer(t *testing.T) (*httptest.Server, *Server) {
	t.Helper()
	database := db.NewTestDB(t)
	cfg := testConfig(t)
	store := cache.NewMemoryStore(time.Duration(cfg.CacheTTLSeconds) * time.Second)
	hub := services.NewMetricsHub()
	server := NewServer(database, cfg, store, hub)
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	seedUser(t, server, testAdminEmail, testAdminPassword, models.RoleAdmin, models.StatusActive)
	return ts, server
}

func login(t *testing.T, ts *httptest.Server, email, password string) SessionResponse {
	t.Helper()
	body, _ := json.Marshal(LoginRequest{Email: email, Password: password})
	resp, err := http.Post(ts.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}
	var session SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return session
}

func adminToken(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	return login(t, ts, testAdminEmail, testAdminPassword).AccessToken
}

func doJSON(t *testing.T, method, url, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func wantStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("status %d, want %d (body: %s)", resp.StatusCode, want, data)
	}
}

func TestLoginEndpoint(t *testing.T) {
	ts, server := newTestServer(t)

	session := login(t, ts, testAdminEmail, testAdminPassword)
	if session.AccessToken == "" || session.RefreshToken == "" {
		t.Fatal("empty tokens in session")
	}
	if session.User.Email != testAdminEmail {
		t.Errorf("session user email: %s", session.User.Email)
	}

	body, _ := json.Marshal(LoginRequest{Email: testAdminEmail, Password: "wrong"})
	resp, _ := http.Post(ts.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad password: got %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()

	seedUser(t, server, "off@example.com", "password123", models.RoleEditor, models.StatusInactive)
	body, _ = json.Marshal(LoginRequest{Email: "off@example.com", Password: "password123"})
	resp, _ = http.Post(ts.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("inactive account: got %d, want 403", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRefreshAndLogout(t *testing.T) {
	ts, _ := newTestServer(t)
	session := login(t, ts, testAdminEmail, testAdminPassword)

	resp := doJSON(t, "POST", ts.URL+"/api/auth/refresh", "", RefreshRequest{RefreshToken: session.RefreshToken})
	wantStatus(t, resp, http.StatusOK)
	var refreshed SessionResponse
	decodeBody(t, resp, &refreshed)
	if refreshed.AccessToken == "" {
		t.Fatal("refresh returned empty access token")
	}

	resp = doJSON(t, "POST", ts.URL+"/api/auth/logout", "", RefreshRequest{RefreshToken: session.RefreshToken})
	wantStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	// a revoked refresh token stops working even though the JWT is still valid
	resp = doJSON(t, "POST", ts.URL+"/api/auth/refresh", "", RefreshRequest{RefreshToken: session.RefreshToken})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("revoked refresh: got %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAuthRequired(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := http.Get(ts.URL + "/api/admin/categories")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token: got %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, "GET", ts.URL+"/api/admin/categories", "not-a-token", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("garbage token: got %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	ts, _ := newTestServer(t)
	session := login(t, ts, testAdminEmail, testAdminPassword)

	resp := doJSON(t, "GET", ts.URL+"/api/admin/categories", session.RefreshToken, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("refresh token on admin route: got %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}
