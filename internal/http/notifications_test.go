package httpapi

import (
	"net/http"
	"testing"
	"time"

	"kanza-admin-go/internal/services"
)

func TestNotificationsFlow(t *testing.T) {
	ts, server := newTestServer(t)
	token := adminToken(t, ts)
	future := time.Now().UTC().Add(time.Hour).Truncate(time.Second)

	resp := doJSON(t, "POST", ts.URL+"/api/admin/notifications", token, NotificationUpsertRequest{
		Title:       "Sale starts",
		Body:        "Half price this weekend",
		ScheduledAt: future,
	})
	wantStatus(t, resp, http.StatusCreated)
	var created NotificationDTO
	decodeBody(t, resp, &created)
	if created.Delivery != "pending" || created.Read {
		t.Fatalf("unexpected notification: %+v", created)
	}

	// past schedules are rejected
	resp = doJSON(t, "POST", ts.URL+"/api/admin/notifications", token, NotificationUpsertRequest{
		Title:       "Too late",
		Body:        "x",
		ScheduledAt: time.Now().UTC().Add(-time.Hour),
	})
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	// read toggle, both directions
	resp = doJSON(t, "PATCH", ts.URL+"/api/admin/notifications/"+created.ID+"/read", token, ReadRequest{Read: true})
	wantStatus(t, resp, http.StatusOK)
	var marked NotificationDTO
	decodeBody(t, resp, &marked)
	if !marked.Read {
		t.Error("read flag not set")
	}
	resp = doJSON(t, "PATCH", ts.URL+"/api/admin/notifications/"+created.ID+"/read", token, ReadRequest{Read: true})
	wantStatus(t, resp, http.StatusOK)
	decodeBody(t, resp, &marked)
	if !marked.Read {
		t.Error("repeated read toggle flipped the flag")
	}

	// read filter
	resp = doJSON(t, "GET", ts.URL+"/api/admin/notifications?read=false", token, nil)
	wantStatus(t, resp, http.StatusOK)
	var unread struct {
		Data []NotificationDTO `json:"data"`
	}
	decodeBody(t, resp, &unread)
	if len(unread.Data) != 0 {
		t.Errorf("read notification in unread filter: %+v", unread.Data)
	}

	// once the sweep delivers it, the notification can no longer be edited
	if _, err := services.MarkDueNotificationsSent(server.DB, future.Add(time.Minute)); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	resp = doJSON(t, "PUT", ts.URL+"/api/admin/notifications/"+created.ID, token, NotificationUpsertRequest{
		Title:       "Edited",
		Body:        "x",
		ScheduledAt: future.Add(2 * time.Hour),
	})
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestPagesFlow(t *testing.T) {
	ts, _ := newTestServer(t)
	token := adminToken(t, ts)
	text := "Who we are"

	resp := doJSON(t, "POST", ts.URL+"/api/admin/pages", token, map[string]interface{}{
		"title": "About Us",
		"content": []map[string]string{
			{"type": "TEXT", "text": text},
		},
	})
	wantStatus(t, resp, http.StatusCreated)
	var created PageDTO
	decodeBody(t, resp, &created)
	if created.Slug != "about-us" || len(created.Content) != 1 {
		t.Fatalf("unexpected page: %+v", created)
	}

	// same title gets a suffixed slug
	resp = doJSON(t, "POST", ts.URL+"/api/admin/pages", token, map[string]interface{}{"title": "About Us"})
	wantStatus(t, resp, http.StatusCreated)
	var twin PageDTO
	decodeBody(t, resp, &twin)
	if twin.Slug != "about-us-2" {
		t.Errorf("twin slug: %s", twin.Slug)
	}

	// renaming keeps the slug stable
	resp = doJSON(t, "PUT", ts.URL+"/api/admin/pages/"+created.ID, token, map[string]interface{}{"title": "About the Team"})
	wantStatus(t, resp, http.StatusOK)
	var renamed PageDTO
	decodeBody(t, resp, &renamed)
	if renamed.Slug != "about-us" {
		t.Errorf("slug changed on rename: %s", renamed.Slug)
	}

	// a media block without an asset is rejected
	resp = doJSON(t, "PUT", ts.URL+"/api/admin/pages/"+created.ID, token, map[string]interface{}{
		"title":   "About the Team",
		"content": []map[string]string{{"type": "IMAGE"}},
	})
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	// public route serves active pages only
	pubResp, _ := http.Get(ts.URL + "/api/public/pages/about-us")
	wantStatus(t, pubResp, http.StatusOK)
	pubResp.Body.Close()

	resp = doJSON(t, "PATCH", ts.URL+"/api/admin/pages/"+created.ID+"/status", token, StatusRequest{Status: "inactive"})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	pubResp, _ = http.Get(ts.URL + "/api/public/pages/about-us")
	if pubResp.StatusCode != http.StatusNotFound {
		t.Errorf("inactive page public fetch: got %d, want 404", pubResp.StatusCode)
	}
	pubResp.Body.Close()
}

func TestPublicCategories(t *testing.T) {
	ts, _ := newTestServer(t)
	token := adminToken(t, ts)
	active := createCategory(t, ts, token, "Visible")
	hidden := createCategory(t, ts, token, "Hidden")

	resp := doJSON(t, "PATCH", ts.URL+"/api/admin/categories/"+hidden.ID+"/status", token, StatusRequest{Status: "inactive"})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	pubResp, _ := http.Get(ts.URL + "/api/public/categories")
	wantStatus(t, pubResp, http.StatusOK)
	var pub struct {
		Data []CategoryDTO `json:"data"`
	}
	decodeBody(t, pubResp, &pub)
	if len(pub.Data) != 1 || pub.Data[0].ID != active.ID {
		t.Errorf("public categories: %+v", pub.Data)
	}
}
