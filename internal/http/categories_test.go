package httpapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"kanza-admin-go/internal/services"
)

func createCategory(t *testing.T, ts *httptest.Server, token, name string) CategoryDTO {
	t.Helper()
	resp := doJSON(t, "POST", ts.URL+"/api/admin/categories", token, CategoryUpsertRequest{
		Name:        name,
		Description: "About " + name,
	})
	wantStatus(t, resp, http.StatusCreated)
	var created CategoryDTO
	decodeBody(t, resp, &created)
	return created
}

func TestCategoriesCRUD(t *testing.T) {
	ts, _ := newTestServer(t)
	token := adminToken(t, ts)

	created := createCategory(t, ts, token, "Mathematics")
	if created.ID == "" || created.Serial != 1 {
		t.Fatalf("unexpected created category: %+v", created)
	}

	second := createCategory(t, ts, token, "Physics")
	if second.Serial != 2 {
		t.Errorf("second category serial: got %d, want 2", second.Serial)
	}

	// duplicate names are rejected case-insensitively
	resp := doJSON(t, "POST", ts.URL+"/api/admin/categories", token, CategoryUpsertRequest{Name: "mathematics"})
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	// missing name
	resp = doJSON(t, "POST", ts.URL+"/api/admin/categories", token, CategoryUpsertRequest{Name: "   "})
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = doJSON(t, "GET", ts.URL+"/api/admin/categories", token, nil)
	wantStatus(t, resp, http.StatusOK)
	var list struct {
		Data       []CategoryDTO       `json:"data"`
		Pagination services.Pagination `json:"pagination"`
	}
	decodeBody(t, resp, &list)
	if len(list.Data) != 2 {
		t.Fatalf("listed %d categories, want 2", len(list.Data))
	}
	if list.Pagination.Total != 2 || list.Pagination.TotalPage != 1 {
		t.Errorf("pagination: %+v", list.Pagination)
	}
	if list.Data[0].Name != "Mathematics" {
		t.Errorf("list not ordered by serial: %s first", list.Data[0].Name)
	}

	// update keeps the serial
	resp = doJSON(t, "PUT", ts.URL+"/api/admin/categories/"+created.ID, token, CategoryUpsertRequest{
		Name:        "Applied Mathematics",
		Description: "Renamed",
	})
	wantStatus(t, resp, http.StatusOK)
	var updated CategoryDTO
	decodeBody(t, resp, &updated)
	if updated.Name != "Applied Mathematics" || updated.Serial != 1 {
		t.Errorf("update result: %+v", updated)
	}

	resp = doJSON(t, "GET", ts.URL+"/api/admin/categories/"+created.ID, token, nil)
	wantStatus(t, resp, http.StatusOK)
	var fetched CategoryDTO
	decodeBody(t, resp, &fetched)
	if fetched.Name != "Applied Mathematics" {
		t.Errorf("stale detail after update: %s", fetched.Name)
	}

	resp = doJSON(t, "DELETE", ts.URL+"/api/admin/categories/"+second.ID, token, nil)
	wantStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = doJSON(t, "GET", ts.URL+"/api/admin/categories/"+second.ID, token, nil)
	wantStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestCategoryStatusToggle(t *testing.T) {
	ts, _ := newTestServer(t)
	token := adminToken(t, ts)
	created := createCategory(t, ts, token, "History")

	resp := doJSON(t, "PATCH", ts.URL+"/api/admin/categories/"+created.ID+"/status", token, StatusRequest{Status: "inactive"})
	wantStatus(t, resp, http.StatusOK)
	var toggled CategoryDTO
	decodeBody(t, resp, &toggled)
	if toggled.Status != "inactive" {
		t.Fatalf("status after toggle: %s", toggled.Status)
	}

	// repeating the same status is a no-op, not an error
	resp = doJSON(t, "PATCH", ts.URL+"/api/admin/categories/"+created.ID+"/status", token, StatusRequest{Status: "inactive"})
	wantStatus(t, resp, http.StatusOK)
	decodeBody(t, resp, &toggled)
	if toggled.Status != "inactive" {
		t.Errorf("idempotent toggle changed status: %s", toggled.Status)
	}

	resp = doJSON(t, "PATCH", ts.URL+"/api/admin/categories/"+created.ID+"/status", token, StatusRequest{Status: "archived"})
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestCategoryReorder(t *testing.T) {
	ts, _ := newTestServer(t)
	token := adminToken(t, ts)
	a := createCategory(t, ts, token, "Alpha")
	b := createCategory(t, ts, token, "Beta")
	c := createCategory(t, ts, token, "Gamma")

	order := []services.OrderedItem{
		{ID: c.ID, Serial: 1},
		{ID: a.ID, Serial: 2},
		{ID: b.ID, Serial: 3},
	}
	resp := doJSON(t, "PUT", ts.URL+"/api/admin/categories/order", token, order)
	wantStatus(t, resp, http.StatusOK)
	var committed []CategoryDTO
	decodeBody(t, resp, &committed)
	if len(committed) != 3 || committed[0].ID != c.ID {
		t.Fatalf("committed order wrong: %+v", committed)
	}

	// a reorder built against a stale item set is rejected
	drifted := []services.OrderedItem{
		{ID: c.ID, Serial: 1},
		{ID: a.ID, Serial: 2},
		{ID: "deleted-elsewhere", Serial: 3},
	}
	resp = doJSON(t, "PUT", ts.URL+"/api/admin/categories/order", token, drifted)
	wantStatus(t, resp, http.StatusConflict)
	resp.Body.Close()

	// order survives the rejection
	resp = doJSON(t, "GET", ts.URL+"/api/admin/categories", token, nil)
	wantStatus(t, resp, http.StatusOK)
	var after struct {
		Data []CategoryDTO `json:"data"`
	}
	decodeBody(t, resp, &after)
	if after.Data[0].ID != c.ID {
		t.Errorf("order drifted after rejected commit")
	}
}

func TestCategoryDeleteGuard(t *testing.T) {
	ts, server := newTestServer(t)
	token := adminToken(t, ts)
	created := createCategory(t, ts, token, "Guarded")

	resp := doJSON(t, "POST", ts.URL+"/api/admin/courses", token, CourseUpsertRequest{
		CategoryID: created.ID,
		Title:      "Attached course",
	})
	wantStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = doJSON(t, "DELETE", ts.URL+"/api/admin/categories/"+created.ID, token, nil)
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	var count int
	_ = server.DB.Get(&count, `SELECT COUNT(*) FROM categories`)
	if count != 1 {
		t.Errorf("guarded category deleted anyway")
	}
}

func TestCategoryMultipartCreate(t *testing.T) {
	ts, _ := newTestServer(t)
	token := adminToken(t, ts)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	payload, _ := json.Marshal(CategoryUpsertRequest{Name: "With Image", Description: "multipart"})
	_ = writer.WriteField("data", string(payload))
	part, _ := writer.CreateFormFile("image", "cover.png")
	_, _ = part.Write([]byte("png-bytes"))
	_ = writer.Close()

	req, _ := http.NewRequest("POST", ts.URL+"/api/admin/categories", &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("multipart create: %v", err)
	}
	wantStatus(t, resp, http.StatusCreated)
	var created CategoryDTO
	decodeBody(t, resp, &created)
	if created.ImageURL == nil {
		t.Fatal("image url missing after upload")
	}

	// the stored file is served back through the media route
	mediaResp, err := http.Get(ts.URL + trimBaseURL(*created.ImageURL))
	if err != nil {
		t.Fatalf("fetch media: %v", err)
	}
	defer mediaResp.Body.Close()
	if mediaResp.StatusCode != http.StatusOK {
		t.Errorf("media fetch: got %d", mediaResp.StatusCode)
	}

	// an update without a file part keeps the stored image
	resp = doJSON(t, "PUT", ts.URL+"/api/admin/categories/"+created.ID, token, CategoryUpsertRequest{
		Name:        "With Image",
		Description: "edited",
	})
	wantStatus(t, resp, http.StatusOK)
	var updated CategoryDTO
	decodeBody(t, resp, &updated)
	if updated.ImageURL == nil {
		t.Error("image dropped by fileless update")
	}

	// removeImage clears it
	resp = doJSON(t, "PUT", ts.URL+"/api/admin/categories/"+created.ID, token, CategoryUpsertRequest{
		Name:        "With Image",
		RemoveImage: true,
	})
	wantStatus(t, resp, http.StatusOK)
	decodeBody(t, resp, &updated)
	if updated.ImageURL != nil {
		t.Error("image survived removeImage")
	}
}

// trimBaseURL strips the configured public base so the path can be resolved
// against the test server.
func trimBaseURL(url string) string {
	const base = "http://media.test"
	if len(url) > len(base) && url[:len(base)] == base {
		return url[len(base):]
	}
	return url
}

func TestCategorySearchMatchesLiterally(t *testing.T) {
	ts, _ := newTestServer(t)
	token := adminToken(t, ts)
	discounted := createCategory(t, ts, token, "Sale 50% Off")
	createCategory(t, ts, token, "Plain")

	resp := doJSON(t, "GET", ts.URL+"/api/admin/categories?search="+url.QueryEscape("50%"), token, nil)
	wantStatus(t, resp, http.StatusOK)
	var list struct {
		Data []CategoryDTO `json:"data"`
	}
	decodeBody(t, resp, &list)
	if len(list.Data) != 1 || list.Data[0].ID != discounted.ID {
		t.Fatalf("percent search: %+v", list.Data)
	}

	// a lone metacharacter is a literal, not a match-everything wildcard
	resp = doJSON(t, "GET", ts.URL+"/api/admin/categories?search="+url.QueryEscape("_"), token, nil)
	wantStatus(t, resp, http.StatusOK)
	decodeBody(t, resp, &list)
	if len(list.Data) != 0 {
		t.Errorf("underscore search matched %d categories, want 0", len(list.Data))
	}
}
