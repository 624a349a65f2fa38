package services

import (
	"encoding/json"
	"testing"
	"time"

	"kanza-admin-go/internal/db"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"About Us", "about-us"},
		{"  Terms & Conditions  ", "terms-conditions"},
		{"FAQ", "faq"},
		{"already-slugged", "already-slugged"},
		{"Multiple   spaces!!", "multiple-spaces"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	// unusable titles still produce a non-empty slug
	if got := Slugify("!!!"); got == "" {
		t.Error("empty slug for symbol-only title")
	}
}

func TestResolvePageSlug(t *testing.T) {
	database := db.NewTestDB(t)
	now := time.Now().UTC()

	slug, err := ResolvePageSlug(database, "About Us")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if slug != "about-us" {
		t.Fatalf("got %q, want about-us", slug)
	}

	_, err = database.Exec(database.Rebind(`
INSERT INTO pages (id, slug, title, content, status, created_at, updated_at)
VALUES (?,?,?,?,?,?,?)
`), "p1", "about-us", "About Us", "[]", "active", now, now)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	slug, err = ResolvePageSlug(database, "About Us")
	if err != nil {
		t.Fatalf("resolve taken: %v", err)
	}
	if slug != "about-us-2" {
		t.Errorf("got %q, want about-us-2", slug)
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"admin@example.com", "a.b+c@sub.domain.io", " spaced@example.com "}
	for _, email := range valid {
		if !ValidEmail(email) {
			t.Errorf("%q rejected", email)
		}
	}
	invalid := []string{"", "plain", "no@tld", "two@@example.com", "spa ce@example.com"}
	for _, email := range invalid {
		if ValidEmail(email) {
			t.Errorf("%q accepted", email)
		}
	}
}

func TestValidateBlocks(t *testing.T) {
	text := "Welcome"
	asset := "asset-1"
	raw, _ := json.Marshal([]Block{
		{Type: "text", Text: &text},
		{Type: "BOGUS", Text: &text},
		{Type: "IMAGE", AssetID: &asset},
	})
	blocks, err := ValidateBlocks(raw)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2 (unknown type dropped)", len(blocks))
	}
	if blocks[0].Type != "TEXT" || blocks[1].Type != "IMAGE" {
		t.Errorf("unexpected block types: %s, %s", blocks[0].Type, blocks[1].Type)
	}

	// media block without an asset is an error, not a silent drop
	raw, _ = json.Marshal([]Block{{Type: "VIDEO"}})
	if _, err := ValidateBlocks(raw); err == nil {
		t.Error("media block without asset accepted")
	}

	// empty payload is an empty page
	blocks, err = ValidateBlocks(nil)
	if err != nil || len(blocks) != 0 {
		t.Errorf("empty payload: blocks=%v err=%v", blocks, err)
	}

	if _, err := ValidateBlocks(json.RawMessage(`{not json`)); err == nil {
		t.Error("malformed payload accepted")
	}
}

func TestMarkDueNotificationsSent(t *testing.T) {
	database := db.NewTestDB(t)
	now := time.Now().UTC()
	seed := func(id string, scheduledAt time.Time, delivery, status string) {
		_, err := database.Exec(database.Rebind(`
INSERT INTO notifications (id, title, body, scheduled_at, delivery, is_read, status, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?)
`), id, "T", "B", scheduledAt, delivery, false, status, now, now)
		if err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}
	seed("due", now.Add(-time.Minute), "pending", "active")
	seed("future", now.Add(time.Hour), "pending", "active")
	seed("inactive", now.Add(-time.Minute), "pending", "inactive")
	seed("already", now.Add(-time.Minute), "sent", "active")

	sent, err := MarkDueNotificationsSent(database, now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if sent != 1 {
		t.Fatalf("flipped %d rows, want 1", sent)
	}
	var delivery string
	if err := database.Get(&delivery, database.Rebind(`SELECT delivery FROM notifications WHERE id = ?`), "due"); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if delivery != "sent" {
		t.Errorf("due notification delivery: %q", delivery)
	}
	if err := database.Get(&delivery, database.Rebind(`SELECT delivery FROM notifications WHERE id = ?`), "future"); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if delivery != "pending" {
		t.Errorf("future notification flipped early: %q", delivery)
	}
}

func TestValidateSchedule(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := ValidateSchedule(now.Add(time.Minute), now); err != nil {
		t.Errorf("future schedule rejected: %v", err)
	}
	if err := ValidateSchedule(now.Add(-time.Minute), now); err == nil {
		t.Error("past schedule accepted")
	}
}

func TestLikeContains(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain", "%plain%"},
		{"50%", `%50\%%`},
		{"snake_case", `%snake\_case%`},
		{`back\slash`, `%back\\slash%`},
	}
	for _, tc := range cases {
		if got := LikeContains(tc.in); got != tc.want {
			t.Errorf("LikeContains(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
