package services

import (
	"testing"
	"time"

	"kanza-admin-go/internal/db"
)

func orderOf(items []OrderedItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func TestApplyMove(t *testing.T) {
	items := []OrderedItem{
		{ID: "a", Serial: 1},
		{ID: "b", Serial: 2},
		{ID: "c", Serial: 3},
		{ID: "d", Serial: 4},
	}

	moved := ApplyMove(items, 0, 2)
	want := []string{"b", "c", "a", "d"}
	for i, id := range orderOf(moved) {
		if id != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, id, want[i])
		}
	}
	for i, item := range moved {
		if item.Serial != i+1 {
			t.Errorf("serial at %d: got %d, want %d", i, item.Serial, i+1)
		}
	}

	// moving backwards
	moved = ApplyMove(items, 3, 0)
	if got := orderOf(moved)[0]; got != "d" {
		t.Errorf("expected d first, got %s", got)
	}

	// out of range leaves input untouched
	same := ApplyMove(items, 0, 9)
	if len(same) != 4 || same[0].ID != "a" {
		t.Errorf("out-of-range move should be a no-op")
	}
}

func TestValidateOrder(t *testing.T) {
	existing := []string{"a", "b", "c"}

	ok := []OrderedItem{{ID: "c", Serial: 1}, {ID: "a", Serial: 2}, {ID: "b", Serial: 3}}
	if err := ValidateOrder(ok, existing); err != nil {
		t.Fatalf("valid order rejected: %v", err)
	}

	cases := []struct {
		name      string
		submitted []OrderedItem
	}{
		{"missing item", []OrderedItem{{ID: "a", Serial: 1}, {ID: "b", Serial: 2}}},
		{"unknown item", []OrderedItem{{ID: "a", Serial: 1}, {ID: "b", Serial: 2}, {ID: "x", Serial: 3}}},
		{"duplicate item", []OrderedItem{{ID: "a", Serial: 1}, {ID: "a", Serial: 2}, {ID: "b", Serial: 3}}},
		{"gap in serials", []OrderedItem{{ID: "a", Serial: 1}, {ID: "b", Serial: 2}, {ID: "c", Serial: 4}}},
		{"zero-based serials", []OrderedItem{{ID: "a", Serial: 0}, {ID: "b", Serial: 1}, {ID: "c", Serial: 2}}},
	}
	for _, tc := range cases {
		if err := ValidateOrder(tc.submitted, existing); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestCommitOrderAndNextSerial(t *testing.T) {
	database := db.NewTestDB(t)
	now := time.Now().UTC()
	for i, id := range []string{"a", "b", "c"} {
		_, err := database.Exec(database.Rebind(`
INSERT INTO categories (id, name, description, serial, status, created_at, updated_at)
VALUES (?,?,?,?,?,?,?)
`), id, "Category "+id, "", i+1, "active", now, now)
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	next, err := NextSerial(database, "categories", "", "")
	if err != nil {
		t.Fatalf("next serial: %v", err)
	}
	if next != 4 {
		t.Errorf("next serial: got %d, want 4", next)
	}

	submitted := []OrderedItem{{ID: "c", Serial: 1}, {ID: "a", Serial: 2}, {ID: "b", Serial: 3}}
	if err := CommitOrder(database, "categories", "", "", submitted); err != nil {
		t.Fatalf("commit: %v", err)
	}

	var serial int
	if err := database.Get(&serial, database.Rebind(`SELECT serial FROM categories WHERE id = ?`), "c"); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if serial != 1 {
		t.Errorf("c serial: got %d, want 1", serial)
	}

	// drifted id set must be rejected without partial writes
	drifted := []OrderedItem{{ID: "a", Serial: 1}, {ID: "b", Serial: 2}, {ID: "gone", Serial: 3}}
	if err := CommitOrder(database, "categories", "", "", drifted); err == nil {
		t.Fatal("drifted order accepted")
	}
	if err := database.Get(&serial, database.Rebind(`SELECT serial FROM categories WHERE id = ?`), "c"); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if serial != 1 {
		t.Errorf("serial changed by rejected commit: %d", serial)
	}
}
