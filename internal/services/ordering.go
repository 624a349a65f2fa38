package services

import (
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
)

// OrderedItem pairs an entity id with its display position. Serials are
// 1-based and unique within their scope.
type OrderedItem struct {
	ID     string `json:"id"`
	Serial int    `json:"serial"`
}

// ApplyMove moves the item at index from to index to, shifting the items in
// between. Every other item keeps its relative order; serials are rewritten
// to match the 1-based index.
func ApplyMove(items []OrderedItem, from, to int) []OrderedItem {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return items
	}
	result := make([]OrderedItem, 0, len(items))
	result = append(result, items[:from]...)
	result = append(result, items[from+1:]...)
	moved := items[from]
	result = append(result[:to], append([]OrderedItem{moved}, result[to:]...)...)
	for i := range result {
		result[i].Serial = i + 1
	}
	return result
}

// ValidateOrder checks that submitted is a full 1..N ordering of exactly the
// ids in existing. A drifted id set means the scope changed under the caller
// and the commit must be rejected rather than partially applied.
func ValidateOrder(submitted []OrderedItem, existing []string) error {
	if len(submitted) != len(existing) {
		return ErrConflict("The submitted order no longer matches the current items")
	}
	current := make(map[string]bool, len(existing))
	for _, id := range existing {
		current[id] = true
	}
	seen := make(map[string]bool, len(submitted))
	serials := make([]int, 0, len(submitted))
	for _, item := range submitted {
		if !current[item.ID] {
			return ErrConflict("The submitted order no longer matches the current items")
		}
		if seen[item.ID] {
			return ErrBadRequest("Duplicate item in order payload")
		}
		seen[item.ID] = true
		serials = append(serials, item.Serial)
	}
	sort.Ints(serials)
	for i, serial := range serials {
		if serial != i+1 {
			return ErrBadRequest("Order positions must be sequential starting at 1")
		}
	}
	return nil
}

// CommitOrder persists a validated ordering in one transaction. scopeColumn
// and scopeID narrow the scope for per-parent orderings (course videos);
// both empty means a global scope (categories).
func CommitOrder(db *sqlx.DB, table, scopeColumn, scopeID string, submitted []OrderedItem) error {
	existingQuery := `SELECT id FROM ` + table
	args := []interface{}{}
	if scopeColumn != "" {
		existingQuery += ` WHERE ` + scopeColumn + ` = ?`
		args = append(args, scopeID)
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// The drift check must see the same snapshot the updates run against.
	existing := []string{}
	if err := tx.Select(&existing, db.Rebind(existingQuery), args...); err != nil {
		return err
	}
	if err := ValidateOrder(submitted, existing); err != nil {
		return err
	}

	now := time.Now().UTC()
	update := `UPDATE ` + table + ` SET serial = ?, updated_at = ? WHERE id = ?`
	if scopeColumn != "" {
		update += ` AND ` + scopeColumn + ` = ?`
	}
	update = db.Rebind(update)
	for _, item := range submitted {
		updateArgs := []interface{}{item.Serial, now, item.ID}
		if scopeColumn != "" {
			updateArgs = append(updateArgs, scopeID)
		}
		if _, err := tx.Exec(update, updateArgs...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// NextSerial appends to the end of a scope's ordering.
func NextSerial(db *sqlx.DB, table, scopeColumn, scopeID string) (int, error) {
	query := `SELECT COALESCE(MAX(serial), 0) FROM ` + table
	args := []interface{}{}
	if scopeColumn != "" {
		query += ` WHERE ` + scopeColumn + ` = ?`
		args = append(args, scopeID)
	}
	var max int
	if err := db.Get(&max, db.Rebind(query), args...); err != nil {
		return 0, err
	}
	return max + 1, nil
}
