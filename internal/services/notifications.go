package services

import (
	"time"

	"github.com/jmoiron/sqlx"
)

// ValidateSchedule rejects past delivery times. now is injected so tests can
// pin the clock.
func ValidateSchedule(scheduledAt, now time.Time) error {
	if scheduledAt.Before(now) {
		return ErrBadRequest("Scheduled time must be in the future")
	}
	return nil
}

// MarkDueNotificationsSent flips pending notifications whose schedule has
// passed to sent. Returns the number of rows flipped. Actual push transport
// is owned by the delivery pipeline, not this service.
func MarkDueNotificationsSent(db *sqlx.DB, now time.Time) (int64, error) {
	result, err := db.Exec(db.Rebind(`
UPDATE notifications
SET delivery = ?, updated_at = ?
WHERE delivery = ? AND scheduled_at <= ? AND status = ?
`), "sent", now, "pending", now, "active")
	if err != nil {
		return 0, err
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}
