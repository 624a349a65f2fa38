package models

import "time"

// Status controls the visibility of an entity in the consumer app. It is
// changed only through the dedicated status endpoints, never through a
// general update.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleEditor Role = "EDITOR"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEditor
}

// Delivery is the push-notification delivery state.
type Delivery string

const (
	DeliveryPending Delivery = "pending"
	DeliverySent    Delivery = "sent"
)

type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	FirstName    *string   `db:"first_name"`
	LastName     *string   `db:"last_name"`
	Role         Role      `db:"role"`
	Status       Status    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type RefreshToken struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	Token     string     `db:"token"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
}

type Category struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Description  string    `db:"description"`
	ImageAssetID *string   `db:"image_asset_id"`
	Serial       int       `db:"serial"`
	Status       Status    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type Course struct {
	ID           string    `db:"id"`
	CategoryID   string    `db:"category_id"`
	Title        string    `db:"title"`
	Description  string    `db:"description"`
	ImageAssetID *string   `db:"image_asset_id"`
	Status       Status    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type CourseVideo struct {
	ID               string    `db:"id"`
	CourseID         string    `db:"course_id"`
	Title            string    `db:"title"`
	Description      string    `db:"description"`
	VideoAssetID     *string   `db:"video_asset_id"`
	ThumbnailAssetID *string   `db:"thumbnail_asset_id"`
	DurationSeconds  int       `db:"duration_seconds"`
	Serial           int       `db:"serial"`
	Status           Status    `db:"status"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

type Auction struct {
	ID           string    `db:"id"`
	Title        string    `db:"title"`
	Description  string    `db:"description"`
	ImageAssetID *string   `db:"image_asset_id"`
	StartPrice   float64   `db:"start_price"`
	StartsAt     time.Time `db:"starts_at"`
	EndsAt       time.Time `db:"ends_at"`
	Status       Status    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type SubscriptionPlan struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Description  string    `db:"description"`
	Price        float64   `db:"price"`
	DurationDays int       `db:"duration_days"`
	Features     []byte    `db:"features"`
	Status       Status    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type Notification struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Body        string    `db:"body"`
	ScheduledAt time.Time `db:"scheduled_at"`
	Delivery    Delivery  `db:"delivery"`
	IsRead      bool      `db:"is_read"`
	Status      Status    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type Page struct {
	ID        string    `db:"id"`
	Slug      string    `db:"slug"`
	Title     string    `db:"title"`
	Content   []byte    `db:"content"`
	Status    Status    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type MediaAsset struct {
	ID          string    `db:"id"`
	Bucket      string    `db:"bucket"`
	StorageKey  string    `db:"storage_key"`
	Filename    *string   `db:"filename"`
	ContentType string    `db:"content_type"`
	SizeBytes   int64     `db:"size_bytes"`
	Sha256      string    `db:"sha256"`
	CreatedAt   time.Time `db:"created_at"`
}
