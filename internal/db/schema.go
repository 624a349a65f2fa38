package db

import "github.com/jmoiron/sqlx"

// schema is the full database schema. Statements stay portable between
// Postgres and the SQLite test database, so timestamps are set in code and
// placeholders are rebound per driver.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    email         TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    first_name    TEXT,
    last_name     TEXT,
    role          TEXT NOT NULL DEFAULT 'EDITOR',
    status        TEXT NOT NULL DEFAULT 'active',
    created_at    TIMESTAMP NOT NULL,
    updated_at    TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_users_email ON users(lower(email));

CREATE TABLE IF NOT EXISTS refresh_tokens (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    token      TEXT NOT NULL,
    expires_at TIMESTAMP NOT NULL,
    revoked_at TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_refresh_tokens_token ON refresh_tokens(token);

CREATE TABLE IF NOT EXISTS categories (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL,
    description    TEXT NOT NULL DEFAULT '',
    image_asset_id TEXT,
    serial         INTEGER NOT NULL,
    status         TEXT NOT NULL DEFAULT 'active',
    created_at     TIMESTAMP NOT NULL,
    updated_at     TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_categories_name ON categories(lower(name));

CREATE TABLE IF NOT EXISTS courses (
    id             TEXT PRIMARY KEY,
    category_id    TEXT NOT NULL REFERENCES categories(id),
    title          TEXT NOT NULL,
    description    TEXT NOT NULL DEFAULT '',
    image_asset_id TEXT,
    status         TEXT NOT NULL DEFAULT 'active',
    created_at     TIMESTAMP NOT NULL,
    updated_at     TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS course_videos (
    id                 TEXT PRIMARY KEY,
    course_id          TEXT NOT NULL REFERENCES courses(id),
    title              TEXT NOT NULL,
    description        TEXT NOT NULL DEFAULT '',
    video_asset_id     TEXT,
    thumbnail_asset_id TEXT,
    duration_seconds   INTEGER NOT NULL DEFAULT 0,
    serial             INTEGER NOT NULL,
    status             TEXT NOT NULL DEFAULT 'active',
    created_at         TIMESTAMP NOT NULL,
    updated_at         TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_course_videos_course ON course_videos(course_id, serial);

CREATE TABLE IF NOT EXISTS auctions (
    id             TEXT PRIMARY KEY,
    title          TEXT NOT NULL,
    description    TEXT NOT NULL DEFAULT '',
    image_asset_id TEXT,
    start_price    REAL NOT NULL,
    starts_at      TIMESTAMP NOT NULL,
    ends_at        TIMESTAMP NOT NULL,
    status         TEXT NOT NULL DEFAULT 'active',
    created_at     TIMESTAMP NOT NULL,
    updated_at     TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS subscription_plans (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    description   TEXT NOT NULL DEFAULT '',
    price         REAL NOT NULL,
    duration_days INTEGER NOT NULL,
    features      TEXT NOT NULL DEFAULT '[]',
    status        TEXT NOT NULL DEFAULT 'active',
    created_at    TIMESTAMP NOT NULL,
    updated_at    TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
    id           TEXT PRIMARY KEY,
    title        TEXT NOT NULL,
    body         TEXT NOT NULL,
    scheduled_at TIMESTAMP NOT NULL,
    delivery     TEXT NOT NULL DEFAULT 'pending',
    is_read      BOOLEAN NOT NULL DEFAULT FALSE,
    status       TEXT NOT NULL DEFAULT 'active',
    created_at   TIMESTAMP NOT NULL,
    updated_at   TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS pages (
    id         TEXT PRIMARY KEY,
    slug       TEXT NOT NULL,
    title      TEXT NOT NULL,
    content    TEXT NOT NULL DEFAULT '[]',
    status     TEXT NOT NULL DEFAULT 'active',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_pages_slug ON pages(slug);

CREATE TABLE IF NOT EXISTS media_assets (
    id           TEXT PRIMARY KEY,
    bucket       TEXT NOT NULL,
    storage_key  TEXT NOT NULL,
    filename     TEXT,
    content_type TEXT NOT NULL,
    size_bytes   INTEGER NOT NULL,
    sha256       TEXT NOT NULL,
    created_at   TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS server_metric_samples (
    id                        TEXT PRIMARY KEY,
    captured_at               TIMESTAMP NOT NULL,
    heap_used_bytes           INTEGER NOT NULL,
    heap_max_bytes            INTEGER NOT NULL,
    system_memory_total_bytes INTEGER NOT NULL,
    system_memory_used_bytes  INTEGER NOT NULL,
    disk_total_bytes          INTEGER NOT NULL,
    disk_used_bytes           INTEGER NOT NULL,
    process_cpu_load          REAL NOT NULL,
    system_cpu_load           REAL NOT NULL
);
`

// EnsureSchema applies the schema. Every statement is idempotent.
func EnsureSchema(db *sqlx.DB) error {
	_, err := db.Exec(schema)
	return err
}
