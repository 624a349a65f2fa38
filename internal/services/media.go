package services

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	BucketCategories = "categories"
	BucketCourses    = "courses"
	BucketVideos     = "videos"
	BucketAuctions   = "auctions"
	BucketPages      = "pages"
)

func EnsureStoragePath(base string, bucket string) (string, error) {
	path := filepath.Join(base, bucket)
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", err
	}
	return path, nil
}

// SaveMediaAsset streams an upload to disk under its bucket, records the
// sha256, and inserts the asset row. Returns the asset id.
func SaveMediaAsset(db *sqlx.DB, basePath, bucket, contentType, filename string, body io.Reader) (string, error) {
	assetID := uuid.NewString()
	storageKey := assetID
	bucketPath, err := EnsureStoragePath(basePath, bucket)
	if err != nil {
		return "", err
	}
	targetPath := filepath.Join(bucketPath, storageKey)

	file, err := os.Create(targetPath)
	if err != nil {
		return "", err
	}
	hasher := sha256.New()
	writer := io.MultiWriter(file, hasher)
	size, err := io.Copy(writer, body)
	_ = file.Close()
	if err != nil {
		return "", err
	}
	if size == 0 {
		_ = os.Remove(targetPath)
		return "", ErrBadRequest("Uploaded file is empty")
	}
	sha := hex.EncodeToString(hasher.Sum(nil))

	_, err = db.Exec(db.Rebind(`
INSERT INTO media_assets (id, bucket, storage_key, filename, content_type, size_bytes, sha256, created_at)
VALUES (?,?,?,?,?,?,?,?)
`), assetID, bucket, storageKey, filename, contentType, size, sha, time.Now().UTC())
	if err != nil {
		_ = os.Remove(targetPath)
		return "", err
	}
	return assetID, nil
}

// BuildAssetURL resolves an asset id against the service base URL. Media
// references are stored as ids and turned into URLs only at the edge.
func BuildAssetURL(baseURL, assetID string) string {
	return baseURL + "/api/media/assets/" + assetID + "/content"
}

func DeleteAsset(db *sqlx.DB, basePath string, assetID string) error {
	row := struct {
		Bucket     string `db:"bucket"`
		StorageKey string `db:"storage_key"`
	}{}
	if err := db.Get(&row, db.Rebind(`SELECT bucket, storage_key FROM media_assets WHERE id = ?`), assetID); err != nil {
		return nil
	}
	_, _ = db.Exec(db.Rebind(`DELETE FROM media_assets WHERE id = ?`), assetID)
	path := filepath.Join(basePath, row.Bucket, row.StorageKey)
	_ = os.Remove(path)
	return nil
}
