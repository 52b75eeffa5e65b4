package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Download history statuses.
const (
	DownloadStatusSuccess = "success"
	DownloadStatusFailed  = "failed"
)

// DownloadRecord is one acquisition attempt, cache hits included.
type DownloadRecord struct {
	ID        string
	TargetID  string
	URL       string
	Path      string
	SizeBytes int64
	WasCached bool
	Status    string
	CreatedAt time.Time
}

// RecordDownload appends one row to the download history.
func RecordDownload(rec DownloadRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	return withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO downloads (id, target_id, url, path, size_bytes, was_cached, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.TargetID, rec.URL, rec.Path, rec.SizeBytes, boolToInt(rec.WasCached), rec.Status, rec.CreatedAt.Unix())
		if err != nil {
			return fmt.Errorf("failed to record download for %s: %w", rec.TargetID, err)
		}
		return nil
	})
}

// RecentDownloads returns the newest history rows, most recent first.
// A limit at or below zero falls back to 20.
func RecentDownloads(limit int) ([]DownloadRecord, error) {
	d, err := GetDB()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.Query(`
		SELECT id, target_id, url, path, size_bytes, was_cached, status, created_at
		FROM downloads ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list downloads: %w", err)
	}
	defer rows.Close()

	var records []DownloadRecord
	for rows.Next() {
		var rec DownloadRecord
		var cached int
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.TargetID, &rec.URL, &rec.Path, &rec.SizeBytes, &cached, &rec.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan download row: %w", err)
		}
		rec.WasCached = cached != 0
		rec.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
