package state

import (
	"cellar/internal/model"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Receipt records one installed package, one row per package name.
// Upgrades and reinstalls replace the existing row.
type Receipt struct {
	ID          string
	Name        string
	Version     string
	PkgType     model.PackageType
	Action      model.JobAction
	KegPath     string
	InstalledAt time.Time
}

// SaveReceipt inserts or replaces the receipt for a package name. A
// missing id or timestamp is filled in.
func SaveReceipt(r Receipt) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.InstalledAt.IsZero() {
		r.InstalledAt = time.Now()
	}

	return withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO receipts (id, name, version, pkg_type, action, keg_path, installed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				version = excluded.version,
				pkg_type = excluded.pkg_type,
				action = excluded.action,
				keg_path = excluded.keg_path,
				installed_at = excluded.installed_at`,
			r.ID, r.Name, r.Version, string(r.PkgType), string(r.Action), r.KegPath, r.InstalledAt.Unix())
		if err != nil {
			return fmt.Errorf("failed to save receipt for %s: %w", r.Name, err)
		}
		return nil
	})
}

// GetReceipt returns the receipt for a package name, or nil when the
// package is not installed.
func GetReceipt(name string) (*Receipt, error) {
	d, err := GetDB()
	if err != nil {
		return nil, err
	}

	row := d.QueryRow(`
		SELECT id, name, version, pkg_type, action, keg_path, installed_at
		FROM receipts WHERE name = ?`, name)

	r, err := scanReceipt(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load receipt for %s: %w", name, err)
	}
	return r, nil
}

// ListReceipts returns all receipts ordered by package name.
func ListReceipts() ([]Receipt, error) {
	d, err := GetDB()
	if err != nil {
		return nil, err
	}

	rows, err := d.Query(`
		SELECT id, name, version, pkg_type, action, keg_path, installed_at
		FROM receipts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer rows.Close()

	var receipts []Receipt
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		receipts = append(receipts, *r)
	}
	return receipts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row rowScanner) (*Receipt, error) {
	var r Receipt
	var pkgType, action string
	var installedAt int64
	if err := row.Scan(&r.ID, &r.Name, &r.Version, &pkgType, &action, &r.KegPath, &installedAt); err != nil {
		return nil, err
	}
	r.PkgType = model.PackageType(pkgType)
	r.Action = model.JobAction(action)
	r.InstalledAt = time.Unix(installedAt, 0)
	return &r, nil
}
