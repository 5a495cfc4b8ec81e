package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/content-curator/internal/types"
)

// CreatePackage inserts a package and its ordered items in one transaction
// and returns the generated package id.
func (db *DB) CreatePackage(ctx context.Context, pkg *types.Package) (int64, error) {
	if pkg == nil {
		return 0, fmt.Errorf("package is required")
	}
	status := pkg.Status
	if status == "" {
		status = types.PackageStatusActive
	}
	requirements := []byte(pkg.RequirementSnapshot)
	if len(requirements) == 0 {
		requirements = []byte("{}")
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO packages (name, description, target_company, target_group, requirements, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		pkg.Name, pkg.Description, pkg.TargetCompany, pkg.TargetGroup, requirements, string(status),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create package: %w", err)
	}

	batch := &pgx.Batch{}
	for _, item := range pkg.Items {
		batch.Queue(
			`INSERT INTO package_items (package_id, content_id, item_order, reason, score)
			 VALUES ($1, $2, $3, $4, $5)`,
			id, item.ContentID, item.Order, item.Reason, item.Score,
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return 0, fmt.Errorf("failed to insert package items: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return id, nil
}

// PackageSummary is a package row with its item count.
type PackageSummary struct {
	ID            int64
	Name          string
	TargetCompany string
	TargetGroup   string
	Status        types.PackageStatus
	ItemCount     int
	CreatedAt     time.Time
}

// ListPackages returns the newest packages first.
func (db *DB) ListPackages(ctx context.Context, limit int) ([]PackageSummary, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT p.id, p.name, p.target_company, p.target_group, p.status, p.created_at,
		        (SELECT COUNT(*) FROM package_items i WHERE i.package_id = p.id)
		 FROM packages p ORDER BY p.created_at DESC, p.id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer rows.Close()

	var out []PackageSummary
	for rows.Next() {
		var (
			s      PackageSummary
			status string
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.TargetCompany, &s.TargetGroup, &status, &s.CreatedAt, &s.ItemCount); err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		s.Status = types.PackageStatus(status)
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetPackage returns a package with its items in order, or nil when missing.
func (db *DB) GetPackage(ctx context.Context, id int64) (*types.Package, error) {
	var (
		p            types.Package
		status       string
		requirements []byte
	)
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, description, target_company, target_group, requirements, status, created_at
		 FROM packages WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.TargetCompany, &p.TargetGroup, &requirements, &status, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	p.Status = types.PackageStatus(status)
	p.RequirementSnapshot = requirements

	rows, err := db.pool.Query(ctx,
		`SELECT content_id, item_order, reason, score
		 FROM package_items WHERE package_id = $1 ORDER BY item_order`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get package items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item types.PackageItem
		if err := rows.Scan(&item.ContentID, &item.Order, &item.Reason, &item.Score); err != nil {
			return nil, fmt.Errorf("failed to scan package item: %w", err)
		}
		p.Items = append(p.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get package items: %w", err)
	}
	return &p, nil
}

// SetPackageStatus toggles a package between active and archived.
func (db *DB) SetPackageStatus(ctx context.Context, id int64, status types.PackageStatus) error {
	if status != types.PackageStatusActive && status != types.PackageStatusArchived {
		return fmt.Errorf("invalid package status %q", status)
	}
	tag, err := db.pool.Exec(ctx, `UPDATE packages SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update package status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("package %d not found", id)
	}
	return nil
}
