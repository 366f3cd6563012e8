package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/partprice/internal/domain"
)

// SampleBrands are inserted by Seed when no names are given.
var SampleBrands = []string{
	"Toyota", "Volkswagen", "Ford", "Hyundai", "Nissan",
	"BMW", "Mercedes", "Audi", "Honda", "Mazda",
}

// BrandRepository manages car brands.
type BrandRepository struct {
	db *sqlx.DB
}

// NewBrandRepository creates a brand repository.
func NewBrandRepository(db *sqlx.DB) *BrandRepository {
	return &BrandRepository{db: db}
}

// List returns all brands in insertion order.
func (r *BrandRepository) List(ctx context.Context) ([]domain.CarBrand, error) {
	brands := []domain.CarBrand{}
	if err := r.db.SelectContext(ctx, &brands, `SELECT id, name, last_scraped FROM car_brands ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	return brands, nil
}

// Create inserts a brand. Names are trimmed; duplicates return domain.ErrBrandExists.
func (r *BrandRepository) Create(ctx context.Context, name string) (*domain.CarBrand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	var exists bool
	err := r.db.GetContext(ctx, &exists, r.db.Rebind(`SELECT EXISTS (SELECT 1 FROM car_brands WHERE name = ?)`), name)
	if err != nil {
		return nil, fmt.Errorf("check brand %q: %w", name, err)
	}
	if exists {
		return nil, domain.ErrBrandExists
	}

	brand := &domain.CarBrand{Name: name}
	query := r.db.Rebind(`INSERT INTO car_brands (name) VALUES (?) RETURNING id`)
	if err = r.db.QueryRowxContext(ctx, query, name).Scan(&brand.ID); err != nil {
		return nil, fmt.Errorf("create brand %q: %w", name, err)
	}
	return brand, nil
}

// Delete removes a brand and its parts, returning the deleted brand's name.
func (r *BrandRepository) Delete(ctx context.Context, id int64) (string, error) {
	return r.delete(ctx, `SELECT id, name FROM car_brands WHERE id = ?`, id)
}

// DeleteByName removes the brand with the given name and its parts.
func (r *BrandRepository) DeleteByName(ctx context.Context, name string) (string, error) {
	return r.delete(ctx, `SELECT id, name FROM car_brands WHERE name = ?`, strings.TrimSpace(name))
}

func (r *BrandRepository) delete(ctx context.Context, lookup string, arg any) (string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var brand domain.CarBrand
	err = tx.GetContext(ctx, &brand, tx.Rebind(lookup), arg)
	if isNoRows(err) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find brand %v: %w", arg, err)
	}

	if _, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM parts WHERE brand_id = ?`), brand.ID); err != nil {
		return "", fmt.Errorf("delete parts of brand %q: %w", brand.Name, err)
	}
	result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM car_brands WHERE id = ?`), brand.ID)
	if err = execRequireRows(result, err, domain.ErrNotFound); err != nil {
		return "", fmt.Errorf("delete brand %q: %w", brand.Name, err)
	}
	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("commit brand delete: %w", err)
	}
	return brand.Name, nil
}

// MarkScraped records the time a full pass over the brand's parts finished.
func (r *BrandRepository) MarkScraped(ctx context.Context, id int64, at time.Time) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE car_brands SET last_scraped = ? WHERE id = ?`), at, id)
	if err = execRequireRows(result, err, domain.ErrNotFound); err != nil {
		return fmt.Errorf("mark brand %d scraped: %w", id, err)
	}
	return nil
}

// Seed inserts names that do not exist yet and returns how many were added.
// An empty names slice seeds SampleBrands.
func (r *BrandRepository) Seed(ctx context.Context, names []string) (int, error) {
	if len(names) == 0 {
		names = SampleBrands
	}

	query := r.db.Rebind(`INSERT INTO car_brands (name) VALUES (?) ON CONFLICT (name) DO NOTHING`)
	added := 0
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		result, err := r.db.ExecContext(ctx, query, name)
		if err != nil {
			return added, fmt.Errorf("seed brand %q: %w", name, err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			added++
		}
	}
	return added, nil
}
