package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/partprice/internal/domain"
)

// ReferenceRepository reads retailers and part categories.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository creates a reference repository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// Retailers returns all retailers.
func (r *ReferenceRepository) Retailers(ctx context.Context) ([]domain.Retailer, error) {
	retailers := []domain.Retailer{}
	if err := r.db.SelectContext(ctx, &retailers, `SELECT id, name, website FROM retailers ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list retailers: %w", err)
	}
	return retailers, nil
}

// Categories returns all part categories.
func (r *ReferenceRepository) Categories(ctx context.Context) ([]domain.PartCategory, error) {
	categories := []domain.PartCategory{}
	if err := r.db.SelectContext(ctx, &categories, `SELECT id, name FROM part_categories ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}
