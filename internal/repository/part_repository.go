package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/partprice/internal/domain"
	"github.com/jonesrussell/partprice/internal/logger"
)

const partViewQuery = `SELECT p.id, p.name, p.price, p.currency, p.url, p.last_updated,
	b.name AS brand, c.name AS category, r.name AS retailer
	FROM parts p
	JOIN car_brands b ON b.id = p.brand_id
	JOIN part_categories c ON c.id = p.category_id
	JOIN retailers r ON r.id = p.retailer_id`

// PartRepository reads parts for the serving layer.
type PartRepository struct {
	db  *sqlx.DB
	log logger.Logger
}

// NewPartRepository creates a part repository.
func NewPartRepository(db *sqlx.DB, log logger.Logger) *PartRepository {
	return &PartRepository{db: db, log: log}
}

// List returns parts matching filter. When the query fails, parts whose brand
// no longer exists are deleted and the query is retried once.
func (r *PartRepository) List(ctx context.Context, filter domain.PartFilter) ([]domain.PartView, error) {
	parts, err := r.list(ctx, filter)
	if err == nil {
		return parts, nil
	}

	r.log.Error("Part listing failed, sweeping orphaned parts", logger.Error(err))
	removed, sweepErr := r.DeleteOrphans(ctx)
	if sweepErr != nil {
		return nil, fmt.Errorf("%w (orphan sweep: %w)", err, sweepErr)
	}
	if removed > 0 {
		r.log.Info("Removed orphaned parts", logger.Int64("count", removed))
	}
	return r.list(ctx, filter)
}

func (r *PartRepository) list(ctx context.Context, filter domain.PartFilter) ([]domain.PartView, error) {
	var (
		where []string
		args  []any
	)
	if filter.Brand != "" {
		where = append(where, "b.name = ?")
		args = append(args, filter.Brand)
	}
	if filter.Category != "" {
		where = append(where, "c.name = ?")
		args = append(args, filter.Category)
	}

	query := partViewQuery
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY p.id"

	parts := []domain.PartView{}
	if err := r.db.SelectContext(ctx, &parts, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list parts: %w", err)
	}
	return parts, nil
}

// DeleteOrphans removes parts whose brand no longer exists.
func (r *PartRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM parts WHERE brand_id NOT IN (SELECT id FROM car_brands)`)
	if err != nil {
		return 0, fmt.Errorf("delete orphaned parts: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
