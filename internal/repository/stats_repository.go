package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/jonesrussell/partprice/internal/domain"
)

// StatsRepository computes aggregate views over current prices.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository creates a stats repository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// PriceStats returns per brand and category price aggregates, optionally
// restricted to one category.
func (r *StatsRepository) PriceStats(ctx context.Context, category string) ([]domain.PriceStat, error) {
	query := `SELECT b.name AS brand, c.name AS category,
		ROUND(AVG(p.price), 2) AS avg_price,
		MIN(p.price) AS min_price,
		MAX(p.price) AS max_price,
		COUNT(DISTINCT p.retailer_id) AS retailer_count
		FROM car_brands b
		JOIN parts p ON p.brand_id = b.id
		JOIN part_categories c ON c.id = p.category_id
		JOIN retailers r ON r.id = p.retailer_id`
	var args []any
	if category != "" {
		query += ` WHERE c.name = ?`
		args = append(args, category)
	}
	query += ` GROUP BY b.name, c.name ORDER BY b.name, c.name`

	stats := []domain.PriceStat{}
	if err := r.db.SelectContext(ctx, &stats, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("price stats: %w", err)
	}
	return stats, nil
}

type brandAggregate struct {
	Brand        string          `db:"brand"`
	AveragePrice decimal.Decimal `db:"average_price"`
	TotalParts   int             `db:"total_parts"`
}

type brandPrice struct {
	Brand string          `db:"brand"`
	Price decimal.Decimal `db:"price"`
}

// BrandStats returns per brand averages and price distributions, highest
// average first.
func (r *StatsRepository) BrandStats(ctx context.Context) ([]domain.BrandStat, error) {
	var aggregates []brandAggregate
	err := r.db.SelectContext(ctx, &aggregates, `SELECT b.name AS brand,
		ROUND(AVG(p.price), 2) AS average_price,
		COUNT(p.id) AS total_parts
		FROM car_brands b
		JOIN parts p ON p.brand_id = b.id
		GROUP BY b.name
		ORDER BY AVG(p.price) DESC, b.name`)
	if err != nil {
		return nil, fmt.Errorf("brand stats: %w", err)
	}

	var prices []brandPrice
	err = r.db.SelectContext(ctx, &prices, `SELECT b.name AS brand, p.price
		FROM parts p
		JOIN car_brands b ON b.id = p.brand_id
		ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("brand price distribution: %w", err)
	}

	distribution := make(map[string][]decimal.Decimal, len(aggregates))
	for _, p := range prices {
		distribution[p.Brand] = append(distribution[p.Brand], p.Price)
	}

	stats := make([]domain.BrandStat, 0, len(aggregates))
	for _, a := range aggregates {
		dist := distribution[a.Brand]
		if dist == nil {
			dist = []decimal.Decimal{}
		}
		stats = append(stats, domain.BrandStat{
			Brand:             a.Brand,
			AveragePrice:      a.AveragePrice,
			TotalParts:        a.TotalParts,
			PriceDistribution: dist,
		})
	}
	return stats, nil
}
