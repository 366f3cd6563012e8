package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/jonesrussell/partprice/internal/domain"
)

const partSelectColumns = `id, name, price, currency, url, last_updated, retailer_id, brand_id, category_id`

// CatalogStore runs reconciliation batches in a single transaction.
type CatalogStore struct {
	db *sqlx.DB
}

// NewCatalogStore creates a catalog store.
func NewCatalogStore(db *sqlx.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// InTx runs fn inside a transaction. The transaction commits when fn returns
// nil and rolls back otherwise.
func (s *CatalogStore) InTx(ctx context.Context, fn func(tx *CatalogTx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(&CatalogTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %w)", err, rbErr)
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// CatalogTx exposes the lookups and writes used while reconciling one batch.
type CatalogTx struct {
	tx *sqlx.Tx
}

// FindRetailer returns the retailer named name or domain.ErrNotFound.
func (c *CatalogTx) FindRetailer(ctx context.Context, name string) (*domain.Retailer, error) {
	var r domain.Retailer
	err := c.tx.GetContext(ctx, &r, c.tx.Rebind(`SELECT id, name, website FROM retailers WHERE name = ?`), name)
	if isNoRows(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find retailer %q: %w", name, err)
	}
	return &r, nil
}

// CreateRetailer inserts r and sets its ID.
func (c *CatalogTx) CreateRetailer(ctx context.Context, r *domain.Retailer) error {
	query := c.tx.Rebind(`INSERT INTO retailers (name, website) VALUES (?, ?) RETURNING id`)
	if err := c.tx.QueryRowxContext(ctx, query, r.Name, r.Website).Scan(&r.ID); err != nil {
		return fmt.Errorf("create retailer %q: %w", r.Name, err)
	}
	return nil
}

// FindCategory returns the category named name or domain.ErrNotFound.
func (c *CatalogTx) FindCategory(ctx context.Context, name string) (*domain.PartCategory, error) {
	var pc domain.PartCategory
	err := c.tx.GetContext(ctx, &pc, c.tx.Rebind(`SELECT id, name FROM part_categories WHERE name = ?`), name)
	if isNoRows(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find category %q: %w", name, err)
	}
	return &pc, nil
}

// CreateCategory inserts pc and sets its ID.
func (c *CatalogTx) CreateCategory(ctx context.Context, pc *domain.PartCategory) error {
	query := c.tx.Rebind(`INSERT INTO part_categories (name) VALUES (?) RETURNING id`)
	if err := c.tx.QueryRowxContext(ctx, query, pc.Name).Scan(&pc.ID); err != nil {
		return fmt.Errorf("create category %q: %w", pc.Name, err)
	}
	return nil
}

// FindPart returns the part with the exact natural key or domain.ErrNotFound.
func (c *CatalogTx) FindPart(ctx context.Context, name string, retailerID, brandID, categoryID int64) (*domain.Part, error) {
	query := c.tx.Rebind(`SELECT ` + partSelectColumns + ` FROM parts
		WHERE name = ? AND retailer_id = ? AND brand_id = ? AND category_id = ?`)

	var p domain.Part
	err := c.tx.GetContext(ctx, &p, query, name, retailerID, brandID, categoryID)
	if isNoRows(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find part %q: %w", name, err)
	}
	return &p, nil
}

// InsertPart inserts p and sets its ID.
func (c *CatalogTx) InsertPart(ctx context.Context, p *domain.Part) error {
	query := c.tx.Rebind(`INSERT INTO parts
		(name, price, currency, url, last_updated, retailer_id, brand_id, category_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)

	err := c.tx.QueryRowxContext(ctx, query,
		p.Name, p.Price, p.Currency, p.URL, p.LastUpdated, p.RetailerID, p.BrandID, p.CategoryID,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert part %q: %w", p.Name, err)
	}
	return nil
}

// UpdatePartPrice overwrites the price and observation time of part id.
func (c *CatalogTx) UpdatePartPrice(ctx context.Context, id int64, price decimal.Decimal, observedAt time.Time) error {
	query := c.tx.Rebind(`UPDATE parts SET price = ?, last_updated = ? WHERE id = ?`)
	result, err := c.tx.ExecContext(ctx, query, price, observedAt, id)
	if err = execRequireRows(result, err, domain.ErrNotFound); err != nil {
		return fmt.Errorf("update part %d: %w", id, err)
	}
	return nil
}
