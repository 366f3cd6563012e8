package reconcile

import (
	"context"

	"github.com/jonesrussell/partprice/internal/repository"
)

// SQLStore runs batches on the sqlx catalog store.
type SQLStore struct {
	catalog *repository.CatalogStore
}

// NewSQLStore wraps catalog.
func NewSQLStore(catalog *repository.CatalogStore) *SQLStore {
	return &SQLStore{catalog: catalog}
}

// InTx implements Store.
func (s *SQLStore) InTx(ctx context.Context, fn func(Tx) error) error {
	return s.catalog.InTx(ctx, func(tx *repository.CatalogTx) error {
		return fn(tx)
	})
}
