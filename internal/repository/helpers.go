// Package repository is the sqlx-backed storage layer for the part catalog.
package repository

import (
	"database/sql"
	"errors"
	"fmt"
)

// execRequireRows returns notFound when an otherwise successful statement
// affected no rows.
func execRequireRows(result sql.Result, err, notFound error) error {
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
