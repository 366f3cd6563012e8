package retailer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding retailer rows.
const SheetName = "Retailers"

const instructionsSheet = "Instructions"

// sheetColumns is the header row, in column order.
var sheetColumns = []string{
	"key", "name", "base_url", "search_url",
	"container", "item_name", "price", "link", "reference", "brand", "availability",
}

// SheetError reports a rejected spreadsheet row. Row is 1-based as shown by
// spreadsheet applications.
type SheetError struct {
	Row     int
	Message string
}

// SheetErrors collects every rejected row of an import.
type SheetErrors []SheetError

func (e SheetErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, se := range e {
		parts = append(parts, fmt.Sprintf("row %d: %s", se.Row, se.Message))
	}
	return "invalid retailer rows: " + strings.Join(parts, "; ")
}

// ReadSheetFile reads retailers from the spreadsheet at path.
func ReadSheetFile(path string) ([]Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open retailers sheet %s: %w", path, err)
	}
	defer f.Close()

	retailers, err := ReadSheet(f)
	if err != nil {
		return nil, fmt.Errorf("read retailers sheet %s: %w", path, err)
	}
	return retailers, nil
}

// ReadSheet parses retailer rows from an .xlsx workbook. Columns are matched
// by header name, so their order is free. Blank rows are skipped. Every
// invalid row is reported in a SheetErrors value.
func ReadSheet(r io.Reader) ([]Config, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = book.Close() }()

	sheet := SheetName
	if idx, idxErr := book.GetSheetIndex(SheetName); idxErr != nil || idx < 0 {
		sheet = book.GetSheetName(0)
	}
	rows, err := book.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, errors.New("workbook has no header row")
	}

	columns := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"key", "name", "base_url", "search_url", "container", "item_name", "price"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	var (
		retailers []Config
		problems  SheetErrors
	)
	for i, row := range rows[1:] {
		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		if strings.Join(row, "") == "" {
			continue
		}

		cfg := Config{
			Key:       cell("key"),
			Name:      cell("name"),
			BaseURL:   cell("base_url"),
			SearchURL: cell("search_url"),
			Selectors: Selectors{
				Container:    cell("container"),
				Name:         cell("item_name"),
				Price:        cell("price"),
				Link:         cell("link"),
				Reference:    cell("reference"),
				Brand:        cell("brand"),
				Availability: cell("availability"),
			},
		}
		if vErr := cfg.Validate(); vErr != nil {
			problems = append(problems, SheetError{Row: i + 2, Message: vErr.Error()})
			continue
		}
		retailers = append(retailers, cfg)
	}

	if len(problems) > 0 {
		return nil, problems
	}
	return retailers, nil
}

// WriteSheet writes retailers as an .xlsx workbook with an instructions
// sheet. Passing the default catalog produces an editable template.
func WriteSheet(w io.Writer, retailers []Config) error {
	book := excelize.NewFile()
	defer func() { _ = book.Close() }()

	if err := book.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(sheetColumns))
	for i, c := range sheetColumns {
		header[i] = c
	}
	if err := book.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := book.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err = book.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, r := range retailers {
		row := []any{
			r.Key, r.Name, r.BaseURL, r.SearchURL,
			r.Selectors.Container, r.Selectors.Name, r.Selectors.Price, r.Selectors.Link,
			r.Selectors.Reference, r.Selectors.Brand, r.Selectors.Availability,
		}
		cell, cellErr := excelize.CoordinatesToCellName(1, i+2)
		if cellErr != nil {
			return cellErr
		}
		if err = book.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write retailer %s: %w", r.Key, err)
		}
	}

	if err = writeInstructions(book); err != nil {
		return err
	}
	if err = book.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeInstructions(book *excelize.File) error {
	if _, err := book.NewSheet(instructionsSheet); err != nil {
		return fmt.Errorf("create instructions sheet: %w", err)
	}
	lines := []string{
		"Column descriptions:",
		"",
		"key - Required. Unique identifier; a built-in key replaces that retailer",
		"name - Required. Display name stored with each part, unique per retailer",
		"base_url - Required. Absolute site URL, unique per retailer",
		"search_url - Required. Must contain " + BrandToken + " and " + PartToken,
		"container - Required. CSS selector for one product listing",
		"item_name - Required. CSS selector for the product name inside the listing",
		"price - Required. CSS selector for the price text",
		"link - Optional. CSS selector for the product link (defaults to item_name)",
		"reference, brand, availability - Optional. CSS selectors for extra listing fields",
	}
	for i, line := range lines {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err = book.SetCellValue(instructionsSheet, cell, line); err != nil {
			return fmt.Errorf("write instructions: %w", err)
		}
	}
	return nil
}
