package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/partprice/internal/domain"
	"github.com/jonesrussell/partprice/internal/retailer"
)

func TestRenderBrands(t *testing.T) {
	scraped := time.Date(2026, 5, 1, 8, 30, 0, 0, time.UTC)
	var buf bytes.Buffer

	renderBrands(&buf, []domain.CarBrand{
		{ID: 1, Name: "Toyota", LastScraped: &scraped},
		{ID: 2, Name: "Mazda"},
	})

	out := buf.String()
	assert.Contains(t, out, "Toyota")
	assert.Contains(t, out, "never")
	assert.Contains(t, out, "TOTAL")
}

func TestRenderPriceStats(t *testing.T) {
	var buf bytes.Buffer

	renderPriceStats(&buf, []domain.PriceStat{{
		Brand:         "Toyota",
		Category:      "oil filter",
		AveragePrice:  decimal.RequireFromString("162.75"),
		MinPrice:      decimal.NewFromInt(150),
		MaxPrice:      decimal.RequireFromString("175.5"),
		RetailerCount: 2,
	}})

	out := buf.String()
	assert.Contains(t, out, "162.75")
	assert.Contains(t, out, "150.00")
	assert.Contains(t, out, "175.50")
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "scrape", "brands", "retailers", "stats", "seed", "migrate"} {
		assert.True(t, names[want], "missing %s command", want)
	}
}

func TestRetailersImportWritesFile(t *testing.T) {
	dir := t.TempDir()
	sheet := filepath.Join(dir, "retailers.xlsx")
	out := filepath.Join(dir, "retailers.yml")

	extra := []retailer.Config{{
		Key:       "midas",
		Name:      "Midas",
		BaseURL:   "https://www.midas.co.za",
		SearchURL: "https://www.midas.co.za/catalogsearch/result/?q={brand}+{part}",
		Selectors: retailer.Selectors{Container: "li.product-item", Name: "a.product-item-link", Price: "span.price"},
	}}
	var buf bytes.Buffer
	require.NoError(t, retailer.WriteSheet(&buf, extra))
	require.NoError(t, os.WriteFile(sheet, buf.Bytes(), 0o600))

	cmd := newRetailersImportCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{sheet, "--out", out})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, stdout.String(), "Imported 1 retailers")
	c, err := retailer.LoadCatalog(out)
	require.NoError(t, err)
	assert.Len(t, c.Retailers(), 3)
}
