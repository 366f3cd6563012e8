package cmd

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jonesrussell/partprice/internal/domain"
	"github.com/jonesrussell/partprice/internal/retailer"
)

const timeLayout = "2006-01-02 15:04"

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	return t
}

func renderBrands(out io.Writer, brands []domain.CarBrand) {
	t := newTable(out)
	t.AppendHeader(table.Row{"ID", "Name", "Last Scraped"})
	for _, b := range brands {
		last := "never"
		if b.LastScraped != nil {
			last = b.LastScraped.Local().Format(timeLayout)
		}
		t.AppendRow(table.Row{b.ID, b.Name, last})
	}
	t.AppendFooter(table.Row{"", "Total", len(brands)})
	t.Render()
}

func renderPriceStats(out io.Writer, stats []domain.PriceStat) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Brand", "Category", "Average", "Min", "Max", "Retailers"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	for _, s := range stats {
		t.AppendRow(table.Row{
			s.Brand,
			s.Category,
			s.AveragePrice.StringFixed(2),
			s.MinPrice.StringFixed(2),
			s.MaxPrice.StringFixed(2),
			s.RetailerCount,
		})
	}
	t.Render()
}

func renderBrandStats(out io.Writer, stats []domain.BrandStat) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Brand", "Average", "Parts"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	for _, s := range stats {
		t.AppendRow(table.Row{s.Brand, s.AveragePrice.StringFixed(2), s.TotalParts})
	}
	t.Render()
}

func renderRetailers(out io.Writer, retailers []retailer.Config) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Key", "Name", "Website", "Container"})
	for _, r := range retailers {
		t.AppendRow(table.Row{r.Key, r.Name, r.BaseURL, r.Selectors.Container})
	}
	t.Render()
}
