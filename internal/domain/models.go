// Package domain defines the catalog entities tracked by partprice.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices render as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// DefaultCurrency is applied to every part scraped from the supported retailers.
const DefaultCurrency = "ZAR"

// Retailer is a shop whose search pages are scraped. Name is unique.
type Retailer struct {
	ID      int64  `db:"id"      json:"id"`
	Name    string `db:"name"    json:"name"`
	Website string `db:"website" json:"website"`
}

// CarBrand is a vehicle make used as a search term. Name is unique.
type CarBrand struct {
	ID          int64      `db:"id"           json:"id"`
	Name        string     `db:"name"         json:"name"`
	LastScraped *time.Time `db:"last_scraped" json:"last_scraped,omitempty"`
}

// PartCategory is one common-part search term such as "oil filter". Name is unique.
type PartCategory struct {
	ID   int64  `db:"id"   json:"id"`
	Name string `db:"name" json:"name"`
}

// Part is the latest observed price for one (name, retailer, brand, category) tuple.
type Part struct {
	ID          int64           `db:"id"           json:"id"`
	Name        string          `db:"name"         json:"name"`
	Price       decimal.Decimal `db:"price"        json:"price"`
	Currency    string          `db:"currency"     json:"currency"`
	URL         string          `db:"url"          json:"url"`
	LastUpdated time.Time       `db:"last_updated" json:"last_updated"`
	RetailerID  int64           `db:"retailer_id"  json:"retailer_id"`
	BrandID     int64           `db:"brand_id"     json:"brand_id"`
	CategoryID  int64           `db:"category_id"  json:"category_id"`
}

// Listing is one product scraped from a retailer page before it is matched
// to catalog identity.
type Listing struct {
	Name         string
	Price        decimal.Decimal
	URL          string
	Retailer     string
	Reference    string
	Brand        string
	Availability string
}

// PartView is a Part joined with its brand, category and retailer names.
type PartView struct {
	ID          int64           `db:"id"           json:"id"`
	Name        string          `db:"name"         json:"name"`
	Price       decimal.Decimal `db:"price"        json:"price"`
	Currency    string          `db:"currency"     json:"currency"`
	URL         string          `db:"url"          json:"url"`
	LastUpdated time.Time       `db:"last_updated" json:"last_updated"`
	Brand       string          `db:"brand"        json:"brand"`
	Category    string          `db:"category"     json:"category"`
	Retailer    string          `db:"retailer"     json:"retailer"`
}

// PartFilter narrows a part listing. Empty fields match everything.
type PartFilter struct {
	Brand    string
	Category string
}

// PriceStat aggregates current prices for one brand within one category.
type PriceStat struct {
	Brand         string          `db:"brand"          json:"brand"`
	Category      string          `db:"category"       json:"category"`
	AveragePrice  decimal.Decimal `db:"avg_price"      json:"avg_price"`
	MinPrice      decimal.Decimal `db:"min_price"      json:"min_price"`
	MaxPrice      decimal.Decimal `db:"max_price"      json:"max_price"`
	RetailerCount int             `db:"retailer_count" json:"retailer_count"`
}

// BrandStat aggregates current prices across all categories for one brand.
type BrandStat struct {
	Brand             string            `json:"brand_name"`
	AveragePrice      decimal.Decimal   `json:"average_price"`
	TotalParts        int               `json:"total_parts"`
	PriceDistribution []decimal.Decimal `json:"price_distribution"`
}
