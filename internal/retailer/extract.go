package retailer

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/partprice/internal/domain"
	"github.com/jonesrussell/partprice/internal/logger"
	"github.com/jonesrussell/partprice/internal/pricing"
)

// ExtractListings parses a search results page using cfg's selectors. Items
// missing a name or price, or whose price is not positive, are skipped.
func ExtractListings(body []byte, cfg Config, log logger.Logger) ([]domain.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	sel := cfg.Selectors
	var listings []domain.Listing
	doc.Find(sel.Container).Each(func(i int, item *goquery.Selection) {
		nameEl := item.Find(sel.Name).First()
		name := text(nameEl)
		priceText := text(item.Find(sel.Price).First())
		if name == "" || priceText == "" {
			log.Debug("Skipping listing without name or price",
				logger.String("retailer", cfg.Name),
				logger.Int("index", i),
			)
			return
		}

		price := pricing.ParsePrice(priceText)
		if !price.IsPositive() {
			log.Debug("Skipping listing with unusable price",
				logger.String("retailer", cfg.Name),
				logger.String("name", name),
				logger.String("price_text", priceText),
			)
			return
		}

		linkEl := nameEl
		if sel.Link != "" {
			linkEl = item.Find(sel.Link).First()
		}

		listings = append(listings, domain.Listing{
			Name:         name,
			Price:        price,
			URL:          resolveHref(base, linkEl),
			Retailer:     cfg.Name,
			Reference:    optionalText(item, sel.Reference),
			Brand:        optionalText(item, sel.Brand),
			Availability: optionalText(item, sel.Availability),
		})
	})

	return listings, nil
}

// text returns the selection's text with whitespace runs collapsed.
func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

func optionalText(item *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return text(item.Find(selector).First())
}

// resolveHref returns the element's href made absolute against base.
func resolveHref(base *url.URL, s *goquery.Selection) string {
	href, ok := s.Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
