// Package retailer holds the per-retailer markup knowledge: search URL
// templates, CSS selector sets, the shared fetch session and the generic
// adapter that ties them together.
package retailer

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Search URL tokens substituted by Adapter.SearchURL.
const (
	BrandToken = "{brand}"
	PartToken  = "{part}"
)

// Selectors describes where listing fields live in a retailer's search page.
// Container, Name and Price are required; the rest are optional.
type Selectors struct {
	Container string `yaml:"container"`
	Name      string `yaml:"name"`
	Price     string `yaml:"price"`
	// Link defaults to the element matched by Name.
	Link         string `yaml:"link,omitempty"`
	Reference    string `yaml:"reference,omitempty"`
	Brand        string `yaml:"brand,omitempty"`
	Availability string `yaml:"availability,omitempty"`
}

// Config is the static description of one retailer.
type Config struct {
	Key       string    `yaml:"key"`
	Name      string    `yaml:"name"`
	BaseURL   string    `yaml:"base_url"`
	SearchURL string    `yaml:"search_url"`
	Selectors Selectors `yaml:"selectors"`
}

// Validate checks that cfg can drive an adapter.
func (c Config) Validate() error {
	switch {
	case c.Key == "":
		return errors.New("retailer key is required")
	case c.Name == "":
		return fmt.Errorf("retailer %s: name is required", c.Key)
	case c.Selectors.Container == "", c.Selectors.Name == "", c.Selectors.Price == "":
		return fmt.Errorf("retailer %s: container, name and price selectors are required", c.Key)
	case !strings.Contains(c.SearchURL, BrandToken) || !strings.Contains(c.SearchURL, PartToken):
		return fmt.Errorf("retailer %s: search_url must contain %s and %s", c.Key, BrandToken, PartToken)
	}
	base, err := url.Parse(c.BaseURL)
	if err != nil || !base.IsAbs() {
		return fmt.Errorf("retailer %s: base_url must be an absolute URL", c.Key)
	}
	return nil
}

// Catalog is the ordered set of retailers visited by each ingestion pass.
type Catalog struct {
	retailers []Config
}

// DefaultCatalog returns the built-in retailers in visiting order.
func DefaultCatalog() *Catalog {
	return &Catalog{retailers: []Config{
		{
			Key:       "onlinecarparts",
			Name:      "Online Car Parts",
			BaseURL:   "https://onlinecarparts.co.za",
			SearchURL: "https://onlinecarparts.co.za/search?controller=search&s={brand}+{part}",
			Selectors: Selectors{
				Container:    "article.product-miniature",
				Name:         "h3.product-title a",
				Price:        "span.price",
				Reference:    "p.pl_reference span strong",
				Brand:        "p.pl_manufacturer a strong",
				Availability: "span.pl-availability",
			},
		},
		{
			Key:       "africaboyz",
			Name:      "AfricaBoyz Online",
			BaseURL:   "https://africaboyzonline.com",
			SearchURL: "https://africaboyzonline.com/search?q={brand}+{part}",
			Selectors: Selectors{
				Container: ".products-list .product-layout",
				Name:      "h4.giveMeEllipsis a",
				Price:     ".price .price-new",
			},
		},
	}}
}

// NewCatalog validates retailers and returns them as a catalog. Keys, names
// and base URLs must each be unique since names and websites identify
// retailer rows in storage.
func NewCatalog(retailers []Config) (*Catalog, error) {
	keys := make(map[string]struct{}, len(retailers))
	names := make(map[string]string, len(retailers))
	websites := make(map[string]string, len(retailers))
	for _, r := range retailers {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, dup := keys[r.Key]; dup {
			return nil, fmt.Errorf("duplicate retailer key %q", r.Key)
		}
		keys[r.Key] = struct{}{}

		if other, dup := names[r.Name]; dup {
			return nil, fmt.Errorf("retailers %s and %s share name %q", other, r.Key, r.Name)
		}
		names[r.Name] = r.Key

		site := websiteKey(r.BaseURL)
		if other, dup := websites[site]; dup {
			return nil, fmt.Errorf("retailers %s and %s share base_url %q", other, r.Key, r.BaseURL)
		}
		websites[site] = r.Key
	}
	return &Catalog{retailers: append([]Config(nil), retailers...)}, nil
}

// websiteKey folds case and a trailing slash so equivalent base URLs collide.
func websiteKey(baseURL string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
}

type catalogFile struct {
	Retailers []Config `yaml:"retailers"`
}

// LoadCatalog merges the retailers file at path into the default catalog.
// The file is YAML, or a spreadsheet when it has an .xlsx extension. An
// empty path returns the defaults.
func LoadCatalog(path string) (*Catalog, error) {
	defaults := DefaultCatalog()
	if path == "" {
		return defaults, nil
	}

	var (
		extra []Config
		err   error
	)
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		extra, err = ReadSheetFile(path)
	} else {
		extra, err = readYAMLFile(path)
	}
	if err != nil {
		return nil, err
	}
	return defaults.Merge(extra)
}

func readYAMLFile(path string) ([]Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read retailers file %s: %w", path, err)
	}
	var file catalogFile
	if err = yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse retailers file %s: %w", path, err)
	}
	return file.Retailers, nil
}

// WriteYAML writes retailers in the retailers file format.
func WriteYAML(w io.Writer, retailers []Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(catalogFile{Retailers: retailers}); err != nil {
		return fmt.Errorf("encode retailers: %w", err)
	}
	return enc.Close()
}

// Merge returns a new catalog with extra applied: entries whose key matches
// an existing retailer replace it in place, new keys are appended in order.
func (c *Catalog) Merge(extra []Config) (*Catalog, error) {
	merged := c.Retailers()
	index := make(map[string]int, len(merged))
	for i, r := range merged {
		index[r.Key] = i
	}
	for _, r := range extra {
		if i, ok := index[r.Key]; ok {
			merged[i] = r
			continue
		}
		index[r.Key] = len(merged)
		merged = append(merged, r)
	}
	return NewCatalog(merged)
}

// Retailers returns a copy of the catalog in visiting order.
func (c *Catalog) Retailers() []Config {
	return append([]Config(nil), c.retailers...)
}

// Website returns the base URL of the retailer with the given display name.
func (c *Catalog) Website(name string) (string, bool) {
	for _, r := range c.retailers {
		if r.Name == name {
			return r.BaseURL, true
		}
	}
	return "", false
}
