package sources

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"strakdash/internal/dataset"
)

// Dataset names the dashboard depends on
const (
	NameLoss         = "loss"
	NamePrice        = "price"
	NameTimeline     = "timeline"
	NameShareholders = "stark_sh"
	NameIncomeCom    = "incomecom"
	NameIncome       = "income"
	NameFinancial    = "financial"
	NameCapacity     = "capacity"
)

// DefaultBaseURL is where the published datasets live
const DefaultBaseURL = "https://raw.githubusercontent.com/kkengg/Strak_corporation_500/main/"

// Entry is one named dataset in a catalog
type Entry struct {
	Name        string        `yaml:"name" json:"name" validate:"required"`
	Source      string        `yaml:"source" json:"source" validate:"required"`
	Description string        `yaml:"description" json:"description,omitempty"`
	YearColumn  string        `yaml:"year_column" json:"year_column,omitempty"`
	Normalize   dataset.Rules `yaml:"normalize" json:"normalize"`
}

// Catalog lists the datasets to load. Relative sources are resolved against BaseURL.
type Catalog struct {
	BaseURL  string  `yaml:"base_url" json:"base_url,omitempty"`
	Datasets []Entry `yaml:"datasets" json:"datasets" validate:"required,min=1,dive"`
}

var catalogValidator = validator.New()

// DefaultCatalog returns the eight published Strak datasets with their cleaning rules
func DefaultCatalog() *Catalog {
	return &Catalog{
		BaseURL: DefaultBaseURL,
		Datasets: []Entry{
			{
				Name:        NameLoss,
				Source:      "loss_money.csv",
				Description: "Yearly funding raised by instrument",
				YearColumn:  "Year",
				Normalize: dataset.Rules{
					Placeholder: "-",
					Replacement: "0",
					Numeric:     []string{"institutional_loan", "pp", "bond_value", "common_stock"},
				},
			},
			{Name: NamePrice, Source: "price.csv", Description: "Daily share price", YearColumn: "Year"},
			{Name: NameTimeline, Source: "Timeline%20Stark.csv", Description: "Company events by start date"},
			{
				Name:        NameShareholders,
				Source:      "stark_sh.csv",
				Description: "Shareholder percentages",
				Normalize:   dataset.Rules{Coerce: []string{"sh"}},
			},
			{Name: NameIncomeCom, Source: "incomecom.csv", Description: "Income by company", YearColumn: "Year"},
			{Name: NameIncome, Source: "income.csv", Description: "Income by type", YearColumn: "year"},
			{Name: NameFinancial, Source: "financial.csv", Description: "Financial position by type", YearColumn: "year"},
			{Name: NameCapacity, Source: "capacity.csv", Description: "Production capacity and utilisation", YearColumn: "year"},
		},
	}
}

// LoadCatalog reads a YAML catalog file
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	cat, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return cat, nil
}

// ParseCatalog decodes and validates a YAML catalog
func ParseCatalog(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.UnmarshalStrict(data, &cat); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate checks required fields and name uniqueness
func (c *Catalog) Validate() error {
	if err := catalogValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}
	seen := make(map[string]bool, len(c.Datasets))
	for _, e := range c.Datasets {
		if seen[e.Name] {
			return fmt.Errorf("invalid catalog: duplicate dataset %q", e.Name)
		}
		seen[e.Name] = true
	}
	return nil
}

// Entry returns the named dataset
func (c *Catalog) Entry(name string) (Entry, bool) {
	for _, e := range c.Datasets {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Names lists the dataset names in catalog order
func (c *Catalog) Names() []string {
	out := make([]string, len(c.Datasets))
	for i, e := range c.Datasets {
		out[i] = e.Name
	}
	return out
}

// Require fails when any of the given names is missing from the catalog
func (c *Catalog) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := c.Entry(n); !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("catalog is missing datasets: %s", strings.Join(missing, ", "))
	}
	return nil
}

// URI returns the absolute location of e
func (c *Catalog) URI(e Entry) string {
	src := e.Source
	if c.BaseURL == "" || strings.Contains(src, "://") || filepath.IsAbs(src) {
		return src
	}
	return strings.TrimSuffix(c.BaseURL, "/") + "/" + strings.TrimPrefix(src, "/")
}
