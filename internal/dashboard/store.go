// Package dashboard computes what the two dashboard pages show.
//
// A Store is built once from the loaded tables and never modified, so any
// number of requests may read it at the same time. Page1 filters and
// aggregates for a Selected Range; Page2 has no inputs. A Dispatcher maps
// dashboard events to the handler that recomputes the affected page.
package dashboard

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"strakdash/internal/dataset"
	"strakdash/internal/sources"
)

// Column names the dashboard reads
const (
	ColYear       = "Year"
	ColDate       = "Date"
	ColClose      = "Close"
	ColGrowth     = "Growth"
	ColVolume     = "Volume"
	ColStartDate  = "Start Date"
	ColRemark     = "REMARK"
	ColInstLoan   = "institutional_loan"
	ColPP         = "pp"
	ColBondValue  = "bond_value"
	ColCommon     = "common_stock"
	colLowerYear  = "year"
	colLowerValue = "value"
	colType       = "type"
)

// MergedName is the store name of the price table joined with timeline remarks
const MergedName = "merged"

// LossColumns are the four funding columns summed on page 1
var LossColumns = []string{ColInstLoan, ColPP, ColBondValue, ColCommon}

// Range errors
var (
	ErrRangeInverted = errors.New("min_year must not exceed max_year")
	ErrRangeOutside  = errors.New("year range outside the available data")
	ErrNoYears       = errors.New("loss table has no years")
)

// Range is an inclusive year interval
type Range struct {
	MinYear int `json:"min_year"`
	MaxYear int `json:"max_year"`
}

// String renders the range as "lo-hi"
func (r Range) String() string {
	return strconv.Itoa(r.MinYear) + "-" + strconv.Itoa(r.MaxYear)
}

// Store holds every table the pages read
type Store struct {
	tables map[string]*dataset.Table
	names  []string
	domain Range
	years  []int
}

// requiredColumns lists, per dataset, the columns the pages touch
var requiredColumns = map[string][]string{
	sources.NameLoss:         append([]string{ColYear}, LossColumns...),
	sources.NamePrice:        {ColDate, ColClose, ColGrowth, ColVolume, ColYear},
	sources.NameTimeline:     {ColStartDate, ColRemark},
	sources.NameShareholders: {"name", colType, "sh"},
	sources.NameIncomeCom:    {ColYear, "Value", colType},
	sources.NameIncome:       {colLowerYear, colLowerValue, colType},
	sources.NameFinancial:    {colLowerYear, colLowerValue, colType},
	sources.NameCapacity:     {colLowerYear, colLowerValue, colType},
}

// NewStore checks the loaded tables, builds the merged view and derives the
// year domain from the loss table.
func NewStore(tables sources.Tables) (*Store, error) {
	s := &Store{tables: make(map[string]*dataset.Table, len(tables)+1)}

	for name, cols := range requiredColumns {
		t, ok := tables[name]
		if !ok {
			return nil, fmt.Errorf("dataset %q not loaded", name)
		}
		for _, c := range cols {
			if !t.HasColumn(c) {
				return nil, fmt.Errorf("dataset %q: %w", name, &dataset.MissingColumnError{Column: c})
			}
		}
	}
	for name, t := range tables {
		s.tables[name] = t
	}

	remarks, err := tables[sources.NameTimeline].Select(ColStartDate, ColRemark)
	if err != nil {
		return nil, err
	}
	merged, err := dataset.LeftJoin(tables[sources.NamePrice], remarks, ColDate, ColStartDate)
	if err != nil {
		return nil, fmt.Errorf("merge price with timeline: %w", err)
	}
	s.tables[MergedName] = merged

	for name := range s.tables {
		s.names = append(s.names, name)
	}
	sort.Strings(s.names)

	years, err := dataset.UniqueNumbers(tables[sources.NameLoss], ColYear)
	if err != nil {
		return nil, fmt.Errorf("loss years: %w", err)
	}
	if len(years) == 0 {
		return nil, ErrNoYears
	}
	for _, y := range years {
		s.years = append(s.years, int(math.Round(y)))
	}
	s.domain = Range{MinYear: s.years[0], MaxYear: s.years[len(s.years)-1]}
	return s, nil
}

// Table returns a table by dataset name, including MergedName
func (s *Store) Table(name string) (*dataset.Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// Names lists every table in the store, sorted
func (s *Store) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Domain is the full year range of the loss table
func (s *Store) Domain() Range { return s.domain }

// Years are the distinct loss table years, ascending
func (s *Store) Years() []int {
	out := make([]int, len(s.years))
	copy(out, s.years)
	return out
}

// CheckRange enforces lo <= hi with both ends inside the year domain
func (s *Store) CheckRange(r Range) error {
	if r.MinYear > r.MaxYear {
		return fmt.Errorf("%w: %s", ErrRangeInverted, r)
	}
	if r.MinYear < s.domain.MinYear || r.MaxYear > s.domain.MaxYear {
		return fmt.Errorf("%w: %s not within %s", ErrRangeOutside, r, s.domain)
	}
	return nil
}

// FilterYears returns the rows of the named table whose year column lies in r
func (s *Store) FilterYears(name, yearCol string, r Range) (*dataset.Table, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("dataset %q not found", name)
	}
	return dataset.FilterRange(t, yearCol, float64(r.MinYear), float64(r.MaxYear))
}
