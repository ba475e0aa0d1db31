package dashboard

import (
	"fmt"

	"strakdash/internal/charts"
	"strakdash/internal/dataset"
	"strakdash/internal/sources"
)

// Page2Title heads page 2
const Page2Title = "Horizontal Stacked Bar Chart Example"

// Page 2 figure ids, in display order
const (
	FigShareholders = "stacked-bar-chart"
	FigIncomeCom    = "grouped-bar-chart-incomecom"
	FigIncome       = "stacked-bar-chart-income"
	FigFinancial    = "grouped-bar-chart-financial"
	FigCapacity     = "filtered-bar-chart-capacity"
	FigCombined     = "combined-chart"
)

// NamedFigure is a figure with the id of the slot it fills
type NamedFigure struct {
	ID     string         `json:"id"`
	Figure *charts.Figure `json:"figure"`
}

// Page2 is the static company overview page
type Page2 struct {
	Title   string        `json:"title"`
	Figures []NamedFigure `json:"figures"`
}

// Figure returns the figure with the given id
func (p *Page2) Figure(id string) (*charts.Figure, bool) {
	for _, f := range p.Figures {
		if f.ID == id {
			return f.Figure, true
		}
	}
	return nil, false
}

// Page2 builds the six overview figures
func (s *Store) Page2() (*Page2, error) {
	builders := []struct {
		id    string
		build func() (*charts.Figure, error)
	}{
		{FigShareholders, s.shareholderFigure},
		{FigIncomeCom, s.groupedFigure(sources.NameIncomeCom, ColYear, "Value", "Grouped Bar Chart: Incomecom by Year and Type")},
		{FigIncome, s.groupedFigure(sources.NameIncome, colLowerYear, colLowerValue, "Stacked Bar Chart: Income by Year and Type")},
		{FigFinancial, s.groupedFigure(sources.NameFinancial, colLowerYear, colLowerValue, "Grouped Bar Chart: Financial by Year and Type")},
		{FigCapacity, s.capacityFigure},
		{FigCombined, s.combinedFigure},
	}

	page := &Page2{Title: Page2Title, Figures: make([]NamedFigure, 0, len(builders))}
	for _, b := range builders {
		fig, err := b.build()
		if err != nil {
			return nil, fmt.Errorf("figure %s: %w", b.id, err)
		}
		page.Figures = append(page.Figures, NamedFigure{ID: b.id, Figure: fig})
	}
	return page, nil
}

func (s *Store) shareholderFigure() (*charts.Figure, error) {
	fig, err := charts.Bars(s.tables[sources.NameShareholders], charts.BarSpec{
		X:           "sh",
		Y:           colType,
		Color:       "name",
		Text:        "sh",
		Orientation: charts.OrientationH,
		BarMode:     charts.BarModeStack,
		XTitle:      "Shareholder Percentage",
		YTitle:      "Type",
		Width:       1000,
		Height:      600,
	})
	if err != nil {
		return nil, err
	}

	hidden := false
	for i := range fig.Data {
		fig.Data[i].TextFont = &charts.Font{Size: 12}
		fig.Data[i].Marker = &charts.Marker{Color: charts.Prism}
		fig.Data[i].ShowLegend = &hidden
	}
	fig.Layout.Title = &charts.Title{
		Text:    "Horizontal Stacked Bar Chart",
		X:       0.5,
		XAnchor: "center",
		Font:    &charts.Font{Size: 30},
	}
	return fig, nil
}

func (s *Store) groupedFigure(name, x, y, title string) func() (*charts.Figure, error) {
	return func() (*charts.Figure, error) {
		return charts.Bars(s.tables[name], charts.BarSpec{
			X:       x,
			Y:       y,
			Color:   colType,
			BarMode: charts.BarModeGroup,
			Title:   title,
		})
	}
}

func (s *Store) capacityOf(kind string) (*dataset.Table, error) {
	return dataset.FilterEquals(s.tables[sources.NameCapacity], colType, dataset.Text(kind))
}

func (s *Store) capacityFigure() (*charts.Figure, error) {
	capacity, err := s.capacityOf("capacity")
	if err != nil {
		return nil, err
	}
	return charts.Bars(capacity, charts.BarSpec{
		X:      colLowerYear,
		Y:      colLowerValue,
		Title:  "Filtered Bar Chart: Capacity by Year",
		XTitle: "Year",
		YTitle: "Value",
	})
}

func (s *Store) combinedFigure() (*charts.Figure, error) {
	capacity, err := s.capacityOf("capacity")
	if err != nil {
		return nil, err
	}
	perCapacity, err := s.capacityOf("percapacity")
	if err != nil {
		return nil, err
	}

	bar, err := charts.Series(capacity, charts.TypeBar, colLowerYear, colLowerValue)
	if err != nil {
		return nil, err
	}
	bar.Name = "Capacity"

	line, err := charts.Series(perCapacity, charts.TypeScatter, colLowerYear, colLowerValue)
	if err != nil {
		return nil, err
	}
	line.Name = "Per Capacity"
	line.Mode = charts.ModeLines
	line.YAxis = charts.SecondaryY

	return &charts.Figure{
		Data: []charts.Trace{bar, line},
		Layout: charts.Layout{
			Title:  charts.TitleText("Combined Chart: Capacity and Per Capacity by Year"),
			XAxis:  &charts.Axis{Title: charts.TitleText("Year")},
			YAxis:  &charts.Axis{Title: charts.TitleText("Capacity"), Color: "blue"},
			YAxis2: &charts.Axis{Title: charts.TitleText("Per Capacity"), Overlaying: "y", Side: "right", Color: "red"},
		},
	}, nil
}
