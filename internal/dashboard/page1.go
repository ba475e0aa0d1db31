package dashboard

import (
	"strconv"

	"strakdash/internal/charts"
	"strakdash/internal/dataset"
	"strakdash/internal/sources"
)

// Page1Title heads page 1 and its area chart
const Page1Title = "Strak Corporation Analysis"

// PriceStats are the price averages over the Selected Range
type PriceStats struct {
	AvgClose  Stat `json:"avg_close"`
	AvgGrowth Stat `json:"avg_growth"`
	AvgVolume Stat `json:"avg_volume"`
}

// LossTotals are the funding sums over the Selected Range
type LossTotals struct {
	InstitutionalLoan Stat `json:"institutional_loan"`
	PrivatePlacement  Stat `json:"pp"`
	BondValue         Stat `json:"bond_value"`
	CommonStock       Stat `json:"common_stock"`
	Total             Stat `json:"total"`
}

// Slider describes the year range slider
type Slider struct {
	Min   int               `json:"min"`
	Max   int               `json:"max"`
	Step  int               `json:"step"`
	Marks map[string]string `json:"marks"`
	Value [2]int            `json:"value"`
}

// Page1 is everything page 1 shows for one Selected Range
type Page1 struct {
	Title       string         `json:"title"`
	Range       Range          `json:"range"`
	Slider      Slider         `json:"slider"`
	PriceStats  PriceStats     `json:"price_stats"`
	LossTotals  LossTotals     `json:"loss_totals"`
	PriceLabels []string       `json:"price_labels"`
	LossLabels  []string       `json:"loss_labels"`
	Chart       *charts.Figure `json:"chart"`
	Rows        *dataset.Table `json:"rows"`
}

// Slider returns the slider for the loss table years. Its value is the full domain.
func (s *Store) Slider() Slider {
	marks := make(map[string]string, len(s.years))
	for _, y := range s.years {
		label := strconv.Itoa(y)
		marks[label] = label
	}
	return Slider{
		Min:   s.domain.MinYear,
		Max:   s.domain.MaxYear,
		Step:  1,
		Marks: marks,
		Value: [2]int{s.domain.MinYear, s.domain.MaxYear},
	}
}

// Page1 filters the merged price view and the loss table to r and aggregates
// them. r is not checked against the domain; an empty selection yields NaN
// averages and zero totals.
func (s *Store) Page1(r Range) (*Page1, error) {
	prices, err := s.FilterYears(MergedName, ColYear, r)
	if err != nil {
		return nil, err
	}
	loss, err := s.FilterYears(sources.NameLoss, ColYear, r)
	if err != nil {
		return nil, err
	}

	ps, err := priceStats(prices)
	if err != nil {
		return nil, err
	}
	lt, err := lossTotals(loss)
	if err != nil {
		return nil, err
	}
	chart, err := areaChart(prices)
	if err != nil {
		return nil, err
	}

	return &Page1{
		Title:       Page1Title,
		Range:       r,
		Slider:      s.Slider(),
		PriceStats:  ps,
		LossTotals:  lt,
		PriceLabels: ps.Labels(),
		LossLabels:  lt.Labels(),
		Chart:       chart,
		Rows:        prices,
	}, nil
}

func priceStats(t *dataset.Table) (PriceStats, error) {
	var out PriceStats
	for col, dst := range map[string]*Stat{
		ColClose:  &out.AvgClose,
		ColGrowth: &out.AvgGrowth,
		ColVolume: &out.AvgVolume,
	} {
		m, err := dataset.Mean(t, col)
		if err != nil {
			return PriceStats{}, err
		}
		*dst = Stat(m)
	}
	return out, nil
}

func lossTotals(t *dataset.Table) (LossTotals, error) {
	sums, err := dataset.Sums(t, LossColumns...)
	if err != nil {
		return LossTotals{}, err
	}
	total, err := dataset.GrandTotal(t, ColYear)
	if err != nil {
		return LossTotals{}, err
	}
	return LossTotals{
		InstitutionalLoan: Stat(sums[ColInstLoan]),
		PrivatePlacement:  Stat(sums[ColPP]),
		BondValue:         Stat(sums[ColBondValue]),
		CommonStock:       Stat(sums[ColCommon]),
		Total:             Stat(total),
	}, nil
}

// Labels are the text lines shown above the chart
func (p PriceStats) Labels() []string {
	return []string{
		"Avg Close Price: " + p.AvgClose.String(),
		"Avg Growth: " + p.AvgGrowth.String(),
		"Avg Volume: " + p.AvgVolume.String(),
	}
}

// Labels are the text lines shown below the chart
func (l LossTotals) Labels() []string {
	return []string{
		"Total institutional loan: " + l.InstitutionalLoan.String(),
		"Total private placement: " + l.PrivatePlacement.String(),
		"Total bond value: " + l.BondValue.String(),
		"Total common stock value: " + l.CommonStock.String(),
	}
}

// areaChart plots Close and Volume on two y axes and pins each remark to its
// day's closing price.
func areaChart(t *dataset.Table) (*charts.Figure, error) {
	closeTrace, err := charts.Series(t, charts.TypeScatter, ColDate, ColClose)
	if err != nil {
		return nil, err
	}
	closeTrace.Fill = charts.FillToZeroY
	closeTrace.FillColor = "rgba(255, 0, 0, 0.52)"

	volumeTrace, err := charts.Series(t, charts.TypeScatter, ColDate, ColVolume)
	if err != nil {
		return nil, err
	}
	volumeTrace.Fill = charts.FillToZeroY
	volumeTrace.FillColor = "rgba(0, 255, 0, 0.52)"
	volumeTrace.Line = &charts.Line{Color: "green"}
	volumeTrace.YAxis = charts.SecondaryY

	remarks, err := t.Column(ColRemark)
	if err != nil {
		return nil, err
	}
	var notes []charts.Annotation
	for i, remark := range remarks {
		if remark.IsNull() {
			continue
		}
		notes = append(notes, charts.Annotation{
			X:          closeTrace.X[i],
			Y:          closeTrace.Y[i],
			Text:       remark.String(),
			XAnchor:    "center",
			YAnchor:    "bottom",
			ShowArrow:  true,
			ArrowHead:  2,
			ArrowSize:  1,
			ArrowWidth: 2,
			ArrowColor: "black",
			Font:       &charts.Font{Size: 12},
		})
	}

	return &charts.Figure{
		Data: []charts.Trace{closeTrace, volumeTrace},
		Layout: charts.Layout{
			Title:       charts.TitleText(Page1Title),
			XAxis:       &charts.Axis{Title: charts.TitleText("Date")},
			YAxis:       &charts.Axis{Title: charts.TitleText("Close"), Color: "red"},
			YAxis2:      &charts.Axis{Title: charts.TitleText("Volume"), Overlaying: "y", Side: "right", Color: "green"},
			Annotations: notes,
		},
	}, nil
}
