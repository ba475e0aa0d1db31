// Package charts describes figures in the Plotly JSON schema. The server never
// draws anything; a figure is data plus layout that any Plotly client renders.
package charts

import (
	"strakdash/internal/dataset"
)

// Figure is a complete chart: traces plus layout
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is one series
type Trace struct {
	Type         string          `json:"type"`
	Name         string          `json:"name,omitempty"`
	X            []dataset.Value `json:"x"`
	Y            []dataset.Value `json:"y"`
	Text         []dataset.Value `json:"text,omitempty"`
	TextPosition string          `json:"textposition,omitempty"`
	Mode         string          `json:"mode,omitempty"`
	Fill         string          `json:"fill,omitempty"`
	FillColor    string          `json:"fillcolor,omitempty"`
	Orientation  string          `json:"orientation,omitempty"`
	YAxis        string          `json:"yaxis,omitempty"`
	TextFont     *Font           `json:"textfont,omitempty"`
	Line         *Line           `json:"line,omitempty"`
	Marker       *Marker         `json:"marker,omitempty"`
	ShowLegend   *bool           `json:"showlegend,omitempty"`
}

// Line styles a line or area trace
type Line struct {
	Color string  `json:"color,omitempty"`
	Width float64 `json:"width,omitempty"`
}

// Marker styles bars and points. Color is a single colour string or one
// colour per point.
type Marker struct {
	Color interface{} `json:"color,omitempty"`
}

// Font sets text styling
type Font struct {
	Color string `json:"color,omitempty"`
	Size  int    `json:"size,omitempty"`
}

// Title is a titled element's text and font
type Title struct {
	Text    string  `json:"text"`
	Font    *Font   `json:"font,omitempty"`
	X       float64 `json:"x,omitempty"`
	XAnchor string  `json:"xanchor,omitempty"`
}

// Axis configures one axis
type Axis struct {
	Title      *Title `json:"title,omitempty"`
	Color      string `json:"color,omitempty"`
	TickFont   *Font  `json:"tickfont,omitempty"`
	Overlaying string `json:"overlaying,omitempty"`
	Side       string `json:"side,omitempty"`
	Type       string `json:"type,omitempty"`
}

// Annotation is a text label pointing at a data coordinate
type Annotation struct {
	X          dataset.Value `json:"x"`
	Y          dataset.Value `json:"y"`
	Text       string        `json:"text"`
	XAnchor    string        `json:"xanchor,omitempty"`
	YAnchor    string        `json:"yanchor,omitempty"`
	ShowArrow  bool          `json:"showarrow"`
	ArrowHead  int           `json:"arrowhead,omitempty"`
	ArrowSize  float64       `json:"arrowsize,omitempty"`
	ArrowWidth float64       `json:"arrowwidth,omitempty"`
	ArrowColor string        `json:"arrowcolor,omitempty"`
	Font       *Font         `json:"font,omitempty"`
	XRef       string        `json:"xref,omitempty"`
	YRef       string        `json:"yref,omitempty"`
}

// Layout holds everything that is not a trace
type Layout struct {
	Title       *Title       `json:"title,omitempty"`
	XAxis       *Axis        `json:"xaxis,omitempty"`
	YAxis       *Axis        `json:"yaxis,omitempty"`
	YAxis2      *Axis        `json:"yaxis2,omitempty"`
	BarMode     string       `json:"barmode,omitempty"`
	Width       int          `json:"width,omitempty"`
	Height      int          `json:"height,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
	Legend      *Legend      `json:"legend,omitempty"`
}

// Legend configures the legend box
type Legend struct {
	Title *Title `json:"title,omitempty"`
}

// Trace types and modes
const (
	TypeBar     = "bar"
	TypeScatter = "scatter"

	ModeLines        = "lines"
	ModeLinesMarkers = "lines+markers"

	BarModeGroup    = "group"
	BarModeStack    = "stack"
	BarModeRelative = "relative"

	FillToZeroY = "tozeroy"

	OrientationH = "h"
	OrientationV = "v"

	SecondaryY = "y2"
)

// Palette is the default qualitative colour sequence assigned to colour groups
var Palette = []string{
	"#636efa", "#EF553B", "#00cc96", "#ab63fa", "#FFA15A",
	"#19d3f3", "#FF6692", "#B6E880", "#FF97FF", "#FECB52",
}

// Prism is the qualitative sequence used for per-bar colouring
var Prism = []string{
	"rgb(95, 70, 144)", "rgb(29, 105, 150)", "rgb(56, 166, 165)", "rgb(15, 133, 84)",
	"rgb(115, 175, 72)", "rgb(237, 173, 8)", "rgb(225, 124, 5)", "rgb(204, 80, 62)",
	"rgb(148, 52, 110)", "rgb(111, 64, 112)", "rgb(102, 102, 102)",
}

// TitleText is shorthand for a plain title
func TitleText(text string) *Title {
	return &Title{Text: text}
}

// ColoredTitle is a title drawn in color
func ColoredTitle(text, color string) *Title {
	return &Title{Text: text, Font: &Font{Color: color}}
}
