package charts

import (
	"fmt"

	"strakdash/internal/dataset"
)

// BarSpec describes a bar chart drawn straight from table columns
type BarSpec struct {
	X     string
	Y     string
	Color string // one trace per distinct value; empty for a single trace
	Text  string // column shown as bar labels

	Orientation string
	BarMode     string
	Title       string
	XTitle      string // defaults to X
	YTitle      string // defaults to Y
	Width       int
	Height      int
}

// Bars builds a bar figure from t. With a Color column every distinct value
// becomes its own trace, in order of first appearance, and rows whose colour
// cell is null are left out.
func Bars(t *dataset.Table, spec BarSpec) (*Figure, error) {
	traces, err := barTraces(t, spec)
	if err != nil {
		return nil, err
	}

	layout := Layout{
		XAxis:   &Axis{Title: TitleText(orDefault(spec.XTitle, spec.X))},
		YAxis:   &Axis{Title: TitleText(orDefault(spec.YTitle, spec.Y))},
		BarMode: orDefault(spec.BarMode, BarModeRelative),
		Width:   spec.Width,
		Height:  spec.Height,
	}
	if spec.Title != "" {
		layout.Title = TitleText(spec.Title)
	}
	if spec.Color != "" {
		layout.Legend = &Legend{Title: TitleText(spec.Color)}
	}
	return &Figure{Data: traces, Layout: layout}, nil
}

func barTraces(t *dataset.Table, spec BarSpec) ([]Trace, error) {
	xs, err := t.Column(spec.X)
	if err != nil {
		return nil, fmt.Errorf("bar x: %w", err)
	}
	ys, err := t.Column(spec.Y)
	if err != nil {
		return nil, fmt.Errorf("bar y: %w", err)
	}
	var texts []dataset.Value
	if spec.Text != "" {
		if texts, err = t.Column(spec.Text); err != nil {
			return nil, fmt.Errorf("bar text: %w", err)
		}
	}

	if spec.Color == "" {
		tr := Trace{Type: TypeBar, X: xs, Y: ys, Text: texts, Orientation: spec.Orientation,
			Marker: &Marker{Color: Palette[0]}}
		if texts != nil {
			tr.TextPosition = "auto"
		}
		return []Trace{tr}, nil
	}

	colors, err := t.Column(spec.Color)
	if err != nil {
		return nil, fmt.Errorf("bar color: %w", err)
	}

	var order []string
	groups := make(map[string]*Trace)
	for i, c := range colors {
		if c.IsNull() {
			continue
		}
		name := c.String()
		tr, ok := groups[name]
		if !ok {
			tr = &Trace{
				Type:        TypeBar,
				Name:        name,
				X:           []dataset.Value{},
				Y:           []dataset.Value{},
				Orientation: spec.Orientation,
				Marker:      &Marker{Color: Palette[len(order)%len(Palette)]},
			}
			if texts != nil {
				tr.TextPosition = "auto"
			}
			groups[name] = tr
			order = append(order, name)
		}
		tr.X = append(tr.X, xs[i])
		tr.Y = append(tr.Y, ys[i])
		if texts != nil {
			tr.Text = append(tr.Text, texts[i])
		}
	}

	out := make([]Trace, len(order))
	for i, name := range order {
		out[i] = *groups[name]
	}
	return out, nil
}

// Series returns a single trace of kind typ plotting y against x
func Series(t *dataset.Table, typ, x, y string) (Trace, error) {
	xs, err := t.Column(x)
	if err != nil {
		return Trace{}, err
	}
	ys, err := t.Column(y)
	if err != nil {
		return Trace{}, err
	}
	return Trace{Type: typ, Name: y, X: xs, Y: ys}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
