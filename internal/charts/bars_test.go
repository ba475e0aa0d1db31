package charts

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strakdash/internal/dataset"
)

func shareholders(t *testing.T) *dataset.Table {
	t.Helper()
	tbl, err := dataset.FromRecords([]string{"name", "type", "sh"}, [][]string{
		{"Alpha", "institution", "35.5"},
		{"Retail", "individual", ""},
		{"Beta", "institution", "20"},
		{"", "individual", "1"},
	})
	require.NoError(t, err)
	return tbl
}

func TestBars_GroupsByColor(t *testing.T) {
	fig, err := Bars(shareholders(t), BarSpec{
		X: "sh", Y: "type", Color: "name", Text: "sh",
		Orientation: OrientationH, BarMode: BarModeStack,
		Title: "Horizontal Stacked Bar Chart", XTitle: "Shareholder Percentage", YTitle: "Type",
		Width: 1000, Height: 600,
	})
	require.NoError(t, err)

	require.Len(t, fig.Data, 3, "null colour rows are skipped")
	assert.Equal(t, "Alpha", fig.Data[0].Name)
	assert.Equal(t, "Retail", fig.Data[1].Name)
	assert.Equal(t, "Beta", fig.Data[2].Name)
	assert.Equal(t, Palette[1], fig.Data[1].Marker.Color)
	assert.Equal(t, OrientationH, fig.Data[0].Orientation)
	assert.Len(t, fig.Data[0].Text, 1)

	assert.Equal(t, BarModeStack, fig.Layout.BarMode)
	assert.Equal(t, "Shareholder Percentage", fig.Layout.XAxis.Title.Text)
	assert.Equal(t, 1000, fig.Layout.Width)
	assert.Equal(t, "name", fig.Layout.Legend.Title.Text)
}

func TestBars_SingleTraceAndDefaults(t *testing.T) {
	fig, err := Bars(shareholders(t), BarSpec{X: "type", Y: "sh"})
	require.NoError(t, err)

	require.Len(t, fig.Data, 1)
	assert.Len(t, fig.Data[0].X, 4)
	assert.Equal(t, "type", fig.Layout.XAxis.Title.Text)
	assert.Equal(t, BarModeRelative, fig.Layout.BarMode)
	assert.Nil(t, fig.Layout.Title)
}

func TestBars_MissingColumn(t *testing.T) {
	_, err := Bars(shareholders(t), BarSpec{X: "nope", Y: "sh"})
	assert.Error(t, err)
	_, err = Bars(shareholders(t), BarSpec{X: "sh", Y: "type", Color: "nope"})
	assert.Error(t, err)
}

func TestFigure_JSON(t *testing.T) {
	tr, err := Series(shareholders(t), TypeScatter, "name", "sh")
	require.NoError(t, err)
	fig := Figure{
		Data: []Trace{tr},
		Layout: Layout{
			Title:  TitleText("Demo"),
			YAxis2: &Axis{Title: ColoredTitle("Volume", "green"), Overlaying: "y", Side: "right"},
		},
	}

	data, err := json.Marshal(fig)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	traces := decoded["data"].([]interface{})
	first := traces[0].(map[string]interface{})
	assert.Equal(t, "scatter", first["type"])
	ys := first["y"].([]interface{})
	assert.Nil(t, ys[1], "missing values are JSON null")
	assert.Equal(t, 35.5, ys[0])

	layout := decoded["layout"].(map[string]interface{})
	y2 := layout["yaxis2"].(map[string]interface{})
	assert.Equal(t, "y", y2["overlaying"])
	assert.Equal(t, "right", y2["side"])
}
