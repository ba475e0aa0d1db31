package dataset

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRecords(t *testing.T, header []string, records ...[]string) *Table {
	t.Helper()
	tbl, err := FromRecords(header, records)
	require.NoError(t, err)
	return tbl
}

func TestFromRecords_InfersKinds(t *testing.T) {
	tbl := mustRecords(t, []string{"Year", "name", "pp", "empty"},
		[]string{"2020", "alpha", "1.5", ""},
		[]string{"2021", "beta", "-", ""},
	)

	kinds := map[string]Kind{}
	for _, c := range tbl.Columns() {
		kinds[c.Name] = c.Kind
	}
	assert.Equal(t, KindNumber, kinds["Year"])
	assert.Equal(t, KindText, kinds["name"])
	assert.Equal(t, KindText, kinds["pp"], "placeholder keeps the column textual")
	assert.Equal(t, KindNull, kinds["empty"])
	assert.Equal(t, 2, tbl.Len())
}

func TestFromRecords_ShortAndLongRecords(t *testing.T) {
	tbl, err := FromRecords([]string{"a", "b"}, [][]string{{"1"}})
	require.NoError(t, err)
	v, err := tbl.Value(0, "b")
	require.NoError(t, err)
	assert.True(t, v.IsNull())

	_, err = FromRecords([]string{"a"}, [][]string{{"1", "2"}})
	assert.Error(t, err)
}

func TestFromRecords_DuplicateHeaders(t *testing.T) {
	tbl := mustRecords(t, []string{"x", "x", "x"}, []string{"1", "2", "3"})
	assert.Equal(t, []string{"x", "x.1", "x.2"}, tbl.ColumnNames())
}

func TestNew_Validation(t *testing.T) {
	_, err := New([]string{"a", "a"}, nil)
	assert.Error(t, err)

	_, err = New([]string{"a", "b"}, [][]Value{{Number(1)}})
	assert.Error(t, err)
}

func TestTable_MissingColumn(t *testing.T) {
	tbl := mustRecords(t, []string{"a"}, []string{"1"})

	_, err := tbl.Column("nope")
	var missing *MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "nope", missing.Column)
}

func TestTable_Select(t *testing.T) {
	tbl := mustRecords(t, []string{"a", "b", "c"}, []string{"1", "x", "3"})

	sel, err := tbl.Select("c", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, sel.ColumnNames())
	v, _ := sel.Value(0, "c")
	f, ok := v.Float()
	assert.True(t, ok)
	assert.Equal(t, 3.0, f)
}

func TestTable_Records(t *testing.T) {
	tbl := mustRecords(t, []string{"Year", "REMARK"},
		[]string{"2020", "IPO"},
		[]string{"2021.5", ""},
	)
	header, recs := tbl.Records()
	assert.Equal(t, []string{"Year", "REMARK"}, header)
	assert.Equal(t, [][]string{{"2020", "IPO"}, {"2021.5", ""}}, recs)
}

func TestTable_MarshalJSON(t *testing.T) {
	tbl := mustRecords(t, []string{"Year", "REMARK"}, []string{"2020", ""})

	data, err := json.Marshal(tbl)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"columns": [{"name":"Year","kind":"number"},{"name":"REMARK","kind":"null"}],
		"rows": [{"Year":2020,"REMARK":null}],
		"count": 1
	}`, string(data))
}

func TestValue_Semantics(t *testing.T) {
	assert.False(t, Null().Equal(Null()), "null never equals null")
	assert.True(t, Number(2).Equal(Number(2)))
	assert.False(t, Number(2).Equal(Text("2")))
	assert.True(t, Text("a").Equal(Text("a")))

	assert.True(t, Number(math.NaN()).IsNull())

	assert.Equal(t, "", Null().String())
	assert.Equal(t, "0.5", Number(0.5).String())
}
