package panel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var nan = math.NaN()

func TestFillDirections(t *testing.T) {
	c := &Column{Name: "x", Kind: Numeric, Values: []float64{nan, nan, 1, nan, 3, nan}}

	c.ForwardFill()
	assert.True(t, math.IsNaN(c.Values[0]))
	assert.True(t, math.IsNaN(c.Values[1]))
	assert.Equal(t, []float64{1, 1, 3, 3}, c.Values[2:])

	c.BackwardFill()
	assert.Equal(t, []float64{1, 1, 1, 1, 3, 3}, c.Values)
}

func TestFillTextColumn(t *testing.T) {
	c := &Column{Name: "label", Kind: Text, Labels: []string{"", "a", "", "b"}}
	c.ForwardFill()
	c.BackwardFill()
	assert.Equal(t, []string{"a", "a", "a", "b"}, c.Labels)
}

func TestAddRejectsBadColumns(t *testing.T) {
	p := New([]string{"2020-01-01", "2020-04-01"})
	require.NoError(t, p.AddNumeric("a", []float64{1, 2}))

	assert.Error(t, p.AddNumeric("a", []float64{3, 4}), "duplicate name")
	assert.Error(t, p.AddNumeric("b", []float64{1}), "length mismatch")
	assert.Error(t, p.AddText("", []string{"x", "y"}), "empty name")
	assert.Equal(t, Shape{Rows: 2, Cols: 1}, p.Shape())
}

func TestCloneIsIndependent(t *testing.T) {
	p := New([]string{"0", "1"})
	require.NoError(t, p.AddNumeric("a", []float64{1, nan}))

	c := p.Clone()
	c.Columns[0].ForwardFill()

	assert.True(t, math.IsNaN(p.Columns[0].Values[1]))
	assert.Equal(t, 1.0, c.Columns[0].Values[1])
}

func TestSelectRowsKeepsOrder(t *testing.T) {
	p := New([]string{"a", "b", "c", "d"})
	require.NoError(t, p.AddNumeric("v", []float64{1, 2, 3, 4}))
	require.NoError(t, p.AddText("t", []string{"w", "x", "y", "z"}))

	s := p.SelectRows([]int{0, 2, 3})
	assert.Equal(t, []string{"a", "c", "d"}, s.Index)
	assert.Equal(t, []float64{1, 3, 4}, s.Columns[0].Values)
	assert.Equal(t, []string{"w", "y", "z"}, s.Columns[1].Labels)
}

func TestMatrix(t *testing.T) {
	p := New([]string{"a", "b"})
	require.NoError(t, p.AddNumeric("x", []float64{1, 2}))
	require.NoError(t, p.AddNumeric("y", []float64{3, 4}))

	m, err := p.Matrix()
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, []float64{2, 4}, m.RawRowView(1))

	require.NoError(t, p.AddText("label", []string{"u", "v"}))
	_, err = p.Matrix()
	assert.Error(t, err)

	gap := New([]string{"a"})
	require.NoError(t, gap.AddNumeric("x", []float64{nan}))
	_, err = gap.Matrix()
	assert.Error(t, err)

	_, err = New(nil).Matrix()
	assert.Error(t, err)
}

func TestPickReordersAndCopies(t *testing.T) {
	p := New([]string{"a", "b"})
	require.NoError(t, p.AddNumeric("x", []float64{1, 2}))
	require.NoError(t, p.AddText("label", []string{"u", "v"}))
	require.NoError(t, p.AddNumeric("y", []float64{3, 4}))

	picked, err := p.Pick([]string{"y", "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "x"}, picked.ColumnNames())
	assert.Equal(t, p.Index, picked.Index)

	picked.Columns[0].Values[0] = 99
	assert.Equal(t, 3.0, p.Columns[2].Values[0])

	_, err = p.Pick([]string{"x", "z"})
	assert.Error(t, err)
}

func TestFromMatrix(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	p, err := FromMatrix([]string{"a", "b"}, []string{"x", "y"}, m)
	require.NoError(t, err)
	assert.Equal(t, Shape{Rows: 2, Cols: 2}, p.Shape())
	assert.Equal(t, []float64{1, 3}, p.Columns[0].Values)
	assert.Equal(t, []float64{2, 4}, p.Columns[1].Values)

	back, err := p.Matrix()
	require.NoError(t, err)
	assert.True(t, mat.Equal(m, back))

	_, err = FromMatrix([]string{"a"}, []string{"x", "y"}, m)
	assert.Error(t, err)
	_, err = FromMatrix([]string{"a", "b"}, []string{"x"}, m)
	assert.Error(t, err)
}

func TestMissingCounts(t *testing.T) {
	p := New([]string{"a", "b", "c", "d"})
	require.NoError(t, p.AddNumeric("x", []float64{nan, 1, nan, 2}))
	require.NoError(t, p.AddText("t", []string{"", "b", "c", "d"}))

	x, ok := p.Column("x")
	require.True(t, ok)
	assert.Equal(t, 0.5, x.MissingFraction())
	assert.Equal(t, 3, p.MissingCount())
}
