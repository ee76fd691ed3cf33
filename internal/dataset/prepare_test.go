package dataset

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/rewired-gh/macropanel/internal/models"
	"github.com/rewired-gh/macropanel/internal/panel"
)

func quarterlyIndex(n int) []string {
	idx := make([]string, n)
	for i := range idx {
		idx[i] = fmt.Sprintf("%04d-%02d-01", 1990+i/4, (i%4)*3+1)
	}
	return idx
}

func samplePanel(t *testing.T, rows int) *panel.Panel {
	t.Helper()
	p := panel.New(quarterlyIndex(rows))

	gdp := make([]float64, rows)
	cpi := make([]float64, rows)
	sparse := make([]float64, rows)
	labels := make([]string, rows)
	for i := 0; i < rows; i++ {
		gdp[i] = 100 + float64(i)*1.5
		cpi[i] = 50 + math.Sin(float64(i))
		sparse[i] = math.NaN()
		labels[i] = fmt.Sprintf("q%d", i)
	}
	if rows > 3 {
		gdp[3] = math.NaN()
	}
	cpi[0] = math.NaN()
	for i := 0; i < rows/10; i++ {
		sparse[i] = float64(i)
	}

	require.NoError(t, p.AddNumeric("GDP", gdp))
	require.NoError(t, p.AddNumeric("CPI", cpi))
	require.NoError(t, p.AddNumeric("Sparse", sparse))
	require.NoError(t, p.AddText("Label", labels))
	return p
}

func TestPrepare(t *testing.T) {
	p := samplePanel(t, 100)
	opts := DefaultOptions()
	opts.Seed = 1

	res, err := Prepare(p, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"GDP", "CPI", "Sparse", "Label"}, res.OriginalColumns)
	assert.Equal(t, []string{"GDP", "CPI"}, res.Scaler.Columns)
	assert.Equal(t, []string{"Sparse"}, res.CleanReport.DroppedSparse)
	assert.Equal(t, []string{"Label"}, res.CleanReport.DroppedNonNumeric)
	assert.Equal(t, 80, res.SplitIndex)

	assert.Equal(t, 80, res.Train.Len())
	assert.Equal(t, 20, res.Test.Len())
	assert.True(t, res.Train.Shuffled())
	assert.False(t, res.Test.Shuffled())
	assert.Equal(t, 3, res.Train.NumBatches())
	assert.Equal(t, 1, res.Test.NumBatches())

	all := &mat.Dense{}
	all.Stack(res.Train.Data(), res.Test.Data())
	col := make([]float64, 100)
	for j := 0; j < 2; j++ {
		mat.Col(col, j, all)
		mean, variance := stat.PopMeanVariance(col, nil)
		assert.InDelta(t, 0, mean, 1e-9)
		assert.InDelta(t, 1, math.Sqrt(variance), 1e-9)
	}
}

func TestPrepareLeavesInputUntouched(t *testing.T) {
	p := samplePanel(t, 20)
	before := p.MissingCount()

	_, err := Prepare(p, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, before, p.MissingCount())
	assert.Equal(t, 4, p.Shape().Cols)
}

func TestPrepareRejectsBadOptions(t *testing.T) {
	p := samplePanel(t, 20)
	tests := []Options{
		{TestFraction: 0, BatchSize: 32, ColumnMissingThreshold: 0.3},
		{TestFraction: 1, BatchSize: 32, ColumnMissingThreshold: 0.3},
		{TestFraction: 0.2, BatchSize: 0, ColumnMissingThreshold: 0.3},
		{TestFraction: 0.2, BatchSize: 32, ColumnMissingThreshold: 1.2},
	}
	for _, opts := range tests {
		_, err := Prepare(p, opts)
		var invalid *models.InvalidConfigError
		assert.True(t, errors.As(err, &invalid), "%+v", opts)
	}
}

func TestPrepareDegenerateSplit(t *testing.T) {
	p := samplePanel(t, 1)
	_, err := Prepare(p, DefaultOptions())
	var degenerate *models.DegenerateSplitError
	assert.True(t, errors.As(err, &degenerate))
}

func TestPrepareEmptyPanel(t *testing.T) {
	_, err := Prepare(panel.New(nil), DefaultOptions())
	var empty *models.EmptyPanelError
	assert.True(t, errors.As(err, &empty))
}
