package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func sequential(rows, cols int) *mat.Dense {
	x := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			x.Set(i, j, float64(i*(j+1))+float64(j)*10)
		}
	}
	return x
}

func TestScalerFitTransform(t *testing.T) {
	x := sequential(50, 3)
	s := NewScaler([]string{"a", "b", "c"})

	out, err := s.FitTransform(x)
	require.NoError(t, err)
	assert.True(t, s.Fitted())
	assert.Equal(t, 50, s.Count)

	col := make([]float64, 50)
	for j := 0; j < 3; j++ {
		mat.Col(col, j, out)
		mean, variance := stat.PopMeanVariance(col, nil)
		assert.InDelta(t, 0, mean, 1e-9)
		assert.InDelta(t, 1, math.Sqrt(variance), 1e-9)
	}
}

func TestScalerConstantColumn(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{
		1, 7,
		2, 7,
		3, 7,
		4, 7,
	})
	s := NewScaler(nil)
	out, err := s.FitTransform(x)
	require.NoError(t, err)

	assert.Equal(t, 1.0, s.Scale[1])
	for i := 0; i < 4; i++ {
		assert.Equal(t, 0.0, out.At(i, 1))
		assert.False(t, math.IsNaN(out.At(i, 0)))
	}
}

func TestScalerWidthMismatch(t *testing.T) {
	s := NewScaler([]string{"a", "b"})
	assert.Error(t, s.Fit(sequential(5, 3)))

	s = NewScaler(nil)
	require.NoError(t, s.Fit(sequential(5, 2)))
	_, err := s.Transform(sequential(5, 3))
	assert.Error(t, err)
}

func TestScalerUnfitted(t *testing.T) {
	s := NewScaler(nil)
	_, err := s.Transform(sequential(2, 2))
	assert.Error(t, err)
}

func TestScalerInverseTransform(t *testing.T) {
	x := sequential(20, 4)
	s := NewScaler(nil)
	scaled, err := s.FitTransform(x)
	require.NoError(t, err)

	back, err := s.InverseTransform(scaled)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(x, back, 1e-9))
}

func TestScalerFailedRefitKeepsParameters(t *testing.T) {
	s := NewScaler([]string{"a", "b"})
	require.NoError(t, s.Fit(sequential(10, 2)))
	mean := append([]float64(nil), s.Mean...)
	scale := append([]float64(nil), s.Scale...)

	assert.Error(t, s.Fit(sequential(10, 3)))
	assert.True(t, s.Fitted())
	assert.Equal(t, 10, s.Count)
	assert.Equal(t, mean, s.Mean)
	assert.Equal(t, scale, s.Scale)

	_, err := s.Transform(sequential(4, 2))
	assert.NoError(t, err)
}
