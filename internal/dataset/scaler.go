package dataset

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// minScale is the smallest standard deviation used as a divisor; smaller ones become 1.
const minScale = 10 * 2.220446049250313e-16

// Scaler standardizes each column to zero mean and unit variance using
// parameters learned once and reused for any same-shaped input.
type Scaler struct {
	Columns  []string  `json:"columns"`
	Count    int       `json:"count"`
	Mean     []float64 `json:"mean"`
	Variance []float64 `json:"variance"`
	Scale    []float64 `json:"scale"`
}

// NewScaler returns an unfitted scaler for the named columns.
func NewScaler(columns []string) *Scaler {
	return &Scaler{Columns: append([]string(nil), columns...)}
}

// Fitted reports whether Fit has seen data.
func (s *Scaler) Fitted() bool {
	return s.Count > 0 && len(s.Mean) > 0
}

// Fit learns per-column mean and population standard deviation, replacing any
// previous fit. On error the scaler is left unchanged.
func (s *Scaler) Fit(x mat.Matrix) error {
	rows, cols := x.Dims()
	if rows == 0 {
		return errors.New("cannot fit scaler on zero rows")
	}
	if len(s.Columns) > 0 && cols != len(s.Columns) {
		return fmt.Errorf("input has %d columns, scaler expects %d", cols, len(s.Columns))
	}

	mean := make([]float64, cols)
	variance := make([]float64, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, x)
		mean[j], variance[j] = stat.PopMeanVariance(col, nil)
	}
	s.Count = rows
	s.Mean = mean
	s.Variance = variance
	s.updateScale()
	return nil
}

func (s *Scaler) updateScale() {
	s.Scale = make([]float64, len(s.Variance))
	for j, v := range s.Variance {
		sd := math.Sqrt(v)
		if sd < minScale {
			sd = 1
		}
		s.Scale[j] = sd
	}
}

// Transform returns (x - mean) / scale.
func (s *Scaler) Transform(x mat.Matrix) (*mat.Dense, error) {
	return s.apply(x, func(v, mean, scale float64) float64 { return (v - mean) / scale })
}

// InverseTransform returns x * scale + mean.
func (s *Scaler) InverseTransform(x mat.Matrix) (*mat.Dense, error) {
	return s.apply(x, func(v, mean, scale float64) float64 { return v*scale + mean })
}

// FitTransform fits on x and transforms it.
func (s *Scaler) FitTransform(x mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(x); err != nil {
		return nil, err
	}
	return s.Transform(x)
}

func (s *Scaler) apply(x mat.Matrix, f func(v, mean, scale float64) float64) (*mat.Dense, error) {
	if !s.Fitted() {
		return nil, errors.New("scaler is not fitted")
	}
	rows, cols := x.Dims()
	if cols != len(s.Mean) {
		return nil, fmt.Errorf("input has %d columns, scaler was fitted on %d", cols, len(s.Mean))
	}
	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(i, j int, v float64) float64 {
		return f(v, s.Mean[j], s.Scale[j])
	}, x)
	return out, nil
}
