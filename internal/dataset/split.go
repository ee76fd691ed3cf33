package dataset

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/rewired-gh/macropanel/internal/models"
)

// ValidateTestFraction rejects fractions outside the open interval (0, 1).
func ValidateTestFraction(testFraction float64) error {
	if !(testFraction > 0 && testFraction < 1) {
		return &models.InvalidConfigError{
			Param:  "test_fraction",
			Value:  testFraction,
			Reason: "must be within (0, 1)",
		}
	}
	return nil
}

// SplitIndex is floor((1 - testFraction) * rows). Both partitions must be non-empty.
func SplitIndex(rows int, testFraction float64) (int, error) {
	if err := ValidateTestFraction(testFraction); err != nil {
		return 0, err
	}
	idx := int(math.Floor((1 - testFraction) * float64(rows)))
	if idx <= 0 || idx >= rows {
		return idx, &models.DegenerateSplitError{Rows: rows, TestFraction: testFraction, SplitIndex: idx}
	}
	return idx, nil
}

// Split partitions rows chronologically: train is [0, idx), test is [idx, rows).
// Both partitions are copies.
func Split(x *mat.Dense, testFraction float64) (train, test *mat.Dense, idx int, err error) {
	rows, cols := x.Dims()
	idx, err = SplitIndex(rows, testFraction)
	if err != nil {
		return nil, nil, idx, err
	}
	train = mat.DenseCopyOf(x.Slice(0, idx, 0, cols))
	test = mat.DenseCopyOf(x.Slice(idx, rows, 0, cols))
	return train, test, idx, nil
}
