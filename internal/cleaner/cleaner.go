// Package cleaner applies the quarterly panel cleaning policy.
package cleaner

import (
	"github.com/rewired-gh/macropanel/internal/logger"
	"github.com/rewired-gh/macropanel/internal/models"
	"github.com/rewired-gh/macropanel/internal/panel"
)

// DefaultColumnMissingThreshold is the largest missing fraction a column may have and survive.
const DefaultColumnMissingThreshold = 0.3

// Report describes what a Clean call removed.
type Report struct {
	Input              panel.Shape `json:"input"`
	Output             panel.Shape `json:"output"`
	Threshold          float64     `json:"threshold"`
	DroppedSparse      []string    `json:"dropped_sparse"`
	DroppedNonNumeric  []string    `json:"dropped_non_numeric"`
	DroppedRows        int         `json:"dropped_rows"`
	MissingBeforeClean int         `json:"missing_before_clean"`
}

// ValidateThreshold rejects thresholds outside [0, 1].
func ValidateThreshold(threshold float64) error {
	if !(threshold >= 0 && threshold <= 1) {
		return &models.InvalidConfigError{
			Param:  "column_missing_threshold",
			Value:  threshold,
			Reason: "must be within [0, 1]",
		}
	}
	return nil
}

// Clean returns a copy of p with no missing values and only numeric columns.
// The steps run in this order:
//  1. drop columns whose missing fraction on the input exceeds threshold
//  2. forward fill
//  3. backward fill
//  4. drop rows that still have a missing cell
//  5. drop non-numeric columns
func Clean(p *panel.Panel, threshold float64) (*panel.Panel, Report, error) {
	report := Report{Input: p.Shape(), Threshold: threshold, MissingBeforeClean: p.MissingCount()}
	if err := ValidateThreshold(threshold); err != nil {
		return nil, report, err
	}
	if report.Input.Rows == 0 || report.Input.Cols == 0 {
		return nil, report, &models.EmptyPanelError{
			Stage:     "load",
			InRows:    report.Input.Rows,
			InCols:    report.Input.Cols,
			Threshold: threshold,
		}
	}

	out := p.SelectColumns(func(c *panel.Column) bool {
		if c.MissingFraction() > threshold {
			report.DroppedSparse = append(report.DroppedSparse, c.Name)
			return false
		}
		return true
	})

	for _, c := range out.Columns {
		c.ForwardFill()
	}
	for _, c := range out.Columns {
		c.BackwardFill()
	}

	keep := make([]int, 0, len(out.Index))
	for i := range out.Index {
		complete := true
		for _, c := range out.Columns {
			if c.IsMissing(i) {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, i)
		}
	}
	report.DroppedRows = len(out.Index) - len(keep)
	out = out.SelectRows(keep)

	out = out.SelectColumns(func(c *panel.Column) bool {
		if c.Kind != panel.Numeric {
			report.DroppedNonNumeric = append(report.DroppedNonNumeric, c.Name)
			return false
		}
		return true
	})

	report.Output = out.Shape()
	if len(report.DroppedSparse) > 0 {
		logger.Debug("Dropped %d columns above missing threshold %.2f: %v",
			len(report.DroppedSparse), threshold, report.DroppedSparse)
	}
	if len(report.DroppedNonNumeric) > 0 {
		logger.Debug("Dropped non-numeric columns: %v", report.DroppedNonNumeric)
	}
	logger.Info("Cleaned dataset shape: %s", report.Output)

	if report.Output.Rows == 0 || report.Output.Cols == 0 {
		return nil, report, &models.EmptyPanelError{
			Stage:     "cleaning",
			InRows:    report.Input.Rows,
			InCols:    report.Input.Cols,
			OutRows:   report.Output.Rows,
			OutCols:   report.Output.Cols,
			Threshold: threshold,
		}
	}
	return out, report, nil
}
