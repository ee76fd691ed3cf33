// Package dataset turns a raw panel into scaled, chronologically split batch sources.
package dataset

import (
	"fmt"

	"github.com/rewired-gh/macropanel/internal/cleaner"
	"github.com/rewired-gh/macropanel/internal/logger"
	"github.com/rewired-gh/macropanel/internal/models"
	"github.com/rewired-gh/macropanel/internal/panel"
)

// Options controls Prepare.
type Options struct {
	TestFraction           float64
	BatchSize              int
	ColumnMissingThreshold float64
	// Seed fixes the train shuffle; zero seeds from the clock.
	Seed uint64
}

// DefaultOptions returns test fraction 0.2, batch size 32 and threshold 0.3.
func DefaultOptions() Options {
	return Options{
		TestFraction:           0.2,
		BatchSize:              32,
		ColumnMissingThreshold: cleaner.DefaultColumnMissingThreshold,
	}
}

// Validate rejects bad options before any work starts.
func (o Options) Validate() error {
	if o.BatchSize <= 0 {
		return &models.InvalidConfigError{Param: "batch_size", Value: o.BatchSize, Reason: "must be positive"}
	}
	if err := ValidateTestFraction(o.TestFraction); err != nil {
		return err
	}
	return cleaner.ValidateThreshold(o.ColumnMissingThreshold)
}

// Result is everything Prepare hands back to the caller.
type Result struct {
	Train           *BatchSource
	Test            *BatchSource
	Scaler          *Scaler
	OriginalColumns []string
	CleanReport     cleaner.Report
	SplitIndex      int
}

// Prepare cleans p, standardizes it with a scaler fitted on all cleaned rows,
// splits it chronologically and wraps both partitions as batch sources.
// The scaler sees test rows too; this matches the reference pipeline.
func Prepare(p *panel.Panel, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	logger.Info("Original dataset shape: %s", p.Shape())
	original := p.ColumnNames()

	cleaned, report, err := cleaner.Clean(p, opts.ColumnMissingThreshold)
	if err != nil {
		return nil, err
	}

	x, err := cleaned.Matrix()
	if err != nil {
		return nil, fmt.Errorf("failed to build feature matrix: %w", err)
	}
	scaler := NewScaler(cleaned.ColumnNames())
	scaled, err := scaler.FitTransform(x)
	if err != nil {
		return nil, fmt.Errorf("failed to scale features: %w", err)
	}

	trainData, testData, idx, err := Split(scaled, opts.TestFraction)
	if err != nil {
		return nil, err
	}

	train, err := NewBatchSource(trainData, opts.BatchSize, true, opts.Seed)
	if err != nil {
		return nil, err
	}
	test, err := NewBatchSource(testData, opts.BatchSize, false, opts.Seed)
	if err != nil {
		return nil, err
	}

	tr, tc := train.Dims()
	er, ec := test.Dims()
	logger.Info("Training dataset shape: %s", panel.Shape{Rows: tr, Cols: tc})
	logger.Info("Testing dataset shape: %s", panel.Shape{Rows: er, Cols: ec})

	return &Result{
		Train:           train,
		Test:            test,
		Scaler:          scaler,
		OriginalColumns: original,
		CleanReport:     report,
		SplitIndex:      idx,
	}, nil
}
